package types

import (
	"bytes"
	"encoding/binary"
	"time"
)

// CertificateID identifies a BatchCertificate, derived from its
// batch-id.
type CertificateID [32]byte

// BatchID content-addresses a BatchHeader, excluding signatures.
type BatchID [32]byte

// BatchHeader is the signed body of a proposed batch.
type BatchHeader struct {
	Author                 string
	Round                  uint64
	Timestamp              time.Time
	CommitteeID            string
	TransmissionIDs        []TransmissionID
	PreviousCertificateIDs []CertificateID
	Nonce                  uint64
	Signature              []byte
}

// encodeHashable serializes every field except Signature, in a fixed
// order, so BatchID is stable and independent of signature bytes.
func (h *BatchHeader) encodeHashable() []byte {
	buf := new(bytes.Buffer)
	buf.WriteString(h.Author)
	writeUint64(buf, h.Round)
	writeUint64(buf, uint64(h.Timestamp.UnixNano()))
	buf.WriteString(h.CommitteeID)
	writeUint64(buf, uint64(len(h.TransmissionIDs)))
	for _, id := range h.TransmissionIDs {
		buf.WriteByte(byte(id.Kind))
		buf.Write(id.Hash[:])
		buf.Write(id.Checksum[:])
	}
	writeUint64(buf, uint64(len(h.PreviousCertificateIDs)))
	for _, id := range h.PreviousCertificateIDs {
		buf.Write(id[:])
	}
	writeUint64(buf, h.Nonce)
	return buf.Bytes()
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// BatchID computes the content hash identifying this header.
func (h *BatchHeader) BatchID() BatchID {
	return BatchID(hashBytes(h.encodeHashable()))
}

// CertificateIDFromBatch derives a certificate-id from a batch-id: a
// hash over the batch-id bytes tagged with a domain separator, so a
// certificate id never collides with its own batch id.
func CertificateIDFromBatch(id BatchID) CertificateID {
	tagged := append([]byte("certificate:"), id[:]...)
	return CertificateID(hashBytes(tagged))
}

func hashBytes(b []byte) [32]byte {
	return contentHash(b)
}
