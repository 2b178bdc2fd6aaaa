package types

import (
	"encoding/hex"
	"fmt"

	"github.com/nyx-network/nyx-bft/pkg/crypto"
)

// Kind tags the variant of a Transmission.
type Kind uint8

const (
	// KindSolution is a puzzle solution submitted by a prover.
	KindSolution Kind = iota
	// KindTransaction is a client-submitted transaction.
	KindTransaction
	// KindRatification is structurally permitted but never accepted
	// into a batch in this protocol version.
	KindRatification
)

// String renders a Kind for logging.
func (k Kind) String() string {
	switch k {
	case KindSolution:
		return "solution"
	case KindTransaction:
		return "transaction"
	case KindRatification:
		return "ratification"
	default:
		return "unknown"
	}
}

// TransmissionID globally identifies a Transmission by (kind,
// content-hash, checksum). It is a plain comparable value so it can be
// used directly as a map key in worker ready queues and storage DAG
// indices.
type TransmissionID struct {
	Kind     Kind
	Hash     [32]byte
	Checksum [4]byte
}

// String renders a TransmissionID as a short hex form, for logging.
func (id TransmissionID) String() string {
	return fmt.Sprintf("%s:%s", id.Kind, hex.EncodeToString(id.Hash[:8]))
}

// Transmission is a unit of content carried by the mempool: a solution,
// a transaction, or (structurally) a ratification.
type Transmission struct {
	ID      TransmissionID
	Payload []byte
}

// NewTransmission computes a TransmissionID over payload and kind and
// returns the resulting Transmission. The checksum is the same one
// ensure_transmission_is_well_formed recomputes on admission, so a
// Transmission built here is self-consistent by construction.
func NewTransmission(kind Kind, payload []byte) Transmission {
	sum := crypto.Checksum(payload)
	return Transmission{
		ID: TransmissionID{
			Kind:     kind,
			Hash:     crypto.ContentHash(payload),
			Checksum: sum,
		},
		Payload: payload,
	}
}

// VerifyChecksum reports whether t's payload still matches the checksum
// carried in its id, guarding against a payload that has been tampered
// with after the id was computed.
func (t Transmission) VerifyChecksum() bool {
	return crypto.CompareChecksum(t.Payload, t.ID.Checksum)
}
