// Package testutil is the one place in this module allowed to
// fabricate signatures: deterministic, non-cryptographic fixtures for
// building quorum certificates in tests. Nothing outside _test.go
// files may import it.
package testutil

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/nyx-network/nyx-bft/pkg/core/types"
)

// ForgeSignature returns a deterministic, NOT cryptographically valid
// signature for (signer, batchID). Production code must never call
// this; it exists so unit tests can synthesize quorum certificates
// without standing up real validator keys.
func ForgeSignature(signer string, batchID types.BatchID) []byte {
	h := sha256.New()
	h.Write([]byte("forged-signature:"))
	h.Write([]byte(signer))
	h.Write(batchID[:])
	return h.Sum(nil)
}

// ForgeCertificate builds a BatchCertificate over header, signed via
// ForgeSignature by every address in signers except header.Author,
// which is skipped. Test-only: it exists to
// let tests exercise quorum-dependent code paths (storage insertion,
// BFT confirmation) without a real signing pipeline.
func ForgeCertificate(header types.BatchHeader, signers []string) *types.BatchCertificate {
	batchID := header.BatchID()
	sigs := make([]types.SignerSignature, 0, len(signers))
	for _, signer := range signers {
		if signer == header.Author {
			continue
		}
		sigs = append(sigs, types.SignerSignature{
			Signer:    signer,
			Signature: ForgeSignature(signer, batchID),
		})
	}
	return &types.BatchCertificate{Header: header, Signatures: sigs}
}

// ForgeRound is a small deterministic helper for giving forged test
// fixtures distinct but reproducible nonces across a round's batches.
func ForgeRound(round uint64, index uint64) uint64 {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[:8], round)
	binary.LittleEndian.PutUint64(b[8:], index)
	sum := sha256.Sum256(b[:])
	return binary.LittleEndian.Uint64(sum[:8])
}
