package types

import "sort"

// SignerSignature pairs a validator address with its signature over a
// batch-id.
type SignerSignature struct {
	Signer    string
	Signature []byte
}

// BatchCertificate is a batch header plus enough additional signatures
// to reach quorum over its committee-lookback.
type BatchCertificate struct {
	Header     BatchHeader
	Signatures []SignerSignature
}

// ID returns the certificate-id derived from the header's batch-id.
func (c *BatchCertificate) ID() CertificateID {
	return CertificateIDFromBatch(c.Header.BatchID())
}

// SignerSet returns every validator address that contributed a
// signature to this certificate, including the author (whose signature
// lives on the header, not in Signatures).
func (c *BatchCertificate) SignerSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Signatures)+1)
	set[c.Header.Author] = struct{}{}
	for _, s := range c.Signatures {
		set[s.Signer] = struct{}{}
	}
	return set
}

// ReachesQuorum reports whether this certificate's combined signer
// stake reaches quorum in the given committee, the defining property of
// a valid BatchCertificate.
func (c *BatchCertificate) ReachesQuorum(committee Committee) bool {
	return committee.ReachesQuorum(c.SignerSet())
}

// SortSignatures orders Signatures by signer address, giving the
// certificate a canonical representation independent of signature
// arrival order.
func (c *BatchCertificate) SortSignatures() {
	sort.Slice(c.Signatures, func(i, j int) bool {
		return c.Signatures[i].Signer < c.Signatures[j].Signer
	})
}
