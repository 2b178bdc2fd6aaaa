package types

import "sort"

// Subdag is the causally-closed set of certificates committed together
// in one block, anchored by a leader certificate at the highest (even)
// round in the set.
type Subdag struct {
	LeaderCertificateID CertificateID
	AnchorRound         uint64
	Certificates        map[uint64][]*BatchCertificate
}

// NewSubdag returns an empty Subdag anchored at the given leader.
func NewSubdag(leader CertificateID, anchorRound uint64) *Subdag {
	return &Subdag{
		LeaderCertificateID: leader,
		AnchorRound:         anchorRound,
		Certificates:        make(map[uint64][]*BatchCertificate),
	}
}

// Add inserts a certificate at its header round.
func (s *Subdag) Add(cert *BatchCertificate) {
	r := cert.Header.Round
	s.Certificates[r] = append(s.Certificates[r], cert)
}

// Contains reports whether id is present anywhere in the subdag.
func (s *Subdag) Contains(id CertificateID) bool {
	for _, certs := range s.Certificates {
		for _, c := range certs {
			if c.ID() == id {
				return true
			}
		}
	}
	return false
}

// Rounds returns the subdag's rounds in ascending order.
func (s *Subdag) Rounds() []uint64 {
	rounds := make([]uint64, 0, len(s.Certificates))
	for r := range s.Certificates {
		rounds = append(rounds, r)
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i] < rounds[j] })
	return rounds
}

// OrderedCertificates returns every certificate in the subdag, ordered
// round ascending and, within a round, by author address.
func (s *Subdag) OrderedCertificates() []*BatchCertificate {
	out := make([]*BatchCertificate, 0)
	for _, r := range s.Rounds() {
		certs := append([]*BatchCertificate(nil), s.Certificates[r]...)
		sort.Slice(certs, func(i, j int) bool {
			return certs[i].Header.Author < certs[j].Header.Author
		})
		out = append(out, certs...)
	}
	return out
}

// OrderedTransmissionIDs returns every transmission id referenced by any
// certificate in the subdag: certificate order as above, then header
// order within a certificate. A transmission referenced by more than
// one certificate is kept only on first occurrence.
func (s *Subdag) OrderedTransmissionIDs() []TransmissionID {
	seen := make(map[TransmissionID]struct{})
	out := make([]TransmissionID, 0)
	for _, cert := range s.OrderedCertificates() {
		for _, id := range cert.Header.TransmissionIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
