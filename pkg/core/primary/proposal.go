package primary

import (
	"sync"
	"time"

	"github.com/nyx-network/nyx-bft/pkg/core/types"
)

// proposal is an in-flight batch header accumulating signatures until
// it reaches quorum and becomes a BatchCertificate.
type proposal struct {
	mu sync.Mutex

	header        types.BatchHeader
	transmissions []types.Transmission
	committee     types.Committee
	timestamp     time.Time

	signatures map[string][]byte // signer address -> signature, self excluded (header carries author's own authorization implicitly)
}

func newProposal(header types.BatchHeader, transmissions []types.Transmission, committee types.Committee) *proposal {
	return &proposal{
		header:        header,
		transmissions: transmissions,
		committee:     committee,
		timestamp:     time.Now(),
		signatures:    make(map[string][]byte),
	}
}

func (p *proposal) batchID() types.BatchID {
	return p.header.BatchID()
}

// addSignature records signer's signature, returning true the first
// time the combined signer set (including the author) reaches quorum.
func (p *proposal) addSignature(signer string, signature []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if signer == p.header.Author {
		return false
	}
	if _, dup := p.signatures[signer]; dup {
		return false
	}
	before := p.reachesQuorumLocked()
	p.signatures[signer] = signature

	return !before && p.reachesQuorumLocked()
}

// reachesQuorum is the locking wrapper around reachesQuorumLocked, for
// callers that are not already holding p.mu.
func (p *proposal) reachesQuorum() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reachesQuorumLocked()
}

func (p *proposal) reachesQuorumLocked() bool {
	signers := make(map[string]struct{}, len(p.signatures)+1)
	signers[p.header.Author] = struct{}{}
	for s := range p.signatures {
		signers[s] = struct{}{}
	}
	return p.committee.ReachesQuorum(signers)
}

// certificate assembles a BatchCertificate from the proposal's current
// signature set.
func (p *proposal) certificate() *types.BatchCertificate {
	p.mu.Lock()
	defer p.mu.Unlock()
	sigs := make([]types.SignerSignature, 0, len(p.signatures))
	for signer, sig := range p.signatures {
		sigs = append(sigs, types.SignerSignature{Signer: signer, Signature: sig})
	}
	cert := &types.BatchCertificate{Header: p.header, Signatures: sigs}
	cert.SortSignatures()
	return cert
}
