// Package bft implements the commit layer: deterministic leader
// election, causal subdag extraction, and the commit loop that turns a
// confirmed anchor into a ledger block.
package bft

import (
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/nyx-network/nyx-bft/pkg/core/ledgerservice"
	"github.com/nyx-network/nyx-bft/pkg/core/reputation"
	"github.com/nyx-network/nyx-bft/pkg/core/types"
)

var log = logger.WithFields(logger.Fields{"process": "bft"})

// StorageView is the slice of the storage DAG the commit layer needs:
// certificate and transmission lookup by id, and per-round certificate
// sets. Kept as an interface so Committer never depends on storage's
// concrete locking strategy.
type StorageView interface {
	GetCertificate(id types.CertificateID) (*types.BatchCertificate, bool)
	GetCertificatesForRound(round uint64) []*types.BatchCertificate
	GetTransmission(id types.TransmissionID) (types.Transmission, bool)
}

// Committer maintains the DAG view derived from storage and applies
// the commit rule. It is safe for concurrent use; commit attempts for
// distinct anchor rounds are serialized so the previous-anchor
// boundary bookkeeping stays consistent.
type Committer struct {
	mu      sync.Mutex
	ledger  ledgerservice.Ledger
	storage StorageView

	// committed holds every certificate id already folded into a prior
	// committed subdag; BFS during extraction stops there rather than
	// re-walking already-committed history.
	committed map[types.CertificateID]struct{}

	// moderator tallies a strike against every lookback committee member
	// who did not author a certificate at a just-committed anchor round.
	// Nil if this node runs without reputation tracking.
	moderator *reputation.Moderator
}

// NewCommitter constructs a Committer over the given ledger and storage
// view. moderator may be nil to run without reputation tracking.
func NewCommitter(ledger ledgerservice.Ledger, storage StorageView, moderator *reputation.Moderator) *Committer {
	return &Committer{
		ledger:    ledger,
		storage:   storage,
		committed: make(map[types.CertificateID]struct{}),
		moderator: moderator,
	}
}

// electAnchorLeader resolves anchorRound's committee lookback and
// elects its leader from (lookback, round) alone.
func (c *Committer) electAnchorLeader(anchorRound uint64) (types.Committee, string, error) {
	lookback, err := c.ledger.GetCommitteeLookbackForRound(anchorRound)
	if err != nil {
		return types.Committee{}, "", err
	}
	return lookback, types.ElectLeader(lookback, anchorRound), nil
}

// findLeaderCertificate returns anchorRound's certificate authored by
// the elected leader, if the storage DAG currently holds one.
func (c *Committer) findLeaderCertificate(anchorRound uint64, leader string) *types.BatchCertificate {
	for _, cert := range c.storage.GetCertificatesForRound(anchorRound) {
		if cert.Header.Author == leader {
			return cert
		}
	}
	return nil
}

// isConfirmed reports whether anchorRound+1 holds certificates from a
// quorum of distinct authors, each referencing leaderCert directly.
func (c *Committer) isConfirmed(anchorRound uint64, leaderCert *types.BatchCertificate, lookback types.Committee) bool {
	leaderID := leaderCert.ID()
	authors := make(map[string]struct{})
	for _, cert := range c.storage.GetCertificatesForRound(anchorRound + 1) {
		if references(cert, leaderID) {
			authors[cert.Header.Author] = struct{}{}
		}
	}
	return lookback.ReachesQuorum(authors)
}

// tallyLiveness clears the previous anchor's strike tally, then strikes
// every lookback committee member who did not author a certificate at
// this anchorRound, so each anchor is judged independently and the
// result stays visible until the next anchor commits. A no-op if this
// Committer was built without a moderator.
func (c *Committer) tallyLiveness(anchorRound uint64, lookback types.Committee) {
	if c.moderator == nil {
		return
	}
	c.moderator.AdvanceRound()

	authored := make(map[string]struct{})
	for _, cert := range c.storage.GetCertificatesForRound(anchorRound) {
		authored[cert.Header.Author] = struct{}{}
	}
	for _, member := range lookback.Members {
		if _, ok := authored[member.Address]; !ok {
			c.moderator.AddStrike(member.Address)
		}
	}
}

func references(cert *types.BatchCertificate, id types.CertificateID) bool {
	for _, prev := range cert.Header.PreviousCertificateIDs {
		if prev == id {
			return true
		}
	}
	return false
}

// TryCommit attempts to confirm and extract the subdag anchored at
// anchorRound. It returns ErrNoAnchor if the round's elected leader
// has not yet certified a batch, and ErrAnchorNotConfirmed if the
// leader certificate exists but lacks quorum confirmation from round
// anchorRound+1. Both are retryable: a skipped anchor's certificates
// stay reachable through the next committed anchor's causal history.
func (c *Committer) TryCommit(anchorRound uint64) (*types.Subdag, error) {
	if anchorRound%2 != 0 {
		return nil, ErrNoAnchor
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lookback, leader, err := c.electAnchorLeader(anchorRound)
	if err != nil {
		return nil, err
	}

	leaderCert := c.findLeaderCertificate(anchorRound, leader)
	if leaderCert == nil {
		return nil, ErrNoAnchor
	}

	if !c.isConfirmed(anchorRound, leaderCert, lookback) {
		return nil, ErrAnchorNotConfirmed
	}

	c.tallyLiveness(anchorRound, lookback)

	subdag := c.extractSubdag(leaderCert, anchorRound)
	for _, certs := range subdag.Certificates {
		for _, cert := range certs {
			c.committed[cert.ID()] = struct{}{}
		}
	}

	log.WithFields(logger.Fields{
		"anchor_round": anchorRound,
		"leader":       leader,
		"certificates": len(subdag.OrderedCertificates()),
	}).Info("subdag confirmed")
	return subdag, nil
}

// extractSubdag walks previous-certificate ids from the leader
// certificate, stopping at certificates already folded into a prior
// committed subdag. The caller must hold c.mu.
func (c *Committer) extractSubdag(leaderCert *types.BatchCertificate, anchorRound uint64) *types.Subdag {
	subdag := types.NewSubdag(leaderCert.ID(), anchorRound)

	visited := map[types.CertificateID]struct{}{}
	queue := []*types.BatchCertificate{leaderCert}

	for len(queue) > 0 {
		cert := queue[0]
		queue = queue[1:]

		id := cert.ID()
		if _, ok := visited[id]; ok {
			continue
		}
		if _, already := c.committed[id]; already {
			continue
		}
		visited[id] = struct{}{}
		subdag.Add(cert)

		for _, prevID := range cert.Header.PreviousCertificateIDs {
			if _, ok := visited[prevID]; ok {
				continue
			}
			if _, already := c.committed[prevID]; already {
				continue
			}
			prev, ok := c.storage.GetCertificate(prevID)
			if !ok {
				continue
			}
			queue = append(queue, prev)
		}
	}
	return subdag
}

// Commit extracts and commits the anchorRound subdag: builds the
// transmission set, synthesizes the block via the ledger, advances the
// ledger, and updates the latest-leader cache.
func (c *Committer) Commit(anchorRound uint64) (*ledgerservice.Block, error) {
	subdag, err := c.TryCommit(anchorRound)
	if err != nil {
		return nil, err
	}

	transmissions := make(map[types.TransmissionID]types.Transmission)
	for _, id := range subdag.OrderedTransmissionIDs() {
		if tx, ok := c.storage.GetTransmission(id); ok {
			transmissions[id] = tx
		}
	}

	block, err := c.ledger.PrepareAdvanceToNextQuorumBlock(subdag, transmissions)
	if err != nil {
		return nil, err
	}
	if err := c.ledger.CheckNextBlock(block, subdag, c.storage); err != nil {
		return nil, err
	}
	if err := c.ledger.AdvanceToNextBlock(block); err != nil {
		return nil, err
	}

	leaderCert, _ := c.storage.GetCertificate(subdag.LeaderCertificateID)
	if leaderCert != nil {
		c.ledger.UpdateLatestLeader(leaderCert.Header.Author, anchorRound)
	}
	return block, nil
}
