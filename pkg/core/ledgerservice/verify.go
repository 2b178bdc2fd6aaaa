package ledgerservice

import (
	logger "github.com/sirupsen/logrus"

	"github.com/nyx-network/nyx-bft/pkg/core/types"
)

// CertificateLookup resolves a certificate by id, letting the subdag
// atomicity check walk causal history beyond the certificates
// physically present in the subdag being verified.
type CertificateLookup interface {
	GetCertificate(id types.CertificateID) (*types.BatchCertificate, bool)
}

// VerifyBlock enforces block admission in order: unique height, no
// duplicate solutions, the finalize-state/committee checks the caller
// has already resolved into state and lookback, and finally the subdag
// atomicity check.
func VerifyBlock(ledger Ledger, block *Block, subdag *types.Subdag, state FinalizeState, lookback, prevLookback types.Committee, lookup CertificateLookup) error {
	if ledger.ContainsBlockHeight(block.Height) {
		return ErrDuplicateBlockHeight
	}

	seen := make(map[types.TransmissionID]struct{}, len(block.Solutions))
	for _, id := range block.Solutions {
		if _, dup := seen[id]; dup {
			return ErrDuplicateSolution
		}
		seen[id] = struct{}{}
	}

	if state.Round != block.Round || state.Height != block.Height {
		return ErrSpeculationFailed
	}

	if lookback.Round == 0 && len(lookback.Members) == 0 {
		return ErrCommitteeMismatch
	}
	if !lookback.IsMember(subdagLeaderAuthor(subdag)) {
		return ErrCommitteeMismatch
	}

	return verifySubdagAtomicity(ledger, subdag, lookback, prevLookback, lookup)
}

// subdagLeaderAuthor returns the author of the subdag's anchor
// certificate, or "" if it is absent (malformed subdag, caught by the
// committee membership check above).
func subdagLeaderAuthor(subdag *types.Subdag) string {
	for _, certs := range subdag.Certificates[subdag.AnchorRound] {
		if certs.ID() == subdag.LeaderCertificateID {
			return certs.Header.Author
		}
	}
	return ""
}

// verifySubdagAtomicity: for every even round strictly between the
// ledger's latest committed round and this subdag's anchor round, if
// the subdag contains a certificate authored by that round's elected
// leader, there must be no causal path from it to the subdag's own
// leader certificate. A path would mean this block is trying to commit
// two anchors' worth of history as one atomic unit.
func verifySubdagAtomicity(ledger Ledger, subdag *types.Subdag, lookback, prevLookback types.Committee, lookup CertificateLookup) error {
	latest := ledger.LatestRound()
	anchor := subdag.AnchorRound

	if anchor < latest+2 {
		return nil
	}

	for r := latest + 2; r <= anchor-2; r += 2 {
		rLookback, err := ledger.GetCommitteeLookbackForRound(r)
		if err != nil {
			log.WithFields(logger.Fields{"round": r}).Debug("no committee lookback for intermediate round, skipping")
			continue
		}
		leader := types.ElectLeader(rLookback, r)

		candidate := findAuthorAtRound(subdag, r, leader)
		if candidate == nil {
			continue
		}

		if causalPathExists(subdag.LeaderCertificateID, candidate.ID(), r, lookup) {
			return ErrSplitSubdag
		}
	}
	return nil
}

func findAuthorAtRound(subdag *types.Subdag, round uint64, author string) *types.BatchCertificate {
	for _, c := range subdag.Certificates[round] {
		if c.Header.Author == author {
			return c
		}
	}
	return nil
}

// causalPathExists walks downward from the subdag's leader certificate
// through previous_certificate_ids, stopping once a branch's round falls
// below floor, and reports whether target is reachable. Traversal uses
// CertificateLookup rather than the subdag alone because an intermediate
// ancestor may already have been pruned from the subdag view (already
// committed by a prior anchor) while still being resolvable from
// storage.
func causalPathExists(from types.CertificateID, target types.CertificateID, floor uint64, lookup CertificateLookup) bool {
	visited := map[types.CertificateID]struct{}{}
	queue := []types.CertificateID{from}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}

		if id == target {
			return true
		}

		cert, ok := lookup.GetCertificate(id)
		if !ok {
			continue
		}
		if cert.Header.Round < floor {
			continue
		}
		queue = append(queue, cert.Header.PreviousCertificateIDs...)
	}
	return false
}
