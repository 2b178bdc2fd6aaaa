package types

// Member is a single committee participant. Reputation is tracked by
// pkg/core/reputation and folded in here by whoever assembles a
// Committee snapshot; this package treats it as opaque data.
type Member struct {
	Address    string
	Stake      uint64
	Reputation float64
}

// Committee is the ordered set of validators authorized for a round,
// derived from the ledger and cached by round.
type Committee struct {
	Round   uint64
	Members []Member
}

// TotalStake sums the stake of every member.
func (c Committee) TotalStake() uint64 {
	var total uint64
	for _, m := range c.Members {
		total += m.Stake
	}
	return total
}

// QuorumThreshold is the stake-weighted majority required to certify a
// batch: strictly more than two thirds of total stake, i.e. the
// classical 2f+1-of-3f+1 BFT threshold expressed over arbitrary stake
// weights rather than a flat member count.
func (c Committee) QuorumThreshold() uint64 {
	total := c.TotalStake()
	// floor(2*total/3) + 1 is > 2/3 of total for any positive total,
	// and is 1 for an empty committee, which no signer set reaches.
	return (2*total)/3 + 1
}

// IsMember reports whether address belongs to the committee.
func (c Committee) IsMember(address string) bool {
	for _, m := range c.Members {
		if m.Address == address {
			return true
		}
	}
	return false
}

// StakeOf returns the stake of address, or 0 if it is not a member.
func (c Committee) StakeOf(address string) uint64 {
	for _, m := range c.Members {
		if m.Address == address {
			return m.Stake
		}
	}
	return 0
}

// ReachesQuorum reports whether the combined stake of the given
// addresses (deduplicated, restricted to actual committee members)
// reaches the committee's quorum threshold. Used both for checking
// reachable signer connectivity before a proposal and for checking
// previous-round author coverage.
func (c Committee) ReachesQuorum(addresses map[string]struct{}) bool {
	var sum uint64
	seen := make(map[string]struct{}, len(addresses))
	for addr := range addresses {
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		sum += c.StakeOf(addr)
	}
	return sum >= c.QuorumThreshold()
}

// Index returns the position of address in Members, or -1. Members is
// assumed to already be in the committee's canonical order (e.g. sorted
// by address) so that Index is a pure, deterministic function usable by
// leader election.
func (c Committee) Index(address string) int {
	for i, m := range c.Members {
		if m.Address == address {
			return i
		}
	}
	return -1
}
