package types

import "encoding/binary"

// ElectLeader returns the address elected to lead the given round,
// stake-weighted over the committee. It is a pure function of its two
// arguments and must stay one: every honest validator has to compute
// the same leader from the same (committee, round) pair, with no
// node-local state leaking in.
func ElectLeader(committee Committee, round uint64) string {
	if len(committee.Members) == 0 {
		return ""
	}
	total := committee.TotalStake()
	if total == 0 {
		// Degrade to round-robin over committee order rather than
		// always picking the same member.
		return committee.Members[round%uint64(len(committee.Members))].Address
	}

	target := deterministicStakePoint(round, total)
	var cumulative uint64
	for _, m := range committee.Members {
		cumulative += m.Stake
		if target < cumulative {
			return m.Address
		}
	}
	// Unreachable if total is computed correctly, but fall back to the
	// last member rather than panicking on a rounding edge case.
	return committee.Members[len(committee.Members)-1].Address
}

// deterministicStakePoint derives a value in [0, total) from the round
// number alone, via a fixed-seed hash. It intentionally does not depend
// on anything else so that every honest validator computes the same
// leader for the same (round, committee) pair.
func deterministicStakePoint(round uint64, total uint64) uint64 {
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], round)
	h := contentHash(seed[:])
	v := binary.LittleEndian.Uint64(h[:8])
	return v % total
}
