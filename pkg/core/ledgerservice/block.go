package ledgerservice

import (
	"time"

	"github.com/nyx-network/nyx-bft/pkg/core/types"
)

// FinalizeState is the (round, height, cumulative weight, cumulative
// proof target, previous hash) tuple block verification constructs
// before verifying a candidate block against its committees.
type FinalizeState struct {
	Round                 uint64
	Height                uint64
	CumulativeWeight      uint64
	CumulativeProofTarget uint64
	PreviousHash          [32]byte
}

// Block is the ledger's committed unit: a finalize state plus the
// ordered transmissions it admits. This is the in-memory shape the
// core needs to reason about admission and ordering; the on-disk
// format belongs to the storage engine behind the Ledger interface.
type Block struct {
	Hash         [32]byte
	Height       uint64
	Round        uint64
	Timestamp    time.Time
	State        FinalizeState
	LeaderID     types.CertificateID
	Solutions    []types.TransmissionID
	Transactions []types.TransmissionID
}

// ContainsSolution reports whether id appears in this block's solutions.
func (b *Block) ContainsSolution(id types.TransmissionID) bool {
	for _, s := range b.Solutions {
		if s == id {
			return true
		}
	}
	return false
}
