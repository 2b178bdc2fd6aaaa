package ledgerservice

import (
	"github.com/nyx-network/nyx-bft/pkg/core/types"
)

// Ledger is the capability-set boundary between the DAG/BFT layers and
// durable state. It is kept as an interface so an in-memory
// implementation (MemLedger) can back tests while a durable
// implementation backs production, without either side of the core
// depending on storage engine details.
type Ledger interface {
	// Block queries.
	LatestRound() uint64
	LatestBlockHeight() uint64
	LatestBlock() (*Block, error)
	GetBlock(height uint64) (*Block, error)
	GetBlocks(start, end uint64) ([]*Block, error)
	ContainsBlockHeight(height uint64) bool
	GetBlockHash(height uint64) ([32]byte, bool)
	GetBlockRound(height uint64) (uint64, bool)

	// Committee queries.
	CurrentCommittee() types.Committee
	GetCommitteeForRound(round uint64) (types.Committee, error)
	GetCommitteeLookbackForRound(round uint64) (types.Committee, error)

	// Transmission admission.
	CheckSolutionBasic(payload []byte) error
	CheckTransactionBasic(payload []byte) error
	EnsureTransmissionIsWellFormed(id types.TransmissionID, payload []byte) error
	ContainsTransmission(id types.TransmissionID) bool

	// Block admission.
	CheckNextBlock(block *Block, subdag *types.Subdag, lookup CertificateLookup) error
	PrepareAdvanceToNextQuorumBlock(subdag *types.Subdag, transmissions map[types.TransmissionID]types.Transmission) (*Block, error)
	AdvanceToNextBlock(block *Block) error

	// Leader cache.
	LatestLeader() (string, uint64, bool)
	UpdateLatestLeader(address string, round uint64)

	// Shutdown flag.
	IsShuttingDown() bool
}

// previousEven returns the largest even number <= r.
func previousEven(r uint64) uint64 {
	if r%2 == 0 {
		return r
	}
	if r == 0 {
		return 0
	}
	return r - 1
}

// LookbackRound computes the committee-lookback round for r: the
// previous even round minus the configured lookback range. Drawing the
// committee from an earlier round prevents adaptive manipulation of
// the membership authorizing r.
func LookbackRound(r uint64, lookbackRange uint64) uint64 {
	pe := previousEven(r)
	if pe < lookbackRange {
		return 0
	}
	return pe - lookbackRange
}
