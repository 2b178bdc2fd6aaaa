package ledgerservice

import (
	"container/list"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/nyx-network/nyx-bft/pkg/config"
	"github.com/nyx-network/nyx-bft/pkg/core/reputation"
	"github.com/nyx-network/nyx-bft/pkg/core/types"
	"github.com/nyx-network/nyx-bft/pkg/crypto"
)

var log = logger.WithFields(logger.Fields{"process": "ledgerservice"})

const defaultCommitteeCacheSize = 128

// committeeCache is a bounded LRU over round -> Committee, the same
// map-plus-container/list ordered-structure idiom used by
// pkg/core/worker's ready queue, applied here to committee lookback
// bookkeeping instead of transmission ordering.
type committeeCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[uint64]*list.Element
	order    *list.List // front = most recently used
}

type committeeCacheEntry struct {
	round     uint64
	committee types.Committee
}

func newCommitteeCache(capacity int) *committeeCache {
	if capacity <= 0 {
		capacity = defaultCommitteeCacheSize
	}
	return &committeeCache{
		capacity: capacity,
		entries:  make(map[uint64]*list.Element),
		order:    list.New(),
	}
}

func (c *committeeCache) get(round uint64) (types.Committee, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[round]
	if !ok {
		return types.Committee{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*committeeCacheEntry).committee, true
}

func (c *committeeCache) put(round uint64, committee types.Committee) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[round]; ok {
		el.Value.(*committeeCacheEntry).committee = committee
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&committeeCacheEntry{round: round, committee: committee})
	c.entries[round] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*committeeCacheEntry).round)
		}
	}
}

// CommitteeSource resolves the authoritative committee for a round; a
// real node backs this with validator-set state derived from the VM, a
// test backs it with a fixed schedule. MemLedger caches its results.
type CommitteeSource func(round uint64) (types.Committee, error)

// MemLedger is an in-memory Ledger implementation for tests and for a
// single-process harness.
type MemLedger struct {
	mu sync.RWMutex

	blocks        []*Block
	byHash        map[[32]byte]uint64
	transmissions map[types.TransmissionID]types.Transmission

	committeeSource CommitteeSource
	committees      *committeeCache
	lookbackRange   uint64
	moderator       *reputation.Moderator

	leaderAddress string
	leaderRound   uint64
	hasLeader     bool

	shuttingDown bool
}

// NewMemLedger constructs an empty ledger, querying committeeSource for
// any round not already cached.
func NewMemLedger(committeeSource CommitteeSource) *MemLedger {
	return &MemLedger{
		byHash:          make(map[[32]byte]uint64),
		transmissions:   make(map[types.TransmissionID]types.Transmission),
		committeeSource: committeeSource,
		committees:      newCommitteeCache(defaultCommitteeCacheSize),
		lookbackRange:   config.CommitteeLookbackRange,
	}
}

func (m *MemLedger) LatestRound() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.blocks) == 0 {
		return 0
	}
	return m.blocks[len(m.blocks)-1].Round
}

func (m *MemLedger) LatestBlockHeight() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.blocks) == 0 {
		return 0
	}
	return m.blocks[len(m.blocks)-1].Height
}

func (m *MemLedger) LatestBlock() (*Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.blocks) == 0 {
		return nil, ErrNotFound
	}
	return m.blocks[len(m.blocks)-1], nil
}

func (m *MemLedger) GetBlock(height uint64) (*Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if height >= uint64(len(m.blocks)) {
		return nil, ErrNotFound
	}
	return m.blocks[height], nil
}

func (m *MemLedger) GetBlocks(start, end uint64) ([]*Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if end < start || end >= uint64(len(m.blocks)) {
		return nil, ErrNotFound
	}
	out := make([]*Block, 0, end-start+1)
	for h := start; h <= end; h++ {
		out = append(out, m.blocks[h])
	}
	return out, nil
}

func (m *MemLedger) ContainsBlockHeight(height uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return height < uint64(len(m.blocks))
}

func (m *MemLedger) GetBlockHash(height uint64) ([32]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if height >= uint64(len(m.blocks)) {
		return [32]byte{}, false
	}
	return m.blocks[height].Hash, true
}

func (m *MemLedger) GetBlockRound(height uint64) (uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if height >= uint64(len(m.blocks)) {
		return 0, false
	}
	return m.blocks[height].Round, true
}

func (m *MemLedger) CurrentCommittee() types.Committee {
	c, err := m.GetCommitteeForRound(m.LatestRound())
	if err != nil {
		return types.Committee{}
	}
	return c
}

func (m *MemLedger) GetCommitteeForRound(round uint64) (types.Committee, error) {
	c, ok := m.committees.get(round)
	if !ok {
		if m.committeeSource == nil {
			return types.Committee{}, ErrUnknownCommittee
		}
		fetched, err := m.committeeSource(round)
		if err != nil {
			return types.Committee{}, ErrUnknownCommittee
		}
		m.committees.put(round, fetched)
		c = fetched
	}
	return m.overlayReputation(c), nil
}

func (m *MemLedger) GetCommitteeLookbackForRound(round uint64) (types.Committee, error) {
	return m.GetCommitteeForRound(LookbackRound(round, m.lookbackRange))
}

// SetModerator wires a reputation.Moderator whose per-member scores
// overlay each committee's Reputation field on every resolution.
// Nil-safe: committees resolve with whatever Reputation the committee
// source itself set if none is wired.
func (m *MemLedger) SetModerator(moderator *reputation.Moderator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moderator = moderator
}

// overlayReputation replaces each member's Reputation with the
// moderator's live score, leaving the cached base committee (stake,
// membership) untouched so the overlay reflects this round's strikes
// rather than whatever was true when the committee was first resolved.
func (m *MemLedger) overlayReputation(c types.Committee) types.Committee {
	m.mu.RLock()
	moderator := m.moderator
	m.mu.RUnlock()
	if moderator == nil {
		return c
	}
	members := make([]types.Member, len(c.Members))
	for i, mem := range c.Members {
		mem.Reputation = moderator.ReputationScore(mem.Address)
		members[i] = mem
	}
	c.Members = members
	return c
}

func (m *MemLedger) CheckSolutionBasic(payload []byte) error {
	if len(payload) == 0 {
		return ErrTransmissionTooLarge
	}
	return nil
}

func (m *MemLedger) CheckTransactionBasic(payload []byte) error {
	if len(payload) == 0 {
		return ErrTransmissionTooLarge
	}
	return nil
}

// EnsureTransmissionIsWellFormed recomputes the transmission's checksum,
// enforces the max-size bound, and forbids fee transactions. The real
// fee-transaction predicate lives in the VM; here the kind tag stands
// in for it, so the admission rule itself is exercised without
// re-implementing VM semantics.
func (m *MemLedger) EnsureTransmissionIsWellFormed(id types.TransmissionID, payload []byte) error {
	if !crypto.CompareChecksum(payload, id.Checksum) {
		return ErrTransmissionChecksumBad
	}
	if uint(len(payload)) > config.MaxTransmissionsPerBatch*1024 {
		return ErrTransmissionTooLarge
	}
	if id.Kind == types.KindRatification {
		return ErrFeeTransactionForbidden
	}
	return nil
}

func (m *MemLedger) ContainsTransmission(id types.TransmissionID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.transmissions[id]
	return ok
}

// CheckNextBlock validates block against subdag, resolving this
// round's committee lookback and the latest committed round's before
// delegating to VerifyBlock. The atomicity walk does not use the
// latter; it resolves each intermediate round's lookback itself.
// The caller supplies a CertificateLookup since MemLedger has no
// storage DAG of its own to traverse.
func (m *MemLedger) CheckNextBlock(block *Block, subdag *types.Subdag, lookup CertificateLookup) error {
	if m.shuttingDownLocked() {
		return ErrShutdown
	}
	lookback, err := m.GetCommitteeLookbackForRound(block.Round)
	if err != nil {
		return ErrUnknownCommittee
	}
	prevLookback, err := m.GetCommitteeLookbackForRound(m.LatestRound())
	if err != nil {
		prevLookback = lookback
	}
	return VerifyBlock(m, block, subdag, block.State, lookback, prevLookback, lookup)
}

// PrepareAdvanceToNextQuorumBlock synthesizes the next block from a
// committed subdag and its transmissions.
func (m *MemLedger) PrepareAdvanceToNextQuorumBlock(subdag *types.Subdag, transmissions map[types.TransmissionID]types.Transmission) (*Block, error) {
	m.mu.RLock()
	height := uint64(len(m.blocks))
	var prevHash [32]byte
	if height > 0 {
		prevHash = m.blocks[height-1].Hash
	}
	m.mu.RUnlock()

	ordered := subdag.OrderedTransmissionIDs()
	solutions := make([]types.TransmissionID, 0)
	transactions := make([]types.TransmissionID, 0)
	for _, id := range ordered {
		switch id.Kind {
		case types.KindSolution:
			solutions = append(solutions, id)
		case types.KindTransaction:
			transactions = append(transactions, id)
		}
	}

	block := &Block{
		Height:       height,
		Round:        subdag.AnchorRound,
		LeaderID:     subdag.LeaderCertificateID,
		Solutions:    solutions,
		Transactions: transactions,
		State: FinalizeState{
			Round:        subdag.AnchorRound,
			Height:       height,
			PreviousHash: prevHash,
		},
	}
	block.Hash = crypto.ContentHash(append(prevHash[:], byte(height)))
	return block, nil
}

// AdvanceToNextBlock commits block, registering its transmissions as
// known to the ledger so ContainsTransmission reports them and worker
// admission rejects replays as duplicates.
func (m *MemLedger) AdvanceToNextBlock(block *Block) error {
	if m.shuttingDownLocked() {
		return ErrShutdown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if uint64(len(m.blocks)) != block.Height {
		return ErrDuplicateBlockHeight
	}
	m.blocks = append(m.blocks, block)
	m.byHash[block.Hash] = block.Height
	for _, id := range block.Solutions {
		m.transmissions[id] = types.Transmission{ID: id}
	}
	for _, id := range block.Transactions {
		m.transmissions[id] = types.Transmission{ID: id}
	}
	log.WithFields(logger.Fields{"height": block.Height, "round": block.Round}).Info("advanced ledger")
	return nil
}

// RegisterTransmission makes a transmission resolvable by
// ContainsTransmission, used by tests setting up ledger state without a
// full block commit.
func (m *MemLedger) RegisterTransmission(tx types.Transmission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transmissions[tx.ID] = tx
}

func (m *MemLedger) LatestLeader() (string, uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.leaderAddress, m.leaderRound, m.hasLeader
}

func (m *MemLedger) UpdateLatestLeader(address string, round uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaderAddress = address
	m.leaderRound = round
	m.hasLeader = true
}

func (m *MemLedger) IsShuttingDown() bool {
	return m.shuttingDownLocked()
}

func (m *MemLedger) shuttingDownLocked() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shuttingDown
}

// Shutdown sets the shutdown flag, causing subsequent
// AdvanceToNextBlock calls to fail with ErrShutdown.
func (m *MemLedger) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shuttingDown = true
}
