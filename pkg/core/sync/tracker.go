// Package sync implements the block-sync tracker: peer block locators,
// pairwise common-ancestor computation, and the block-synced liveness
// flag.
package sync

import (
	"sort"
	"sync"

	"github.com/nyx-network/nyx-bft/pkg/config"
)

// CanonicalSource is the narrow view of the ledger the tracker needs:
// its own height and block hashes by height.
type CanonicalSource interface {
	LatestBlockHeight() uint64
	GetBlockHash(height uint64) ([32]byte, bool)
}

// Locators is a peer's (or self's) block locator map: a sliding window
// of recent heights plus periodic checkpoints further back.
type Locators struct {
	Recents     map[uint64][32]byte
	Checkpoints map[uint64][32]byte
}

func (l Locators) heights() []uint64 {
	set := make(map[uint64]struct{}, len(l.Recents)+len(l.Checkpoints))
	for h := range l.Recents {
		set[h] = struct{}{}
	}
	for h := range l.Checkpoints {
		set[h] = struct{}{}
	}
	heights := make([]uint64, 0, len(set))
	for h := range set {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	return heights
}

func (l Locators) hashAt(height uint64) ([32]byte, bool) {
	if h, ok := l.Recents[height]; ok {
		return h, true
	}
	if h, ok := l.Checkpoints[height]; ok {
		return h, true
	}
	return [32]byte{}, false
}

// commonAncestor iterates upward and breaks at the first hash
// mismatch. The direction matters: iterating downward could accept a
// malicious locator that forks then rejoins.
func commonAncestor(a, b Locators) uint64 {
	var ancestor uint64
	for _, height := range a.heights() {
		bHash, ok := b.hashAt(height)
		if !ok {
			continue
		}
		aHash, _ := a.hashAt(height)
		if aHash != bHash {
			break
		}
		ancestor = height
	}
	return ancestor
}

func validateLocators(l Locators) error {
	if len(l.Recents) == 0 && len(l.Checkpoints) == 0 {
		return ErrMalformedLocators
	}
	return nil
}

// Tracker maintains every known peer's block locators and the pairwise
// common ancestors derived from them.
type Tracker struct {
	mu sync.RWMutex

	canon     CanonicalSource
	tolerance uint64

	peerLocators     map[string]Locators
	ancestorWithSelf map[string]uint64
	ancestorPairwise map[string]map[string]uint64

	isBlockSynced   bool
	numBlocksBehind uint64
}

// NewTracker constructs a Tracker over the given canonical source, with
// the given sync tolerance (max height gap still considered synced).
func NewTracker(canon CanonicalSource, tolerance uint64) *Tracker {
	return &Tracker{
		canon:            canon,
		tolerance:        tolerance,
		peerLocators:     make(map[string]Locators),
		ancestorWithSelf: make(map[string]uint64),
		ancestorPairwise: make(map[string]map[string]uint64),
	}
}

// GetBlockLocators returns self's current locator map: recents spans
// the most recent NumRecentBlocks heights, checkpoints spans every
// CheckpointInterval-th height from 0 to latest.
func (t *Tracker) GetBlockLocators() Locators {
	height := t.canon.LatestBlockHeight()

	var start uint64
	if height >= config.NumRecentBlocks {
		start = height - config.NumRecentBlocks + 1
	}
	recents := make(map[uint64][32]byte)
	for h := start; h <= height; h++ {
		if hash, ok := t.canon.GetBlockHash(h); ok {
			recents[h] = hash
		}
	}

	checkpoints := make(map[uint64][32]byte)
	for h := uint64(0); h <= height; h += config.CheckpointInterval {
		if hash, ok := t.canon.GetBlockHash(h); ok {
			checkpoints[h] = hash
		}
	}

	return Locators{Recents: recents, Checkpoints: checkpoints}
}

// UpdatePeerLocators validates and stores peer's locators, computes the
// common ancestor with self, and updates pairwise common ancestors with
// every other known peer identically.
func (t *Tracker) UpdatePeerLocators(peer string, locators Locators) error {
	if err := validateLocators(locators); err != nil {
		return err
	}

	self := t.GetBlockLocators()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.peerLocators[peer] = locators
	t.ancestorWithSelf[peer] = commonAncestor(self, locators)

	if t.ancestorPairwise[peer] == nil {
		t.ancestorPairwise[peer] = make(map[string]uint64)
	}
	for other, otherLocators := range t.peerLocators {
		if other == peer {
			continue
		}
		ancestor := commonAncestor(locators, otherLocators)
		t.ancestorPairwise[peer][other] = ancestor
		if t.ancestorPairwise[other] == nil {
			t.ancestorPairwise[other] = make(map[string]uint64)
		}
		t.ancestorPairwise[other][peer] = ancestor
	}
	return nil
}

// RemovePeer drops peer's locators and every ancestor entry involving it.
func (t *Tracker) RemovePeer(peer string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.peerLocators, peer)
	delete(t.ancestorWithSelf, peer)
	delete(t.ancestorPairwise, peer)
	for _, others := range t.ancestorPairwise {
		delete(others, peer)
	}
}

// CommonAncestorWithSelf returns the previously computed common
// ancestor height between self and peer.
func (t *Tracker) CommonAncestorWithSelf(peer string) (uint64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.ancestorWithSelf[peer]
	return h, ok
}

// CommonAncestorBetween returns the previously computed common ancestor
// height between two known peers.
func (t *Tracker) CommonAncestorBetween(peerA, peerB string) (uint64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	others, ok := t.ancestorPairwise[peerA]
	if !ok {
		return 0, false
	}
	h, ok := others[peerB]
	return h, ok
}

// TryBlockSync recomputes is_block_synced from the greatest height seen
// among all known peer locators.
func (t *Tracker) TryBlockSync() {
	t.mu.RLock()
	var greatest uint64
	for _, l := range t.peerLocators {
		for _, h := range l.heights() {
			if h > greatest {
				greatest = h
			}
		}
	}
	t.mu.RUnlock()

	t.UpdateIsBlockSynced(greatest)
}

// UpdateIsBlockSynced recomputes the synced flag and the height gap
// from the given greatest peer height against the canonical height.
func (t *Tracker) UpdateIsBlockSynced(greatestPeerHeight uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	canonHeight := t.canon.LatestBlockHeight()
	if greatestPeerHeight <= canonHeight {
		t.numBlocksBehind = 0
	} else {
		t.numBlocksBehind = greatestPeerHeight - canonHeight
	}
	t.isBlockSynced = t.numBlocksBehind <= t.tolerance
}

// IsBlockSynced reports the last computed sync status.
func (t *Tracker) IsBlockSynced() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isBlockSynced
}

// NumBlocksBehind reports the last computed height gap.
func (t *Tracker) NumBlocksBehind() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.numBlocksBehind
}
