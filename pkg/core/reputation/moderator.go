// Package reputation tallies per-round strikes against committee
// members, feeding the committee's reputation-score field. Callers
// decide what earns a strike; the BFT commit layer strikes each
// lookback member that authored no certificate at a committed anchor
// round. It does not affect
// commit safety; it is observability plumbing consumed by whoever
// assembles a Committee snapshot.
package reputation

import (
	"sync"

	logger "github.com/sirupsen/logrus"
)

var log = logger.WithFields(logger.Fields{"process": "reputation"})

// maxStrikes is the number of strikes a member must collect between two
// AdvanceRound calls before onOffend fires for it.
const maxStrikes uint8 = 3

// Moderator tallies strikes per round and clears them on round
// advance: a member's history resets each round rather than
// accumulating indefinitely.
type Moderator struct {
	mu       sync.Mutex
	strikes  map[string]uint8
	onOffend func(address string)
}

// NewModerator constructs a Moderator. onOffend, if non-nil, is invoked
// (without holding the internal lock) the first time a member's strike
// count reaches maxStrikes in a round.
func NewModerator(onOffend func(address string)) *Moderator {
	return &Moderator{
		strikes:  make(map[string]uint8),
		onOffend: onOffend,
	}
}

// AddStrike increases address's strike count for the current round. If
// the count reaches maxStrikes, onOffend fires exactly once until the
// next AdvanceRound.
func (m *Moderator) AddStrike(address string) {
	m.mu.Lock()
	m.strikes[address]++
	count := m.strikes[address]
	m.mu.Unlock()

	if count == maxStrikes {
		log.WithFields(logger.Fields{"validator": address}).Debug("reputation strikes exhausted")
		if m.onOffend != nil {
			m.onOffend(address)
		}
	}
}

// AdvanceRound clears every member's strike tally. A member's liveness
// is judged per round, not cumulatively.
func (m *Moderator) AdvanceRound() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strikes = make(map[string]uint8)
}

// Strikes returns address's current strike count.
func (m *Moderator) Strikes(address string) uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.strikes[address]
}

// ReputationScore derives a [0,1] reputation score from the current
// strike count, for folding into a committee Member's Reputation field.
// A member with no strikes this round scores 1; each strike degrades it
// linearly until maxStrikes, where it floors at 0.
func (m *Moderator) ReputationScore(address string) float64 {
	m.mu.Lock()
	count := m.strikes[address]
	m.mu.Unlock()

	if count >= maxStrikes {
		return 0
	}
	return 1 - float64(count)/float64(maxStrikes)
}
