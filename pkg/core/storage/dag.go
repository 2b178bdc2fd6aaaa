// Package storage implements the in-memory, bounded, round-indexed
// certificate graph: a single-writer/many-reader DAG of batch
// certificates with per-round garbage collection and transmission
// dedup.
package storage

import (
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/nyx-network/nyx-bft/pkg/core/types"
)

var log = logger.WithFields(logger.Fields{"process": "storage"})

// DAG is the round-indexed certificate graph. Certificate insertions
// are serialized and the current round is monotonically non-decreasing;
// a single sync.RWMutex backs both.
type DAG struct {
	mu sync.RWMutex

	// byRound holds at most one certificate per author per round.
	byRound map[uint64]map[string]*types.BatchCertificate
	byID    map[types.CertificateID]*types.BatchCertificate

	// transmissions holds every transmission referenced by at least one
	// resident certificate.
	transmissions map[types.TransmissionID]types.Transmission

	currentRound uint64
	maxGCRounds  uint64
}

// New constructs an empty DAG, retaining at most maxGCRounds rounds
// below the current round before pruning.
func New(maxGCRounds uint64) *DAG {
	if maxGCRounds == 0 {
		maxGCRounds = 1
	}
	return &DAG{
		byRound:       make(map[uint64]map[string]*types.BatchCertificate),
		byID:          make(map[types.CertificateID]*types.BatchCertificate),
		transmissions: make(map[types.TransmissionID]types.Transmission),
		maxGCRounds:   maxGCRounds,
	}
}

// GCRound is the oldest round still eligible to hold a certificate:
// the current round minus the retention window.
func (d *DAG) GCRound() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.gcRoundLocked()
}

func (d *DAG) gcRoundLocked() uint64 {
	if d.currentRound < d.maxGCRounds {
		return 0
	}
	return d.currentRound - d.maxGCRounds
}

// MaxGCRounds returns the configured retention window.
func (d *DAG) MaxGCRounds() uint64 {
	return d.maxGCRounds
}

// CurrentRound returns the current-round pointer: raised to the round
// of each inserted certificate, and also moved by Bootstrap and
// IncrementToNextRound, so it can name a round with no certificate.
func (d *DAG) CurrentRound() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.currentRound
}

// Bootstrap seeds the current-round pointer at node startup, before any
// certificate has been inserted, so propose_batch has round 1 to work
// from on a brand new chain. It is a no-op once the DAG already holds
// certificates at or above round; it must never be called to roll the
// pointer backward.
func (d *DAG) Bootstrap(round uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if round > d.currentRound {
		d.currentRound = round
	}
}

func wellFormed(header *types.BatchHeader) bool {
	return header.Author != "" && header.Round > 0
}

// InsertCertificate validates and atomically inserts a certificate,
// registering any newly supplied transmissions. Once it returns, every
// transmission the header references is queryable via
// ContainsTransmission.
func (d *DAG) InsertCertificate(cert *types.BatchCertificate, transmissions map[types.TransmissionID]types.Transmission) error {
	if cert == nil {
		return ErrMalformedHeader
	}
	if !wellFormed(&cert.Header) {
		return ErrMalformedHeader
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	round := cert.Header.Round
	if round <= d.gcRoundLocked() && d.currentRound > 0 {
		return ErrStaleRound
	}

	id := cert.ID()
	if _, dup := d.byID[id]; dup {
		return ErrDuplicateCertificate
	}
	if authors, ok := d.byRound[round]; ok {
		if _, dup := authors[cert.Header.Author]; dup {
			return ErrDuplicateCertificate
		}
	}

	for _, txID := range cert.Header.TransmissionIDs {
		if _, resident := d.transmissions[txID]; resident {
			continue
		}
		tx, supplied := transmissions[txID]
		if !supplied {
			return ErrMissingTransmissions
		}
		if tx.ID != txID {
			return ErrMissingTransmissions
		}
	}

	// Everything validated; commit atomically.
	if d.byRound[round] == nil {
		d.byRound[round] = make(map[string]*types.BatchCertificate)
	}
	d.byRound[round][cert.Header.Author] = cert
	d.byID[id] = cert
	for _, txID := range cert.Header.TransmissionIDs {
		if tx, supplied := transmissions[txID]; supplied {
			d.transmissions[txID] = tx
		}
	}

	if round > d.currentRound {
		d.currentRound = round
	}

	log.WithFields(logger.Fields{
		"round":       round,
		"author":      cert.Header.Author,
		"certificate": id,
	}).Debug("inserted certificate")
	return nil
}

// ContainsCertificate reports whether id is resident.
func (d *DAG) ContainsCertificate(id types.CertificateID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byID[id]
	return ok
}

// ContainsTransmission reports whether id is referenced by at least one
// resident certificate.
func (d *DAG) ContainsTransmission(id types.TransmissionID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.transmissions[id]
	return ok
}

// ContainsBatch reports whether any resident certificate's batch-id
// matches batchID.
func (d *DAG) ContainsBatch(batchID types.BatchID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, cert := range d.byID {
		if cert.Header.BatchID() == batchID {
			return true
		}
	}
	return false
}

// GetCertificate returns the resident certificate with the given id.
func (d *DAG) GetCertificate(id types.CertificateID) (*types.BatchCertificate, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.byID[id]
	return c, ok
}

// GetCertificatesForRound returns a snapshot set of the certificates
// resident at round r.
func (d *DAG) GetCertificatesForRound(r uint64) []*types.BatchCertificate {
	d.mu.RLock()
	defer d.mu.RUnlock()
	authors := d.byRound[r]
	out := make([]*types.BatchCertificate, 0, len(authors))
	for _, c := range authors {
		out = append(out, c)
	}
	return out
}

// GetTransmission returns a resident transmission by id.
func (d *DAG) GetTransmission(id types.TransmissionID) (types.Transmission, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	tx, ok := d.transmissions[id]
	return tx, ok
}

// IncrementToNextRound atomically advances the stored round pointer to
// current+1 if round current holds at least one certificate (the round
// being closed out actually happened), then GCs rounds at or below the
// new GC boundary. A round with no resident certificate cannot be
// closed; the call is a no-op and returns the unchanged round.
func (d *DAG) IncrementToNextRound(current uint64) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byRound[current]; !ok {
		return d.currentRound
	}
	next := current + 1
	if next > d.currentRound {
		d.currentRound = next
	}
	d.gcLocked()
	return d.currentRound
}

// gcLocked prunes every round at or below the GC boundary, then drops
// any transmission no longer referenced by a resident certificate. One
// transmission may be referenced by more than one certificate, so
// reachability is recomputed rather than decremented per-prune. The
// caller must hold d.mu for writing.
func (d *DAG) gcLocked() {
	boundary := d.gcRoundLocked()
	pruned := false
	for round, authors := range d.byRound {
		if round > boundary {
			continue
		}
		for _, cert := range authors {
			delete(d.byID, cert.ID())
		}
		delete(d.byRound, round)
		pruned = true
	}
	if !pruned {
		return
	}

	reachable := make(map[types.TransmissionID]struct{})
	for _, cert := range d.byID {
		for _, txID := range cert.Header.TransmissionIDs {
			reachable[txID] = struct{}{}
		}
	}
	for txID := range d.transmissions {
		if _, ok := reachable[txID]; !ok {
			delete(d.transmissions, txID)
		}
	}
}
