// Package worker implements the per-shard ready queue of unconfirmed
// transmissions: ingestion, deduplication, and draining for inclusion
// in a batch proposal.
package worker

import (
	"container/list"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/nyx-network/nyx-bft/pkg/config"
	"github.com/nyx-network/nyx-bft/pkg/core/types"
)

var log = logger.WithFields(logger.Fields{"process": "worker"})

// Lookup reports whether a transmission id is known to some external
// collaborator (an in-flight proposal, storage, or the ledger). Workers
// are given these as callbacks rather than direct dependencies, since
// the proposal is owned by the Primary and storage/ledger are shared
// across every worker shard.
type Lookup func(id types.TransmissionID) bool

// BasicChecker is the narrow slice of the Ledger service a worker needs:
// stateless, synchronous admission checks plus a containment query used
// for dedup against already-finalized transmissions.
type BasicChecker interface {
	ContainsTransmission(id types.TransmissionID) bool
	CheckSolutionBasic(payload []byte) error
	CheckTransactionBasic(payload []byte) error
	EnsureTransmissionIsWellFormed(id types.TransmissionID, payload []byte) error
}

// Worker owns one shard's ready queue and pending-fetch set.
type Worker struct {
	index  int
	ledger BasicChecker

	proposalContains Lookup
	storageContains  Lookup

	mu       sync.Mutex
	order    *list.List // of types.TransmissionID, insertion order
	elements map[types.TransmissionID]*list.Element
	payloads map[types.TransmissionID][]byte
	pending  map[types.TransmissionID]struct{}
}

// New constructs a Worker shard. The lookups default to "not found";
// wire in real ones with SetProposalLookup/SetStorageLookup once the
// owning Primary and Storage exist.
func New(index int, ledger BasicChecker) *Worker {
	return &Worker{
		index:            index,
		ledger:           ledger,
		proposalContains: func(types.TransmissionID) bool { return false },
		storageContains:  func(types.TransmissionID) bool { return false },
		order:            list.New(),
		elements:         make(map[types.TransmissionID]*list.Element),
		payloads:         make(map[types.TransmissionID][]byte),
		pending:          make(map[types.TransmissionID]struct{}),
	}
}

// SetProposalLookup injects the Primary's in-flight proposal containment
// check.
func (w *Worker) SetProposalLookup(fn Lookup) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.proposalContains = fn
}

// SetStorageLookup injects the Storage DAG's containment check.
func (w *Worker) SetStorageLookup(fn Lookup) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.storageContains = fn
}

// Index returns this shard's worker index.
func (w *Worker) Index() int {
	return w.index
}

// ProcessUnconfirmed admits a freshly pushed transmission. It rejects
// duplicates found anywhere across ready/proposal/storage/ledger, then
// invokes the ledger's basic admission check before inserting into the
// ready queue.
func (w *Worker) ProcessUnconfirmed(id types.TransmissionID, payload []byte) error {
	w.mu.Lock()
	_, inReady := w.elements[id]
	w.mu.Unlock()

	if inReady || w.proposalContains(id) || w.storageContains(id) || w.ledger.ContainsTransmission(id) {
		return ErrDuplicateTransmission
	}

	if err := w.ledger.EnsureTransmissionIsWellFormed(id, payload); err != nil {
		log.WithField("id", id).WithError(err).Debug("rejected malformed transmission")
		return err
	}

	var err error
	switch id.Kind {
	case types.KindSolution:
		err = w.ledger.CheckSolutionBasic(payload)
	case types.KindTransaction:
		err = w.ledger.CheckTransactionBasic(payload)
	default:
		// Ratifications never enter the mempool in this protocol
		// version.
		return ErrRatificationNotAdmitted
	}
	if err != nil {
		log.WithField("id", id).WithError(err).Debug("rejected unconfirmed transmission")
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, dup := w.elements[id]; dup {
		return ErrDuplicateTransmission
	}
	if w.order.Len() >= config.MaxTransmissionsTolerance {
		return ErrQueueFull
	}
	elem := w.order.PushBack(id)
	w.elements[id] = elem
	w.payloads[id] = payload
	delete(w.pending, id)
	return nil
}

// Drain removes up to n transmissions from ready, in insertion order,
// for inclusion in a proposal.
func (w *Worker) Drain(n int) []types.Transmission {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]types.Transmission, 0, n)
	for len(out) < n {
		front := w.order.Front()
		if front == nil {
			break
		}
		id := front.Value.(types.TransmissionID)
		w.order.Remove(front)
		delete(w.elements, id)
		payload := w.payloads[id]
		delete(w.payloads, id)
		out = append(out, types.Transmission{ID: id, Payload: payload})
	}
	return out
}

// Reinsert returns a transmission to ready if its proposal failed; a
// no-op if the id is already held.
func (w *Worker) Reinsert(t types.Transmission) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, dup := w.elements[t.ID]; dup {
		return
	}
	elem := w.order.PushFront(t.ID)
	w.elements[t.ID] = elem
	w.payloads[t.ID] = t.Payload
}

// Contains is the union query across ready, proposed batch, storage and
// ledger.
func (w *Worker) Contains(id types.TransmissionID) bool {
	w.mu.Lock()
	_, inReady := w.elements[id]
	_, inPending := w.pending[id]
	w.mu.Unlock()
	return inReady || inPending || w.proposalContains(id) || w.storageContains(id) || w.ledger.ContainsTransmission(id)
}

// GetOrFetch returns a local copy if ready holds id; otherwise it marks
// id as pending (a fetch is expected to be dispatched by the Primary via
// the sync layer) and returns ErrNotFound.
func (w *Worker) GetOrFetch(id types.TransmissionID) (types.Transmission, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.elements[id]; ok {
		return types.Transmission{ID: id, Payload: w.payloads[id]}, nil
	}
	w.pending[id] = struct{}{}
	return types.Transmission{}, ErrNotFound
}

// Len reports how many transmissions currently sit in ready.
func (w *Worker) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.order.Len()
}

// CountKind reports how many ready transmissions carry the given kind.
func (w *Worker) CountKind(kind types.Kind) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	var n int
	for id := range w.elements {
		if id.Kind == kind {
			n++
		}
	}
	return n
}
