package worker

import (
	"encoding/binary"

	"github.com/nyx-network/nyx-bft/pkg/core/types"
)

// Pool owns the static array of K worker shards.
type Pool struct {
	workers []*Worker
}

// NewPool constructs a Pool of size workers, each backed by the same
// ledger basic-checker.
func NewPool(size int, ledger BasicChecker) *Pool {
	if size < 1 {
		size = 1
	}
	workers := make([]*Worker, size)
	for i := range workers {
		workers[i] = New(i, ledger)
	}
	return &Pool{workers: workers}
}

// Size returns K, the static worker count.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Worker returns the shard at index i.
func (p *Pool) Worker(i int) *Worker {
	return p.workers[i%len(p.workers)]
}

// AssignToWorker is the pure sharding function mapping a transmission
// id to a worker index. It hashes on the transmission's content hash,
// not the whole id, so identical content always lands on the same
// shard regardless of kind tagging quirks upstream.
func AssignToWorker(id types.TransmissionID, k int) int {
	if k < 1 {
		k = 1
	}
	h := binary.LittleEndian.Uint64(id.Hash[:8])
	return int(h % uint64(k))
}

// For returns the shard owning id.
func (p *Pool) For(id types.TransmissionID) *Worker {
	return p.workers[AssignToWorker(id, len(p.workers))]
}

// SetProposalLookup wires the same lookup into every shard.
func (p *Pool) SetProposalLookup(fn Lookup) {
	for _, w := range p.workers {
		w.SetProposalLookup(fn)
	}
}

// SetStorageLookup wires the same lookup into every shard.
func (p *Pool) SetStorageLookup(fn Lookup) {
	for _, w := range p.workers {
		w.SetStorageLookup(fn)
	}
}

// Contains asks the shard that owns id (see For) whether it holds id.
func (p *Pool) Contains(id types.TransmissionID) bool {
	return p.For(id).Contains(id)
}

// ProcessUnconfirmed routes to the id's shard.
func (p *Pool) ProcessUnconfirmed(id types.TransmissionID, payload []byte) error {
	return p.For(id).ProcessUnconfirmed(id, payload)
}

// NumUnconfirmed sums ready-queue length across every shard.
func (p *Pool) NumUnconfirmed() int {
	var n int
	for _, w := range p.workers {
		n += w.Len()
	}
	return n
}

// NumUnconfirmedKind sums ready-queue length of a given kind across
// every shard.
func (p *Pool) NumUnconfirmedKind(kind types.Kind) int {
	var n int
	for _, w := range p.workers {
		n += w.CountKind(kind)
	}
	return n
}
