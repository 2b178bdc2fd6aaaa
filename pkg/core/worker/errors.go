package worker

import "errors"

// Errors returned by worker operations. These are malformed/duplicate
// rejections rather than structural invariant violations, so the
// caller is expected to handle them as ordinary control flow.
var (
	// ErrDuplicateTransmission is returned by ProcessUnconfirmed when the
	// transmission id is already known to this worker, the in-flight
	// proposal, storage, or the ledger.
	ErrDuplicateTransmission = errors.New("worker: duplicate transmission")

	// ErrNotFound is returned by GetOrFetch when no local copy of a
	// transmission exists; the caller (the Primary, via the sync layer)
	// is responsible for dispatching a peer fetch.
	ErrNotFound = errors.New("worker: transmission not found locally")

	// ErrChecksumMismatch is returned when a transmission's payload does
	// not match the checksum carried in its id.
	ErrChecksumMismatch = errors.New("worker: checksum mismatch")

	// ErrRatificationNotAdmitted is returned when a ratification is
	// pushed into the mempool.
	ErrRatificationNotAdmitted = errors.New("worker: ratifications are not admitted")

	// ErrQueueFull is returned when a shard's ready queue has reached
	// its tolerance bound; the pusher is expected to back off and retry.
	ErrQueueFull = errors.New("worker: ready queue is full")
)
