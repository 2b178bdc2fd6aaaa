package worker_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-network/nyx-bft/pkg/config"
	"github.com/nyx-network/nyx-bft/pkg/core/types"
	"github.com/nyx-network/nyx-bft/pkg/core/worker"
)

// mockLedger is a stand-in for the narrow BasicChecker slice of the
// Ledger service, letting worker tests control admission without a
// full ledgerservice.MemLedger.
type mockLedger struct {
	known     map[types.TransmissionID]struct{}
	rejectTx  bool
	rejectSol bool
}

func newMockLedger() *mockLedger {
	return &mockLedger{known: make(map[types.TransmissionID]struct{})}
}

func (m *mockLedger) ContainsTransmission(id types.TransmissionID) bool {
	_, ok := m.known[id]
	return ok
}

func (m *mockLedger) CheckSolutionBasic(payload []byte) error {
	if m.rejectSol {
		return assert.AnError
	}
	return nil
}

func (m *mockLedger) CheckTransactionBasic(payload []byte) error {
	if m.rejectTx {
		return assert.AnError
	}
	return nil
}

// EnsureTransmissionIsWellFormed mirrors the real ledger's checksum
// recomputation, so worker tests can exercise rejection the same way
// production admission does.
func (m *mockLedger) EnsureTransmissionIsWellFormed(id types.TransmissionID, payload []byte) error {
	tx := types.Transmission{ID: id, Payload: payload}
	if !tx.VerifyChecksum() {
		return worker.ErrChecksumMismatch
	}
	return nil
}

// TestDuplicateSolutionPush: pushing the same solution twice in quick
// succession results in a single ready entry and a duplicate rejection
// on the second push.
func TestDuplicateSolutionPush(t *testing.T) {
	w := worker.New(0, newMockLedger())
	tx := types.NewTransmission(types.KindSolution, []byte("solution-1"))

	require.NoError(t, w.ProcessUnconfirmed(tx.ID, tx.Payload))
	err := w.ProcessUnconfirmed(tx.ID, tx.Payload)

	assert.ErrorIs(t, err, worker.ErrDuplicateTransmission)
	assert.Equal(t, 1, w.Len())
}

// TestRatificationRejected: a Ratification transmission must never be
// admitted; it is structurally permitted but never accepted into
// batches.
func TestRatificationRejected(t *testing.T) {
	w := worker.New(0, newMockLedger())
	tx := types.NewTransmission(types.KindRatification, []byte("rat-1"))

	err := w.ProcessUnconfirmed(tx.ID, tx.Payload)

	assert.ErrorIs(t, err, worker.ErrRatificationNotAdmitted)
	assert.Equal(t, 0, w.Len())
}

// TestChecksumMismatchRejected: a transaction pushed with a payload
// that no longer matches its id's checksum field is rejected at
// admission and never reaches ready.
func TestChecksumMismatchRejected(t *testing.T) {
	w := worker.New(0, newMockLedger())
	tx := types.NewTransmission(types.KindTransaction, []byte("original"))
	tampered := append([]byte{}, []byte("tampered")...)

	err := w.ProcessUnconfirmed(tx.ID, tampered)

	assert.ErrorIs(t, err, worker.ErrChecksumMismatch)
	assert.Equal(t, 0, w.Len())
}

// TestDrainInsertionOrder verifies Drain removes transmissions in
// insertion order.
func TestDrainInsertionOrder(t *testing.T) {
	w := worker.New(0, newMockLedger())
	var ids []types.TransmissionID
	for i := 0; i < 5; i++ {
		tx := types.NewTransmission(types.KindTransaction, []byte{byte(i)})
		require.NoError(t, w.ProcessUnconfirmed(tx.ID, tx.Payload))
		ids = append(ids, tx.ID)
	}

	drained := w.Drain(3)
	require.Len(t, drained, 3)
	for i, d := range drained {
		assert.Equal(t, ids[i], d.ID)
	}
	assert.Equal(t, 2, w.Len())
}

// TestReinsertNoopIfHeld ensures Reinsert is a no-op when the id is
// already present in ready.
func TestReinsertNoopIfHeld(t *testing.T) {
	w := worker.New(0, newMockLedger())
	tx := types.NewTransmission(types.KindTransaction, []byte("a"))
	require.NoError(t, w.ProcessUnconfirmed(tx.ID, tx.Payload))

	w.Reinsert(tx)

	assert.Equal(t, 1, w.Len())
}

// TestContainsUnionQuery checks that Contains reports true once storage
// or the ledger claims to know about an id, even if ready never held it.
func TestContainsUnionQuery(t *testing.T) {
	w := worker.New(0, newMockLedger())
	id := types.NewTransmission(types.KindTransaction, []byte("x")).ID

	assert.False(t, w.Contains(id))

	w.SetStorageLookup(func(candidate types.TransmissionID) bool { return candidate == id })
	assert.True(t, w.Contains(id))
}

// TestAssignToWorkerIsDeterministic checks sharding is a pure function
// of the transmission id.
func TestAssignToWorkerIsDeterministic(t *testing.T) {
	id := types.NewTransmission(types.KindTransaction, []byte("stable")).ID
	first := worker.AssignToWorker(id, 8)
	second := worker.AssignToWorker(id, 8)
	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 8)
}

// TestReadyQueueBackpressure fills a shard to its tolerance bound and
// checks the next push is refused rather than growing the queue
// without limit.
func TestReadyQueueBackpressure(t *testing.T) {
	w := worker.New(0, newMockLedger())
	for i := 0; i < config.MaxTransmissionsTolerance; i++ {
		var payload [8]byte
		binary.LittleEndian.PutUint64(payload[:], uint64(i))
		tx := types.NewTransmission(types.KindTransaction, payload[:])
		require.NoError(t, w.ProcessUnconfirmed(tx.ID, tx.Payload))
	}

	overflow := types.NewTransmission(types.KindTransaction, []byte("one too many"))
	err := w.ProcessUnconfirmed(overflow.ID, overflow.Payload)

	assert.ErrorIs(t, err, worker.ErrQueueFull)
	assert.Equal(t, config.MaxTransmissionsTolerance, w.Len())
}

func TestPoolRoutesToSameShard(t *testing.T) {
	pool := worker.NewPool(4, newMockLedger())
	tx := types.NewTransmission(types.KindTransaction, []byte("payload"))

	require.NoError(t, pool.ProcessUnconfirmed(tx.ID, tx.Payload))
	assert.True(t, pool.Contains(tx.ID))
	assert.Equal(t, 1, pool.NumUnconfirmed())
}
