package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-network/nyx-bft/pkg/core/storage"
	"github.com/nyx-network/nyx-bft/pkg/core/testutil"
	"github.com/nyx-network/nyx-bft/pkg/core/types"
)

// quorumPeers are the forged co-signers attached to every fixture
// certificate via testutil.ForgeCertificate; storage itself never
// checks signatures, but the fixture should still look like a
// certified batch rather than a bare header.
var quorumPeers = []string{"validator-b", "validator-c", "validator-d"}

func makeCertificate(author string, round uint64, txs ...types.TransmissionID) *types.BatchCertificate {
	header := types.BatchHeader{
		Author:          author,
		Round:           round,
		Timestamp:       time.Now(),
		CommitteeID:     "committee-0",
		TransmissionIDs: txs,
	}
	return testutil.ForgeCertificate(header, quorumPeers)
}

func makeTransmission(payload string) types.Transmission {
	return types.NewTransmission(types.KindTransaction, []byte(payload))
}

// TestStorageMonotonicity: the current round is non-decreasing across
// any sequence of insertions.
func TestStorageMonotonicity(t *testing.T) {
	dag := storage.New(50)
	last := uint64(0)
	for round := uint64(1); round <= 10; round++ {
		cert := makeCertificate("validator-a", round)
		require.NoError(t, dag.InsertCertificate(cert, nil))
		require.GreaterOrEqual(t, dag.CurrentRound(), last)
		last = dag.CurrentRound()
	}
	assert.Equal(t, uint64(10), dag.CurrentRound())
}

// TestStorageOnePerAuthorPerRound: a round holds at most one
// certificate per author.
func TestStorageOnePerAuthorPerRound(t *testing.T) {
	dag := storage.New(50)
	require.NoError(t, dag.InsertCertificate(makeCertificate("validator-a", 1), nil))
	err := dag.InsertCertificate(makeCertificate("validator-a", 1), nil)
	assert.ErrorIs(t, err, storage.ErrDuplicateCertificate)
}

// TestStorageGCBound: no certificate at or below the GC boundary stays
// resident.
func TestStorageGCBound(t *testing.T) {
	dag := storage.New(2)
	ids := make([]types.CertificateID, 0)
	for round := uint64(1); round <= 5; round++ {
		cert := makeCertificate("validator-a", round)
		require.NoError(t, dag.InsertCertificate(cert, nil))
		ids = append(ids, cert.ID())
		dag.IncrementToNextRound(dag.CurrentRound() - 1)
	}

	gcRound := dag.GCRound()
	for i, id := range ids {
		round := uint64(i + 1)
		if round <= gcRound {
			assert.False(t, dag.ContainsCertificate(id), "round %d should be GC'd", round)
		}
	}
	assert.True(t, dag.ContainsCertificate(ids[len(ids)-1]))
}

// TestStorageStaleRoundRejected checks InsertCertificate rejects a
// certificate at or below gc_round.
func TestStorageStaleRoundRejected(t *testing.T) {
	dag := storage.New(2)
	for round := uint64(1); round <= 5; round++ {
		require.NoError(t, dag.InsertCertificate(makeCertificate("validator-a", round), nil))
	}
	err := dag.InsertCertificate(makeCertificate("validator-b", 1), nil)
	assert.ErrorIs(t, err, storage.ErrStaleRound)
}

// TestTransmissionRoundTrip: a transmission included in a certified
// batch is queryable immediately after InsertCertificate returns.
func TestTransmissionRoundTrip(t *testing.T) {
	dag := storage.New(50)
	tx := makeTransmission("payload")
	cert := makeCertificate("validator-a", 1, tx.ID)

	require.NoError(t, dag.InsertCertificate(cert, map[types.TransmissionID]types.Transmission{tx.ID: tx}))

	assert.True(t, dag.ContainsTransmission(tx.ID))
}

// TestMissingTransmissionsRejected checks InsertCertificate fails when a
// referenced transmission is neither supplied nor already resident.
func TestMissingTransmissionsRejected(t *testing.T) {
	dag := storage.New(50)
	tx := makeTransmission("payload")
	cert := makeCertificate("validator-a", 1, tx.ID)

	err := dag.InsertCertificate(cert, nil)

	assert.ErrorIs(t, err, storage.ErrMissingTransmissions)
}

func TestMalformedHeaderRejected(t *testing.T) {
	dag := storage.New(50)
	cert := makeCertificate("", 1)
	err := dag.InsertCertificate(cert, nil)
	assert.ErrorIs(t, err, storage.ErrMalformedHeader)
}
