package bft_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-network/nyx-bft/pkg/core/bft"
	"github.com/nyx-network/nyx-bft/pkg/core/ledgerservice"
	"github.com/nyx-network/nyx-bft/pkg/core/reputation"
	"github.com/nyx-network/nyx-bft/pkg/core/storage"
	"github.com/nyx-network/nyx-bft/pkg/core/testutil"
	"github.com/nyx-network/nyx-bft/pkg/core/types"
)

var fourValidators = []types.Member{
	{Address: "validator-a", Stake: 25},
	{Address: "validator-b", Stake: 25},
	{Address: "validator-c", Stake: 25},
	{Address: "validator-d", Stake: 25},
}

var fourValidatorAddresses = []string{"validator-a", "validator-b", "validator-c", "validator-d"}

func committeeSource(round uint64) (types.Committee, error) {
	return types.Committee{Round: round, Members: fourValidators}, nil
}

// certWith forges a certificate whose co-signers are every committee
// member but the author, so fixtures in this package look like the
// quorum-carrying certificates the commit layer actually runs against.
func certWith(author string, round uint64, prev ...types.CertificateID) *types.BatchCertificate {
	header := types.BatchHeader{
		Author:                 author,
		Round:                  round,
		Timestamp:              time.Now(),
		CommitteeID:            "committee-0",
		PreviousCertificateIDs: prev,
	}
	return testutil.ForgeCertificate(header, fourValidatorAddresses)
}

// TestTryCommit_NoAnchorYet is the skipped-round case: the anchor
// round exists but the elected leader has not certified.
func TestTryCommit_NoAnchorYet(t *testing.T) {
	dag := storage.New(100)
	ledger := ledgerservice.NewMemLedger(committeeSource)
	committer := bft.NewCommitter(ledger, dag, nil)

	lookback, _ := ledger.GetCommitteeLookbackForRound(2)
	leader := types.ElectLeader(lookback, 2)
	other := "validator-a"
	if other == leader {
		other = "validator-b"
	}
	require.NoError(t, dag.InsertCertificate(certWith(other, 2), nil))

	_, err := committer.TryCommit(2)
	assert.ErrorIs(t, err, bft.ErrNoAnchor)
}

// TestTryCommit_UnconfirmedAnchor: the leader certified round 2, but
// round 3 lacks quorum-many certificates referencing it.
func TestTryCommit_UnconfirmedAnchor(t *testing.T) {
	dag := storage.New(100)
	ledger := ledgerservice.NewMemLedger(committeeSource)
	committer := bft.NewCommitter(ledger, dag, nil)

	lookback, _ := ledger.GetCommitteeLookbackForRound(2)
	leader := types.ElectLeader(lookback, 2)
	c2 := certWith(leader, 2)
	require.NoError(t, dag.InsertCertificate(c2, nil))

	c3 := certWith("validator-a", 3, c2.ID())
	require.NoError(t, dag.InsertCertificate(c3, nil))

	_, err := committer.TryCommit(2)
	assert.ErrorIs(t, err, bft.ErrAnchorNotConfirmed)
}

// TestCommit_HappyPath exercises the full commit: a quorum of round-3
// certificates reference the round-2 leader, so the subdag commits and
// advances the ledger to block 0.
func TestCommit_HappyPath(t *testing.T) {
	dag := storage.New(100)
	ledger := ledgerservice.NewMemLedger(committeeSource)
	committer := bft.NewCommitter(ledger, dag, nil)

	lookback, _ := ledger.GetCommitteeLookbackForRound(2)
	leader := types.ElectLeader(lookback, 2)
	c2 := certWith(leader, 2)
	require.NoError(t, dag.InsertCertificate(c2, nil))

	authors := []string{"validator-a", "validator-b", "validator-c", "validator-d"}
	count := 0
	for _, a := range authors {
		if count >= 3 {
			break
		}
		require.NoError(t, dag.InsertCertificate(certWith(a, 3, c2.ID()), nil))
		count++
	}

	block, err := committer.Commit(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), block.Height)
	assert.Equal(t, uint64(2), block.Round)

	gotLeader, round, ok := ledger.LatestLeader()
	assert.True(t, ok)
	assert.Equal(t, leader, gotLeader)
	assert.Equal(t, uint64(2), round)
}

// TestCommit_TalliesLivenessStrikes: every lookback committee member
// who did not author the anchor round's certificate picks up a strike
// once that anchor commits.
func TestCommit_TalliesLivenessStrikes(t *testing.T) {
	dag := storage.New(100)
	ledger := ledgerservice.NewMemLedger(committeeSource)
	moderator := reputation.NewModerator(nil)
	committer := bft.NewCommitter(ledger, dag, moderator)

	lookback, _ := ledger.GetCommitteeLookbackForRound(2)
	leader := types.ElectLeader(lookback, 2)
	c2 := certWith(leader, 2)
	require.NoError(t, dag.InsertCertificate(c2, nil))

	for _, a := range []string{"validator-a", "validator-b", "validator-c", "validator-d"} {
		if a == leader {
			continue
		}
		require.NoError(t, dag.InsertCertificate(certWith(a, 3, c2.ID()), nil))
	}

	_, err := committer.Commit(2)
	require.NoError(t, err)

	for _, a := range []string{"validator-a", "validator-b", "validator-c", "validator-d"} {
		if a == leader {
			assert.Equal(t, uint8(0), moderator.Strikes(a))
		} else {
			assert.Equal(t, uint8(1), moderator.Strikes(a))
		}
	}
}

// TestCommit_SkipsAlreadyCommittedHistory: a second commit at round 4
// does not re-walk round 2/3 certificates already folded into the
// first commit's subdag.
func TestCommit_SkipsAlreadyCommittedHistory(t *testing.T) {
	dag := storage.New(100)
	ledger := ledgerservice.NewMemLedger(committeeSource)
	committer := bft.NewCommitter(ledger, dag, nil)

	lookback2, _ := ledger.GetCommitteeLookbackForRound(2)
	leader2 := types.ElectLeader(lookback2, 2)
	c2 := certWith(leader2, 2)
	require.NoError(t, dag.InsertCertificate(c2, nil))
	for _, a := range []string{"validator-a", "validator-b", "validator-c"} {
		require.NoError(t, dag.InsertCertificate(certWith(a, 3, c2.ID()), nil))
	}
	_, err := committer.Commit(2)
	require.NoError(t, err)

	lookback4, _ := ledger.GetCommitteeLookbackForRound(4)
	leader4 := types.ElectLeader(lookback4, 4)
	c3Ref, _ := dag.GetCertificate(c2.ID())
	require.NotNil(t, c3Ref)
	c4 := certWith(leader4, 4, c2.ID())
	require.NoError(t, dag.InsertCertificate(c4, nil))
	for _, a := range []string{"validator-a", "validator-b", "validator-c"} {
		require.NoError(t, dag.InsertCertificate(certWith(a, 5, c4.ID()), nil))
	}

	block, err := committer.Commit(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), block.Height)
}
