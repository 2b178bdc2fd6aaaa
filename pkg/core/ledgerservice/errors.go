package ledgerservice

import "errors"

// Errors returned by the Ledger service.
var (
	// ErrShutdown is returned by AdvanceToNextBlock when the shutdown
	// flag has been observed set.
	ErrShutdown = errors.New("ledgerservice: node is shutting down")

	// ErrDuplicateBlockHeight is returned when CheckNextBlock sees a
	// height already committed.
	ErrDuplicateBlockHeight = errors.New("ledgerservice: block height already committed")

	// ErrDuplicateSolution is returned when a block contains the same
	// solution id more than once.
	ErrDuplicateSolution = errors.New("ledgerservice: duplicate solution in block")

	// ErrSpeculationFailed is returned when VM speculation over a
	// block's ratifications/solutions/transactions disagrees with the
	// block's claimed finalize state.
	ErrSpeculationFailed = errors.New("ledgerservice: speculation failed")

	// ErrCommitteeMismatch is returned when block.verify fails against
	// either committee lookback.
	ErrCommitteeMismatch = errors.New("ledgerservice: committee lookback verification failed")

	// ErrSplitSubdag is returned by the subdag atomicity check when a
	// prior anchor's leader certificate is both present in the subdag
	// and causally linked to the subdag's own leader, meaning the block
	// would represent more than one atomic commit.
	ErrSplitSubdag = errors.New("ledgerservice: split subdag")

	// ErrUnknownCommittee is returned when a committee lookback cannot
	// be derived for a requested round.
	ErrUnknownCommittee = errors.New("ledgerservice: committee unavailable for round")

	// ErrTransmissionTooLarge / ErrFeeTransactionForbidden are raised by
	// EnsureTransmissionIsWellFormed.
	ErrTransmissionTooLarge    = errors.New("ledgerservice: transmission exceeds max size")
	ErrFeeTransactionForbidden = errors.New("ledgerservice: fee transactions are forbidden")
	ErrTransmissionChecksumBad = errors.New("ledgerservice: transmission checksum mismatch")
	ErrNotFound                = errors.New("ledgerservice: not found")
)
