package primary

import "errors"

var (
	// ErrProposalInProgress is returned by ProposeBatch when the propose
	// lock is already held. Callers treat it as a skip, not a failure;
	// it is exported so tests can assert on it directly.
	ErrProposalInProgress = errors.New("primary: a proposal is already in progress")

	// ErrRoundNotAdvanced is returned when storage's current_round is 0.
	ErrRoundNotAdvanced = errors.New("primary: storage has not advanced past round 0")

	// ErrStaleRound is returned when the target round is behind the
	// last proposed round recorded in the cache.
	ErrStaleRound = errors.New("primary: round is behind the last proposed round")

	// ErrTooSoon is returned when the minimum inter-proposal delay has
	// not elapsed.
	ErrTooSoon = errors.New("primary: minimum batch delay has not elapsed")

	// ErrAlreadyCertifiedThisRound is returned when storage already
	// holds a certificate authored by self at the target round.
	ErrAlreadyCertifiedThisRound = errors.New("primary: self already certified this round")

	// ErrNoQuorumConnectivity is returned when connected validators plus
	// self do not reach the committee's quorum threshold.
	ErrNoQuorumConnectivity = errors.New("primary: connected validators do not reach quorum")

	// ErrPreviousRoundNotQuorate is returned when round > 1 and the
	// previous round's certificate authors do not reach quorum in the
	// previous committee lookback.
	ErrPreviousRoundNotQuorate = errors.New("primary: previous round did not reach quorum")

	// ErrEmptyBatch is returned when no transmission survives selection.
	ErrEmptyBatch = errors.New("primary: no transmissions available to propose")

	// ErrUnknownSigner is returned when a BatchSignature's signer is not
	// a member of the batch's committee lookback.
	ErrUnknownSigner = errors.New("primary: signer is not a committee-lookback member")

	// ErrBadSignature is returned when a BatchSignature fails to verify.
	ErrBadSignature = errors.New("primary: signature does not verify")

	// ErrNoSuchProposal is returned when a signature arrives for a
	// batch-id the primary has no in-flight proposal for.
	ErrNoSuchProposal = errors.New("primary: no in-flight proposal for this batch")

	// ErrShuttingDown is returned by ProposeBatch, HandleBatchSignature
	// and HandleBatchCertified (and so by HandleCertificateResponse) once
	// ShutDown has been called.
	ErrShuttingDown = errors.New("primary: node is shutting down")

	// ErrNoSuchCertificate is returned when an inbound BatchCertified or
	// CertificateResponse carries a nil certificate.
	ErrNoSuchCertificate = errors.New("primary: no certificate to sync")

	// ErrFetchDepthExceeded bounds the recursive previous-certificate
	// walk during peer certificate sync.
	ErrFetchDepthExceeded = errors.New("primary: certificate dependency chain exceeded max fetch depth")

	// ErrCertificateFetchTimeout is returned when a CertificateRequest's
	// reply does not arrive before config.CertificateFetchTimeout.
	ErrCertificateFetchTimeout = errors.New("primary: certificate fetch timed out")

	// ErrMissingTransmissionDependency is returned when a certificate
	// references a transmission neither storage nor its owning worker
	// shard currently holds; the id is marked pending on the worker so a
	// later push or fetch can complete it.
	ErrMissingTransmissionDependency = errors.New("primary: certificate references an unresolved transmission")

	// ErrNoGateway is returned by operations that need to reach peers
	// (certificate fetch, ping emission) when this Primary was
	// constructed with a nil broker.
	ErrNoGateway = errors.New("primary: no gateway broker wired")
)
