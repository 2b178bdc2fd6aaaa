package bft

import "errors"

var (
	// ErrNoAnchor is returned by TryCommit when the anchor round has no
	// certificate from its elected leader yet.
	ErrNoAnchor = errors.New("bft: anchor round has no leader certificate")

	// ErrAnchorNotConfirmed is returned when the anchor exists but the
	// next odd round lacks quorum-many distinct authors causally
	// referencing it.
	ErrAnchorNotConfirmed = errors.New("bft: anchor not yet confirmed by quorum")
)
