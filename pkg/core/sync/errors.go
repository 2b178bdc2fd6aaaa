package sync

import "errors"

var (
	// ErrMalformedLocators is returned by update_peer_locators when the
	// supplied locator structure fails validation.
	ErrMalformedLocators = errors.New("sync: malformed block locators")
	// ErrUnknownPeer names a peer with no stored locators. The tracker's
	// lookups report an unknown peer through their ok result and do not
	// return this error.
	ErrUnknownPeer = errors.New("sync: unknown peer")
)
