package storage

import "errors"

// Errors returned by Storage operations.
var (
	// ErrStaleRound is returned when a certificate's round is at or
	// below the GC boundary.
	ErrStaleRound = errors.New("storage: certificate round is stale")

	// ErrDuplicateCertificate is returned when the certificate-id, or
	// another certificate from the same author at the same round, is
	// already resident.
	ErrDuplicateCertificate = errors.New("storage: duplicate certificate")

	// ErrMissingTransmissions is returned when a certificate references
	// a transmission not supplied in the accompanying map and not
	// already resident.
	ErrMissingTransmissions = errors.New("storage: missing transmissions")

	// ErrMalformedHeader is returned when a batch header fails
	// structural validation (e.g. empty author, zero round).
	ErrMalformedHeader = errors.New("storage: malformed batch header")
)
