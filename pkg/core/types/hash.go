package types

import "github.com/nyx-network/nyx-bft/pkg/crypto"

// contentHash is a thin indirection over pkg/crypto so batch.go and
// certificate.go don't need to import crypto directly for a single call.
func contentHash(b []byte) [32]byte {
	return crypto.ContentHash(b)
}
