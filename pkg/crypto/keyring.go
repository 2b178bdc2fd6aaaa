package crypto

import (
	"sync"

	"golang.org/x/crypto/ed25519"
)

// KeyRing maps validator addresses to the public keys they were derived
// from, so a node that only knows a committee's addresses (the form
// Committee carries) can still verify a signature attributed to one of
// them. Entries are learned out of band, typically from the same
// handshake that first announces a peer's address.
type KeyRing struct {
	mu   sync.RWMutex
	keys map[string]ed25519.PublicKey
}

// NewKeyRing returns an empty KeyRing.
func NewKeyRing() *KeyRing {
	return &KeyRing{keys: make(map[string]ed25519.PublicKey)}
}

// Register associates address with pub, overwriting any prior entry.
func (r *KeyRing) Register(address string, pub ed25519.PublicKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[address] = pub
}

// Verify reports whether sig is a valid ed25519 signature over message
// under the public key registered for address. An unregistered address
// never verifies.
func (r *KeyRing) Verify(address string, message, sig []byte) bool {
	r.mu.RLock()
	pub, ok := r.keys[address]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return ed25519.Verify(pub, message, sig)
}
