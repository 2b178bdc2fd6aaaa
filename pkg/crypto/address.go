// Package crypto provides the validator-identity and content-hashing
// primitives the core consensus engine needs: deriving a validator
// address from a public key, checksumming opaque transmission payloads,
// and signing/verifying batch headers. The actual proof system and
// on-disk key management live elsewhere; this package only covers what
// batch certification and transmission admission need.
package crypto

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/decred/base58"
	"golang.org/x/crypto/ed25519"
)

// AddressPrefix is the fixed prefix prepended to every validator address
// before base58 encoding, so addresses are visually distinguishable from
// other base58-encoded data on the wire.
var AddressPrefix = big.NewInt(0x4E59584144)

// checksumLength is the number of checksum bytes appended to an address.
const checksumLength = 4

// ValidatorKey wraps an ed25519 public key identifying a committee
// member. Batch headers and signatures are authenticated against this
// key, never against the raw bytes directly.
type ValidatorKey struct {
	ed25519.PublicKey
}

// Verify checks a signature produced over message by this key's private
// counterpart.
func (k *ValidatorKey) Verify(message, sig []byte) bool {
	return ed25519.Verify(k.PublicKey, message, sig)
}

// Address returns the base58-encoded, checksummed validator address for
// this key.
func (k *ValidatorKey) Address() (string, error) {
	if len(k.PublicKey) != ed25519.PublicKeySize {
		return "", errors.New("validator key has unexpected length")
	}
	return KeyToAddress(AddressPrefix, k.PublicKey)
}

// KeyToAddress encodes a public key into a checksummed, base58 address
// carrying the given prefix.
func KeyToAddress(prefix *big.Int, pub []byte) (string, error) {
	buf := new(bytes.Buffer)
	buf.Write(prefix.Bytes())
	buf.Write(pub)

	sum := Checksum(pub)
	buf.Write(sum[:])

	return base58.Encode(buf.Bytes()), nil
}

// Checksum computes the fixed-length checksum used both for validator
// addresses and for transmission content verification: a double
// SHA-256 digest, truncated to checksumLength bytes.
func Checksum(payload []byte) [checksumLength]byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])

	var out [checksumLength]byte
	copy(out[:], second[:checksumLength])
	return out
}

// CompareChecksum reports whether payload's checksum matches the given
// value, used to validate inbound transmissions and framed messages
// without trusting the sender's claimed checksum.
func CompareChecksum(payload []byte, want [checksumLength]byte) bool {
	got := Checksum(payload)
	return bytes.Equal(got[:], want[:])
}

// ContentHash derives a content-addressed identifier from an arbitrary
// payload, used for transmission ids, batch ids and certificate ids.
func ContentHash(payload []byte) [32]byte {
	return sha256.Sum256(payload)
}
