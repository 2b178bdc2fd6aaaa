package crypto

import "golang.org/x/crypto/ed25519"

// Account is a validator's signing identity: an ed25519 keypair plus
// the derived address used throughout the core as a validator's
// canonical identifier.
type Account struct {
	PrivateKey ed25519.PrivateKey
	address    string
}

// NewAccount derives an Account from priv, computing and caching its
// address.
func NewAccount(priv ed25519.PrivateKey) (*Account, error) {
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, errNotEd25519Key
	}
	addr, err := KeyToAddress(AddressPrefix, pub)
	if err != nil {
		return nil, err
	}
	return &Account{PrivateKey: priv, address: addr}, nil
}

var errNotEd25519Key = &keyTypeError{}

type keyTypeError struct{}

func (*keyTypeError) Error() string { return "crypto: private key did not yield an ed25519 public key" }

// Address returns this account's validator address.
func (a *Account) Address() string {
	return a.address
}

// Sign signs message with the account's private key.
func (a *Account) Sign(message []byte) []byte {
	return ed25519.Sign(a.PrivateKey, message)
}

// PublicKey returns this account's public key.
func (a *Account) PublicKey() ed25519.PublicKey {
	pub, _ := a.PrivateKey.Public().(ed25519.PublicKey)
	return pub
}
