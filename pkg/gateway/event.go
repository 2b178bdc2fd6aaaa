// Package gateway defines the event types exchanged at the node's
// external boundary and a small typed publish/subscribe broker to
// dispatch them. Raw TCP/TLS framing and wire encoding live in the
// transport layer; events here carry Go values directly rather than
// byte buffers.
package gateway

import "github.com/nyx-network/nyx-bft/pkg/core/types"

// BatchPropose is broadcast by a primary after constructing a
// proposal, and triggers a signature reply from a peer that has not
// already signed a batch at (author, round).
type BatchPropose struct {
	Header types.BatchHeader
}

// BatchSignature is a peer's signature over a batch-id, accumulated
// into the matching in-progress proposal.
type BatchSignature struct {
	BatchID   types.BatchID
	Signer    string
	Signature []byte
}

// BatchCertified is flooded on certification; recipients insert the
// certificate into storage after recursively fetching any missing
// previous certificates. Missing transmissions are not fetched.
type BatchCertified struct {
	Certificate *types.BatchCertificate
}

// PrimaryPing is emitted on a periodic timer when the node is in
// gateway mode, carrying the sender's identity, block locators, and its
// own latest certificate for liveness gossip.
type PrimaryPing struct {
	Version               uint32
	Peer                  string
	Recents               map[uint64][32]byte
	Checkpoints           map[uint64][32]byte
	LatestSelfCertificate types.CertificateID
}

// UnconfirmedPush is an external push of a solution or transaction
// into the worker pool. Result, if non-nil, receives the admission
// outcome.
type UnconfirmedPush struct {
	Transmission types.Transmission
	Result       chan<- error
}

// CertificateRequest is a point-to-point fetch by certificate id.
// Reply, if non-nil, receives the resolved certificate (nil if
// unknown).
type CertificateRequest struct {
	ID    types.CertificateID
	Reply chan<- *types.BatchCertificate
}

// CertificateResponse answers a CertificateRequest; it is validated as
// any other inbound certificate before being inserted into storage.
type CertificateResponse struct {
	Certificate *types.BatchCertificate
}
