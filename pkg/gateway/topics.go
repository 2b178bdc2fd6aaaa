package gateway

// Topic enumerates the events exchanged across the gateway boundary,
// scoped to the narrow set the core consensus engine actually
// consumes.
type Topic uint8

const (
	// TopicBatchPropose carries an outbound batch header from a primary
	// to its peers, or an inbound one triggering a signature reply.
	TopicBatchPropose Topic = iota
	// TopicBatchSignature carries a peer's signature over a batch-id.
	TopicBatchSignature
	// TopicBatchCertified is flooded once a batch reaches quorum.
	TopicBatchCertified
	// TopicPrimaryPing is emitted periodically with block locators.
	TopicPrimaryPing
	// TopicUnconfirmedPush is an external push of a solution or
	// transaction into the worker pool.
	TopicUnconfirmedPush
	// TopicCertificateRequest is a point-to-point fetch by certificate id.
	TopicCertificateRequest
	// TopicCertificateResponse answers a TopicCertificateRequest.
	TopicCertificateResponse
)

// String renders a Topic for logging.
func (t Topic) String() string {
	switch t {
	case TopicBatchPropose:
		return "batch-propose"
	case TopicBatchSignature:
		return "batch-signature"
	case TopicBatchCertified:
		return "batch-certified"
	case TopicPrimaryPing:
		return "primary-ping"
	case TopicUnconfirmedPush:
		return "unconfirmed-push"
	case TopicCertificateRequest:
		return "certificate-request"
	case TopicCertificateResponse:
		return "certificate-response"
	default:
		return "unknown"
	}
}
