// Package eventbus provides a per-topic preprocessor registry for
// gateway events: a chain of validation/transform steps run on an
// event before it reaches a topic's subscribers, e.g. recomputing an
// UnconfirmedPush's checksum before it is handed to the worker pool.
package eventbus

import (
	"math/rand"
	"sync"

	"github.com/nyx-network/nyx-bft/pkg/gateway"
)

// Preprocessor mutates or validates an event before it is dispatched to
// a topic's subscribers.
type Preprocessor interface {
	Process(event any) error
}

// ProcessorFunc adapts a plain function to Preprocessor.
type ProcessorFunc func(event any) error

// Process calls f.
func (f ProcessorFunc) Process(event any) error { return f(event) }

// Registry is a registry of per-topic Preprocessors.
type Registry interface {
	Preprocess(topic gateway.Topic, event any) error
	Register(topic gateway.Topic, preprocessors ...Preprocessor) []uint32
	RemoveProcessor(topic gateway.Topic, id uint32)
	RemoveProcessors(topic gateway.Topic)
	RemoveAllProcessors()
}

var _ Registry = (*SafeRegistry)(nil)

type idProcessor struct {
	Preprocessor
	id uint32
}

// SafeRegistry is a thread-safe Registry.
type SafeRegistry struct {
	mu            sync.RWMutex
	preprocessors map[gateway.Topic][]idProcessor
}

// NewSafeRegistry constructs an empty registry.
func NewSafeRegistry() *SafeRegistry {
	return &SafeRegistry{preprocessors: make(map[gateway.Topic][]idProcessor)}
}

// Preprocess runs every preprocessor registered for topic against
// event, in registration order, stopping at the first error.
func (r *SafeRegistry) Preprocess(topic gateway.Topic, event any) error {
	r.mu.RLock()
	chain := r.preprocessors[topic]
	r.mu.RUnlock()

	for _, p := range chain {
		if err := p.Process(event); err != nil {
			return err
		}
	}
	return nil
}

// Register appends preprocessors to topic's chain, returning their
// assigned ids for later removal.
func (r *SafeRegistry) Register(topic gateway.Topic, preprocessors ...Preprocessor) []uint32 {
	wrapped := make([]idProcessor, len(preprocessors))
	ids := make([]uint32, len(preprocessors))
	for i, p := range preprocessors {
		id := rand.Uint32()
		ids[i] = id
		wrapped[i] = idProcessor{Preprocessor: p, id: id}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.preprocessors[topic] = append(r.preprocessors[topic], wrapped...)
	return ids
}

// RemoveProcessor removes a single preprocessor from topic by id.
func (r *SafeRegistry) RemoveProcessor(topic gateway.Topic, id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chain, ok := r.preprocessors[topic]
	if !ok {
		return
	}
	for i, p := range chain {
		if p.id == id {
			r.preprocessors[topic] = append(chain[:i], chain[i+1:]...)
			return
		}
	}
}

// RemoveProcessors clears every preprocessor registered for topic.
func (r *SafeRegistry) RemoveProcessors(topic gateway.Topic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.preprocessors, topic)
}

// RemoveAllProcessors clears every topic's preprocessor chain.
func (r *SafeRegistry) RemoveAllProcessors() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for topic := range r.preprocessors {
		delete(r.preprocessors, topic)
	}
}
