package eventbus_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-network/nyx-bft/pkg/gateway"
	"github.com/nyx-network/nyx-bft/pkg/gateway/eventbus"
)

var errRejected = errors.New("rejected")

func TestRegistry_PreprocessChainStopsAtFirstError(t *testing.T) {
	reg := eventbus.NewSafeRegistry()
	var calls []int
	reg.Register(gateway.TopicUnconfirmedPush,
		eventbus.ProcessorFunc(func(any) error {
			calls = append(calls, 1)
			return nil
		}),
		eventbus.ProcessorFunc(func(any) error {
			calls = append(calls, 2)
			return errRejected
		}),
		eventbus.ProcessorFunc(func(any) error {
			calls = append(calls, 3)
			return nil
		}),
	)

	err := reg.Preprocess(gateway.TopicUnconfirmedPush, gateway.UnconfirmedPush{})
	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, []int{1, 2}, calls)
}

func TestRegistry_RemoveProcessor(t *testing.T) {
	reg := eventbus.NewSafeRegistry()
	ran := false
	ids := reg.Register(gateway.TopicBatchPropose, eventbus.ProcessorFunc(func(any) error {
		ran = true
		return nil
	}))
	require.Len(t, ids, 1)

	reg.RemoveProcessor(gateway.TopicBatchPropose, ids[0])
	require.NoError(t, reg.Preprocess(gateway.TopicBatchPropose, nil))
	assert.False(t, ran)
}
