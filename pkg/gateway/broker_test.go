package gateway_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-network/nyx-bft/pkg/core/types"
	"github.com/nyx-network/nyx-bft/pkg/gateway"
)

func TestBroker_PublishSubscribe(t *testing.T) {
	broker := gateway.NewSafeBroker()
	ch := make(chan any, 1)
	broker.Subscribe(gateway.TopicBatchPropose, ch)

	header := types.BatchHeader{Author: "validator-a", Round: 1}
	broker.Publish(gateway.TopicBatchPropose, gateway.BatchPropose{Header: header})

	select {
	case ev := <-ch:
		propose, ok := ev.(gateway.BatchPropose)
		require.True(t, ok)
		assert.Equal(t, "validator-a", propose.Header.Author)
	case <-time.After(time.Second):
		t.Fatal("expected event, got none")
	}
}

func TestBroker_UnsubscribeStopsDelivery(t *testing.T) {
	broker := gateway.NewSafeBroker()
	ch := make(chan any, 1)
	id := broker.Subscribe(gateway.TopicPrimaryPing, ch)
	require.True(t, broker.Unsubscribe(gateway.TopicPrimaryPing, id))

	broker.Publish(gateway.TopicPrimaryPing, gateway.PrimaryPing{Version: 1})

	select {
	case <-ch:
		t.Fatal("unsubscribed channel should not receive events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroker_PublishDoesNotBlockOnFullChannel(t *testing.T) {
	broker := gateway.NewSafeBroker()
	ch := make(chan any) // unbuffered, no reader
	broker.Subscribe(gateway.TopicBatchCertified, ch)

	done := make(chan struct{})
	go func() {
		broker.Publish(gateway.TopicBatchCertified, gateway.BatchCertified{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber channel")
	}
}
