package asyncutil_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nyx-network/nyx-bft/pkg/core/asyncutil"
)

func TestPool_RunBlocksUntilComplete(t *testing.T) {
	pool := asyncutil.NewPool(2, 4)
	defer pool.Close()

	var done int32
	pool.Run(func() {
		time.Sleep(10 * time.Millisecond)
		atomic.StoreInt32(&done, 1)
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&done))
}

func TestPool_SubmitRejectsWhenQueueFull(t *testing.T) {
	pool := asyncutil.NewPool(1, 1)
	defer pool.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	accepted := pool.Submit(func() { close(started); <-block })
	assert.True(t, accepted)
	// Wait until the only worker has taken the first job off the queue.
	<-started

	// Fill the one queue slot.
	accepted = pool.Submit(func() {})
	assert.True(t, accepted)

	// Queue now full and the only worker busy: next submit is rejected.
	accepted = pool.Submit(func() {})
	assert.False(t, accepted)

	close(block)
}
