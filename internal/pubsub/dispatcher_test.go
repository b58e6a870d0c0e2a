package pubsub

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/teambalancer/internal/model"
)

func TestDispatcherDeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []uint64
	d := NewDispatcher(func(u model.Update) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, u.Seq)
	})
	defer d.Close()

	for i := uint64(1); i <= 100; i++ {
		d.Enqueue(model.Update{Seq: i})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 100
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, seq := range got {
		assert.Equal(t, uint64(i+1), seq)
	}
}

func TestDispatcherNoCallbacksAfterClose(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	d := NewDispatcher(func(u model.Update) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		calls.Add(1)
	})

	for i := 0; i < 10; i++ {
		d.Enqueue(model.Update{Seq: uint64(i)})
	}
	<-started

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()

	// Close waits for the running handler
	select {
	case <-closed:
		t.Fatal("Close returned while handler was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-closed
	after := calls.Load()
	assert.Equal(t, int64(1), after)

	d.Enqueue(model.Update{Seq: 99})
	<-d.Done()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(func(model.Update) {})
	d.Close()
	d.Close()

	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
