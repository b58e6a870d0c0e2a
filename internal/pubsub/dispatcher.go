package pubsub

import (
	"sync"

	"github.com/mcoot/teambalancer/internal/boundary"
	"github.com/mcoot/teambalancer/internal/model"
)

// Dispatcher feeds updates to a handler from its own goroutine through an
// unbounded queue, so producers never block on slow handlers and nothing is dropped.
type Dispatcher struct {
	handler boundary.UpdateHandler

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []model.Update
	closed bool

	// held while the handler runs
	deliverMu sync.Mutex
	done      chan struct{}
}

// NewDispatcher starts a dispatcher for handler
func NewDispatcher(handler boundary.UpdateHandler) *Dispatcher {
	d := &Dispatcher{
		handler: handler,
		done:    make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

// Enqueue queues an update for delivery. Ignored after Close.
func (d *Dispatcher) Enqueue(update model.Update) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.queue = append(d.queue, update)
	d.cond.Signal()
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if d.closed {
			d.mu.Unlock()
			return
		}
		update := d.queue[0]
		d.queue[0] = model.Update{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.deliverMu.Lock()
		if !d.isClosed() {
			d.handler(update)
		}
		d.deliverMu.Unlock()
	}
}

func (d *Dispatcher) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Close discards queued updates and waits for an in-flight handler call to
// finish. The handler is never called after Close returns.
// Calling Close from within the handler deadlocks.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.queue = nil
	d.cond.Broadcast()
	d.mu.Unlock()

	d.deliverMu.Lock()
	//nolint:staticcheck // empty critical section waits out the running handler
	d.deliverMu.Unlock()
}

// Done is closed once the dispatcher goroutine has exited
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}
