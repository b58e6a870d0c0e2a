package relay

import (
	"context"
	"sync"

	"github.com/mcoot/teambalancer/internal/model"
)

// Locker grants exclusive access to one room. Mutations hold it from the
// storage write until the update is published, so sequence numbers reach
// the bus in order.
type Locker interface {
	Lock(ctx context.Context, roomID model.RoomID) (unlock func(), err error)
}

// LocalLocker serializes rooms within a single process
type LocalLocker struct {
	mu    sync.Mutex
	locks map[model.RoomID]*sync.Mutex
}

// NewLocalLocker creates a new LocalLocker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[model.RoomID]*sync.Mutex)}
}

func (l *LocalLocker) Lock(_ context.Context, roomID model.RoomID) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[roomID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[roomID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
