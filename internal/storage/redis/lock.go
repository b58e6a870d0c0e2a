package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mcoot/teambalancer/internal/model"
)

// Lock timings
const (
	DefaultLockTTL   = 5 * time.Second
	lockRetryDelay   = 10 * time.Millisecond
	lockReleaseLimit = time.Second
)

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RoomLocker is a per-room lock shared by every process using the same Redis.
// A holder that outlives the TTL loses the lock.
type RoomLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRoomLocker creates a RoomLocker; a zero ttl uses DefaultLockTTL
func NewRoomLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RoomLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RoomLocker{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Lock blocks until the room's lock is acquired or ctx is done
func (l *RoomLocker) Lock(ctx context.Context, roomID model.RoomID) (func(), error) {
	key := lockKey(roomID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseLimit)
		defer cancel()
		err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("failed to release room lock",
				slog.String("room", string(roomID)),
				slog.String("error", err.Error()),
			)
		}
	}, nil
}
