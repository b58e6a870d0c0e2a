package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Client exposes the underlying client so the update bus can share the connection pool
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// touch refreshes the TTL of every key in the room
func (s *Storage) touch(ctx context.Context, pipe redis.Pipeliner, id model.RoomID) {
	if s.cfg.RoomTTL <= 0 {
		return
	}
	for _, key := range roomKeys(id) {
		pipe.Expire(ctx, key, s.cfg.RoomTTL)
	}
}

func (s *Storage) requireRoom(ctx context.Context, id model.RoomID) error {
	exists, err := s.RoomExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrRoomNotFound
	}
	return nil
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, roomKey(room.ID), data, s.cfg.RoomTTL)
	s.touch(ctx, pipe, room.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) RoomExists(ctx context.Context, id model.RoomID) (bool, error) {
	n, err := s.client.Exists(ctx, roomKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) NextSeq(ctx context.Context, id model.RoomID) (uint64, error) {
	if err := s.requireRoom(ctx, id); err != nil {
		return 0, err
	}

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, seqKey(id))
	s.touch(ctx, pipe, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return uint64(incr.Val()), nil
}

func (s *Storage) CurrentSeq(ctx context.Context, id model.RoomID) (uint64, error) {
	if err := s.requireRoom(ctx, id); err != nil {
		return 0, err
	}

	seq, err := s.client.Get(ctx, seqKey(id)).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return seq, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	if err := s.requireRoom(ctx, player.RoomID); err != nil {
		return err
	}

	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	added, err := s.client.HSet(ctx, playersKey(player.RoomID), string(player.ID), data).Result()
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	if added > 0 {
		pipe.RPush(ctx, playerOrderKey(player.RoomID), string(player.ID))
	}
	s.touch(ctx, pipe, player.RoomID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.HGet(ctx, playersKey(roomID), string(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID) error {
	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, playersKey(roomID), string(id))
	pipe.LRem(ctx, playerOrderKey(roomID), 0, string(id))
	s.touch(ctx, pipe, roomID)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListPlayers(ctx context.Context, roomID model.RoomID) ([]model.Player, error) {
	order, err := s.client.LRange(ctx, playerOrderKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return []model.Player{}, nil
	}

	values, err := s.client.HMGet(ctx, playersKey(roomID), order...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]model.Player, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// Order entry without a record, skip it
			continue
		}
		var player model.Player
		if err := json.Unmarshal([]byte(str), &player); err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	return players, nil
}

// Partition operations

func (s *Storage) SavePartition(ctx context.Context, partition *model.Partition) error {
	if err := s.requireRoom(ctx, partition.RoomID); err != nil {
		return err
	}

	data, err := json.Marshal(partition)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, partitionKey(partition.RoomID), data, 0)
	s.touch(ctx, pipe, partition.RoomID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPartition(ctx context.Context, roomID model.RoomID) (*model.Partition, error) {
	data, err := s.client.Get(ctx, partitionKey(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPartitionNotFound
		}
		return nil, err
	}

	var partition model.Partition
	if err := json.Unmarshal(data, &partition); err != nil {
		return nil, err
	}
	return &partition, nil
}

// Chat operations

func (s *Storage) AppendMessage(ctx context.Context, msg *model.ChatMessage) error {
	if err := s.requireRoom(ctx, msg.RoomID); err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, messagesKey(msg.RoomID), data)
	s.touch(ctx, pipe, msg.RoomID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListMessages(ctx context.Context, roomID model.RoomID) ([]model.ChatMessage, error) {
	values, err := s.client.LRange(ctx, messagesKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]model.ChatMessage, 0, len(values))
	for _, v := range values {
		var msg model.ChatMessage
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *Storage) LastMessage(ctx context.Context, roomID model.RoomID) (*model.ChatMessage, error) {
	data, err := s.client.LIndex(ctx, messagesKey(roomID), -1).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var msg model.ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
