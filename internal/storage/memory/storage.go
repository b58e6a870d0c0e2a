package memory

import (
	"context"
	"sync"

	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	rooms map[model.RoomID]*roomData
}

type roomData struct {
	room      model.Room
	seq       uint64
	players   map[model.PlayerID]model.Player
	order     []model.PlayerID
	partition *model.Partition
	messages  []model.ChatMessage
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rooms: make(map[model.RoomID]*roomData),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

// room returns the data for a room; callers must hold the lock
func (s *Storage) room(id model.RoomID) (*roomData, error) {
	rd, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return rd, nil
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rd, ok := s.rooms[room.ID]; ok {
		rd.room = *room
		return nil
	}
	s.rooms[room.ID] = &roomData{
		room:    *room,
		players: make(map[model.PlayerID]model.Player),
	}
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rd, err := s.room(id)
	if err != nil {
		return nil, err
	}
	room := rd.room
	return &room, nil
}

func (s *Storage) RoomExists(ctx context.Context, id model.RoomID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[id]
	return ok, nil
}

func (s *Storage) NextSeq(ctx context.Context, id model.RoomID) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rd, err := s.room(id)
	if err != nil {
		return 0, err
	}
	rd.seq++
	return rd.seq, nil
}

func (s *Storage) CurrentSeq(ctx context.Context, id model.RoomID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rd, err := s.room(id)
	if err != nil {
		return 0, err
	}
	return rd.seq, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rd, err := s.room(player.RoomID)
	if err != nil {
		return err
	}
	if _, exists := rd.players[player.ID]; !exists {
		rd.order = append(rd.order, player.ID)
	}
	rd.players[player.ID] = *player
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rd, err := s.room(roomID)
	if err != nil {
		return nil, err
	}
	p, ok := rd.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return &p, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rd, err := s.room(roomID)
	if err != nil {
		return err
	}
	if _, ok := rd.players[id]; !ok {
		return nil
	}
	delete(rd.players, id)
	for i, pid := range rd.order {
		if pid == id {
			rd.order = append(rd.order[:i], rd.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Storage) ListPlayers(ctx context.Context, roomID model.RoomID) ([]model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rd, err := s.room(roomID)
	if err != nil {
		return nil, err
	}
	players := make([]model.Player, 0, len(rd.order))
	for _, id := range rd.order {
		players = append(players, rd.players[id])
	}
	return players, nil
}

// Partition operations

func (s *Storage) SavePartition(ctx context.Context, partition *model.Partition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rd, err := s.room(partition.RoomID)
	if err != nil {
		return err
	}
	rd.partition = copyPartition(partition)
	return nil
}

func (s *Storage) GetPartition(ctx context.Context, roomID model.RoomID) (*model.Partition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rd, err := s.room(roomID)
	if err != nil {
		return nil, err
	}
	if rd.partition == nil {
		return nil, model.ErrPartitionNotFound
	}
	return copyPartition(rd.partition), nil
}

// Chat operations

func (s *Storage) AppendMessage(ctx context.Context, msg *model.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rd, err := s.room(msg.RoomID)
	if err != nil {
		return err
	}
	rd.messages = append(rd.messages, *msg)
	return nil
}

func (s *Storage) ListMessages(ctx context.Context, roomID model.RoomID) ([]model.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rd, err := s.room(roomID)
	if err != nil {
		return nil, err
	}
	messages := make([]model.ChatMessage, len(rd.messages))
	copy(messages, rd.messages)
	return messages, nil
}

func (s *Storage) LastMessage(ctx context.Context, roomID model.RoomID) (*model.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rd, err := s.room(roomID)
	if err != nil {
		return nil, err
	}
	if len(rd.messages) == 0 {
		return nil, nil
	}
	msg := rd.messages[len(rd.messages)-1]
	return &msg, nil
}

func copyPartition(p *model.Partition) *model.Partition {
	out := *p
	out.Teams = make([]model.Team, len(p.Teams))
	for i, t := range p.Teams {
		out.Teams[i] = model.Team{Members: append([]model.Player(nil), t.Members...)}
	}
	return &out
}
