// Package session holds one participant's view of a room and keeps it in
// step with the room through a boundary.Boundary.
//
// Writes are submitted and then wait for their echo: nothing is applied
// locally until the boundary delivers the accepted update back.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/teambalancer/internal/boundary"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/services/balancer"
)

// State is the lifecycle stage of a Session
type State int

const (
	StateUninitialized State = iota
	StateJoining             // Subscribed and loaded, no player yet
	StateActive              // Joined as a player
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateJoining:
		return "joining"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Session errors
var (
	ErrNotOpen       = errors.New("session is not open")
	ErrAlreadyOpen   = errors.New("session is already open")
	ErrAlreadyJoined = errors.New("session has already joined")
)

// Options configure a Session
type Options struct {
	Logger *slog.Logger
	// OnUpdate is called after each remote update has been applied
	OnUpdate func(model.Update)
	// OnResync is called after local state was replaced by a fresh snapshot
	OnResync func()
}

const resyncTimeout = 10 * time.Second

// Session is one participant's Room Session State
type Session struct {
	roomID   model.RoomID
	boundary boundary.Boundary
	logger   *slog.Logger
	onUpdate func(model.Update)
	onResync func()

	mu        sync.RWMutex
	state     State
	room      model.Room
	self      model.PlayerID
	registry  *Registry
	chat      *ChatLog
	partition *model.Partition
	lastSeq   uint64
	sub       boundary.Subscription

	// Updates that arrive while the snapshot is loading
	loading bool
	pending []model.Update
	// Updates received ahead of a missing sequence number
	early map[uint64]model.Update
}

// New creates an uninitialized Session for a room
func New(roomID model.RoomID, b boundary.Boundary, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		roomID:   roomID,
		boundary: b,
		logger:   logger.With(slog.String("room", string(roomID))),
		onUpdate: opts.OnUpdate,
		onResync: opts.OnResync,
		registry: NewRegistry(),
		chat:     NewChatLog(),
		early:    make(map[uint64]model.Update),
	}
}

// Open subscribes to the room and loads its current state.
// Updates received while loading are applied after the snapshot if newer.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return ErrAlreadyOpen
	}
	s.loading = true
	s.pending = nil
	s.mu.Unlock()

	sub, err := s.boundary.Subscribe(ctx, s.roomID, s.receive)
	if err != nil {
		s.abortOpen()
		return err
	}

	snap, err := s.boundary.Snapshot(ctx, s.roomID)
	if err != nil {
		sub.Unsubscribe()
		s.abortOpen()
		return err
	}

	s.mu.Lock()
	s.sub = sub
	s.room = snap.Room
	s.resetLocked(snap)
	pending := s.pending
	s.pending = nil
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].Seq < pending[j].Seq })
	var applied []model.Update
	gap := false
	for _, u := range pending {
		ready, missing := s.sequenceLocked(u)
		applied = append(applied, ready...)
		gap = gap || missing
	}
	s.loading = false
	s.state = StateJoining
	onUpdate := s.onUpdate
	s.mu.Unlock()

	s.logger.Debug("session opened",
		slog.Uint64("seq", snap.Seq),
		slog.Int("buffered", len(pending)),
	)

	notify(onUpdate, applied)
	if gap {
		s.resync()
	}
	return nil
}

func (s *Session) abortOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.pending = nil
}

// resetLocked replaces local state with a snapshot; callers hold mu
func (s *Session) resetLocked(snap *model.RoomSnapshot) {
	s.registry.Reset(snap.Players)
	s.chat.Reset(snap.Messages)
	s.partition = snap.Partition
	s.lastSeq = snap.Seq
	for seq := range s.early {
		if seq <= snap.Seq {
			delete(s.early, seq)
		}
	}
}

// receive is the subscription handler. Updates are applied in sequence
// order; a missing sequence number triggers a resync from a fresh snapshot.
func (s *Session) receive(u model.Update) {
	s.mu.Lock()
	if s.loading {
		s.pending = append(s.pending, u)
		s.mu.Unlock()
		return
	}
	applied, gap := s.sequenceLocked(u)
	onUpdate := s.onUpdate
	s.mu.Unlock()

	notify(onUpdate, applied)
	if gap {
		s.resync()
	}
}

// sequenceLocked applies u if it is the next expected update, along with any
// held updates it unblocks. Updates at or below lastSeq were already applied
// and are dropped. It reports whether an earlier update is missing.
// Callers hold mu.
func (s *Session) sequenceLocked(u model.Update) ([]model.Update, bool) {
	if u.Seq == 0 {
		s.applyLocked(u)
		return []model.Update{u}, false
	}
	if u.Seq <= s.lastSeq {
		return nil, false
	}
	if u.Seq > s.lastSeq+1 {
		s.early[u.Seq] = u
		return nil, true
	}

	applied := []model.Update{u}
	s.applyLocked(u)
	for {
		next, ok := s.early[s.lastSeq+1]
		if !ok {
			break
		}
		delete(s.early, next.Seq)
		s.applyLocked(next)
		applied = append(applied, next)
	}
	return applied, len(s.early) > 0
}

// resync reloads the room from a fresh snapshot and replays held updates
// newer than it. On failure the current state is kept and the next gap retries.
func (s *Session) resync() {
	ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
	defer cancel()

	snap, err := s.boundary.Snapshot(ctx, s.roomID)
	if err != nil {
		s.logger.Warn("resync failed", slog.String("error", err.Error()))
		return
	}

	s.mu.Lock()
	if snap.Seq < s.lastSeq {
		s.mu.Unlock()
		s.logger.Warn("ignoring stale snapshot",
			slog.Uint64("snapshot_seq", snap.Seq),
			slog.Uint64("last_seq", s.lastSeq),
		)
		return
	}
	s.room = snap.Room
	s.resetLocked(snap)
	var applied []model.Update
	for {
		next, ok := s.early[s.lastSeq+1]
		if !ok {
			break
		}
		delete(s.early, next.Seq)
		s.applyLocked(next)
		applied = append(applied, next)
	}
	held := len(s.early)
	onResync := s.onResync
	onUpdate := s.onUpdate
	s.mu.Unlock()

	s.logger.Info("session resynced",
		slog.Uint64("seq", snap.Seq),
		slog.Int("still_held", held),
	)

	if onResync != nil {
		onResync()
	}
	notify(onUpdate, applied)
}

func notify(onUpdate func(model.Update), updates []model.Update) {
	if onUpdate == nil {
		return
	}
	for _, u := range updates {
		onUpdate(u)
	}
}

// ApplyRemoteUpdate merges an update into local state as an unconditional
// upsert or delete keyed by entity id. Redelivery is harmless and ids that
// are no longer present are tolerated. Ordering is the caller's concern;
// the session's own subscription orders updates by sequence number first.
func (s *Session) ApplyRemoteUpdate(u model.Update) {
	s.mu.Lock()
	s.applyLocked(u)
	onUpdate := s.onUpdate
	s.mu.Unlock()

	notify(onUpdate, []model.Update{u})
}

// applyLocked merges u into local state; callers hold mu
func (s *Session) applyLocked(u model.Update) {
	switch u.Type {
	case model.UpdatePlayerAdded, model.UpdatePlayerChanged:
		if u.Player != nil {
			s.registry.Upsert(*u.Player)
		}
	case model.UpdatePlayerRemoved:
		s.registry.Delete(u.PlayerID)
	case model.UpdatePartitionReplaced:
		if u.Partition != nil {
			s.partition = u.Partition.Clone()
		}
	case model.UpdateMessageAppended:
		if u.Message != nil {
			s.chat.Insert(*u.Message)
		}
	default:
		s.logger.Warn("ignoring unknown update type", slog.String("type", string(u.Type)))
	}
	if u.Seq > s.lastSeq {
		s.lastSeq = u.Seq
	}
}

// requireOpen returns ErrNotOpen before Open has succeeded
func (s *Session) requireOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == StateUninitialized {
		return ErrNotOpen
	}
	return nil
}

// Join registers this participant as a player and moves the session to Active
func (s *Session) Join(ctx context.Context, name string) (*model.Player, error) {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	switch state {
	case StateUninitialized:
		return nil, ErrNotOpen
	case StateActive:
		return nil, ErrAlreadyJoined
	}

	name, err := model.ValidateName(name)
	if err != nil {
		return nil, err
	}

	player, err := s.boundary.SubmitPlayerJoin(ctx, s.roomID, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.self = player.ID
	s.state = StateActive
	s.mu.Unlock()

	return player, nil
}

// Rename submits a new display name for a player known to this session
func (s *Session) Rename(ctx context.Context, playerID model.PlayerID, name string) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	name, err := model.ValidateName(name)
	if err != nil {
		return err
	}
	if !s.hasPlayer(playerID) {
		return model.ErrPlayerNotFound
	}
	_, err = s.boundary.SubmitPlayerChange(ctx, s.roomID, playerID, model.PlayerChange{Name: &name})
	return err
}

// SetSkill submits a skill rating, clamped to [MinSkill, MaxSkill]
func (s *Session) SetSkill(ctx context.Context, playerID model.PlayerID, skill int) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	if !s.hasPlayer(playerID) {
		return model.ErrPlayerNotFound
	}
	skill = model.ClampSkill(skill)
	_, err := s.boundary.SubmitPlayerChange(ctx, s.roomID, playerID, model.PlayerChange{Skill: &skill})
	return err
}

// Remove submits a player's removal. The submission is made even when the
// player is not known locally yet, such as straight after Join before its echo;
// the boundary treats removing an absent player as a no-op.
func (s *Session) Remove(ctx context.Context, playerID model.PlayerID) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	return s.boundary.SubmitPlayerRemove(ctx, s.roomID, playerID)
}

// SendMessage submits a chat message authored by this session's player
func (s *Session) SendMessage(ctx context.Context, content string) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	content, err := model.ValidateContent(content)
	if err != nil {
		return err
	}

	author := ""
	s.mu.RLock()
	if p, ok := s.registry.Get(s.self); ok {
		author = p.Name
	}
	s.mu.RUnlock()

	_, err = s.boundary.SubmitMessage(ctx, s.roomID, author, content)
	return err
}

// RequestBalance balances the locally known players into teamCount teams and
// submits the partition. Local state changes only when the partition is echoed back.
func (s *Session) RequestBalance(ctx context.Context, teamCount int) (*model.Partition, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}

	players := s.Players()
	teams, err := balancer.Balance(players, teamCount)
	if err != nil {
		return nil, err
	}

	partition := model.Partition{
		RoomID:    s.roomID,
		TeamCount: teamCount,
		Teams:     teams,
	}
	if err := s.boundary.SubmitPartition(ctx, s.roomID, partition); err != nil {
		return nil, err
	}
	return &partition, nil
}

// Close stops receiving updates. The last known state stays readable.
func (s *Session) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

func (s *Session) hasPlayer(id model.PlayerID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry.Get(id)
	return ok
}

// Accessors

// RoomID returns the room this session belongs to
func (s *Session) RoomID() model.RoomID {
	return s.roomID
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Room returns the room record loaded on Open
func (s *Session) Room() model.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

// Self returns this session's player id, empty before Join
func (s *Session) Self() model.PlayerID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.self
}

// Players returns the locally known players
func (s *Session) Players() []model.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.List()
}

// Player returns a locally known player
func (s *Session) Player(id model.PlayerID) (model.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Get(id)
}

// Partition returns the current partition, or nil if none has been received
func (s *Session) Partition() *model.Partition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.partition == nil {
		return nil
	}
	return s.partition.Clone()
}

// Messages returns chat messages created strictly after since (all when zero)
func (s *Session) Messages(since time.Time) []model.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chat.List(since)
}

// LastSeq returns the highest update sequence number seen
func (s *Session) LastSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeq
}
