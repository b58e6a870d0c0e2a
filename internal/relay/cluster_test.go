package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/teambalancer/internal/dependencies/mocks"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/pubsub"
	"github.com/mcoot/teambalancer/internal/pubsub/pubsubtest"
	redisbus "github.com/mcoot/teambalancer/internal/pubsub/redis"
	"github.com/mcoot/teambalancer/internal/services/chat"
	"github.com/mcoot/teambalancer/internal/services/registry"
	"github.com/mcoot/teambalancer/internal/services/room"
	"github.com/mcoot/teambalancer/internal/session"
	redisstorage "github.com/mcoot/teambalancer/internal/storage/redis"
	"github.com/mcoot/teambalancer/internal/testutil"
)

// gatedBus can hold publishes until released
type gatedBus struct {
	pubsub.Bus

	mu      sync.Mutex
	gate    chan struct{}
	entered chan struct{}
}

// hold makes subsequent publishes block; entered fires as each one arrives
func (b *gatedBus) hold() (entered <-chan struct{}, release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gate = make(chan struct{})
	b.entered = make(chan struct{}, 16)
	gate := b.gate
	return b.entered, func() { close(gate) }
}

func (b *gatedBus) Publish(ctx context.Context, update model.Update) error {
	b.mu.Lock()
	gate, entered := b.gate, b.entered
	b.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	return b.Bus.Publish(ctx, update)
}

// instance is one server process sharing Redis with the others
type instance struct {
	relay *Service
	bus   *gatedBus
	store *redisstorage.Storage
}

func newInstance(t *testing.T, mini *miniredis.Miniredis, name string) *instance {
	t.Helper()
	logger := testutil.NopLogger()
	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})

	store := redisstorage.NewWithClient(client, redisstorage.DefaultConfig())
	bus := &gatedBus{Bus: redisbus.New(client, logger)}
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	rooms := room.NewController(store, clk, mocks.NewMockRandom(), logger)
	reg := registry.New(store, clk, mocks.NewSequentialIDs(name+"-p"), logger)
	chatService := chat.New(store, clk, mocks.NewSequentialIDs(name+"-m"), logger)
	locker := redisstorage.NewRoomLocker(client, time.Minute, logger)

	t.Cleanup(func() {
		_ = bus.Close()
		_ = client.Close()
	})

	return &instance{
		relay: New(rooms, reg, chatService, store, bus, clk, locker, logger),
		bus:   bus,
		store: store,
	}
}

func TestInstancesSharingRedisPublishInSeqOrder(t *testing.T) {
	mini := miniredis.RunT(t)
	a := newInstance(t, mini, "a")
	b := newInstance(t, mini, "b")
	ctx := t.Context()

	_, _, err := a.relay.rooms.CreateRoom(ctx, "shared", model.RoomModeOpen)
	require.NoError(t, err)
	alice, err := b.relay.SubmitPlayerJoin(ctx, "shared", "Alice")
	require.NoError(t, err)

	rec := &pubsubtest.Recorder{}
	sub, err := b.relay.Subscribe(ctx, "shared", rec.Handle)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	sess := session.New("shared", b.relay, session.Options{Logger: testutil.NopLogger()})
	require.NoError(t, sess.Open(ctx))
	defer sess.Close()

	// A renames Alice and stalls before its update reaches the bus
	entered, release := a.bus.hold()
	renamed := make(chan error, 1)
	go func() {
		name := "Alicia"
		_, err := a.relay.SubmitPlayerChange(ctx, "shared", alice.ID, model.PlayerChange{Name: &name})
		renamed <- err
	}()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("rename never reached publish")
	}

	// B's skill change must wait for A to finish
	reskilled := make(chan error, 1)
	go func() {
		skill := 5
		_, err := b.relay.SubmitPlayerChange(ctx, "shared", alice.ID, model.PlayerChange{Skill: &skill})
		reskilled <- err
	}()
	select {
	case err := <-reskilled:
		t.Fatalf("skill change finished while the room was locked: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	release()
	require.NoError(t, <-renamed)
	require.NoError(t, <-reskilled)

	require.Eventually(t, func() bool { return rec.Len() >= 2 }, 2*time.Second, 10*time.Millisecond)
	updates := rec.Updates()
	assert.Equal(t, uint64(2), updates[0].Seq)
	assert.Equal(t, uint64(3), updates[1].Seq)
	assert.Equal(t, "Alicia", updates[1].Player.Name)
	assert.Equal(t, 5, updates[1].Player.Skill)

	require.Eventually(t, func() bool { return sess.LastSeq() == 3 }, 2*time.Second, 10*time.Millisecond)
	stored, err := b.store.GetPlayer(ctx, "shared", alice.ID)
	require.NoError(t, err)
	local, ok := sess.Player(alice.ID)
	require.True(t, ok)
	assert.Equal(t, *stored, local)
	assert.Equal(t, "Alicia", local.Name)
	assert.Equal(t, 5, local.Skill)
}

func TestInstancesSharingRedisKeepChatOrdered(t *testing.T) {
	mini := miniredis.RunT(t)
	a := newInstance(t, mini, "a")
	b := newInstance(t, mini, "b")
	ctx := t.Context()

	_, _, err := a.relay.rooms.CreateRoom(ctx, "chatty", model.RoomModeOpen)
	require.NoError(t, err)

	first, err := a.relay.SubmitMessage(ctx, "chatty", "Alice", "one")
	require.NoError(t, err)
	second, err := b.relay.SubmitMessage(ctx, "chatty", "Bob", "two")
	require.NoError(t, err)
	third, err := a.relay.SubmitMessage(ctx, "chatty", "Alice", "three")
	require.NoError(t, err)

	assert.True(t, second.CreatedAt.After(first.CreatedAt))
	assert.True(t, third.CreatedAt.After(second.CreatedAt))
}
