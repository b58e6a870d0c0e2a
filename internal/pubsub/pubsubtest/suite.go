// Package pubsubtest holds behaviour tests shared by every Bus implementation.
package pubsubtest

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/pubsub"
)

const waitFor = 2 * time.Second

// Suite runs the common Bus behaviour. Set NewBus before SetupTest runs.
type Suite struct {
	suite.Suite

	NewBus func() pubsub.Bus

	Bus pubsub.Bus
	Ctx context.Context
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewBus, "NewBus must be set")
	s.Bus = s.NewBus()
	s.Ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.Bus != nil {
		_ = s.Bus.Close()
	}
}

// Recorder collects updates delivered to a handler
type Recorder struct {
	mu      sync.Mutex
	updates []model.Update
}

// Handle records an update
func (r *Recorder) Handle(u model.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

// Updates returns a copy of everything recorded so far
func (r *Recorder) Updates() []model.Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Update(nil), r.updates...)
}

// Len returns the number of recorded updates
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func messageUpdate(room model.RoomID, seq uint64, content string) model.Update {
	u := model.NewMessageAppended(model.ChatMessage{
		ID:         model.MessageID(content),
		RoomID:     room,
		AuthorName: "Alice",
		Content:    content,
		CreatedAt:  time.Date(2024, 1, 1, 12, 0, 0, int(seq)*1000, time.UTC),
	})
	u.Seq = seq
	return u
}

func (s *Suite) TestPublishReachesAllSubscribersInOrder() {
	var a, b Recorder
	subA, err := s.Bus.Subscribe(s.Ctx, "room", a.Handle)
	s.Require().NoError(err)
	defer subA.Unsubscribe()
	subB, err := s.Bus.Subscribe(s.Ctx, "room", b.Handle)
	s.Require().NoError(err)
	defer subB.Unsubscribe()

	for i := uint64(1); i <= 50; i++ {
		s.Require().NoError(s.Bus.Publish(s.Ctx, messageUpdate("room", i, "msg")))
	}

	for _, r := range []*Recorder{&a, &b} {
		s.Require().Eventually(func() bool { return r.Len() == 50 }, waitFor, 5*time.Millisecond)
		for i, u := range r.Updates() {
			s.Equal(uint64(i+1), u.Seq)
			s.Equal(model.UpdateMessageAppended, u.Type)
		}
	}
}

func (s *Suite) TestPayloadSurvivesDelivery() {
	var r Recorder
	sub, err := s.Bus.Subscribe(s.Ctx, "room", r.Handle)
	s.Require().NoError(err)
	defer sub.Unsubscribe()

	player := model.Player{ID: "p1", RoomID: "room", Name: "Alice", Skill: 4}
	update := model.NewPlayerAdded(player)
	update.Seq = 7
	s.Require().NoError(s.Bus.Publish(s.Ctx, update))

	s.Require().Eventually(func() bool { return r.Len() == 1 }, waitFor, 5*time.Millisecond)
	got := r.Updates()[0]
	s.Equal(model.UpdatePlayerAdded, got.Type)
	s.Equal(uint64(7), got.Seq)
	s.Require().NotNil(got.Player)
	s.Equal("Alice", got.Player.Name)
	s.Equal(4, got.Player.Skill)
}

func (s *Suite) TestRoomsAreIsolated() {
	var r1, r2 Recorder
	sub1, err := s.Bus.Subscribe(s.Ctx, "room-1", r1.Handle)
	s.Require().NoError(err)
	defer sub1.Unsubscribe()
	sub2, err := s.Bus.Subscribe(s.Ctx, "room-2", r2.Handle)
	s.Require().NoError(err)
	defer sub2.Unsubscribe()

	s.Require().NoError(s.Bus.Publish(s.Ctx, messageUpdate("room-1", 1, "one")))
	s.Require().NoError(s.Bus.Publish(s.Ctx, messageUpdate("room-2", 1, "two")))

	s.Require().Eventually(func() bool { return r1.Len() == 1 && r2.Len() == 1 }, waitFor, 5*time.Millisecond)
	s.Equal("one", r1.Updates()[0].Message.Content)
	s.Equal("two", r2.Updates()[0].Message.Content)
}

func (s *Suite) TestNoDeliveryAfterUnsubscribe() {
	var r Recorder
	sub, err := s.Bus.Subscribe(s.Ctx, "room", r.Handle)
	s.Require().NoError(err)

	s.Require().NoError(s.Bus.Publish(s.Ctx, messageUpdate("room", 1, "before")))
	s.Require().Eventually(func() bool { return r.Len() == 1 }, waitFor, 5*time.Millisecond)

	sub.Unsubscribe()
	countAtUnsubscribe := r.Len()

	for i := uint64(2); i <= 10; i++ {
		s.Require().NoError(s.Bus.Publish(s.Ctx, messageUpdate("room", i, "after")))
	}

	// A live subscriber proves the later updates were delivered somewhere
	var witness Recorder
	wsub, err := s.Bus.Subscribe(s.Ctx, "room", witness.Handle)
	s.Require().NoError(err)
	defer wsub.Unsubscribe()
	s.Require().NoError(s.Bus.Publish(s.Ctx, messageUpdate("room", 11, "witness")))
	s.Require().Eventually(func() bool { return witness.Len() == 1 }, waitFor, 5*time.Millisecond)

	s.Equal(countAtUnsubscribe, r.Len())
}

func (s *Suite) TestUnsubscribeIsIdempotent() {
	var r Recorder
	sub, err := s.Bus.Subscribe(s.Ctx, "room", r.Handle)
	s.Require().NoError(err)
	sub.Unsubscribe()
	sub.Unsubscribe()
}

func (s *Suite) TestPublishWithoutSubscribers() {
	s.NoError(s.Bus.Publish(s.Ctx, messageUpdate("nobody-listening", 1, "hello")))
}
