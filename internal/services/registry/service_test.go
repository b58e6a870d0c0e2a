package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/teambalancer/internal/dependencies/mocks"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/storage/memory"
	"github.com/mcoot/teambalancer/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, mocks.NewSequentialIDs("p"), testutil.NopLogger())
	s.ctx = context.Background()

	s.Require().NoError(s.storage.SaveRoom(s.ctx, &model.Room{ID: "room", Mode: model.RoomModeOpen}))
}

// Join tests

func (s *ServiceSuite) TestJoinAssignsIDAndDefaultSkill() {
	p, err := s.service.Join(s.ctx, "room", "  Alice ")
	s.Require().NoError(err)

	s.Equal(model.PlayerID("p-1"), p.ID)
	s.Equal("Alice", p.Name)
	s.Equal(model.DefaultSkill, p.Skill)
	s.Equal(s.clock.Now(), p.JoinedAt)
	s.Equal(model.RoomID("room"), p.RoomID)

	players, err := s.service.List(s.ctx, "room")
	s.Require().NoError(err)
	s.Len(players, 1)
}

func (s *ServiceSuite) TestJoinRejectsEmptyName() {
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := s.service.Join(s.ctx, "room", name)
		s.ErrorIs(err, model.ErrInvalidName)
	}

	players, err := s.service.List(s.ctx, "room")
	s.Require().NoError(err)
	s.Empty(players)
}

func (s *ServiceSuite) TestJoinSameNameTwiceGivesDistinctPlayers() {
	a, err := s.service.Join(s.ctx, "room", "Alex")
	s.Require().NoError(err)
	b, err := s.service.Join(s.ctx, "room", "Alex")
	s.Require().NoError(err)

	s.NotEqual(a.ID, b.ID)
}

func (s *ServiceSuite) TestJoinUnknownRoom() {
	_, err := s.service.Join(s.ctx, "missing", "Alice")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ServiceSuite) TestListInJoinOrder() {
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		_, err := s.service.Join(s.ctx, "room", name)
		s.Require().NoError(err)
		s.clock.Advance(time.Second)
	}

	players, err := s.service.List(s.ctx, "room")
	s.Require().NoError(err)
	s.Require().Len(players, 3)
	s.Equal("Alice", players[0].Name)
	s.Equal("Bob", players[1].Name)
	s.Equal("Carol", players[2].Name)
}

// Rename tests

func (s *ServiceSuite) TestRename() {
	p, _ := s.service.Join(s.ctx, "room", "Alice")

	updated, err := s.service.Rename(s.ctx, "room", p.ID, " Alicia ")
	s.Require().NoError(err)
	s.Equal("Alicia", updated.Name)
	s.Equal(p.Skill, updated.Skill)

	stored, err := s.service.Get(s.ctx, "room", p.ID)
	s.Require().NoError(err)
	s.Equal("Alicia", stored.Name)
}

func (s *ServiceSuite) TestRenameRejectsEmptyName() {
	p, _ := s.service.Join(s.ctx, "room", "Alice")

	_, err := s.service.Rename(s.ctx, "room", p.ID, "  ")
	s.ErrorIs(err, model.ErrInvalidName)

	stored, _ := s.service.Get(s.ctx, "room", p.ID)
	s.Equal("Alice", stored.Name)
}

func (s *ServiceSuite) TestRenameUnknownPlayer() {
	_, err := s.service.Rename(s.ctx, "room", "nobody", "Zed")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// SetSkill tests

func (s *ServiceSuite) TestSetSkillClamps() {
	p, _ := s.service.Join(s.ctx, "room", "Alice")

	tests := []struct {
		input int
		want  int
	}{
		{3, 3},
		{9, 5},
		{0, 1},
		{-4, 1},
		{5, 5},
	}
	for _, tt := range tests {
		updated, err := s.service.SetSkill(s.ctx, "room", p.ID, tt.input)
		s.Require().NoError(err)
		s.Equal(tt.want, updated.Skill, "input %d", tt.input)
	}
}

func (s *ServiceSuite) TestSetSkillUnknownPlayer() {
	_, err := s.service.SetSkill(s.ctx, "room", "nobody", 3)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Remove tests

func (s *ServiceSuite) TestRemoveIsIdempotent() {
	p, _ := s.service.Join(s.ctx, "room", "Alice")

	removed, err := s.service.Remove(s.ctx, "room", p.ID)
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.service.Remove(s.ctx, "room", p.ID)
	s.Require().NoError(err)
	s.False(removed)

	players, _ := s.service.List(s.ctx, "room")
	s.Empty(players)
}

func (s *ServiceSuite) TestRemovedIDsAreNotReused() {
	p, _ := s.service.Join(s.ctx, "room", "Alice")
	_, _ = s.service.Remove(s.ctx, "room", p.ID)

	again, err := s.service.Join(s.ctx, "room", "Alice")
	s.Require().NoError(err)
	s.NotEqual(p.ID, again.ID)
}
