package room

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

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.storage, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

// CreateRoom tests

func (s *ControllerSuite) TestCreateRoomGeneratesID() {
	s.random.QueueString("abcd2345")

	room, hostKey, err := s.controller.CreateRoom(s.ctx, "", model.RoomModeOpen)
	s.Require().NoError(err)

	s.Equal(model.RoomID("abcd2345"), room.ID)
	s.Equal(model.RoomModeOpen, room.Mode)
	s.Empty(hostKey)
	s.Empty(room.HostKeyHash)
	s.Equal("/rooms/abcd2345", room.InvitePath())
}

func (s *ControllerSuite) TestCreateRoomRetriesOnCollision() {
	s.random.QueueString("taken111", "free2222")
	_, _, err := s.controller.CreateRoom(s.ctx, "taken111", model.RoomModeOpen)
	s.Require().NoError(err)

	room, _, err := s.controller.CreateRoom(s.ctx, "", model.RoomModeOpen)
	s.Require().NoError(err)
	s.Equal(model.RoomID("free2222"), room.ID)
}

func (s *ControllerSuite) TestCreateRoomDefaultsToOpen() {
	room, _, err := s.controller.CreateRoom(s.ctx, "my-room", "")
	s.Require().NoError(err)
	s.Equal(model.RoomModeOpen, room.Mode)
}

func (s *ControllerSuite) TestCreateRoomIsPersisted() {
	room, _, err := s.controller.CreateRoom(s.ctx, "my-room", model.RoomModeOpen)
	s.Require().NoError(err)

	stored, err := s.storage.GetRoom(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Equal(room.ID, stored.ID)
	s.Equal(s.clock.Now(), stored.CreatedAt)
}

func (s *ControllerSuite) TestCreateRoomRejectsDuplicateID() {
	_, _, err := s.controller.CreateRoom(s.ctx, "my-room", model.RoomModeOpen)
	s.Require().NoError(err)

	_, _, err = s.controller.CreateRoom(s.ctx, "my-room", model.RoomModeOpen)
	s.ErrorIs(err, model.ErrRoomExists)
}

func (s *ControllerSuite) TestCreateRoomRejectsInvalidInput() {
	_, _, err := s.controller.CreateRoom(s.ctx, "bad id!", model.RoomModeOpen)
	s.ErrorIs(err, model.ErrInvalidRoomID)

	_, _, err = s.controller.CreateRoom(s.ctx, "room", "dictator")
	s.ErrorIs(err, model.ErrInvalidRoomMode)
}

// Host authorization tests

func (s *ControllerSuite) TestHostRoomReturnsKeyAndStoresHash() {
	s.random.QueueString("secret-host-key")

	room, hostKey, err := s.controller.CreateRoom(s.ctx, "hosted", model.RoomModeHost)
	s.Require().NoError(err)

	s.Equal("secret-host-key", hostKey)
	s.NotEmpty(room.HostKeyHash)
	s.NotEqual(hostKey, room.HostKeyHash)
	s.True(room.HostOnly())
}

func (s *ControllerSuite) TestAuthorizeHost() {
	s.random.QueueString("secret-host-key")
	_, hostKey, err := s.controller.CreateRoom(s.ctx, "hosted", model.RoomModeHost)
	s.Require().NoError(err)

	s.NoError(s.controller.AuthorizeHost(s.ctx, "hosted", hostKey))
	s.ErrorIs(s.controller.AuthorizeHost(s.ctx, "hosted", "wrong"), model.ErrNotHost)
	s.ErrorIs(s.controller.AuthorizeHost(s.ctx, "hosted", ""), model.ErrNotHost)
}

func (s *ControllerSuite) TestAuthorizeHostOpenRoomAllowsAnyone() {
	_, _, err := s.controller.CreateRoom(s.ctx, "open", model.RoomModeOpen)
	s.Require().NoError(err)

	s.NoError(s.controller.AuthorizeHost(s.ctx, "open", ""))
}

func (s *ControllerSuite) TestAuthorizeHostRoomNotFound() {
	s.ErrorIs(s.controller.AuthorizeHost(s.ctx, "missing", "key"), model.ErrRoomNotFound)
}

// EnsureRoom tests

func (s *ControllerSuite) TestEnsureRoomCreatesOpenRoom() {
	room, err := s.controller.EnsureRoom(s.ctx, "invite-1")
	s.Require().NoError(err)
	s.Equal(model.RoomID("invite-1"), room.ID)
	s.Equal(model.RoomModeOpen, room.Mode)

	exists, err := s.storage.RoomExists(s.ctx, "invite-1")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *ControllerSuite) TestEnsureRoomReturnsExisting() {
	s.random.QueueString("secret-host-key")
	_, _, err := s.controller.CreateRoom(s.ctx, "hosted", model.RoomModeHost)
	s.Require().NoError(err)

	room, err := s.controller.EnsureRoom(s.ctx, "hosted")
	s.Require().NoError(err)
	s.Equal(model.RoomModeHost, room.Mode)
}

// Snapshot tests

func (s *ControllerSuite) TestSnapshotEmptyRoom() {
	_, _, err := s.controller.CreateRoom(s.ctx, "room", model.RoomModeOpen)
	s.Require().NoError(err)

	snap, err := s.controller.Snapshot(s.ctx, "room")
	s.Require().NoError(err)
	s.Equal(model.RoomID("room"), snap.Room.ID)
	s.Empty(snap.Players)
	s.Nil(snap.Partition)
	s.Empty(snap.Messages)
	s.Equal(uint64(0), snap.Seq)
}

func (s *ControllerSuite) TestSnapshotIncludesState() {
	_, _, err := s.controller.CreateRoom(s.ctx, "room", model.RoomModeOpen)
	s.Require().NoError(err)

	alice := model.Player{ID: "p1", RoomID: "room", Name: "Alice", Skill: 4}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &alice))
	s.Require().NoError(s.storage.AppendMessage(s.ctx, &model.ChatMessage{ID: "m1", RoomID: "room", Content: "hi"}))
	s.Require().NoError(s.storage.SavePartition(s.ctx, &model.Partition{RoomID: "room", TeamCount: 2, Teams: []model.Team{{Members: []model.Player{alice}}, {}}}))
	_, err = s.storage.NextSeq(s.ctx, "room")
	s.Require().NoError(err)

	snap, err := s.controller.Snapshot(s.ctx, "room")
	s.Require().NoError(err)
	s.Len(snap.Players, 1)
	s.Require().NotNil(snap.Partition)
	s.Equal(4, snap.Partition.Teams[0].TotalSkill())
	s.Len(snap.Messages, 1)
	s.Equal(uint64(1), snap.Seq)
}

func (s *ControllerSuite) TestSnapshotRoomNotFound() {
	_, err := s.controller.Snapshot(s.ctx, "missing")
	s.ErrorIs(err, model.ErrRoomNotFound)
}
