// Package storagetest holds behaviour tests shared by every storage backend.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/storage"
)

// Suite runs the common storage behaviour against a backend.
// Embed it in a backend test suite and set NewStorage before SetupTest runs.
type Suite struct {
	suite.Suite

	// NewStorage returns a fresh, empty storage for each test
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
	Now     time.Time
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
	s.Now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) TearDownTest() {
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}

// CreateRoom saves an open room with the given id
func (s *Suite) CreateRoom(id model.RoomID) {
	err := s.Storage.SaveRoom(s.Ctx, &model.Room{
		ID:        id,
		Mode:      model.RoomModeOpen,
		CreatedAt: s.Now,
		UpdatedAt: s.Now,
	})
	s.Require().NoError(err)
}

// Player builds a player joined at Now plus offset
func (s *Suite) Player(room model.RoomID, id model.PlayerID, name string, skill int, offset time.Duration) *model.Player {
	return &model.Player{
		ID:       id,
		RoomID:   room,
		Name:     name,
		Skill:    skill,
		JoinedAt: s.Now.Add(offset),
	}
}

// Room tests

func (s *Suite) TestSaveAndGetRoom() {
	room := &model.Room{
		ID:          "room-1",
		Mode:        model.RoomModeHost,
		HostKeyHash: "hash",
		CreatedAt:   s.Now,
		UpdatedAt:   s.Now,
	}
	s.Require().NoError(s.Storage.SaveRoom(s.Ctx, room))

	got, err := s.Storage.GetRoom(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(room.ID, got.ID)
	s.Equal(model.RoomModeHost, got.Mode)
	s.Equal("hash", got.HostKeyHash)
	s.True(room.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetRoomNotFound() {
	_, err := s.Storage.GetRoom(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestRoomExists() {
	exists, err := s.Storage.RoomExists(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.False(exists)

	s.CreateRoom("room-1")

	exists, err = s.Storage.RoomExists(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *Suite) TestSaveRoomTwiceKeepsState() {
	s.CreateRoom("room-1")
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, s.Player("room-1", "p1", "Alice", 3, 0)))
	_, err := s.Storage.NextSeq(s.Ctx, "room-1")
	s.Require().NoError(err)

	s.CreateRoom("room-1")

	players, err := s.Storage.ListPlayers(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Len(players, 1)
	seq, err := s.Storage.CurrentSeq(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(uint64(1), seq)
}

func (s *Suite) TestNextSeqIncrements() {
	s.CreateRoom("room-1")
	s.CreateRoom("room-2")

	seq, err := s.Storage.CurrentSeq(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(uint64(0), seq)

	for want := uint64(1); want <= 3; want++ {
		got, err := s.Storage.NextSeq(s.Ctx, "room-1")
		s.Require().NoError(err)
		s.Equal(want, got)
	}

	got, err := s.Storage.NextSeq(s.Ctx, "room-2")
	s.Require().NoError(err)
	s.Equal(uint64(1), got, "sequence numbers are per room")

	seq, err = s.Storage.CurrentSeq(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(uint64(3), seq)
}

func (s *Suite) TestNextSeqRoomNotFound() {
	_, err := s.Storage.NextSeq(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// Player tests

func (s *Suite) TestSaveAndGetPlayer() {
	s.CreateRoom("room-1")
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, s.Player("room-1", "p1", "Alice", 4, 0)))

	got, err := s.Storage.GetPlayer(s.Ctx, "room-1", "p1")
	s.Require().NoError(err)
	s.Equal("Alice", got.Name)
	s.Equal(4, got.Skill)
	s.Equal(model.RoomID("room-1"), got.RoomID)
}

func (s *Suite) TestGetPlayerNotFound() {
	s.CreateRoom("room-1")
	_, err := s.Storage.GetPlayer(s.Ctx, "room-1", "nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestPlayersAreScopedToRoom() {
	s.CreateRoom("room-1")
	s.CreateRoom("room-2")
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, s.Player("room-1", "p1", "Alice", 4, 0)))

	_, err := s.Storage.GetPlayer(s.Ctx, "room-2", "p1")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	players, err := s.Storage.ListPlayers(s.Ctx, "room-2")
	s.Require().NoError(err)
	s.Empty(players)
}

func (s *Suite) TestSavePlayerToMissingRoom() {
	err := s.Storage.SavePlayer(s.Ctx, s.Player("missing", "p1", "Alice", 4, 0))
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestListPlayersJoinOrder() {
	s.CreateRoom("room-1")
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, s.Player("room-1", "p1", "Alice", 4, 0)))
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, s.Player("room-1", "p2", "Bob", 2, time.Second)))
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, s.Player("room-1", "p3", "Carol", 5, 2*time.Second)))

	// Overwriting keeps position
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, s.Player("room-1", "p1", "Alicia", 1, 0)))

	players, err := s.Storage.ListPlayers(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Require().Len(players, 3)
	s.Equal(model.PlayerID("p1"), players[0].ID)
	s.Equal("Alicia", players[0].Name)
	s.Equal(1, players[0].Skill)
	s.Equal(model.PlayerID("p2"), players[1].ID)
	s.Equal(model.PlayerID("p3"), players[2].ID)
}

func (s *Suite) TestDeletePlayer() {
	s.CreateRoom("room-1")
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, s.Player("room-1", "p1", "Alice", 4, 0)))
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, s.Player("room-1", "p2", "Bob", 2, time.Second)))

	s.Require().NoError(s.Storage.DeletePlayer(s.Ctx, "room-1", "p1"))

	_, err := s.Storage.GetPlayer(s.Ctx, "room-1", "p1")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	players, err := s.Storage.ListPlayers(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal(model.PlayerID("p2"), players[0].ID)
}

func (s *Suite) TestDeletePlayerIsIdempotent() {
	s.CreateRoom("room-1")
	s.NoError(s.Storage.DeletePlayer(s.Ctx, "room-1", "nobody"))
	s.NoError(s.Storage.DeletePlayer(s.Ctx, "room-1", "nobody"))
}

// Partition tests

func (s *Suite) TestGetPartitionNotFound() {
	s.CreateRoom("room-1")
	_, err := s.Storage.GetPartition(s.Ctx, "room-1")
	s.ErrorIs(err, model.ErrPartitionNotFound)
}

func (s *Suite) TestSavePartitionReplaces() {
	s.CreateRoom("room-1")
	alice := *s.Player("room-1", "p1", "Alice", 5, 0)
	bob := *s.Player("room-1", "p2", "Bob", 3, time.Second)
	carol := *s.Player("room-1", "p3", "Carol", 1, 2*time.Second)

	first := &model.Partition{
		RoomID:    "room-1",
		TeamCount: 2,
		Teams: []model.Team{
			{Members: []model.Player{alice}},
			{Members: []model.Player{bob}},
		},
		CreatedAt: s.Now,
	}
	s.Require().NoError(s.Storage.SavePartition(s.Ctx, first))

	second := &model.Partition{
		RoomID:    "room-1",
		TeamCount: 2,
		Teams: []model.Team{
			{Members: []model.Player{alice, carol}},
			{Members: []model.Player{bob}},
		},
		CreatedAt: s.Now.Add(time.Minute),
	}
	s.Require().NoError(s.Storage.SavePartition(s.Ctx, second))

	got, err := s.Storage.GetPartition(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(2, got.TeamCount)
	s.Require().Len(got.Teams, 2)
	s.Require().Len(got.Teams[0].Members, 2)
	s.Equal(model.PlayerID("p1"), got.Teams[0].Members[0].ID)
	s.Equal(model.PlayerID("p3"), got.Teams[0].Members[1].ID)
	s.Equal(1, got.Teams[0].Members[1].Skill)
	s.Equal(6, got.Teams[0].TotalSkill())
	s.True(second.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestPartitionKeepsSnapshotAfterPlayerRemoved() {
	s.CreateRoom("room-1")
	alice := s.Player("room-1", "p1", "Alice", 5, 0)
	bob := s.Player("room-1", "p2", "Bob", 3, time.Second)
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, alice))
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, bob))
	s.Require().NoError(s.Storage.SavePartition(s.Ctx, &model.Partition{
		RoomID:    "room-1",
		TeamCount: 2,
		Teams: []model.Team{
			{Members: []model.Player{*alice}},
			{Members: []model.Player{*bob}},
		},
		CreatedAt: s.Now,
	}))

	s.Require().NoError(s.Storage.DeletePlayer(s.Ctx, "room-1", "p1"))

	got, err := s.Storage.GetPartition(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(2, got.PlayerCount())
}

// Chat tests

func (s *Suite) TestMessagesInArrivalOrder() {
	s.CreateRoom("room-1")
	contents := []string{"hello", "hi", "teams?"}
	for i, c := range contents {
		s.Require().NoError(s.Storage.AppendMessage(s.Ctx, &model.ChatMessage{
			ID:         model.MessageID("m" + string(rune('1'+i))),
			RoomID:     "room-1",
			AuthorName: "Alice",
			Content:    c,
			CreatedAt:  s.Now.Add(time.Duration(i) * time.Microsecond),
		}))
	}

	msgs, err := s.Storage.ListMessages(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Require().Len(msgs, 3)
	for i, c := range contents {
		s.Equal(c, msgs[i].Content)
		s.Equal("Alice", msgs[i].AuthorName)
	}
	s.True(msgs[2].CreatedAt.Equal(s.Now.Add(2 * time.Microsecond)))
}

func (s *Suite) TestLastMessage() {
	s.CreateRoom("room-1")

	last, err := s.Storage.LastMessage(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Nil(last)

	for i, c := range []string{"first", "second"} {
		s.Require().NoError(s.Storage.AppendMessage(s.Ctx, &model.ChatMessage{
			ID:         model.MessageID("m" + string(rune('1'+i))),
			RoomID:     "room-1",
			AuthorName: "Alice",
			Content:    c,
			CreatedAt:  s.Now.Add(time.Duration(i) * time.Microsecond),
		}))
	}

	last, err = s.Storage.LastMessage(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Require().NotNil(last)
	s.Equal("second", last.Content)
	s.True(last.CreatedAt.Equal(s.Now.Add(time.Microsecond)))
}

func (s *Suite) TestListMessagesEmpty() {
	s.CreateRoom("room-1")
	msgs, err := s.Storage.ListMessages(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Empty(msgs)
}
