package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type sequenceWords struct {
	mu    sync.Mutex
	calls int
}

func (s *sequenceWords) Next(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return fmt.Sprintf("word-%d", s.calls), nil
}

func (s *sequenceWords) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type failingWords struct{}

func (failingWords) Next(_ context.Context) (string, error) {
	return "", errors.New("dictionary offline")
}

type failingStore struct {
	*MemoryStore
}

func (failingStore) Save(_ context.Context, _ *Room) (*Room, error) {
	return nil, errors.New("connection reset")
}

func newTestEngine(t *testing.T) (*Engine, *MemoryStore, *sequenceWords) {
	t.Helper()
	store := NewMemoryStore()
	words := &sequenceWords{}
	return NewEngine(store, words), store, words
}

// startGame creates room name with one player per handle; the first handle leads.
func startGame(t *testing.T, engine *Engine, name string, occupancy, maxRounds int, handles ...string) *Room {
	t.Helper()
	ctx := context.Background()
	room, err := engine.CreateRoom(ctx, CreateRequest{
		ConnectionHandle: handles[0],
		Nickname:         "nick-" + handles[0],
		Name:             name,
		Occupancy:        occupancy,
		MaxRounds:        maxRounds,
	})
	require.NoError(t, err)
	for _, handle := range handles[1:] {
		room, err = engine.JoinRoom(ctx, JoinRequest{ConnectionHandle: handle, Nickname: "nick-" + handle, Name: name})
		require.NoError(t, err)
	}
	return room
}

func requireInvariants(t *testing.T, room *Room) {
	t.Helper()
	if len(room.Players) > 0 {
		require.GreaterOrEqual(t, room.TurnIndex, 0)
		require.Less(t, room.TurnIndex, len(room.Players))
		require.NotNil(t, room.Turn)
		require.Equal(t, room.Players[room.TurnIndex], *room.Turn)
	}
	require.Equal(t, len(room.Players) < room.Occupancy, room.IsJoin)
}
