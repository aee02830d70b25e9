package game

import (
	"context"
	"sort"
	"sync"
)

// Store persists rooms. Implementations hand out copies: a caller's changes
// become visible only through Create or Save.
type Store interface {
	FindByName(ctx context.Context, name string) (*Room, error)
	FindByMemberConnection(ctx context.Context, handle string) (*Room, error)
	Create(ctx context.Context, room *Room) (*Room, error)
	Save(ctx context.Context, room *Room) (*Room, error)
	Delete(ctx context.Context, name string) error
	Count(ctx context.Context) (int, error)
	ListSummaries(ctx context.Context) ([]RoomSummary, error)
}

type MemoryStore struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]*Room),
	}
}

func (s *MemoryStore) FindByName(_ context.Context, name string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[name]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *MemoryStore) FindByMemberConnection(_ context.Context, handle string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, room := range s.rooms {
		for _, player := range room.Players {
			if player.ConnectionHandle == handle {
				return room.Clone(), nil
			}
		}
	}
	return nil, ErrRoomNotFound
}

func (s *MemoryStore) Create(_ context.Context, room *Room) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.Name]; ok {
		return nil, ErrRoomExists
	}
	s.rooms[room.Name] = room.Clone()
	return room.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, room *Room) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.Name]; !ok {
		return nil, ErrRoomNotFound
	}
	s.rooms[room.Name] = room.Clone()
	return room.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, name)
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms), nil
}

func (s *MemoryStore) ListSummaries(_ context.Context) ([]RoomSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]RoomSummary, 0, len(s.rooms))
	for _, room := range s.rooms {
		list = append(list, room.Summary())
	}
	SortSummaries(list)
	return list, nil
}

func SortSummaries(list []RoomSummary) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
}
