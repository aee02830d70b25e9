package roomstore

import (
	"context"
	"fmt"

	"doodleit/internal/game"

	lru "github.com/hashicorp/golang-lru"
)

var _ game.Store = (*Cached)(nil)

// Cached serves FindByName from an ARC cache and writes through to the
// wrapped store. It assumes it is the only writer of that store.
type Cached struct {
	next  game.Store
	cache *lru.ARCCache
}

func NewCached(next game.Store, size int) (*Cached, error) {
	cache, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("lru new instance of lru arc cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

func (s *Cached) FindByName(ctx context.Context, name string) (*game.Room, error) {
	if value, ok := s.cache.Get(name); ok {
		return value.(*game.Room).Clone(), nil
	}
	room, err := s.next.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cache.Add(name, room.Clone())
	return room, nil
}

func (s *Cached) FindByMemberConnection(ctx context.Context, handle string) (*game.Room, error) {
	return s.next.FindByMemberConnection(ctx, handle)
}

func (s *Cached) Create(ctx context.Context, room *game.Room) (*game.Room, error) {
	created, err := s.next.Create(ctx, room)
	if err != nil {
		return nil, err
	}
	s.cache.Add(created.Name, created.Clone())
	return created, nil
}

func (s *Cached) Save(ctx context.Context, room *game.Room) (*game.Room, error) {
	saved, err := s.next.Save(ctx, room)
	if err != nil {
		s.cache.Remove(room.Name)
		return nil, err
	}
	s.cache.Add(saved.Name, saved.Clone())
	return saved, nil
}

func (s *Cached) Delete(ctx context.Context, name string) error {
	s.cache.Remove(name)
	return s.next.Delete(ctx, name)
}

func (s *Cached) Count(ctx context.Context) (int, error) {
	return s.next.Count(ctx)
}

func (s *Cached) ListSummaries(ctx context.Context) ([]game.RoomSummary, error) {
	return s.next.ListSummaries(ctx)
}

func (s *Cached) Len() int {
	return s.cache.Len()
}
