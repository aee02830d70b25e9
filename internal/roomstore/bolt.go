package roomstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"doodleit/internal/game"

	bolt "go.etcd.io/bbolt"
)

var _ game.Store = (*Bolt)(nil)

var roomsBucket = []byte("rooms")

// Bolt keeps rooms as JSON documents in a single bbolt bucket keyed by name.
type Bolt struct {
	db *bolt.DB
}

func OpenBolt(path string) (*Bolt, error) {
	conn, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt file %s: %w", path, err)
	}
	if err := conn.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(roomsBucket)
		return err
	}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create rooms bucket: %w", err)
	}
	return &Bolt{db: conn}, nil
}

func (s *Bolt) Close() error {
	return s.db.Close()
}

func (s *Bolt) FindByName(ctx context.Context, name string) (*game.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var room *game.Room
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(roomsBucket).Get([]byte(name))
		if data == nil {
			return game.ErrRoomNotFound
		}
		decoded, err := decodeRoom(data)
		if err != nil {
			return err
		}
		room = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Bolt) FindByMemberConnection(ctx context.Context, handle string) (*game.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var found *game.Room
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(roomsBucket).ForEach(func(_, data []byte) error {
			if found != nil {
				return nil
			}
			room, err := decodeRoom(data)
			if err != nil {
				return err
			}
			for _, player := range room.Players {
				if player.ConnectionHandle == handle {
					found = room
					return nil
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("scan rooms: %w", err)
	}
	if found == nil {
		return nil, game.ErrRoomNotFound
	}
	return found, nil
}

func (s *Bolt) Create(ctx context.Context, room *game.Room) (*game.Room, error) {
	return s.put(ctx, room, true)
}

func (s *Bolt) Save(ctx context.Context, room *game.Room) (*game.Room, error) {
	return s.put(ctx, room, false)
}

func (s *Bolt) put(ctx context.Context, room *game.Room, create bool) (*game.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(room)
	if err != nil {
		return nil, fmt.Errorf("marshal room: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(roomsBucket)
		exists := bucket.Get([]byte(room.Name)) != nil
		if create && exists {
			return game.ErrRoomExists
		}
		if !create && !exists {
			return game.ErrRoomNotFound
		}
		return bucket.Put([]byte(room.Name), data)
	})
	if err != nil {
		return nil, err
	}
	return room.Clone(), nil
}

func (s *Bolt) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(roomsBucket).Delete([]byte(name))
	}); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

func (s *Bolt) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(roomsBucket).Stats().KeyN
		return nil
	})
	return count, err
}

func (s *Bolt) ListSummaries(ctx context.Context) ([]game.RoomSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list := make([]game.RoomSummary, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(roomsBucket).ForEach(func(_, data []byte) error {
			room, err := decodeRoom(data)
			if err != nil {
				return err
			}
			list = append(list, room.Summary())
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return list, nil
}

func decodeRoom(data []byte) (*game.Room, error) {
	var room game.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("json unmarshal room: %w", err)
	}
	room.Recompute()
	return &room, nil
}
