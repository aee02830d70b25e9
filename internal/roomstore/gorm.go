package roomstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"doodleit/internal/db"
	"doodleit/internal/game"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var _ game.Store = (*Gorm)(nil)

// Gorm keeps one row per room in Postgres with the players embedded as JSONB.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(conn *gorm.DB) *Gorm {
	return &Gorm{db: conn}
}

func (s *Gorm) FindByName(ctx context.Context, name string) (*game.Room, error) {
	var record db.Room
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, game.ErrRoomNotFound
		}
		return nil, fmt.Errorf("select room: %w", err)
	}
	return fromRecord(record)
}

func (s *Gorm) FindByMemberConnection(ctx context.Context, handle string) (*game.Room, error) {
	filter, err := json.Marshal([]map[string]string{{"socketID": handle}})
	if err != nil {
		return nil, err
	}
	var record db.Room
	if err := s.db.WithContext(ctx).Where("players @> ?::jsonb", string(filter)).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, game.ErrRoomNotFound
		}
		return nil, fmt.Errorf("select room by member: %w", err)
	}
	return fromRecord(record)
}

func (s *Gorm) Create(ctx context.Context, room *game.Room) (*game.Room, error) {
	record, err := toRecord(room)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, game.ErrRoomExists
		}
		return nil, fmt.Errorf("insert room: %w", err)
	}
	return fromRecord(record)
}

func (s *Gorm) Save(ctx context.Context, room *game.Room) (*game.Room, error) {
	record, err := toRecord(room)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{
		"word":          record.Word,
		"occupancy":     record.Occupancy,
		"max_rounds":    record.MaxRounds,
		"current_round": record.CurrentRound,
		"turn_index":    record.TurnIndex,
		"is_join":       record.IsJoin,
		"generation":    record.Generation,
		"turn_complete": record.TurnComplete,
		"started":       record.Started,
		"finished":      record.Finished,
		"players":       record.Players,
		"guessed":       record.Guessed,
		"updated_at":    record.UpdatedAt,
	}
	result := s.db.WithContext(ctx).Model(&db.Room{}).Where("name = ?", room.Name).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("update room: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, game.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *Gorm) Delete(ctx context.Context, name string) error {
	if err := s.db.WithContext(ctx).Where("name = ?", name).Delete(&db.Room{}).Error; err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

func (s *Gorm) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.Room{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count rooms: %w", err)
	}
	return int(count), nil
}

func (s *Gorm) ListSummaries(ctx context.Context) ([]game.RoomSummary, error) {
	var records []db.Room
	err := s.db.WithContext(ctx).
		Select("name", "players", "current_round", "max_rounds", "finished", "updated_at").
		Order("name").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	list := make([]game.RoomSummary, 0, len(records))
	for _, record := range records {
		var players []game.Player
		if err := json.Unmarshal(record.Players, &players); err != nil {
			return nil, fmt.Errorf("decode players of %s: %w", record.Name, err)
		}
		room := game.Room{
			Name:         record.Name,
			Players:      players,
			CurrentRound: record.CurrentRound,
			MaxRounds:    record.MaxRounds,
			Finished:     record.Finished,
			UpdatedAt:    record.UpdatedAt,
		}
		list = append(list, room.Summary())
	}
	return list, nil
}

func toRecord(room *game.Room) (db.Room, error) {
	players, err := json.Marshal(nonNil(room.Players))
	if err != nil {
		return db.Room{}, fmt.Errorf("encode players: %w", err)
	}
	guessed, err := json.Marshal(nonNilStrings(room.Guessed))
	if err != nil {
		return db.Room{}, fmt.Errorf("encode guessed: %w", err)
	}
	return db.Room{
		Name:         room.Name,
		Word:         room.Word,
		Occupancy:    room.Occupancy,
		MaxRounds:    room.MaxRounds,
		CurrentRound: room.CurrentRound,
		TurnIndex:    room.TurnIndex,
		IsJoin:       room.IsJoin,
		Generation:   room.Generation,
		TurnComplete: room.TurnComplete,
		Started:      room.Started,
		Finished:     room.Finished,
		Players:      datatypes.JSON(players),
		Guessed:      datatypes.JSON(guessed),
		CreatedAt:    room.CreatedAt,
		UpdatedAt:    room.UpdatedAt,
	}, nil
}

func fromRecord(record db.Room) (*game.Room, error) {
	room := &game.Room{
		Name:         record.Name,
		Word:         record.Word,
		Occupancy:    record.Occupancy,
		MaxRounds:    record.MaxRounds,
		CurrentRound: record.CurrentRound,
		TurnIndex:    record.TurnIndex,
		IsJoin:       record.IsJoin,
		Generation:   record.Generation,
		TurnComplete: record.TurnComplete,
		Started:      record.Started,
		Finished:     record.Finished,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
	if err := json.Unmarshal(record.Players, &room.Players); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}
	if len(record.Guessed) > 0 {
		if err := json.Unmarshal(record.Guessed, &room.Guessed); err != nil {
			return nil, fmt.Errorf("decode guessed: %w", err)
		}
	}
	room.Recompute()
	return room, nil
}

func nonNil(players []game.Player) []game.Player {
	if players == nil {
		return []game.Player{}
	}
	return players
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
