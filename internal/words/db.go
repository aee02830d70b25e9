package words

import (
	"context"
	"errors"
	"fmt"

	"doodleit/internal/db"
	"doodleit/internal/game"

	"gorm.io/gorm"
)

// DB draws words from the words table and falls back to another source while
// the table is empty.
type DB struct {
	conn     *gorm.DB
	fallback game.WordSource
}

func NewDB(conn *gorm.DB, fallback game.WordSource) *DB {
	return &DB{conn: conn, fallback: fallback}
}

func (d *DB) Next(ctx context.Context) (string, error) {
	var word db.Word
	err := d.conn.WithContext(ctx).Order("RANDOM()").Limit(1).Take(&word).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if d.fallback == nil {
			return "", ErrNoWords
		}
		return d.fallback.Next(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("select random word: %w", err)
	}
	return word.Text, nil
}
