package db

import "time"

type Word struct {
	ID        uint      `gorm:"primaryKey"`
	Text      string    `gorm:"size:64;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
}
