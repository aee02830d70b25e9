package db

import (
	"time"

	"gorm.io/datatypes"
)

type Room struct {
	ID           uint           `gorm:"primaryKey"`
	Name         string         `gorm:"size:64;uniqueIndex;not null"`
	Word         string         `gorm:"size:64;not null"`
	Occupancy    int            `gorm:"not null"`
	MaxRounds    int            `gorm:"not null"`
	CurrentRound int            `gorm:"not null;default:1"`
	TurnIndex    int            `gorm:"not null;default:0"`
	IsJoin       bool           `gorm:"not null;default:true"`
	Generation   uint64         `gorm:"not null;default:0"`
	TurnComplete bool           `gorm:"not null;default:false"`
	Started      bool           `gorm:"not null;default:false"`
	Finished     bool           `gorm:"not null;default:false"`
	Players      datatypes.JSON `gorm:"type:jsonb;not null"`
	Guessed      datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null;index"`
}
