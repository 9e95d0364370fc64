package models

import "time"

type Game struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Code      string    `json:"code" gorm:"index;not null"` // join code, not unique
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Players []Player `json:"players,omitempty" gorm:"foreignKey:GameID"`
}
