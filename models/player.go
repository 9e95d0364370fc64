package models

import "time"

type Player struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	GameID    string    `json:"game_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	Score     int       `json:"score" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
}
