package model

import (
	"time"
)

// Game is the local copy of a catalog game, keyed by the external catalog id.
type Game struct {
	ID          uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null;index" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Genre       string    `gorm:"type:varchar(255)" json:"genre"`
	Platform    string    `gorm:"type:varchar(255)" json:"platform"`
	ImageURL    string    `gorm:"type:varchar(512)" json:"image_url"`
	Released    string    `gorm:"type:varchar(20)" json:"released"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Game) TableName() string {
	return "games"
}
