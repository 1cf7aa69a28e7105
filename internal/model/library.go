package model

import (
	"time"
)

// Library entry statuses.
const (
	StatusPending   = "pending"
	StatusPlaying   = "playing"
	StatusCompleted = "completed"
	StatusDropped   = "dropped"
)

// Rating bounds for a library entry. Zero means unrated.
const (
	MinEntryRating = 0
	MaxEntryRating = 5
)

// ValidStatus reports whether s is a known library status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusPlaying, StatusCompleted, StatusDropped:
		return true
	}
	return false
}

// LibraryEntry is a user's tracking record for one catalog game.
type LibraryEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_library_user_game,priority:1" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	GameID    uint      `gorm:"not null;uniqueIndex:idx_library_user_game,priority:2;index" json:"game_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	ImageURL  string    `gorm:"type:varchar(512)" json:"image_url"`
	Platform  string    `gorm:"type:varchar(255)" json:"platform"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Rating    int       `gorm:"not null;default:0" json:"rating"`
	AddedAt   time.Time `gorm:"autoCreateTime" json:"added_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LibraryEntry) TableName() string {
	return "user_library"
}
