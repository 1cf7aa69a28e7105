package model

import (
	"time"
)

// Review rating bounds.
const (
	MinReviewRating = 1
	MaxReviewRating = 5
)

// Review is a user's opinion of a game in their library.
type Review struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	UserID         uint          `gorm:"not null;uniqueIndex:idx_review_user_entry,priority:1" json:"user_id"`
	User           *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	LibraryEntryID uint          `gorm:"not null;uniqueIndex:idx_review_user_entry,priority:2;index" json:"library_entry_id"`
	LibraryEntry   *LibraryEntry `gorm:"foreignKey:LibraryEntryID;constraint:OnDelete:CASCADE;" json:"-"`
	Rating         int           `gorm:"not null" json:"rating"`
	Comment        string        `gorm:"type:text" json:"comment"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}

// ReviewDetail is a review joined with its author name and the reviewed game.
type ReviewDetail struct {
	ID             uint      `json:"id"`
	UserID         uint      `json:"user_id"`
	LibraryEntryID uint      `json:"library_entry_id"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	UserName       string    `json:"user_name"`
	GameID         uint      `json:"game_id"`
	GameTitle      string    `json:"game_title"`
	ImageURL       string    `json:"image_url"`
}
