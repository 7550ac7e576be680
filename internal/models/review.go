package models

import "time"

// Review is a user's rating and write-up of a game, at most one per (user, game).
// Upvotes and Downvotes are stored columns only; nothing derives them from Vote rows.
type Review struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_user_game_review;index"`
	GameID    uint   `gorm:"not null;uniqueIndex:idx_user_game_review;index"`
	Rating    int    `gorm:"not null"`
	Title     string `gorm:"size:255"`
	Content   string `gorm:"not null"`
	Upvotes   int    `gorm:"not null;default:0"`
	Downvotes int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}
