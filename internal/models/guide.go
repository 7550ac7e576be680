package models

import "time"

// Guide is a user-authored walkthrough for a game, optionally with an annotated map.
type Guide struct {
	ID          uint   `gorm:"primarykey"`
	GameID      uint   `gorm:"not null;index;uniqueIndex:idx_user_game_guide_version"`
	UserID      uint   `gorm:"not null;index;uniqueIndex:idx_user_game_guide_version"`
	Version     int    `gorm:"not null;default:1;uniqueIndex:idx_user_game_guide_version"`
	Title       string `gorm:"size:255;not null"`
	Description string
	MapImageURL string `gorm:"size:1024"`
	IsLatest    bool   `gorm:"not null;default:true;index"`
	Upvotes     int    `gorm:"not null;default:0"`
	Views       int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	User    User        `gorm:"foreignKey:UserID"`
	Markers []MapMarker `gorm:"foreignKey:GuideID"`
}

// MapMarker is a pin on a guide's map.
type MapMarker struct {
	ID            uint   `gorm:"primarykey"`
	GuideID       uint   `gorm:"not null;index"`
	AchievementID *uint  `gorm:"index"`
	Title         string `gorm:"size:255;not null"`
	Description   string
	ImageURL      string `gorm:"size:1024"`
	QuickTip      string
	PositionX     int `gorm:"not null"`
	PositionY     int `gorm:"not null"`
	CreatedAt     time.Time
}
