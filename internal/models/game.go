package models

import (
	"time"

	"gorm.io/gorm"
)

// Game represents a game in the catalogue.
// AverageRating, TotalRatings, TotalReviews and TotalAchievements are aggregates
// maintained by the aggregate engine; handlers never write them directly.
type Game struct {
	gorm.Model
	Title         string `gorm:"size:255;not null;index"`
	Description   string
	CoverImageURL string `gorm:"size:1024"`
	ReleaseDate   *time.Time
	Developer     string `gorm:"size:255"`
	Publisher     string `gorm:"size:255"`

	AverageRating     int `gorm:"not null;default:0"`
	TotalRatings      int `gorm:"not null;default:0"`
	TotalReviews      int `gorm:"not null;default:0"`
	TotalAchievements int `gorm:"not null;default:0"`

	Tags      []*Tag      `gorm:"many2many:game_tags;"`
	Platforms []*Platform `gorm:"many2many:game_platforms;"`
}

// Platform represents a gaming platform (e.g., "PC", "Switch").
type Platform struct {
	ID   uint   `gorm:"primarykey"`
	Name string `gorm:"size:100;unique;not null"`
	Icon string `gorm:"size:50"`
}
