package models

import (
	"time"

	"gorm.io/gorm"
)

// Achievement belongs to one game.
// DifficultyRating, TotalDifficultyVotes and TotalUnlocks are aggregates over
// DifficultyVote and UserAchievement rows.
type Achievement struct {
	gorm.Model
	GameID        uint   `gorm:"not null;index"`
	Title         string `gorm:"size:255;not null;index"`
	Description   string
	IconURL       string `gorm:"size:1024"`
	Points        int    `gorm:"not null;default:0"`
	EstimatedTime *int
	IsMissable    bool `gorm:"not null;default:false"`
	IsBuggy       bool `gorm:"not null;default:false"`
	IsGrindy      bool `gorm:"not null;default:false"`
	IsEasy        bool `gorm:"not null;default:false"`
	TextGuide     string

	DifficultyRating     int `gorm:"not null;default:0"`
	TotalDifficultyVotes int `gorm:"not null;default:0"`
	TotalUnlocks         int `gorm:"not null;default:0"`
}

// UserAchievement records that a user unlocked an achievement.
type UserAchievement struct {
	ID            uint      `gorm:"primarykey"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_user_achievement;index"`
	AchievementID uint      `gorm:"not null;uniqueIndex:idx_user_achievement;index"`
	UnlockedAt    time.Time `gorm:"autoCreateTime"`

	Achievement Achievement `gorm:"foreignKey:AchievementID"`
}

// DifficultyVote is one user's difficulty estimate (1-10) for an achievement.
type DifficultyVote struct {
	ID            uint `gorm:"primarykey"`
	UserID        uint `gorm:"not null;uniqueIndex:idx_user_achievement_difficulty"`
	AchievementID uint `gorm:"not null;uniqueIndex:idx_user_achievement_difficulty;index"`
	Difficulty    int  `gorm:"not null"`
	CreatedAt     time.Time
}

// AchievementImage is a user-submitted screenshot for an achievement.
type AchievementImage struct {
	ID            uint   `gorm:"primarykey"`
	AchievementID uint   `gorm:"not null;index"`
	UserID        uint   `gorm:"not null;index"`
	ImageURL      string `gorm:"size:1024;not null"`
	Caption       string
	Upvotes       int `gorm:"not null;default:0"`
	CreatedAt     time.Time

	User User `gorm:"foreignKey:UserID"`
}
