package models

import (
	"time"

	"gorm.io/gorm"
)

// CommentEntity is the kind of row a comment is attached to.
type CommentEntity string

const (
	CommentOnAchievement CommentEntity = "achievement"
	CommentOnGuide       CommentEntity = "guide"
	CommentOnReview      CommentEntity = "review"
)

// Valid reports whether e is a commentable entity type.
func (e CommentEntity) Valid() bool {
	switch e {
	case CommentOnAchievement, CommentOnGuide, CommentOnReview:
		return true
	}
	return false
}

// Comment references its target through (EntityType, EntityID).
type Comment struct {
	gorm.Model
	UserID     uint          `gorm:"not null;index"`
	EntityType CommentEntity `gorm:"size:20;not null;index:idx_comment_entity"`
	EntityID   uint          `gorm:"not null;index:idx_comment_entity"`
	Content    string        `gorm:"not null"`
	Upvotes    int           `gorm:"not null;default:0"`
	Downvotes  int           `gorm:"not null;default:0"`

	User User `gorm:"foreignKey:UserID"`
}

// VoteEntity is the kind of row a vote targets.
type VoteEntity string

const (
	VoteOnReview           VoteEntity = "review"
	VoteOnComment          VoteEntity = "comment"
	VoteOnGuide            VoteEntity = "guide"
	VoteOnAchievementImage VoteEntity = "achievement_image"
	VoteOnAchievementTip   VoteEntity = "achievement_tip"
)

// Valid reports whether e is a votable entity type.
func (e VoteEntity) Valid() bool {
	switch e {
	case VoteOnReview, VoteOnComment, VoteOnGuide, VoteOnAchievementImage, VoteOnAchievementTip:
		return true
	}
	return false
}

// VoteType is the direction of a vote.
type VoteType string

const (
	VoteUp      VoteType = "up"
	VoteDown    VoteType = "down"
	VoteHelpful VoteType = "helpful"
)

// Valid reports whether t is a known vote type.
func (t VoteType) Valid() bool {
	switch t {
	case VoteUp, VoteDown, VoteHelpful:
		return true
	}
	return false
}

// Vote is at most one per (user, entity type, entity id).
type Vote struct {
	ID         uint       `gorm:"primarykey"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_user_entity_vote"`
	EntityType VoteEntity `gorm:"size:32;not null;uniqueIndex:idx_user_entity_vote"`
	EntityID   uint       `gorm:"not null;uniqueIndex:idx_user_entity_vote"`
	VoteType   VoteType   `gorm:"size:16;not null"`
	CreatedAt  time.Time
}

// ActivityType is the kind of action recorded in the activity log.
type ActivityType string

const (
	ActivityReview        ActivityType = "review"
	ActivityAchievement   ActivityType = "achievement"
	ActivityGuide         ActivityType = "guide"
	ActivityGameAdded     ActivityType = "game_added"
	ActivityGameCompleted ActivityType = "game_completed"
)

// Activity is an append-only record feeding user and following feeds.
type Activity struct {
	ID           uint         `gorm:"primarykey"`
	UserID       uint         `gorm:"not null;index"`
	ActivityType ActivityType `gorm:"size:32;not null"`
	EntityID     uint
	Metadata     string
	CreatedAt    time.Time `gorm:"index"`

	User User `gorm:"foreignKey:UserID"`
}
