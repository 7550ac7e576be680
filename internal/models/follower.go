package models

import "time"

// Follower is a one-way follow from FollowerID to FollowingID.
// The unique index on the pair is what actually prevents duplicate follows.
type Follower struct {
	ID          uint `gorm:"primarykey"`
	FollowerID  uint `gorm:"not null;uniqueIndex:idx_follower_following;index"`
	FollowingID uint `gorm:"not null;uniqueIndex:idx_follower_following;index"`
	CreatedAt   time.Time

	Follower  User `gorm:"foreignKey:FollowerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Following User `gorm:"foreignKey:FollowingID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
