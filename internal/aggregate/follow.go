package aggregate

import (
	"context"

	"gamequest/backend/internal/database"
	"gamequest/backend/internal/models"

	"gorm.io/gorm"
)

// Follow makes followerID follow followingID.
func (e *Engine) Follow(ctx context.Context, followerID, followingID uint) (*models.Follower, error) {
	if followerID == followingID {
		return nil, e.fail("follow", invalid("You cannot follow yourself"))
	}

	rel := models.Follower{FollowerID: followerID, FollowingID: followingID}
	err := e.transaction(ctx, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("id = ?", followingID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFound("User not found")
		}
		if err := tx.Create(&rel).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return newError(ErrAlreadyExists, "You are already following this user")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, e.fail("follow", err)
	}
	return &rel, nil
}

// Unfollow removes the relation. It reports whether one existed.
func (e *Engine) Unfollow(ctx context.Context, followerID, followingID uint) (bool, error) {
	db, err := e.db(ctx)
	if err != nil {
		return false, e.fail("unfollow", err)
	}
	res := db.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follower{})
	if res.Error != nil {
		return false, e.fail("unfollow", res.Error)
	}
	return res.RowsAffected > 0, nil
}
