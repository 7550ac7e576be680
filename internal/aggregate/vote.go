package aggregate

import (
	"context"

	"gamequest/backend/internal/database"
	"gamequest/backend/internal/models"

	"gorm.io/gorm"
)

// ToggleVote replaces whatever vote the user holds on the entity with voteType.
// The user ends up with exactly one vote row on that entity.
func (e *Engine) ToggleVote(ctx context.Context, userID uint, entityType models.VoteEntity, entityID uint, voteType models.VoteType) (*models.Vote, error) {
	if !entityType.Valid() {
		return nil, e.fail("toggle_vote", invalid("Invalid entity type"))
	}
	if !voteType.Valid() {
		return nil, e.fail("toggle_vote", invalid("Invalid vote type"))
	}

	vote := models.Vote{
		UserID:     userID,
		EntityType: entityType,
		EntityID:   entityID,
		VoteType:   voteType,
	}
	err := e.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND entity_type = ? AND entity_id = ?", userID, entityType, entityID).
			Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&vote).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return newError(ErrDuplicateVote, "Vote already recorded")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, e.fail("toggle_vote", err)
	}
	return &vote, nil
}

// RemoveVote deletes the user's vote on the entity, if any.
func (e *Engine) RemoveVote(ctx context.Context, userID uint, entityType models.VoteEntity, entityID uint) error {
	if !entityType.Valid() {
		return e.fail("remove_vote", invalid("Invalid entity type"))
	}
	db, err := e.db(ctx)
	if err != nil {
		return e.fail("remove_vote", err)
	}
	if err := db.Where("user_id = ? AND entity_type = ? AND entity_id = ?", userID, entityType, entityID).
		Delete(&models.Vote{}).Error; err != nil {
		return e.fail("remove_vote", err)
	}
	return nil
}
