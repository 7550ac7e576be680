package aggregate

import (
	"context"
	"strings"

	"gamequest/backend/internal/database"
	"gamequest/backend/internal/models"

	"gorm.io/gorm"
)

const msgGuideExists = "You already have a guide for this game"

// GuideInput is a new interactive map guide.
type GuideInput struct {
	GameID      uint
	Title       string
	Description string
	MapImageURL string
}

// CreateGuide publishes version 1 of the user's guide for a game.
// A user holds at most one latest guide per game.
func (e *Engine) CreateGuide(ctx context.Context, userID uint, in GuideInput) (*models.Guide, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, e.fail("create_guide", invalid("Title is required"))
	}

	db, err := e.db(ctx)
	if err != nil {
		return nil, e.fail("create_guide", err)
	}
	var count int64
	if err := db.Model(&models.Guide{}).
		Where("user_id = ? AND game_id = ? AND is_latest = ?", userID, in.GameID, true).
		Count(&count).Error; err != nil {
		return nil, e.fail("create_guide", err)
	}
	if count > 0 {
		return nil, e.fail("create_guide", newError(ErrAlreadyExists, msgGuideExists))
	}

	guide := models.Guide{
		GameID:      in.GameID,
		UserID:      userID,
		Version:     1,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		MapImageURL: in.MapImageURL,
		IsLatest:    true,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := gameExists(tx, in.GameID); err != nil {
			return err
		}
		if err := tx.Create(&guide).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return newError(ErrAlreadyExists, msgGuideExists)
			}
			return err
		}
		return appendActivity(tx, userID, models.ActivityGuide, guide.ID)
	})
	if err != nil {
		return nil, e.fail("create_guide", err)
	}
	return &guide, nil
}

// RecordGuideView bumps the guide's view counter.
func (e *Engine) RecordGuideView(ctx context.Context, guideID uint) error {
	db, err := e.db(ctx)
	if err != nil {
		return e.fail("record_guide_view", err)
	}
	res := db.Model(&models.Guide{}).
		Where("id = ?", guideID).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return e.fail("record_guide_view", res.Error)
	}
	if res.RowsAffected == 0 {
		return e.fail("record_guide_view", notFound("Guide not found"))
	}
	return nil
}
