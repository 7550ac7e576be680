package aggregate

import (
	"context"
	"strings"

	"gamequest/backend/internal/database"
	"gamequest/backend/internal/models"

	"gorm.io/gorm"
)

const (
	MinDifficulty = 1
	MaxDifficulty = 10
)

// region --- Difficulty votes ---

// RecordDifficultyVote stores one user's difficulty vote and rewrites the
// achievement's difficultyRating and totalDifficultyVotes from all votes.
// A second vote by the same user is rejected with ErrDuplicateVote.
func (e *Engine) RecordDifficultyVote(ctx context.Context, userID, achievementID uint, difficulty int) (uint, error) {
	if difficulty < MinDifficulty || difficulty > MaxDifficulty {
		return 0, e.fail("record_difficulty_vote", invalid("Difficulty must be between 1 and 10"))
	}

	vote := models.DifficultyVote{
		UserID:        userID,
		AchievementID: achievementID,
		Difficulty:    difficulty,
	}
	err := e.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := lockAchievement(tx, achievementID); err != nil {
			return err
		}
		if err := tx.Create(&vote).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return newError(ErrDuplicateVote, "You already rated this achievement's difficulty")
			}
			return err
		}
		return recomputeDifficulty(tx, achievementID)
	})
	if err != nil {
		return 0, e.fail("record_difficulty_vote", err)
	}
	e.metrics.Recomputed("achievement_difficulty")
	return vote.ID, nil
}

// RemoveDifficultyVote withdraws the user's vote so they can vote again.
func (e *Engine) RemoveDifficultyVote(ctx context.Context, userID, achievementID uint) error {
	err := e.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := lockAchievement(tx, achievementID); err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND achievement_id = ?", userID, achievementID).Delete(&models.DifficultyVote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("Difficulty vote not found")
		}
		return recomputeDifficulty(tx, achievementID)
	})
	if err != nil {
		return e.fail("remove_difficulty_vote", err)
	}
	e.metrics.Recomputed("achievement_difficulty")
	return nil
}

func recomputeDifficulty(tx *gorm.DB, achievementID uint) error {
	var values []int
	if err := tx.Model(&models.DifficultyVote{}).
		Where("achievement_id = ?", achievementID).
		Pluck("difficulty", &values).Error; err != nil {
		return err
	}
	return tx.Model(&models.Achievement{}).
		Where("id = ?", achievementID).
		Updates(map[string]any{
			"difficulty_rating":      MeanRounded(values),
			"total_difficulty_votes": len(values),
		}).Error
}

// endregion

// region --- Unlocks ---

// UnlockAchievement records that the user earned the achievement and bumps
// totalUnlocks by exactly one. Repeats fail with ErrDuplicateUnlock.
func (e *Engine) UnlockAchievement(ctx context.Context, userID, achievementID uint) (uint, error) {
	unlock := models.UserAchievement{UserID: userID, AchievementID: achievementID}
	err := e.transaction(ctx, func(tx *gorm.DB) error {
		// A duplicate insert below rolls the increment back.
		res := tx.Model(&models.Achievement{}).
			Where("id = ?", achievementID).
			UpdateColumn("total_unlocks", gorm.Expr("total_unlocks + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("Achievement not found")
		}
		if err := tx.Create(&unlock).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return newError(ErrDuplicateUnlock, "Achievement already unlocked")
			}
			return err
		}
		return appendActivity(tx, userID, models.ActivityAchievement, achievementID)
	})
	if err != nil {
		return 0, e.fail("unlock_achievement", err)
	}
	e.metrics.Recomputed("achievement_unlocks")
	return unlock.ID, nil
}

// endregion

// region --- Catalog ---

// AchievementInput carries the catalog fields of a new achievement.
type AchievementInput struct {
	GameID        uint
	Title         string
	Description   string
	IconURL       string
	Points        int
	EstimatedTime *int
	IsMissable    bool
	IsBuggy       bool
	IsGrindy      bool
	IsEasy        bool
	TextGuide     string
}

// CreateAchievement adds an achievement to a game and bumps the game's totalAchievements.
func (e *Engine) CreateAchievement(ctx context.Context, in AchievementInput) (*models.Achievement, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, e.fail("create_achievement", invalid("Title is required"))
	}
	if in.Points < 0 {
		return nil, e.fail("create_achievement", invalid("Points cannot be negative"))
	}

	a := models.Achievement{
		GameID:        in.GameID,
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		IconURL:       in.IconURL,
		Points:        in.Points,
		EstimatedTime: in.EstimatedTime,
		IsMissable:    in.IsMissable,
		IsBuggy:       in.IsBuggy,
		IsGrindy:      in.IsGrindy,
		IsEasy:        in.IsEasy,
		TextGuide:     in.TextGuide,
	}
	err := e.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Game{}).
			Where("id = ?", in.GameID).
			UpdateColumn("total_achievements", gorm.Expr("total_achievements + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("Game not found")
		}
		return tx.Create(&a).Error
	})
	if err != nil {
		return nil, e.fail("create_achievement", err)
	}
	e.metrics.Recomputed("game_achievements")
	return &a, nil
}

// endregion
