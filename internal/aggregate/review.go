package aggregate

import (
	"context"
	"strings"

	"gamequest/backend/internal/database"
	"gamequest/backend/internal/models"

	"gorm.io/gorm"
)

const msgAlreadyReviewed = "You already reviewed this game"

// ReviewInput is a new review.
type ReviewInput struct {
	GameID  uint
	Rating  int
	Title   string
	Content string
}

// ReviewPatch holds the optional fields of a review edit.
type ReviewPatch struct {
	Rating  *int
	Title   *string
	Content *string
}

func validRating(r int) bool {
	return r >= 1 && r <= 10
}

// AddReview stores the user's single review for a game and rewrites the game's
// averageRating, totalRatings and totalReviews.
func (e *Engine) AddReview(ctx context.Context, userID uint, in ReviewInput) (*models.Review, error) {
	if !validRating(in.Rating) {
		return nil, e.fail("add_review", invalid("Rating must be between 1 and 10"))
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, e.fail("add_review", invalid("Content is required"))
	}

	db, err := e.db(ctx)
	if err != nil {
		return nil, e.fail("add_review", err)
	}
	var count int64
	if err := db.Model(&models.Review{}).
		Where("user_id = ? AND game_id = ?", userID, in.GameID).
		Count(&count).Error; err != nil {
		return nil, e.fail("add_review", err)
	}
	if count > 0 {
		return nil, e.fail("add_review", newError(ErrAlreadyExists, msgAlreadyReviewed))
	}

	review := models.Review{
		UserID:  userID,
		GameID:  in.GameID,
		Rating:  in.Rating,
		Title:   in.Title,
		Content: in.Content,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockGame(tx, in.GameID); err != nil {
			return err
		}
		if err := tx.Create(&review).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return newError(ErrAlreadyExists, msgAlreadyReviewed)
			}
			return err
		}
		if err := recomputeGameRatings(tx, in.GameID); err != nil {
			return err
		}
		return appendActivity(tx, userID, models.ActivityReview, review.ID)
	})
	if err != nil {
		return nil, e.fail("add_review", err)
	}
	e.metrics.Recomputed("game_ratings")
	return &review, nil
}

// UpdateReview edits the user's own review and rewrites the game's rating aggregates.
func (e *Engine) UpdateReview(ctx context.Context, userID, reviewID uint, patch ReviewPatch) (*models.Review, error) {
	if patch.Rating != nil && !validRating(*patch.Rating) {
		return nil, e.fail("update_review", invalid("Rating must be between 1 and 10"))
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return nil, e.fail("update_review", invalid("Content is required"))
	}

	var review models.Review
	err := e.transaction(ctx, func(tx *gorm.DB) error {
		if err := ownedReview(tx, userID, reviewID, &review); err != nil {
			return err
		}
		if _, err := lockGame(tx, review.GameID); err != nil {
			return err
		}

		updates := map[string]any{}
		if patch.Rating != nil {
			updates["rating"] = *patch.Rating
		}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.Content != nil {
			updates["content"] = *patch.Content
		}
		if len(updates) > 0 {
			if err := tx.Model(&review).Updates(updates).Error; err != nil {
				return err
			}
		}
		if err := recomputeGameRatings(tx, review.GameID); err != nil {
			return err
		}
		return tx.First(&review, reviewID).Error
	})
	if err != nil {
		return nil, e.fail("update_review", err)
	}
	e.metrics.Recomputed("game_ratings")
	return &review, nil
}

// DeleteReview removes the user's own review and rewrites the game's rating aggregates.
func (e *Engine) DeleteReview(ctx context.Context, userID, reviewID uint) error {
	err := e.transaction(ctx, func(tx *gorm.DB) error {
		var review models.Review
		if err := ownedReview(tx, userID, reviewID, &review); err != nil {
			return err
		}
		if _, err := lockGame(tx, review.GameID); err != nil {
			return err
		}
		if err := tx.Delete(&review).Error; err != nil {
			return err
		}
		return recomputeGameRatings(tx, review.GameID)
	})
	if err != nil {
		return e.fail("delete_review", err)
	}
	e.metrics.Recomputed("game_ratings")
	return nil
}

func ownedReview(tx *gorm.DB, userID, reviewID uint, review *models.Review) error {
	err := tx.First(review, reviewID).Error
	if database.IsNotFound(err) {
		return notFound("Review not found")
	}
	if err != nil {
		return err
	}
	if review.UserID != userID {
		return forbidden("You can only change your own review")
	}
	return nil
}

func recomputeGameRatings(tx *gorm.DB, gameID uint) error {
	var ratings []int
	if err := tx.Model(&models.Review{}).
		Where("game_id = ?", gameID).
		Pluck("rating", &ratings).Error; err != nil {
		return err
	}
	return tx.Model(&models.Game{}).
		Where("id = ?", gameID).
		Updates(map[string]any{
			"average_rating": MeanRounded(ratings),
			"total_ratings":  len(ratings),
			"total_reviews":  len(ratings),
		}).Error
}
