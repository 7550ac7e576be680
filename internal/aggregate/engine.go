// Package aggregate keeps denormalized counters on games and achievements in
// step with the per-user fact rows they summarize.
//
// Every mutation that touches an aggregate runs in a single transaction. Averages
// are recomputed from all fact rows while the owning row is locked, so the result
// is the same no matter how many times or in which order the writes land.
// Plain counters use a single-statement increment instead.
package aggregate

import (
	"context"
	"errors"
	"math"

	"gamequest/backend/internal/database"
	"gamequest/backend/internal/metrics"
	"gamequest/backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Engine applies fact-table mutations and the aggregate updates that follow them.
type Engine struct {
	store   *database.Store
	logger  *zap.Logger
	metrics *metrics.Engine
}

// NewEngine creates an engine over store. m may be nil.
func NewEngine(store *database.Store, logger *zap.Logger, m *metrics.Engine) *Engine {
	return &Engine{
		store:   store,
		logger:  logger.Named("aggregate"),
		metrics: m,
	}
}

func (e *Engine) db(ctx context.Context) (*gorm.DB, error) {
	return e.store.DB(ctx)
}

func (e *Engine) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db, err := e.db(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(fn)
}

// fail records a failed operation and passes err through unchanged.
func (e *Engine) fail(op string, err error) error {
	var de *Error
	switch {
	case errors.As(err, &de):
		e.metrics.Rejected(reason(de))
		e.logger.Debug("write rejected", zap.String("op", op), zap.String("reason", reason(de)))
	case errors.Is(err, database.ErrStorageUnavailable):
		e.metrics.Rejected("storage_unavailable")
		e.logger.Warn("write refused, storage unavailable", zap.String("op", op))
	default:
		e.logger.Error("write failed", zap.String("op", op), zap.Error(err))
	}
	return err
}

// MeanRounded returns round(mean(values)), or 0 for no values.
// Halves round away from zero.
func MeanRounded(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(values))))
}

func lockAchievement(tx *gorm.DB, id uint) (*models.Achievement, error) {
	var a models.Achievement
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, id).Error
	if database.IsNotFound(err) {
		return nil, notFound("Achievement not found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func lockGame(tx *gorm.DB, id uint) (*models.Game, error) {
	var g models.Game
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&g, id).Error
	if database.IsNotFound(err) {
		return nil, notFound("Game not found")
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func gameExists(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.Game{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return notFound("Game not found")
	}
	return nil
}

func appendActivity(tx *gorm.DB, userID uint, kind models.ActivityType, entityID uint) error {
	return tx.Create(&models.Activity{
		UserID:       userID,
		ActivityType: kind,
		EntityID:     entityID,
	}).Error
}
