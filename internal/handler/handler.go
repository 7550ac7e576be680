package handler

import (
	"errors"
	"net/http"
	"strconv"

	"gamequest/backend/internal/aggregate"
	"gamequest/backend/internal/auth"
	"gamequest/backend/internal/database"
	"gamequest/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler serves the HTTP API. All dependencies are injected.
type Handler struct {
	store  *database.Store
	engine *aggregate.Engine
	tokens *jwt.Manager
	auth   *auth.Middleware
	logger *zap.Logger
}

func New(store *database.Store, engine *aggregate.Engine, tokens *jwt.Manager, authMW *auth.Middleware, logger *zap.Logger) *Handler {
	return &Handler{
		store:  store,
		engine: engine,
		tokens: tokens,
		auth:   authMW,
		logger: logger.Named("handler"),
	}
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// IDResponse is returned by create endpoints.
type IDResponse struct {
	ID uint `json:"id" example:"1"`
}

// SuccessResponse is returned by update and delete endpoints.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// region --- Helpers ---

// db returns a request-scoped handle or writes 503.
func (h *Handler) db(c *gin.Context) (*gorm.DB, bool) {
	db, err := h.store.DB(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable"})
		return nil, false
	}
	return db, true
}

// listDB is db for list reads, which degrade to an empty list instead of failing.
func (h *Handler) listDB(c *gin.Context) (*gorm.DB, bool) {
	db, err := h.store.DB(c.Request.Context())
	if err != nil {
		h.logger.Warn("serving empty list, storage unavailable", zap.String("path", c.FullPath()))
		return nil, false
	}
	return db, true
}

// respondError maps engine and storage errors to status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	var de *aggregate.Error
	if errors.As(err, &de) {
		c.JSON(statusFor(de.Kind), gin.H{"error": de.Msg})
		return
	}
	if errors.Is(err, database.ErrStorageUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable"})
		return
	}
	h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	if h.storageLost(c) {
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// storageLost pings the store after an unexpected error and writes 503 if it is down.
// The health loop would only notice on its next tick.
func (h *Handler) storageLost(c *gin.Context) bool {
	if h.store.Check(c.Request.Context()) == database.StateHealthy {
		return false
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable"})
	return true
}

func statusFor(kind error) int {
	switch kind {
	case aggregate.ErrInvalidInput:
		return http.StatusBadRequest
	case aggregate.ErrNotFound:
		return http.StatusNotFound
	case aggregate.ErrForbidden:
		return http.StatusForbidden
	case aggregate.ErrAlreadyExists, aggregate.ErrDuplicateVote, aggregate.ErrDuplicateUnlock:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// internalError logs err and writes a 500 with msg.
func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	if h.storageLost(c) {
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}

func queryID(c *gin.Context, key string) (uint, bool) {
	id, err := strconv.ParseUint(c.Query(key), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// limitParam reads ?limit with a default and a hard cap.
func limitParam(c *gin.Context, def int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func mustUserID(c *gin.Context) uint {
	id, _ := auth.UserID(c)
	return id
}

// endregion
