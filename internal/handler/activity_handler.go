package handler

import (
	"net/http"
	"time"

	"gamequest/backend/internal/models"

	"github.com/ecodeclub/ekit/slice"
	"github.com/gin-gonic/gin"
)

const defaultActivityLimit = 50

type ActivityResponse struct {
	ID           uint                `json:"id"`
	ActivityType models.ActivityType `json:"activity_type"`
	EntityID     uint                `json:"entity_id"`
	Metadata     string              `json:"metadata,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	User         UserSummary         `json:"user"`
}

func newActivityResponse(a models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:           a.ID,
		ActivityType: a.ActivityType,
		EntityID:     a.EntityID,
		Metadata:     a.Metadata,
		CreatedAt:    a.CreatedAt,
		User:         newUserSummary(a.User),
	}
}

// GetUserActivities godoc
// @Summary      A user's recent activity
// @Tags         activity
// @Produce      json
// @Param        id    path  int true  "User ID"
// @Param        limit query int false "Max items" default(50)
// @Success      200 {array} ActivityResponse
// @Router       /users/{id}/activities [get]
func (h *Handler) GetUserActivities(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	db, ok := h.listDB(c)
	if !ok {
		c.JSON(http.StatusOK, []ActivityResponse{})
		return
	}

	var activities []models.Activity
	if err := db.Where("user_id = ?", userID).
		Preload("User").
		Order("created_at DESC").Order("id DESC").
		Limit(limitParam(c, defaultActivityLimit)).
		Find(&activities).Error; err != nil {
		h.internalError(c, "Failed to retrieve activities", err)
		return
	}
	c.JSON(http.StatusOK, slice.Map(activities, func(_ int, a models.Activity) ActivityResponse { return newActivityResponse(a) }))
}

// GetFeed godoc
// @Summary      Activity feed
// @Description  The caller's own activity and that of users they follow, newest first.
// @Tags         activity
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Max items" default(50)
// @Success      200 {array} ActivityResponse
// @Router       /feed [get]
func (h *Handler) GetFeed(c *gin.Context) {
	db, ok := h.listDB(c)
	if !ok {
		c.JSON(http.StatusOK, []ActivityResponse{})
		return
	}
	userID := mustUserID(c)

	following := db.Model(&models.Follower{}).Select("following_id").Where("follower_id = ?", userID)
	var activities []models.Activity
	if err := db.Where("user_id = ? OR user_id IN (?)", userID, following).
		Preload("User").
		Order("created_at DESC").Order("id DESC").
		Limit(limitParam(c, defaultActivityLimit)).
		Find(&activities).Error; err != nil {
		h.internalError(c, "Failed to retrieve feed", err)
		return
	}
	c.JSON(http.StatusOK, slice.Map(activities, func(_ int, a models.Activity) ActivityResponse { return newActivityResponse(a) }))
}
