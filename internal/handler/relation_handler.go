package handler

import (
	"net/http"
	"time"

	"gamequest/backend/internal/models"

	"github.com/ecodeclub/ekit/slice"
	"github.com/gin-gonic/gin"
)

// FollowResponse is one entry of a followers or following list.
type FollowResponse struct {
	User       UserSummary `json:"user"`
	FollowedAt time.Time   `json:"followed_at"`
}

// GetFollowers godoc
// @Summary      List a user's followers
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {array}   FollowResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /users/{id}/followers [get]
func (h *Handler) GetFollowers(c *gin.Context) {
	h.listRelations(c, "following_id", "Follower")
}

// GetFollowing godoc
// @Summary      List who a user follows
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {array}   FollowResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /users/{id}/following [get]
func (h *Handler) GetFollowing(c *gin.Context) {
	h.listRelations(c, "follower_id", "Following")
}

// listRelations filters follower rows by column and returns the user on the other side.
func (h *Handler) listRelations(c *gin.Context, column, other string) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	db, ok := h.listDB(c)
	if !ok {
		c.JSON(http.StatusOK, []FollowResponse{})
		return
	}

	var relations []models.Follower
	if err := db.Where(column+" = ?", userID).
		Preload(other).
		Order("created_at DESC").
		Find(&relations).Error; err != nil {
		h.internalError(c, "Failed to fetch relations", err)
		return
	}

	c.JSON(http.StatusOK, slice.Map(relations, func(_ int, r models.Follower) FollowResponse {
		u := r.Following
		if other == "Follower" {
			u = r.Follower
		}
		return FollowResponse{User: newUserSummary(u), FollowedAt: r.CreatedAt}
	}))
}

// Follow godoc
// @Summary      Follow a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID to follow"
// @Success      201  {object}  IDResponse
// @Failure      400  {object}  ErrorResponse "Cannot follow yourself"
// @Failure      404  {object}  ErrorResponse "User not found"
// @Failure      409  {object}  ErrorResponse "Already following"
// @Router       /users/{id}/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	targetID, ok := parseID(c, "id")
	if !ok {
		return
	}
	rel, err := h.engine.Follow(c.Request.Context(), mustUserID(c), targetID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, IDResponse{ID: rel.ID})
}

// Unfollow godoc
// @Summary      Unfollow a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID to unfollow"
// @Success      200  {object}  SuccessResponse
// @Router       /users/{id}/unfollow [post]
func (h *Handler) Unfollow(c *gin.Context) {
	targetID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := h.engine.Unfollow(c.Request.Context(), mustUserID(c), targetID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// IsFollowing godoc
// @Summary      Check whether the caller follows a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  map[string]bool "Follow state"
// @Router       /users/{id}/is-following [get]
func (h *Handler) IsFollowing(c *gin.Context) {
	targetID, ok := parseID(c, "id")
	if !ok {
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}
	var n int64
	if err := db.Model(&models.Follower{}).
		Where("follower_id = ? AND following_id = ?", mustUserID(c), targetID).
		Count(&n).Error; err != nil {
		h.internalError(c, "Failed to check relation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_following": n > 0})
}
