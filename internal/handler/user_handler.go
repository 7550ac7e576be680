package handler

import (
	"net/http"
	"strings"
	"time"

	"gamequest/backend/internal/auth"
	"gamequest/backend/internal/database"
	"gamequest/backend/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// region --- DTOs ---

// UserSummary is the author block embedded in other resources.
type UserSummary struct {
	ID        uint   `json:"id" example:"1"`
	Nickname  string `json:"nickname" example:"testuser"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func newUserSummary(u models.User) UserSummary {
	return UserSummary{ID: u.ID, Nickname: u.Nickname, AvatarURL: u.AvatarURL}
}

// PublicUserResponse defines the structure for a user's public profile.
type PublicUserResponse struct {
	ID             uint      `json:"id" example:"1"`
	Nickname       string    `json:"nickname" example:"testuser"`
	Bio            string    `json:"bio"`
	AvatarURL      string    `json:"avatar_url"`
	CreatedAt      time.Time `json:"created_at"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
	IsFollowing    *bool     `json:"is_following,omitempty"`
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	ID           uint        `json:"id" example:"1"`
	Nickname     string      `json:"nickname" example:"testuser"`
	Email        string      `json:"email" example:"test@example.com"`
	Role         models.Role `json:"role" example:"user"`
	Bio          string      `json:"bio"`
	AvatarURL    string      `json:"avatar_url"`
	CreatedAt    time.Time   `json:"created_at"`
	LastSignedIn time.Time   `json:"last_signed_in"`
}

func newPrivateUserResponse(u models.User) PrivateUserResponse {
	return PrivateUserResponse{
		ID:           u.ID,
		Nickname:     u.Nickname,
		Email:        u.Email,
		Role:         u.Role,
		Bio:          u.Bio,
		AvatarURL:    u.AvatarURL,
		CreatedAt:    u.CreatedAt,
		LastSignedIn: u.LastSignedIn,
	}
}

// UpdateProfileInput holds the editable profile fields. Omitted fields are left unchanged.
type UpdateProfileInput struct {
	Bio       *string `json:"bio" binding:"omitempty,max=2000"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=1024"`
}

// endregion

// SearchUsers godoc
// @Summary      Search for users
// @Description  Searches for users by nickname with pagination.
// @Tags         users
// @Produce      json
// @Param        q     query     string  false  "Search query for nickname"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(20)
// @Success      200   {object}  PaginatedResponse[UserSummary]
// @Router       /users [get]
func (h *Handler) SearchUsers(c *gin.Context) {
	page, limit := pageParams(c)
	db, ok := h.listDB(c)
	if !ok {
		c.JSON(http.StatusOK, NewPaginatedResponse([]UserSummary{}, 0, page, limit))
		return
	}

	query := db.Model(&models.User{}).Order("nickname ASC")
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		query = query.Where("LOWER(nickname) LIKE LOWER(?)", "%"+q+"%")
	}

	resp, err := Paginate(query, page, limit, newUserSummary)
	if err != nil {
		h.internalError(c, "Failed to retrieve users", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetUserByID godoc
// @Summary      Get user by ID
// @Description  Retrieves the public profile for a user, with follower counts and whether the viewer follows them.
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  PublicUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /users/{id} [get]
func (h *Handler) GetUserByID(c *gin.Context) {
	targetID, ok := parseID(c, "id")
	if !ok {
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	var target models.User
	if err := db.First(&target, targetID).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.internalError(c, "Failed to load user", err)
		return
	}

	resp, err := h.buildPublicUserResponse(db, target, c)
	if err != nil {
		h.internalError(c, "Failed to load user", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateMe godoc
// @Summary      Update own profile
// @Description  Updates the authenticated user's bio and avatar.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateProfileInput true "Profile fields"
// @Success      200  {object}  PrivateUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /users/me [put]
func (h *Handler) UpdateMe(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	userID := mustUserID(c)
	updates := map[string]any{}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = *input.AvatarURL
	}
	if len(updates) > 0 {
		if err := db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			h.internalError(c, "Failed to update profile", err)
			return
		}
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.internalError(c, "Failed to load user", err)
		return
	}
	c.JSON(http.StatusOK, newPrivateUserResponse(user))
}

// buildPublicUserResponse loads the profile counters in parallel.
func (h *Handler) buildPublicUserResponse(db *gorm.DB, target models.User, c *gin.Context) (PublicUserResponse, error) {
	resp := PublicUserResponse{
		ID:        target.ID,
		Nickname:  target.Nickname,
		Bio:       target.Bio,
		AvatarURL: target.AvatarURL,
		CreatedAt: target.CreatedAt,
	}

	var eg errgroup.Group
	eg.Go(func() error {
		return db.Model(&models.Follower{}).Where("following_id = ?", target.ID).Count(&resp.FollowersCount).Error
	})
	eg.Go(func() error {
		return db.Model(&models.Follower{}).Where("follower_id = ?", target.ID).Count(&resp.FollowingCount).Error
	})
	if viewerID, ok := auth.UserID(c); ok && viewerID != target.ID {
		eg.Go(func() error {
			var n int64
			if err := db.Model(&models.Follower{}).
				Where("follower_id = ? AND following_id = ?", viewerID, target.ID).
				Count(&n).Error; err != nil {
				return err
			}
			following := n > 0
			resp.IsFollowing = &following
			return nil
		})
	}
	return resp, eg.Wait()
}
