package handler

import (
	"net/http"
	"strings"
	"time"

	"gamequest/backend/internal/aggregate"
	"gamequest/backend/internal/auth"
	"gamequest/backend/internal/database"
	"gamequest/backend/internal/models"

	"github.com/ecodeclub/ekit/slice"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// region --- DTOs ---

type CreateAchievementInput struct {
	GameID        uint   `json:"game_id" binding:"required"`
	Title         string `json:"title" binding:"required,max=255"`
	Description   string `json:"description"`
	IconURL       string `json:"icon_url" binding:"max=1024"`
	Points        int    `json:"points" binding:"min=0"`
	EstimatedTime *int   `json:"estimated_time" binding:"omitempty,min=0"`
	IsMissable    bool   `json:"is_missable"`
	IsBuggy       bool   `json:"is_buggy"`
	IsGrindy      bool   `json:"is_grindy"`
	IsEasy        bool   `json:"is_easy"`
	TextGuide     string `json:"text_guide"`
}

type DifficultyVoteInput struct {
	Difficulty int `json:"difficulty" binding:"required" example:"7"`
}

type AchievementImageInput struct {
	ImageURL string `json:"image_url" binding:"required,max=1024"`
	Caption  string `json:"caption"`
}

type AchievementResponse struct {
	ID                   uint      `json:"id"`
	GameID               uint      `json:"game_id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	IconURL              string    `json:"icon_url"`
	Points               int       `json:"points"`
	EstimatedTime        *int      `json:"estimated_time"`
	IsMissable           bool      `json:"is_missable"`
	IsBuggy              bool      `json:"is_buggy"`
	IsGrindy             bool      `json:"is_grindy"`
	IsEasy               bool      `json:"is_easy"`
	TextGuide            string    `json:"text_guide"`
	DifficultyRating     int       `json:"difficulty_rating"`
	TotalDifficultyVotes int       `json:"total_difficulty_votes"`
	TotalUnlocks         int       `json:"total_unlocks"`
	CreatedAt            time.Time `json:"created_at"`
}

func newAchievementResponse(a models.Achievement) AchievementResponse {
	return AchievementResponse{
		ID:                   a.ID,
		GameID:               a.GameID,
		Title:                a.Title,
		Description:          a.Description,
		IconURL:              a.IconURL,
		Points:               a.Points,
		EstimatedTime:        a.EstimatedTime,
		IsMissable:           a.IsMissable,
		IsBuggy:              a.IsBuggy,
		IsGrindy:             a.IsGrindy,
		IsEasy:               a.IsEasy,
		TextGuide:            a.TextGuide,
		DifficultyRating:     a.DifficultyRating,
		TotalDifficultyVotes: a.TotalDifficultyVotes,
		TotalUnlocks:         a.TotalUnlocks,
		CreatedAt:            a.CreatedAt,
	}
}

type AchievementImageResponse struct {
	ID        uint        `json:"id"`
	ImageURL  string      `json:"image_url"`
	Caption   string      `json:"caption"`
	Upvotes   int         `json:"upvotes"`
	CreatedAt time.Time   `json:"created_at"`
	User      UserSummary `json:"user"`
}

// AchievementDetailResponse is an achievement with its screenshots and,
// for signed-in viewers, their own unlock and difficulty vote.
type AchievementDetailResponse struct {
	AchievementResponse
	Images         []AchievementImageResponse `json:"images"`
	Unlocked       *bool                      `json:"unlocked,omitempty"`
	UserDifficulty *int                       `json:"user_difficulty,omitempty"`
}

type UserAchievementResponse struct {
	ID          uint                `json:"id"`
	UnlockedAt  time.Time           `json:"unlocked_at"`
	Achievement AchievementResponse `json:"achievement"`
}

// endregion

// GetGameAchievements godoc
// @Summary      List a game's achievements
// @Description  Ordered by points, lowest first.
// @Tags         achievements
// @Produce      json
// @Param        id path int true "Game ID"
// @Success      200 {array} AchievementResponse
// @Router       /games/{id}/achievements [get]
func (h *Handler) GetGameAchievements(c *gin.Context) {
	gameID, ok := parseID(c, "id")
	if !ok {
		return
	}
	db, ok := h.listDB(c)
	if !ok {
		c.JSON(http.StatusOK, []AchievementResponse{})
		return
	}
	var achievements []models.Achievement
	if err := db.Where("game_id = ?", gameID).Order("points ASC").Order("id ASC").Find(&achievements).Error; err != nil {
		h.internalError(c, "Failed to retrieve achievements", err)
		return
	}
	c.JSON(http.StatusOK, slice.Map(achievements, func(_ int, a models.Achievement) AchievementResponse {
		return newAchievementResponse(a)
	}))
}

// GetAchievement godoc
// @Summary      Get an achievement
// @Description  Includes community images, most upvoted first.
// @Tags         achievements
// @Produce      json
// @Param        id path int true "Achievement ID"
// @Success      200 {object} AchievementDetailResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /achievements/{id} [get]
func (h *Handler) GetAchievement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	var a models.Achievement
	if err := db.First(&a, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Achievement not found"})
			return
		}
		h.internalError(c, "Failed to load achievement", err)
		return
	}

	resp := AchievementDetailResponse{AchievementResponse: newAchievementResponse(a)}
	var (
		eg     errgroup.Group
		images []models.AchievementImage
	)
	eg.Go(func() error {
		return db.Where("achievement_id = ?", id).Preload("User").
			Order("upvotes DESC").Order("id ASC").Find(&images).Error
	})
	if viewerID, ok := auth.UserID(c); ok {
		eg.Go(func() error {
			var n int64
			if err := db.Model(&models.UserAchievement{}).
				Where("user_id = ? AND achievement_id = ?", viewerID, id).Count(&n).Error; err != nil {
				return err
			}
			unlocked := n > 0
			resp.Unlocked = &unlocked
			return nil
		})
		eg.Go(func() error {
			var votes []models.DifficultyVote
			if err := db.Where("user_id = ? AND achievement_id = ?", viewerID, id).Limit(1).Find(&votes).Error; err != nil {
				return err
			}
			if len(votes) > 0 {
				resp.UserDifficulty = &votes[0].Difficulty
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.internalError(c, "Failed to load achievement", err)
		return
	}

	resp.Images = slice.Map(images, func(_ int, img models.AchievementImage) AchievementImageResponse {
		return AchievementImageResponse{
			ID:        img.ID,
			ImageURL:  img.ImageURL,
			Caption:   img.Caption,
			Upvotes:   img.Upvotes,
			CreatedAt: img.CreatedAt,
			User:      newUserSummary(img.User),
		}
	})
	c.JSON(http.StatusOK, resp)
}

// CreateAchievement godoc
// @Summary      Create an achievement
// @Description  Adds an achievement to a game and bumps the game's achievement count.
// @Tags         achievements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateAchievementInput true "Achievement"
// @Success      201 {object} IDResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /achievements [post]
func (h *Handler) CreateAchievement(c *gin.Context) {
	var input CreateAchievementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.engine.CreateAchievement(c.Request.Context(), aggregate.AchievementInput{
		GameID:        input.GameID,
		Title:         input.Title,
		Description:   input.Description,
		IconURL:       input.IconURL,
		Points:        input.Points,
		EstimatedTime: input.EstimatedTime,
		IsMissable:    input.IsMissable,
		IsBuggy:       input.IsBuggy,
		IsGrindy:      input.IsGrindy,
		IsEasy:        input.IsEasy,
		TextGuide:     input.TextGuide,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, IDResponse{ID: a.ID})
}

// UnlockAchievement godoc
// @Summary      Unlock an achievement
// @Tags         achievements
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Achievement ID"
// @Success      201 {object} IDResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Achievement already unlocked"
// @Failure      503 {object} ErrorResponse
// @Router       /achievements/{id}/unlock [post]
func (h *Handler) UnlockAchievement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	unlockID, err := h.engine.UnlockAchievement(c.Request.Context(), mustUserID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, IDResponse{ID: unlockID})
}

// GetUserAchievements godoc
// @Summary      List a user's unlocked achievements
// @Tags         achievements
// @Produce      json
// @Param        id      path  int true  "User ID"
// @Param        game_id query int false "Only achievements of this game"
// @Success      200 {array} UserAchievementResponse
// @Router       /users/{id}/achievements [get]
func (h *Handler) GetUserAchievements(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	db, ok := h.listDB(c)
	if !ok {
		c.JSON(http.StatusOK, []UserAchievementResponse{})
		return
	}

	query := db.Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id AND achievements.deleted_at IS NULL").
		Where("user_achievements.user_id = ?", userID)
	if gameID, ok := queryID(c, "game_id"); ok {
		query = query.Where("achievements.game_id = ?", gameID)
	}
	var unlocks []models.UserAchievement
	if err := query.Preload("Achievement").
		Order("user_achievements.unlocked_at DESC").Order("user_achievements.id DESC").
		Find(&unlocks).Error; err != nil {
		h.internalError(c, "Failed to retrieve achievements", err)
		return
	}
	c.JSON(http.StatusOK, slice.Map(unlocks, func(_ int, u models.UserAchievement) UserAchievementResponse {
		return UserAchievementResponse{ID: u.ID, UnlockedAt: u.UnlockedAt, Achievement: newAchievementResponse(u.Achievement)}
	}))
}

// VoteDifficulty godoc
// @Summary      Rate an achievement's difficulty
// @Description  One vote per user, 1 to 10. Withdraw with DELETE to vote again.
// @Tags         achievements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int                 true "Achievement ID"
// @Param        input body DifficultyVoteInput true "Vote"
// @Success      201 {object} IDResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /achievements/{id}/difficulty [post]
func (h *Handler) VoteDifficulty(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input DifficultyVoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	voteID, err := h.engine.RecordDifficultyVote(c.Request.Context(), mustUserID(c), id, input.Difficulty)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, IDResponse{ID: voteID})
}

// RemoveDifficultyVote godoc
// @Summary      Withdraw a difficulty vote
// @Tags         achievements
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Achievement ID"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Router       /achievements/{id}/difficulty [delete]
func (h *Handler) RemoveDifficultyVote(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.engine.RemoveDifficultyVote(c.Request.Context(), mustUserID(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// AddAchievementImage godoc
// @Summary      Attach a screenshot to an achievement
// @Tags         achievements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int                   true "Achievement ID"
// @Param        input body AchievementImageInput true "Image"
// @Success      201 {object} IDResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /achievements/{id}/images [post]
func (h *Handler) AddAchievementImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input AchievementImageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	var n int64
	if err := db.Model(&models.Achievement{}).Where("id = ?", id).Count(&n).Error; err != nil {
		h.internalError(c, "Failed to add image", err)
		return
	}
	if n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Achievement not found"})
		return
	}

	img := models.AchievementImage{
		AchievementID: id,
		UserID:        mustUserID(c),
		ImageURL:      strings.TrimSpace(input.ImageURL),
		Caption:       input.Caption,
	}
	if err := db.Create(&img).Error; err != nil {
		h.internalError(c, "Failed to add image", err)
		return
	}
	c.JSON(http.StatusCreated, IDResponse{ID: img.ID})
}
