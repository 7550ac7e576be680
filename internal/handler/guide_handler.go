package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gamequest/backend/internal/aggregate"
	"gamequest/backend/internal/database"
	"gamequest/backend/internal/models"

	"github.com/ecodeclub/ekit/slice"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// region --- DTOs ---

type CreateGuideInput struct {
	GameID      uint   `json:"game_id" binding:"required"`
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	MapImageURL string `json:"map_image_url" binding:"max=1024"`
}

type UpdateGuideInput struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	MapImageURL *string `json:"map_image_url" binding:"omitempty,max=1024"`
}

type MarkerInput struct {
	AchievementID *uint  `json:"achievement_id"`
	Title         string `json:"title" binding:"required,max=255"`
	Description   string `json:"description"`
	ImageURL      string `json:"image_url" binding:"max=1024"`
	QuickTip      string `json:"quick_tip"`
	PositionX     *int   `json:"position_x" binding:"required"`
	PositionY     *int   `json:"position_y" binding:"required"`
}

type MarkerResponse struct {
	ID            uint   `json:"id"`
	AchievementID *uint  `json:"achievement_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	ImageURL      string `json:"image_url"`
	QuickTip      string `json:"quick_tip"`
	PositionX     int    `json:"position_x"`
	PositionY     int    `json:"position_y"`
}

func newMarkerResponse(m models.MapMarker) MarkerResponse {
	return MarkerResponse{
		ID:            m.ID,
		AchievementID: m.AchievementID,
		Title:         m.Title,
		Description:   m.Description,
		ImageURL:      m.ImageURL,
		QuickTip:      m.QuickTip,
		PositionX:     m.PositionX,
		PositionY:     m.PositionY,
	}
}

type GuideResponse struct {
	ID          uint             `json:"id"`
	GameID      uint             `json:"game_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	MapImageURL string           `json:"map_image_url"`
	Version     int              `json:"version"`
	IsLatest    bool             `json:"is_latest"`
	Upvotes     int              `json:"upvotes"`
	Views       int              `json:"views"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	User        UserSummary      `json:"user"`
	Markers     []MarkerResponse `json:"markers,omitempty"`
}

func newGuideResponse(g models.Guide) GuideResponse {
	return GuideResponse{
		ID:          g.ID,
		GameID:      g.GameID,
		Title:       g.Title,
		Description: g.Description,
		MapImageURL: g.MapImageURL,
		Version:     g.Version,
		IsLatest:    g.IsLatest,
		Upvotes:     g.Upvotes,
		Views:       g.Views,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
		User:        newUserSummary(g.User),
	}
}

// endregion

var (
	errGuideNotFound = errors.New("guide not found")
	errNotGuideOwner = errors.New("not guide owner")
)

// ownedGuide loads a guide and checks that userID wrote it.
func ownedGuide(db *gorm.DB, guideID, userID uint) (*models.Guide, error) {
	var g models.Guide
	if err := db.First(&g, guideID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, errGuideNotFound
		}
		return nil, err
	}
	if g.UserID != userID {
		return nil, errNotGuideOwner
	}
	return &g, nil
}

func (h *Handler) respondGuideError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errGuideNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found"})
	case errors.Is(err, errNotGuideOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own guide"})
	default:
		h.internalError(c, "Failed to update guide", err)
	}
}

// GetGameGuides godoc
// @Summary      List a game's guides
// @Description  Latest version of each guide, most upvoted first.
// @Tags         guides
// @Produce      json
// @Param        id path int true "Game ID"
// @Success      200 {array} GuideResponse
// @Router       /games/{id}/guides [get]
func (h *Handler) GetGameGuides(c *gin.Context) {
	gameID, ok := parseID(c, "id")
	if !ok {
		return
	}
	db, ok := h.listDB(c)
	if !ok {
		c.JSON(http.StatusOK, []GuideResponse{})
		return
	}
	var guides []models.Guide
	if err := db.Where("game_id = ? AND is_latest = ?", gameID, true).
		Preload("User").
		Order("upvotes DESC").Order("id ASC").
		Find(&guides).Error; err != nil {
		h.internalError(c, "Failed to retrieve guides", err)
		return
	}
	c.JSON(http.StatusOK, slice.Map(guides, func(_ int, g models.Guide) GuideResponse { return newGuideResponse(g) }))
}

// GetGuide godoc
// @Summary      Get a guide
// @Description  Returns the guide with author and map markers, and counts a view.
// @Tags         guides
// @Produce      json
// @Param        id path int true "Guide ID"
// @Success      200 {object} GuideResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /guides/{id} [get]
func (h *Handler) GetGuide(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	var g models.Guide
	err := db.Preload("User").
		Preload("Markers", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		First(&g, id).Error
	if err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found"})
			return
		}
		h.internalError(c, "Failed to load guide", err)
		return
	}

	if err := h.engine.RecordGuideView(c.Request.Context(), id); err != nil {
		h.logger.Warn("failed to count guide view", zap.Uint("guide_id", id), zap.Error(err))
	} else {
		g.Views++
	}

	resp := newGuideResponse(g)
	resp.Markers = slice.Map(g.Markers, func(_ int, m models.MapMarker) MarkerResponse { return newMarkerResponse(m) })
	c.JSON(http.StatusOK, resp)
}

// CreateGuide godoc
// @Summary      Create an interactive map guide
// @Description  A user holds at most one latest guide per game.
// @Tags         guides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateGuideInput true "Guide"
// @Success      201 {object} IDResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Game not found"
// @Failure      409 {object} ErrorResponse "You already have a guide for this game"
// @Router       /guides [post]
func (h *Handler) CreateGuide(c *gin.Context) {
	var input CreateGuideInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g, err := h.engine.CreateGuide(c.Request.Context(), mustUserID(c), aggregate.GuideInput{
		GameID:      input.GameID,
		Title:       input.Title,
		Description: input.Description,
		MapImageURL: input.MapImageURL,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, IDResponse{ID: g.ID})
}

// UpdateGuide godoc
// @Summary      Edit own guide
// @Tags         guides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int              true "Guide ID"
// @Param        input body UpdateGuideInput true "Fields to change"
// @Success      200 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /guides/{id} [put]
func (h *Handler) UpdateGuide(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input UpdateGuideInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	g, err := ownedGuide(db, id, mustUserID(c))
	if err != nil {
		h.respondGuideError(c, err)
		return
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.MapImageURL != nil {
		updates["map_image_url"] = *input.MapImageURL
	}
	if len(updates) > 0 {
		if err := db.Model(g).Updates(updates).Error; err != nil {
			h.internalError(c, "Failed to update guide", err)
			return
		}
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// AddMarker godoc
// @Summary      Add a map marker
// @Tags         guides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int         true "Guide ID"
// @Param        input body MarkerInput true "Marker"
// @Success      201 {object} IDResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /guides/{id}/markers [post]
func (h *Handler) AddMarker(c *gin.Context) {
	guideID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input MarkerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	if _, err := ownedGuide(db, guideID, mustUserID(c)); err != nil {
		h.respondGuideError(c, err)
		return
	}

	marker := models.MapMarker{
		GuideID:       guideID,
		AchievementID: input.AchievementID,
		Title:         strings.TrimSpace(input.Title),
		Description:   input.Description,
		ImageURL:      input.ImageURL,
		QuickTip:      input.QuickTip,
		PositionX:     *input.PositionX,
		PositionY:     *input.PositionY,
	}
	if err := db.Create(&marker).Error; err != nil {
		h.internalError(c, "Failed to add marker", err)
		return
	}
	c.JSON(http.StatusCreated, IDResponse{ID: marker.ID})
}

// DeleteMarker godoc
// @Summary      Delete a map marker
// @Tags         guides
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Marker ID"
// @Success      200 {object} SuccessResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /markers/{id} [delete]
func (h *Handler) DeleteMarker(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	var marker models.MapMarker
	if err := db.First(&marker, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Marker not found"})
			return
		}
		h.internalError(c, "Failed to delete marker", err)
		return
	}
	if _, err := ownedGuide(db, marker.GuideID, mustUserID(c)); err != nil {
		h.respondGuideError(c, err)
		return
	}
	if err := db.Delete(&marker).Error; err != nil {
		h.internalError(c, "Failed to delete marker", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
