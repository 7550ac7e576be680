package handler

import (
	"net/http"
	"time"

	"gamequest/backend/internal/aggregate"
	"gamequest/backend/internal/models"

	"github.com/ecodeclub/ekit/slice"
	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type AddToLibraryInput struct {
	GameID uint                 `json:"game_id" binding:"required"`
	Status models.LibraryStatus `json:"status" example:"backlog"`
}

type UpdateLibraryInput struct {
	Status         *models.LibraryStatus `json:"status"`
	IsFavorite     *bool                 `json:"is_favorite"`
	HoursPlayed    *int                  `json:"hours_played"`
	PersonalRating *int                  `json:"personal_rating"`
}

// GameSummary is the game block embedded in library entries.
type GameSummary struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	CoverImageURL string `json:"cover_image_url"`
}

type LibraryEntryResponse struct {
	ID             uint                 `json:"id"`
	UserID         uint                 `json:"user_id"`
	GameID         uint                 `json:"game_id"`
	Status         models.LibraryStatus `json:"status"`
	IsFavorite     bool                 `json:"is_favorite"`
	HoursPlayed    int                  `json:"hours_played"`
	PersonalRating *int                 `json:"personal_rating"`
	AddedAt        time.Time            `json:"added_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Game           *GameSummary         `json:"game,omitempty"`
}

func newLibraryEntryResponse(e models.UserLibrary) LibraryEntryResponse {
	resp := LibraryEntryResponse{
		ID:             e.ID,
		UserID:         e.UserID,
		GameID:         e.GameID,
		Status:         e.Status,
		IsFavorite:     e.IsFavorite,
		HoursPlayed:    e.HoursPlayed,
		PersonalRating: e.PersonalRating,
		AddedAt:        e.AddedAt,
		UpdatedAt:      e.UpdatedAt,
	}
	if e.Game.ID != 0 {
		resp.Game = &GameSummary{ID: e.Game.ID, Title: e.Game.Title, CoverImageURL: e.Game.CoverImageURL}
	}
	return resp
}

// endregion

// GetLibrary godoc
// @Summary      Get a game library
// @Description  Returns the caller's library, or another user's with user_id, most recently updated first.
// @Tags         library
// @Produce      json
// @Security     BearerAuth
// @Param        user_id query int    false "Library owner, defaults to the caller"
// @Param        status  query string false "playing, completed, backlog, dropped or wishlist"
// @Success      200 {array} LibraryEntryResponse
// @Failure      400 {object} ErrorResponse
// @Router       /library [get]
func (h *Handler) GetLibrary(c *gin.Context) {
	ownerID, ok := queryID(c, "user_id")
	if !ok {
		ownerID = mustUserID(c)
	}
	status := models.LibraryStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid library status"})
		return
	}

	db, ok := h.listDB(c)
	if !ok {
		c.JSON(http.StatusOK, []LibraryEntryResponse{})
		return
	}
	query := db.Where("user_id = ?", ownerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var entries []models.UserLibrary
	if err := query.Preload("Game").Order("updated_at DESC").Order("id DESC").Find(&entries).Error; err != nil {
		h.internalError(c, "Failed to retrieve library", err)
		return
	}
	c.JSON(http.StatusOK, slice.Map(entries, func(_ int, e models.UserLibrary) LibraryEntryResponse {
		return newLibraryEntryResponse(e)
	}))
}

// AddToLibrary godoc
// @Summary      Add a game to the library
// @Tags         library
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body AddToLibraryInput true "Entry"
// @Success      201 {object} IDResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Game not found"
// @Failure      409 {object} ErrorResponse "Game already in library"
// @Failure      503 {object} ErrorResponse
// @Router       /library [post]
func (h *Handler) AddToLibrary(c *gin.Context) {
	var input AddToLibraryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := h.engine.AddToLibrary(c.Request.Context(), mustUserID(c), input.GameID, input.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, IDResponse{ID: entry.ID})
}

// UpdateLibraryEntry godoc
// @Summary      Update a library entry
// @Tags         library
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int                true "Entry ID"
// @Param        input body UpdateLibraryInput true "Fields to change"
// @Success      200 {object} LibraryEntryResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /library/{id} [put]
func (h *Handler) UpdateLibraryEntry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input UpdateLibraryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := h.engine.UpdateLibraryEntry(c.Request.Context(), mustUserID(c), id, aggregate.LibraryPatch{
		Status:         input.Status,
		IsFavorite:     input.IsFavorite,
		HoursPlayed:    input.HoursPlayed,
		PersonalRating: input.PersonalRating,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newLibraryEntryResponse(*entry))
}

// RemoveFromLibrary godoc
// @Summary      Remove a library entry
// @Tags         library
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Entry ID"
// @Success      200 {object} SuccessResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /library/{id} [delete]
func (h *Handler) RemoveFromLibrary(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.engine.RemoveFromLibrary(c.Request.Context(), mustUserID(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
