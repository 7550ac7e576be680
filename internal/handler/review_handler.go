package handler

import (
	"net/http"
	"time"

	"gamequest/backend/internal/aggregate"
	"gamequest/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type CreateReviewInput struct {
	GameID  uint   `json:"game_id" binding:"required"`
	Rating  int    `json:"rating" binding:"required" example:"8"`
	Title   string `json:"title" binding:"max=255"`
	Content string `json:"content" binding:"required"`
}

type UpdateReviewInput struct {
	Rating  *int    `json:"rating"`
	Title   *string `json:"title" binding:"omitempty,max=255"`
	Content *string `json:"content"`
}

type ReviewResponse struct {
	ID        uint        `json:"id"`
	GameID    uint        `json:"game_id"`
	Rating    int         `json:"rating"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Upvotes   int         `json:"upvotes"`
	Downvotes int         `json:"downvotes"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	User      UserSummary `json:"user"`
}

func newReviewResponse(r models.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		GameID:    r.GameID,
		Rating:    r.Rating,
		Title:     r.Title,
		Content:   r.Content,
		Upvotes:   r.Upvotes,
		Downvotes: r.Downvotes,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		User:      newUserSummary(r.User),
	}
}

// GetGameReviews godoc
// @Summary      List reviews for a game
// @Description  Paginated, newest first, with author.
// @Tags         reviews
// @Produce      json
// @Param        id    path  int true  "Game ID"
// @Param        page  query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(20)
// @Success      200 {object} PaginatedResponse[ReviewResponse]
// @Router       /games/{id}/reviews [get]
func (h *Handler) GetGameReviews(c *gin.Context) {
	gameID, ok := parseID(c, "id")
	if !ok {
		return
	}
	page, limit := pageParams(c)
	db, ok := h.listDB(c)
	if !ok {
		c.JSON(http.StatusOK, NewPaginatedResponse([]ReviewResponse{}, 0, page, limit))
		return
	}

	query := db.Model(&models.Review{}).Where("game_id = ?", gameID).Order("created_at DESC").Order("id DESC")
	resp, err := Paginate(query, page, limit, newReviewResponse, "User")
	if err != nil {
		h.internalError(c, "Failed to retrieve reviews", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateReview godoc
// @Summary      Review a game
// @Description  One review per user and game. Updates the game's rating aggregates.
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateReviewInput true "Review"
// @Success      201 {object} IDResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Game not found"
// @Failure      409 {object} ErrorResponse "You already reviewed this game"
// @Failure      503 {object} ErrorResponse
// @Router       /reviews [post]
func (h *Handler) CreateReview(c *gin.Context) {
	var input CreateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	review, err := h.engine.AddReview(c.Request.Context(), mustUserID(c), aggregate.ReviewInput{
		GameID:  input.GameID,
		Rating:  input.Rating,
		Title:   input.Title,
		Content: input.Content,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, IDResponse{ID: review.ID})
}

// UpdateReview godoc
// @Summary      Edit own review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int               true "Review ID"
// @Param        input body UpdateReviewInput true "Fields to change"
// @Success      200 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /reviews/{id} [put]
func (h *Handler) UpdateReview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input UpdateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	_, err := h.engine.UpdateReview(c.Request.Context(), mustUserID(c), id, aggregate.ReviewPatch{
		Rating:  input.Rating,
		Title:   input.Title,
		Content: input.Content,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// DeleteReview godoc
// @Summary      Delete own review
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Review ID"
// @Success      200 {object} SuccessResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /reviews/{id} [delete]
func (h *Handler) DeleteReview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.engine.DeleteReview(c.Request.Context(), mustUserID(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
