package handler

import (
	"net/http"
	"strings"
	"time"

	"gamequest/backend/internal/database"
	"gamequest/backend/internal/models"

	"github.com/ecodeclub/ekit/slice"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateCommentInput struct {
	EntityType models.CommentEntity `json:"entity_type" binding:"required" example:"guide"`
	EntityID   uint                 `json:"entity_id" binding:"required"`
	Content    string               `json:"content" binding:"required"`
}

type UpdateCommentInput struct {
	Content string `json:"content" binding:"required"`
}

type CommentResponse struct {
	ID         uint                 `json:"id"`
	EntityType models.CommentEntity `json:"entity_type"`
	EntityID   uint                 `json:"entity_id"`
	Content    string               `json:"content"`
	Upvotes    int                  `json:"upvotes"`
	Downvotes  int                  `json:"downvotes"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
	User       UserSummary          `json:"user"`
}

func newCommentResponse(cm models.Comment) CommentResponse {
	return CommentResponse{
		ID:         cm.ID,
		EntityType: cm.EntityType,
		EntityID:   cm.EntityID,
		Content:    cm.Content,
		Upvotes:    cm.Upvotes,
		Downvotes:  cm.Downvotes,
		CreatedAt:  cm.CreatedAt,
		UpdatedAt:  cm.UpdatedAt,
		User:       newUserSummary(cm.User),
	}
}

// GetComments godoc
// @Summary      List comments on an entity
// @Description  Most upvoted first.
// @Tags         comments
// @Produce      json
// @Param        entity_type query string true  "achievement, guide or review"
// @Param        entity_id   query int    true  "Entity ID"
// @Param        limit       query int    false "Max items" default(50)
// @Success      200 {array} CommentResponse
// @Failure      400 {object} ErrorResponse
// @Router       /comments [get]
func (h *Handler) GetComments(c *gin.Context) {
	entityType := models.CommentEntity(c.Query("entity_type"))
	entityID, ok := queryID(c, "entity_id")
	if !entityType.Valid() || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity_type and entity_id are required"})
		return
	}
	db, ok := h.listDB(c)
	if !ok {
		c.JSON(http.StatusOK, []CommentResponse{})
		return
	}

	var comments []models.Comment
	if err := db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Preload("User").
		Order("upvotes DESC").Order("created_at ASC").
		Limit(limitParam(c, 50)).
		Find(&comments).Error; err != nil {
		h.internalError(c, "Failed to retrieve comments", err)
		return
	}
	c.JSON(http.StatusOK, slice.Map(comments, func(_ int, cm models.Comment) CommentResponse { return newCommentResponse(cm) }))
}

// CreateComment godoc
// @Summary      Comment on an achievement, guide or review
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateCommentInput true "Comment"
// @Success      201 {object} IDResponse
// @Failure      400 {object} ErrorResponse
// @Router       /comments [post]
func (h *Handler) CreateComment(c *gin.Context) {
	var input CreateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	content := strings.TrimSpace(input.Content)
	if !input.EntityType.Valid() || content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entity type or empty content"})
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	comment := models.Comment{
		UserID:     mustUserID(c),
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		Content:    content,
	}
	if err := db.Create(&comment).Error; err != nil {
		h.internalError(c, "Failed to create comment", err)
		return
	}
	c.JSON(http.StatusCreated, IDResponse{ID: comment.ID})
}

// loadOwnComment writes 404 or 403 itself and returns false in that case.
func (h *Handler) loadOwnComment(c *gin.Context, comment *models.Comment) (*gorm.DB, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	db, ok := h.db(c)
	if !ok {
		return nil, false
	}
	if err := db.First(comment, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
			return nil, false
		}
		h.internalError(c, "Failed to load comment", err)
		return nil, false
	}
	if comment.UserID != mustUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only change your own comment"})
		return nil, false
	}
	return db, true
}

// UpdateComment godoc
// @Summary      Edit own comment
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int                true "Comment ID"
// @Param        input body UpdateCommentInput true "New content"
// @Success      200 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /comments/{id} [put]
func (h *Handler) UpdateComment(c *gin.Context) {
	var input UpdateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content cannot be empty"})
		return
	}

	var comment models.Comment
	db, ok := h.loadOwnComment(c, &comment)
	if !ok {
		return
	}
	if err := db.Model(&comment).Update("content", content).Error; err != nil {
		h.internalError(c, "Failed to update comment", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// DeleteComment godoc
// @Summary      Delete own comment
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Comment ID"
// @Success      200 {object} SuccessResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /comments/{id} [delete]
func (h *Handler) DeleteComment(c *gin.Context) {
	var comment models.Comment
	db, ok := h.loadOwnComment(c, &comment)
	if !ok {
		return
	}
	if err := db.Delete(&comment).Error; err != nil {
		h.internalError(c, "Failed to delete comment", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
