package handler

import (
	"net/http"
	"time"

	"gamequest/backend/internal/database"
	"gamequest/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type VoteInput struct {
	EntityType models.VoteEntity `json:"entity_type" binding:"required" example:"review"`
	EntityID   uint              `json:"entity_id" binding:"required"`
	VoteType   models.VoteType   `json:"vote_type" binding:"required" example:"up"`
}

type VoteResponse struct {
	ID         uint              `json:"id"`
	EntityType models.VoteEntity `json:"entity_type"`
	EntityID   uint              `json:"entity_id"`
	VoteType   models.VoteType   `json:"vote_type"`
	CreatedAt  time.Time         `json:"created_at"`
}

func newVoteResponse(v models.Vote) VoteResponse {
	return VoteResponse{
		ID:         v.ID,
		EntityType: v.EntityType,
		EntityID:   v.EntityID,
		VoteType:   v.VoteType,
		CreatedAt:  v.CreatedAt,
	}
}

// voteTarget reads entity_type and entity_id from the query string.
func voteTarget(c *gin.Context) (models.VoteEntity, uint, bool) {
	entityType := models.VoteEntity(c.Query("entity_type"))
	entityID, ok := queryID(c, "entity_id")
	if !entityType.Valid() || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity_type and entity_id are required"})
		return "", 0, false
	}
	return entityType, entityID, true
}

// CastVote godoc
// @Summary      Vote on an entity
// @Description  Replaces any previous vote by the caller on the same entity.
// @Tags         votes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body VoteInput true "Vote"
// @Success      200 {object} VoteResponse
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /votes [post]
func (h *Handler) CastVote(c *gin.Context) {
	var input VoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	vote, err := h.engine.ToggleVote(c.Request.Context(), mustUserID(c), input.EntityType, input.EntityID, input.VoteType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newVoteResponse(*vote))
}

// RemoveVote godoc
// @Summary      Withdraw own vote
// @Tags         votes
// @Produce      json
// @Security     BearerAuth
// @Param        entity_type query string true "Entity type"
// @Param        entity_id   query int    true "Entity ID"
// @Success      200 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse
// @Router       /votes [delete]
func (h *Handler) RemoveVote(c *gin.Context) {
	entityType, entityID, ok := voteTarget(c)
	if !ok {
		return
	}
	if err := h.engine.RemoveVote(c.Request.Context(), mustUserID(c), entityType, entityID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// GetMyVote godoc
// @Summary      Get own vote on an entity
// @Description  Returns null when the caller has not voted.
// @Tags         votes
// @Produce      json
// @Security     BearerAuth
// @Param        entity_type query string true "Entity type"
// @Param        entity_id   query int    true "Entity ID"
// @Success      200 {object} VoteResponse
// @Failure      400 {object} ErrorResponse
// @Router       /votes [get]
func (h *Handler) GetMyVote(c *gin.Context) {
	entityType, entityID, ok := voteTarget(c)
	if !ok {
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	var vote models.Vote
	err := db.Where("user_id = ? AND entity_type = ? AND entity_id = ?", mustUserID(c), entityType, entityID).
		First(&vote).Error
	if err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusOK, nil)
			return
		}
		h.internalError(c, "Failed to load vote", err)
		return
	}
	c.JSON(http.StatusOK, newVoteResponse(vote))
}
