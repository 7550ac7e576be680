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

type TagInput struct {
	Name     string             `json:"name" binding:"required,max=100"`
	Category models.TagCategory `json:"category"`
}

type TagResponse struct {
	ID        uint               `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Name      string             `json:"name"`
	Category  models.TagCategory `json:"category"`
}

func newTagResponse(tag models.Tag) TagResponse {
	return TagResponse{
		ID:        tag.ID,
		CreatedAt: tag.CreatedAt,
		UpdatedAt: tag.UpdatedAt,
		Name:      tag.Name,
		Category:  tag.Category,
	}
}

func (in *TagInput) normalize() bool {
	in.Name = strings.TrimSpace(in.Name)
	if in.Category == "" {
		in.Category = models.TagCategoryGenre
	}
	return in.Name != "" && in.Category.Valid()
}

// CreateTag godoc
// @Summary      Create a new tag
// @Description  Creates a new tag for games. Category defaults to genre.
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body TagInput true "Tag Info"
// @Success      201  {object}  TagResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Tag already exists"
// @Router       /tags [post]
func (h *Handler) CreateTag(c *gin.Context) {
	var input TagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !input.normalize() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag name or category"})
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	tag := models.Tag{Name: input.Name, Category: input.Category}
	if err := db.Create(&tag).Error; err != nil {
		if database.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Tag already exists"})
			return
		}
		h.internalError(c, "Failed to create tag", err)
		return
	}

	c.JSON(http.StatusCreated, newTagResponse(tag))
}

// GetTags godoc
// @Summary      Get all tags
// @Description  Retrieves a list of all available tags, optionally filtered by category.
// @Tags         tags
// @Produce      json
// @Param        category query string false "genre, theme or gameplay"
// @Success      200  {array}   TagResponse
// @Router       /tags [get]
func (h *Handler) GetTags(c *gin.Context) {
	db, ok := h.listDB(c)
	if !ok {
		c.JSON(http.StatusOK, []TagResponse{})
		return
	}

	query := db.Order("name ASC")
	if category := models.TagCategory(c.Query("category")); category != "" {
		query = query.Where("category = ?", category)
	}
	var tags []models.Tag
	if err := query.Find(&tags).Error; err != nil {
		h.internalError(c, "Failed to retrieve tags", err)
		return
	}

	c.JSON(http.StatusOK, slice.Map(tags, func(_ int, t models.Tag) TagResponse { return newTagResponse(t) }))
}

// UpdateTag godoc
// @Summary      Update a tag
// @Description  Updates the name and category of an existing tag.
// @Tags         admin-tags
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int      true  "Tag ID"
// @Param        input body TagInput true "New Tag Info"
// @Success      200  {object}  TagResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "Tag not found"
// @Failure      409  {object}  ErrorResponse "Tag already exists"
// @Router       /admin/tags/{id} [put]
func (h *Handler) UpdateTag(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input TagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !input.normalize() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag name or category"})
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	var tag models.Tag
	if err := db.First(&tag, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
			return
		}
		h.internalError(c, "Failed to load tag", err)
		return
	}

	if err := db.Model(&tag).Updates(map[string]any{"name": input.Name, "category": input.Category}).Error; err != nil {
		if database.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Tag already exists"})
			return
		}
		h.internalError(c, "Failed to update tag", err)
		return
	}
	tag.Name, tag.Category = input.Name, input.Category
	c.JSON(http.StatusOK, newTagResponse(tag))
}

// DeleteTag godoc
// @Summary      Delete a tag
// @Description  Deletes an existing tag and removes it from every game.
// @Tags         admin-tags
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Tag ID"
// @Success      200  {object}  SuccessResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "Tag not found"
// @Router       /admin/tags/{id} [delete]
func (h *Handler) DeleteTag(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	// Hard delete so the name can be reused; game links go with it.
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM game_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Delete(&models.Tag{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
			return
		}
		h.internalError(c, "Failed to delete tag", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
