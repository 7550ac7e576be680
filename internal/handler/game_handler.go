package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gamequest/backend/internal/auth"
	"gamequest/backend/internal/database"
	"gamequest/backend/internal/models"

	"github.com/ecodeclub/ekit/slice"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// region --- DTOs ---

type GameInput struct {
	Title         string     `json:"title" binding:"required,max=255"`
	Description   string     `json:"description"`
	CoverImageURL string     `json:"cover_image_url" binding:"max=1024"`
	ReleaseDate   *time.Time `json:"release_date"`
	Developer     string     `json:"developer" binding:"max=255"`
	Publisher     string     `json:"publisher" binding:"max=255"`
	PlatformIDs   []uint     `json:"platform_ids"`
	TagIDs        []uint     `json:"tag_ids"`
}

type GameResponse struct {
	ID                uint               `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	CoverImageURL     string             `json:"cover_image_url"`
	ReleaseDate       *time.Time         `json:"release_date"`
	Developer         string             `json:"developer"`
	Publisher         string             `json:"publisher"`
	AverageRating     int                `json:"average_rating"`
	TotalRatings      int                `json:"total_ratings"`
	TotalReviews      int                `json:"total_reviews"`
	TotalAchievements int                `json:"total_achievements"`
	CreatedAt         time.Time          `json:"created_at"`
	Platforms         []PlatformResponse `json:"platforms"`
	Tags              []TagResponse      `json:"tags"`
}

func newGameResponse(game models.Game) GameResponse {
	resp := GameResponse{
		ID:                game.ID,
		Title:             game.Title,
		Description:       game.Description,
		CoverImageURL:     game.CoverImageURL,
		ReleaseDate:       game.ReleaseDate,
		Developer:         game.Developer,
		Publisher:         game.Publisher,
		AverageRating:     game.AverageRating,
		TotalRatings:      game.TotalRatings,
		TotalReviews:      game.TotalReviews,
		TotalAchievements: game.TotalAchievements,
		CreatedAt:         game.CreatedAt,
		Platforms:         []PlatformResponse{},
		Tags:              []TagResponse{},
	}
	for _, p := range game.Platforms {
		if p != nil {
			resp.Platforms = append(resp.Platforms, newPlatformResponse(*p))
		}
	}
	for _, t := range game.Tags {
		if t != nil {
			resp.Tags = append(resp.Tags, newTagResponse(*t))
		}
	}
	return resp
}

// GameDetailResponse adds the viewer's own library entry to a game.
type GameDetailResponse struct {
	GameResponse
	LibraryEntry *LibraryEntryResponse `json:"library_entry"`
}

type PlatformInput struct {
	Name string `json:"name" binding:"required,max=100"`
	Icon string `json:"icon" binding:"max=50"`
}

type PlatformResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func newPlatformResponse(p models.Platform) PlatformResponse {
	return PlatformResponse{ID: p.ID, Name: p.Name, Icon: p.Icon}
}

// endregion

var errUnknownReference = errors.New("unknown platform or tag id")

// loadAssociations resolves platform and tag ids, failing if any id is unknown.
func loadAssociations(db *gorm.DB, platformIDs, tagIDs []uint) ([]*models.Platform, []*models.Tag, error) {
	var platforms []*models.Platform
	if len(platformIDs) > 0 {
		if err := db.Find(&platforms, platformIDs).Error; err != nil {
			return nil, nil, err
		}
		if len(platforms) != len(uniqueIDs(platformIDs)) {
			return nil, nil, errUnknownReference
		}
	}
	var tags []*models.Tag
	if len(tagIDs) > 0 {
		if err := db.Find(&tags, tagIDs).Error; err != nil {
			return nil, nil, err
		}
		if len(tags) != len(uniqueIDs(tagIDs)) {
			return nil, nil, errUnknownReference
		}
	}
	return platforms, tags, nil
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// region --- Admin Handlers ---

// CreateGame godoc
// @Summary      Create a new game
// @Description  Creates a new game and associates it with the given platforms and tags.
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body GameInput true "Game Info"
// @Success      201  {object}  GameResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /games [post]
func (h *Handler) CreateGame(c *gin.Context) {
	var input GameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	platforms, tags, err := loadAssociations(db, input.PlatformIDs, input.TagIDs)
	if errors.Is(err, errUnknownReference) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown platform or tag ID"})
		return
	}
	if err != nil {
		h.internalError(c, "Failed to create game", err)
		return
	}

	game := models.Game{
		Title:         strings.TrimSpace(input.Title),
		Description:   input.Description,
		CoverImageURL: input.CoverImageURL,
		ReleaseDate:   input.ReleaseDate,
		Developer:     input.Developer,
		Publisher:     input.Publisher,
		Platforms:     platforms,
		Tags:          tags,
	}
	if err := db.Create(&game).Error; err != nil {
		h.internalError(c, "Failed to create game", err)
		return
	}

	c.JSON(http.StatusCreated, newGameResponse(game))
}

// UpdateGame godoc
// @Summary      Update a game
// @Description  Updates a game's details and replaces its platforms and tags.
// @Tags         admin-games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int       true  "Game ID"
// @Param        input body      GameInput true  "New Game Info"
// @Success      200   {object}  GameResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse "Admin access required"
// @Failure      404   {object}  ErrorResponse "Game not found"
// @Router       /admin/games/{id} [put]
func (h *Handler) UpdateGame(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input GameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	var game models.Game
	if err := db.First(&game, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}
		h.internalError(c, "Failed to load game", err)
		return
	}

	platforms, tags, err := loadAssociations(db, input.PlatformIDs, input.TagIDs)
	if errors.Is(err, errUnknownReference) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown platform or tag ID"})
		return
	}
	if err != nil {
		h.internalError(c, "Failed to update game", err)
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// Aggregate columns are owned by the engine and never written here.
		if err := tx.Model(&game).Select("title", "description", "cover_image_url", "release_date", "developer", "publisher").
			Updates(models.Game{
				Title:         strings.TrimSpace(input.Title),
				Description:   input.Description,
				CoverImageURL: input.CoverImageURL,
				ReleaseDate:   input.ReleaseDate,
				Developer:     input.Developer,
				Publisher:     input.Publisher,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&game).Association("Platforms").Replace(platforms); err != nil {
			return err
		}
		return tx.Model(&game).Association("Tags").Replace(tags)
	})
	if err != nil {
		h.internalError(c, "Failed to update game", err)
		return
	}

	if err := db.Preload("Platforms").Preload("Tags").First(&game, id).Error; err != nil {
		h.internalError(c, "Failed to load game", err)
		return
	}
	c.JSON(http.StatusOK, newGameResponse(game))
}

// DeleteGame godoc
// @Summary      Delete a game
// @Description  Deletes an existing game and its platform and tag links.
// @Tags         admin-games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      200 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /admin/games/{id} [delete]
func (h *Handler) DeleteGame(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	result := db.Select("Tags", "Platforms").Delete(&models.Game{Model: gorm.Model{ID: id}})
	if result.Error != nil {
		h.internalError(c, "Failed to delete game", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// endregion

// region --- Public Handlers ---

// GetGameByID godoc
// @Summary      Get a single game by ID
// @Description  Retrieves a game with its platforms, tags and, for signed-in viewers, their library entry.
// @Tags         games
// @Produce      json
// @Param        id path int true "Game ID"
// @Success      200 {object} GameDetailResponse
// @Failure      404 {object} ErrorResponse "Game not found"
// @Failure      503 {object} ErrorResponse
// @Router       /games/{id} [get]
func (h *Handler) GetGameByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	var game models.Game
	if err := db.First(&game, id).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}
		h.internalError(c, "Failed to load game", err)
		return
	}

	var (
		eg        errgroup.Group
		platforms []*models.Platform
		tags      []*models.Tag
		entry     *models.UserLibrary
	)
	eg.Go(func() error {
		return db.Model(&models.Game{Model: gorm.Model{ID: id}}).Association("Platforms").Find(&platforms)
	})
	eg.Go(func() error {
		return db.Model(&models.Game{Model: gorm.Model{ID: id}}).Association("Tags").Find(&tags)
	})
	if viewerID, ok := auth.UserID(c); ok {
		eg.Go(func() error {
			var rows []models.UserLibrary
			if err := db.Where("user_id = ? AND game_id = ?", viewerID, id).Limit(1).Find(&rows).Error; err != nil {
				return err
			}
			if len(rows) > 0 {
				entry = &rows[0]
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.internalError(c, "Failed to load game", err)
		return
	}

	game.Platforms, game.Tags = platforms, tags
	resp := GameDetailResponse{GameResponse: newGameResponse(game)}
	if entry != nil {
		e := newLibraryEntryResponse(*entry)
		resp.LibraryEntry = &e
	}
	c.JSON(http.StatusOK, resp)
}

// GetGames godoc
// @Summary      Get a list of games
// @Description  Retrieves a paginated list of games, newest first, with optional filtering by title, tags and platforms.
// @Tags         games
// @Produce      json
// @Param        q            query     string  false  "Search query for game title"
// @Param        tag_ids      query     string  false  "Comma-separated list of Tag IDs"
// @Param        platform_ids query     string  false  "Comma-separated list of Platform IDs"
// @Param        page         query     int     false  "Page number" default(1)
// @Param        limit        query     int     false  "Items per page" default(20)
// @Success      200 {object} PaginatedResponse[GameResponse]
// @Router       /games [get]
func (h *Handler) GetGames(c *gin.Context) {
	page, limit := pageParams(c)
	db, ok := h.listDB(c)
	if !ok {
		c.JSON(http.StatusOK, NewPaginatedResponse([]GameResponse{}, 0, page, limit))
		return
	}

	query := db.Model(&models.Game{})
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		query = query.Where("LOWER(title) LIKE LOWER(?)", "%"+q+"%")
	}
	if tagIDs := parseIDList(c.Query("tag_ids")); len(tagIDs) > 0 {
		query = query.Where("id IN (?)", db.Table("game_tags").Select("game_id").Where("tag_id IN ?", tagIDs))
	}
	if platformIDs := parseIDList(c.Query("platform_ids")); len(platformIDs) > 0 {
		query = query.Where("id IN (?)", db.Table("game_platforms").Select("game_id").Where("platform_id IN ?", platformIDs))
	}
	query = query.Order("created_at DESC").Order("id DESC")

	resp, err := Paginate(query, page, limit, newGameResponse, "Platforms", "Tags")
	if err != nil {
		h.internalError(c, "Failed to retrieve games", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetPlatforms godoc
// @Summary      List platforms
// @Tags         platforms
// @Produce      json
// @Success      200 {array} PlatformResponse
// @Router       /platforms [get]
func (h *Handler) GetPlatforms(c *gin.Context) {
	db, ok := h.listDB(c)
	if !ok {
		c.JSON(http.StatusOK, []PlatformResponse{})
		return
	}
	var platforms []models.Platform
	if err := db.Order("name ASC").Find(&platforms).Error; err != nil {
		h.internalError(c, "Failed to retrieve platforms", err)
		return
	}
	c.JSON(http.StatusOK, slice.Map(platforms, func(_ int, p models.Platform) PlatformResponse {
		return newPlatformResponse(p)
	}))
}

// CreatePlatform godoc
// @Summary      Create a platform
// @Tags         platforms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body PlatformInput true "Platform Info"
// @Success      201 {object} PlatformResponse
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Platform already exists"
// @Router       /platforms [post]
func (h *Handler) CreatePlatform(c *gin.Context) {
	var input PlatformInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	db, ok := h.db(c)
	if !ok {
		return
	}

	platform := models.Platform{Name: strings.TrimSpace(input.Name), Icon: input.Icon}
	if err := db.Create(&platform).Error; err != nil {
		if database.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Platform already exists"})
			return
		}
		h.internalError(c, "Failed to create platform", err)
		return
	}
	c.JSON(http.StatusCreated, newPlatformResponse(platform))
}

// endregion

// parseIDList splits a comma-separated list of ids, skipping anything unparsable.
func parseIDList(s string) []uint {
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseUint(part, 10, 32); err == nil {
			ids = append(ids, uint(id))
		}
	}
	return ids
}
