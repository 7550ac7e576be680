package handler

import (
	"net/http"
	"strings"
	"time"

	"gamequest/backend/internal/auth"
	"gamequest/backend/internal/database"
	"gamequest/backend/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Nickname string `json:"nickname" binding:"required,max=255" example:"testuser"`
	Email    string `json:"email" binding:"required,email" example:"test@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"password123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Login    string `json:"login" binding:"required" example:"testuser"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// endregion

// Register godoc
// @Summary      Register a new user
// @Description  Creates a new user and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.Nickname = strings.TrimSpace(input.Nickname)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	db, ok := h.db(c)
	if !ok {
		return
	}

	var existing int64
	if err := db.Model(&models.User{}).
		Where("nickname = ? OR email = ?", input.Nickname, input.Email).
		Count(&existing).Error; err != nil {
		h.internalError(c, "Failed to create user", err)
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Nickname or email already exists"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalError(c, "Failed to hash password", err)
		return
	}

	user := models.User{
		Nickname:     input.Nickname,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
		LastSignedIn: time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Nickname or email already exists"})
			return
		}
		h.internalError(c, "Failed to create user", err)
		return
	}

	h.issueToken(c, http.StatusCreated, user.ID)
}

// Login godoc
// @Summary      Log in a user
// @Description  Authenticates a user with nickname/email and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      503  {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db, ok := h.db(c)
	if !ok {
		return
	}

	login := strings.TrimSpace(input.Login)
	var user models.User
	if err := db.Where("nickname = ? OR email = ?", login, strings.ToLower(login)).First(&user).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.internalError(c, "Failed to log in", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := db.Model(&user).UpdateColumn("last_signed_in", time.Now()).Error; err != nil {
		h.logger.Warn("failed to record sign-in", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	h.issueToken(c, http.StatusOK, user.ID)
}

// Me godoc
// @Summary      Get current user
// @Description  Returns the authenticated user's private profile, or null for anonymous callers.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusOK, nil)
		return
	}

	db, ok := h.db(c)
	if !ok {
		return
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusOK, nil)
			return
		}
		h.internalError(c, "Failed to load user", err)
		return
	}
	c.JSON(http.StatusOK, newPrivateUserResponse(user))
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the bearer token used for this request.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  SuccessResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	revoked, err := h.auth.Revoke(c)
	if err != nil {
		h.internalError(c, "Failed to revoke token", err)
		return
	}
	if !revoked {
		h.logger.Debug("logout without revocation store", zap.Uint("user_id", mustUserID(c)))
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *Handler) issueToken(c *gin.Context, status int, userID uint) {
	token, claims, err := h.tokens.GenerateToken(userID)
	if err != nil {
		h.internalError(c, "Failed to generate token", err)
		return
	}
	c.JSON(status, TokenResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time})
}
