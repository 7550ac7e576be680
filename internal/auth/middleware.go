package auth

import (
	"errors"
	"net/http"
	"strings"

	"gamequest/backend/internal/database"
	"gamequest/backend/internal/models"
	"gamequest/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by the middlewares.
const (
	ContextUserID = "userID"
	ContextClaims = "claims"
)

// Middleware authenticates bearer tokens. denylist may be nil, in which case
// tokens are only checked for signature and expiry.
type Middleware struct {
	tokens   *jwt.Manager
	denylist Denylist
	store    *database.Store
	logger   *zap.Logger
}

func NewMiddleware(tokens *jwt.Manager, denylist Denylist, store *database.Store, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens:   tokens,
		denylist: denylist,
		store:    store,
		logger:   logger.Named("auth"),
	}
}

// AuthMiddleware rejects requests without a valid, unrevoked token.
func (m *Middleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.authenticate(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware inspects for a token and sets the userID if present and valid,
// but does not fail if the token is missing or invalid.
func (m *Middleware) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := m.authenticate(c); ok {
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextClaims, claims)
		}
		c.Next()
	}
}

// AdminMiddleware checks for the admin role.
// It must be used AFTER AuthMiddleware.
func (m *Middleware) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := UserID(c)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		db, err := m.store.DB(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable"})
			return
		}
		var user models.User
		if err := db.Select("id", "role").First(&user, userID).Error; err != nil {
			if database.IsNotFound(err) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Authenticated user not found"})
				return
			}
			m.logger.Error("failed to load user role", zap.Uint("user_id", userID), zap.Error(err))
			if m.store.Check(c.Request.Context()) != database.StateHealthy {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify role"})
			return
		}

		if user.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Next()
	}
}

func (m *Middleware) authenticate(c *gin.Context) (*jwt.Claims, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return nil, false
	}

	if m.denylist != nil {
		revoked, err := m.denylist.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			// Fail open when the denylist is unreachable.
			m.logger.Warn("denylist lookup failed", zap.Error(err))
		}
		if revoked {
			return nil, false
		}
	}
	return claims, true
}

// Revoke denylists the token behind the current request.
// It reports false when no denylist is configured.
func (m *Middleware) Revoke(c *gin.Context) (bool, error) {
	if m.denylist == nil {
		return false, nil
	}
	v, ok := c.Get(ContextClaims)
	if !ok {
		return false, errors.New("no token on request")
	}
	claims := v.(*jwt.Claims)
	if err := m.denylist.Revoke(c.Request.Context(), claims.ID, m.tokens.Remaining(claims)); err != nil {
		return false, err
	}
	return true, nil
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
