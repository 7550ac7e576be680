package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gamequest/backend/internal/auth"
	"gamequest/backend/internal/database"
	"gamequest/backend/internal/database/databasetest"
	"gamequest/backend/internal/models"
	"gamequest/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func newMemDenylist() *memDenylist {
	return &memDenylist{revoked: map[string]time.Duration{}}
}

func (d *memDenylist) Revoke(_ context.Context, id string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[id] = ttl
	return nil
}

func (d *memDenylist) IsRevoked(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.revoked[id]
	return ok, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	store  *database.Store
	router *gin.Engine
	tokens *jwt.Manager
	db     *gorm.DB
}

func newEnv(t *testing.T, denylist auth.Denylist) *testEnv {
	t.Helper()
	store := databasetest.NewStore(t)
	tokens := jwt.NewManager("test-secret", time.Hour)
	mw := auth.NewMiddleware(tokens, denylist, store, zap.NewNop())

	r := gin.New()
	r.GET("/optional", mw.OptionalAuthMiddleware(), func(c *gin.Context) {
		id, ok := auth.UserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "ok": ok})
	})
	authed := r.Group("/", mw.AuthMiddleware())
	authed.GET("/private", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	authed.POST("/logout", func(c *gin.Context) {
		revoked, err := mw.Revoke(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"revoked": revoked})
	})
	authed.GET("/admin", mw.AdminMiddleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	return &testEnv{store: store, router: r, tokens: tokens, db: databasetest.DB(t, store)}
}

func (e *testEnv) do(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) token(t *testing.T, userID uint) string {
	t.Helper()
	token, _, err := e.tokens.GenerateToken(userID)
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware(t *testing.T) {
	env := newEnv(t, nil)

	testCases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc", want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + env.token(t, 5), want: http.StatusNoContent},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	env := newEnv(t, nil)

	var body struct {
		ID uint `json:"id"`
		OK bool `json:"ok"`
	}
	w := env.do(t, http.MethodGet, "/optional", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.OK)

	w = env.do(t, http.MethodGet, "/optional", "broken")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.OK)

	w = env.do(t, http.MethodGet, "/optional", env.token(t, 9))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, uint(9), body.ID)
}

func TestLogout_RevokesToken(t *testing.T) {
	denylist := newMemDenylist()
	env := newEnv(t, denylist)
	token := env.token(t, 1)

	w := env.do(t, http.MethodPost, "/logout", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"revoked":true}`, w.Body.String())
	assert.Len(t, denylist.revoked, 1)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/private", token).Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodGet, "/private", env.token(t, 1)).Code)
}

func TestLogout_WithoutDenylist(t *testing.T) {
	env := newEnv(t, nil)
	w := env.do(t, http.MethodPost, "/logout", env.token(t, 1))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"revoked":false}`, w.Body.String())
}

func TestAuthMiddleware_DenylistDownFailsOpen(t *testing.T) {
	denylist := newMemDenylist()
	denylist.err = errors.New("connection refused")
	env := newEnv(t, denylist)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodGet, "/private", env.token(t, 2)).Code)
}

func TestAdminMiddleware(t *testing.T) {
	env := newEnv(t, nil)
	admin := models.User{Nickname: "root", Email: "root@example.com", PasswordHash: "x", Role: models.RoleAdmin}
	player := models.User{Nickname: "player", Email: "player@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, env.db.Create(&admin).Error)
	require.NoError(t, env.db.Create(&player).Error)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodGet, "/admin", env.token(t, admin.ID)).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/admin", env.token(t, player.ID)).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/admin", env.token(t, 4040)).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/admin", "").Code)
}

func TestAdminMiddleware_StorageLostBetweenChecks(t *testing.T) {
	env := newEnv(t, nil)
	admin := models.User{Nickname: "root", Email: "root@example.com", PasswordHash: "x", Role: models.RoleAdmin}
	require.NoError(t, env.db.Create(&admin).Error)
	token := env.token(t, admin.ID)

	// The store still reports healthy until something pings it.
	require.NoError(t, env.store.Close())
	require.Equal(t, database.StateHealthy, env.store.State())

	w := env.do(t, http.MethodGet, "/admin", token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, database.StateUnavailable, env.store.State())
}

func TestRedisDenylist_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	d := auth.NewRedisDenylist(client)
	ctx := context.Background()

	// A token that is already expired needs no entry.
	require.NoError(t, d.Revoke(ctx, "expired", 0))

	assert.Error(t, d.Revoke(ctx, "jti", time.Minute))
	_, err := d.IsRevoked(ctx, "jti")
	assert.Error(t, err)
}
