package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gamequest/backend/internal/aggregate"
	"gamequest/backend/internal/auth"
	"gamequest/backend/internal/database"
	"gamequest/backend/internal/database/databasetest"
	"gamequest/backend/internal/handler"
	"gamequest/backend/internal/metrics"
	"gamequest/backend/internal/models"
	"gamequest/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiEnv struct {
	store  *database.Store
	db     *gorm.DB
	tokens *jwt.Manager
	router *gin.Engine
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	store := databasetest.NewStore(t)
	lg := zap.NewNop()
	tokens := jwt.NewManager("test-secret", time.Hour)
	engine := aggregate.NewEngine(store, lg, metrics.NewEngine(nil))
	h := handler.New(store, engine, tokens, auth.NewMiddleware(tokens, nil, store, lg), lg)

	r := gin.New()
	h.RegisterRoutes(r)
	return &apiEnv{store: store, db: databasetest.DB(t, store), tokens: tokens, router: r}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) user(t *testing.T, nick string, role models.Role) (models.User, string) {
	t.Helper()
	u := models.User{Nickname: nick, Email: nick + "@example.com", PasswordHash: "x", Role: role}
	require.NoError(t, e.db.Create(&u).Error)
	token, _, err := e.tokens.GenerateToken(u.ID)
	require.NoError(t, err)
	return u, token
}

func (e *apiEnv) game(t *testing.T, title string) models.Game {
	t.Helper()
	g := models.Game{Title: title}
	require.NoError(t, e.db.Create(&g).Error)
	return g
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestRegisterAndLogin(t *testing.T) {
	env := newAPI(t)

	reg := handler.RegisterInput{Nickname: "alice", Email: "Alice@Example.com", Password: "password123"}
	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", reg)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := decode[handler.TokenResponse](t, w).Token
	require.NotEmpty(t, token)

	w = env.do(t, http.MethodPost, "/api/v1/auth/register", "", reg)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/register", "", handler.RegisterInput{Nickname: "bob", Email: "bob@example.com", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", handler.LoginInput{Login: "alice@example.com", Password: "password123"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", handler.LoginInput{Login: "alice", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[handler.PrivateUserResponse](t, w)
	assert.Equal(t, "alice", me.Nickname)
	assert.Equal(t, "alice@example.com", me.Email)

	w = env.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}

func TestAddToLibrary_Duplicate(t *testing.T) {
	env := newAPI(t)
	_, token := env.user(t, "alice", models.RoleUser)
	g := env.game(t, "Hollow Knight")

	w := env.do(t, http.MethodPost, "/api/v1/library", token, handler.AddToLibraryInput{GameID: g.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/library", token, handler.AddToLibraryInput{GameID: g.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Game already in library", decode[handler.ErrorResponse](t, w).Error)

	w = env.do(t, http.MethodGet, "/api/v1/library", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]handler.LibraryEntryResponse](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, models.StatusBacklog, entries[0].Status)
	require.NotNil(t, entries[0].Game)
	assert.Equal(t, "Hollow Knight", entries[0].Game.Title)

	w = env.do(t, http.MethodGet, "/api/v1/library?status=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFollowEndpoints(t *testing.T) {
	env := newAPI(t)
	alice, aliceToken := env.user(t, "alice", models.RoleUser)
	bob, _ := env.user(t, "bob", models.RoleUser)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", alice.ID), aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/following", alice.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	following := decode[[]handler.FollowResponse](t, w)
	require.Len(t, following, 1)
	assert.Equal(t, "bob", following[0].User.Nickname)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[handler.PublicUserResponse](t, w)
	assert.Equal(t, int64(1), profile.FollowersCount)
	require.NotNil(t, profile.IsFollowing)
	assert.True(t, *profile.IsFollowing)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/unfollow", bob.ID), aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/is-following", bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"is_following": false}`, w.Body.String())
}

func TestStorageUnavailable(t *testing.T) {
	env := newAPI(t)
	alice, token := env.user(t, "alice", models.RoleUser)
	g := env.game(t, "Celeste")

	require.NoError(t, env.store.Close())
	require.Equal(t, database.StateUnavailable, env.store.Check(context.Background()))

	w := env.do(t, http.MethodPost, "/api/v1/library", token, handler.AddToLibraryInput{GameID: g.ID})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = env.do(t, http.MethodPost, "/api/v1/reviews", token, handler.CreateReviewInput{GameID: g.ID, Rating: 8, Content: "good"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/games/%d", g.ID), "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/games", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[handler.PaginatedResponse[handler.GameResponse]](t, w)
	assert.Empty(t, page.Data)
	assert.Zero(t, page.Meta.TotalItems)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/activities", alice.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", decode[handler.HealthResponse](t, w).Storage)
}

func TestStorageLostBeforeHealthTick(t *testing.T) {
	env := newAPI(t)
	_, token := env.user(t, "alice", models.RoleUser)
	g := env.game(t, "Celeste")

	require.NoError(t, env.store.Close())
	require.Equal(t, database.StateHealthy, env.store.State())

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/games/%d", g.ID), "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())
	assert.Equal(t, database.StateUnavailable, env.store.State())

	w = env.do(t, http.MethodPost, "/api/v1/library", token, handler.AddToLibraryInput{GameID: g.ID})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetUserActivities_DefaultLimit(t *testing.T) {
	env := newAPI(t)
	alice, _ := env.user(t, "alice", models.RoleUser)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	activities := make([]models.Activity, 60)
	for i := range activities {
		activities[i] = models.Activity{
			UserID:       alice.ID,
			ActivityType: models.ActivityGameAdded,
			EntityID:     uint(i + 1),
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
	}
	require.NoError(t, env.db.Create(&activities).Error)

	path := fmt.Sprintf("/api/v1/users/%d/activities", alice.ID)
	w := env.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[[]handler.ActivityResponse](t, w)
	require.Len(t, got, 50)
	assert.Equal(t, uint(60), got[0].EntityID)

	w = env.do(t, http.MethodGet, path+"?limit=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]handler.ActivityResponse](t, w), 5)
}

func TestFeed(t *testing.T) {
	env := newAPI(t)
	alice, token := env.user(t, "alice", models.RoleUser)
	bob, _ := env.user(t, "bob", models.RoleUser)
	carol, _ := env.user(t, "carol", models.RoleUser)
	require.NoError(t, env.db.Create(&models.Follower{FollowerID: alice.ID, FollowingID: bob.ID}).Error)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	activities := []models.Activity{
		{UserID: alice.ID, ActivityType: models.ActivityGameAdded, EntityID: 1, CreatedAt: base},
		{UserID: bob.ID, ActivityType: models.ActivityReview, EntityID: 2, CreatedAt: base.Add(2 * time.Hour)},
		{UserID: carol.ID, ActivityType: models.ActivityGuide, EntityID: 3, CreatedAt: base.Add(3 * time.Hour)},
		{UserID: bob.ID, ActivityType: models.ActivityAchievement, EntityID: 4, CreatedAt: base.Add(time.Hour)},
	}
	require.NoError(t, env.db.Create(&activities).Error)

	w := env.do(t, http.MethodGet, "/api/v1/feed", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decode[[]handler.ActivityResponse](t, w)
	require.Len(t, feed, 3)
	assert.Equal(t, []uint{2, 4, 1}, []uint{feed[0].EntityID, feed[1].EntityID, feed[2].EntityID})
	assert.Equal(t, "bob", feed[0].User.Nickname)

	w = env.do(t, http.MethodGet, "/api/v1/feed?limit=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]handler.ActivityResponse](t, w), 1)

	w = env.do(t, http.MethodGet, "/api/v1/feed", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetGames_Filters(t *testing.T) {
	env := newAPI(t)
	rpg := models.Tag{Name: "RPG", Category: models.TagCategoryGenre}
	pc := models.Platform{Name: "PC"}
	require.NoError(t, env.db.Create(&rpg).Error)
	require.NoError(t, env.db.Create(&pc).Error)

	elden := models.Game{Title: "Elden Ring", Tags: []*models.Tag{&rpg}, Platforms: []*models.Platform{&pc}}
	require.NoError(t, env.db.Create(&elden).Error)
	env.game(t, "Tetris")
	require.NoError(t, env.db.Create(&models.Game{Title: "Ring Fit Adventure", Tags: []*models.Tag{&rpg}}).Error)

	testCases := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "all newest first", query: "", want: []string{"Ring Fit Adventure", "Tetris", "Elden Ring"}},
		{name: "title search ignores case", query: "?q=rInG", want: []string{"Ring Fit Adventure", "Elden Ring"}},
		{name: "tag filter", query: fmt.Sprintf("?tag_ids=%d", rpg.ID), want: []string{"Ring Fit Adventure", "Elden Ring"}},
		{name: "platform filter", query: fmt.Sprintf("?platform_ids=%d", pc.ID), want: []string{"Elden Ring"}},
		{name: "page size", query: "?limit=2&page=2", want: []string{"Elden Ring"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/v1/games"+tc.query, "", nil)
			require.Equal(t, http.StatusOK, w.Code)
			page := decode[handler.PaginatedResponse[handler.GameResponse]](t, w)
			titles := make([]string, 0, len(page.Data))
			for _, g := range page.Data {
				titles = append(titles, g.Title)
			}
			assert.Equal(t, tc.want, titles)
		})
	}
}

func TestReviewUpdatesGameRating(t *testing.T) {
	env := newAPI(t)
	_, aliceToken := env.user(t, "alice", models.RoleUser)
	_, bobToken := env.user(t, "bob", models.RoleUser)
	g := env.game(t, "Hades")

	w := env.do(t, http.MethodPost, "/api/v1/reviews", aliceToken, handler.CreateReviewInput{GameID: g.ID, Rating: 9, Content: "Great"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reviewID := decode[handler.IDResponse](t, w).ID
	w = env.do(t, http.MethodPost, "/api/v1/reviews", bobToken, handler.CreateReviewInput{GameID: g.ID, Rating: 6, Content: "Fine"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodPost, "/api/v1/reviews", bobToken, handler.CreateReviewInput{GameID: g.ID, Rating: 6, Content: "Again"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(t, http.MethodPost, "/api/v1/reviews", bobToken, handler.CreateReviewInput{GameID: g.ID, Rating: 11, Content: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/games/%d", g.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[handler.GameDetailResponse](t, w)
	assert.Equal(t, 8, detail.AverageRating)
	assert.Equal(t, 2, detail.TotalReviews)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/reviews/%d", reviewID), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/games/%d/reviews", g.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[handler.PaginatedResponse[handler.ReviewResponse]](t, w)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "bob", page.Data[0].User.Nickname)
}

func TestGuideLifecycle(t *testing.T) {
	env := newAPI(t)
	_, aliceToken := env.user(t, "alice", models.RoleUser)
	_, bobToken := env.user(t, "bob", models.RoleUser)
	g := env.game(t, "Zelda")

	w := env.do(t, http.MethodPost, "/api/v1/guides", aliceToken, handler.CreateGuideInput{GameID: g.ID, Title: "All shrines"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	guideID := decode[handler.IDResponse](t, w).ID

	x, y := 10, 20
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/guides/%d/markers", guideID), bobToken,
		handler.MarkerInput{Title: "Shrine", PositionX: &x, PositionY: &y})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/guides/%d/markers", guideID), aliceToken,
		handler.MarkerInput{Title: "Shrine", PositionX: &x, PositionY: &y})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	markerID := decode[handler.IDResponse](t, w).ID

	for want := 1; want <= 2; want++ {
		w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/guides/%d", guideID), "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		guide := decode[handler.GuideResponse](t, w)
		assert.Equal(t, want, guide.Views)
		require.Len(t, guide.Markers, 1)
		assert.Equal(t, "alice", guide.User.Nickname)
	}

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/markers/%d", markerID), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/markers/%d", markerID), aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/games/%d/guides", g.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]handler.GuideResponse](t, w), 1)
}

func TestCommentsAndVotes(t *testing.T) {
	env := newAPI(t)
	_, aliceToken := env.user(t, "alice", models.RoleUser)
	_, bobToken := env.user(t, "bob", models.RoleUser)

	w := env.do(t, http.MethodPost, "/api/v1/comments", aliceToken,
		handler.CreateCommentInput{EntityType: models.CommentOnGuide, EntityID: 7, Content: "Thanks!"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	commentID := decode[handler.IDResponse](t, w).ID

	w = env.do(t, http.MethodPost, "/api/v1/comments", aliceToken,
		handler.CreateCommentInput{EntityType: "game", EntityID: 7, Content: "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", commentID), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/comments?entity_type=guide&entity_id=7", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decode[[]handler.CommentResponse](t, w)
	require.Len(t, comments, 1)
	assert.Equal(t, "Thanks!", comments[0].Content)

	vote := handler.VoteInput{EntityType: models.VoteOnComment, EntityID: commentID, VoteType: models.VoteUp}
	w = env.do(t, http.MethodPost, "/api/v1/votes", bobToken, vote)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	vote.VoteType = models.VoteDown
	w = env.do(t, http.MethodPost, "/api/v1/votes", bobToken, vote)
	require.Equal(t, http.StatusOK, w.Code)

	target := fmt.Sprintf("/api/v1/votes?entity_type=comment&entity_id=%d", commentID)
	w = env.do(t, http.MethodGet, target, bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.VoteDown, decode[handler.VoteResponse](t, w).VoteType)

	w = env.do(t, http.MethodDelete, target, bobToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, target, bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}

func TestAdminRoutes(t *testing.T) {
	env := newAPI(t)
	_, userToken := env.user(t, "alice", models.RoleUser)
	_, adminToken := env.user(t, "root", models.RoleAdmin)
	tag := models.Tag{Name: "Puzzle", Category: models.TagCategoryGameplay}
	require.NoError(t, env.db.Create(&tag).Error)

	path := fmt.Sprintf("/api/v1/admin/tags/%d", tag.ID)
	input := handler.TagInput{Name: "Puzzles", Category: models.TagCategoryTheme}

	w := env.do(t, http.MethodPut, path, "", input)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, http.MethodPut, path, userToken, input)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodPut, path, adminToken, input)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[handler.TagResponse](t, w)
	assert.Equal(t, "Puzzles", updated.Name)
	assert.Equal(t, models.TagCategoryTheme, updated.Category)

	g := env.game(t, "Portal")
	require.NoError(t, env.db.Exec("INSERT INTO game_tags (game_id, tag_id) VALUES (?, ?)", g.ID, tag.ID).Error)

	w = env.do(t, http.MethodDelete, path, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, path, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var links int64
	require.NoError(t, env.db.Table("game_tags").Where("tag_id = ?", tag.ID).Count(&links).Error)
	assert.Zero(t, links)

	// The name is free again once the tag is gone.
	w = env.do(t, http.MethodPost, "/api/v1/tags", userToken, handler.TagInput{Name: "Puzzles"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, models.TagCategoryGenre, decode[handler.TagResponse](t, w).Category)
}

func TestPing(t *testing.T) {
	env := newAPI(t)
	w := env.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[handler.HealthResponse](t, w).Storage)
}

func TestAchievementEndpoints(t *testing.T) {
	env := newAPI(t)
	alice, aliceToken := env.user(t, "alice", models.RoleUser)
	_, bobToken := env.user(t, "bob", models.RoleUser)
	g := env.game(t, "Hollow Knight")
	other := env.game(t, "Celeste")

	create := func(gameID uint, title string, points int) uint {
		w := env.do(t, http.MethodPost, "/api/v1/achievements", aliceToken,
			handler.CreateAchievementInput{GameID: gameID, Title: title, Points: points})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return decode[handler.IDResponse](t, w).ID
	}
	hard := create(g.ID, "Steel Soul", 100)
	easy := create(g.ID, "Falsehood", 10)
	strawberry := create(other.ID, "Strawberry", 5)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/games/%d/achievements", g.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]handler.AchievementResponse](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, easy, list[0].ID)
	assert.Equal(t, hard, list[1].ID)

	for _, id := range []uint{hard, strawberry} {
		w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/achievements/%d/unlock", id), aliceToken, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/achievements/%d/unlock", hard), aliceToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Achievement already unlocked", decode[handler.ErrorResponse](t, w).Error)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/achievements?game_id=%d", alice.ID, g.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	unlocks := decode[[]handler.UserAchievementResponse](t, w)
	require.Len(t, unlocks, 1)
	assert.Equal(t, hard, unlocks[0].Achievement.ID)

	path := fmt.Sprintf("/api/v1/achievements/%d/difficulty", hard)
	w = env.do(t, http.MethodPost, path, aliceToken, handler.DifficultyVoteInput{Difficulty: 4})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, path, bobToken, handler.DifficultyVoteInput{Difficulty: 8})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodPost, path, bobToken, handler.DifficultyVoteInput{Difficulty: 9})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(t, http.MethodPost, path, bobToken, handler.DifficultyVoteInput{Difficulty: 11})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/achievements/%d", hard), bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[handler.AchievementDetailResponse](t, w)
	assert.Equal(t, 6, detail.DifficultyRating)
	assert.Equal(t, 2, detail.TotalDifficultyVotes)
	assert.Equal(t, 1, detail.TotalUnlocks)
	require.NotNil(t, detail.Unlocked)
	assert.False(t, *detail.Unlocked)
	require.NotNil(t, detail.UserDifficulty)
	assert.Equal(t, 8, *detail.UserDifficulty)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/games/%d", g.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[handler.GameDetailResponse](t, w).TotalAchievements)
}
