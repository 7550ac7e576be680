package aggregate_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"gamequest/backend/internal/aggregate"
	"gamequest/backend/internal/database"
	"gamequest/backend/internal/database/databasetest"
	"gamequest/backend/internal/metrics"
	"gamequest/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	store  *database.Store
	db     *gorm.DB
	engine *aggregate.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := databasetest.NewStore(t)
	return &fixture{
		store:  s,
		db:     databasetest.DB(t, s),
		engine: aggregate.NewEngine(s, zap.NewNop(), metrics.NewEngine(nil)),
	}
}

func (f *fixture) user(t *testing.T, nick string) models.User {
	t.Helper()
	u := models.User{Nickname: nick, Email: nick + "@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) game(t *testing.T, title string) models.Game {
	t.Helper()
	g := models.Game{Title: title}
	require.NoError(t, f.db.Create(&g).Error)
	return g
}

func (f *fixture) achievement(t *testing.T, gameID uint) models.Achievement {
	t.Helper()
	a := models.Achievement{GameID: gameID, Title: "Completionist", Points: 50}
	require.NoError(t, f.db.Create(&a).Error)
	return a
}

func (f *fixture) reload(t *testing.T, dest any, id uint) {
	t.Helper()
	require.NoError(t, f.db.First(dest, id).Error)
}

func TestMeanRounded(t *testing.T) {
	testCases := []struct {
		name   string
		values []int
		want   int
	}{
		{name: "empty", values: nil, want: 0},
		{name: "single", values: []int{7}, want: 7},
		{name: "exact", values: []int{4, 8}, want: 6},
		{name: "half rounds up", values: []int{5, 6}, want: 6},
		{name: "rounds down", values: []int{1, 1, 2}, want: 1},
		{name: "rounds up", values: []int{1, 2, 2}, want: 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, aggregate.MeanRounded(tc.values))
		})
	}
}

// region --- Difficulty votes ---

func TestRecordDifficultyVote_TwoVoters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.game(t, "Hollow Knight")
	a := f.achievement(t, g.ID)
	u1, u2 := f.user(t, "alice"), f.user(t, "bob")

	_, err := f.engine.RecordDifficultyVote(ctx, u1.ID, a.ID, 4)
	require.NoError(t, err)
	_, err = f.engine.RecordDifficultyVote(ctx, u2.ID, a.ID, 8)
	require.NoError(t, err)

	var got models.Achievement
	f.reload(t, &got, a.ID)
	assert.Equal(t, 6, got.DifficultyRating)
	assert.Equal(t, 2, got.TotalDifficultyVotes)
}

func TestRecordDifficultyVote_SerialVotesMatchMean(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.achievement(t, f.game(t, "Celeste").ID)

	values := []int{3, 9, 10, 1, 6, 7}
	for i, v := range values {
		u := f.user(t, fmt.Sprintf("voter%d", i))
		_, err := f.engine.RecordDifficultyVote(ctx, u.ID, a.ID, v)
		require.NoError(t, err)
	}

	var got models.Achievement
	f.reload(t, &got, a.ID)
	assert.Equal(t, aggregate.MeanRounded(values), got.DifficultyRating)
	assert.Equal(t, len(values), got.TotalDifficultyVotes)
}

// The test store has a single connection, so calls run one at a time here.
// This covers the recompute over overlapping callers, not the row lock.
func TestRecordDifficultyVote_OverlappingCallersConverge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.achievement(t, f.game(t, "Dark Souls").ID)

	const voters = 8
	users := make([]models.User, voters)
	for i := range users {
		users[i] = f.user(t, fmt.Sprintf("racer%d", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, voters)
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.RecordDifficultyVote(ctx, users[i].ID, a.ID, i+1)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	var got models.Achievement
	f.reload(t, &got, a.ID)
	assert.Equal(t, voters, got.TotalDifficultyVotes)
	assert.Equal(t, aggregate.MeanRounded([]int{1, 2, 3, 4, 5, 6, 7, 8}), got.DifficultyRating)
}

func TestRecordDifficultyVote_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.achievement(t, f.game(t, "Sekiro").ID)
	u := f.user(t, "carol")

	_, err := f.engine.RecordDifficultyVote(ctx, u.ID, a.ID, 0)
	assert.ErrorIs(t, err, aggregate.ErrInvalidInput)
	_, err = f.engine.RecordDifficultyVote(ctx, u.ID, a.ID, 11)
	assert.ErrorIs(t, err, aggregate.ErrInvalidInput)

	_, err = f.engine.RecordDifficultyVote(ctx, u.ID, 9999, 5)
	assert.ErrorIs(t, err, aggregate.ErrNotFound)

	_, err = f.engine.RecordDifficultyVote(ctx, u.ID, a.ID, 5)
	require.NoError(t, err)
	_, err = f.engine.RecordDifficultyVote(ctx, u.ID, a.ID, 9)
	assert.ErrorIs(t, err, aggregate.ErrDuplicateVote)

	var got models.Achievement
	f.reload(t, &got, a.ID)
	assert.Equal(t, 5, got.DifficultyRating)
	assert.Equal(t, 1, got.TotalDifficultyVotes)
}

func TestRemoveDifficultyVote_AllowsRevote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.achievement(t, f.game(t, "Cuphead").ID)
	u := f.user(t, "dave")

	_, err := f.engine.RecordDifficultyVote(ctx, u.ID, a.ID, 2)
	require.NoError(t, err)
	require.NoError(t, f.engine.RemoveDifficultyVote(ctx, u.ID, a.ID))

	var got models.Achievement
	f.reload(t, &got, a.ID)
	assert.Equal(t, 0, got.DifficultyRating)
	assert.Equal(t, 0, got.TotalDifficultyVotes)

	_, err = f.engine.RecordDifficultyVote(ctx, u.ID, a.ID, 9)
	require.NoError(t, err)
	f.reload(t, &got, a.ID)
	assert.Equal(t, 9, got.DifficultyRating)

	err = f.engine.RemoveDifficultyVote(ctx, f.user(t, "erin").ID, a.ID)
	assert.ErrorIs(t, err, aggregate.ErrNotFound)
}

// endregion

// region --- Unlocks and catalog ---

func TestUnlockAchievement_DuplicateCountsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.achievement(t, f.game(t, "Hades").ID)
	u := f.user(t, "frank")

	_, err := f.engine.UnlockAchievement(ctx, u.ID, a.ID)
	require.NoError(t, err)
	_, err = f.engine.UnlockAchievement(ctx, u.ID, a.ID)
	assert.ErrorIs(t, err, aggregate.ErrDuplicateUnlock)

	var got models.Achievement
	f.reload(t, &got, a.ID)
	assert.Equal(t, 1, got.TotalUnlocks)

	var activities int64
	require.NoError(t, f.db.Model(&models.Activity{}).
		Where("user_id = ? AND activity_type = ?", u.ID, models.ActivityAchievement).
		Count(&activities).Error)
	assert.EqualValues(t, 1, activities)
}

func TestUnlockAchievement_MissingAchievementRollsBack(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "grace")

	_, err := f.engine.UnlockAchievement(context.Background(), u.ID, 4242)
	assert.ErrorIs(t, err, aggregate.ErrNotFound)

	var unlocks int64
	require.NoError(t, f.db.Model(&models.UserAchievement{}).Count(&unlocks).Error)
	assert.Zero(t, unlocks)
}

func TestCreateAchievement_BumpsGameCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.game(t, "Stardew Valley")

	for _, title := range []string{"Greenhorn", "Cowpoke"} {
		_, err := f.engine.CreateAchievement(ctx, aggregate.AchievementInput{GameID: g.ID, Title: title, Points: 10})
		require.NoError(t, err)
	}
	_, err := f.engine.CreateAchievement(ctx, aggregate.AchievementInput{GameID: g.ID, Title: "  "})
	assert.ErrorIs(t, err, aggregate.ErrInvalidInput)
	_, err = f.engine.CreateAchievement(ctx, aggregate.AchievementInput{GameID: 777, Title: "Ghost"})
	assert.ErrorIs(t, err, aggregate.ErrNotFound)

	var got models.Game
	f.reload(t, &got, g.ID)
	assert.Equal(t, 2, got.TotalAchievements)

	var n int64
	require.NoError(t, f.db.Model(&models.Achievement{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}

// endregion

// region --- Library ---

func TestAddToLibrary_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.game(t, "Outer Wilds")
	u := f.user(t, "heidi")

	entry, err := f.engine.AddToLibrary(ctx, u.ID, g.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusBacklog, entry.Status)

	_, err = f.engine.AddToLibrary(ctx, u.ID, g.ID, models.StatusPlaying)
	require.ErrorIs(t, err, aggregate.ErrAlreadyExists)
	assert.EqualError(t, err, "Game already in library")

	var n int64
	require.NoError(t, f.db.Model(&models.UserLibrary{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestAddToLibrary_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ivan")

	_, err := f.engine.AddToLibrary(ctx, u.ID, f.game(t, "Tunic").ID, "abandoned")
	assert.ErrorIs(t, err, aggregate.ErrInvalidInput)

	_, err = f.engine.AddToLibrary(ctx, u.ID, 31337, models.StatusBacklog)
	assert.ErrorIs(t, err, aggregate.ErrNotFound)
}

func TestUpdateLibraryEntry_CompletedTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.game(t, "Portal 2")
	u := f.user(t, "judy")
	entry, err := f.engine.AddToLibrary(ctx, u.ID, g.ID, models.StatusPlaying)
	require.NoError(t, err)

	completed := models.StatusCompleted
	hours := 12
	updated, err := f.engine.UpdateLibraryEntry(ctx, u.ID, entry.ID, aggregate.LibraryPatch{Status: &completed, HoursPlayed: &hours})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, 12, updated.HoursPlayed)

	// Staying in completed does not log again.
	_, err = f.engine.UpdateLibraryEntry(ctx, u.ID, entry.ID, aggregate.LibraryPatch{Status: &completed})
	require.NoError(t, err)

	var acts []models.Activity
	require.NoError(t, f.db.Where("user_id = ? AND activity_type = ?", u.ID, models.ActivityGameCompleted).Find(&acts).Error)
	require.Len(t, acts, 1)
	assert.Equal(t, g.ID, acts[0].EntityID)
}

func TestUpdateLibraryEntry_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, other := f.user(t, "ken"), f.user(t, "lena")
	entry, err := f.engine.AddToLibrary(ctx, owner.ID, f.game(t, "Inside").ID, "")
	require.NoError(t, err)

	fav := true
	_, err = f.engine.UpdateLibraryEntry(ctx, other.ID, entry.ID, aggregate.LibraryPatch{IsFavorite: &fav})
	assert.ErrorIs(t, err, aggregate.ErrForbidden)
	assert.ErrorIs(t, f.engine.RemoveFromLibrary(ctx, other.ID, entry.ID), aggregate.ErrForbidden)

	bad := 11
	_, err = f.engine.UpdateLibraryEntry(ctx, owner.ID, entry.ID, aggregate.LibraryPatch{PersonalRating: &bad})
	assert.ErrorIs(t, err, aggregate.ErrInvalidInput)

	require.NoError(t, f.engine.RemoveFromLibrary(ctx, owner.ID, entry.ID))
	assert.ErrorIs(t, f.engine.RemoveFromLibrary(ctx, owner.ID, entry.ID), aggregate.ErrNotFound)
}

// endregion

// region --- Reviews ---

func TestReviews_MaintainGameAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.game(t, "Elden Ring")
	u1, u2 := f.user(t, "mallory"), f.user(t, "nina")

	r1, err := f.engine.AddReview(ctx, u1.ID, aggregate.ReviewInput{GameID: g.ID, Rating: 9, Content: "Great"})
	require.NoError(t, err)
	_, err = f.engine.AddReview(ctx, u2.ID, aggregate.ReviewInput{GameID: g.ID, Rating: 6, Content: "Fine"})
	require.NoError(t, err)

	var got models.Game
	f.reload(t, &got, g.ID)
	assert.Equal(t, 8, got.AverageRating)
	assert.Equal(t, 2, got.TotalRatings)
	assert.Equal(t, 2, got.TotalReviews)

	_, err = f.engine.AddReview(ctx, u1.ID, aggregate.ReviewInput{GameID: g.ID, Rating: 1, Content: "Again"})
	require.ErrorIs(t, err, aggregate.ErrAlreadyExists)
	assert.EqualError(t, err, "You already reviewed this game")

	low := 2
	_, err = f.engine.UpdateReview(ctx, u2.ID, r1.ID, aggregate.ReviewPatch{Rating: &low})
	assert.ErrorIs(t, err, aggregate.ErrForbidden)

	updated, err := f.engine.UpdateReview(ctx, u1.ID, r1.ID, aggregate.ReviewPatch{Rating: &low})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)
	f.reload(t, &got, g.ID)
	assert.Equal(t, 4, got.AverageRating)

	require.NoError(t, f.engine.DeleteReview(ctx, u1.ID, r1.ID))
	f.reload(t, &got, g.ID)
	assert.Equal(t, 6, got.AverageRating)
	assert.Equal(t, 1, got.TotalReviews)
}

func TestAddReview_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "oscar")
	g := f.game(t, "Braid")

	_, err := f.engine.AddReview(ctx, u.ID, aggregate.ReviewInput{GameID: g.ID, Rating: 0, Content: "x"})
	assert.ErrorIs(t, err, aggregate.ErrInvalidInput)
	_, err = f.engine.AddReview(ctx, u.ID, aggregate.ReviewInput{GameID: g.ID, Rating: 5, Content: " "})
	assert.ErrorIs(t, err, aggregate.ErrInvalidInput)
	_, err = f.engine.AddReview(ctx, u.ID, aggregate.ReviewInput{GameID: 999, Rating: 5, Content: "x"})
	assert.ErrorIs(t, err, aggregate.ErrNotFound)
}

// endregion

// region --- Guides, votes, follows ---

func TestCreateGuide_OnePerUserAndGame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.game(t, "Metroid Dread")
	u := f.user(t, "peggy")

	guide, err := f.engine.CreateGuide(ctx, u.ID, aggregate.GuideInput{GameID: g.ID, Title: "All upgrades"})
	require.NoError(t, err)
	assert.Equal(t, 1, guide.Version)
	assert.True(t, guide.IsLatest)

	_, err = f.engine.CreateGuide(ctx, u.ID, aggregate.GuideInput{GameID: g.ID, Title: "Again"})
	require.ErrorIs(t, err, aggregate.ErrAlreadyExists)
	assert.EqualError(t, err, "You already have a guide for this game")

	require.NoError(t, f.engine.RecordGuideView(ctx, guide.ID))
	require.NoError(t, f.engine.RecordGuideView(ctx, guide.ID))
	var got models.Guide
	f.reload(t, &got, guide.ID)
	assert.Equal(t, 2, got.Views)

	assert.ErrorIs(t, f.engine.RecordGuideView(ctx, 5150), aggregate.ErrNotFound)
}

func TestToggleVote_UpThenDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "quinn")

	first, err := f.engine.ToggleVote(ctx, u.ID, models.VoteOnReview, 7, models.VoteUp)
	require.NoError(t, err)
	second, err := f.engine.ToggleVote(ctx, u.ID, models.VoteOnReview, 7, models.VoteDown)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	var votes []models.Vote
	require.NoError(t, f.db.Where("user_id = ?", u.ID).Find(&votes).Error)
	require.Len(t, votes, 1)
	assert.Equal(t, models.VoteDown, votes[0].VoteType)

	_, err = f.engine.ToggleVote(ctx, u.ID, "poll", 7, models.VoteUp)
	assert.ErrorIs(t, err, aggregate.ErrInvalidInput)
	_, err = f.engine.ToggleVote(ctx, u.ID, models.VoteOnReview, 7, "meh")
	assert.ErrorIs(t, err, aggregate.ErrInvalidInput)

	require.NoError(t, f.engine.RemoveVote(ctx, u.ID, models.VoteOnReview, 7))
	require.NoError(t, f.engine.RemoveVote(ctx, u.ID, models.VoteOnReview, 7))
	var n int64
	require.NoError(t, f.db.Model(&models.Vote{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestFollow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "rita"), f.user(t, "sam")

	_, err := f.engine.Follow(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, aggregate.ErrInvalidInput)

	_, err = f.engine.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.engine.Follow(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, aggregate.ErrAlreadyExists)
	_, err = f.engine.Follow(ctx, a.ID, 8080)
	assert.ErrorIs(t, err, aggregate.ErrNotFound)

	removed, err := f.engine.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = f.engine.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

// endregion

func TestEngine_StorageUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "trent")
	a := f.achievement(t, f.game(t, "Limbo").ID)

	require.NoError(t, f.store.Close())
	require.Equal(t, database.StateUnavailable, f.store.Check(ctx))

	_, err := f.engine.RecordDifficultyVote(ctx, u.ID, a.ID, 5)
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)
	_, err = f.engine.UnlockAchievement(ctx, u.ID, a.ID)
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)
	_, err = f.engine.AddToLibrary(ctx, u.ID, a.GameID, "")
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)
	_, err = f.engine.ToggleVote(ctx, u.ID, models.VoteOnGuide, 1, models.VoteHelpful)
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)

	// Validation still happens before storage is consulted.
	_, err = f.engine.RecordDifficultyVote(ctx, u.ID, a.ID, 42)
	assert.ErrorIs(t, err, aggregate.ErrInvalidInput)
}
