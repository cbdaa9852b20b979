package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/recallbot/internal/clock"
	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedCards(t *testing.T, db *sqlx.DB, ids ...string) {
	t.Helper()
	cards := make([]models.Card, len(ids))
	for i, id := range ids {
		cards[i] = models.Card{ID: id, Front: "front " + id, Back: "back " + id}
	}
	require.NoError(t, NewCardRepository(db, nil).UpsertMany(context.Background(), cards))
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, Migrate(db))
}

func TestCardRepository(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewCardRepository(db, clock.NewFixed(t0))

	cards := []models.Card{
		{ID: "c2", Deck: "go", Front: "goroutine", Back: "lightweight thread", Tags: []string{"go", "concurrency"}},
		{ID: "c1", Deck: "go", Front: "channel", Back: "typed pipe", Hint: "make(chan T)"},
		{ID: "c3", Deck: "es", Front: "hola", Back: "hello"},
	}
	require.NoError(t, repo.UpsertMany(ctx, cards))

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c1", "c3"}, ids)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := repo.Get(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "goroutine", got.Front)
	assert.Equal(t, []string{"go", "concurrency"}, got.Tags)
	assert.True(t, got.CreatedAt.Equal(t0))

	goCards, err := repo.List(ctx, "go")
	require.NoError(t, err)
	assert.Len(t, goCards, 2)

	updated := got
	updated.Back = "goroutine: function running concurrently"
	require.NoError(t, repo.UpsertMany(ctx, []models.Card{updated}))
	got, err = repo.Get(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, updated.Back, got.Back)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProgressSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seedCards(t, db, "a", "b")
	clk := clock.NewFixed(t0)
	repo := NewProgressRepository(db, clk)

	p := spaced_repetition.NewProgress(1, "a", t0)
	require.NoError(t, repo.Save(ctx, &p))
	assert.Equal(t, 1, p.Version)
	clk.Advance(time.Minute)

	next, err := spaced_repetition.NewSM2().Review(p, spaced_repetition.QualityPerfect, t0)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, &next))
	assert.Equal(t, 2, next.Version)

	got, err := repo.Get(ctx, models.ProgressKey{UserID: 1, CardID: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Repetitions)
	assert.InDelta(t, 2.6, got.EaseFactor, 1e-9)
	assert.WithinDuration(t, t0.AddDate(0, 0, 1), got.NextReview, 0)
	require.NotNil(t, got.LastReview)
	assert.WithinDuration(t, t0, *got.LastReview, 0)
	assert.Equal(t, 2, got.Version)

	var updatedAt string
	require.NoError(t, db.Get(&updatedAt, "SELECT updated_at FROM card_progress WHERE user_id = 1 AND card_id = 'a'"))
	assert.Equal(t, formatTime(t0.Add(time.Minute)), updatedAt)

	_, err = repo.Get(ctx, models.ProgressKey{UserID: 2, CardID: "a"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProgressVersionConflict(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seedCards(t, db, "a")
	repo := NewProgressRepository(db, nil)

	p := spaced_repetition.NewProgress(1, "a", t0)
	require.NoError(t, repo.Save(ctx, &p))

	dup := spaced_repetition.NewProgress(1, "a", t0)
	assert.ErrorIs(t, repo.Save(ctx, &dup), ErrVersionConflict)

	tabA, tabB := p, p
	tabA.Quality = 5
	require.NoError(t, repo.Save(ctx, &tabA))
	tabB.Quality = 1
	assert.ErrorIs(t, repo.Save(ctx, &tabB), ErrVersionConflict)
}

func TestProgressListAndCountDue(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seedCards(t, db, "a", "b", "c")
	repo := NewProgressRepository(db, nil)

	for i, id := range []string{"a", "b", "c"} {
		p := spaced_repetition.NewProgress(1, id, t0.Add(time.Duration(1-i)*time.Hour))
		require.NoError(t, repo.Save(ctx, &p))
	}
	other := spaced_repetition.NewProgress(2, "a", t0)
	require.NoError(t, repo.Save(ctx, &other))

	all, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].CardID)

	n, err := repo.CountDue(ctx, 1, t0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestProgressCorruptedRows(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seedCards(t, db, "a", "b")
	repo := NewProgressRepository(db, nil)

	_, err := db.Exec(`INSERT INTO card_progress (user_id, card_id, next_review, updated_at) VALUES (1, 'a', 'yesterday', '')`)
	require.NoError(t, err)

	_, err = repo.ListByUser(ctx, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, spaced_repetition.ErrDataCorruption))
	var derr *spaced_repetition.DataCorruptionError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "next_review", derr.Field)

	_, err = db.Exec(`INSERT INTO card_progress (user_id, card_id, interval_days, next_review, updated_at) VALUES (2, 'b', -4, ?, '')`, formatTime(t0))
	require.NoError(t, err)
	_, err = repo.Get(ctx, models.ProgressKey{UserID: 2, CardID: "b"})
	assert.ErrorIs(t, err, spaced_repetition.ErrDataCorruption)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	clk := clock.NewFixed(t0)
	repo := NewUserRepository(db, clk)

	u := &models.User{ID: 100, Username: "ann", NotificationEnabled: true, NotificationHour: 9, MaxNewCards: 20, SessionSize: 20}
	require.NoError(t, repo.Upsert(ctx, u))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: 200, Username: "bob", NotificationHour: 9}))

	u.Username = "ann_b"
	u.MaxNewCards = 99 // ignored on conflict
	require.NoError(t, repo.Upsert(ctx, u))

	got, err := repo.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "ann_b", got.Username)
	assert.Equal(t, 20, got.MaxNewCards)
	assert.True(t, got.CreatedAt.Equal(t0))

	users, err := repo.ListForNotification(ctx, 9)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(100), users[0].ID)

	clk.Advance(time.Hour)
	require.NoError(t, repo.UpdateMaxNewCards(ctx, 100, 5))
	require.NoError(t, repo.SetNotifications(ctx, 100, true, 18))
	got, err = repo.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 5, got.MaxNewCards)
	assert.True(t, got.CreatedAt.Equal(t0))
	assert.True(t, got.UpdatedAt.Equal(t0.Add(time.Hour)))
	assert.Equal(t, 18, got.NotificationHour)

	assert.ErrorIs(t, repo.UpdateMaxNewCards(ctx, 999, 5), ErrNotFound)
	_, err = repo.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
