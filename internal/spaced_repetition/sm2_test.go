package spaced_repetition

import (
	"errors"
	"testing"
	"time"

	"github.com/example/recallbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func review(t *testing.T, p models.Progress, q Quality) models.Progress {
	t.Helper()
	out, err := NewSM2().Review(p, q, t0)
	require.NoError(t, err)
	return out
}

func TestReviewFirstPerfect(t *testing.T) {
	p := NewProgress(1, "c1", t0)

	got := review(t, p, QualityPerfect)

	assert.Equal(t, 1, got.Interval)
	assert.Equal(t, 1, got.Repetitions)
	assert.Greater(t, got.EaseFactor, 2.5)
	assert.InDelta(t, 2.6, got.EaseFactor, 1e-9)
	assert.Equal(t, t0.AddDate(0, 0, 1), got.NextReview)
	require.NotNil(t, got.LastReview)
	assert.Equal(t, t0, *got.LastReview)
	assert.Equal(t, 5, got.Quality)
}

func TestReviewSecondSuccessGivesSixDays(t *testing.T) {
	first := review(t, NewProgress(1, "c1", t0), QualityPerfect)

	got := review(t, first, QualityCorrectHesitation)

	assert.Equal(t, 6, got.Interval)
	assert.Equal(t, 2, got.Repetitions)
	assert.Equal(t, t0.AddDate(0, 0, 6), got.NextReview)
}

func TestReviewLapseFromMature(t *testing.T) {
	p := models.Progress{UserID: 1, CardID: "c1", Repetitions: 5, Interval: 20, EaseFactor: 2.0, Streak: 5}

	got := review(t, p, QualityIncorrect)

	assert.Equal(t, 0, got.Repetitions)
	assert.Equal(t, 1, got.Interval)
	assert.InDelta(t, 1.85, got.EaseFactor, 1e-9)
	assert.Equal(t, 0, got.Streak)
	assert.Equal(t, 1, got.IncorrectCount)
}

func TestReviewMatureInterval(t *testing.T) {
	p := models.Progress{Repetitions: 3, Interval: 10, EaseFactor: 2.5}

	got := review(t, p, QualityCorrectHesitation)

	assert.Equal(t, 25, got.Interval)
	assert.Equal(t, 4, got.Repetitions)
	assert.InDelta(t, 2.5, got.EaseFactor, 1e-9)
}

func TestReviewRoundsInterval(t *testing.T) {
	p := models.Progress{Repetitions: 2, Interval: 6, EaseFactor: 2.36}

	got := review(t, p, QualityCorrectDifficult)

	// 6 * 2.36 = 14.16
	assert.Equal(t, 14, got.Interval)
	assert.InDelta(t, 2.22, got.EaseFactor, 1e-9)
}

func TestReviewLapseProperties(t *testing.T) {
	for _, q := range []Quality{QualityBlackout, QualityIncorrect, QualityIncorrectFamiliar} {
		for _, ef := range []float64{1.3, 1.35, 1.5, 2.5, 3.1} {
			p := models.Progress{Repetitions: 4, Interval: 12, EaseFactor: ef}
			got := review(t, p, q)

			assert.Equal(t, 0, got.Repetitions)
			assert.Equal(t, 1, got.Interval)
			assert.LessOrEqual(t, got.EaseFactor, ef)
			assert.GreaterOrEqual(t, got.EaseFactor, MinEaseFactor)
			if ef > MinEaseFactor {
				assert.Less(t, got.EaseFactor, ef, "q=%d ef=%v", q, ef)
			}
		}
	}
}

func TestReviewEaseFloor(t *testing.T) {
	p := models.Progress{Repetitions: 2, Interval: 3, EaseFactor: MinEaseFactor}
	for q := QualityBlackout; q <= QualityPerfect; q++ {
		got := review(t, p, q)
		assert.GreaterOrEqual(t, got.EaseFactor, MinEaseFactor, "quality %d", q)
		assert.GreaterOrEqual(t, got.Interval, 1, "quality %d", q)
	}
}

func TestReviewCounters(t *testing.T) {
	p := NewProgress(1, "c1", t0)
	p = review(t, p, QualityPerfect)
	p = review(t, p, QualityCorrectDifficult)
	p = review(t, p, QualityBlackout)
	p = review(t, p, QualityCorrectHesitation)

	assert.Equal(t, 4, p.ReviewCount)
	assert.Equal(t, 3, p.CorrectCount)
	assert.Equal(t, 1, p.IncorrectCount)
	assert.Equal(t, 1, p.Streak)
}

func TestReviewDoesNotMutateInput(t *testing.T) {
	p := NewProgress(1, "c1", t0)
	before := p

	_ = review(t, p, QualityPerfect)

	assert.Equal(t, before, p)
}

func TestReviewRejectsInvalidQuality(t *testing.T) {
	p := NewProgress(1, "c1", t0)
	for _, q := range []Quality{-1, 6, 42} {
		_, err := NewSM2().Review(p, q, t0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidQuality))

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, int(q), verr.Quality)
	}
}

func TestReviewRejectsCorruptedProgress(t *testing.T) {
	cases := []models.Progress{
		{CardID: "neg-interval", Interval: -3, EaseFactor: 2.5},
		{CardID: "neg-ease", Interval: 3, EaseFactor: -0.2},
	}
	for _, p := range cases {
		_, err := NewSM2().Review(p, QualityPerfect, t0)
		assert.True(t, errors.Is(err, ErrDataCorruption), p.CardID)
	}
}

func TestParseQuality(t *testing.T) {
	q, err := ParseQuality(4)
	require.NoError(t, err)
	assert.Equal(t, QualityCorrectHesitation, q)

	_, err = ParseQuality(7)
	assert.ErrorIs(t, err, ErrInvalidQuality)
}

func TestIsMastered(t *testing.T) {
	assert.False(t, IsMastered(models.Progress{Interval: 30}))
	assert.True(t, IsMastered(models.Progress{Interval: 31}))
}
