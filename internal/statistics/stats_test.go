package statistics

import (
	"testing"
	"time"

	"github.com/example/recallbot/pkg/models"
	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil, 42, t0)

	assert.Equal(t, 42, s.NewCards)
	assert.Zero(t, s.DueToday)
	assert.Zero(t, s.DueTomorrow)
	assert.Zero(t, s.DueThisWeek)
	assert.Zero(t, s.RetentionRate)
	assert.Equal(t, 2.5, s.AverageEaseFactor)
}

func TestComputeBuckets(t *testing.T) {
	all := []models.Progress{
		{CardID: "overdue", NextReview: t0.Add(-time.Hour), Repetitions: 0, Interval: 1, EaseFactor: 2.0, ReviewCount: 4, CorrectCount: 3},
		{CardID: "exactly-now", NextReview: t0, Repetitions: 2, Interval: 6, EaseFactor: 2.5, ReviewCount: 2, CorrectCount: 2},
		{CardID: "tomorrow-edge", NextReview: t0.Add(24 * time.Hour), Repetitions: 3, Interval: 15, EaseFactor: 2.5, ReviewCount: 3, CorrectCount: 3},
		{CardID: "in-three-days", NextReview: t0.Add(72 * time.Hour), Repetitions: 4, Interval: 31, EaseFactor: 3.0, ReviewCount: 1, CorrectCount: 0},
		{CardID: "next-month", NextReview: t0.AddDate(0, 1, 0), Repetitions: 6, Interval: 60, EaseFactor: 3.0},
	}

	s := Compute(all, 8, t0)

	assert.Equal(t, 3, s.NewCards)
	assert.Equal(t, 2, s.LearningCards)
	assert.Equal(t, 2, s.MasteredCards)
	assert.Equal(t, 2, s.DueToday)
	assert.Equal(t, 1, s.DueTomorrow)
	assert.Equal(t, 2, s.DueThisWeek)
	assert.Equal(t, 10, s.TotalReviews)
	assert.InDelta(t, 80.0, s.RetentionRate, 1e-9)
	assert.InDelta(t, 2.6, s.AverageEaseFactor, 1e-9)
}

func TestComputeNewCardsNeverNegative(t *testing.T) {
	all := []models.Progress{{CardID: "a", EaseFactor: 2.5}, {CardID: "b", EaseFactor: 2.5}}

	s := Compute(all, 1, t0)

	assert.Equal(t, 0, s.NewCards)
}
