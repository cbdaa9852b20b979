package spaced_repetition

import (
	"testing"
	"time"

	"github.com/example/recallbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func progressDue(id string, offset time.Duration) models.Progress {
	return models.Progress{UserID: 1, CardID: id, EaseFactor: 2.5, Interval: 1, NextReview: t0.Add(offset)}
}

func TestNewProgress(t *testing.T) {
	p := NewProgress(7, "card", t0)

	assert.Equal(t, models.ProgressKey{UserID: 7, CardID: "card"}, p.Key())
	assert.Equal(t, 2.5, p.EaseFactor)
	assert.Equal(t, 1, p.Interval)
	assert.Equal(t, 0, p.Repetitions)
	assert.Equal(t, t0, p.NextReview)
	assert.Nil(t, p.LastReview)
	assert.True(t, p.IsDue(t0))
}

func TestDueCardsOrderAndFilter(t *testing.T) {
	all := []models.Progress{
		progressDue("a", -time.Hour),
		progressDue("future", time.Minute),
		progressDue("b", -48*time.Hour),
		progressDue("c", -time.Hour),
		progressDue("now", 0),
	}

	got := DueCards(all, t0, 10)

	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.CardID
	}
	assert.Equal(t, []string{"b", "a", "c", "now"}, ids)
}

func TestDueCardsProperties(t *testing.T) {
	var all []models.Progress
	for i := 0; i < 40; i++ {
		all = append(all, progressDue(string(rune('A'+i)), time.Duration(i%7-4)*time.Hour))
	}

	for _, limit := range []int{0, 1, 5, 100} {
		got := DueCards(all, t0, limit)
		assert.LessOrEqual(t, len(got), limit)
		for i, p := range got {
			assert.False(t, p.NextReview.After(t0))
			if i > 0 {
				assert.False(t, p.NextReview.Before(got[i-1].NextReview))
			}
		}
	}
}

func TestDueCardsEmpty(t *testing.T) {
	got := DueCards(nil, t0, 20)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNewCards(t *testing.T) {
	all := []models.Progress{progressDue("b", 0), progressDue("d", 0)}
	ids := []string{"a", "b", "c", "d", "e", "f"}

	assert.Equal(t, []string{"a", "c", "e"}, NewCards(ids, all, 3))
	assert.Equal(t, []string{"a", "c", "e", "f"}, NewCards(ids, all, 10))
	assert.Empty(t, NewCards(ids, all, 0))
}

func TestBuildSession(t *testing.T) {
	due := []models.Progress{progressDue("d1", -time.Hour), progressDue("d2", 0)}

	items := BuildSession(due, []string{"n1", "n2", "n3"}, 4)

	require.Len(t, items, 4)
	assert.Equal(t, "d1", items[0].CardID)
	require.NotNil(t, items[0].Progress)
	assert.Equal(t, "d2", items[1].CardID)
	assert.Equal(t, "n1", items[2].CardID)
	assert.Nil(t, items[2].Progress)
	assert.Equal(t, "n2", items[3].CardID)
}

func TestBuildSessionDueOverflow(t *testing.T) {
	due := []models.Progress{progressDue("d1", 0), progressDue("d2", 0), progressDue("d3", 0)}

	items := BuildSession(due, []string{"n1"}, 2)

	require.Len(t, items, 2)
	assert.Equal(t, "d2", items[1].CardID)
}
