// Package statistics aggregates progress records into dashboard numbers.
// Every function here is total: empty or degenerate input yields documented
// defaults instead of an error.
package statistics

import (
	"time"

	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/pkg/models"
)

// learningRepetitions is the repetition count below which a card is still
// being learned.
const learningRepetitions = 3

// Compute summarises all progress of one user against a deck of totalCards.
//
// Due buckets: today is nextReview <= now; tomorrow and this week are the
// half-open windows (now, now+1d] and (now, now+7d].
func Compute(all []models.Progress, totalCards int, now time.Time) models.Stats {
	stats := models.Stats{
		TotalCards:        totalCards,
		NewCards:          totalCards - len(all),
		AverageEaseFactor: spaced_repetition.DefaultEaseFactor,
	}
	if stats.NewCards < 0 {
		stats.NewCards = 0
	}

	tomorrow := now.Add(24 * time.Hour)
	week := now.Add(7 * 24 * time.Hour)

	var correct int
	var easeSum float64
	for _, p := range all {
		if p.Repetitions < learningRepetitions {
			stats.LearningCards++
		}
		if spaced_repetition.IsMastered(p) {
			stats.MasteredCards++
		}

		switch {
		case !p.NextReview.After(now):
			stats.DueToday++
		default:
			if !p.NextReview.After(tomorrow) {
				stats.DueTomorrow++
			}
			if !p.NextReview.After(week) {
				stats.DueThisWeek++
			}
		}

		stats.TotalReviews += p.ReviewCount
		correct += p.CorrectCount
		easeSum += p.EaseFactor
	}

	if stats.TotalReviews > 0 {
		stats.RetentionRate = float64(correct) / float64(stats.TotalReviews) * 100
	}
	if len(all) > 0 {
		stats.AverageEaseFactor = easeSum / float64(len(all))
	}
	return stats
}
