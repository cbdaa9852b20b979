// Package session holds the heuristics used to size a review session.
package session

import (
	"math"

	"github.com/example/recallbot/pkg/models"
)

// DefaultSecondsPerCard is the assumed time to answer one review card.
const DefaultSecondsPerCard = 10

// OptimalNewCards throttles new cards when the review backlog grows.
func OptimalNewCards(stats models.Stats, maxNewCards int) int {
	switch {
	case stats.DueToday > 50:
		return max(5, maxNewCards/2)
	case stats.DueToday > 30:
		return max(10, maxNewCards*3/4)
	default:
		return maxNewCards
	}
}

// EstimateMinutes returns the expected session length in whole minutes,
// rounded up. New cards count double.
func EstimateMinutes(newCards, reviewCards, secondsPerCard int) int {
	if secondsPerCard <= 0 {
		secondsPerCard = DefaultSecondsPerCard
	}
	seconds := newCards*secondsPerCard*2 + reviewCards*secondsPerCard
	return int(math.Ceil(float64(seconds) / 60))
}
