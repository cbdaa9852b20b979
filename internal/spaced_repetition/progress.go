package spaced_repetition

import (
	"time"

	"github.com/example/recallbot/pkg/models"
)

const (
	// DefaultEaseFactor is the ease of a card that has never been reviewed.
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the floor the ease factor never drops below.
	MinEaseFactor = 1.3
)

// NewProgress returns the progress of a card seen for the first time. The card
// is due immediately. Calling it for a card that already has progress throws
// that history away, so callers must look the record up first.
func NewProgress(userID int64, cardID string, now time.Time) models.Progress {
	return models.Progress{
		UserID:      userID,
		CardID:      cardID,
		EaseFactor:  DefaultEaseFactor,
		Interval:    1,
		Repetitions: 0,
		NextReview:  now,
	}
}
