package models

import "time"

// ProgressKey identifies the progress of one user on one card.
type ProgressKey struct {
	UserID int64  `json:"user_id"`
	CardID string `json:"card_id"`
}

// Progress tracks a user's SM-2 state for a specific card
type Progress struct {
	UserID         int64      `json:"user_id"`
	CardID         string     `json:"card_id"`
	EaseFactor     float64    `json:"ease_factor"` // never below 1.3
	Interval       int        `json:"interval"`    // days, at least 1
	Repetitions    int        `json:"repetitions"` // successful reviews since the last lapse
	NextReview     time.Time  `json:"next_review"`
	LastReview     *time.Time `json:"last_review,omitempty"` // nil before the first grading
	ReviewCount    int        `json:"review_count"`
	CorrectCount   int        `json:"correct_count"`
	IncorrectCount int        `json:"incorrect_count"`
	Streak         int        `json:"streak"`
	Quality        int        `json:"quality"` // last grade, 0-5
	// Version is the optimistic lock stamp managed by the store. Zero means the
	// record has never been saved.
	Version int `json:"version"`
}

// Key returns the composite key of the record.
func (p Progress) Key() ProgressKey {
	return ProgressKey{UserID: p.UserID, CardID: p.CardID}
}

// IsDue reports whether the card should be shown at now.
func (p Progress) IsDue(now time.Time) bool {
	return !p.NextReview.After(now)
}
