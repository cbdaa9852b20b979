package models

import "time"

// Card is a single flashcard. Content is owned by the deck it came from and is
// never changed by the review logic.
type Card struct {
	ID          string    `json:"id" db:"id"`
	Deck        string    `json:"deck" db:"deck"`
	Front       string    `json:"front" db:"front"`
	Back        string    `json:"back" db:"back"`
	Hint        string    `json:"hint,omitempty" db:"hint"`
	Explanation string    `json:"explanation,omitempty" db:"explanation"`
	Tags        []string  `json:"tags,omitempty" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
