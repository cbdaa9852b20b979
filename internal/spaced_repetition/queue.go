package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// DefaultSessionSize caps the number of cards in one review session.
const DefaultSessionSize = 20

// DueCards returns up to limit records that are due at now, most overdue first.
// Records with the same due time keep their input order.
func DueCards(all []models.Progress, now time.Time, limit int) []models.Progress {
	if limit <= 0 {
		return []models.Progress{}
	}

	due := make([]models.Progress, 0, len(all))
	for _, p := range all {
		if p.IsDue(now) {
			due = append(due, p)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextReview.Before(due[j].NextReview)
	})

	if len(due) > limit {
		return due[:limit]
	}
	return due
}

// NewCards returns up to limit card ids that have no progress yet, in the
// order they were given.
func NewCards(cardIDs []string, all []models.Progress, limit int) []string {
	if limit <= 0 {
		return []string{}
	}

	seen := make(map[string]struct{}, len(all))
	for _, p := range all {
		seen[p.CardID] = struct{}{}
	}

	out := make([]string, 0, limit)
	for _, id := range cardIDs {
		if len(out) == limit {
			break
		}
		if _, ok := seen[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}

// SessionItem is one card to show in a session. Progress is nil for a card
// the user has never seen.
type SessionItem struct {
	CardID   string
	Progress *models.Progress
}

// BuildSession puts due cards first and fills the rest of the session with new
// cards, never exceeding size.
func BuildSession(due []models.Progress, newIDs []string, size int) []SessionItem {
	if size <= 0 {
		return []SessionItem{}
	}

	items := make([]SessionItem, 0, size)
	for i := range due {
		if len(items) == size {
			return items
		}
		p := due[i]
		items = append(items, SessionItem{CardID: p.CardID, Progress: &p})
	}
	for _, id := range newIDs {
		if len(items) == size {
			break
		}
		items = append(items, SessionItem{CardID: id})
	}
	return items
}
