package bot

import (
	"sync"

	"github.com/example/recallbot/internal/review"
)

// learningSession represents a user's ongoing review session
type learningSession struct {
	Items      []review.Item
	CurrentIdx int
	Graded     int
	// set while the current card's grade is being stored
	grading bool
}

// cardView is the card on screen together with its place in the session.
type cardView struct {
	Item     review.Item
	Position int // 1-based
	Total    int
}

// sessionStore keeps one review session per user. Callbacks for the same user
// run concurrently, so every read and write goes through its lock.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*learningSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]*learningSession)}
}

// start replaces the user's session with a new one over items.
func (s *sessionStore) start(userID int64, items []review.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = &learningSession{Items: items}
}

// finish ends the session and returns how many cards were graded in it.
func (s *sessionStore) finish(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	graded := 0
	if ls, ok := s.sessions[userID]; ok {
		graded = ls.Graded
		delete(s.sessions, userID)
	}
	return graded
}

// next returns the card to show. When the session is exhausted it is removed
// and the number of graded cards is returned instead.
func (s *sessionStore) next(userID int64) (cardView, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.sessions[userID]
	if !ok {
		return cardView{}, 0, false
	}
	if ls.CurrentIdx >= len(ls.Items) {
		delete(s.sessions, userID)
		return cardView{}, ls.Graded, false
	}
	return viewOf(ls), 0, true
}

// current returns the card on screen if it is cardID.
func (s *sessionStore) current(userID int64, cardID string) (cardView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.currentLocked(userID, cardID)
	if !ok {
		return cardView{}, false
	}
	return viewOf(ls), true
}

// beginGrade claims the card on screen for grading. It fails when cardID is
// not the current card or another grade for it is in flight.
func (s *sessionStore) beginGrade(userID int64, cardID string) (cardView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.currentLocked(userID, cardID)
	if !ok || ls.grading {
		return cardView{}, false
	}
	ls.grading = true
	return viewOf(ls), true
}

// endGrade releases a claim taken by beginGrade. With advance the session
// moves past cardID; graded also counts it as reviewed.
func (s *sessionStore) endGrade(userID int64, cardID string, advance, graded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.currentLocked(userID, cardID)
	if !ok {
		return
	}
	ls.grading = false
	if !advance {
		return
	}
	ls.CurrentIdx++
	if graded {
		ls.Graded++
	}
}

func (s *sessionStore) currentLocked(userID int64, cardID string) (*learningSession, bool) {
	ls, ok := s.sessions[userID]
	if !ok || ls.CurrentIdx >= len(ls.Items) || ls.Items[ls.CurrentIdx].Card.ID != cardID {
		return nil, false
	}
	return ls, true
}

func viewOf(ls *learningSession) cardView {
	return cardView{Item: ls.Items[ls.CurrentIdx], Position: ls.CurrentIdx + 1, Total: len(ls.Items)}
}
