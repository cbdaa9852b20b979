// Package review wires the scheduling core to card and progress storage. It
// is the only place that reads the clock.
package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/example/recallbot/internal/anki"
	"github.com/example/recallbot/internal/clock"
	"github.com/example/recallbot/internal/database"
	"github.com/example/recallbot/internal/logger"
	"github.com/example/recallbot/internal/session"
	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/internal/statistics"
	"github.com/example/recallbot/pkg/models"
)

// CardStore supplies card content.
type CardStore interface {
	Get(ctx context.Context, id string) (models.Card, error)
	List(ctx context.Context, deck string) ([]models.Card, error)
	ListIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	UpsertMany(ctx context.Context, cards []models.Card) error
}

// ProgressStore persists progress. Get must return an error matching
// database.ErrNotFound for unknown keys and Save must fail with
// database.ErrVersionConflict on a stale version.
type ProgressStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Progress, error)
	Get(ctx context.Context, key models.ProgressKey) (models.Progress, error)
	Save(ctx context.Context, p *models.Progress) error
	CountDue(ctx context.Context, userID int64, now time.Time) (int, error)
}

// Limits sizes one session.
type Limits struct {
	SessionSize    int
	MaxNewCards    int
	SecondsPerCard int
}

// Item is a card queued for review.
type Item struct {
	Card     models.Card
	Progress *models.Progress // nil for a new card
}

// IsNew reports whether the card has never been reviewed by the user.
func (i Item) IsNew() bool { return i.Progress == nil }

// Session is an ordered list of cards to review.
type Session struct {
	UserID           int64
	Items            []Item
	DueCount         int // due cards in the session
	NewCount         int // new cards in the session
	EstimatedMinutes int
}

// Dashboard bundles everything shown on the statistics screen.
type Dashboard struct {
	Stats            models.Stats
	Heatmap          []models.HeatmapDay
	SuggestedNew     int
	EstimatedMinutes int
}

// Service runs review sessions for users
type Service struct {
	cards     CardStore
	progress  ProgressStore
	scheduler spaced_repetition.Scheduler
	clock     clock.Clock
	log       *logger.Logger
}

// NewService creates a review service. A nil scheduler means SM-2, a nil
// clock the wall clock.
func NewService(cards CardStore, progress ProgressStore, scheduler spaced_repetition.Scheduler, clk clock.Clock, log *logger.Logger) *Service {
	if scheduler == nil {
		scheduler = spaced_repetition.NewSM2()
	}
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{cards: cards, progress: progress, scheduler: scheduler, clock: clk, log: log}
}

// NextSession builds the next review session: due cards first, then new cards
// throttled by the size of the backlog.
func (s *Service) NextSession(ctx context.Context, userID int64, limits Limits) (*Session, error) {
	now := s.clock.Now()

	all, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	cardIDs, err := s.cards.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}

	size := limits.SessionSize
	if size <= 0 {
		size = spaced_repetition.DefaultSessionSize
	}
	stats := statistics.Compute(all, len(cardIDs), now)
	maxNew := session.OptimalNewCards(stats, limits.MaxNewCards)

	due := spaced_repetition.DueCards(all, now, size)
	fresh := spaced_repetition.NewCards(cardIDs, all, maxNew)
	queued := spaced_repetition.BuildSession(due, fresh, size)

	out := &Session{UserID: userID, Items: make([]Item, 0, len(queued))}
	for _, q := range queued {
		card, err := s.cards.Get(ctx, q.CardID)
		if err != nil {
			return nil, fmt.Errorf("failed to load card %s: %w", q.CardID, err)
		}
		out.Items = append(out.Items, Item{Card: card, Progress: q.Progress})
		if q.Progress == nil {
			out.NewCount++
		} else {
			out.DueCount++
		}
	}
	out.EstimatedMinutes = session.EstimateMinutes(out.NewCount, out.DueCount, limits.SecondsPerCard)

	s.log.Debug("session built",
		"user_id", userID,
		"due", out.DueCount,
		"new", out.NewCount,
		"max_new", maxNew,
	)
	return out, nil
}

// Grade records the learner's grade for a card and returns the stored
// progress. A card seen for the first time gets fresh progress before the
// grade is applied.
func (s *Service) Grade(ctx context.Context, key models.ProgressKey, quality int) (models.Progress, error) {
	q, err := spaced_repetition.ParseQuality(quality)
	if err != nil {
		return models.Progress{}, err
	}

	now := s.clock.Now()
	current, err := s.progress.Get(ctx, key)
	switch {
	case errors.Is(err, database.ErrNotFound):
		current = spaced_repetition.NewProgress(key.UserID, key.CardID, now)
	case err != nil:
		return models.Progress{}, fmt.Errorf("failed to load progress: %w", err)
	}

	next, err := s.scheduler.Review(current, q, now)
	if err != nil {
		return models.Progress{}, err
	}
	if err := s.progress.Save(ctx, &next); err != nil {
		return models.Progress{}, fmt.Errorf("failed to save progress: %w", err)
	}

	s.log.Info("card graded",
		"user_id", key.UserID,
		"card_id", key.CardID,
		"quality", quality,
		"interval", next.Interval,
		"ease_factor", next.EaseFactor,
	)
	return next, nil
}

// Dashboard computes statistics and the activity calendar for a user.
func (s *Service) Dashboard(ctx context.Context, userID int64, heatmapDays int, limits Limits) (*Dashboard, error) {
	now := s.clock.Now()

	all, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	total, err := s.cards.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count cards: %w", err)
	}

	stats := statistics.Compute(all, total, now)
	suggested := session.OptimalNewCards(stats, limits.MaxNewCards)
	if suggested > stats.NewCards {
		suggested = stats.NewCards
	}
	return &Dashboard{
		Stats:            stats,
		Heatmap:          statistics.Heatmap(all, heatmapDays, now),
		SuggestedNew:     suggested,
		EstimatedMinutes: session.EstimateMinutes(suggested, stats.DueToday, limits.SecondsPerCard),
	}, nil
}

// DueCount returns how many of the user's cards are due now.
func (s *Service) DueCount(ctx context.Context, userID int64) (int, error) {
	n, err := s.progress.CountDue(ctx, userID, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to count due cards: %w", err)
	}
	return n, nil
}

// ExportDeck writes cards of a deck (all decks when empty) in Anki text format.
func (s *Service) ExportDeck(ctx context.Context, w io.Writer, deck string) (int, error) {
	cards, err := s.cards.List(ctx, deck)
	if err != nil {
		return 0, err
	}
	if err := anki.Write(w, cards); err != nil {
		return 0, fmt.Errorf("failed to write deck: %w", err)
	}
	return len(cards), nil
}

// ImportDeck reads Anki text and stores the cards under deck.
func (s *Service) ImportDeck(ctx context.Context, r io.Reader, deck string) (int, error) {
	cards, err := anki.Read(r)
	if err != nil {
		return 0, err
	}
	return s.StoreCards(ctx, cards, deck)
}

// StoreCards saves cards under deck, keeping a deck already set on a card.
func (s *Service) StoreCards(ctx context.Context, cards []models.Card, deck string) (int, error) {
	for i := range cards {
		if cards[i].Deck == "" {
			cards[i].Deck = deck
		}
	}
	if err := s.cards.UpsertMany(ctx, cards); err != nil {
		return 0, fmt.Errorf("failed to store cards: %w", err)
	}
	s.log.Info("cards imported", "deck", deck, "count", len(cards))
	return len(cards), nil
}
