package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/recallbot/internal/clock"
	"github.com/example/recallbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// CardRepository handles database operations for cards
type CardRepository struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewCardRepository creates a new repository instance. A nil clock means the
// wall clock.
func NewCardRepository(db *sqlx.DB, clk clock.Clock) *CardRepository {
	if clk == nil {
		clk = clock.System{}
	}
	return &CardRepository{db: db, clock: clk}
}

type cardRow struct {
	models.Card
	TagList string `db:"tags"`
}

func (r cardRow) toModel() models.Card {
	c := r.Card
	c.Tags = strings.Fields(r.TagList)
	if len(c.Tags) == 0 {
		c.Tags = nil
	}
	return c
}

const upsertCard = `
	INSERT INTO cards (id, deck, front, back, hint, explanation, tags, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		deck = EXCLUDED.deck,
		front = EXCLUDED.front,
		back = EXCLUDED.back,
		hint = EXCLUDED.hint,
		explanation = EXCLUDED.explanation,
		tags = EXCLUDED.tags`

// UpsertMany inserts cards or replaces the content of existing ones, in a
// single transaction
func (r *CardRepository) UpsertMany(ctx context.Context, cards []models.Card) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Cards are listed by creation time, so spread the batch out to keep
	// the input order
	base := r.clock.Now().UTC()
	for i := range cards {
		if err := upsertCardWith(ctx, tx, &cards[i], base.Add(time.Duration(i)*time.Microsecond)); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cards: %w", err)
	}
	return nil
}

func upsertCardWith(ctx context.Context, ext sqlx.ExtContext, card *models.Card, now time.Time) error {
	if card.ID == "" {
		return fmt.Errorf("card id must not be empty")
	}
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	_, err := ext.ExecContext(ctx, ext.Rebind(upsertCard),
		card.ID,
		card.Deck,
		card.Front,
		card.Back,
		card.Hint,
		card.Explanation,
		strings.Join(card.Tags, " "),
		card.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save card %s: %w", card.ID, err)
	}
	return nil
}

// Get returns a card by ID
func (r *CardRepository) Get(ctx context.Context, id string) (models.Card, error) {
	var row cardRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT * FROM cards WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Card{}, fmt.Errorf("card %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Card{}, fmt.Errorf("failed to get card: %w", err)
	}
	return row.toModel(), nil
}

// List returns all cards of a deck, or every card when deck is empty, in
// insertion order
func (r *CardRepository) List(ctx context.Context, deck string) ([]models.Card, error) {
	query := "SELECT * FROM cards ORDER BY created_at, id"
	args := []interface{}{}
	if deck != "" {
		query = "SELECT * FROM cards WHERE deck = ? ORDER BY created_at, id"
		args = append(args, deck)
	}

	var rows []cardRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	cards := make([]models.Card, len(rows))
	for i, row := range rows {
		cards[i] = row.toModel()
	}
	return cards, nil
}

// ListIDs returns the ids of all cards in insertion order
func (r *CardRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM cards ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("failed to list card ids: %w", err)
	}
	return ids, nil
}

// Count returns the number of cards
func (r *CardRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM cards"); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return n, nil
}
