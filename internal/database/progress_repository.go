package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/recallbot/internal/clock"
	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// timeLayout is fixed-width so that text comparison matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ProgressRepository handles database operations for card progress
type ProgressRepository struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewProgressRepository creates a new repository instance. A nil clock means
// the wall clock.
func NewProgressRepository(db *sqlx.DB, clk clock.Clock) *ProgressRepository {
	if clk == nil {
		clk = clock.System{}
	}
	return &ProgressRepository{db: db, clock: clk}
}

type progressRow struct {
	UserID         int64          `db:"user_id"`
	CardID         string         `db:"card_id"`
	EaseFactor     float64        `db:"ease_factor"`
	Interval       int            `db:"interval_days"`
	Repetitions    int            `db:"repetitions"`
	NextReview     string         `db:"next_review"`
	LastReview     sql.NullString `db:"last_review"`
	ReviewCount    int            `db:"review_count"`
	CorrectCount   int            `db:"correct_count"`
	IncorrectCount int            `db:"incorrect_count"`
	Streak         int            `db:"streak"`
	Quality        int            `db:"quality"`
	Version        int            `db:"version"`
	UpdatedAt      string         `db:"updated_at"`
}

// toModel converts a stored row, refusing rows that cannot be trusted.
func (r progressRow) toModel() (models.Progress, error) {
	key := fmt.Sprintf("user %d card %s", r.UserID, r.CardID)

	next, err := time.Parse(time.RFC3339Nano, r.NextReview)
	if err != nil {
		return models.Progress{}, &spaced_repetition.DataCorruptionError{Key: key, Field: "next_review", Value: r.NextReview, Err: err}
	}

	p := models.Progress{
		UserID:         r.UserID,
		CardID:         r.CardID,
		EaseFactor:     r.EaseFactor,
		Interval:       r.Interval,
		Repetitions:    r.Repetitions,
		NextReview:     next,
		ReviewCount:    r.ReviewCount,
		CorrectCount:   r.CorrectCount,
		IncorrectCount: r.IncorrectCount,
		Streak:         r.Streak,
		Quality:        r.Quality,
		Version:        r.Version,
	}

	if r.LastReview.Valid && r.LastReview.String != "" {
		last, err := time.Parse(time.RFC3339Nano, r.LastReview.String)
		if err != nil {
			return models.Progress{}, &spaced_repetition.DataCorruptionError{Key: key, Field: "last_review", Value: r.LastReview.String, Err: err}
		}
		p.LastReview = &last
	}

	if err := spaced_repetition.CheckProgress(p); err != nil {
		return models.Progress{}, err
	}
	return p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptionalTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// ListByUser returns all progress records of a user
func (r *ProgressRepository) ListByUser(ctx context.Context, userID int64) ([]models.Progress, error) {
	var rows []progressRow
	err := r.db.SelectContext(ctx, &rows,
		r.db.Rebind("SELECT * FROM card_progress WHERE user_id = ? ORDER BY next_review, card_id"), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	out := make([]models.Progress, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Get returns progress for a specific user and card
func (r *ProgressRepository) Get(ctx context.Context, key models.ProgressKey) (models.Progress, error) {
	var row progressRow
	err := r.db.GetContext(ctx, &row,
		r.db.Rebind("SELECT * FROM card_progress WHERE user_id = ? AND card_id = ?"), key.UserID, key.CardID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Progress{}, fmt.Errorf("progress of user %d on card %s: %w", key.UserID, key.CardID, ErrNotFound)
	}
	if err != nil {
		return models.Progress{}, fmt.Errorf("failed to get progress: %w", err)
	}
	return row.toModel()
}

// CountDue returns how many cards of the user are due at now
func (r *ProgressRepository) CountDue(ctx context.Context, userID int64, now time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		r.db.Rebind("SELECT COUNT(*) FROM card_progress WHERE user_id = ? AND next_review <= ?"),
		userID, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("failed to count due cards: %w", err)
	}
	return n, nil
}

// Save stores progress. A record with Version 0 is inserted; otherwise the
// stored row is replaced only if its version still matches. On success
// progress.Version holds the new version. ErrVersionConflict means another
// writer got there first and the caller should reload.
func (r *ProgressRepository) Save(ctx context.Context, p *models.Progress) error {
	if p.Version == 0 {
		return r.insert(ctx, p)
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE card_progress SET
			ease_factor = ?,
			interval_days = ?,
			repetitions = ?,
			next_review = ?,
			last_review = ?,
			review_count = ?,
			correct_count = ?,
			incorrect_count = ?,
			streak = ?,
			quality = ?,
			version = version + 1,
			updated_at = ?
		WHERE user_id = ? AND card_id = ? AND version = ?`),
		p.EaseFactor,
		p.Interval,
		p.Repetitions,
		formatTime(p.NextReview),
		formatOptionalTime(p.LastReview),
		p.ReviewCount,
		p.CorrectCount,
		p.IncorrectCount,
		p.Streak,
		p.Quality,
		formatTime(r.clock.Now()),
		p.UserID,
		p.CardID,
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	p.Version++
	return nil
}

func (r *ProgressRepository) insert(ctx context.Context, p *models.Progress) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO card_progress (
			user_id, card_id, ease_factor, interval_days, repetitions,
			next_review, last_review, review_count, correct_count,
			incorrect_count, streak, quality, version, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT (user_id, card_id) DO NOTHING`),
		p.UserID,
		p.CardID,
		p.EaseFactor,
		p.Interval,
		p.Repetitions,
		formatTime(p.NextReview),
		formatOptionalTime(p.LastReview),
		p.ReviewCount,
		p.CorrectCount,
		p.IncorrectCount,
		p.Streak,
		p.Quality,
		formatTime(r.clock.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to create progress: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	p.Version = 1
	return nil
}

func expectOneRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrVersionConflict
	}
	return nil
}
