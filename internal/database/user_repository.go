package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/recallbot/internal/clock"
	"github.com/example/recallbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewUserRepository creates a new repository instance. A nil clock means the
// wall clock.
func NewUserRepository(db *sqlx.DB, clk clock.Clock) *UserRepository {
	if clk == nil {
		clk = clock.System{}
	}
	return &UserRepository{db: db, clock: clk}
}

// Upsert registers a user or refreshes their Telegram profile fields. Study
// settings of an existing user are left untouched.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	now := r.clock.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO users (
			telegram_id, username, first_name, notification_enabled,
			notification_hour, max_new_cards, session_size, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			updated_at = EXCLUDED.updated_at`),
		user.ID,
		user.Username,
		user.FirstName,
		user.NotificationEnabled,
		user.NotificationHour,
		user.MaxNewCards,
		user.SessionSize,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Get returns a user by Telegram ID
func (r *UserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind("SELECT * FROM users WHERE telegram_id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// ListForNotification returns users with reminders enabled for the given hour
func (r *UserRepository) ListForNotification(ctx context.Context, hour int) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, r.db.Rebind(`
		SELECT * FROM users
		WHERE notification_enabled = ? AND notification_hour = ?
		ORDER BY telegram_id`), true, hour)
	if err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return users, nil
}

// UpdateMaxNewCards changes how many new cards a session may introduce
func (r *UserRepository) UpdateMaxNewCards(ctx context.Context, id int64, maxNew int) error {
	return r.update(ctx, id, "max_new_cards = ?", maxNew)
}

// SetNotifications turns reminders on or off and sets their hour
func (r *UserRepository) SetNotifications(ctx context.Context, id int64, enabled bool, hour int) error {
	return r.update(ctx, id, "notification_enabled = ?, notification_hour = ?", enabled, hour)
}

func (r *UserRepository) update(ctx context.Context, id int64, set string, args ...interface{}) error {
	args = append(args, r.clock.Now().UTC(), id)
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind("UPDATE users SET "+set+", updated_at = ? WHERE telegram_id = ?"), args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}
