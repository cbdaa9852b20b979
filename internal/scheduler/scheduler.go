package scheduler

import (
	"context"
	"time"

	"github.com/example/recallbot/internal/clock"
	"github.com/example/recallbot/internal/logger"
	"github.com/example/recallbot/pkg/models"
	"github.com/go-co-op/gocron"
)

// Notifier sends reminders to users
type Notifier interface {
	SendReminder(ctx context.Context, userID int64, dueCount int) error
}

// Users lists users who asked for a reminder at a given hour
type Users interface {
	ListForNotification(ctx context.Context, hour int) ([]models.User, error)
}

// DueCounter reports how many cards a user has due
type DueCounter interface {
	DueCount(ctx context.Context, userID int64) (int, error)
}

// Window is the range of hours, inclusive, in which reminders may be sent
type Window struct {
	StartHour int
	EndHour   int
}

// Contains reports whether hour falls inside the window
func (w Window) Contains(hour int) bool {
	return hour >= w.StartHour && hour <= w.EndHour
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     Users
	due       DueCounter
	window    Window
	clock     clock.Clock
	log       *logger.Logger
}

// New creates a new scheduler instance
func New(notifier Notifier, users Users, due DueCounter, window Window, clk clock.Clock, log *logger.Logger) *Scheduler {
	if clk == nil {
		clk = clock.System{}
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		users:     users,
		due:       due,
		window:    window,
		clock:     clk,
		log:       log,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(1).Hour().StartAt(nextHour(s.clock.Now())).Do(func() {
		if _, err := s.RunReminders(ctx); err != nil {
			s.log.Error("reminder run failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.Info("reminder scheduler started", "start_hour", s.window.StartHour, "end_hour", s.window.EndHour)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunReminders notifies every user whose reminder hour is now and who has due
// cards. It returns the number of reminders sent.
func (s *Scheduler) RunReminders(ctx context.Context) (int, error) {
	hour := s.clock.Now().UTC().Hour()
	if !s.window.Contains(hour) {
		s.log.Debug("outside notification hours, skipping reminders",
			"hour", hour, "start", s.window.StartHour, "end", s.window.EndHour)
		return 0, nil
	}

	users, err := s.users.ListForNotification(ctx, hour)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, user := range users {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}

		count, err := s.due.DueCount(ctx, user.ID)
		if err != nil {
			s.log.Warn("failed to count due cards", "user_id", user.ID, "error", err)
			continue
		}
		if count == 0 {
			continue
		}

		// Don't announce more than fits into one session
		if user.SessionSize > 0 && count > user.SessionSize {
			count = user.SessionSize
		}

		if err := s.notifier.SendReminder(ctx, user.ID, count); err != nil {
			s.log.Warn("failed to send reminder", "user_id", user.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func nextHour(now time.Time) time.Time {
	return now.UTC().Truncate(time.Hour).Add(time.Hour)
}
