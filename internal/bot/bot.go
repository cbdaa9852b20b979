package bot

import (
	"context"
	"fmt"

	"github.com/example/recallbot/internal/config"
	"github.com/example/recallbot/internal/logger"
	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/internal/scheduler"
	"github.com/example/recallbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UserStore keeps Telegram users and their study settings
type UserStore interface {
	Upsert(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id int64) (*models.User, error)
	UpdateMaxNewCards(ctx context.Context, id int64, maxNew int) error
	SetNotifications(ctx context.Context, id int64, enabled bool, hour int) error
}

// Bot represents the Telegram bot application
type Bot struct {
	api     *tgbotapi.BotAPI
	service *review.Service
	users   UserStore
	cfg     *config.Config
	log     *logger.Logger

	sessions *sessionStore
}

var _ scheduler.Notifier = (*Bot)(nil)

// New creates a new bot instance and authorizes it with Telegram
func New(cfg *config.Config, service *review.Service, users UserStore, log *logger.Logger) (*Bot, error) {
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	log.Info("authorized on telegram", "account", api.Self.UserName)

	return newBot(api, cfg, service, users, log), nil
}

func newBot(api *tgbotapi.BotAPI, cfg *config.Config, service *review.Service, users UserStore, log *logger.Logger) *Bot {
	return &Bot{
		api:      api,
		service:  service,
		users:    users,
		cfg:      cfg,
		log:      log,
		sessions: newSessionStore(),
	}
}

// Start receives updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// Stop stops polling Telegram
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	b.log.Info("bot stopped")
}

// SendReminder implements the scheduler.Notifier interface. In private chats
// the chat ID equals the user ID.
func (b *Bot) SendReminder(_ context.Context, userID int64, count int) error {
	if _, err := b.api.Send(tgbotapi.NewMessage(userID, reminderText(count))); err != nil {
		return fmt.Errorf("failed to send reminder to user %d: %w", userID, err)
	}
	b.log.Info("reminder sent", "user_id", userID, "due", count)
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Document != nil && update.Message.From != nil:
		err = b.handleDocument(ctx, update.Message)
	case update.Message != nil:
		err = b.sendText(update.Message.Chat.ID, "Send /help to see what I can do.")
	}
	if err != nil {
		b.log.Error("failed to handle update", "update_id", update.UpdateID, "error", err)
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) limitsFor(ctx context.Context, userID int64) review.Limits {
	limits := review.Limits{
		SessionSize:    b.cfg.SessionSize,
		MaxNewCards:    b.cfg.MaxNewCards,
		SecondsPerCard: b.cfg.SecondsPerCard,
	}
	user, err := b.users.Get(ctx, userID)
	if err != nil {
		b.log.Debug("using default limits", "user_id", userID, "error", err)
		return limits
	}
	if user.SessionSize > 0 {
		limits.SessionSize = user.SessionSize
	}
	if user.MaxNewCards >= 0 {
		limits.MaxNewCards = user.MaxNewCards
	}
	return limits
}
