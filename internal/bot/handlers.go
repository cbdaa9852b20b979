package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/example/recallbot/internal/anki"
	"github.com/example/recallbot/internal/database"
	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data is "show:<card id>", "grade:<card id>:<quality>" or "stop".
// Carrying the card id lets a press on an outdated keyboard be ignored.
const (
	callbackShowAnswer = "show"
	callbackGrade      = "grade"
	callbackStop       = "stop"
)

const helpText = `Commands:
/review - start a review session
/stats - your progress
/heatmap - review activity calendar
/export - download all cards in Anki text format
/newcards N - new cards per session
/notify on|off [hour] - daily reminder (hour in UTC)`

func showAnswerKeyboard(cardID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Show answer", callbackShowAnswer+":"+cardID),
			tgbotapi.NewInlineKeyboardButtonData("Stop", callbackStop),
		),
	)
}

func gradeKeyboard(cardID string) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, 6)
	for q := spaced_repetition.QualityBlackout; q <= spaced_repetition.QualityPerfect; q++ {
		data := fmt.Sprintf("%s:%s:%d", callbackGrade, cardID, q)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(int(q)), data))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	switch message.Command() {
	case "start":
		return b.handleStart(ctx, message)
	case "help":
		return b.sendText(message.Chat.ID, helpText)
	case "review":
		return b.handleReview(ctx, message)
	case "stats":
		return b.handleStats(ctx, message)
	case "heatmap":
		return b.handleHeatmap(ctx, message)
	case "export":
		return b.handleExport(ctx, message)
	case "newcards":
		return b.handleNewCards(ctx, message)
	case "notify":
		return b.handleNotify(ctx, message)
	default:
		return b.sendText(message.Chat.ID, "Unknown command. Send /help for the list of commands.")
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	user := &models.User{
		ID:                  message.From.ID,
		Username:            message.From.UserName,
		FirstName:           message.From.FirstName,
		NotificationEnabled: true,
		NotificationHour:    b.cfg.NotificationStartHour,
		MaxNewCards:         b.cfg.MaxNewCards,
		SessionSize:         b.cfg.SessionSize,
	}
	if err := b.users.Upsert(ctx, user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return b.sendText(message.Chat.ID, fmt.Sprintf("Hi %s! I will schedule your flashcards so you review each one right before you forget it.\n\n%s", message.From.FirstName, helpText))
}

func (b *Bot) handleReview(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID
	s, err := b.service.NextSession(ctx, userID, b.limitsFor(ctx, userID))
	if err != nil {
		return b.reportError(message.Chat.ID, err)
	}
	if len(s.Items) == 0 {
		b.sessions.finish(userID)
		return b.sendText(message.Chat.ID, formatSessionDone(0))
	}

	b.sessions.start(userID, s.Items)
	if err := b.sendText(message.Chat.ID, formatSessionStart(s)); err != nil {
		return err
	}
	return b.showCurrentCard(message.Chat.ID, userID)
}

func (b *Bot) showCurrentCard(chatID, userID int64) error {
	view, graded, ok := b.sessions.next(userID)
	if !ok {
		return b.sendText(chatID, formatSessionDone(graded))
	}

	msg := tgbotapi.NewMessage(chatID, formatCardFront(view.Item, view.Position, view.Total))
	msg.ReplyMarkup = showAnswerKeyboard(view.Item.Card.ID)
	_, err := b.api.Send(msg)
	return err
}

// HandleCallback handles inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback.Message == nil || callback.From == nil {
		return fmt.Errorf("invalid callback: required fields are missing")
	}
	// Acknowledge the press so the client stops the spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", "error", err)
	}

	chatID := callback.Message.Chat.ID
	userID := callback.From.ID
	action, cardID, quality, err := parseCallback(callback.Data)
	if err != nil {
		return err
	}

	switch action {
	case callbackStop:
		return b.sendText(chatID, formatSessionDone(b.sessions.finish(userID)))

	case callbackShowAnswer:
		view, ok := b.sessions.current(userID, cardID)
		if !ok {
			b.log.Debug("ignoring outdated show callback", "user_id", userID, "card_id", cardID)
			return nil
		}
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, callback.Message.MessageID,
			formatCardBack(view.Item, view.Position, view.Total), gradeKeyboard(cardID))
		_, err := b.api.Send(edit)
		return err

	default:
		view, ok := b.sessions.beginGrade(userID, cardID)
		if !ok {
			b.log.Debug("ignoring outdated grade callback", "user_id", userID, "card_id", cardID)
			return nil
		}
		return b.handleGrade(ctx, chatID, callback.Message.MessageID, userID, view, quality)
	}
}

// parseCallback splits callback data into the action, the card it refers to
// and, for grades, the quality value.
func parseCallback(data string) (action, cardID string, quality int, err error) {
	if data == callbackStop {
		return callbackStop, "", 0, nil
	}

	action, rest, found := strings.Cut(data, ":")
	if !found || rest == "" {
		return "", "", 0, fmt.Errorf("unknown callback %q", data)
	}
	switch action {
	case callbackShowAnswer:
		return action, rest, 0, nil
	case callbackGrade:
		i := strings.LastIndex(rest, ":")
		if i <= 0 {
			return "", "", 0, fmt.Errorf("bad grade callback %q", data)
		}
		q, err := strconv.Atoi(rest[i+1:])
		if err != nil {
			return "", "", 0, fmt.Errorf("bad grade callback %q: %w", data, err)
		}
		return action, rest[:i], q, nil
	default:
		return "", "", 0, fmt.Errorf("unknown callback %q", data)
	}
}

// handleGrade stores the grade for the card claimed by beginGrade and moves
// the session on.
func (b *Bot) handleGrade(ctx context.Context, chatID int64, messageID int, userID int64, view cardView, quality int) error {
	cardID := view.Item.Card.ID
	key := models.ProgressKey{UserID: userID, CardID: cardID}
	progress, err := b.service.Grade(ctx, key, quality)
	switch {
	case errors.Is(err, spaced_repetition.ErrInvalidQuality):
		b.sessions.endGrade(userID, cardID, false, false)
		return b.sendText(chatID, "Please pick a grade between 0 and 5.")
	case errors.Is(err, database.ErrVersionConflict):
		// Graded from another chat in the meantime; keep that result
		b.log.Warn("grade lost to a concurrent review", "user_id", userID, "card_id", cardID)
		b.sessions.endGrade(userID, cardID, true, false)
	case err != nil:
		b.sessions.endGrade(userID, cardID, false, false)
		return b.reportError(chatID, err)
	default:
		b.sessions.endGrade(userID, cardID, true, true)
	}

	text := formatCardBack(view.Item, view.Position, view.Total)
	if err == nil {
		text = fmt.Sprintf("%s\n\n%s", text, formatGraded(progress))
	}
	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		b.log.Warn("failed to edit card message", "error", err)
	}
	return b.showCurrentCard(chatID, userID)
}

func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) error {
	d, err := b.service.Dashboard(ctx, message.From.ID, b.cfg.HeatmapDays, b.limitsFor(ctx, message.From.ID))
	if err != nil {
		return b.reportError(message.Chat.ID, err)
	}
	return b.sendText(message.Chat.ID, formatStats(d))
}

func (b *Bot) handleHeatmap(ctx context.Context, message *tgbotapi.Message) error {
	d, err := b.service.Dashboard(ctx, message.From.ID, b.cfg.HeatmapDays, b.limitsFor(ctx, message.From.ID))
	if err != nil {
		return b.reportError(message.Chat.ID, err)
	}
	return b.sendText(message.Chat.ID, formatHeatmap(d.Heatmap))
}

func (b *Bot) handleExport(ctx context.Context, message *tgbotapi.Message) error {
	deck := strings.TrimSpace(message.CommandArguments())
	var buf bytes.Buffer
	n, err := b.service.ExportDeck(ctx, &buf, deck)
	if err != nil {
		return b.reportError(message.Chat.ID, err)
	}
	if n == 0 {
		return b.sendText(message.Chat.ID, "There are no cards to export.")
	}

	name := "deck.txt"
	if deck != "" {
		name = deck + ".txt"
	}
	doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FileBytes{Name: name, Bytes: buf.Bytes()})
	doc.Caption = fmt.Sprintf("%d cards, Anki text format", n)
	_, err = b.api.Send(doc)
	return err
}

func (b *Bot) handleNewCards(ctx context.Context, message *tgbotapi.Message) error {
	n, err := strconv.Atoi(strings.TrimSpace(message.CommandArguments()))
	if err != nil || n < 0 || n > 100 {
		return b.sendText(message.Chat.ID, "Usage: /newcards N (0-100)")
	}
	if err := b.users.UpdateMaxNewCards(ctx, message.From.ID, n); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return b.sendText(message.Chat.ID, "Send /start first.")
		}
		return b.reportError(message.Chat.ID, err)
	}
	return b.sendText(message.Chat.ID, fmt.Sprintf("Up to %d new cards per session.", n))
}

func (b *Bot) handleNotify(ctx context.Context, message *tgbotapi.Message) error {
	start, end := b.cfg.NotificationStartHour, b.cfg.NotificationEndHour
	enabled, hour, ok := parseNotifyArgs(message.CommandArguments(), start, end)
	if !ok {
		return b.sendText(message.Chat.ID, fmt.Sprintf("Usage: /notify on|off [hour %d-%d, UTC]", start, end))
	}
	if err := b.users.SetNotifications(ctx, message.From.ID, enabled, hour); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return b.sendText(message.Chat.ID, "Send /start first.")
		}
		return b.reportError(message.Chat.ID, err)
	}
	if !enabled {
		return b.sendText(message.Chat.ID, "Reminders are off.")
	}
	return b.sendText(message.Chat.ID, fmt.Sprintf("I will remind you at %02d:00 UTC when cards are due.", hour))
}

// parseNotifyArgs parses "on|off [hour]". Reminders only go out between
// startHour and endHour, so other hours are rejected; the default is startHour.
func parseNotifyArgs(args string, startHour, endHour int) (enabled bool, hour int, ok bool) {
	fields := strings.Fields(strings.ToLower(args))
	if len(fields) == 0 || len(fields) > 2 {
		return false, 0, false
	}
	switch fields[0] {
	case "on":
		enabled = true
	case "off":
	default:
		return false, 0, false
	}
	hour = startHour
	if len(fields) == 2 {
		h, err := strconv.Atoi(fields[1])
		if err != nil || h < startHour || h > endHour {
			return false, 0, false
		}
		hour = h
	}
	return enabled, hour, true
}

// handleDocument imports an uploaded Anki text deck. Only admins may import.
func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) error {
	if !b.cfg.AdminUserIDs[message.From.ID] {
		return b.sendText(message.Chat.ID, "Only admins can import decks.")
	}

	url, err := b.api.GetFileDirectURL(message.Document.FileID)
	if err != nil {
		return fmt.Errorf("failed to resolve file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	deck := strings.TrimSpace(message.Caption)
	if deck == "" {
		deck = strings.TrimSuffix(message.Document.FileName, path.Ext(message.Document.FileName))
	}
	n, err := b.service.ImportDeck(ctx, resp.Body, deck)
	if err != nil {
		var fe *anki.FormatError
		if errors.As(err, &fe) {
			return b.sendText(message.Chat.ID, fmt.Sprintf("Line %d is not a card: %q", fe.Line, fe.Text))
		}
		return b.reportError(message.Chat.ID, err)
	}
	return b.sendText(message.Chat.ID, fmt.Sprintf("Imported %d cards into %q.", n, deck))
}

func (b *Bot) reportError(chatID int64, err error) error {
	if errors.Is(err, spaced_repetition.ErrDataCorruption) {
		b.log.Error("corrupted progress record", "chat_id", chatID, "error", err)
	}
	if sendErr := b.sendText(chatID, "Something went wrong. Please try again later."); sendErr != nil {
		b.log.Warn("failed to send error message", "error", sendErr)
	}
	return err
}
