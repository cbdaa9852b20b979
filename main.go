package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/example/recallbot/internal/bot"
	"github.com/example/recallbot/internal/clock"
	"github.com/example/recallbot/internal/config"
	"github.com/example/recallbot/internal/database"
	"github.com/example/recallbot/internal/excel"
	"github.com/example/recallbot/internal/logger"
	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/internal/scheduler"
)

func main() {
	importPath := flag.String("import", "", "import cards from an .xlsx, .csv or Anki .txt file and exit")
	exportPath := flag.String("export", "", "export cards to an .xlsx or Anki .txt file and exit")
	deck := flag.String("deck", "", "deck name for -import and -export (default: file name on import, all decks on export)")
	envFile := flag.String("env", ".env", "optional env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", "db_type", cfg.DBType, "error", err)
	}
	defer db.Close()

	clk := clock.System{}
	cards := database.NewCardRepository(db, clk)
	progress := database.NewProgressRepository(db, clk)
	users := database.NewUserRepository(db, clk)
	service := review.NewService(cards, progress, nil, clk, log.With("component", "review"))

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch {
	case *importPath != "":
		if err := importDeck(ctx, service, *importPath, *deck, log); err != nil {
			log.Fatal("import failed", "file", *importPath, "error", err)
		}
		return
	case *exportPath != "":
		if err := exportDeck(ctx, service, cards, *exportPath, *deck, log); err != nil {
			log.Fatal("export failed", "file", *exportPath, "error", err)
		}
		return
	}

	b, err := bot.New(cfg, service, users, log.With("component", "bot"))
	if err != nil {
		log.Fatal("failed to create bot", "error", err)
	}

	var reminders *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		window := scheduler.Window{StartHour: cfg.NotificationStartHour, EndHour: cfg.NotificationEndHour}
		reminders = scheduler.New(b, users, service, window, clk, log.With("component", "scheduler"))
		if err := reminders.Start(ctx); err != nil {
			log.Fatal("failed to start scheduler", "error", err)
		}
	}

	// Handle termination signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("bot error", "error", err)
		}
	}()

	log.Info("bot started, press Ctrl+C to stop")
	select {
	case sig := <-sigChan:
		log.Info("received signal", "signal", sig.String())
	case <-done:
	}

	cancel()
	if reminders != nil {
		reminders.Stop()
	}
	b.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Warn("bot did not stop in time")
	}
	log.Info("bot stopped successfully")
}

func importDeck(ctx context.Context, service *review.Service, path, deck string, log *logger.Logger) error {
	ext := strings.ToLower(filepath.Ext(path))
	if deck == "" {
		deck = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if ext == ".txt" || ext == ".tsv" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		n, err := service.ImportDeck(ctx, f, deck)
		if err != nil {
			return err
		}
		log.Info("anki deck imported", "deck", deck, "cards", n)
		return nil
	}

	result, err := excel.ImportCards(path, excel.DefaultImportConfig())
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		log.Warn("row skipped", "reason", msg)
	}
	n, err := service.StoreCards(ctx, result.Cards, deck)
	if err != nil {
		return err
	}
	log.Info("spreadsheet imported",
		"deck", deck,
		"cards", n,
		"rows", result.TotalProcessed,
		"skipped", result.Skipped,
	)
	return nil
}

func exportDeck(ctx context.Context, service *review.Service, cards *database.CardRepository, path, deck string, log *logger.Logger) error {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		list, err := cards.List(ctx, deck)
		if err != nil {
			return err
		}
		if err := excel.ExportCards(path, list); err != nil {
			return err
		}
		log.Info("spreadsheet exported", "file", path, "cards", len(list))
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := service.ExportDeck(ctx, f, deck)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Info("anki deck exported", "file", path, "cards", n)
	return nil
}
