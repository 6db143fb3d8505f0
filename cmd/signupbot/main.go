package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/gratefultolord/qabul_bot/internal/adminbot"
	"github.com/gratefultolord/qabul_bot/internal/bot"
	"github.com/gratefultolord/qabul_bot/internal/config"
	"github.com/gratefultolord/qabul_bot/internal/db"
	"github.com/gratefultolord/qabul_bot/internal/metrics"
	"github.com/gratefultolord/qabul_bot/internal/ratelimit"
	"github.com/gratefultolord/qabul_bot/internal/registration"
	"github.com/gratefultolord/qabul_bot/internal/sessionstore"
	"github.com/gratefultolord/qabul_bot/internal/sheets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, closeSink, err := newSink(ctx, cfg)
	if err != nil {
		log.Fatalf("Error creating record sink: %v", err)
	}
	defer closeSink()

	store, closeStore, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Error opening session store: %v", err)
	}
	defer closeStore()

	collector := metrics.New()
	loc := cfg.Location()

	machine := registration.New(store, sink,
		registration.WithClock(func() time.Time { return time.Now().In(loc) }),
		registration.WithStrictChoices(cfg.StrictChoices),
		registration.WithObserver(collector),
	)

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Error creating telegram bot: %v", err)
	}

	opts := bot.Options{
		Limiter:       ratelimit.New(cfg.RateLimitPerSecond, cfg.RateLimitBurst, 10*time.Minute),
		SinkTimeout:   cfg.SinkTimeout,
		OnRateLimited: collector.MessageRateLimited,
	}
	if notifier := adminbot.New(botAPI, cfg.AdminChatIDs); notifier != nil {
		opts.Notifier = notifier
	}

	botService := bot.New(botAPI, machine, opts)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.NewRouter(collector),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			log.Printf("Metrics listening on %s", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer stop()

		log.Printf("Bot started as @%s", botAPI.Self.UserName)
		return botService.Start(ctx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Bot stopped with error: %v", err)
		return
	}
	log.Printf("Bot stopped")
}

func newSink(ctx context.Context, cfg *config.Config) (registration.Sink, func(), error) {
	if cfg.Sink != config.SinkSheets {
		database, err := db.New(cfg)
		if err != nil {
			return nil, nil, err
		}

		closeDB := func() {
			if err := database.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			}
		}
		return db.NewRegistrationRepository(database.Conn), closeDB, nil
	}

	creds, err := credentialsJSON(cfg.GoogleCredentialsJSON)
	if err != nil {
		return nil, nil, err
	}

	sink, err := sheets.New(ctx, sheets.Config{
		CredentialsJSON: creds,
		SpreadsheetID:   cfg.SpreadsheetID,
		SpreadsheetName: cfg.SpreadsheetName,
		Range:           cfg.SheetRange,
		WritesPerMinute: cfg.SheetsWritesPerMinute,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Writing registrations to spreadsheet %s", sink.SpreadsheetID())

	return sink, func() {}, nil
}

// credentialsJSON accepts either the service-account JSON itself or a path to it.
func credentialsJSON(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "{") {
		return []byte(value), nil
	}

	return os.ReadFile(value)
}

func newStore(cfg *config.Config) (registration.Store, func(), error) {
	if cfg.SessionStore != config.SessionStoreBolt {
		return registration.NewMemoryStore(), func() {}, nil
	}

	store, err := sessionstore.Open(cfg.SessionDBPath)
	if err != nil {
		return nil, nil, err
	}

	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing session store: %v", err)
		}
	}
	return store, closeStore, nil
}
