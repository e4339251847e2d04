package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/studydash/internal/authentication"
	"github.com/studydash/internal/calendars"
	"github.com/studydash/internal/config"
	"github.com/studydash/internal/dashboard"
	httpx "github.com/studydash/internal/http"
	"github.com/studydash/internal/jobs"
	"github.com/studydash/internal/keys"
	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/migrations"
	"github.com/studydash/internal/profiles"
	"github.com/studydash/internal/telegram"
	"github.com/studydash/internal/timezone"
)

func main() {
	configPath := flag.String("config", "", "path to a configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[ERROR] config: %s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	level := new(slog.LevelVar)
	level.Set(cfg.LogLevel)
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(textHandler)
	slog.SetDefault(logger)

	location, err := timezone.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("[ERROR] timezone: %s", err)
	}
	clock := timezone.NewSystemClock(location)

	rawKey := cfg.EncryptionKey
	if rawKey == "" {
		rawKey = config.DevelopmentEncryptionKey
	}
	encryptionKey, err := keys.ParseKey([]byte(rawKey))
	if err != nil {
		log.Fatalf("[ERROR] encryption-key: %s", err)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("[ERROR] db: %s", err)
	}
	defer closeStore()
	if cfg.EncryptionKey != "" {
		store = kv.WithEncryption(store, encryptionKey)
	} else {
		logger.Warn("encryption key is empty, values are stored in plain text")
	}

	profilesStore := profiles.NewStore(store, encryptionKey)
	if err := migrations.RunAll(ctx, profilesStore); err != nil {
		log.Fatalf("[ERROR] db migratons: %s", err)
	}

	authenticationService := authentication.NewService(profilesStore, clock)
	dashboards := dashboard.NewFactory(profilesStore, clock, cfg.TargetPercent)
	calendarsService := calendars.NewService(calendars.NewStore(store), authenticationService, dashboards)

	var notifier jobs.Notifier = jobs.LogNotifier{}
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(telegram.NewStore(store), profilesStore, dashboards, cfg.TelegramToken, cfg.TelegramAdminChatID)
		if err != nil {
			log.Fatalf("[ERROR] telegram: %s", err)
		}
		notifier = bot
		if cfg.TelegramAdminChatID != 0 {
			logger = slog.New(telegram.NewSlogHandler(bot, textHandler))
			slog.SetDefault(logger)
		}
		go func() {
			if err := bot.Listen(ctx); err != nil {
				logger.Error("telegram listen", "error", err)
			}
		}()
	}

	scheduler := jobs.NewScheduler(jobs.NewStore(store), notifier, dashboards, clock)
	scheduler.OnJobFailed(func(ctx context.Context, job *jobs.Job) {
		if job.Status == jobs.StatusFailing && len(job.Attempts) >= jobs.MaxAttempts {
			slog.WarnContext(ctx, "job gave up", "job_id", job.ID, "profile_id", job.ProfileID)
		}
	})
	scheduler.OnJobSucceeded(func(ctx context.Context, job *jobs.Job) {
		slog.InfoContext(ctx, "job delivered", "job_id", job.ID, "profile_id", job.ProfileID)
	})
	if err := scheduler.Init(ctx); err != nil {
		log.Fatalf("[ERROR] init scheduler: %s", err)
	}

	httpServer := http.Server{
		Handler: httpx.Handler(
			logger,
			authenticationService,
			profilesStore,
			dashboards,
			calendarsService,
			scheduler,
		),
	}

	// Wait for shut down in a separate goroutine.
	errCh := make(chan error)
	go func() {
		shutdownCh := make(chan os.Signal, 1)
		signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)
		sig := <-shutdownCh

		log.Printf("[INFO] received %s, shutting down", sig)
		cancel()

		shutdownTimeout := 15 * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		errCh <- httpServer.Shutdown(shutdownCtx)
	}()

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		log.Fatalf("[ERROR] tcp: %s", err)
	}
	log.Printf("[INFO] listening on %s", ln.Addr())

	if err := httpServer.Serve(ln); err != http.ErrServerClosed {
		log.Printf("[ERROR] http serve: %s", err)
	}

	if err := <-errCh; err != nil {
		log.Printf("[ERROR] error during shutdown: %s", err)
	}

	log.Printf("[INFO] application stopped")
}

func openStore(cfg *config.Config) (kv.Store, func(), error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return kv.NewMemoryStore(), func() {}, nil
	case config.StorageSQLite:
		store, err := kv.OpenSQLite(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		db, err := badger.Open(badger.DefaultOptions(cfg.DatabasePath))
		if err != nil {
			return nil, nil, err
		}
		return kv.NewBadgerStore(db), func() { db.Close() }, nil
	}
}
