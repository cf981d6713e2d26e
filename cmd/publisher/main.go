package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"scalency/internal/analysis"
	"scalency/internal/backend"
	"scalency/internal/config"
	"scalency/internal/domain"
	"scalency/internal/events"
	"scalency/internal/health"
	"scalency/internal/publishing"
	"scalency/internal/repost"
	"scalency/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	accountID := flag.String("account", "", "account to act as")
	imagePath := flag.String("image", "", "photo to publish as a new listing")
	repostID := flag.Int64("repost", 0, "listing id to repost instead of publishing")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if *accountID == "" {
		logger.Error("missing -account flag")
		os.Exit(1)
	}
	if *imagePath == "" && *repostID == 0 {
		logger.Error("nothing to do: pass -image or -repost")
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	accountStore := postgres.NewAccountStore(db)
	listingStore := postgres.NewListingStore(db)

	bridge := backend.New(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Token:   cfg.Backend.Token,
		Timeout: cfg.Backend.Timeout,
	}, logger)

	var eventPub *events.RabbitMQ
	if cfg.RabbitMQ.URL != "" {
		eventPub, err = events.NewRabbitMQ(events.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer eventPub.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	watcher := health.NewWatcher(bridge, cfg.Health.Interval, logger)
	go func() {
		if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("health watcher stopped", "error", err)
		}
	}()

	if !bridge.CheckHealth(ctx) {
		logger.Error("bridge backend is offline", "base_url", cfg.Backend.BaseURL)
		os.Exit(1)
	}

	account, err := accountStore.Get(ctx, *accountID)
	if err != nil {
		logger.Error("failed to load account", "error", err)
		os.Exit(1)
	}

	if *repostID != 0 {
		runRepost(ctx, account, listingStore, accountStore, bridge, eventPub, *repostID, logger)
		return
	}

	runPublish(ctx, cfg, *account, listingStore, bridge, eventPub, *imagePath, logger)
}

func runPublish(
	ctx context.Context,
	cfg *config.Config,
	account domain.Account,
	listings *postgres.ListingStore,
	bridge *backend.Client,
	eventPub *events.RabbitMQ,
	imagePath string,
	logger *slog.Logger,
) {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		logger.Error("failed to read image", "path", imagePath, "error", err)
		os.Exit(1)
	}

	analyzer := analysis.New(analysis.Config{
		BaseURL:        cfg.Analysis.BaseURL,
		APIKey:         cfg.Analysis.APIKey,
		Model:          cfg.Analysis.Model,
		Timeout:        cfg.Analysis.Timeout,
		MaxAttempts:    cfg.Analysis.Retry.MaxAttempts,
		InitialBackoff: cfg.Analysis.Retry.InitialBackoff,
		MaxBackoff:     cfg.Analysis.Retry.MaxBackoff,
	}, logger)

	var orchEvents publishing.EventPublisher
	if eventPub != nil {
		orchEvents = eventPub
	}

	orch := publishing.NewOrchestrator(account, analyzer, bridge, orchEvents, publishing.Config{
		PollInterval: cfg.Publish.PollInterval,
		PollTimeout:  cfg.Publish.PollTimeout,
		LogCapacity:  cfg.Publish.LogCapacity,
	}, logger)

	orch.Subscribe(func(snap publishing.Snapshot) {
		logger.Info("listing state changed",
			"state", snap.State,
			"progress", snap.Progress,
			"stage", snap.Stage,
		)
	})

	if err := orch.UploadImage(ctx, image); err != nil {
		logger.Error("failed to upload image", "error", err)
		os.Exit(1)
	}

	if err := orch.Submit(ctx); err != nil {
		logger.Error("failed to submit listing", "error", err)
		os.Exit(1)
	}

	outcome, err := orch.Wait(ctx)
	if err != nil {
		orch.Cancel()
		logger.Error("publication interrupted", "error", err)
		os.Exit(1)
	}

	for _, line := range orch.Logs() {
		logger.Info(line)
	}

	if outcome != domain.OutcomeSuccess {
		result, _ := orch.Result()
		logger.Error("publication failed", "error", result.Err)
		os.Exit(1)
	}

	snap := orch.Snapshot()
	id, err := listings.Insert(ctx, &domain.Listing{
		AccountID:   account.ID,
		Title:       snap.Draft.Title,
		Description: snap.Draft.Description,
		Price:       snap.Draft.PriceValue(),
		Category:    snap.Draft.Category,
		Brand:       snap.Draft.Brand,
		Size:        snap.Draft.Size,
		Color:       snap.Draft.Color,
		Condition:   snap.Draft.Condition,
		Material:    snap.Draft.Material,
		Status:      domain.ListingActive,
	})
	if err != nil {
		logger.Error("listing is live but could not be recorded", "error", err)
		os.Exit(1)
	}

	logger.Info("listing published", "listing_id", id, "account", account.Username)
}

func runRepost(
	ctx context.Context,
	account *domain.Account,
	listings *postgres.ListingStore,
	accounts *postgres.AccountStore,
	bridge *backend.Client,
	eventPub *events.RabbitMQ,
	listingID int64,
	logger *slog.Logger,
) {
	var repostEvents repost.EventPublisher
	if eventPub != nil {
		repostEvents = eventPub
	}

	svc := repost.NewService(accounts, listings, bridge, repostEvents, time.Now, logger)

	err := svc.Repost(ctx, account.ID, listingID)
	if err != nil {
		var rateErr *repost.RateLimitError
		if errors.As(err, &rateErr) {
			logger.Warn("repost rejected by rate limit",
				"min_delay", rateErr.MinDelay,
				"remaining", rateErr.Remaining,
			)
			os.Exit(2)
		}
		logger.Error("repost failed", "error", err)
		os.Exit(1)
	}

	logger.Info("listing reposted", "listing_id", listingID, "account", account.Username)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
