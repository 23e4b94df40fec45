package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/engsync/briefing/internal/cache"
	"github.com/engsync/briefing/internal/config"
	"github.com/engsync/briefing/internal/events"
	"github.com/engsync/briefing/internal/platform/gemini"
	"github.com/engsync/briefing/internal/platform/postgres"
	"github.com/engsync/briefing/internal/platform/smtp"
	"github.com/engsync/briefing/internal/platform/tracker"
	"github.com/engsync/briefing/internal/scheduler"
	"github.com/engsync/briefing/internal/service"
	"github.com/engsync/briefing/internal/service/auth"
	"github.com/engsync/briefing/internal/store"
	"github.com/engsync/briefing/internal/task"
	"github.com/engsync/briefing/internal/web"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	recipientStore    store.RecipientStore
	subscriptionStore store.SubscriptionStore
	categoryStore     store.CategoryStore
	deliveryStore     store.DeliveryStore

	// Services
	tokenService        auth.LinkTokenService
	passwordVerifier    auth.PasswordVerifier
	newsletterService   service.NewsletterService
	subscriptionService service.SubscriptionService
	broadcastService    service.BroadcastService

	// Shared infrastructure
	snapshotCache *cache.SnapshotCache
	renderer      *web.Renderer
	eventEmitter  events.EventEmitter
	taskRunner    *task.Runner
	scheduler     *scheduler.Scheduler
}

// newApplication wires every dependency of the server: stores over the
// database, the tracker and Gemini clients, the service layer, the background
// task pipeline, and the cron scheduler that feeds it.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.tokenService, err = auth.NewLinkTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize link token service: %w", err)
	}
	app.passwordVerifier = auth.NewBcryptVerifier()

	app.recipientStore = postgres.NewPostgresRecipientStore(db, logger)
	app.subscriptionStore = postgres.NewPostgresSubscriptionStore(db, logger)
	app.categoryStore = postgres.NewPostgresCategoryStore(db, logger)
	app.deliveryStore = postgres.NewPostgresDeliveryStore(db, logger)

	trackerClient, err := tracker.NewClient(cfg.Tracker, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracker client: %w", err)
	}

	summarizer, err := gemini.NewGeminiSummarizer(ctx, logger.With("component", "summarizer"), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize summarizer: %w", err)
	}
	if summarizer.DryRun() {
		logger.Warn("no Gemini API key configured, summaries run in dry-run mode")
	}

	app.snapshotCache = cache.NewSnapshotCache(
		time.Duration(cfg.Broadcast.CacheTTLMinutes) * time.Minute)

	app.renderer, err = web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize renderer: %w", err)
	}

	app.newsletterService, err = service.NewNewsletterService(
		trackerClient,
		app.categoryStore,
		summarizer,
		app.snapshotCache,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create newsletter service: %w", err)
	}

	senderEmail := cfg.SMTP.SenderAddressOrUsername()
	app.subscriptionService, err = service.NewSubscriptionService(
		app.recipientStore,
		app.subscriptionStore,
		app.categoryStore,
		app.tokenService,
		senderEmail,
		cfg.Auth.HostEmail,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription service: %w", err)
	}

	mailSender := smtp.NewSender(cfg.SMTP, logger)
	app.broadcastService, err = service.NewBroadcastService(
		app.newsletterService,
		app.recipientStore,
		app.deliveryStore,
		app.tokenService,
		mailSender,
		app.renderer,
		service.BroadcastOptions{
			Recipients:  cfg.Broadcast.Recipients,
			SenderEmail: senderEmail,
			HostEmail:   cfg.Auth.HostEmail,
			BaseURL:     cfg.Server.BaseURL,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create broadcast service: %w", err)
	}

	if err := app.setupTaskPipeline(); err != nil {
		return nil, err
	}
	if err := app.setupScheduler(); err != nil {
		return nil, err
	}

	logger.Info("application initialized")
	return app, nil
}

// setupTaskPipeline starts the background task runner and registers the
// event handler that turns emitted events into queued tasks.
func (app *application) setupTaskPipeline() error {
	app.taskRunner = task.NewRunner(task.RunnerConfig{
		QueueSize:   app.config.Task.QueueSize,
		WorkerCount: app.config.Task.WorkerCount,
	}, app.logger)
	app.taskRunner.Start()

	dispatchHandler := task.NewDispatchEventHandler(
		app.taskRunner,
		app.newsletterService,
		app.broadcastService,
		app.logger,
	)

	emitter := events.NewInMemoryEventEmitter(app.logger)
	emitter.RegisterHandler(dispatchHandler)
	app.eventEmitter = emitter

	return nil
}

// setupScheduler registers the periodic refresh and broadcast jobs.
func (app *application) setupScheduler() error {
	app.scheduler = scheduler.New(app.logger)

	refreshJob := scheduler.NewRefreshJob(app.eventEmitter)
	if err := app.scheduler.AddJob(app.config.Schedule.RefreshSpec, refreshJob); err != nil {
		return fmt.Errorf("failed to register refresh job: %w", err)
	}

	broadcastJob := scheduler.NewBroadcastJob(app.eventEmitter)
	if err := app.scheduler.AddJob(app.config.Schedule.BroadcastSpec, broadcastJob); err != nil {
		return fmt.Errorf("failed to register broadcast job: %w", err)
	}

	app.scheduler.Start()

	// Warm the snapshot cache so the first dashboard hit is fast.
	if err := app.scheduler.RunNow(refreshJob); err != nil {
		app.logger.Warn("initial snapshot refresh failed", "error", err)
	}

	return nil
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
