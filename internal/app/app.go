package app

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/common"
	"github.com/ternarybob/pasar/internal/eodhd"
	"github.com/ternarybob/pasar/internal/handlers"
	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/services/feed"
	"github.com/ternarybob/pasar/internal/services/market"
	"github.com/ternarybob/pasar/internal/services/news"
	"github.com/ternarybob/pasar/internal/services/portfolio"
	"github.com/ternarybob/pasar/internal/services/prediction"
	"github.com/ternarybob/pasar/internal/services/recap"
	"github.com/ternarybob/pasar/internal/services/refresh"
	"github.com/ternarybob/pasar/internal/services/scheduler"
	"github.com/ternarybob/pasar/internal/services/sentiment"
	"github.com/ternarybob/pasar/internal/storage"
)

// modelWarmupTimeout bounds the background sentiment model load at startup
const modelWarmupTimeout = 30 * time.Second

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	ctx            context.Context
	cancelCtx      context.CancelFunc
	StorageManager interfaces.StorageManager

	// Pipeline services
	Classifier        *sentiment.Classifier
	FeedReader        *feed.Reader
	NewsService       *news.Service
	MarketProvider    *market.Provider
	PredictionService *prediction.Service
	RecapService      *recap.Service
	PortfolioService  *portfolio.Service
	SchedulerService  *scheduler.Service
	RefreshJob        *refresh.Job

	// HTTP handlers
	NewsHandler       *handlers.NewsHandler
	PredictionHandler *handlers.PredictionHandler
	RecapHandler      *handlers.RecapHandler
	PortfolioHandler  *handlers.PortfolioHandler
	StockHandler      *handlers.StockHandler
	SchedulerHandler  *handlers.SchedulerHandler
	StatusHandler     *handlers.StatusHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	if err := app.initDatabase(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if cfg.Scheduler.Enabled {
		if err := app.SchedulerService.Start(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	logger.Info().
		Str("storage", cfg.Storage.Type).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Bool("sentiment_model", cfg.Sentiment.Enabled && cfg.Sentiment.APIToken != "").
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", a.Config.Storage.Type).
		Msg("Storage layer initialized")
	return nil
}

// initServices wires the pipeline: classifier -> feed -> news -> market -> scoring -> recap
func (a *App) initServices() error {
	cfg := a.Config
	common.SetDefaultExchange(cfg.Market.Exchange)

	// 1. Sentiment classifier
	classifierOpts := []sentiment.Option{
		sentiment.WithLogger(a.Logger),
		sentiment.WithMaxInputChars(cfg.Sentiment.MaxInputChars),
	}
	if cfg.Sentiment.Enabled && cfg.Sentiment.APIToken != "" {
		model := sentiment.NewHuggingFaceModel(cfg.Sentiment.APIToken,
			sentiment.WithInferenceURL(cfg.Sentiment.BaseURL),
			sentiment.WithModelID(cfg.Sentiment.Model),
			sentiment.WithInferenceTimeout(cfg.Sentiment.Timeout),
			sentiment.WithInferenceRateLimit(cfg.Sentiment.RateLimit),
			sentiment.WithInferenceLogger(a.Logger),
		)
		classifierOpts = append(classifierOpts, sentiment.WithModel(model))
	}
	a.Classifier = sentiment.NewClassifier(classifierOpts...)

	// Load the model off the startup path; Classify falls back until it is ready
	common.SafeGo(a.Logger, "sentiment-warmup", func() {
		ctx, cancel := context.WithTimeout(a.ctx, modelWarmupTimeout)
		defer cancel()
		_ = a.Classifier.EnsureLoaded(ctx)
	})

	// 2. Feed reader and news service
	a.FeedReader = feed.NewReaderFromConfig(cfg.Feed, a.Logger)
	a.NewsService = news.NewService(
		a.StorageManager.ArticleStorage(),
		a.FeedReader,
		a.Classifier,
		cfg.News,
		a.Logger,
	)

	// 3. Market data
	if cfg.Market.APIKey == "" {
		a.Logger.Warn().Msg("No market data API key configured, predictions and stock views will fail")
	}
	a.MarketProvider = market.NewProvider(
		eodhd.NewClient(cfg.Market, a.Logger),
		cfg.Market.HistoryDays,
		a.Logger,
	)

	// 4. Scoring, recap and holdings
	a.PredictionService = prediction.NewService(
		a.MarketProvider,
		a.NewsService,
		cfg.Prediction,
		cfg.News.QueryKeyword,
		a.Logger,
	)

	topicSymbols := slices.Concat(market.PopularSymbols, market.SmallCapSymbols, cfg.Scheduler.Watchlist)
	a.RecapService = recap.NewService(
		a.StorageManager.ArticleStorage(),
		cfg.RecapWindowDuration(),
		topicSymbols,
		a.Logger,
	)

	a.PortfolioService = portfolio.NewService(
		a.StorageManager.HoldingStorage(),
		a.MarketProvider,
		a.Logger,
	)

	// 5. Scheduler and the refresh job
	a.SchedulerService = scheduler.NewService(a.Logger)
	if cfg.Scheduler.Enabled {
		a.RefreshJob = refresh.NewJob(a.NewsService, cfg.Scheduler, cfg.News.QueryKeyword, a.Logger)
		if err := a.SchedulerService.Register(cfg.Scheduler.Schedule, a.RefreshJob, cfg.Scheduler.RunOnStart); err != nil {
			return fmt.Errorf("failed to register refresh job: %w", err)
		}
	}

	return nil
}

// initHandlers creates the HTTP handlers
func (a *App) initHandlers() {
	a.NewsHandler = handlers.NewNewsHandler(a.NewsService, a.Config.News.OutputTimeFmt, a.Logger)
	a.PredictionHandler = handlers.NewPredictionHandler(a.PredictionService, a.Logger)
	a.RecapHandler = handlers.NewRecapHandler(a.RecapService, a.Logger)
	a.PortfolioHandler = handlers.NewPortfolioHandler(a.PortfolioService, a.Logger)
	a.StockHandler = handlers.NewStockHandler(a.MarketProvider, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService)
	a.StatusHandler = handlers.NewStatusHandler(a.StorageManager.ArticleStorage(), a.Classifier, a.Logger)
}

// Close stops background work and releases storage
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.cancelCtx()
	}

	if a.SchedulerService != nil && a.SchedulerService.IsRunning() {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
