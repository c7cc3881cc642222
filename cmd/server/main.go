package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"estateflow/internal/collection"
	"estateflow/internal/config"
	"estateflow/internal/handler"
	"estateflow/internal/metrics"
	"estateflow/internal/model"
	"estateflow/internal/ratelimit"
	"estateflow/internal/repository"
	"estateflow/internal/service"
	"estateflow/internal/storage"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("EstateFlow", "version", Version, "build_time", BuildTime, "git_commit", GitCommit)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.Server.GinMode)
	m := metrics.New()

	var repo *repository.PostgresRepository
	if cfg.UsesPostgres() {
		r, err := connectPostgres(ctx, cfg)
		if err != nil {
			logger.Warn("PostgreSQL unavailable", "error", err)
		} else {
			repo = r
			defer repo.Close()
			logger.Info("connected to PostgreSQL")
		}
	}

	store, closeStore := openStorage(cfg, repo, logger)
	defer closeStore()

	stores, err := collection.Open(ctx, store, collection.Keys{
		Favorites:  cfg.Storage.FavoritesKey,
		Comparison: cfg.Storage.ComparisonKey,
		Transcript: cfg.Storage.TranscriptKey,
	}, cfg.Comparison.Max, collection.WithLogger(logger), collection.WithObserver(m))
	if err != nil {
		return fmt.Errorf("failed to open collections: %w", err)
	}
	logger.Info("collections loaded",
		"favorites", stores.Favorites.Count(),
		"comparison", stores.Comparison.Count(),
		"transcript", stores.Transcript.Len(),
	)

	catalog := service.NewCatalog(catalogSource(ctx, cfg, repo, logger), logger)
	if err := catalog.Refresh(ctx); err != nil {
		logger.Warn("starting with an empty catalog", "error", err)
	}
	if cfg.Catalog.RefreshInterval > 0 {
		go catalog.Run(ctx, time.Duration(cfg.Catalog.RefreshInterval)*time.Minute)
	}

	extractor := service.NewExtractor()
	assistant := service.NewAssistant(stores.Transcript, catalog, conversation(cfg, logger),
		service.WithAssistantLogger(logger),
		service.WithChatObserver(m),
		service.WithExtractor(extractor),
		service.WithContextTurns(cfg.Chat.ContextTurns),
		service.WithMaxResults(cfg.Chat.MaxResults),
	)
	searchService := service.NewSearchService(catalog, extractor)

	var chatLimiter *ratelimit.Limiter
	if cfg.Chat.RateLimit > 0 {
		chatLimiter = ratelimit.New(cfg.Chat.RateLimit, time.Minute, cfg.Chat.RateBurst)
		defer chatLimiter.Close()
	}

	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitList(cfg.Server.AllowedOrigins)
	corsConfig.AllowMethods = splitList(cfg.Server.AllowedMethods)
	corsConfig.AllowHeaders = splitList(cfg.Server.AllowedHeaders)
	router.Use(cors.New(corsConfig))

	handler.RegisterRoutes(router, handler.Handlers{
		Listings:    handler.NewListingHandler(searchService),
		Favorites:   handler.NewFavoritesHandler(stores.Favorites, catalog),
		Comparison:  handler.NewComparisonHandler(stores.Comparison, catalog, m),
		Chat:        handler.NewChatHandler(assistant, 0),
		ChatLimiter: chatLimiter,
		Metrics:     m.Handler(),
		Build:       handler.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit},
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr, "api", fmt.Sprintf("http://localhost:%d/api/v1", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func connectPostgres(ctx context.Context, cfg *config.Config) (*repository.PostgresRepository, error) {
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

// openStorage picks the durable store for the collections. A backend that
// cannot be opened degrades to storage.Unavailable: the collections then
// start empty and drop their writes.
func openStorage(cfg *config.Config, repo *repository.PostgresRepository, logger *slog.Logger) (storage.Storage, func()) {
	noop := func() {}

	switch cfg.Storage.Backend {
	case config.StorageMemory:
		logger.Info("using in-memory storage; collections will not survive a restart")
		return storage.NewMemory(), noop

	case config.StoragePostgres:
		if repo == nil {
			logger.Warn("PostgreSQL storage unavailable, collections will not persist")
			return storage.Unavailable{Cause: errors.New("postgres not connected")}, noop
		}
		logger.Info("using PostgreSQL storage")
		return repo, noop

	default:
		db, err := storage.OpenBadger(storage.BadgerConfig{
			Path:       cfg.Storage.BadgerPath,
			SyncWrites: cfg.Storage.SyncWrites,
			Logger:     logger,
		})
		if err != nil {
			logger.Warn("badger storage unavailable, collections will not persist", "path", cfg.Storage.BadgerPath, "error", err)
			return storage.Unavailable{Cause: err}, noop
		}
		logger.Info("using badger storage", "path", cfg.Storage.BadgerPath)
		return db, func() {
			if err := db.Close(); err != nil {
				logger.Warn("failed to close badger", "error", err)
			}
		}
	}
}

// failingSource stands in for a catalog backend that could not be set up.
type failingSource struct{ err error }

func (s failingSource) FetchCatalog(context.Context) ([]model.Property, error) { return nil, s.err }

func catalogSource(ctx context.Context, cfg *config.Config, repo *repository.PostgresRepository, logger *slog.Logger) service.CatalogSource {
	mock := service.MockSource{Size: cfg.Catalog.MockSize, Seed: uint64(cfg.Catalog.MockSeed)}

	var primary service.CatalogSource
	switch cfg.Catalog.Source {
	case config.CatalogMock:
		logger.Info("using generated catalog", "size", cfg.Catalog.MockSize, "seed", cfg.Catalog.MockSeed)
		return mock

	case config.CatalogBayut:
		logger.Info("using Bayut catalog", "host", cfg.Catalog.RapidAPIHost, "locations", cfg.Catalog.LocationIDs)
		primary = service.NewBayutSource(&cfg.Catalog, logger)

	case config.CatalogPostgres:
		if repo == nil {
			primary = failingSource{err: errors.New("postgres not connected")}
			break
		}
		if cfg.Catalog.SeedEmpty {
			seedCatalog(ctx, repo, mock, logger)
		}
		logger.Info("using PostgreSQL catalog")
		primary = repo
	}

	if !cfg.Catalog.FallbackToMock {
		return primary
	}
	return &service.FallbackSource{Primary: primary, Fallback: mock, Logger: logger}
}

// seedCatalog fills an empty properties table with the generated catalog.
func seedCatalog(ctx context.Context, repo *repository.PostgresRepository, mock service.MockSource, logger *slog.Logger) {
	total, err := repo.CountProperties(ctx)
	if err != nil {
		logger.Warn("failed to count properties", "error", err)
		return
	}
	if total > 0 {
		return
	}
	items, _ := mock.FetchCatalog(ctx)
	n, err := repo.UpsertProperties(ctx, items)
	if err != nil {
		logger.Warn("failed to seed properties", "error", err)
		return
	}
	logger.Info("seeded properties table", "count", n)
}

func conversation(cfg *config.Config, logger *slog.Logger) service.Conversation {
	if cfg.Chat.Provider == config.ProviderOpenAI {
		client := service.NewOpenAIClient(&cfg.OpenAI, logger)
		if client.IsEnabled() {
			logger.Info("OpenAI conversation provider initialized", "api_base", cfg.OpenAI.APIBase, "model", cfg.OpenAI.ChatModel)
		} else {
			logger.Warn("OpenAI is disabled - the assistant will report a missing API key",
				"hint", "set OPENAI_API_KEY to enable chat")
		}
		return client
	}

	client := service.NewGeminiClient(&cfg.Gemini, logger)
	if client.IsEnabled() {
		logger.Info("Gemini conversation provider initialized", "model", cfg.Gemini.Model)
	} else {
		logger.Warn("Gemini is disabled - the assistant will report a missing API key",
			"hint", "set GEMINI_API_KEY to enable chat")
	}
	return client
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
