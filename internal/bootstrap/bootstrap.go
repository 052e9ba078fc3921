package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fliphawk/backend/config"
	"github.com/fliphawk/backend/internal/domain"
	"github.com/fliphawk/backend/internal/infrastructure/cache"
	"github.com/fliphawk/backend/internal/infrastructure/database"
	"github.com/fliphawk/backend/internal/infrastructure/ebay"
	"github.com/fliphawk/backend/internal/infrastructure/fixture"
	"github.com/fliphawk/backend/internal/infrastructure/marketplace"
	"github.com/fliphawk/backend/internal/infrastructure/metrics"
	"github.com/fliphawk/backend/internal/infrastructure/persistence"
	"github.com/fliphawk/backend/internal/usecase"
	logx "github.com/fliphawk/backend/pkg/logger"
)

const memorySweepInterval = time.Minute

// App is the wired application shared by the server and the CLI
type App struct {
	Config  *config.Config
	Scans   *usecase.ScanService
	Metrics *metrics.Collector // nil when metrics are disabled

	closers []func() error
}

// InitLogger configures the global logger from cfg
func InitLogger(cfg *config.Config) {
	logx.Init(logx.Options{
		Environment: cfg.Server.Environment,
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
	})
}

// New wires config into infrastructure and usecases. When wiring fails
// halfway, everything opened so far is closed before the error is returned.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	return build(ctx, &App{Config: cfg})
}

func build(ctx context.Context, a *App) (*App, error) {
	if err := a.wire(ctx); err != nil {
		if cerr := a.Close(); cerr != nil {
			logx.Warn().Err(cerr).Msg("failed to release resources after wiring error")
		}
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	store, err := a.newStore(ctx)
	if err != nil {
		return err
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}

	archive, err := a.newArchive()
	if err != nil {
		return err
	}

	scorer := usecase.NewSimilarityScorer(usecase.ScorerConfig{
		MinSimilarity:      cfg.Matching.MinSimilarity,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})
	fees := usecase.NewFeeModel(usecase.FeeConfig{
		MarketplaceRate:  cfg.Fees.MarketplaceRate,
		MarketplaceRates: cfg.Fees.MarketplaceRates,
		DefaultShipping:  cfg.Fees.DefaultShipping,
		TaxRate:          cfg.Fees.TaxRate,
	})
	builder := usecase.NewOpportunityBuilder(scorer, fees, usecase.BuilderConfig{
		MinNetProfit: cfg.Fees.MinNetProfit,
	})

	opts := []usecase.ScanOption{usecase.WithArchive(archive)}
	if cfg.Metrics.Enabled {
		a.Metrics = metrics.NewCollector()
		opts = append(opts, usecase.WithMetrics(a.Metrics))
	}

	a.Scans = usecase.NewScanService(fetcher, store, builder, usecase.ScanServiceConfig{
		Marketplaces:           cfg.Scan.Marketplaces,
		MaxSubcategories:       cfg.Scan.MaxSubcategories,
		DefaultMaxResults:      cfg.Scan.DefaultMaxResults,
		KeywordsPerSubcategory: cfg.Scan.KeywordsPerSubcategory,
		ResultCacheTTL:         cfg.Scan.ResultCacheTTL,
		ProgressTTL:            cfg.Scan.ProgressTTL,
	}, opts...)

	logx.Info().
		Strs("marketplaces", cfg.Scan.Marketplaces).
		Str("store", cfg.Store.Type).
		Str("database", cfg.Database.Type).
		Bool("metrics", cfg.Metrics.Enabled).
		Msg("application wired")

	return nil
}

// Close releases resources in reverse order of acquisition
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) newStore(ctx context.Context) (domain.CacheRepository, error) {
	switch a.Config.Store.Type {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{URL: a.Config.Store.RedisURL})
		if err != nil {
			return nil, fmt.Errorf("connect redis store: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		logx.Info().Msg("using redis store")
		return cache.NewRedisCache(client, ""), nil

	default:
		store := cache.NewMemoryCache(memorySweepInterval)
		a.closers = append(a.closers, store.Close)
		return store, nil
	}
}

func (a *App) newArchive() (domain.ScanArchive, error) {
	db, err := database.NewConnection(&a.Config.Database)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { return database.Close(db) })

	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}
	return persistence.NewGormScanArchive(db), nil
}

// newFetcher registers the eBay scraper. A fixture feed, when configured,
// takes over every marketplace it lists or the scan is configured for.
func newFetcher(cfg *config.Config) (*marketplace.Router, error) {
	router := marketplace.NewRouter()

	client := ebay.NewClient(ebay.ClientConfig{
		BaseURL:           cfg.Scraper.EbayBaseURL,
		Timeout:           cfg.Scraper.Timeout,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		Burst:             cfg.Scraper.Burst,
		MaxRetries:        cfg.Scraper.MaxRetries,
		UserAgent:         cfg.Scraper.UserAgent,
	})
	if cfg.Server.Environment == "development" {
		client.SetDebug(true)
	}
	router.Register(ebay.MarketplaceName, client)

	if cfg.Scan.FixturesPath != "" {
		feed, err := fixture.LoadFeed(cfg.Scan.FixturesPath)
		if err != nil {
			return nil, err
		}
		names := append(feed.Marketplaces(), cfg.Scan.Marketplaces...)
		for _, name := range names {
			router.Register(name, feed)
		}
		logx.Info().
			Str("path", cfg.Scan.FixturesPath).
			Strs("marketplaces", feed.Marketplaces()).
			Msg("serving listings from fixture feed")
	}

	served := make(map[string]bool)
	for _, name := range router.Marketplaces() {
		served[name] = true
	}
	for _, name := range cfg.Scan.Marketplaces {
		if !served[strings.ToLower(name)] {
			logx.Warn().Str("marketplace", name).Msg("no fetcher registered, searches will fail")
		}
	}

	return router, nil
}
