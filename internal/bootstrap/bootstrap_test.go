package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fliphawk/backend/config"
	"github.com/fliphawk/backend/internal/domain"
)

func offlineConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: "8080", Environment: "test"},
		Logging: config.LoggingConfig{Level: "error"},
		Scraper: config.ScraperConfig{
			EbayBaseURL:       "http://127.0.0.1:0",
			Timeout:           time.Second,
			RequestsPerSecond: 10,
			Burst:             1,
			MaxRetries:        1,
		},
		Matching: config.MatchingConfig{MinSimilarity: 0.7},
		Fees: config.FeesConfig{
			MarketplaceRate: 0.10,
			DefaultShipping: 5,
			TaxRate:         0.08,
		},
		Scan: config.ScanConfig{
			MaxSubcategories:       5,
			DefaultMaxResults:      40,
			KeywordsPerSubcategory: 1,
			Marketplaces:           []string{"amazon", "ebay", "mercari"},
			ResultCacheTTL:         time.Minute,
			ProgressTTL:            time.Hour,
			FixturesPath:           "../../testdata/fixtures.json",
		},
		Store:    config.StoreConfig{Type: "memory"},
		Database: config.DatabaseConfig{Type: "sqlite", Path: ":memory:"},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func TestNew_OfflineScan(t *testing.T) {
	cfg := offlineConfig()
	InitLogger(cfg)

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Scans)
	require.NotNil(t, app.Metrics)

	ctx := context.Background()
	result, err := app.Scans.RunScan(ctx, domain.ScanRequest{
		Category:      "Tech",
		Subcategories: []string{"Headphones", "Keyboards"},
		SortBy:        domain.SortByProfit,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ScanCompleted, result.Meta.Status)
	require.Len(t, result.Opportunities, 2)
	assert.Equal(t, "Keyboards", result.Opportunities[0].Subcategory)
	assert.Equal(t, "49", result.Opportunities[0].NetProfit.StringFixed(0))
	assert.Equal(t, "Headphones", result.Opportunities[1].Subcategory)
	assert.Equal(t, "31", result.Opportunities[1].NetProfit.StringFixed(0))
	assert.Equal(t, 1, result.Meta.DroppedRecords)

	archived, err := app.Scans.GetResult(ctx, result.Meta.ScanID)
	require.NoError(t, err)
	assert.Len(t, archived.Opportunities, 2)

	summaries, err := app.Scans.ListScans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, result.Meta.ScanID, summaries[0].ScanID)
}

func TestNew_MissingFixtureFeed(t *testing.T) {
	cfg := offlineConfig()
	cfg.Scan.FixturesPath = "does-not-exist.json"

	var app *App
	var err error
	assert.NotPanics(t, func() {
		app, err = New(context.Background(), cfg)
	})
	assert.Error(t, err)
	assert.Nil(t, app)
}

func TestNew_UnsupportedDatabase(t *testing.T) {
	cfg := offlineConfig()
	cfg.Database.Type = "oracle"

	var app *App
	var err error
	assert.NotPanics(t, func() {
		app, err = New(context.Background(), cfg)
	})
	assert.Error(t, err)
	assert.Nil(t, app)
}

func TestBuild_ClosesOpenedResourcesOnFailure(t *testing.T) {
	cfg := offlineConfig()
	cfg.Database.Type = "oracle"

	var closed []string
	a := &App{Config: cfg}
	a.closers = append(a.closers, func() error {
		closed = append(closed, "seeded")
		return nil
	})

	var app *App
	var err error
	assert.NotPanics(t, func() {
		app, err = build(context.Background(), a)
	})
	require.Error(t, err)
	assert.Nil(t, app)

	// closers registered before the database failed have all run
	assert.Equal(t, []string{"seeded"}, closed)
	assert.Nil(t, a.closers)
}

func TestApp_CloseRunsInReverseOrder(t *testing.T) {
	var order []int
	a := &App{}
	for i := 0; i < 3; i++ {
		i := i
		a.closers = append(a.closers, func() error {
			order = append(order, i)
			if i == 1 {
				return errors.New("close failed")
			}
			return nil
		})
	}

	err := a.Close()
	assert.ErrorContains(t, err, "close failed")
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.NoError(t, a.Close())

	var nilApp *App
	assert.NoError(t, nilApp.Close())
}

func TestNew_MetricsDisabled(t *testing.T) {
	cfg := offlineConfig()
	cfg.Metrics.Enabled = false

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Metrics)
}
