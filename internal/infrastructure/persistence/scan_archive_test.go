package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fliphawk/backend/internal/domain"
	"github.com/fliphawk/backend/internal/infrastructure/database"
	"github.com/fliphawk/backend/internal/infrastructure/persistence"
)

func newArchive(t *testing.T) *persistence.GormScanArchive {
	t.Helper()
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return persistence.NewGormScanArchive(db)
}

func opportunity(buyLink, sellLink string, buy, sell, net float64) domain.Opportunity {
	return domain.Opportunity{
		Buy:              domain.Listing{Title: "Keychron K2 keyboard", Price: decimal.NewFromFloat(buy), Link: buyLink, Marketplace: "eBay", Condition: domain.ConditionUsed},
		Sell:             domain.Listing{Title: "Keychron K2 mechanical keyboard", Price: decimal.NewFromFloat(sell), Link: sellLink, Marketplace: "eBay", Condition: domain.ConditionUsed},
		GrossProfit:      decimal.NewFromFloat(sell - buy),
		NetProfit:        decimal.NewFromFloat(net),
		ProfitPercentage: 12.5,
		Similarity:       0.9,
		Confidence:       88,
		Subcategory:      "Keyboards",
		Fees: domain.Fees{
			Marketplace: decimal.NewFromFloat(sell * 0.1),
			Shipping:    decimal.NewFromFloat(5),
			Tax:         decimal.NewFromFloat(buy * 0.08),
		},
	}
}

func scanResult(id string, completed time.Time, opps ...domain.Opportunity) *domain.ScanResult {
	return &domain.ScanResult{
		Opportunities: opps,
		Meta: domain.ScanMeta{
			ScanID:              id,
			Category:            "Tech",
			Subcategories:       []string{"Keyboards", "Headphones"},
			TotalFound:          len(opps),
			Status:              domain.ScanCompleted,
			DroppedRecords:      2,
			FailedSubcategories: []string{"Headphones"},
			StartedAt:           completed.Add(-time.Minute),
			CompletedAt:         completed,
		},
	}
}

func TestGormScanArchive_SaveAndFind(t *testing.T) {
	archive := newArchive(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	result := scanResult("scan-1", now,
		opportunity("https://ebay.com/itm/1", "https://ebay.com/itm/2", 50, 90, 21.6),
		opportunity("https://ebay.com/itm/3", "https://ebay.com/itm/4", 40, 95, 35.3),
	)
	require.NoError(t, archive.Save(ctx, result))

	found, err := archive.FindByID(ctx, "scan-1")
	require.NoError(t, err)

	assert.Equal(t, "Tech", found.Meta.Category)
	assert.Equal(t, []string{"Keyboards", "Headphones"}, found.Meta.Subcategories)
	assert.Equal(t, []string{"Headphones"}, found.Meta.FailedSubcategories)
	assert.Equal(t, domain.ScanCompleted, found.Meta.Status)
	assert.Equal(t, 2, found.Meta.DroppedRecords)
	assert.WithinDuration(t, now, found.Meta.CompletedAt, time.Second)

	require.Len(t, found.Opportunities, 2)
	assert.Equal(t, "https://ebay.com/itm/1", found.Opportunities[0].Buy.Link)
	assert.Equal(t, "https://ebay.com/itm/3", found.Opportunities[1].Buy.Link)
	assert.True(t, decimal.NewFromFloat(35.3).Equal(found.Opportunities[1].NetProfit))
	assert.Equal(t, 88, found.Opportunities[0].Confidence)
}

func TestGormScanArchive_SaveReplaces(t *testing.T) {
	archive := newArchive(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, archive.Save(ctx, scanResult("scan-1", now,
		opportunity("a", "b", 50, 90, 20),
		opportunity("c", "d", 50, 90, 20),
	)))
	require.NoError(t, archive.Save(ctx, scanResult("scan-1", now,
		opportunity("e", "f", 50, 90, 20),
	)))

	found, err := archive.FindByID(ctx, "scan-1")
	require.NoError(t, err)
	require.Len(t, found.Opportunities, 1)
	assert.Equal(t, "e", found.Opportunities[0].Buy.Link)
}

func TestGormScanArchive_FindMissing(t *testing.T) {
	archive := newArchive(t)

	_, err := archive.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrScanNotFound)
}

func TestGormScanArchive_ListRecent(t *testing.T) {
	archive := newArchive(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, archive.Save(ctx, scanResult("old", base.Add(-2*time.Hour),
		opportunity("a", "b", 50, 90, 10))))
	require.NoError(t, archive.Save(ctx, scanResult("new", base,
		opportunity("c", "d", 50, 90, 12),
		opportunity("e", "f", 40, 95, 30))))
	require.NoError(t, archive.Save(ctx, scanResult("middle", base.Add(-time.Hour))))

	summaries, err := archive.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "new", summaries[0].ScanID)
	assert.Equal(t, "middle", summaries[1].ScanID)
	assert.InDelta(t, 30.0, summaries[0].BestProfit, 0.001)
	assert.Zero(t, summaries[1].BestProfit)
	assert.Equal(t, []string{"Keyboards", "Headphones"}, summaries[0].Subcategories)
}

func TestGormScanArchive_RejectsMissingID(t *testing.T) {
	archive := newArchive(t)

	err := archive.Save(context.Background(), &domain.ScanResult{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
