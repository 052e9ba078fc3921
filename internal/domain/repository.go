package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are stored as JSON so every implementation behaves like Redis.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ListingFetcher retrieves raw listings for a keyword on one marketplace
type ListingFetcher interface {
	FetchListings(ctx context.Context, keyword, marketplace string, maxResults int) ([]RawListing, error)
}

// ScanArchive persists finished scans
type ScanArchive interface {
	Save(ctx context.Context, result *ScanResult) error
	FindByID(ctx context.Context, scanID string) (*ScanResult, error)
	ListRecent(ctx context.Context, limit int) ([]ScanSummary, error)
}

// ScanMetrics records scan outcomes
type ScanMetrics interface {
	RecordScan(status ScanStatus, duration time.Duration, opportunities int)
	RecordDropped(marketplace string, count int)
	RecordFetchError(marketplace string)
}
