package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnparseableListing is returned when a raw record has no usable title or price
	ErrUnparseableListing = errors.New("unparseable listing")

	// ErrFetchFailed is returned when a marketplace could not be queried
	ErrFetchFailed = errors.New("listing fetch failed")

	// ErrUnknownMarketplace is returned when no fetcher serves a marketplace
	ErrUnknownMarketplace = errors.New("unknown marketplace")

	// ErrScanFailed is returned when a scan could not obtain any listings
	ErrScanFailed = errors.New("scan failed")

	// ErrScanCancelled is returned when a scan was stopped by the caller
	ErrScanCancelled = errors.New("scan cancelled")

	// ErrScanNotFound is returned when a scan ID is unknown
	ErrScanNotFound = errors.New("scan not found")

	// ErrScanInProgress is returned when a result is requested before the scan ends
	ErrScanInProgress = errors.New("scan still in progress")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
