package marketplace

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fliphawk/backend/internal/domain"
)

// Router dispatches fetches to the fetcher registered for each marketplace.
// Marketplace names are matched case-insensitively.
type Router struct {
	mu       sync.RWMutex
	fetchers map[string]domain.ListingFetcher
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{fetchers: make(map[string]domain.ListingFetcher)}
}

// Register serves marketplace with fetcher, replacing any previous one
func (r *Router) Register(marketplace string, fetcher domain.ListingFetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[strings.ToLower(strings.TrimSpace(marketplace))] = fetcher
}

// Marketplaces lists registered marketplaces, sorted
func (r *Router) Marketplaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.fetchers))
	for name := range r.fetchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FetchListings implements domain.ListingFetcher
func (r *Router) FetchListings(ctx context.Context, keyword, marketplace string, maxResults int) ([]domain.RawListing, error) {
	r.mu.RLock()
	fetcher, ok := r.fetchers[strings.ToLower(strings.TrimSpace(marketplace))]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownMarketplace, marketplace)
	}
	return fetcher.FetchListings(ctx, keyword, marketplace, maxResults)
}
