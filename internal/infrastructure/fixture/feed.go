package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fliphawk/backend/internal/domain"
)

// record is a raw listing plus the search keywords it should answer.
// A record without keywords answers every search.
type record struct {
	domain.RawListing
	Keywords []string `json:"keywords,omitempty"`
}

type feedFile struct {
	Listings map[string][]record `json:"listings"`
	Failing  []string            `json:"failing,omitempty"`
}

// Feed serves listings from a JSON document, for offline scans and demos.
//
// Format:
//
//	{"listings": {"ebay": [{"title": "...", "price": "$10", "keywords": ["Headphones"]}]},
//	 "failing": ["amazon"]}
//
// Marketplaces listed under "failing" return ErrFetchFailed.
type Feed struct {
	listings map[string][]record
	failing  map[string]bool
}

// LoadFeed reads a feed from a file
func LoadFeed(path string) (*Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture feed: %w", err)
	}
	defer f.Close()

	return NewFeed(f)
}

// NewFeed decodes a feed from r
func NewFeed(r io.Reader) (*Feed, error) {
	var file feedFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode fixture feed: %w", err)
	}

	feed := &Feed{
		listings: make(map[string][]record, len(file.Listings)),
		failing:  make(map[string]bool, len(file.Failing)),
	}
	for marketplace, records := range file.Listings {
		feed.listings[strings.ToLower(marketplace)] = records
	}
	for _, marketplace := range file.Failing {
		feed.failing[strings.ToLower(marketplace)] = true
	}
	return feed, nil
}

// Marketplaces lists the marketplaces present in the feed, sorted
func (f *Feed) Marketplaces() []string {
	names := make([]string, 0, len(f.listings))
	for name := range f.listings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FetchListings implements domain.ListingFetcher
func (f *Feed) FetchListings(ctx context.Context, keyword, marketplace string, maxResults int) ([]domain.RawListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	key := strings.ToLower(marketplace)
	if f.failing[key] {
		return nil, fmt.Errorf("%w: %s is marked failing", domain.ErrFetchFailed, marketplace)
	}

	var result []domain.RawListing
	for _, rec := range f.listings[key] {
		if !rec.matches(keyword) {
			continue
		}
		raw := rec.RawListing
		if raw.Marketplace == "" {
			raw.Marketplace = marketplace
		}
		result = append(result, raw)
		if maxResults > 0 && len(result) >= maxResults {
			break
		}
	}
	return result, nil
}

func (r record) matches(keyword string) bool {
	if len(r.Keywords) == 0 {
		return true
	}
	for _, kw := range r.Keywords {
		if strings.EqualFold(strings.TrimSpace(kw), strings.TrimSpace(keyword)) {
			return true
		}
	}
	return false
}
