package ebay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fliphawk/backend/internal/domain"
	logx "github.com/fliphawk/backend/pkg/logger"
	"golang.org/x/time/rate"
)

// MarketplaceName is the marketplace this client serves
const MarketplaceName = "eBay"

const (
	defaultBaseURL     = "https://www.ebay.com"
	defaultTimeout     = 15 * time.Second
	defaultMaxRetries  = 3
	defaultBackoffBase = 500 * time.Millisecond
	maxBodyBytes       = 8 << 20
	sortPriceAscending = "15"
)

// ClientConfig holds scraper settings
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	UserAgent         string
}

// Client scrapes eBay search result pages
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	maxRetries  int
	backoffBase time.Duration
	debug       bool
}

// NewClient creates a new eBay search scraper
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 4
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		userAgent:   cfg.UserAgent,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		maxRetries:  retries,
		backoffBase: defaultBackoffBase,
	}
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// FetchListings implements domain.ListingFetcher for the eBay marketplace
func (c *Client) FetchListings(ctx context.Context, keyword, marketplace string, maxResults int) ([]domain.RawListing, error) {
	if !strings.EqualFold(marketplace, MarketplaceName) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownMarketplace, marketplace)
	}
	return c.Search(ctx, keyword, maxResults)
}

// Search returns up to maxResults listings for keyword, cheapest first
func (c *Client) Search(ctx context.Context, keyword string, maxResults int) ([]domain.RawListing, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: empty keyword", domain.ErrInvalidRequest)
	}

	params := url.Values{}
	params.Set("_nkw", keyword)
	params.Set("_sop", sortPriceAscending)
	params.Set("_ipg", strconv.Itoa(pageSize(maxResults)))
	reqURL := fmt.Sprintf("%s/sch/i.html?%s", c.baseURL, params.Encode())

	c.debugLog("search %q -> %s", keyword, reqURL)

	body, err := c.getWithRetry(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", domain.ErrFetchFailed, err)
	}

	listings := parseSearchResults(doc, maxResults)
	c.debugLog("found %d listings for %q", len(listings), keyword)
	return listings, nil
}

// getWithRetry issues a rate-limited GET, retrying network failures, 429 and 5xx
func (c *Client) getWithRetry(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrFetchFailed, err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, ctx.Err())
			}
			c.debugLog("request error (attempt %d): %v", attempt, err)
			lastErr = err
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := readLimitedBody(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, fmt.Errorf("%w: read body: %v", domain.ErrFetchFailed, readErr)
			}
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			c.debugLog("rate limited (attempt %d)", attempt)
			lastErr = fmt.Errorf("%w: %v", domain.ErrFetchFailed, domain.ErrRateLimited)

		case resp.StatusCode >= 500:
			c.debugLog("server error %d (attempt %d)", resp.StatusCode, attempt)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrFetchFailed, resp.StatusCode)

		default:
			return nil, fmt.Errorf("%w: status %d", domain.ErrFetchFailed, resp.StatusCode)
		}

		if attempt < c.maxRetries {
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}

	logx.Warn().Str("url", reqURL).Int("attempts", c.maxRetries).Msg("[EBAY] all retries failed")
	return nil, lastErr
}

// doRequest executes an HTTP GET request with browser-like headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrFetchFailed, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return resp, nil
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.exponentialBackoff(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// exponentialBackoff doubles the wait for every attempt: base, 2*base, 4*base...
func (c *Client) exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return c.backoffBase * time.Duration(1<<(attempt-1))
}

// readLimitedBody reads at most maxBodyBytes from r
func readLimitedBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxBodyBytes))
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		logx.Debug().Msgf("[EBAY] "+format, args...)
	}
}

// pageSize picks the smallest eBay page size that covers maxResults
func pageSize(maxResults int) int {
	switch {
	case maxResults <= 60:
		return 60
	case maxResults <= 120:
		return 120
	default:
		return 240
	}
}
