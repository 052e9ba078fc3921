package ebay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fliphawk/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body><ul class="srp-results">
<li class="s-item"><div class="s-item__title">Shop on eBay</div><span class="s-item__price">$20.00</span>
  <a class="s-item__link" href="https://www.ebay.com/itm/123"></a></li>
<li class="s-item">
  <div class="s-item__image"><img class="s-item__image-img" src="https://ir.ebaystatic.com/rs/s_1x2.gif" data-src="https://i.ebayimg.com/images/g/abc/s-l225.jpg"></div>
  <div class="s-item__title"><span>New Listing</span>Sony WH-1000XM4 Wireless Headphones</div>
  <span class="SECONDARY_INFO">Pre-Owned</span>
  <span class="s-item__price">$180.00</span>
  <span class="s-item__shipping">+$8.50 shipping</span>
  <a class="s-item__link" href="https://www.ebay.com/itm/111?hash=item1&amp;_trkparms=x"></a>
</li>
<li class="s-item">
  <div class="s-item__image"><img class="s-item__image-img" src="https://i.ebayimg.com/images/g/def/s-l225.jpg"></div>
  <div class="s-item__title">Sony WH-1000XM4 Headphones Black</div>
  <span class="SECONDARY_INFO">Brand New</span>
  <span class="s-item__price">$240.00 to $260.00</span>
  <span class="s-item__shipping">Free shipping</span>
  <a class="s-item__link" href="https://www.ebay.com/itm/222"></a>
</li>
<li class="s-item">
  <div class="s-item__title">Headphone sticker</div>
  <span class="s-item__price">$0.50</span>
  <a class="s-item__link" href="https://www.ebay.com/itm/333"></a>
</li>
<li class="s-item">
  <div class="s-item__title">Sponsored search link</div>
  <span class="s-item__price">$50.00</span>
  <a class="s-item__link" href="https://www.ebay.com/sch/other"></a>
</li>
</ul></body></html>`

func newTestClient(baseURL string) *Client {
	c := NewClient(ClientConfig{BaseURL: baseURL, RequestsPerSecond: 1000, Burst: 100, MaxRetries: 3})
	c.backoffBase = time.Millisecond
	return c
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(ClientConfig{})

	assert.Equal(t, defaultBaseURL, client.baseURL)
	assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
	assert.Equal(t, defaultMaxRetries, client.maxRetries)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)

	client.SetDebug(true)
	assert.True(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	client := NewClient(ClientConfig{})

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, client.exponentialBackoff(tt.attempt))
		})
	}
}

func TestSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sch/i.html", r.URL.Path)
		assert.Equal(t, "sony headphones", r.URL.Query().Get("_nkw"))
		assert.Equal(t, "15", r.URL.Query().Get("_sop"))
		assert.Equal(t, "60", r.URL.Query().Get("_ipg"))

		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(searchPage))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	listings, err := client.Search(context.Background(), "sony headphones", 40)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	first := listings[0]
	assert.Equal(t, "Sony WH-1000XM4 Wireless Headphones", first.Title)
	assert.Equal(t, domain.RawPrice("$180.00"), first.Price)
	assert.Equal(t, "https://www.ebay.com/itm/111", first.Link)
	assert.Equal(t, "https://i.ebayimg.com/images/g/abc/s-l225.jpg", first.Image)
	assert.Equal(t, "Pre-Owned", first.Condition)
	assert.Equal(t, "+$8.50 shipping", first.Shipping)
	assert.Equal(t, MarketplaceName, first.Marketplace)

	second := listings[1]
	assert.Equal(t, "https://i.ebayimg.com/images/g/def/s-l225.jpg", second.Image)
	assert.Equal(t, domain.RawPrice("$240.00 to $260.00"), second.Price)
}

func TestSearch_RespectsMaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchPage))
	}))
	defer server.Close()

	listings, err := newTestClient(server.URL).Search(context.Background(), "sony", 1)
	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestSearch_EmptyKeyword(t *testing.T) {
	_, err := newTestClient("http://unused").Search(context.Background(), "  ", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestSearch_ServerError_Retries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(searchPage))
	}))
	defer server.Close()

	listings, err := newTestClient(server.URL).Search(context.Background(), "sony", 10)
	require.NoError(t, err)
	assert.Len(t, listings, 2)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestSearch_ClientError_NoRetry(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "sony", 10)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestSearch_TooManyRequests_ExhaustsRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "sony", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetchFailed))
	assert.Contains(t, err.Error(), domain.ErrRateLimited.Error())
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestSearch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchPage))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).Search(ctx, "sony", 10)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestFetchListings_RejectsOtherMarketplaces(t *testing.T) {
	_, err := newTestClient("http://unused").FetchListings(context.Background(), "sony", "amazon", 10)
	assert.ErrorIs(t, err, domain.ErrUnknownMarketplace)
}

func TestPageSize(t *testing.T) {
	assert.Equal(t, 60, pageSize(0))
	assert.Equal(t, 60, pageSize(60))
	assert.Equal(t, 120, pageSize(61))
	assert.Equal(t, 240, pageSize(500))
}
