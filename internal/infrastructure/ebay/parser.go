package ebay

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fliphawk/backend/internal/domain"
)

// Prices outside this window are placeholders, accessories or typos
const (
	minSanePrice = 0.99
	maxSanePrice = 30000.0
)

var (
	firstPriceRegex   = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	newListingPrefix  = regexp.MustCompile(`(?i)^new listing\s*`)
	placeholderImages = []string{"ir.ebaystatic.com", "s_1x2.gif"}
)

// parseSearchResults extracts listing rows from a search results page
func parseSearchResults(doc *goquery.Document, maxResults int) []domain.RawListing {
	var listings []domain.RawListing

	doc.Find("li.s-item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if maxResults > 0 && len(listings) >= maxResults {
			return false
		}
		if listing, ok := parseItem(item); ok {
			listings = append(listings, listing)
		}
		return true
	})

	return listings
}

// parseItem maps one result row. Rows without a title, a sane price or an
// item link are skipped.
func parseItem(item *goquery.Selection) (domain.RawListing, bool) {
	title := strings.TrimSpace(item.Find(".s-item__title").First().Text())
	title = newListingPrefix.ReplaceAllString(title, "")
	if title == "" || strings.EqualFold(title, "Shop on eBay") {
		return domain.RawListing{}, false
	}

	priceText := strings.TrimSpace(item.Find(".s-item__price").First().Text())
	price, ok := firstPrice(priceText)
	if !ok || price <= minSanePrice || price > maxSanePrice {
		return domain.RawListing{}, false
	}

	link := cleanItemLink(item.Find("a.s-item__link").First().AttrOr("href", ""))
	if link == "" {
		return domain.RawListing{}, false
	}

	return domain.RawListing{
		Title:       title,
		Price:       domain.RawPrice(priceText),
		Condition:   strings.TrimSpace(item.Find(".SECONDARY_INFO").First().Text()),
		Link:        link,
		Image:       imageURL(item),
		Shipping:    strings.TrimSpace(item.Find(".s-item__shipping, .s-item__logisticsCost").First().Text()),
		Marketplace: MarketplaceName,
	}, true
}

// cleanItemLink drops tracking parameters and rejects non-item links
func cleanItemLink(href string) string {
	href = strings.TrimSpace(href)
	if i := strings.Index(href, "?"); i >= 0 {
		href = href[:i]
	}
	if !strings.Contains(href, "/itm/") {
		return ""
	}
	return href
}

// imageURL prefers src but falls back to data-src for lazy-loaded thumbnails
func imageURL(item *goquery.Selection) string {
	img := item.Find("img.s-item__image-img, .s-item__image img").First()
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src == "" || strings.HasPrefix(src, "data:") || isPlaceholder(src) {
		if lazy := strings.TrimSpace(img.AttrOr("data-src", "")); lazy != "" {
			return lazy
		}
	}
	return src
}

func isPlaceholder(src string) bool {
	for _, p := range placeholderImages {
		if strings.Contains(src, p) {
			return true
		}
	}
	return false
}

// firstPrice reads the first number in price text ("$12.99 to $15.00" -> 12.99)
func firstPrice(text string) (float64, bool) {
	match := firstPriceRegex.FindString(text)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
