package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Condition is the canonical item condition used for matching
type Condition string

const (
	ConditionNew     Condition = "New"
	ConditionLikeNew Condition = "Like New"
	ConditionUsed    Condition = "Used"
	ConditionUnknown Condition = "Unknown"
)

// Listing is a normalized marketplace listing.
// Price is always non-negative and Title is never empty.
type Listing struct {
	Title       string           `json:"title"`
	Price       decimal.Decimal  `json:"price"`
	Condition   Condition        `json:"condition"`
	Link        string           `json:"link"`
	ImageURL    string           `json:"imageUrl"`
	Marketplace string           `json:"marketplace"`
	ModelNumber string           `json:"modelNumber,omitempty"`
	Shipping    *decimal.Decimal `json:"shipping,omitempty"`
	Subcategory string           `json:"subcategory,omitempty"`
}

// Key identifies a listing for de-duplication. The link is preferred,
// listings without one fall back to marketplace, title and price.
func (l Listing) Key() string {
	if l.Link != "" {
		return l.Link
	}
	return strings.ToLower(l.Marketplace) + "|" + strings.ToLower(l.Title) + "|" + l.Price.String()
}

// RawListing is a listing as a collaborator delivered it. Field names vary
// between sources, so every alias a source is known to use is accepted here
// and reconciled by the normalizer.
type RawListing struct {
	Title       string   `json:"title"`
	Price       RawPrice `json:"price"`
	Condition   string   `json:"condition,omitempty"`
	Link        string   `json:"link,omitempty"`
	URL         string   `json:"url,omitempty"`
	Image       string   `json:"image,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	ModelNumber string   `json:"model_number,omitempty"`
	Shipping    string   `json:"shipping,omitempty"`
	Marketplace string   `json:"marketplace,omitempty"`
}

// RawPrice holds a price exactly as received: either a display string
// ("$1,299.99", "£45.00 to £60.00") or a bare number.
type RawPrice string

// UnmarshalJSON accepts both JSON strings and JSON numbers. Numbers are
// rewritten in plain decimal form so exponents survive text parsing.
func (p *RawPrice) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = RawPrice(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return fmt.Errorf("invalid price %s: %w", n, err)
	}
	*p = RawPrice(d.String())
	return nil
}

// PriceFromFloat builds a RawPrice from a numeric value
func PriceFromFloat(v float64) RawPrice {
	return RawPrice(strconv.FormatFloat(v, 'f', -1, 64))
}
