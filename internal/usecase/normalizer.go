package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/fliphawk/backend/internal/domain"
	logx "github.com/fliphawk/backend/pkg/logger"
	"github.com/shopspring/decimal"
)

var (
	priceNumberRegex = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	priceRangeRegex  = regexp.MustCompile(`(?i)\d\s*(?:to|-|–)\s*\D{0,4}\d`)
	modelTokenRegex  = regexp.MustCompile(`[A-Za-z0-9]+(?:-[A-Za-z0-9]+)*`)
	hasLetterRegex   = regexp.MustCompile(`[A-Za-z]`)
	hasDigitRegex    = regexp.MustCompile(`[0-9]`)
)

// minModelNumberLength is the shortest token accepted as a model number
const minModelNumberLength = 4

// Normalizer turns raw marketplace records into Listings
type Normalizer struct{}

// NewNormalizer creates a new listing normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize converts one raw record. Records without a title or a parseable,
// non-negative price are rejected with ErrUnparseableListing.
func (n *Normalizer) Normalize(raw domain.RawListing, marketplace string) (domain.Listing, error) {
	title := strings.TrimSpace(multipleSpacesRegex.ReplaceAllString(raw.Title, " "))
	if title == "" {
		return domain.Listing{}, fmt.Errorf("%w: missing title", domain.ErrUnparseableListing)
	}

	price, err := ParsePrice(string(raw.Price))
	if err != nil {
		return domain.Listing{}, err
	}

	if marketplace == "" {
		marketplace = raw.Marketplace
	}

	link := raw.Link
	if link == "" {
		link = raw.URL
	}
	image := raw.Image
	if image == "" {
		image = raw.ImageURL
	}

	model := canonicalModelNumber(raw.ModelNumber)
	if model == "" {
		model = ExtractModelNumber(title)
	}

	return domain.Listing{
		Title:       title,
		Price:       price,
		Condition:   CanonicalCondition(raw.Condition),
		Link:        strings.TrimSpace(link),
		ImageURL:    strings.TrimSpace(image),
		Marketplace: marketplace,
		ModelNumber: model,
		Shipping:    ParseShipping(raw.Shipping),
	}, nil
}

// NormalizeBatch normalizes every record and reports how many were dropped
func (n *Normalizer) NormalizeBatch(raws []domain.RawListing, marketplace string) ([]domain.Listing, int) {
	listings := make([]domain.Listing, 0, len(raws))
	dropped := 0

	for _, raw := range raws {
		listing, err := n.Normalize(raw, marketplace)
		if err != nil {
			dropped++
			logx.Debug().Err(err).Str("marketplace", marketplace).Str("title", raw.Title).Msg("dropping listing")
			continue
		}
		listings = append(listings, listing)
	}

	return listings, dropped
}

// ParsePrice extracts a decimal price from display text such as "$1,299.99"
// or "US $45.00". Ranges ("$10.00 to $20.00") resolve to their midpoint.
func ParsePrice(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	loc := priceNumberRegex.FindStringIndex(text)
	if loc == nil {
		return decimal.Zero, fmt.Errorf("%w: no price in %q", domain.ErrUnparseableListing, text)
	}
	if isNegativePrefix(text[:loc[0]]) {
		return decimal.Zero, fmt.Errorf("%w: negative price %q", domain.ErrUnparseableListing, text)
	}

	numbers := priceNumberRegex.FindAllString(text, 2)
	first, err := decimal.NewFromString(strings.ReplaceAll(numbers[0], ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", domain.ErrUnparseableListing, err)
	}

	if len(numbers) == 2 && priceRangeRegex.MatchString(text) {
		second, err := decimal.NewFromString(strings.ReplaceAll(numbers[1], ",", ""))
		if err == nil {
			return first.Add(second).Div(decimal.NewFromInt(2)).Round(2), nil
		}
	}

	return first, nil
}

// isNegativePrefix reports whether the text before a number ends in a minus
// sign, allowing currency symbols between the sign and the digits.
func isNegativePrefix(prefix string) bool {
	prefix = strings.TrimRightFunc(prefix, func(r rune) bool {
		return unicode.Is(unicode.Sc, r)
	})
	return strings.HasSuffix(prefix, "-") || strings.HasSuffix(prefix, "−")
}

// ParseShipping reads a shipping cost. "Free" means zero; anything without a
// number is unknown and returns nil.
func ParseShipping(text string) *decimal.Decimal {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return nil
	}
	if strings.Contains(text, "free") {
		zero := decimal.Zero
		return &zero
	}
	match := priceNumberRegex.FindString(text)
	if match == "" {
		return nil
	}
	cost, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return nil
	}
	return &cost
}

// CanonicalCondition maps free-form condition text onto the fixed vocabulary.
// Refurbished wording is checked before "new" so "Renewed" stays Used.
func CanonicalCondition(text string) domain.Condition {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return domain.ConditionUnknown
	}

	switch {
	case strings.Contains(s, "like new"), strings.Contains(s, "open box"),
		strings.Contains(s, "excellent"):
		return domain.ConditionLikeNew
	case strings.Contains(s, "refurb"), strings.Contains(s, "renewed"), strings.Contains(s, "used"), strings.Contains(s, "pre-owned"),
		strings.Contains(s, "preowned"), strings.Contains(s, "good"), strings.Contains(s, "fair"),
		strings.Contains(s, "parts"), strings.Contains(s, "worn"):
		return domain.ConditionUsed
	case strings.Contains(s, "new"), strings.Contains(s, "mint"), strings.Contains(s, "sealed"),
		strings.Contains(s, "nib"):
		return domain.ConditionNew
	}

	return domain.ConditionUnknown
}

// ExtractModelNumber returns the first title token that mixes letters and
// digits and is at least four characters long once hyphens are removed.
func ExtractModelNumber(title string) string {
	for _, token := range modelTokenRegex.FindAllString(title, -1) {
		if model := canonicalModelNumber(token); model != "" {
			return model
		}
	}
	return ""
}

func canonicalModelNumber(token string) string {
	model := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(token), "-", ""))
	if len(model) < minModelNumberLength {
		return ""
	}
	if !hasLetterRegex.MatchString(model) || !hasDigitRegex.MatchString(model) {
		return ""
	}
	if strings.ContainsAny(model, " \t") {
		return ""
	}
	return model
}
