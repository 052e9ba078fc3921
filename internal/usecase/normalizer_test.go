package usecase

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/fliphawk/backend/internal/domain"
	"github.com/shopspring/decimal"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"dollar with thousands", "$1,299.99", "1299.99", false},
		{"currency prefix", "US $45.00", "45", false},
		{"bare number", "45", "45", false},
		{"range resolves to midpoint", "$10.00 to $20.00", "15", false},
		{"dash range", "£45.00 - £60.00", "52.5", false},
		{"zero is allowed", "$0.00", "0", false},
		{"negative rejected", "-$5.00", "", true},
		{"minus after currency rejected", "$-5.00", "", true},
		{"dash label is not a sign", "Price - $45", "45", false},
		{"hyphenated label", "Buy-It-Now $30.00", "30", false},
		{"no number", "See price", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrUnparseableListing) {
					t.Errorf("ParsePrice(%q) error = %v, want ErrUnparseableListing", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrice(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParsePrice(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseShipping(t *testing.T) {
	tests := []struct {
		input string
		want  *string
	}{
		{"Free shipping", strPtr("0")},
		{"+$8.50 shipping", strPtr("8.5")},
		{"", nil},
		{"Shipping not specified", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseShipping(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Errorf("ParseShipping(%q) = %s, want nil", tt.input, got)
				}
				return
			}
			if got == nil || !got.Equal(decimal.RequireFromString(*tt.want)) {
				t.Errorf("ParseShipping(%q) = %v, want %s", tt.input, got, *tt.want)
			}
		})
	}
}

func TestCanonicalCondition(t *testing.T) {
	tests := []struct {
		input string
		want  domain.Condition
	}{
		{"Brand New", domain.ConditionNew},
		{"New (Other)", domain.ConditionNew},
		{"Factory Sealed", domain.ConditionNew},
		{"Mint", domain.ConditionNew},
		{"Near Mint", domain.ConditionNew},
		{"Like New", domain.ConditionLikeNew},
		{"Open Box", domain.ConditionLikeNew},
		{"Pre-Owned", domain.ConditionUsed},
		{"Certified Refurbished", domain.ConditionUsed},
		{"Renewed", domain.ConditionUsed},
		{"Amazon Renewed Premium", domain.ConditionUsed},
		{"For parts or not working", domain.ConditionUsed},
		{"", domain.ConditionUnknown},
		{"Other", domain.ConditionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CanonicalCondition(tt.input); got != tt.want {
				t.Errorf("CanonicalCondition(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractModelNumber(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Sony WH-1000XM4 Headphones", "WH1000XM4"},
		{"Bose QC45 Noise Cancelling", "QC45"},
		{"Apple AirPods Pro", ""},
		{"RTX 3080 Founders Edition", ""},
		{"Keychron K2 keyboard", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := ExtractModelNumber(tt.title); got != tt.want {
				t.Errorf("ExtractModelNumber(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer()

	t.Run("exponent price from json", func(t *testing.T) {
		var raw domain.RawListing
		if err := json.Unmarshal([]byte(`{"title":"Keychron Q1 Keyboard","price":1.5e3}`), &raw); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		listing, err := n.Normalize(raw, "amazon")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !listing.Price.Equal(decimal.NewFromInt(1500)) {
			t.Errorf("Price = %s, want 1500", listing.Price)
		}
	})

	t.Run("reconciles field aliases", func(t *testing.T) {
		raw := domain.RawListing{
			Title:     "  Sony   WH-1000XM4 Headphones ",
			Price:     "$180.00",
			Condition: "Pre-Owned",
			URL:       "https://example.com/item/1",
			ImageURL:  "https://example.com/img/1.jpg",
			Shipping:  "Free shipping",
		}

		listing, err := n.Normalize(raw, "eBay")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if listing.Title != "Sony WH-1000XM4 Headphones" {
			t.Errorf("Title = %q", listing.Title)
		}
		if listing.Link != raw.URL {
			t.Errorf("Link = %q, want url fallback", listing.Link)
		}
		if listing.ImageURL != raw.ImageURL {
			t.Errorf("ImageURL = %q, want image_url fallback", listing.ImageURL)
		}
		if listing.Marketplace != "eBay" {
			t.Errorf("Marketplace = %q, want eBay", listing.Marketplace)
		}
		if listing.Condition != domain.ConditionUsed {
			t.Errorf("Condition = %q, want Used", listing.Condition)
		}
		if listing.ModelNumber != "WH1000XM4" {
			t.Errorf("ModelNumber = %q, want WH1000XM4", listing.ModelNumber)
		}
		if listing.Shipping == nil || !listing.Shipping.IsZero() {
			t.Errorf("Shipping = %v, want 0", listing.Shipping)
		}
	})

	t.Run("explicit fields win over aliases", func(t *testing.T) {
		raw := domain.RawListing{
			Title:       "Bose headphones",
			Price:       domain.PriceFromFloat(99.5),
			Link:        "https://a",
			URL:         "https://b",
			Image:       "https://img-a",
			ImageURL:    "https://img-b",
			ModelNumber: "qc-45",
			Marketplace: "Mercari",
		}

		listing, err := n.Normalize(raw, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if listing.Link != "https://a" || listing.ImageURL != "https://img-a" {
			t.Errorf("Link/ImageURL = %q/%q", listing.Link, listing.ImageURL)
		}
		if listing.Marketplace != "Mercari" {
			t.Errorf("Marketplace = %q, want raw marketplace", listing.Marketplace)
		}
		if listing.ModelNumber != "QC45" {
			t.Errorf("ModelNumber = %q, want QC45", listing.ModelNumber)
		}
		if listing.Condition != domain.ConditionUnknown {
			t.Errorf("Condition = %q, want Unknown", listing.Condition)
		}
		if listing.Shipping != nil {
			t.Errorf("Shipping = %v, want nil", listing.Shipping)
		}
		if !listing.Price.Equal(decimal.RequireFromString("99.5")) {
			t.Errorf("Price = %s, want 99.5", listing.Price)
		}
	})

	t.Run("rejects missing title", func(t *testing.T) {
		_, err := n.Normalize(domain.RawListing{Title: "   ", Price: "$10"}, "eBay")
		if !errors.Is(err, domain.ErrUnparseableListing) {
			t.Errorf("error = %v, want ErrUnparseableListing", err)
		}
	})

	t.Run("rejects unparseable price", func(t *testing.T) {
		_, err := n.Normalize(domain.RawListing{Title: "Thing", Price: "call for price"}, "eBay")
		if !errors.Is(err, domain.ErrUnparseableListing) {
			t.Errorf("error = %v, want ErrUnparseableListing", err)
		}
	})
}

func TestNormalizeBatch(t *testing.T) {
	n := NewNormalizer()
	raws := []domain.RawListing{
		{Title: "Keychron K2", Price: "$60"},
		{Title: "", Price: "$60"},
		{Title: "Keychron K6", Price: "N/A"},
		{Title: "Keychron Q1", Price: "$150"},
	}

	listings, dropped := n.NormalizeBatch(raws, "eBay")
	if len(listings) != 2 {
		t.Errorf("len(listings) = %d, want 2", len(listings))
	}
	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}
}

func strPtr(s string) *string {
	return &s
}
