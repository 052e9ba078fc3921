package usecase

import (
	"reflect"
	"testing"

	"github.com/fliphawk/backend/internal/domain"
	"github.com/shopspring/decimal"
)

func opp(buyLink, sellLink string, net, roi float64, confidence int) domain.Opportunity {
	return domain.Opportunity{
		Buy:              domain.Listing{Title: buyLink, Link: buyLink, Marketplace: "eBay"},
		Sell:             domain.Listing{Title: sellLink, Link: sellLink, Marketplace: "eBay"},
		NetProfit:        decimal.NewFromFloat(net),
		ProfitPercentage: roi,
		Confidence:       confidence,
	}
}

func links(opps []domain.Opportunity) []string {
	out := make([]string, len(opps))
	for i, o := range opps {
		out[i] = o.Buy.Link + ">" + o.Sell.Link
	}
	return out
}

func TestDeduplicate(t *testing.T) {
	t.Run("keeps the higher net profit at the first position", func(t *testing.T) {
		input := []domain.Opportunity{
			opp("a", "b", 10, 5, 90),
			opp("c", "d", 20, 8, 80),
			opp("b", "a", 15, 6, 70),
		}

		got := Deduplicate(input)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].Buy.Link != "b" || !got[0].NetProfit.Equal(decimal.NewFromInt(15)) {
			t.Errorf("survivor = %+v, want the 15 profit copy first", links(got))
		}
	})

	t.Run("ties broken by confidence", func(t *testing.T) {
		got := Deduplicate([]domain.Opportunity{
			opp("a", "b", 10, 5, 60),
			opp("a", "b", 10, 5, 85),
		})
		if len(got) != 1 || got[0].Confidence != 85 {
			t.Errorf("got %+v, want single opportunity with confidence 85", got)
		}
	})
}

func TestRank(t *testing.T) {
	r := NewRanker()
	input := []domain.Opportunity{
		opp("a", "b", 30, 10, 70),
		opp("c", "d", 10, 40, 90),
		opp("e", "f", 50, 20, 60),
		opp("g", "h", 5, 20, 95),
	}

	tests := []struct {
		name    string
		key     domain.SortKey
		filters RankFilters
		want    []string
	}{
		{"by profit percentage with stable ties", domain.SortByProfitPercentage, RankFilters{}, []string{"c>d", "e>f", "g>h", "a>b"}},
		{"by profit", domain.SortByProfit, RankFilters{}, []string{"e>f", "a>b", "c>d", "g>h"}},
		{"by confidence", domain.SortByConfidence, RankFilters{}, []string{"g>h", "c>d", "a>b", "e>f"}},
		{"min profit is inclusive", domain.SortByProfit, RankFilters{MinProfit: 10}, []string{"e>f", "a>b", "c>d"}},
		{"min confidence", domain.SortByProfit, RankFilters{MinConfidence: 75}, []string{"c>d", "g>h"}},
		{"limit", domain.SortByProfit, RankFilters{Limit: 2}, []string{"e>f", "a>b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := links(r.Rank(input, tt.key, tt.filters))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Rank = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRank_Idempotent(t *testing.T) {
	r := NewRanker()
	input := []domain.Opportunity{
		opp("a", "b", 30, 10, 70),
		opp("b", "a", 35, 12, 70),
		opp("c", "d", 10, 40, 90),
		opp("e", "f", 50, 10, 60),
	}

	once := r.Rank(input, domain.SortByProfitPercentage, RankFilters{})
	twice := r.Rank(once, domain.SortByProfitPercentage, RankFilters{})
	if !reflect.DeepEqual(links(once), links(twice)) {
		t.Errorf("Rank not idempotent: %v then %v", links(once), links(twice))
	}
	if len(once) != 3 {
		t.Errorf("len = %d, want 3", len(once))
	}
}

func TestRank_Empty(t *testing.T) {
	got := NewRanker().Rank(nil, domain.SortByProfit, RankFilters{Limit: 5})
	if got == nil || len(got) != 0 {
		t.Errorf("Rank(nil) = %v, want empty non-nil slice", got)
	}
}
