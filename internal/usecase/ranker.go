package usecase

import (
	"sort"

	"github.com/fliphawk/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// RankFilters are caller supplied thresholds applied after de-duplication
type RankFilters struct {
	MinProfit     float64
	MinConfidence int
	Limit         int
}

// Ranker de-duplicates, filters and orders opportunities
type Ranker struct{}

// NewRanker creates a new ranker
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank collapses opportunities sharing the same unordered listing pair,
// keeping the higher net profit (then the higher confidence), applies the
// filters and sorts descending by key. Equal keys keep their input order.
func (r *Ranker) Rank(opportunities []domain.Opportunity, key domain.SortKey, filters RankFilters) []domain.Opportunity {
	deduped := Deduplicate(opportunities)

	minProfit := decimal.NewFromFloat(filters.MinProfit)
	ranked := make([]domain.Opportunity, 0, len(deduped))
	for _, opp := range deduped {
		if opp.NetProfit.LessThan(minProfit) {
			continue
		}
		if opp.Confidence < filters.MinConfidence {
			continue
		}
		ranked = append(ranked, opp)
	}

	less := sortValue(key)
	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[j], ranked[i])
	})

	if filters.Limit > 0 && len(ranked) > filters.Limit {
		ranked = ranked[:filters.Limit]
	}

	return ranked
}

// Deduplicate keeps one opportunity per unordered (buy, sell) pair. The
// survivor takes the position of the first occurrence.
func Deduplicate(opportunities []domain.Opportunity) []domain.Opportunity {
	index := make(map[string]int, len(opportunities))
	result := make([]domain.Opportunity, 0, len(opportunities))

	for _, opp := range opportunities {
		key := opp.PairKey()
		pos, seen := index[key]
		if !seen {
			index[key] = len(result)
			result = append(result, opp)
			continue
		}
		if better(opp, result[pos]) {
			result[pos] = opp
		}
	}

	return result
}

func better(candidate, current domain.Opportunity) bool {
	if cmp := candidate.NetProfit.Cmp(current.NetProfit); cmp != 0 {
		return cmp > 0
	}
	return candidate.Confidence > current.Confidence
}

// sortValue returns a strict "a < b" comparison for the key
func sortValue(key domain.SortKey) func(a, b domain.Opportunity) bool {
	switch key {
	case domain.SortByProfit:
		return func(a, b domain.Opportunity) bool { return a.NetProfit.LessThan(b.NetProfit) }
	case domain.SortByConfidence:
		return func(a, b domain.Opportunity) bool { return a.Confidence < b.Confidence }
	default:
		return func(a, b domain.Opportunity) bool { return a.ProfitPercentage < b.ProfitPercentage }
	}
}
