package usecase

import (
	"strings"

	"github.com/fliphawk/backend/internal/domain"
	logx "github.com/fliphawk/backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// CandidatePair is a tentative (buy, sell) pairing; Buy is strictly cheaper
type CandidatePair struct {
	Buy  domain.Listing
	Sell domain.Listing
}

// NewCandidatePair orients two listings as buy and sell. It reports false when
// buy is not strictly cheaper than sell.
func NewCandidatePair(buy, sell domain.Listing) (CandidatePair, bool) {
	if !buy.Price.LessThan(sell.Price) {
		return CandidatePair{}, false
	}
	return CandidatePair{Buy: buy, Sell: sell}, true
}

// BuilderConfig holds thresholds for opportunity building
type BuilderConfig struct {
	// MinNetProfit is the exclusive lower bound for net profit. Zero keeps
	// only strictly profitable pairs.
	MinNetProfit float64
}

// OpportunityBuilder turns a batch of listings into priced opportunities
type OpportunityBuilder struct {
	scorer       *SimilarityScorer
	fees         *FeeModel
	minNetProfit decimal.Decimal
}

// NewOpportunityBuilder creates a builder from its collaborators
func NewOpportunityBuilder(scorer *SimilarityScorer, fees *FeeModel, config BuilderConfig) *OpportunityBuilder {
	return &OpportunityBuilder{
		scorer:       scorer,
		fees:         fees,
		minNetProfit: decimal.NewFromFloat(config.MinNetProfit),
	}
}

// CandidatePairs compares every listing with every other one and orients each
// unordered pair with the cheaper listing as buy. Equal prices, self pairs and
// the same listing on the same marketplace are skipped.
func (b *OpportunityBuilder) CandidatePairs(listings []domain.Listing) []CandidatePair {
	var pairs []CandidatePair

	for i := 0; i < len(listings); i++ {
		for j := i + 1; j < len(listings); j++ {
			a, c := listings[i], listings[j]
			if sameListing(a, c) {
				continue
			}

			if pair, ok := NewCandidatePair(a, c); ok {
				pairs = append(pairs, pair)
			} else if pair, ok := NewCandidatePair(c, a); ok {
				pairs = append(pairs, pair)
			}
		}
	}

	return pairs
}

// Build evaluates every candidate pair of one subcategory batch
func (b *OpportunityBuilder) Build(listings []domain.Listing, subcategory string) []domain.Opportunity {
	var opportunities []domain.Opportunity

	for _, pair := range b.CandidatePairs(listings) {
		if opp, ok := b.Evaluate(pair, subcategory); ok {
			opportunities = append(opportunities, opp)
		}
	}

	return opportunities
}

// Evaluate scores and prices one pair. It reports false when the pair is not
// similar enough or does not clear the net profit bound.
func (b *OpportunityBuilder) Evaluate(pair CandidatePair, subcategory string) (domain.Opportunity, bool) {
	similarity, details := b.scorer.Score(pair.Buy, pair.Sell)
	if similarity < b.scorer.MinSimilarity() {
		return domain.Opportunity{}, false
	}

	fees := b.fees.Compute(pair.Buy, pair.Sell)
	gross := pair.Sell.Price.Sub(pair.Buy.Price)
	net := gross.Sub(fees.Total())
	if !net.GreaterThan(b.minNetProfit) {
		return domain.Opportunity{}, false
	}

	roi := ROIPercent(net, pair.Buy.Price, fees)
	confidence := b.scorer.Confidence(details, roi)

	logx.Debug().
		Str("subcategory", subcategory).
		Str("buy", pair.Buy.Title).
		Str("sell", pair.Sell.Title).
		Str("net", net.StringFixed(2)).
		Float64("roi", roi).
		Int("confidence", confidence).
		Msg("opportunity found")

	return domain.Opportunity{
		Buy:              pair.Buy,
		Sell:             pair.Sell,
		GrossProfit:      gross,
		Fees:             fees,
		NetProfit:        net,
		ProfitPercentage: roi,
		Similarity:       roundTo(similarity, 4),
		Confidence:       confidence,
		Subcategory:      subcategory,
	}, true
}

// ROIPercent is net profit over total buy-side cost (price, tax and shipping)
func ROIPercent(net, buyPrice decimal.Decimal, fees domain.Fees) float64 {
	cost := buyPrice.Add(fees.Tax).Add(fees.Shipping)
	if !cost.IsPositive() {
		return 0
	}
	return net.Div(cost).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

func sameListing(a, b domain.Listing) bool {
	if a.Link == "" || b.Link == "" {
		return false
	}
	return a.Link == b.Link && strings.EqualFold(a.Marketplace, b.Marketplace)
}

func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
