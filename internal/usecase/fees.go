package usecase

import (
	"strings"

	"github.com/fliphawk/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// FeeConfig holds the cost model parameters
type FeeConfig struct {
	MarketplaceRate  float64
	MarketplaceRates map[string]float64
	DefaultShipping  float64
	TaxRate          float64
}

// DefaultFeeConfig returns the standard cost model: 10% selling fee,
// $5 shipping when unknown and 8% estimated sales tax.
func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		MarketplaceRate: 0.10,
		DefaultShipping: 5.00,
		TaxRate:         0.08,
	}
}

// FeeModel computes the costs of flipping one item
type FeeModel struct {
	defaultRate     decimal.Decimal
	rates           map[string]decimal.Decimal
	defaultShipping decimal.Decimal
	taxRate         decimal.Decimal
}

// NewFeeModel builds a fee model. Marketplace overrides are keyed case-insensitively.
func NewFeeModel(config FeeConfig) *FeeModel {
	rates := make(map[string]decimal.Decimal, len(config.MarketplaceRates))
	for name, rate := range config.MarketplaceRates {
		rates[strings.ToLower(strings.TrimSpace(name))] = decimal.NewFromFloat(rate)
	}

	return &FeeModel{
		defaultRate:     decimal.NewFromFloat(config.MarketplaceRate),
		rates:           rates,
		defaultShipping: decimal.NewFromFloat(config.DefaultShipping),
		taxRate:         decimal.NewFromFloat(config.TaxRate),
	}
}

// MarketplaceRate returns the selling fee rate for a marketplace
func (m *FeeModel) MarketplaceRate(marketplace string) decimal.Decimal {
	if rate, ok := m.rates[strings.ToLower(strings.TrimSpace(marketplace))]; ok {
		return rate
	}
	return m.defaultRate
}

// Compute returns the fees for buying `buy` and reselling where `sell` is listed
func (m *FeeModel) Compute(buy, sell domain.Listing) domain.Fees {
	shipping := m.defaultShipping
	if buy.Shipping != nil {
		shipping = *buy.Shipping
	}

	return domain.Fees{
		Marketplace: sell.Price.Mul(m.MarketplaceRate(sell.Marketplace)).Round(2),
		Shipping:    shipping,
		Tax:         buy.Price.Mul(m.taxRate).Round(2),
	}
}
