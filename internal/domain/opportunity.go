package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Fees is the cost breakdown deducted from the gross spread
type Fees struct {
	Marketplace decimal.Decimal
	Shipping    decimal.Decimal
	Tax         decimal.Decimal
}

// Total returns the sum of all fees
func (f Fees) Total() decimal.Decimal {
	return f.Marketplace.Add(f.Shipping).Add(f.Tax)
}

// Opportunity pairs a cheaper listing with a pricier listing of the same item.
// Buy.Price is always strictly lower than Sell.Price and NetProfit is
// GrossProfit minus Fees.Total().
type Opportunity struct {
	Buy              Listing
	Sell             Listing
	GrossProfit      decimal.Decimal
	Fees             Fees
	NetProfit        decimal.Decimal
	ProfitPercentage float64
	Similarity       float64
	Confidence       int
	Subcategory      string
}

// PairKey identifies the unordered (buy, sell) link pair
func (o Opportunity) PairKey() string {
	a, b := o.Buy.Key(), o.Sell.Key()
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

type feesJSON struct {
	Marketplace float64 `json:"marketplace"`
	Shipping    float64 `json:"shipping"`
	Tax         float64 `json:"tax"`
}

type opportunityJSON struct {
	BuyTitle         string   `json:"buyTitle"`
	BuyPrice         float64  `json:"buyPrice"`
	BuyLink          string   `json:"buyLink"`
	BuyMarketplace   string   `json:"buyMarketplace"`
	BuyCondition     string   `json:"buyCondition"`
	BuyImage         string   `json:"buyImage"`
	BuyModelNumber   string   `json:"buyModelNumber,omitempty"`
	SellTitle        string   `json:"sellTitle"`
	SellPrice        float64  `json:"sellPrice"`
	SellLink         string   `json:"sellLink"`
	SellMarketplace  string   `json:"sellMarketplace"`
	SellCondition    string   `json:"sellCondition"`
	SellImage        string   `json:"sellImage"`
	SellModelNumber  string   `json:"sellModelNumber,omitempty"`
	GrossProfit      float64  `json:"grossProfit"`
	Profit           float64  `json:"profit"`
	ProfitPercentage float64  `json:"profitPercentage"`
	Confidence       int      `json:"confidence"`
	Similarity       float64  `json:"similarity"`
	Subcategory      string   `json:"subcategory"`
	Fees             feesJSON `json:"fees"`
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// MarshalJSON renders the flat wire shape consumed by clients
func (o Opportunity) MarshalJSON() ([]byte, error) {
	return json.Marshal(opportunityJSON{
		BuyTitle:         o.Buy.Title,
		BuyPrice:         money(o.Buy.Price),
		BuyLink:          o.Buy.Link,
		BuyMarketplace:   o.Buy.Marketplace,
		BuyCondition:     string(o.Buy.Condition),
		BuyImage:         o.Buy.ImageURL,
		BuyModelNumber:   o.Buy.ModelNumber,
		SellTitle:        o.Sell.Title,
		SellPrice:        money(o.Sell.Price),
		SellLink:         o.Sell.Link,
		SellMarketplace:  o.Sell.Marketplace,
		SellCondition:    string(o.Sell.Condition),
		SellImage:        o.Sell.ImageURL,
		SellModelNumber:  o.Sell.ModelNumber,
		GrossProfit:      money(o.GrossProfit),
		Profit:           money(o.NetProfit),
		ProfitPercentage: o.ProfitPercentage,
		Confidence:       o.Confidence,
		Similarity:       o.Similarity,
		Subcategory:      o.Subcategory,
		Fees: feesJSON{
			Marketplace: money(o.Fees.Marketplace),
			Shipping:    money(o.Fees.Shipping),
			Tax:         money(o.Fees.Tax),
		},
	})
}

// UnmarshalJSON restores an opportunity from its wire shape (used by caches)
func (o *Opportunity) UnmarshalJSON(data []byte) error {
	var w opportunityJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*o = Opportunity{
		Buy: Listing{
			Title:       w.BuyTitle,
			Price:       decimal.NewFromFloat(w.BuyPrice),
			Link:        w.BuyLink,
			Marketplace: w.BuyMarketplace,
			Condition:   Condition(w.BuyCondition),
			ImageURL:    w.BuyImage,
			ModelNumber: w.BuyModelNumber,
			Subcategory: w.Subcategory,
		},
		Sell: Listing{
			Title:       w.SellTitle,
			Price:       decimal.NewFromFloat(w.SellPrice),
			Link:        w.SellLink,
			Marketplace: w.SellMarketplace,
			Condition:   Condition(w.SellCondition),
			ImageURL:    w.SellImage,
			ModelNumber: w.SellModelNumber,
			Subcategory: w.Subcategory,
		},
		GrossProfit:      decimal.NewFromFloat(w.GrossProfit),
		NetProfit:        decimal.NewFromFloat(w.Profit),
		ProfitPercentage: w.ProfitPercentage,
		Confidence:       w.Confidence,
		Similarity:       w.Similarity,
		Subcategory:      w.Subcategory,
		Fees: Fees{
			Marketplace: decimal.NewFromFloat(w.Fees.Marketplace),
			Shipping:    decimal.NewFromFloat(w.Fees.Shipping),
			Tax:         decimal.NewFromFloat(w.Fees.Tax),
		},
	}
	return nil
}
