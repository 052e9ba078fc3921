package persistence

import "time"

// ScanModel is one archived scan
type ScanModel struct {
	ID                  string `gorm:"primaryKey;size:64"`
	Category            string `gorm:"index;size:128"`
	Subcategories       string `gorm:"type:text"` // JSON array
	Status              string `gorm:"index;size:32"`
	TotalFound          int
	DroppedRecords      int
	FailedSubcategories string `gorm:"type:text"` // JSON array
	Cached              bool
	Reason              string `gorm:"type:text"`
	BestProfit          float64
	StartedAt           time.Time
	CompletedAt         time.Time `gorm:"index"`

	Opportunities []OpportunityModel `gorm:"foreignKey:ScanID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name
func (ScanModel) TableName() string {
	return "scans"
}

// OpportunityModel is one ranked opportunity of an archived scan. The
// flattened columns support ad hoc reporting; Payload restores the full value.
type OpportunityModel struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	ScanID           string `gorm:"index;size:64;not null"`
	Position         int    `gorm:"not null"`
	Subcategory      string `gorm:"index;size:128"`
	BuyTitle         string `gorm:"type:text"`
	BuyPrice         float64
	BuyMarketplace   string `gorm:"size:64"`
	SellTitle        string `gorm:"type:text"`
	SellPrice        float64
	SellMarketplace  string `gorm:"size:64"`
	NetProfit        float64
	ProfitPercentage float64
	Confidence       int
	Payload          string `gorm:"type:text;not null"`
}

// TableName specifies the table name
func (OpportunityModel) TableName() string {
	return "opportunities"
}
