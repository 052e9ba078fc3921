package domain

import "time"

// ScanStatus is the lifecycle state of a scan
type ScanStatus string

const (
	ScanPending            ScanStatus = "pending"
	ScanFetchingListings   ScanStatus = "fetching_listings"
	ScanNormalizing        ScanStatus = "normalizing"
	ScanMatching           ScanStatus = "matching"
	ScanRanking            ScanStatus = "ranking"
	ScanCompleted          ScanStatus = "completed"
	ScanCompletedNoResults ScanStatus = "completed_no_results"
	ScanFailed             ScanStatus = "failed"
	ScanCancelled          ScanStatus = "cancelled"
)

// IsTerminal reports whether no further transitions can happen
func (s ScanStatus) IsTerminal() bool {
	switch s {
	case ScanCompleted, ScanCompletedNoResults, ScanFailed, ScanCancelled:
		return true
	}
	return false
}

// SortKey selects the ranking order
type SortKey string

const (
	SortByProfitPercentage SortKey = "profitPercentage"
	SortByProfit           SortKey = "profit"
	SortByConfidence       SortKey = "confidence"
)

// ParseSortKey maps user input to a SortKey, defaulting to profit percentage
func ParseSortKey(s string) (SortKey, bool) {
	switch s {
	case "", "profitPercentage", "profit_percentage", "roi":
		return SortByProfitPercentage, true
	case "profit":
		return SortByProfit, true
	case "confidence":
		return SortByConfidence, true
	}
	return SortByProfitPercentage, false
}

// ScanRequest describes one scan
type ScanRequest struct {
	Category      string   `json:"category" validate:"required"`
	Subcategories []string `json:"subcategories" validate:"required,min=1,dive,required"`
	MaxResults    int      `json:"maxResults" validate:"gte=0,lte=200"`
	SortBy        SortKey  `json:"sortBy" validate:"omitempty,oneof=profitPercentage profit confidence"`
	MinProfit     float64  `json:"minProfit"`
	MinConfidence int      `json:"minConfidence" validate:"gte=0,lte=100"`
	Limit         int      `json:"limit" validate:"gte=0"`
}

// ScanProgress is the externally visible state of a scan
type ScanProgress struct {
	ScanID        string     `json:"scanId"`
	Status        ScanStatus `json:"status"`
	Progress      int        `json:"progress"`
	Category      string     `json:"category"`
	Subcategories []string   `json:"subcategories"`
	Subcategory   string     `json:"subcategory,omitempty"`
	StartedAt     time.Time  `json:"startedAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Error         string     `json:"error,omitempty"`
}

// ScanMeta describes how a result was produced
type ScanMeta struct {
	ScanID              string     `json:"scanId"`
	Category            string     `json:"category"`
	Subcategories       []string   `json:"subcategories"`
	TotalFound          int        `json:"totalFound"`
	Status              ScanStatus `json:"status"`
	DroppedRecords      int        `json:"droppedRecords"`
	FailedSubcategories []string   `json:"failedSubcategories,omitempty"`
	Cached              bool       `json:"cached"`
	Reason              string     `json:"reason,omitempty"`
	StartedAt           time.Time  `json:"startedAt"`
	CompletedAt         time.Time  `json:"completedAt"`
}

// ScanResult is the outcome of a scan. Opportunities are ranked.
type ScanResult struct {
	Opportunities []Opportunity `json:"opportunities"`
	Meta          ScanMeta      `json:"meta"`
}

// ScanSummary is a compact view of an archived scan
type ScanSummary struct {
	ScanID        string     `json:"scanId"`
	Category      string     `json:"category"`
	Subcategories []string   `json:"subcategories"`
	Status        ScanStatus `json:"status"`
	TotalFound    int        `json:"totalFound"`
	BestProfit    float64    `json:"bestProfit"`
	CompletedAt   time.Time  `json:"completedAt"`
}
