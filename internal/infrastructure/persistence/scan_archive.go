package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fliphawk/backend/internal/domain"
)

const (
	defaultListLimit = 20
	insertBatchSize  = 100
)

// GormScanArchive implements domain.ScanArchive using GORM
type GormScanArchive struct {
	db *gorm.DB
}

// NewGormScanArchive creates a new GORM scan archive
func NewGormScanArchive(db *gorm.DB) *GormScanArchive {
	return &GormScanArchive{db: db}
}

// Save stores a finished scan, replacing an earlier copy with the same ID
func (a *GormScanArchive) Save(ctx context.Context, result *domain.ScanResult) error {
	model, opportunities, err := toScanModel(result)
	if err != nil {
		return err
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scan_id = ?", model.ID).Delete(&OpportunityModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear opportunities: %w", err)
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error; err != nil {
			return fmt.Errorf("failed to save scan: %w", err)
		}
		if len(opportunities) > 0 {
			if err := tx.CreateInBatches(opportunities, insertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to save opportunities: %w", err)
			}
		}
		return nil
	})
}

// FindByID loads an archived scan with its opportunities in ranked order
func (a *GormScanArchive) FindByID(ctx context.Context, scanID string) (*domain.ScanResult, error) {
	var model ScanModel
	err := a.db.WithContext(ctx).
		Preload("Opportunities", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&model, "id = ?", scanID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrScanNotFound
		}
		return nil, fmt.Errorf("failed to load scan: %w", err)
	}

	return toScanResult(&model)
}

// ListRecent returns the newest scans first
func (a *GormScanArchive) ListRecent(ctx context.Context, limit int) ([]domain.ScanSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var models []ScanModel
	err := a.db.WithContext(ctx).
		Order("completed_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}

	summaries := make([]domain.ScanSummary, 0, len(models))
	for _, m := range models {
		var subs []string
		_ = json.Unmarshal([]byte(m.Subcategories), &subs)
		summaries = append(summaries, domain.ScanSummary{
			ScanID:        m.ID,
			Category:      m.Category,
			Subcategories: subs,
			Status:        domain.ScanStatus(m.Status),
			TotalFound:    m.TotalFound,
			BestProfit:    m.BestProfit,
			CompletedAt:   m.CompletedAt,
		})
	}

	return summaries, nil
}

func toScanModel(result *domain.ScanResult) (*ScanModel, []OpportunityModel, error) {
	meta := result.Meta
	if meta.ScanID == "" {
		return nil, nil, fmt.Errorf("%w: scan has no ID", domain.ErrInvalidRequest)
	}

	subs, err := json.Marshal(meta.Subcategories)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode subcategories: %w", err)
	}
	failed, err := json.Marshal(meta.FailedSubcategories)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode failed subcategories: %w", err)
	}

	opportunities := make([]OpportunityModel, 0, len(result.Opportunities))
	bestProfit := 0.0
	for i, opp := range result.Opportunities {
		payload, err := json.Marshal(opp)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode opportunity: %w", err)
		}
		net := opp.NetProfit.Round(2).InexactFloat64()
		if i == 0 || net > bestProfit {
			bestProfit = net
		}
		opportunities = append(opportunities, OpportunityModel{
			ScanID:           meta.ScanID,
			Position:         i,
			Subcategory:      opp.Subcategory,
			BuyTitle:         opp.Buy.Title,
			BuyPrice:         opp.Buy.Price.Round(2).InexactFloat64(),
			BuyMarketplace:   opp.Buy.Marketplace,
			SellTitle:        opp.Sell.Title,
			SellPrice:        opp.Sell.Price.Round(2).InexactFloat64(),
			SellMarketplace:  opp.Sell.Marketplace,
			NetProfit:        net,
			ProfitPercentage: opp.ProfitPercentage,
			Confidence:       opp.Confidence,
			Payload:          string(payload),
		})
	}

	return &ScanModel{
		ID:                  meta.ScanID,
		Category:            meta.Category,
		Subcategories:       string(subs),
		Status:              string(meta.Status),
		TotalFound:          meta.TotalFound,
		DroppedRecords:      meta.DroppedRecords,
		FailedSubcategories: string(failed),
		Cached:              meta.Cached,
		Reason:              meta.Reason,
		BestProfit:          bestProfit,
		StartedAt:           meta.StartedAt,
		CompletedAt:         meta.CompletedAt,
	}, opportunities, nil
}

func toScanResult(model *ScanModel) (*domain.ScanResult, error) {
	var subs, failed []string
	if err := json.Unmarshal([]byte(model.Subcategories), &subs); err != nil {
		return nil, fmt.Errorf("failed to decode subcategories: %w", err)
	}
	if err := json.Unmarshal([]byte(model.FailedSubcategories), &failed); err != nil {
		return nil, fmt.Errorf("failed to decode failed subcategories: %w", err)
	}

	opportunities := make([]domain.Opportunity, 0, len(model.Opportunities))
	for _, m := range model.Opportunities {
		var opp domain.Opportunity
		if err := json.Unmarshal([]byte(m.Payload), &opp); err != nil {
			return nil, fmt.Errorf("failed to decode opportunity %d: %w", m.ID, err)
		}
		opportunities = append(opportunities, opp)
	}

	return &domain.ScanResult{
		Opportunities: opportunities,
		Meta: domain.ScanMeta{
			ScanID:              model.ID,
			Category:            model.Category,
			Subcategories:       subs,
			TotalFound:          model.TotalFound,
			Status:              domain.ScanStatus(model.Status),
			DroppedRecords:      model.DroppedRecords,
			FailedSubcategories: failed,
			Cached:              model.Cached,
			Reason:              model.Reason,
			StartedAt:           model.StartedAt,
			CompletedAt:         model.CompletedAt,
		},
	}, nil
}
