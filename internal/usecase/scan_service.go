package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fliphawk/backend/internal/domain"
	logx "github.com/fliphawk/backend/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Progress checkpoints. Subcategory phases are spread between
// progressFetchStart and progressRanking.
const (
	progressPending    = 0
	progressFetchStart = 20
	progressRanking    = 80
	progressDone       = 100
)

// ProgressFunc observes every state transition of a scan
type ProgressFunc func(domain.ScanProgress)

// ScanServiceConfig holds configuration for the scan orchestrator
type ScanServiceConfig struct {
	Marketplaces           []string
	MaxSubcategories       int
	DefaultMaxResults      int
	KeywordsPerSubcategory int
	ResultCacheTTL         time.Duration
	ProgressTTL            time.Duration
}

// ScanOption customizes a ScanService
type ScanOption func(*ScanService)

// WithArchive persists finished scans
func WithArchive(archive domain.ScanArchive) ScanOption {
	return func(s *ScanService) { s.archive = archive }
}

// WithMetrics records scan outcomes
func WithMetrics(metrics domain.ScanMetrics) ScanOption {
	return func(s *ScanService) { s.metrics = metrics }
}

// WithIDGenerator replaces the scan ID source
func WithIDGenerator(fn func() string) ScanOption {
	return func(s *ScanService) { s.newID = fn }
}

// ScanService sequences fetching, normalizing, matching and ranking for a scan
type ScanService struct {
	fetcher    domain.ListingFetcher
	cache      domain.CacheRepository
	archive    domain.ScanArchive
	metrics    domain.ScanMetrics
	normalizer *Normalizer
	builder    *OpportunityBuilder
	ranker     *Ranker
	expander   *KeywordExpander
	validate   *validator.Validate
	config     ScanServiceConfig
	newID      func() string

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// NewScanService creates a scan orchestrator with its dependencies
func NewScanService(
	fetcher domain.ListingFetcher,
	cache domain.CacheRepository,
	builder *OpportunityBuilder,
	config ScanServiceConfig,
	opts ...ScanOption,
) *ScanService {
	if len(config.Marketplaces) == 0 {
		config.Marketplaces = []string{"ebay"}
	}
	if config.MaxSubcategories <= 0 {
		config.MaxSubcategories = 5
	}
	if config.DefaultMaxResults <= 0 {
		config.DefaultMaxResults = 40
	}
	if config.KeywordsPerSubcategory <= 0 {
		config.KeywordsPerSubcategory = 1
	}
	if config.ProgressTTL <= 0 {
		config.ProgressTTL = time.Hour
	}

	s := &ScanService{
		fetcher:    fetcher,
		cache:      cache,
		metrics:    noopMetrics{},
		normalizer: NewNormalizer(),
		builder:    builder,
		ranker:     NewRanker(),
		expander:   NewKeywordExpander(),
		validate:   validator.New(),
		config:     config,
		newID:      uuid.NewString,
		running:    make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunScan executes a scan synchronously. The returned result is non-nil for
// every scan that started; failed and cancelled scans also return an error
// wrapping ErrScanFailed or ErrScanCancelled.
func (s *ScanService) RunScan(ctx context.Context, request domain.ScanRequest, onProgress ProgressFunc) (*domain.ScanResult, error) {
	request, err := s.prepareRequest(request)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, s.newID(), request, onProgress)
}

// StartScan launches a scan in the background and returns its ID immediately.
// The scan outlives ctx and stops only through CancelScan.
func (s *ScanService) StartScan(ctx context.Context, request domain.ScanRequest) (string, error) {
	request, err := s.prepareRequest(request)
	if err != nil {
		return "", err
	}

	scanID := s.newID()
	scanCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	s.running[scanID] = cancel
	s.mu.Unlock()

	// Pending must be readable before the goroutine gets scheduled
	s.saveProgress(scanCtx, newProgress(scanID, request), nil)

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.running, scanID)
			s.mu.Unlock()
			cancel()
		}()
		if _, err := s.run(scanCtx, scanID, request, nil); err != nil {
			logx.Warn().Err(err).Str("scanID", scanID).Msg("background scan ended without results")
		}
	}()

	return scanID, nil
}

// CancelScan stops a running background scan before its next subcategory
func (s *ScanService) CancelScan(scanID string) error {
	s.mu.Lock()
	cancel, ok := s.running[scanID]
	s.mu.Unlock()

	if !ok {
		return domain.ErrScanNotFound
	}
	cancel()
	return nil
}

// GetProgress returns the latest progress snapshot of a scan
func (s *ScanService) GetProgress(ctx context.Context, scanID string) (*domain.ScanProgress, error) {
	var progress domain.ScanProgress
	if err := s.cache.Get(ctx, progressKey(scanID), &progress); err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			if result, aerr := s.archivedResult(ctx, scanID); aerr == nil {
				return progressFromResult(result), nil
			}
			return nil, domain.ErrScanNotFound
		}
		return nil, err
	}
	return &progress, nil
}

// GetResult returns the outcome of a finished scan
func (s *ScanService) GetResult(ctx context.Context, scanID string) (*domain.ScanResult, error) {
	var result domain.ScanResult
	if err := s.cache.Get(ctx, resultKey(scanID), &result); err == nil {
		return &result, nil
	}

	if archived, err := s.archivedResult(ctx, scanID); err == nil {
		return archived, nil
	}

	progress, err := s.GetProgress(ctx, scanID)
	if err != nil {
		return nil, err
	}
	if !progress.Status.IsTerminal() {
		return nil, domain.ErrScanInProgress
	}
	return nil, domain.ErrScanNotFound
}

// ListScans returns summaries of recently archived scans
func (s *ScanService) ListScans(ctx context.Context, limit int) ([]domain.ScanSummary, error) {
	if s.archive == nil {
		return []domain.ScanSummary{}, nil
	}
	return s.archive.ListRecent(ctx, limit)
}

// prepareRequest validates a request and fills defaults
func (s *ScanService) prepareRequest(request domain.ScanRequest) (domain.ScanRequest, error) {
	request.Category = strings.TrimSpace(request.Category)
	subcategories := make([]string, 0, len(request.Subcategories))
	for _, sub := range request.Subcategories {
		subcategories = append(subcategories, strings.TrimSpace(sub))
	}
	request.Subcategories = subcategories

	if err := s.validate.Struct(request); err != nil {
		return request, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	if len(request.Subcategories) > s.config.MaxSubcategories {
		return request, fmt.Errorf("%w: at most %d subcategories per scan, got %d",
			domain.ErrInvalidRequest, s.config.MaxSubcategories, len(request.Subcategories))
	}

	if request.MaxResults == 0 {
		request.MaxResults = s.config.DefaultMaxResults
	}
	if request.SortBy == "" {
		request.SortBy = domain.SortByProfitPercentage
	}

	return request, nil
}

func (s *ScanService) run(ctx context.Context, scanID string, request domain.ScanRequest, onProgress ProgressFunc) (*domain.ScanResult, error) {
	started := time.Now()
	progress := newProgress(scanID, request)
	progress.StartedAt = started
	s.saveProgress(ctx, progress, onProgress)

	logx.Info().
		Str("scanID", scanID).
		Str("category", request.Category).
		Strs("subcategories", request.Subcategories).
		Int("maxResults", request.MaxResults).
		Msg("scan started")

	if cached, ok := s.cachedResult(ctx, request); ok {
		return s.finishCached(ctx, scanID, request, cached, progress, onProgress)
	}

	meta := domain.ScanMeta{
		ScanID:        scanID,
		Category:      request.Category,
		Subcategories: request.Subcategories,
		StartedAt:     started,
	}

	var (
		all        []domain.Opportunity
		fetchedAny bool
	)
	n := len(request.Subcategories)

	for i, subcategory := range request.Subcategories {
		if ctx.Err() != nil {
			return s.finishCancelled(ctx, &meta, progress, onProgress, ctx.Err())
		}

		progress.Subcategory = subcategory
		s.transition(ctx, &progress, domain.ScanFetchingListings, phaseProgress(i, n, 0), onProgress)
		batches, ok := s.fetchSubcategory(ctx, subcategory, request.MaxResults)
		if !ok {
			meta.FailedSubcategories = append(meta.FailedSubcategories, subcategory)
			logx.Warn().Str("scanID", scanID).Str("subcategory", subcategory).Msg("every fetch failed, skipping subcategory")
			continue
		}
		fetchedAny = true

		s.transition(ctx, &progress, domain.ScanNormalizing, phaseProgress(i, n, 1), onProgress)
		listings, dropped := s.normalizeBatches(batches, subcategory)
		meta.DroppedRecords += dropped

		s.transition(ctx, &progress, domain.ScanMatching, phaseProgress(i, n, 2), onProgress)
		found := s.builder.Build(listings, subcategory)
		all = append(all, found...)

		logx.Info().
			Str("scanID", scanID).
			Str("subcategory", subcategory).
			Int("listings", len(listings)).
			Int("dropped", dropped).
			Int("opportunities", len(found)).
			Msg("subcategory processed")
	}

	if ctx.Err() != nil {
		return s.finishCancelled(ctx, &meta, progress, onProgress, ctx.Err())
	}

	if !fetchedAny {
		reason := fmt.Sprintf("no listings could be fetched for any of %d subcategories", n)
		return s.finishFailed(ctx, &meta, progress, onProgress, reason)
	}

	progress.Subcategory = ""
	s.transition(ctx, &progress, domain.ScanRanking, progressRanking, onProgress)
	ranked := s.ranker.Rank(all, request.SortBy, RankFilters{
		MinProfit:     request.MinProfit,
		MinConfidence: request.MinConfidence,
		Limit:         request.Limit,
	})

	status := domain.ScanCompleted
	if len(ranked) == 0 {
		status = domain.ScanCompletedNoResults
	}

	meta.Status = status
	meta.TotalFound = len(ranked)
	meta.CompletedAt = time.Now()
	result := &domain.ScanResult{Opportunities: ranked, Meta: meta}

	s.storeResult(ctx, result)
	if status == domain.ScanCompleted {
		s.cacheResult(ctx, request, result)
	}
	s.transition(ctx, &progress, status, progressDone, onProgress)
	s.metrics.RecordScan(status, time.Since(started), len(ranked))

	logx.Info().
		Str("scanID", scanID).
		Str("status", string(status)).
		Int("opportunities", len(ranked)).
		Int("dropped", meta.DroppedRecords).
		Dur("duration", time.Since(started)).
		Msg("scan finished")

	return result, nil
}

// fetchSubcategory queries every marketplace for every expanded keyword. It
// reports false only when every single fetch failed.
func (s *ScanService) fetchSubcategory(ctx context.Context, subcategory string, maxResults int) (map[string][]domain.RawListing, bool) {
	keywords := s.expander.Expand(subcategory, s.config.KeywordsPerSubcategory)
	batches := make(map[string][]domain.RawListing, len(s.config.Marketplaces))
	succeeded := 0

	for _, marketplace := range s.config.Marketplaces {
		for _, keyword := range keywords {
			raws, err := s.fetcher.FetchListings(ctx, keyword, marketplace, maxResults)
			if err != nil {
				s.metrics.RecordFetchError(marketplace)
				logx.Warn().
					Err(err).
					Str("marketplace", marketplace).
					Str("keyword", keyword).
					Msg("fetch failed")
				continue
			}
			succeeded++
			batches[marketplace] = append(batches[marketplace], raws...)
		}
	}

	return batches, succeeded > 0
}

// normalizeBatches normalizes per marketplace and drops repeated listings
// returned by overlapping keywords.
func (s *ScanService) normalizeBatches(batches map[string][]domain.RawListing, subcategory string) ([]domain.Listing, int) {
	var listings []domain.Listing
	dropped := 0
	seen := make(map[string]bool)

	for _, marketplace := range s.config.Marketplaces {
		raws, ok := batches[marketplace]
		if !ok {
			continue
		}
		normalized, d := s.normalizer.NormalizeBatch(raws, marketplace)
		dropped += d
		if d > 0 {
			s.metrics.RecordDropped(marketplace, d)
		}

		for _, listing := range normalized {
			key := listing.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			listing.Subcategory = subcategory
			listings = append(listings, listing)
		}
	}

	return listings, dropped
}

func (s *ScanService) finishFailed(ctx context.Context, meta *domain.ScanMeta, progress domain.ScanProgress, onProgress ProgressFunc, reason string) (*domain.ScanResult, error) {
	meta.Status = domain.ScanFailed
	meta.Reason = reason
	meta.CompletedAt = time.Now()
	result := &domain.ScanResult{Opportunities: []domain.Opportunity{}, Meta: *meta}

	progress.Error = reason
	progress.Subcategory = ""
	s.storeResult(ctx, result)
	s.transition(ctx, &progress, domain.ScanFailed, progress.Progress, onProgress)
	s.metrics.RecordScan(domain.ScanFailed, meta.CompletedAt.Sub(meta.StartedAt), 0)

	logx.Error().Str("scanID", meta.ScanID).Str("reason", reason).Msg("scan failed")
	return result, fmt.Errorf("%w: %s", domain.ErrScanFailed, reason)
}

func (s *ScanService) finishCancelled(ctx context.Context, meta *domain.ScanMeta, progress domain.ScanProgress, onProgress ProgressFunc, cause error) (*domain.ScanResult, error) {
	meta.Status = domain.ScanCancelled
	meta.Reason = "scan cancelled by caller"
	meta.CompletedAt = time.Now()
	result := &domain.ScanResult{Opportunities: []domain.Opportunity{}, Meta: *meta}

	// The scan context is already done, bookkeeping must still land
	store := context.WithoutCancel(ctx)
	progress.Subcategory = ""
	s.storeResult(store, result)
	s.transition(store, &progress, domain.ScanCancelled, progress.Progress, onProgress)
	s.metrics.RecordScan(domain.ScanCancelled, meta.CompletedAt.Sub(meta.StartedAt), 0)

	logx.Info().Str("scanID", meta.ScanID).Msg("scan cancelled")
	return result, fmt.Errorf("%w: %v", domain.ErrScanCancelled, cause)
}

func (s *ScanService) finishCached(ctx context.Context, scanID string, request domain.ScanRequest, cached *domain.ScanResult, progress domain.ScanProgress, onProgress ProgressFunc) (*domain.ScanResult, error) {
	now := time.Now()
	result := &domain.ScanResult{
		Opportunities: cached.Opportunities,
		Meta:          cached.Meta,
	}
	result.Meta.ScanID = scanID
	result.Meta.Category = request.Category
	result.Meta.Subcategories = append([]string(nil), request.Subcategories...)
	result.Meta.Cached = true
	result.Meta.StartedAt = progress.StartedAt
	result.Meta.CompletedAt = now

	s.storeResult(ctx, result)
	s.transition(ctx, &progress, result.Meta.Status, progressDone, onProgress)
	s.metrics.RecordScan(result.Meta.Status, now.Sub(progress.StartedAt), len(result.Opportunities))

	logx.Info().Str("scanID", scanID).Str("category", request.Category).Msg("served scan from cache")
	return result, nil
}

func (s *ScanService) transition(ctx context.Context, progress *domain.ScanProgress, status domain.ScanStatus, percent int, onProgress ProgressFunc) {
	progress.Status = status
	progress.Progress = percent
	s.saveProgress(ctx, *progress, onProgress)
}

func (s *ScanService) saveProgress(ctx context.Context, progress domain.ScanProgress, onProgress ProgressFunc) {
	progress.UpdatedAt = time.Now()
	if err := s.cache.Set(ctx, progressKey(progress.ScanID), progress, s.config.ProgressTTL); err != nil {
		logx.Warn().Err(err).Str("scanID", progress.ScanID).Msg("failed to store scan progress")
	}
	if onProgress != nil {
		onProgress(progress)
	}
}

func (s *ScanService) storeResult(ctx context.Context, result *domain.ScanResult) {
	if err := s.cache.Set(ctx, resultKey(result.Meta.ScanID), result, s.config.ProgressTTL); err != nil {
		logx.Warn().Err(err).Str("scanID", result.Meta.ScanID).Msg("failed to store scan result")
	}
	if s.archive != nil {
		if err := s.archive.Save(ctx, result); err != nil {
			logx.Error().Err(err).Str("scanID", result.Meta.ScanID).Msg("failed to archive scan")
		}
	}
}

func (s *ScanService) cachedResult(ctx context.Context, request domain.ScanRequest) (*domain.ScanResult, bool) {
	if s.config.ResultCacheTTL <= 0 {
		return nil, false
	}
	var result domain.ScanResult
	if err := s.cache.Get(ctx, resultCacheKey(request), &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (s *ScanService) cacheResult(ctx context.Context, request domain.ScanRequest, result *domain.ScanResult) {
	if s.config.ResultCacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, resultCacheKey(request), result, s.config.ResultCacheTTL); err != nil {
		logx.Warn().Err(err).Msg("failed to cache scan result")
	}
}

func (s *ScanService) archivedResult(ctx context.Context, scanID string) (*domain.ScanResult, error) {
	if s.archive == nil {
		return nil, domain.ErrScanNotFound
	}
	return s.archive.FindByID(ctx, scanID)
}

func newProgress(scanID string, request domain.ScanRequest) domain.ScanProgress {
	return domain.ScanProgress{
		ScanID:        scanID,
		Status:        domain.ScanPending,
		Progress:      progressPending,
		Category:      request.Category,
		Subcategories: request.Subcategories,
		StartedAt:     time.Now(),
	}
}

func progressFromResult(result *domain.ScanResult) *domain.ScanProgress {
	percent := progressDone
	if result.Meta.Status == domain.ScanFailed || result.Meta.Status == domain.ScanCancelled {
		percent = progressPending
	}
	return &domain.ScanProgress{
		ScanID:        result.Meta.ScanID,
		Status:        result.Meta.Status,
		Progress:      percent,
		Category:      result.Meta.Category,
		Subcategories: result.Meta.Subcategories,
		StartedAt:     result.Meta.StartedAt,
		UpdatedAt:     result.Meta.CompletedAt,
		Error:         result.Meta.Reason,
	}
}

// phaseProgress spreads the three per-subcategory phases evenly between the
// fetch and ranking checkpoints.
func phaseProgress(index, total, phase int) int {
	if total <= 0 {
		return progressFetchStart
	}
	span := progressRanking - progressFetchStart
	return progressFetchStart + span*(index*3+phase)/(total*3)
}

func progressKey(scanID string) string {
	return "scan:progress:" + scanID
}

func resultKey(scanID string) string {
	return "scan:result:" + scanID
}

// resultCacheKey identifies scans that would produce the same result.
// Format: "scan:cache:{category}:{sorted subcategories}:{options}"
func resultCacheKey(request domain.ScanRequest) string {
	subs := make([]string, len(request.Subcategories))
	for i, sub := range request.Subcategories {
		subs[i] = strings.ToLower(sub)
	}
	sort.Strings(subs)

	return fmt.Sprintf("scan:cache:%s:%s:%d:%s:%.2f:%d:%d",
		strings.ToLower(request.Category),
		strings.Join(subs, ","),
		request.MaxResults,
		request.SortBy,
		request.MinProfit,
		request.MinConfidence,
		request.Limit,
	)
}

type noopMetrics struct{}

func (noopMetrics) RecordScan(domain.ScanStatus, time.Duration, int) {}
func (noopMetrics) RecordDropped(string, int)                        {}
func (noopMetrics) RecordFetchError(string)                          {}
