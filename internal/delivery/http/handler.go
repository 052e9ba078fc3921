package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fliphawk/backend/internal/domain"
	"github.com/fliphawk/backend/internal/usecase"
	logx "github.com/fliphawk/backend/pkg/logger"
)

const (
	defaultKeywordLimit = 20
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ScanService is the scan API the handlers depend on
type ScanService interface {
	RunScan(ctx context.Context, request domain.ScanRequest, onProgress usecase.ProgressFunc) (*domain.ScanResult, error)
	StartScan(ctx context.Context, request domain.ScanRequest) (string, error)
	CancelScan(scanID string) error
	GetProgress(ctx context.Context, scanID string) (*domain.ScanProgress, error)
	GetResult(ctx context.Context, scanID string) (*domain.ScanResult, error)
	ListScans(ctx context.Context, limit int) ([]domain.ScanSummary, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	scans    ScanService
	expander *usecase.KeywordExpander
}

// NewHandler creates a new HTTP handler. A nil scan service makes the scan
// endpoints answer 503.
func NewHandler(scans ScanService) *Handler {
	return &Handler{
		scans:    scans,
		expander: usecase.NewKeywordExpander(),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "fliphawk-backend",
		"version": "1.0.0",
	})
}

// ListCategories returns the category catalog
func (h *Handler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": usecase.Catalog})
}

// ExpandKeywords previews the searches a subcategory expands into
func (h *Handler) ExpandKeywords(c *gin.Context) {
	subcategory := strings.TrimSpace(c.Query("subcategory"))
	if subcategory == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subcategory is required"})
		return
	}

	limit, ok := queryInt(c, "limit", defaultKeywordLimit)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subcategory": subcategory,
		"keywords":    h.expander.Expand(subcategory, limit),
	})
}

// CreateScan starts a scan. With ?wait=true the scan runs inside the request
// and the result is returned directly.
func (h *Handler) CreateScan(c *gin.Context) {
	if !h.available(c) {
		return
	}

	var request domain.ScanRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if c.Query("wait") == "true" {
		result, err := h.scans.RunScan(c.Request.Context(), request, nil)
		if err != nil {
			if result != nil {
				c.JSON(statusFor(err), gin.H{"error": err.Error(), "meta": result.Meta})
				return
			}
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	scanID, err := h.scans.StartScan(c.Request.Context(), request)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Location", "/api/v1/scans/"+scanID)
	c.JSON(http.StatusAccepted, gin.H{
		"scanId": scanID,
		"status": domain.ScanPending,
	})
}

// ListScans returns recently archived scans
func (h *Handler) ListScans(c *gin.Context) {
	if !h.available(c) {
		return
	}

	limit, ok := queryInt(c, "limit", defaultHistoryLimit)
	if !ok {
		return
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	summaries, err := h.scans.ListScans(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": summaries})
}

// GetScan returns the result of a finished scan
func (h *Handler) GetScan(c *gin.Context) {
	if !h.available(c) {
		return
	}

	result, err := h.scans.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetScanProgress returns the latest progress snapshot of a scan
func (h *Handler) GetScanProgress(c *gin.Context) {
	if !h.available(c) {
		return
	}

	progress, err := h.scans.GetProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// CancelScan stops a running scan
func (h *Handler) CancelScan(c *gin.Context) {
	if !h.available(c) {
		return
	}

	scanID := c.Param("id")
	if err := h.scans.CancelScan(scanID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"scanId": scanID,
		"status": "cancelling",
	})
}

func (h *Handler) available(c *gin.Context) bool {
	if h.scans == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scan service unavailable"})
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrScanNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrScanInProgress), errors.Is(err, domain.ErrScanCancelled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrScanFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logx.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		message = "internal server error"
	}
	c.JSON(status, gin.H{"error": message})
}

// queryInt reads a non-negative integer query parameter, answering 400 itself
// when the value is malformed.
func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a non-negative integer"})
		return 0, false
	}
	return v, true
}
