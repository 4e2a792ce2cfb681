package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"qr-service/internal/models"
	"qr-service/internal/store"
	"qr-service/internal/util"

	"go.uber.org/zap"
)

// Resolve error codes. The resolver distinguishes unknown codes from
// existing-but-inactive ones; the landing page decides how much of that
// to show the visitor.
const (
	ResolveErrorNotFound  = "not_found"
	ResolveErrorNotActive = "not_active"
)

// ResolveResult is the denormalized payload the public landing page
// renders from. Error is empty on success.
type ResolveResult struct {
	Error  string `json:"error,omitempty"`
	Status string `json:"status,omitempty"`

	TenantID  int64                  `json:"tenant_id,omitempty"`
	QRCodeID  int64                  `json:"qr_code_id,omitempty"`
	ShortCode string                 `json:"short_code,omitempty"`
	Campaign  string                 `json:"campaign,omitempty"`
	Product   *models.Product        `json:"product,omitempty"`
	Variant   *models.ProductVariant `json:"variant,omitempty"`
	Content   *models.ProductContent `json:"content,omitempty"`
}

// OK reports whether the resolve succeeded.
func (r *ResolveResult) OK() bool {
	return r.Error == ""
}

// Resolver is the single unauthenticated read path: short code in,
// content payload out. It is a pure read; it never touches the scan
// counter or analytics.
type Resolver struct {
	store  Store
	cache  ResolveCache
	logger *zap.Logger
}

// NewResolver creates a new resolver. cache may be nil.
func NewResolver(st Store, cache ResolveCache) *Resolver {
	return &Resolver{
		store:  st,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// Resolve looks up a short code case-insensitively and assembles the
// landing payload. Lookup misses and inactive codes come back as
// structured results, never as errors; only storage failures return a
// non-nil error.
func (rs *Resolver) Resolve(ctx context.Context, shortCode string) (*ResolveResult, error) {
	ctx, span := util.StartSpan(ctx, "Resolver.Resolve")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ResolveLatency.Observe(time.Since(start).Seconds())
	}()

	code := strings.ToUpper(strings.TrimSpace(shortCode))

	if cached := rs.fromCache(ctx, code); cached != nil {
		util.ResolvesTotal.WithLabelValues("success").Inc()
		return cached, nil
	}

	qr, err := rs.store.GetQRCodeByShortCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.ResolvesTotal.WithLabelValues(ResolveErrorNotFound).Inc()
			return &ResolveResult{Error: ResolveErrorNotFound}, nil
		}
		util.ResolvesTotal.WithLabelValues("store_error").Inc()
		return nil, err
	}

	if qr.Status != models.QRStatusActive {
		util.ResolvesTotal.WithLabelValues(ResolveErrorNotActive).Inc()
		return &ResolveResult{Error: ResolveErrorNotActive, Status: qr.Status}, nil
	}

	product, err := rs.store.GetProductByID(ctx, qr.ProductID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The code outlived its product; treat as unavailable.
			util.ResolvesTotal.WithLabelValues(ResolveErrorNotFound).Inc()
			return &ResolveResult{Error: ResolveErrorNotFound}, nil
		}
		util.ResolvesTotal.WithLabelValues("store_error").Inc()
		return nil, err
	}
	if !product.IsActive {
		util.ResolvesTotal.WithLabelValues(ResolveErrorNotFound).Inc()
		return &ResolveResult{Error: ResolveErrorNotFound}, nil
	}

	result := &ResolveResult{
		TenantID:  qr.TenantID,
		QRCodeID:  qr.ID,
		ShortCode: qr.ShortCode,
		Campaign:  qr.CampaignName,
		Product:   product,
		Content:   &product.Content,
	}

	if qr.VariantID != nil {
		variant, err := rs.store.GetVariantByID(ctx, *qr.VariantID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			util.ResolvesTotal.WithLabelValues("store_error").Inc()
			return nil, err
		}
		result.Variant = variant
	}

	rs.toCache(ctx, code, result)
	util.ResolvesTotal.WithLabelValues("success").Inc()
	return result, nil
}

func (rs *Resolver) fromCache(ctx context.Context, code string) *ResolveResult {
	if rs.cache == nil {
		return nil
	}
	payload, ok, err := rs.cache.GetResolvedPayload(ctx, code)
	if err != nil {
		util.ResolveCacheHitsTotal.WithLabelValues("error").Inc()
		rs.logger.Warn("Resolve cache read failed, falling back to DB",
			zap.String("short_code", code),
			zap.Error(err))
		return nil
	}
	if !ok {
		util.ResolveCacheHitsTotal.WithLabelValues("miss").Inc()
		return nil
	}

	var result ResolveResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		util.ResolveCacheHitsTotal.WithLabelValues("error").Inc()
		rs.logger.Warn("Corrupt resolve cache entry",
			zap.String("short_code", code),
			zap.Error(err))
		return nil
	}
	util.ResolveCacheHitsTotal.WithLabelValues("hit").Inc()
	return &result
}

func (rs *Resolver) toCache(ctx context.Context, code string, result *ResolveResult) {
	if rs.cache == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := rs.cache.SetResolvedPayload(ctx, code, string(payload)); err != nil {
		rs.logger.Warn("Resolve cache write failed",
			zap.String("short_code", code),
			zap.Error(err))
	}
}
