package service

import (
	"context"
	"errors"
	"fmt"

	"qr-service/internal/models"
	"qr-service/internal/store"
	"qr-service/internal/util"

	"go.uber.org/zap"
)

// Registry owns the QR code lifecycle: creation with collision retry,
// status transitions, hard deletes and scan counters.
type Registry struct {
	store       Store
	gen         CodeGenerator
	cache       ResolveCache
	logger      *zap.Logger
	maxAttempts int
}

// NewRegistry creates a new QR code registry. cache may be nil.
func NewRegistry(st Store, gen CodeGenerator, cache ResolveCache, maxAttempts int) *Registry {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Registry{
		store:       st,
		gen:         gen,
		cache:       cache,
		logger:      util.GetLogger(),
		maxAttempts: maxAttempts,
	}
}

// CreateQRCodeRequest carries the back-office inputs for a new code.
type CreateQRCodeRequest struct {
	TenantID     int64  `json:"tenant_id"`
	ProductID    int64  `json:"product_id" binding:"required"`
	VariantID    *int64 `json:"variant_id,omitempty"`
	LocationID   *int64 `json:"location_id,omitempty"`
	CampaignName string `json:"campaign_name,omitempty"`
	UTMSource    string `json:"utm_source,omitempty"`
	UTMMedium    string `json:"utm_medium,omitempty"`
	UTMCampaign  string `json:"utm_campaign,omitempty"`
	UTMContent   string `json:"utm_content,omitempty"`
	Notes        string `json:"notes,omitempty"`
	LabelFormat  string `json:"label_format,omitempty"`
}

// Create validates tenancy, then inserts a new active code. The store's
// unique constraint on short_code is the collision detector: on
// ErrDuplicateShortCode a fresh code is generated, up to maxAttempts.
func (r *Registry) Create(ctx context.Context, req *CreateQRCodeRequest) (*models.QRCode, error) {
	ctx, span := util.StartSpan(ctx, "Registry.Create")
	defer span.End()

	if _, err := r.store.GetProductForTenant(ctx, req.TenantID, req.ProductID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.QRCodeCreateFailedTotal.WithLabelValues("tenancy_violation").Inc()
			return nil, ErrTenancyViolation
		}
		return nil, err
	}

	if req.VariantID != nil {
		variant, err := r.store.GetVariantByID(ctx, *req.VariantID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				util.QRCodeCreateFailedTotal.WithLabelValues("tenancy_violation").Inc()
				return nil, ErrTenancyViolation
			}
			return nil, err
		}
		if variant.ProductID != req.ProductID {
			util.QRCodeCreateFailedTotal.WithLabelValues("tenancy_violation").Inc()
			return nil, ErrTenancyViolation
		}
	}

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		qr := &models.QRCode{
			TenantID:     req.TenantID,
			ProductID:    req.ProductID,
			VariantID:    req.VariantID,
			LocationID:   req.LocationID,
			ShortCode:    r.gen.Generate(),
			CampaignName: req.CampaignName,
			UTMSource:    req.UTMSource,
			UTMMedium:    req.UTMMedium,
			UTMCampaign:  req.UTMCampaign,
			UTMContent:   req.UTMContent,
			Notes:        req.Notes,
			LabelFormat:  req.LabelFormat,
			Status:       models.QRStatusActive,
		}

		err := r.store.CreateQRCode(ctx, qr)
		if err == nil {
			util.QRCodesCreatedTotal.Inc()
			r.logger.Info("QR code created",
				zap.Int64("qr_id", qr.ID),
				zap.Int64("tenant_id", qr.TenantID),
				zap.String("short_code", qr.ShortCode))
			return qr, nil
		}
		if errors.Is(err, store.ErrDuplicateShortCode) {
			util.ShortCodeRetriesTotal.Inc()
			r.logger.Warn("Short code collision, retrying",
				zap.String("short_code", qr.ShortCode),
				zap.Int("attempt", attempt+1))
			continue
		}
		util.QRCodeCreateFailedTotal.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("failed to create qr code: %w", err)
	}

	util.QRCodeCreateFailedTotal.WithLabelValues("generation_exhausted").Inc()
	return nil, ErrGenerationExhausted
}

// BulkCreate creates one code per product that does not already hold an
// active one. Creations are sequential with no batch transaction: prior
// successes stay committed and the first failure stops the run. The
// returned slice holds only newly created codes.
func (r *Registry) BulkCreate(ctx context.Context, tenantID int64, productIDs []int64) ([]models.QRCode, error) {
	ctx, span := util.StartSpan(ctx, "Registry.BulkCreate")
	defer span.End()

	created := make([]models.QRCode, 0, len(productIDs))
	for _, productID := range productIDs {
		_, err := r.store.GetActiveQRCodeForProduct(ctx, tenantID, productID)
		if err == nil {
			continue // already has an active code
		}
		if !errors.Is(err, store.ErrNotFound) {
			return created, err
		}

		qr, err := r.Create(ctx, &CreateQRCodeRequest{TenantID: tenantID, ProductID: productID})
		if err != nil {
			return created, fmt.Errorf("bulk create failed for product %d: %w", productID, err)
		}
		created = append(created, *qr)
	}

	r.logger.Info("Bulk QR code creation finished",
		zap.Int64("tenant_id", tenantID),
		zap.Int("requested", len(productIDs)),
		zap.Int("created", len(created)))
	return created, nil
}

// Get retrieves one of the tenant's QR codes.
func (r *Registry) Get(ctx context.Context, tenantID, qrID int64) (*models.QRCode, error) {
	qr, err := r.store.GetQRCodeByID(ctx, qrID)
	if err != nil {
		return nil, err
	}
	if qr.TenantID != tenantID {
		return nil, ErrTenancyViolation
	}
	return qr, nil
}

// List retrieves all of the tenant's QR codes.
func (r *Registry) List(ctx context.Context, tenantID int64) ([]models.QRCode, error) {
	return r.store.ListQRCodes(ctx, tenantID)
}

// UpdateStatus transitions a code to any valid status, with one
// restriction: revoked is terminal. No other transition graph is
// enforced. The cached resolve payload is invalidated so pausing or
// revoking gates the public page immediately.
func (r *Registry) UpdateStatus(ctx context.Context, tenantID, qrID int64, status string) error {
	ctx, span := util.StartSpan(ctx, "Registry.UpdateStatus")
	defer span.End()

	if !models.ValidQRStatus(status) {
		return ErrInvalidStatus
	}

	qr, err := r.store.GetQRCodeByID(ctx, qrID)
	if err != nil {
		return err
	}
	if qr.TenantID != tenantID {
		return ErrTenancyViolation
	}
	if qr.Status == models.QRStatusRevoked {
		return ErrCodeRevoked
	}

	if err := r.store.UpdateQRCodeStatus(ctx, qrID, status); err != nil {
		return err
	}
	r.invalidateResolve(ctx, qr.ShortCode)

	r.logger.Info("QR code status updated",
		zap.Int64("qr_id", qrID),
		zap.String("from", qr.Status),
		zap.String("to", status))
	return nil
}

// Delete hard-deletes a code. No tombstone; the short code becomes an
// unknown token to the public resolver.
func (r *Registry) Delete(ctx context.Context, tenantID, qrID int64) error {
	ctx, span := util.StartSpan(ctx, "Registry.Delete")
	defer span.End()

	qr, err := r.store.GetQRCodeByID(ctx, qrID)
	if err != nil {
		return err
	}
	if qr.TenantID != tenantID {
		return ErrTenancyViolation
	}

	if err := r.store.DeleteQRCode(ctx, qrID); err != nil {
		return err
	}
	r.invalidateResolve(ctx, qr.ShortCode)
	util.QRCodesDeletedTotal.Inc()

	r.logger.Info("QR code deleted",
		zap.Int64("qr_id", qrID),
		zap.String("short_code", qr.ShortCode))
	return nil
}

// IncrementScan bumps the scan counter. The increment is atomic at the
// storage layer, so concurrent scans of the same code all count.
func (r *Registry) IncrementScan(ctx context.Context, qrID int64) error {
	return r.store.IncrementScan(ctx, qrID)
}

func (r *Registry) invalidateResolve(ctx context.Context, shortCode string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.InvalidateResolvedPayload(ctx, shortCode); err != nil {
		r.logger.Warn("Failed to invalidate resolve cache",
			zap.String("short_code", shortCode),
			zap.Error(err))
	}
}
