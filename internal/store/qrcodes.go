package store

import (
	"context"
	"database/sql"
	"strings"

	"qr-service/internal/models"
)

// CreateQRCode inserts a new QR code row. A short-code collision with an
// existing row surfaces as ErrDuplicateShortCode so the registry can
// retry with a fresh code.
func (s *Store) CreateQRCode(ctx context.Context, qr *models.QRCode) error {
	query := `
		INSERT INTO qr_codes (
			tenant_id, product_id, variant_id, location_id, short_code,
			campaign_name, utm_source, utm_medium, utm_campaign, utm_content,
			notes, label_format, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, total_scans, created_at`

	err := s.db.GetContext(ctx, qr, query,
		qr.TenantID, qr.ProductID, qr.VariantID, qr.LocationID, qr.ShortCode,
		qr.CampaignName, qr.UTMSource, qr.UTMMedium, qr.UTMCampaign, qr.UTMContent,
		qr.Notes, qr.LabelFormat, qr.Status)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateShortCode
	}
	return err
}

// GetQRCodeByID retrieves a QR code by its internal id.
func (s *Store) GetQRCodeByID(ctx context.Context, id int64) (*models.QRCode, error) {
	var qr models.QRCode
	err := s.db.GetContext(ctx, &qr, "SELECT * FROM qr_codes WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

// GetQRCodeByShortCode retrieves a QR code by its public short code.
// Codes are stored uppercase; lookup is case-insensitive. This is the
// single unauthenticated read path: no tenant filter, by design.
func (s *Store) GetQRCodeByShortCode(ctx context.Context, shortCode string) (*models.QRCode, error) {
	var qr models.QRCode
	err := s.db.GetContext(ctx, &qr,
		"SELECT * FROM qr_codes WHERE short_code = $1", strings.ToUpper(shortCode))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

// GetActiveQRCodeForProduct returns the product's active QR code, or
// ErrNotFound if it has none. Used by bulk create to skip products that
// already carry a code.
func (s *Store) GetActiveQRCodeForProduct(ctx context.Context, tenantID, productID int64) (*models.QRCode, error) {
	var qr models.QRCode
	err := s.db.GetContext(ctx, &qr,
		`SELECT * FROM qr_codes
		 WHERE tenant_id = $1 AND product_id = $2 AND status = $3
		 ORDER BY created_at DESC LIMIT 1`,
		tenantID, productID, models.QRStatusActive)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

// ListQRCodes retrieves all QR codes for a tenant, newest first.
func (s *Store) ListQRCodes(ctx context.Context, tenantID int64) ([]models.QRCode, error) {
	var codes []models.QRCode
	err := s.db.SelectContext(ctx, &codes,
		"SELECT * FROM qr_codes WHERE tenant_id = $1 ORDER BY created_at DESC", tenantID)
	return codes, err
}

// UpdateQRCodeStatus updates the status of a QR code.
func (s *Store) UpdateQRCodeStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE qr_codes SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteQRCode hard-deletes a QR code. There is no tombstone.
func (s *Store) DeleteQRCode(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM qr_codes WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementScan bumps total_scans and stamps last_scanned_at in a single
// statement. The increment happens in the database, never
// read-modify-write in Go, so concurrent scans of the same code cannot
// lose updates.
func (s *Store) IncrementScan(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE qr_codes SET total_scans = total_scans + 1, last_scanned_at = NOW() WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
