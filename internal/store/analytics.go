package store

import (
	"context"

	"qr-service/internal/models"
)

// InsertAnalyticsEvent appends one immutable analytics row. There is no
// update or delete path for analytics_events anywhere in this service.
func (s *Store) InsertAnalyticsEvent(ctx context.Context, ev *models.AnalyticsEvent) error {
	query := `
		INSERT INTO analytics_events (tenant_id, event_type, qr_code_id, product_id, properties)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, ev, query,
		ev.TenantID, ev.EventType, ev.QRCodeID, ev.ProductID, ev.Properties)
}

// ListEventsByQRCode retrieves analytics events for one QR code within a
// tenant, newest first. Feeds the back-office scan-history view.
func (s *Store) ListEventsByQRCode(ctx context.Context, tenantID, qrCodeID int64) ([]models.AnalyticsEvent, error) {
	var events []models.AnalyticsEvent
	err := s.db.SelectContext(ctx, &events,
		`SELECT * FROM analytics_events
		 WHERE tenant_id = $1 AND qr_code_id = $2
		 ORDER BY created_at DESC`,
		tenantID, qrCodeID)
	return events, err
}

// IsEventProcessed checks if a scan event has already been consumed.
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed records a consumed scan event id.
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
