package service

import (
	"context"
	"fmt"

	"qr-service/internal/models"
	"qr-service/internal/util"

	"go.uber.org/zap"
)

// Recorder appends immutable analytics events. Rows are never updated
// or deleted; the event-id check makes redelivered transport messages
// append exactly one row.
type Recorder struct {
	store  Store
	logger *zap.Logger
}

// NewRecorder creates a new analytics recorder.
func NewRecorder(st Store) *Recorder {
	return &Recorder{
		store:  st,
		logger: util.GetLogger(),
	}
}

// RecordEventRequest carries one observed user action.
type RecordEventRequest struct {
	// EventID deduplicates transport retries. Optional for synchronous
	// back-office calls.
	EventID    string            `json:"event_id,omitempty"`
	TenantID   int64             `json:"tenant_id"`
	EventType  string            `json:"event_type" binding:"required"`
	QRCodeID   int64             `json:"qr_code_id" binding:"required"`
	ProductID  int64             `json:"product_id" binding:"required"`
	Properties models.Properties `json:"properties,omitempty"`
}

// RecordEvent appends one analytics row. A request whose event id was
// already processed is a no-op returning (nil, nil).
func (rc *Recorder) RecordEvent(ctx context.Context, req *RecordEventRequest) (*models.AnalyticsEvent, error) {
	ctx, span := util.StartSpan(ctx, "Recorder.RecordEvent")
	defer span.End()

	if !models.ValidEventType(req.EventType) {
		util.ScanRecordFailedTotal.WithLabelValues("invalid_event_type").Inc()
		return nil, ErrInvalidEventType
	}

	if req.EventID != "" {
		processed, err := rc.store.IsEventProcessed(ctx, req.EventID)
		if err != nil {
			return nil, fmt.Errorf("failed to check event idempotency: %w", err)
		}
		if processed {
			rc.logger.Info("Duplicate scan event skipped",
				zap.String("event_id", req.EventID),
				zap.Int64("qr_id", req.QRCodeID))
			return nil, nil
		}
	}

	ev := &models.AnalyticsEvent{
		TenantID:   req.TenantID,
		EventType:  req.EventType,
		QRCodeID:   req.QRCodeID,
		ProductID:  req.ProductID,
		Properties: req.Properties,
	}

	if err := rc.store.InsertAnalyticsEvent(ctx, ev); err != nil {
		util.ScanRecordFailedTotal.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("failed to insert analytics event: %w", err)
	}

	if req.EventID != "" {
		if err := rc.store.MarkEventProcessed(ctx, req.EventID, req.EventType); err != nil {
			// The row is in; a failed mark only risks one duplicate on
			// redelivery. Log and move on.
			rc.logger.Warn("Failed to mark event processed",
				zap.String("event_id", req.EventID),
				zap.Error(err))
		}
	}

	util.ScansRecordedTotal.WithLabelValues(req.EventType).Inc()
	return ev, nil
}

// ListEvents retrieves the scan history of one of the tenant's codes.
func (rc *Recorder) ListEvents(ctx context.Context, tenantID, qrCodeID int64) ([]models.AnalyticsEvent, error) {
	return rc.store.ListEventsByQRCode(ctx, tenantID, qrCodeID)
}
