package worker

import (
	"context"
	"encoding/json"

	"qr-service/internal/broker"
	"qr-service/internal/models"
	"qr-service/internal/service"
	"qr-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ScanWorker drains the scan-event topic: every event becomes one
// analytics row, and landing views additionally bump the scan counter.
// The two writes are separate and best-effort; this is telemetry, not a
// ledger.
type ScanWorker struct {
	consumer *broker.Consumer
	recorder *service.Recorder
	registry *service.Registry
	logger   *zap.Logger
}

// NewScanWorker creates a new scan worker
func NewScanWorker(consumer *broker.Consumer, recorder *service.Recorder, registry *service.Registry) *ScanWorker {
	return &ScanWorker{
		consumer: consumer,
		recorder: recorder,
		registry: registry,
		logger:   util.GetLogger(),
	}
}

// Start starts the worker
func (w *ScanWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting scan worker")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *ScanWorker) Stop() error {
	w.logger.Info("Stopping scan worker")
	return w.consumer.Close()
}

func (w *ScanWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	var event models.ScanEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// Unparseable messages would loop forever; log and drop.
		w.logger.Error("Failed to unmarshal scan event", zap.Error(err))
		return nil
	}

	recorded, err := w.recorder.RecordEvent(ctx, &service.RecordEventRequest{
		EventID:    event.EventID,
		TenantID:   event.TenantID,
		EventType:  event.EventType,
		QRCodeID:   event.QRCodeID,
		ProductID:  event.ProductID,
		Properties: event.Properties,
	})
	if err != nil {
		w.logger.Error("Failed to record scan event",
			zap.String("event_id", event.EventID),
			zap.Error(err))
		return err
	}
	if recorded == nil {
		// Redelivered duplicate; already counted.
		return nil
	}

	if event.EventType == models.EventTypeLandingView {
		if err := w.registry.IncrementScan(ctx, event.QRCodeID); err != nil {
			// The row is already written; a lost increment is
			// acceptable telemetry drift, not worth a redelivery that
			// cannot re-run the insert anyway.
			w.logger.Warn("Failed to increment scan counter",
				zap.Int64("qr_id", event.QRCodeID),
				zap.Error(err))
		}
	}

	return nil
}
