package broker

import (
	"context"
	"fmt"

	"qr-service/internal/models"
	"qr-service/internal/util"
)

// EventPublisher publishes scan events for the analytics pipeline.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishScanEvent publishes one scan event, keyed by QR code id so all
// events for a code land on one partition in order.
func (ep *EventPublisher) PublishScanEvent(ctx context.Context, event *models.ScanEvent) error {
	key := fmt.Sprintf("qr-%d", event.QRCodeID)
	if err := ep.producer.PublishMessage(ctx, key, event); err != nil {
		util.ScanEventsPublishFailedTotal.Inc()
		return err
	}
	util.ScanEventsPublishedTotal.Inc()
	return nil
}
