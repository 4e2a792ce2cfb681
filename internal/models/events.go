package models

import "time"

// ScanEvent is the kafka payload for a public scan action. The landing
// renderer fires it after a successful resolve; the scan worker turns it
// into an analytics row and, for landing views, a counter increment.
type ScanEvent struct {
	EventID    string     `json:"event_id"`
	EventType  string     `json:"event_type"`
	Timestamp  time.Time  `json:"timestamp"`
	TenantID   int64      `json:"tenant_id"`
	QRCodeID   int64      `json:"qr_code_id"`
	ProductID  int64      `json:"product_id"`
	ShortCode  string     `json:"short_code"`
	Properties Properties `json:"properties,omitempty"`
}
