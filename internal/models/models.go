package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// QR code statuses
const (
	QRStatusActive  = "active"
	QRStatusPaused  = "paused"
	QRStatusExpired = "expired"
	QRStatusRevoked = "revoked"
)

// ValidQRStatus reports whether s is a known QR code status.
func ValidQRStatus(s string) bool {
	switch s {
	case QRStatusActive, QRStatusPaused, QRStatusExpired, QRStatusRevoked:
		return true
	}
	return false
}

// QRCode represents a printable QR code bound to a tenant's product.
// ShortCode is the sole public lookup key and is unique system-wide,
// stored uppercase.
type QRCode struct {
	ID            int64      `db:"id" json:"id"`
	TenantID      int64      `db:"tenant_id" json:"tenant_id"`
	ProductID     int64      `db:"product_id" json:"product_id"`
	VariantID     *int64     `db:"variant_id" json:"variant_id,omitempty"`
	LocationID    *int64     `db:"location_id" json:"location_id,omitempty"`
	ShortCode     string     `db:"short_code" json:"short_code"`
	CampaignName  string     `db:"campaign_name" json:"campaign_name,omitempty"`
	UTMSource     string     `db:"utm_source" json:"utm_source,omitempty"`
	UTMMedium     string     `db:"utm_medium" json:"utm_medium,omitempty"`
	UTMCampaign   string     `db:"utm_campaign" json:"utm_campaign,omitempty"`
	UTMContent    string     `db:"utm_content" json:"utm_content,omitempty"`
	Notes         string     `db:"notes" json:"notes,omitempty"`
	LabelFormat   string     `db:"label_format" json:"label_format,omitempty"`
	Status        string     `db:"status" json:"status"`
	TotalScans    int64      `db:"total_scans" json:"total_scans"`
	LastScannedAt *time.Time `db:"last_scanned_at" json:"last_scanned_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Analytics event types (closed set)
const (
	EventTypeLandingView = "landing-view"
	EventTypeAddToCart   = "add-to-cart-from-qr"
)

// ValidEventType reports whether t is a known analytics event type.
func ValidEventType(t string) bool {
	return t == EventTypeLandingView || t == EventTypeAddToCart
}

// AnalyticsEvent is an append-only record of a user action on a landing
// page. TenantID is denormalized from the QR code for query isolation.
type AnalyticsEvent struct {
	ID         int64      `db:"id" json:"id"`
	TenantID   int64      `db:"tenant_id" json:"tenant_id"`
	EventType  string     `db:"event_type" json:"event_type"`
	QRCodeID   int64      `db:"qr_code_id" json:"qr_code_id"`
	ProductID  int64      `db:"product_id" json:"product_id"`
	Properties Properties `db:"properties" json:"properties"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Properties is the free-form bag attached to an analytics event
// (short code, campaign, UTM parameters, price at time of event).
type Properties map[string]interface{}

func (p Properties) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func (p *Properties) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	}
	return fmt.Errorf("unsupported properties type %T", src)
}

// Product is read-only from this service's perspective; it is owned by
// the catalog back office.
type Product struct {
	ID            int64          `db:"id" json:"id"`
	TenantID      int64          `db:"tenant_id" json:"tenant_id"`
	SKU           string         `db:"sku" json:"sku"`
	Name          string         `db:"name" json:"name"`
	BotanicalName string         `db:"botanical_name" json:"botanical_name,omitempty"`
	Description   string         `db:"description" json:"description,omitempty"`
	Price         int64          `db:"price" json:"price"`
	ImageURL      string         `db:"image_url" json:"image_url,omitempty"`
	IsActive      bool           `db:"is_active" json:"is_active"`
	Content       ProductContent `db:"content" json:"content"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// ProductVariant is an optional variation of a product (stem count,
// pot size) a QR code may point at.
type ProductVariant struct {
	ID        int64  `db:"id" json:"id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	TenantID  int64  `db:"tenant_id" json:"tenant_id"`
	Name      string `db:"name" json:"name"`
	Price     int64  `db:"price" json:"price"`
}

// ProductContent is the structured landing-page content bundle stored as
// jsonb on the product row. All fields are optional; an explicit struct
// keeps the shape from drifting silently.
type ProductContent struct {
	CareInstructions *CareInstructions `json:"care_instructions,omitempty"`
	Curiosities      []string          `json:"curiosities,omitempty"`
	CulturalMeaning  string            `json:"cultural_meaning,omitempty"`
	BestLocations    []string          `json:"best_locations,omitempty"`
	ProTips          []string          `json:"pro_tips,omitempty"`
	ArrangementTips  []string          `json:"arrangement_tips,omitempty"`
}

// CareInstructions describes how to keep the plant alive.
type CareInstructions struct {
	Light       string `json:"light,omitempty"`
	Water       string `json:"water,omitempty"`
	Temperature string `json:"temperature,omitempty"`
	Humidity    string `json:"humidity,omitempty"`
	Soil        string `json:"soil,omitempty"`
}

func (c ProductContent) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *ProductContent) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = ProductContent{}
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	}
	return fmt.Errorf("unsupported content type %T", src)
}

// ProcessedEvent tracks consumed scan-event ids so a redelivered message
// never appends a second analytics row.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
