package service

import (
	"context"

	"qr-service/internal/models"
)

// Store is the persistence surface the services depend on. Implemented
// by *store.Store; tests substitute an in-memory fake.
type Store interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductForTenant(ctx context.Context, tenantID, productID int64) (*models.Product, error)
	GetVariantByID(ctx context.Context, id int64) (*models.ProductVariant, error)

	CreateQRCode(ctx context.Context, qr *models.QRCode) error
	GetQRCodeByID(ctx context.Context, id int64) (*models.QRCode, error)
	GetQRCodeByShortCode(ctx context.Context, shortCode string) (*models.QRCode, error)
	GetActiveQRCodeForProduct(ctx context.Context, tenantID, productID int64) (*models.QRCode, error)
	ListQRCodes(ctx context.Context, tenantID int64) ([]models.QRCode, error)
	UpdateQRCodeStatus(ctx context.Context, id int64, status string) error
	DeleteQRCode(ctx context.Context, id int64) error
	IncrementScan(ctx context.Context, id int64) error

	InsertAnalyticsEvent(ctx context.Context, ev *models.AnalyticsEvent) error
	ListEventsByQRCode(ctx context.Context, tenantID, qrCodeID int64) ([]models.AnalyticsEvent, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// CodeGenerator produces candidate short codes. Implemented by
// *shortcode.Generator.
type CodeGenerator interface {
	Generate() string
}

// ResolveCache caches successful resolve payloads. Implemented by
// *redisclient.Client. May be nil; every method failure is survivable.
type ResolveCache interface {
	GetResolvedPayload(ctx context.Context, shortCode string) (string, bool, error)
	SetResolvedPayload(ctx context.Context, shortCode, payload string) error
	InvalidateResolvedPayload(ctx context.Context, shortCode string) error
}
