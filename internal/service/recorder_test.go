package service

import (
	"context"
	"testing"

	"qr-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEventAppendsRow(t *testing.T) {
	st := newMemStore()
	rc := NewRecorder(st)

	ev, err := rc.RecordEvent(context.Background(), &RecordEventRequest{
		TenantID:  1,
		EventType: models.EventTypeAddToCart,
		QRCodeID:  42,
		ProductID: 10,
		Properties: models.Properties{
			"short_code": "AB12CD",
			"price":      4500,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, ev)

	assert.NotZero(t, ev.ID)
	assert.Equal(t, int64(1), ev.TenantID)
	assert.Equal(t, models.EventTypeAddToCart, ev.EventType)
	assert.Equal(t, "AB12CD", ev.Properties["short_code"])
	assert.Equal(t, 1, st.eventCount())
}

func TestRecordEventInvalidType(t *testing.T) {
	st := newMemStore()
	rc := NewRecorder(st)

	_, err := rc.RecordEvent(context.Background(), &RecordEventRequest{
		TenantID:  1,
		EventType: "page-view",
		QRCodeID:  42,
		ProductID: 10,
	})
	assert.ErrorIs(t, err, ErrInvalidEventType)
	assert.Equal(t, 0, st.eventCount())
}

func TestRecordEventIdempotent(t *testing.T) {
	st := newMemStore()
	rc := NewRecorder(st)

	req := &RecordEventRequest{
		EventID:   "evt-123",
		TenantID:  1,
		EventType: models.EventTypeLandingView,
		QRCodeID:  42,
		ProductID: 10,
	}

	first, err := rc.RecordEvent(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Redelivery of the same event id appends nothing.
	second, err := rc.RecordEvent(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Equal(t, 1, st.eventCount())
}

// Full scan flow: create a code, resolve it, record the landing view,
// increment the counter — the two telemetry writes stay separate.
func TestScanEndToEnd(t *testing.T) {
	st := newMemStore()
	reg := newTestRegistry(st)
	qr := seedResolvable(t, st, reg)
	resolver := NewResolver(st, nil)
	rc := NewRecorder(st)
	ctx := context.Background()

	result, err := resolver.Resolve(ctx, qr.ShortCode)
	require.NoError(t, err)
	require.True(t, result.OK())
	assert.Equal(t, "Monstera Deliciosa", result.Product.Name)
	require.NotNil(t, result.Content.CareInstructions)

	ev, err := rc.RecordEvent(ctx, &RecordEventRequest{
		EventID:   "evt-e2e-1",
		TenantID:  result.TenantID,
		EventType: models.EventTypeLandingView,
		QRCodeID:  result.QRCodeID,
		ProductID: result.Product.ID,
		Properties: models.Properties{
			"short_code": result.ShortCode,
			"utm_source": "label",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, ev)
	require.NoError(t, reg.IncrementScan(ctx, result.QRCodeID))

	events, err := rc.ListEvents(ctx, 1, qr.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventTypeLandingView, events[0].EventType)
	assert.Equal(t, qr.ID, events[0].QRCodeID)
	assert.Equal(t, int64(1), events[0].TenantID)
	assert.Equal(t, "label", events[0].Properties["utm_source"])

	got, err := reg.Get(ctx, 1, qr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TotalScans)
}

func TestListEventsScopedByTenant(t *testing.T) {
	st := newMemStore()
	rc := NewRecorder(st)
	ctx := context.Background()

	_, err := rc.RecordEvent(ctx, &RecordEventRequest{
		TenantID:  1,
		EventType: models.EventTypeLandingView,
		QRCodeID:  42,
		ProductID: 10,
	})
	require.NoError(t, err)

	events, err := rc.ListEvents(ctx, 2, 42)
	require.NoError(t, err)
	assert.Empty(t, events, "tenant 2 must not see tenant 1's events")
}
