package service

import (
	"context"
	"strings"
	"testing"

	"qr-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedResolvable(t *testing.T, st *memStore, reg *Registry) *models.QRCode {
	t.Helper()
	st.addProduct(models.Product{
		ID:            10,
		TenantID:      1,
		SKU:           "MONST-01",
		Name:          "Monstera Deliciosa",
		BotanicalName: "Monstera deliciosa",
		Price:         4500,
		IsActive:      true,
		Content: models.ProductContent{
			CareInstructions: &models.CareInstructions{
				Light: "bright indirect",
				Water: "weekly",
			},
			Curiosities:   []string{"Its leaves split as it matures."},
			BestLocations: []string{"living room", "office"},
		},
	})

	qr, err := reg.Create(context.Background(), &CreateQRCodeRequest{
		TenantID:     1,
		ProductID:    10,
		CampaignName: "in-store-labels",
	})
	require.NoError(t, err)
	return qr
}

func TestResolvePayload(t *testing.T) {
	st := newMemStore()
	reg := newTestRegistry(st)
	qr := seedResolvable(t, st, reg)

	resolver := NewResolver(st, nil)
	result, err := resolver.Resolve(context.Background(), qr.ShortCode)
	require.NoError(t, err)
	require.True(t, result.OK())

	assert.Equal(t, int64(1), result.TenantID)
	assert.Equal(t, qr.ID, result.QRCodeID)
	assert.Equal(t, qr.ShortCode, result.ShortCode)
	assert.Equal(t, "in-store-labels", result.Campaign)
	require.NotNil(t, result.Product)
	assert.Equal(t, "Monstera Deliciosa", result.Product.Name)
	require.NotNil(t, result.Content)
	require.NotNil(t, result.Content.CareInstructions)
	assert.Equal(t, "weekly", result.Content.CareInstructions.Water)
	assert.Contains(t, result.Content.BestLocations, "office")
}

func TestResolveCaseInsensitive(t *testing.T) {
	st := newMemStore()
	reg := newTestRegistry(st)
	qr := seedResolvable(t, st, reg)

	resolver := NewResolver(st, nil)

	upper, err := resolver.Resolve(context.Background(), qr.ShortCode)
	require.NoError(t, err)
	lower, err := resolver.Resolve(context.Background(), strings.ToLower(qr.ShortCode))
	require.NoError(t, err)

	assert.Equal(t, upper, lower)
	assert.True(t, lower.OK())
	assert.Equal(t, qr.ShortCode, lower.ShortCode, "payload carries the stored uppercase code")
}

func TestResolveNotFound(t *testing.T) {
	st := newMemStore()
	resolver := NewResolver(st, nil)

	result, err := resolver.Resolve(context.Background(), "ZZZZZZ")
	require.NoError(t, err)
	assert.Equal(t, ResolveErrorNotFound, result.Error)
	assert.Nil(t, result.Product)
}

// The resolver deliberately distinguishes an unknown code from an
// existing-but-inactive one, and reports the status so the landing page
// can explain what happened.
func TestResolveStatusGating(t *testing.T) {
	st := newMemStore()
	reg := newTestRegistry(st)
	qr := seedResolvable(t, st, reg)
	resolver := NewResolver(st, nil)

	result, err := resolver.Resolve(context.Background(), qr.ShortCode)
	require.NoError(t, err)
	assert.True(t, result.OK())

	require.NoError(t, reg.UpdateStatus(context.Background(), 1, qr.ID, models.QRStatusPaused))

	result, err = resolver.Resolve(context.Background(), qr.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, ResolveErrorNotActive, result.Error)
	assert.Equal(t, models.QRStatusPaused, result.Status)
	assert.Nil(t, result.Product, "inactive codes never expose product content")

	require.NoError(t, reg.UpdateStatus(context.Background(), 1, qr.ID, models.QRStatusActive))

	result, err = resolver.Resolve(context.Background(), qr.ShortCode)
	require.NoError(t, err)
	assert.True(t, result.OK())
}

func TestResolveInactiveProduct(t *testing.T) {
	st := newMemStore()
	reg := newTestRegistry(st)
	qr := seedResolvable(t, st, reg)

	st.addProduct(models.Product{ID: 10, TenantID: 1, Name: "Monstera Deliciosa", IsActive: false})

	resolver := NewResolver(st, nil)
	result, err := resolver.Resolve(context.Background(), qr.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, ResolveErrorNotFound, result.Error)
}

func TestResolveIsSideEffectFree(t *testing.T) {
	st := newMemStore()
	reg := newTestRegistry(st)
	qr := seedResolvable(t, st, reg)
	resolver := NewResolver(st, nil)

	for i := 0; i < 2; i++ {
		result, err := resolver.Resolve(context.Background(), qr.ShortCode)
		require.NoError(t, err)
		require.True(t, result.OK())
	}

	got, err := reg.Get(context.Background(), 1, qr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.TotalScans, "resolve must not touch the counter")

	require.NoError(t, reg.IncrementScan(context.Background(), qr.ID))
	got, err = reg.Get(context.Background(), 1, qr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TotalScans)
}

func TestResolveWithVariant(t *testing.T) {
	st := newMemStore()
	reg := newTestRegistry(st)
	seedResolvable(t, st, reg)
	st.addVariant(models.ProductVariant{ID: 7, ProductID: 10, TenantID: 1, Name: "Large pot", Price: 6500})

	variantID := int64(7)
	qr, err := reg.Create(context.Background(), &CreateQRCodeRequest{
		TenantID:  1,
		ProductID: 10,
		VariantID: &variantID,
	})
	require.NoError(t, err)

	resolver := NewResolver(st, nil)
	result, err := resolver.Resolve(context.Background(), qr.ShortCode)
	require.NoError(t, err)
	require.True(t, result.OK())
	require.NotNil(t, result.Variant)
	assert.Equal(t, "Large pot", result.Variant.Name)
}

// A cached payload must not outlive a status change: pausing through
// the registry invalidates the cache entry, so the next resolve gates.
func TestResolveCacheInvalidation(t *testing.T) {
	st := newMemStore()
	cache := newMemCache()
	reg := NewRegistry(st, &seqGen{codes: []string{"CACHED"}}, cache, 5)
	st.addProduct(models.Product{ID: 10, TenantID: 1, Name: "Fern", IsActive: true})

	qr, err := reg.Create(context.Background(), &CreateQRCodeRequest{TenantID: 1, ProductID: 10})
	require.NoError(t, err)

	resolver := NewResolver(st, cache)

	result, err := resolver.Resolve(context.Background(), qr.ShortCode)
	require.NoError(t, err)
	require.True(t, result.OK())

	// Second resolve is served from cache.
	result, err = resolver.Resolve(context.Background(), qr.ShortCode)
	require.NoError(t, err)
	require.True(t, result.OK())

	require.NoError(t, reg.UpdateStatus(context.Background(), 1, qr.ID, models.QRStatusRevoked))

	result, err = resolver.Resolve(context.Background(), qr.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, ResolveErrorNotActive, result.Error)
	assert.Equal(t, models.QRStatusRevoked, result.Status)
}
