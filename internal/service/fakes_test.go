package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"qr-service/internal/models"
	"qr-service/internal/store"
)

// memStore is an in-memory Store used by the service tests. It mirrors
// the real store's contract: sentinel errors, uppercase short-code
// lookups, a unique-constraint check on insert and an atomic scan
// increment under the mutex.
type memStore struct {
	mu sync.Mutex

	products  map[int64]*models.Product
	variants  map[int64]*models.ProductVariant
	qrCodes   map[int64]*models.QRCode
	byCode    map[string]int64
	events    []models.AnalyticsEvent
	processed map[string]bool

	nextQRID    int64
	nextEventID int64
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[int64]*models.Product),
		variants:  make(map[int64]*models.ProductVariant),
		qrCodes:   make(map[int64]*models.QRCode),
		byCode:    make(map[string]int64),
		processed: make(map[string]bool),
	}
}

func (m *memStore) addProduct(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = &p
}

func (m *memStore) addVariant(v models.ProductVariant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variants[v.ID] = &v
}

func (m *memStore) qrCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.qrCodes)
}

func (m *memStore) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *memStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetProductForTenant(ctx context.Context, tenantID, productID int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetVariantByID(ctx context.Context, id int64) (*models.ProductVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memStore) CreateQRCode(ctx context.Context, qr *models.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byCode[qr.ShortCode]; exists {
		return store.ErrDuplicateShortCode
	}
	m.nextQRID++
	qr.ID = m.nextQRID
	qr.TotalScans = 0
	qr.CreatedAt = time.Now()
	cp := *qr
	m.qrCodes[qr.ID] = &cp
	m.byCode[qr.ShortCode] = qr.ID
	return nil
}

func (m *memStore) GetQRCodeByID(ctx context.Context, id int64) (*models.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qr, ok := m.qrCodes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *qr
	return &cp, nil
}

func (m *memStore) GetQRCodeByShortCode(ctx context.Context, shortCode string) (*models.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCode[strings.ToUpper(shortCode)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m.qrCodes[id]
	return &cp, nil
}

func (m *memStore) GetActiveQRCodeForProduct(ctx context.Context, tenantID, productID int64) (*models.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, qr := range m.qrCodes {
		if qr.TenantID == tenantID && qr.ProductID == productID && qr.Status == models.QRStatusActive {
			cp := *qr
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) ListQRCodes(ctx context.Context, tenantID int64) ([]models.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.QRCode
	for _, qr := range m.qrCodes {
		if qr.TenantID == tenantID {
			out = append(out, *qr)
		}
	}
	return out, nil
}

func (m *memStore) UpdateQRCodeStatus(ctx context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	qr, ok := m.qrCodes[id]
	if !ok {
		return store.ErrNotFound
	}
	qr.Status = status
	return nil
}

func (m *memStore) DeleteQRCode(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	qr, ok := m.qrCodes[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(m.byCode, qr.ShortCode)
	delete(m.qrCodes, id)
	return nil
}

func (m *memStore) IncrementScan(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	qr, ok := m.qrCodes[id]
	if !ok {
		return store.ErrNotFound
	}
	qr.TotalScans++
	now := time.Now()
	qr.LastScannedAt = &now
	return nil
}

func (m *memStore) InsertAnalyticsEvent(ctx context.Context, ev *models.AnalyticsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextEventID++
	ev.ID = m.nextEventID
	ev.CreatedAt = time.Now()
	m.events = append(m.events, *ev)
	return nil
}

func (m *memStore) ListEventsByQRCode(ctx context.Context, tenantID, qrCodeID int64) ([]models.AnalyticsEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AnalyticsEvent
	for _, ev := range m.events {
		if ev.TenantID == tenantID && ev.QRCodeID == qrCodeID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *memStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed[eventID], nil
}

func (m *memStore) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[eventID] = true
	return nil
}

// seqGen returns a fixed sequence of codes, repeating the last one.
// Used to force collisions deterministically.
type seqGen struct {
	codes []string
	calls int
}

func (g *seqGen) Generate() string {
	i := g.calls
	g.calls++
	if i >= len(g.codes) {
		return g.codes[len(g.codes)-1]
	}
	return g.codes[i]
}

// memCache is an in-memory ResolveCache.
type memCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]string)}
}

func (c *memCache) GetResolvedPayload(ctx context.Context, shortCode string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.entries[shortCode]
	return val, ok, nil
}

func (c *memCache) SetResolvedPayload(ctx context.Context, shortCode, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[shortCode] = payload
	return nil
}

func (c *memCache) InvalidateResolvedPayload(ctx context.Context, shortCode string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, shortCode)
	return nil
}
