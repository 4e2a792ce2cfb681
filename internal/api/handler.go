package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"qr-service/internal/broker"
	"qr-service/internal/models"
	"qr-service/internal/service"
	"qr-service/internal/store"
	"qr-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	registry  *service.Registry
	resolver  *service.Resolver
	recorder  *service.Recorder
	publisher *broker.EventPublisher
	jwtSecret string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	registry *service.Registry,
	resolver *service.Resolver,
	recorder *service.Recorder,
	publisher *broker.EventPublisher,
	jwtSecret string,
) *Handler {
	return &Handler{
		registry:  registry,
		resolver:  resolver,
		recorder:  recorder,
		publisher: publisher,
		jwtSecret: jwtSecret,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public landing path: the one unauthenticated surface. The short
	// code itself is the only credential.
	router.GET("/q/:code", h.resolveCode)
	router.POST("/q/:code/events", h.publicRecordEvent)

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(h.jwtSecret))
	{
		v1.POST("/qrcodes", h.createQRCode)
		v1.POST("/qrcodes/bulk", h.bulkCreateQRCodes)
		v1.GET("/qrcodes", h.listQRCodes)
		v1.GET("/qrcodes/:id", h.getQRCode)
		v1.PATCH("/qrcodes/:id/status", h.updateQRCodeStatus)
		v1.DELETE("/qrcodes/:id", h.deleteQRCode)
		v1.GET("/qrcodes/:id/events", h.listQRCodeEvents)
		v1.POST("/events", h.recordEvent)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// resolveCode handles public short-code resolution. Misses and inactive
// codes are structured results, not errors; the landing page picks the
// message.
func (h *Handler) resolveCode(c *gin.Context) {
	result, err := h.resolver.Resolve(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "temporarily_unavailable",
		})
		return
	}

	if !result.OK() {
		c.JSON(http.StatusNotFound, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// publicEventRequest is the body the landing renderer posts after a
// successful render.
type publicEventRequest struct {
	EventType  string            `json:"event_type" binding:"required"`
	Properties models.Properties `json:"properties,omitempty"`
}

// publicRecordEvent accepts a scan event from the landing page and
// publishes it to the analytics pipeline. Always 202: a failed
// telemetry write must never surface on the landing page.
func (h *Handler) publicRecordEvent(c *gin.Context) {
	var req publicEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !models.ValidEventType(req.EventType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown event type"})
		return
	}

	ctx := c.Request.Context()
	result, err := h.resolver.Resolve(ctx, c.Param("code"))
	if err != nil || !result.OK() {
		// Nothing renderable exists for this code; swallow the event.
		c.Status(http.StatusAccepted)
		return
	}

	props := models.Properties{}
	for k, v := range req.Properties {
		props[k] = v
	}
	props["short_code"] = result.ShortCode
	if result.Campaign != "" {
		props["campaign"] = result.Campaign
	}
	// UTM query parameters pass through into the properties bag
	// unchanged.
	for _, key := range []string{"utm_source", "utm_medium", "utm_campaign"} {
		if val := c.Query(key); val != "" {
			props[key] = val
		}
	}

	event := &models.ScanEvent{
		EventID:    uuid.New().String(),
		EventType:  req.EventType,
		Timestamp:  time.Now(),
		TenantID:   result.TenantID,
		QRCodeID:   result.QRCodeID,
		ProductID:  result.Product.ID,
		ShortCode:  result.ShortCode,
		Properties: props,
	}

	if err := h.publisher.PublishScanEvent(ctx, event); err != nil {
		util.GetLogger().Error("Failed to publish scan event",
			zap.String("event_id", event.EventID),
			zap.Error(err))
	}

	c.Status(http.StatusAccepted)
}

// createQRCode handles back-office QR code creation
func (h *Handler) createQRCode(c *gin.Context) {
	var req service.CreateQRCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	req.TenantID = tenantID(c)

	qr, err := h.registry.Create(c.Request.Context(), &req)
	if err != nil {
		h.writeRegistryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, qr)
}

type bulkCreateRequest struct {
	ProductIDs []int64 `json:"product_ids" binding:"required,min=1"`
}

// bulkCreateQRCodes creates codes for every listed product that lacks
// an active one.
func (h *Handler) bulkCreateQRCodes(c *gin.Context) {
	var req bulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	created, err := h.registry.BulkCreate(c.Request.Context(), tenantID(c), req.ProductIDs)
	if err != nil {
		// Prior successes stay committed; report both.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Bulk create failed",
			"details": err.Error(),
			"created": created,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"created": created})
}

// listQRCodes lists the tenant's QR codes
func (h *Handler) listQRCodes(c *gin.Context) {
	codes, err := h.registry.List(c.Request.Context(), tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list QR codes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"qr_codes": codes})
}

// getQRCode retrieves one of the tenant's QR codes
func (h *Handler) getQRCode(c *gin.Context) {
	qrID, ok := h.pathID(c)
	if !ok {
		return
	}

	qr, err := h.registry.Get(c.Request.Context(), tenantID(c), qrID)
	if err != nil {
		h.writeRegistryError(c, err)
		return
	}
	c.JSON(http.StatusOK, qr)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// updateQRCodeStatus transitions a QR code's lifecycle status
func (h *Handler) updateQRCodeStatus(c *gin.Context) {
	qrID, ok := h.pathID(c)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.registry.UpdateStatus(c.Request.Context(), tenantID(c), qrID, req.Status); err != nil {
		h.writeRegistryError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// deleteQRCode hard-deletes a QR code
func (h *Handler) deleteQRCode(c *gin.Context) {
	qrID, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.registry.Delete(c.Request.Context(), tenantID(c), qrID); err != nil {
		h.writeRegistryError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listQRCodeEvents returns the scan history for one of the tenant's codes
func (h *Handler) listQRCodeEvents(c *gin.Context) {
	qrID, ok := h.pathID(c)
	if !ok {
		return
	}

	// Ownership check first so tenants cannot read each other's events.
	if _, err := h.registry.Get(c.Request.Context(), tenantID(c), qrID); err != nil {
		h.writeRegistryError(c, err)
		return
	}

	events, err := h.recorder.ListEvents(c.Request.Context(), tenantID(c), qrID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// recordEvent handles synchronous analytics writes from back-office
// callers, who do want the error.
func (h *Handler) recordEvent(c *gin.Context) {
	var req service.RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	req.TenantID = tenantID(c)

	ev, err := h.recorder.RecordEvent(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEventType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown event type"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
		return
	}
	if ev == nil {
		c.Status(http.StatusOK) // duplicate event id, already recorded
		return
	}
	c.JSON(http.StatusCreated, ev)
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid QR code ID"})
		return 0, false
	}
	return id, true
}

func (h *Handler) writeRegistryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTenancyViolation):
		c.JSON(http.StatusForbidden, gin.H{"error": "Resource does not belong to tenant"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "QR code not found"})
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
	case errors.Is(err, service.ErrCodeRevoked):
		c.JSON(http.StatusConflict, gin.H{"error": "Revoked QR codes cannot change status"})
	case errors.Is(err, service.ErrGenerationExhausted):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Short code generation failed, try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal error",
			"details": err.Error(),
		})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
