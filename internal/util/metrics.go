package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QRCodesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_codes_created_total",
		Help: "Total number of QR codes created",
	})

	QRCodesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_codes_deleted_total",
		Help: "Total number of QR codes hard-deleted",
	})

	QRCodeCreateFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qr_code_create_failed_total",
		Help: "Total number of failed QR code creations",
	}, []string{"reason"})

	ShortCodeRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "short_code_retries_total",
		Help: "Total number of short code regenerations after a collision",
	})

	ResolvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qr_resolves_total",
		Help: "Total number of public resolve attempts",
	}, []string{"result"})

	ResolveLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qr_resolve_latency_seconds",
		Help:    "Latency of public short-code resolution",
		Buckets: prometheus.DefBuckets,
	})

	ResolveCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qr_resolve_cache_total",
		Help: "Resolve cache lookups by outcome",
	}, []string{"outcome"})

	ScansRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scans_recorded_total",
		Help: "Total number of analytics events recorded",
	}, []string{"event_type"})

	ScanRecordFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_record_failed_total",
		Help: "Total number of failed analytics event writes",
	}, []string{"reason"})

	ScanEventsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scan_events_published_total",
		Help: "Total number of scan events published to the broker",
	})

	ScanEventsPublishFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scan_events_publish_failed_total",
		Help: "Total number of scan events that failed to publish",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
