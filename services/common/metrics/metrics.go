package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ImageMetrics counts image lifecycle events. It satisfies storage.Observer.
type ImageMetrics struct {
	uploads     *prometheus.CounterVec
	uploadBytes prometheus.Histogram
	deletes     *prometheus.CounterVec
}

// NewImageMetrics registers the image collectors on reg. A nil registerer
// yields a collector that records nothing.
func NewImageMetrics(reg prometheus.Registerer) *ImageMetrics {
	if reg == nil {
		return &ImageMetrics{}
	}
	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "images_uploaded_total",
		Help: "Images written to blob storage.",
	}, []string{"folder"})
	uploadBytes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "image_upload_bytes",
		Help:    "Size of uploaded images in bytes.",
		Buckets: prometheus.ExponentialBuckets(16<<10, 2, 9),
	})
	deletes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "image_deletes_total",
		Help: "Image cleanup attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(uploads, uploadBytes, deletes)
	return &ImageMetrics{uploads: uploads, uploadBytes: uploadBytes, deletes: deletes}
}

func (m *ImageMetrics) ObserveUpload(folder string, size int64) {
	if m == nil || m.uploads == nil {
		return
	}
	m.uploads.WithLabelValues(normalizeLabel(folder)).Inc()
	m.uploadBytes.Observe(float64(size))
}

func (m *ImageMetrics) ObserveDelete(outcome string) {
	if m == nil || m.deletes == nil {
		return
	}
	m.deletes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// HTTPMetrics records request counts and latency per route template.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer, service string) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	labels := prometheus.Labels{"service": service}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "http_requests_total",
		Help:        "HTTP requests by route and status.",
		ConstLabels: labels,
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "http_request_duration_seconds",
		Help:        "HTTP request latency by route.",
		ConstLabels: labels,
		Buckets:     prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{requests: requests, duration: duration}
}

func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || m.requests == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := normalizeLabel(c.FullPath())
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the prometheus text format.
func Handler(g prometheus.Gatherer) gin.HandlerFunc {
	h := promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// NotFoundRoute is used for requests that matched no route.
const NotFoundRoute = "unknown"

func normalizeLabel(v string) string {
	if v == "" {
		return NotFoundRoute
	}
	return v
}
