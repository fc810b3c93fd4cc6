package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// HTTPMetricsSource is implemented by the HTTP metrics middleware.
type HTTPMetricsSource interface {
	RequestCounts() map[string]int64
	AverageDuration() float64
	ActiveRequests() int64
}

// AppMetrics holds application-level metrics (cache, provider calls)
type AppMetrics struct {
	mutex                sync.RWMutex
	cacheHits            int64
	cacheMisses          int64
	weatherServiceCalls  map[string]int64
	weatherServiceErrors map[string]int64
}

type MetricsHandler struct {
	http       HTTPMetricsSource
	appMetrics *AppMetrics
}

func NewMetricsHandler(source HTTPMetricsSource) *MetricsHandler {
	return &MetricsHandler{
		http: source,
		appMetrics: &AppMetrics{
			weatherServiceCalls:  make(map[string]int64),
			weatherServiceErrors: make(map[string]int64),
		},
	}
}

func (h *MetricsHandler) RecordCacheHit(ctx context.Context, cacheType string) {
	h.appMetrics.mutex.Lock()
	h.appMetrics.cacheHits++
	h.appMetrics.mutex.Unlock()
}

func (h *MetricsHandler) RecordCacheMiss(ctx context.Context, cacheType string) {
	h.appMetrics.mutex.Lock()
	h.appMetrics.cacheMisses++
	h.appMetrics.mutex.Unlock()
}

func (h *MetricsHandler) RecordWeatherServiceCall(ctx context.Context, service string, success bool) {
	h.appMetrics.mutex.Lock()
	h.appMetrics.weatherServiceCalls[service]++
	if !success {
		h.appMetrics.weatherServiceErrors[service]++
	}
	h.appMetrics.mutex.Unlock()
}

// ServeMetrics writes HTTP and application metrics in the Prometheus text format.
func (h *MetricsHandler) ServeMetrics(c *gin.Context) {
	var b strings.Builder

	if h.http != nil {
		writeHeader(&b, "http_requests_total", "Total number of HTTP requests", "counter")
		counts := h.http.RequestCounts()
		for _, key := range sortedKeys(counts) {
			fmt.Fprintf(&b, "http_requests_total{route_status=%q} %d\n", key, counts[key])
		}

		writeHeader(&b, "http_request_duration_seconds_avg", "Average duration of HTTP requests", "gauge")
		fmt.Fprintf(&b, "http_request_duration_seconds_avg %.6f\n", h.http.AverageDuration())

		writeHeader(&b, "http_active_requests", "Number of active HTTP requests", "gauge")
		fmt.Fprintf(&b, "http_active_requests %d\n", h.http.ActiveRequests())
	}

	h.appMetrics.mutex.RLock()
	defer h.appMetrics.mutex.RUnlock()

	writeHeader(&b, "forecast_cache_hits_total", "Total cache hits", "counter")
	fmt.Fprintf(&b, "forecast_cache_hits_total %d\n", h.appMetrics.cacheHits)

	writeHeader(&b, "forecast_cache_miss_total", "Total cache misses", "counter")
	fmt.Fprintf(&b, "forecast_cache_miss_total %d\n", h.appMetrics.cacheMisses)

	writeHeader(&b, "weather_service_calls_total", "Total weather service calls", "counter")
	for _, service := range sortedKeys(h.appMetrics.weatherServiceCalls) {
		fmt.Fprintf(&b, "weather_service_calls_total{service=%q} %d\n", service, h.appMetrics.weatherServiceCalls[service])
	}

	writeHeader(&b, "weather_service_errors_total", "Total weather service errors", "counter")
	for _, service := range sortedKeys(h.appMetrics.weatherServiceErrors) {
		fmt.Fprintf(&b, "weather_service_errors_total{service=%q} %d\n", service, h.appMetrics.weatherServiceErrors[service])
	}

	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
