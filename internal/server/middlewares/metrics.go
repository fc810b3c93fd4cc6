package middlewares

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const maxDurations = 1000

// HTTPMetrics counts requests per "METHOD route_status" and keeps the last
// maxDurations latencies.
type HTTPMetrics struct {
	mutex            sync.RWMutex
	requestsTotal    map[string]int64
	requestDurations []float64
	activeRequests   int64
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requestsTotal:    make(map[string]int64),
		requestDurations: make([]float64, 0, maxDurations),
	}
}

func (m *HTTPMetrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.mutex.Lock()
		m.activeRequests++
		m.mutex.Unlock()

		c.Next()

		duration := time.Since(start).Seconds()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		key := c.Request.Method + " " + route + "_" + strconv.Itoa(c.Writer.Status())

		m.mutex.Lock()
		m.requestsTotal[key]++
		m.requestDurations = append(m.requestDurations, duration)
		m.activeRequests--

		if len(m.requestDurations) > maxDurations {
			m.requestDurations = m.requestDurations[len(m.requestDurations)-maxDurations:]
		}
		m.mutex.Unlock()
	}
}

func (m *HTTPMetrics) RequestCounts() map[string]int64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make(map[string]int64, len(m.requestsTotal))
	for k, v := range m.requestsTotal {
		out[k] = v
	}
	return out
}

func (m *HTTPMetrics) AverageDuration() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if len(m.requestDurations) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range m.requestDurations {
		sum += d
	}
	return sum / float64(len(m.requestDurations))
}

func (m *HTTPMetrics) ActiveRequests() int64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.activeRequests
}
