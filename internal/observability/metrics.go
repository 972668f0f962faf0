package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	slaBreaches  int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordSlaBreach counts breach alerts raised by the monitor.
func (m *Metrics) RecordSlaBreach() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slaBreaches++
}

// SlaBreaches returns the breach alert count.
func (m *Metrics) SlaBreaches() int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slaBreaches
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}

// RequestLogger logs each request with latency and records counters.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		status := c.Response().StatusCode()
		metrics.RecordRequest(c.Path(), c.Method(), status, duration)
		logger.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration))
		return err
	}
}
