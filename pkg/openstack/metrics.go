package openstack

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"
)

const sentAtKey = "ostack.sent_at"

// Metrics summarizes the calls made to one service.
type Metrics struct {
	Requests int64
	// Errors counts transport failures and 4xx/5xx responses.
	Errors int64
	// Throttled counts 429 and 503 responses, the statuses OpenStack rate
	// limiters answer with.
	Throttled      int64
	TotalLatency   time.Duration
	AverageLatency time.Duration
	LastRequest    time.Time
}

// MetricsCollector aggregates Metrics per service type. It is fed by the
// interceptors from Interceptors.
type MetricsCollector struct {
	mu       sync.Mutex
	services map[string]*Metrics
	onChange func(service string, metrics Metrics)
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{services: make(map[string]*Metrics)}
}

// SetOnChange registers fn to receive a snapshot after every recorded
// call. fn runs outside the collector's lock.
func (m *MetricsCollector) SetOnChange(fn func(service string, metrics Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onChange = fn
}

// GetMetrics returns a snapshot for service, or false if it was never
// called.
func (m *MetricsCollector) GetMetrics(service string) (Metrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics, ok := m.services[service]
	if !ok {
		return Metrics{}, false
	}

	return *metrics, true
}

// Services lists the services called so far in sorted order.
func (m *MetricsCollector) Services() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.services))
	for name := range m.services {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Interceptors returns the pair that times each request and records its
// outcome.
func (m *MetricsCollector) Interceptors() (RequestInterceptor, ResponseInterceptor) {
	before := func(_ context.Context, req *Request) error {
		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata[sentAtKey] = time.Now()

		return nil
	}

	after := func(_ context.Context, req *Request, resp *Response) error {
		var latency time.Duration
		if sent, ok := req.Metadata[sentAtKey].(time.Time); ok {
			latency = time.Since(sent)
		}

		m.record(string(req.Service), latency, resp)

		return nil
	}

	return before, after
}

func (m *MetricsCollector) record(service string, latency time.Duration, resp *Response) {
	m.mu.Lock()

	metrics, ok := m.services[service]
	if !ok {
		metrics = &Metrics{}
		m.services[service] = metrics
	}

	metrics.Requests++
	metrics.LastRequest = time.Now()
	metrics.TotalLatency += latency
	metrics.AverageLatency = metrics.TotalLatency / time.Duration(metrics.Requests)

	switch {
	case resp.Error != nil:
		metrics.Errors++
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusServiceUnavailable:
		metrics.Errors++
		metrics.Throttled++
	case resp.StatusCode >= http.StatusBadRequest:
		metrics.Errors++
	}

	snapshot := *metrics
	onChange := m.onChange

	m.mu.Unlock()

	if onChange != nil {
		onChange(service, snapshot)
	}
}
