// Copyright 2025 Joseph Cumines
//
// Metrics registry for observability

package transport

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// MetricsRegistry provides thread-safe metrics collection for the gateway.
// It tracks request counts, latencies, connection outcomes, and in-flight
// requests using in-memory counters exported in Prometheus text format
// through GET /metrics. The registry is owned by whoever constructs the
// server; there is no package-level instance.
type MetricsRegistry struct {
	counters   map[string]*counter
	histograms map[string]*histogram
	gauges     map[string]*gauge
	mu         sync.RWMutex
}

// counter represents a monotonically increasing counter with optional labels.
type counter struct {
	values map[string]uint64 // label combo -> count
	mu     sync.RWMutex
}

// histogram represents a distribution of values with predefined buckets.
type histogram struct {
	counts  map[string][]uint64 // label combo -> bucket counts
	sums    map[string]float64  // label combo -> sum of all values
	totals  map[string]uint64   // label combo -> total count
	buckets []float64           // bucket upper bounds
	mu      sync.RWMutex
}

// gauge represents a value that can go up or down.
type gauge struct {
	values map[string]float64
	mu     sync.RWMutex
}

// Default histogram buckets for request latencies (in seconds). Captures
// and bursts land in the right half; pure queries in the left.
var defaultLatencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0,
}

// NewMetricsRegistry creates a registry with the gateway's standard
// metrics registered.
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
		gauges:     make(map[string]*gauge),
	}

	m.registerCounter("screenpilot_requests_total")
	m.registerCounter("screenpilot_connections_total")
	m.registerCounter("screenpilot_tool_calls_total")
	m.registerHistogram("screenpilot_request_duration_seconds", defaultLatencyBuckets)
	m.registerGauge("screenpilot_inflight_requests")

	return m
}

func (m *MetricsRegistry) registerCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] = &counter{values: make(map[string]uint64)}
}

func (m *MetricsRegistry) registerHistogram(name string, buckets []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms[name] = &histogram{
		buckets: buckets,
		counts:  make(map[string][]uint64),
		sums:    make(map[string]float64),
		totals:  make(map[string]uint64),
	}
}

func (m *MetricsRegistry) registerGauge(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = &gauge{values: make(map[string]float64)}
}

// IncrementCounter increments a counter by 1 for the given label combination.
// Labels should be formatted as: key1="value1",key2="value2"
func (m *MetricsRegistry) IncrementCounter(name string, labels string) {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if !ok {
		return
	}

	c.mu.Lock()
	c.values[labels]++
	c.mu.Unlock()
}

// ObserveHistogram records a value in a histogram for the given label combination.
func (m *MetricsRegistry) ObserveHistogram(name string, labels string, value float64) {
	m.mu.RLock()
	h, ok := m.histograms[name]
	m.mu.RUnlock()
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.counts[labels]; !exists {
		h.counts[labels] = make([]uint64, len(h.buckets)+1) // +1 for +Inf
		h.sums[labels] = 0
		h.totals[labels] = 0
	}

	h.sums[labels] += value
	h.totals[labels]++

	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[labels][i]++
			return
		}
	}
	// Beyond the last bound: overflow bucket only.
	h.counts[labels][len(h.buckets)]++
}

// AddGauge adjusts a gauge by delta.
func (m *MetricsRegistry) AddGauge(name string, labels string, delta float64) {
	m.mu.RLock()
	g, ok := m.gauges[name]
	m.mu.RUnlock()
	if !ok {
		return
	}

	g.mu.Lock()
	g.values[labels] += delta
	g.mu.Unlock()
}

// RecordRequest records one served request: count by route and status,
// latency by route.
func (m *MetricsRegistry) RecordRequest(method, path string, status int, duration time.Duration) {
	labels := fmt.Sprintf(`method=%q,path=%q,status="%d"`, method, path, status)
	m.IncrementCounter("screenpilot_requests_total", labels)

	pathLabels := fmt.Sprintf(`path=%q`, path)
	m.ObserveHistogram("screenpilot_request_duration_seconds", pathLabels, duration.Seconds())
}

// RecordConn records a connection that never reached a handler: outcome is
// "rejected" (non-loopback peer) or "dropped" (framing violation or write
// failure).
func (m *MetricsRegistry) RecordConn(outcome string) {
	m.IncrementCounter("screenpilot_connections_total", fmt.Sprintf(`outcome=%q`, outcome))
}

// RecordToolCall records one JSON-RPC tool invocation by name and outcome.
func (m *MetricsRegistry) RecordToolCall(tool string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.IncrementCounter("screenpilot_tool_calls_total", fmt.Sprintf(`tool=%q,status=%q`, tool, status))
}

// AddInflight adjusts the in-flight request gauge.
func (m *MetricsRegistry) AddInflight(delta int) {
	m.AddGauge("screenpilot_inflight_requests", "", float64(delta))
}

// WritePrometheus writes all metrics in Prometheus text format to w.
func (m *MetricsRegistry) WritePrometheus(w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ew := &errWriter{w: w}

	for _, name := range sortedKeys(m.counters) {
		c := m.counters[name]
		c.mu.RLock()
		ew.printf("# TYPE %s counter\n", name)
		for _, l := range sortedKeys(c.values) {
			if l == "" {
				ew.printf("%s %d\n", name, c.values[l])
			} else {
				ew.printf("%s{%s} %d\n", name, l, c.values[l])
			}
		}
		c.mu.RUnlock()
	}

	for _, name := range sortedKeys(m.gauges) {
		g := m.gauges[name]
		g.mu.RLock()
		ew.printf("# TYPE %s gauge\n", name)
		for _, l := range sortedKeys(g.values) {
			if l == "" {
				ew.printf("%s %g\n", name, g.values[l])
			} else {
				ew.printf("%s{%s} %g\n", name, l, g.values[l])
			}
		}
		g.mu.RUnlock()
	}

	for _, name := range sortedKeys(m.histograms) {
		h := m.histograms[name]
		h.mu.RLock()
		ew.printf("# TYPE %s histogram\n", name)
		for _, l := range sortedKeys(h.counts) {
			counts := h.counts[l]
			labelPrefix := ""
			if l != "" {
				labelPrefix = l + ","
			}

			var cumulative uint64
			for i, bound := range h.buckets {
				cumulative += counts[i]
				ew.printf("%s_bucket{%sle=\"%g\"} %d\n", name, labelPrefix, bound, cumulative)
			}
			cumulative += counts[len(h.buckets)]
			ew.printf("%s_bucket{%sle=\"+Inf\"} %d\n", name, labelPrefix, cumulative)

			if l == "" {
				ew.printf("%s_sum %g\n", name, h.sums[l])
				ew.printf("%s_count %d\n", name, h.totals[l])
			} else {
				ew.printf("%s_sum{%s} %g\n", name, l, h.sums[l])
				ew.printf("%s_count{%s} %d\n", name, l, h.totals[l])
			}
		}
		h.mu.RUnlock()
	}

	return ew.err
}

// errWriter remembers the first write failure so the export loops stay
// readable.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
