// Copyright 2025 Minseo Park
//
// Metrics registry for observability

package transport

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MetricsRegistry collects request counters, latencies, and connection
// gauges for the MCP server and exports them in Prometheus text format.
// All methods are safe for concurrent use.
type MetricsRegistry struct {
	mu         sync.RWMutex
	counters   map[string]map[string]uint64
	gauges     map[string]map[string]float64
	histograms map[string]*histogram
}

// histogram tracks a latency distribution against fixed bucket bounds.
type histogram struct {
	buckets []float64
	counts  map[string][]uint64
	sums    map[string]float64
	totals  map[string]uint64
}

// latencyBuckets are the upper bounds, in seconds, for request duration
// histograms. Tool calls that drive the UI routinely take seconds, so the
// range extends well past typical HTTP latencies.
var latencyBuckets = []float64{
	0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300, 1200,
}

// NewMetricsRegistry creates a registry with the standard MCP metrics
// pre-registered.
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		counters:   make(map[string]map[string]uint64),
		gauges:     make(map[string]map[string]float64),
		histograms: make(map[string]*histogram),
	}

	m.counters["chatgpt_mcp_requests_total"] = make(map[string]uint64)
	m.counters["chatgpt_mcp_sse_events_sent_total"] = make(map[string]uint64)
	m.gauges["chatgpt_mcp_sse_connections_active"] = make(map[string]float64)
	m.histograms["chatgpt_mcp_request_duration_seconds"] = &histogram{
		buckets: latencyBuckets,
		counts:  make(map[string][]uint64),
		sums:    make(map[string]float64),
		totals:  make(map[string]uint64),
	}

	return m
}

// IncCounter increments a counter by one for the given label set.
// Unregistered names are ignored.
func (m *MetricsRegistry) IncCounter(name string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[name]
	if !ok {
		return
	}
	c[labelKey(labels)]++
}

// SetGauge sets a gauge value for the given label set.
func (m *MetricsRegistry) SetGauge(name string, labels map[string]string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.gauges[name]
	if !ok {
		return
	}
	g[labelKey(labels)] = value
}

// ObserveHistogram records one observation for the given label set.
func (m *MetricsRegistry) ObserveHistogram(name string, labels map[string]string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.histograms[name]
	if !ok {
		return
	}
	key := labelKey(labels)
	if _, ok := h.counts[key]; !ok {
		h.counts[key] = make([]uint64, len(h.buckets))
	}
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[key][i]++
		}
	}
	h.sums[key] += value
	h.totals[key]++
}

// CounterValue returns a counter's current value for the given label set.
func (m *MetricsRegistry) CounterValue(name string, labels map[string]string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[name][labelKey(labels)]
}

// GaugeValue returns a gauge's current value for the given label set.
func (m *MetricsRegistry) GaugeValue(name string, labels map[string]string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[name][labelKey(labels)]
}

// WritePrometheus writes every metric in Prometheus text format, with
// metric names and label sets in sorted order for deterministic output.
func (m *MetricsRegistry) WritePrometheus(w io.Writer) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, name := range sortedKeys(m.counters) {
		fmt.Fprintf(w, "# TYPE %s counter\n", name)
		series := m.counters[name]
		for _, key := range sortedKeys(series) {
			fmt.Fprintf(w, "%s%s %d\n", name, key, series[key])
		}
	}

	for _, name := range sortedKeys(m.gauges) {
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
		series := m.gauges[name]
		for _, key := range sortedKeys(series) {
			fmt.Fprintf(w, "%s%s %g\n", name, key, series[key])
		}
	}

	for _, name := range sortedKeys(m.histograms) {
		h := m.histograms[name]
		fmt.Fprintf(w, "# TYPE %s histogram\n", name)
		for _, key := range sortedKeys(h.totals) {
			// Bucket counts are stored cumulatively.
			for i, bound := range h.buckets {
				fmt.Fprintf(w, "%s_bucket%s %d\n", name, bucketKey(key, fmt.Sprintf("%g", bound)), h.counts[key][i])
			}
			fmt.Fprintf(w, "%s_bucket%s %d\n", name, bucketKey(key, "+Inf"), h.totals[key])
			fmt.Fprintf(w, "%s_sum%s %g\n", name, key, h.sums[key])
			fmt.Fprintf(w, "%s_count%s %d\n", name, key, h.totals[key])
		}
	}
}

// labelKey renders a label set as a sorted, Prometheus-style label block,
// or "" for no labels.
func labelKey(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// bucketKey merges the "le" label into an existing label block.
func bucketKey(key, le string) string {
	if key == "" {
		return fmt.Sprintf(`{le=%q}`, le)
	}
	return strings.TrimSuffix(key, "}") + fmt.Sprintf(`,le=%q}`, le)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
