package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics collects Prometheus-style counters for a transformation run.
// The pipeline records into it from multiple goroutines.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	operationsTotal map[string]int64 // key: operation,status
	filesTotal      map[string]int64 // key: result (changed, skipped, failed, unchanged)

	// Histogram of per-file transformation durations.
	fileDurations *histogram
}

type histogram struct {
	buckets []float64
	counts  []int64
	sum     float64
	count   int64
}

var defaultBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

func newHistogram() *histogram {
	return &histogram{
		buckets: defaultBuckets,
		counts:  make([]int64, len(defaultBuckets)+1), // +1 for +Inf
	}
}

// observe files the value under its first matching bucket; Render
// accumulates across buckets.
func (h *histogram) observe(value float64) {
	h.sum += value
	h.count++
	for i, b := range h.buckets {
		if value <= b {
			h.counts[i]++
			return
		}
	}
	h.counts[len(h.buckets)]++
}

// NewMetrics creates a new Metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		operationsTotal: make(map[string]int64),
		filesTotal:      make(map[string]int64),
		fileDurations:   newHistogram(),
	}
}

// RecordOperation records one operation outcome.
func (m *Metrics) RecordOperation(operation, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s,%s", operation, status)
	m.operationsTotal[key]++
}

// RecordFile records the processing of one POM file.
func (m *Metrics) RecordFile(result string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.filesTotal[result]++
	m.fileDurations.observe(duration.Seconds())
}

// Render serializes the collected metrics in Prometheus text format.
func (m *Metrics) Render() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sb strings.Builder

	sb.WriteString("# HELP pomsmith_operations_total Operation outcomes\n")
	sb.WriteString("# TYPE pomsmith_operations_total counter\n")
	for _, key := range sortedKeys(m.operationsTotal) {
		parts := strings.SplitN(key, ",", 2)
		fmt.Fprintf(&sb, "pomsmith_operations_total{operation=%q,status=%q} %d\n",
			parts[0], parts[1], m.operationsTotal[key])
	}
	sb.WriteString("\n")

	sb.WriteString("# HELP pomsmith_files_total POM files by run result\n")
	sb.WriteString("# TYPE pomsmith_files_total counter\n")
	for _, key := range sortedKeys(m.filesTotal) {
		fmt.Fprintf(&sb, "pomsmith_files_total{result=%q} %d\n", key, m.filesTotal[key])
	}
	sb.WriteString("\n")

	sb.WriteString("# HELP pomsmith_file_duration_seconds Per-file transformation duration\n")
	sb.WriteString("# TYPE pomsmith_file_duration_seconds histogram\n")
	h := m.fileDurations
	cumulative := int64(0)
	for i, b := range h.buckets {
		cumulative += h.counts[i]
		fmt.Fprintf(&sb, "pomsmith_file_duration_seconds_bucket{le=\"%.3g\"} %d\n", b, cumulative)
	}
	cumulative += h.counts[len(h.buckets)]
	fmt.Fprintf(&sb, "pomsmith_file_duration_seconds_bucket{le=\"+Inf\"} %d\n", cumulative)
	fmt.Fprintf(&sb, "pomsmith_file_duration_seconds_sum %.6f\n", h.sum)
	fmt.Fprintf(&sb, "pomsmith_file_duration_seconds_count %d\n", h.count)

	return sb.String()
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
