// Package profiler - Operation timing and metric statistics for locator runs.
package profiler

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/nvr-ai/go-subject/logger"
)

// DefaultMaxSamples bounds the rolling window kept per operation and metric.
const DefaultMaxSamples = 600

// Profiler tracks operation durations and custom metric values.
//
// Min and max cover every recorded sample; the mean covers the rolling window of the
// most recent samples. It is safe for concurrent use.
type Profiler struct {
	mu         sync.Mutex
	startTime  time.Time
	maxSamples int

	metrics    map[string]*metricTracker
	operations map[string]*timeTracker
}

type metricTracker struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

type timeTracker struct {
	durations []time.Duration
	total     time.Duration
	min       time.Duration
	max       time.Duration
	count     int64
}

// OperationStats summarizes the timings of one operation.
type OperationStats struct {
	Count int64         `json:"count"`
	Mean  time.Duration `json:"mean"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
}

// MetricStats summarizes the values of one metric.
type MetricStats struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Snapshot is a point-in-time copy of the profiler state.
type Snapshot struct {
	Uptime     time.Duration             `json:"uptime"`
	Goroutines int                       `json:"goroutines"`
	HeapAlloc  uint64                    `json:"heap_alloc"`
	Operations map[string]OperationStats `json:"operations"`
	Metrics    map[string]MetricStats    `json:"metrics"`
}

// New creates a profiler that keeps at most maxSamples samples per series. A value of
// zero or less uses DefaultMaxSamples.
func New(maxSamples int) *Profiler {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &Profiler{
		startTime:  time.Now(),
		maxSamples: maxSamples,
		metrics:    make(map[string]*metricTracker),
		operations: make(map[string]*timeTracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
//   - name: The name of the operation to track.
//
// Returns:
//   - func(): Call when the operation completes.
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.RecordDuration(name, time.Since(start))
	}
}

// RecordDuration records the completion time of an operation.
func (p *Profiler) RecordDuration(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operations[name]
	if !exists {
		tracker = &timeTracker{min: d, max: d}
		p.operations[name] = tracker
	}

	tracker.durations = append(tracker.durations, d)
	tracker.total += d
	if len(tracker.durations) > p.maxSamples {
		tracker.total -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}
	tracker.count++
	tracker.min = min(tracker.min, d)
	tracker.max = max(tracker.max, d)
}

// RecordMetric records a custom metric value.
//
// Arguments:
//   - name: The name of the metric.
//   - value: The metric value to record.
func (p *Profiler) RecordMetric(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.metrics[name]
	if !exists {
		tracker = &metricTracker{min: value, max: value}
		p.metrics[name] = tracker
	}

	tracker.values = append(tracker.values, value)
	tracker.sum += value
	if len(tracker.values) > p.maxSamples {
		tracker.sum -= tracker.values[0]
		tracker.values = tracker.values[1:]
	}
	tracker.count++
	tracker.min = min(tracker.min, value)
	tracker.max = max(tracker.max, value)
}

// Snapshot returns the current statistics.
func (p *Profiler) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	snap := Snapshot{
		Uptime:     time.Since(p.startTime),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		Operations: make(map[string]OperationStats, len(p.operations)),
		Metrics:    make(map[string]MetricStats, len(p.metrics)),
	}
	for name, t := range p.operations {
		snap.Operations[name] = OperationStats{
			Count: t.count,
			Mean:  t.total / time.Duration(len(t.durations)),
			Min:   t.min,
			Max:   t.max,
		}
	}
	for name, m := range p.metrics {
		snap.Metrics[name] = MetricStats{
			Count: m.count,
			Mean:  m.sum / float64(len(m.values)),
			Min:   m.min,
			Max:   m.max,
		}
	}
	return snap
}

// Log writes one entry per operation and metric, sorted by name.
func (p *Profiler) Log(log *logger.Logger) {
	snap := p.Snapshot()

	for _, name := range sortedKeys(snap.Operations) {
		s := snap.Operations[name]
		log.Info("operation timing",
			"operation", name,
			"count", s.Count,
			"mean", s.Mean,
			"min", s.Min,
			"max", s.Max,
		)
	}
	for _, name := range sortedKeys(snap.Metrics) {
		s := snap.Metrics[name]
		log.Info("metric",
			"metric", name,
			"count", s.Count,
			"mean", s.Mean,
			"min", s.Min,
			"max", s.Max,
		)
	}
	log.Debug("runtime",
		"uptime", snap.Uptime,
		"goroutines", snap.Goroutines,
		"heap_alloc", snap.HeapAlloc,
	)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
