// Package metrics records per-trial series of a search and exports them to Prometheus.
package metrics

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/utils"
)

// Point is one recorded value
type Point struct {
	Timestamp time.Time         `json:"timestamp"`
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// Collector keeps the time series of a process's searches in memory and mirrors
// trial outcomes into a Prometheus registry
type Collector struct {
	mu sync.RWMutex

	startTime time.Time
	endTime   time.Time

	// metric name -> label key -> points
	timeSeries map[string]map[string][]*Point
	// label key -> best raw objective so far
	best map[string]float64

	registry *prometheus.Registry
	trials   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	bestObj  *prometheus.GaugeVec
	replay   *prometheus.GaugeVec
}

// NewCollector creates a collector with its own Prometheus registry
func NewCollector() *Collector {
	c := &Collector{
		startTime:  time.Now(),
		timeSeries: make(map[string]map[string][]*Point),
		best:       make(map[string]float64),
		registry:   prometheus.NewRegistry(),
		trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simopt",
			Name:      "trials_total",
			Help:      "Oracle evaluations performed by searches.",
		}, []string{LabelStrategy, LabelOutcome}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "simopt",
			Name:      "evaluate_duration_seconds",
			Help:      "Wall time of one oracle evaluation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{LabelStrategy}),
		bestObj: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "simopt",
			Name:      "best_objective",
			Help:      "Best raw objective value observed by the current search.",
		}, []string{LabelStrategy}),
		replay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "simopt",
			Name:      "replay_objective",
			Help:      "Objective value of the final inspecting evaluation.",
		}, []string{LabelStrategy}),
	}
	c.registry.MustRegister(c.trials, c.duration, c.bestObj, c.replay)
	return c
}

// Registry returns the Prometheus registry the collector exports to
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Start marks the start of metric collection
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
}

// Stop marks the end of metric collection
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endTime = time.Now()
}

// Elapsed returns the time between Start and Stop, or since Start while running
func (c *Collector) Elapsed() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.endTime.IsZero() {
		return time.Since(c.startTime)
	}
	return c.endTime.Sub(c.startTime)
}

// Record records a metric value at a specific timestamp
func (c *Collector) Record(name string, value float64, timestamp time.Time, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordUnsafe(name, value, timestamp, labels)
}

func (c *Collector) recordUnsafe(name string, value float64, timestamp time.Time, labels map[string]string) {
	key := labelKey(labels)
	if c.timeSeries[name] == nil {
		c.timeSeries[name] = make(map[string][]*Point)
	}
	c.timeSeries[name][key] = append(c.timeSeries[name][key], &Point{
		Timestamp: timestamp,
		Name:      name,
		Value:     value,
		Labels:    copyLabels(labels),
	})
}

// RecordNow records a metric value at the current time
func (c *Collector) RecordNow(name string, value float64, labels map[string]string) {
	c.Record(name, value, time.Now(), labels)
}

// RecordTrial records a successful evaluation: its raw value, duration and the
// best-so-far value for the label set
func (c *Collector) RecordTrial(raw float64, d time.Duration, labels map[string]string) {
	strategy := labels[LabelStrategy]
	now := time.Now()

	c.mu.Lock()
	key := labelKey(labels)
	best, seen := c.best[key]
	if !seen || raw > best {
		best = raw
		c.best[key] = raw
	}
	c.recordUnsafe(MetricTrialRaw, raw, now, labels)
	c.recordUnsafe(MetricBestSoFar, best, now, labels)
	c.recordUnsafe(MetricEvaluateMs, utils.TimeToMs(d), now, labels)
	c.mu.Unlock()

	c.trials.WithLabelValues(strategy, OutcomeOK).Inc()
	c.duration.WithLabelValues(strategy).Observe(d.Seconds())
	c.bestObj.WithLabelValues(strategy).Set(best)
}

// RecordFailure counts a failed evaluation
func (c *Collector) RecordFailure(d time.Duration, labels map[string]string) {
	strategy := labels[LabelStrategy]
	c.RecordNow(MetricTrialErrors, 1, labels)
	c.trials.WithLabelValues(strategy, OutcomeError).Inc()
	c.duration.WithLabelValues(strategy).Observe(d.Seconds())
}

// RecordReplay records the value of the inspecting evaluation
func (c *Collector) RecordReplay(value float64, labels map[string]string) {
	c.RecordNow(MetricReplay, value, labels)
	c.replay.WithLabelValues(labels[LabelStrategy]).Set(value)
}

// GetTimeSeries returns a copy of all points for a metric
func (c *Collector) GetTimeSeries(name string, labels map[string]string) []*Point {
	c.mu.RLock()
	defer c.mu.RUnlock()

	points := c.timeSeries[name][labelKey(labels)]
	if points == nil {
		return nil
	}
	result := make([]*Point, len(points))
	for i, p := range points {
		result[i] = &Point{
			Timestamp: p.Timestamp,
			Name:      p.Name,
			Value:     p.Value,
			Labels:    copyLabels(p.Labels),
		}
	}
	return result
}

// Values returns the values of a series in record order
func (c *Collector) Values(name string, labels map[string]string) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	points := c.timeSeries[name][labelKey(labels)]
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

// GetAggregation returns aggregated statistics for a metric, nil when empty
func (c *Collector) GetAggregation(name string, labels map[string]string) *Aggregation {
	return calculateAggregation(c.Values(name, labels))
}

// GetMetricNames returns all recorded metric names
func (c *Collector) GetMetricNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.timeSeries))
	for name := range c.timeSeries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetLabelsForMetric returns every label set recorded for a metric
func (c *Collector) GetLabelsForMetric(name string) []map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.timeSeries[name]))
	for key := range c.timeSeries[name] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]map[string]string, 0, len(keys))
	for _, key := range keys {
		if pts := c.timeSeries[name][key]; len(pts) > 0 {
			out = append(out, copyLabels(pts[0].Labels))
		}
	}
	return out
}

// Clear drops all in-memory series; Prometheus counters keep their totals
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeSeries = make(map[string]map[string][]*Point)
	c.best = make(map[string]float64)
}

// labelKey creates a key from labels for map lookup
func labelKey(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
		b.WriteByte(',')
	}
	return b.String()
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}
