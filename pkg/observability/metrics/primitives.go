package metrics

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultBuckets are latency buckets in seconds.
var DefaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

type desc struct {
	name string
	help string
	typ  MetricType
}

func (d desc) Name() string     { return d.name }
func (d desc) Help() string     { return d.help }
func (d desc) Type() MetricType { return d.typ }

func (d desc) header(sb *strings.Builder) {
	fmt.Fprintf(sb, "# HELP %s %s\n", d.name, d.help)
	fmt.Fprintf(sb, "# TYPE %s %s\n", d.name, d.typ)
}

// sampler writes the sample lines of one labelled series.
type sampler interface {
	sample(sb *strings.Builder)
}

type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *atomicFloat) Add(v float64) {
	for {
		old := f.bits.Load()
		if f.bits.CompareAndSwap(old, math.Float64bits(math.Float64frombits(old)+v)) {
			return
		}
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// formatLabels renders labels as {k="v",...} sorted by key.
func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf(`%s="%s"`, k, labelEscaper.Replace(labels[k]))
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

// withLabel prepends pair to an already formatted label set.
func withLabel(labels, pair string) string {
	if labels == "" {
		return "{" + pair + "}"
	}
	return "{" + pair + "," + labels[1:]
}

// --- Counter ---

type counter struct {
	desc
	labels string
	val    atomicFloat
}

// NewCounter creates a Counter.
func NewCounter(name, help string) Counter {
	return newCounter(name, help, "")
}

func newCounter(name, help, labels string) *counter {
	return &counter{desc: desc{name: name, help: help, typ: TypeCounter}, labels: labels}
}

func (c *counter) Inc() { c.val.Add(1) }

// Add ignores negative values.
func (c *counter) Add(v float64) {
	if v < 0 {
		return
	}
	c.val.Add(v)
}

func (c *counter) Get() float64 { return c.val.Load() }

func (c *counter) sample(sb *strings.Builder) {
	fmt.Fprintf(sb, "%s%s %s\n", c.name, c.labels, formatValue(c.Get()))
}

func (c *counter) Describe() string {
	var sb strings.Builder
	c.header(&sb)
	c.sample(&sb)
	return sb.String()
}

// --- Gauge ---

type gauge struct {
	desc
	labels string
	val    atomicFloat
}

// NewGauge creates a Gauge.
func NewGauge(name, help string) Gauge {
	return newGauge(name, help, "")
}

func newGauge(name, help, labels string) *gauge {
	return &gauge{desc: desc{name: name, help: help, typ: TypeGauge}, labels: labels}
}

func (g *gauge) Set(v float64) { g.val.Store(v) }
func (g *gauge) Inc()          { g.val.Add(1) }
func (g *gauge) Dec()          { g.val.Add(-1) }
func (g *gauge) Add(v float64) { g.val.Add(v) }
func (g *gauge) Get() float64  { return g.val.Load() }

func (g *gauge) sample(sb *strings.Builder) {
	fmt.Fprintf(sb, "%s%s %s\n", g.name, g.labels, formatValue(g.Get()))
}

func (g *gauge) Describe() string {
	var sb strings.Builder
	g.header(&sb)
	g.sample(&sb)
	return sb.String()
}

// --- Histogram ---

// histogram guards its counters with one mutex so an export never sees a
// bucket ahead of the total count.
type histogram struct {
	desc
	labels  string
	buckets []float64

	mu     sync.Mutex
	counts []uint64
	sum    float64
	count  uint64
}

// NewHistogram creates a Histogram. Nil buckets select DefaultBuckets.
func NewHistogram(name, help string, buckets []float64) Histogram {
	return newHistogram(name, help, "", buckets)
}

func newHistogram(name, help, labels string, buckets []float64) *histogram {
	if len(buckets) == 0 {
		buckets = DefaultBuckets
	}
	buckets = slices.Clone(buckets)
	sort.Float64s(buckets)
	return &histogram{
		desc:    desc{name: name, help: help, typ: TypeHistogram},
		labels:  labels,
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, upper := range h.buckets {
		if v <= upper {
			h.counts[i]++
		}
	}
	h.sum += v
	h.count++
}

func (h *histogram) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}

func (h *histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func (h *histogram) snapshot() (counts []uint64, sum float64, count uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.counts), h.sum, h.count
}

func (h *histogram) sample(sb *strings.Builder) {
	counts, sum, count := h.snapshot()
	for i, upper := range h.buckets {
		le := withLabel(h.labels, fmt.Sprintf(`le="%s"`, formatValue(upper)))
		fmt.Fprintf(sb, "%s_bucket%s %d\n", h.name, le, counts[i])
	}
	fmt.Fprintf(sb, "%s_bucket%s %d\n", h.name, withLabel(h.labels, `le="+Inf"`), count)
	fmt.Fprintf(sb, "%s_sum%s %s\n", h.name, h.labels, formatValue(sum))
	fmt.Fprintf(sb, "%s_count%s %d\n", h.name, h.labels, count)
}

func (h *histogram) Describe() string {
	var sb strings.Builder
	h.header(&sb)
	h.sample(&sb)
	return sb.String()
}

// --- Vectors ---

type vec[T sampler] struct {
	desc
	mu       sync.RWMutex
	children map[string]T
	newChild func(labels string) T
}

func newVec[T sampler](d desc, newChild func(labels string) T) *vec[T] {
	return &vec[T]{desc: d, children: make(map[string]T), newChild: newChild}
}

func (v *vec[T]) with(labels map[string]string) T {
	key := formatLabels(labels)

	v.mu.RLock()
	child, ok := v.children[key]
	v.mu.RUnlock()
	if ok {
		return child
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if child, ok = v.children[key]; ok {
		return child
	}
	child = v.newChild(key)
	v.children[key] = child
	return child
}

func (v *vec[T]) Describe() string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var sb strings.Builder
	v.header(&sb)
	keys := make([]string, 0, len(v.children))
	for k := range v.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.children[k].sample(&sb)
	}
	return sb.String()
}

type counterVec struct {
	*vec[*counter]
}

// NewCounterVec creates a CounterVec.
func NewCounterVec(name, help string) CounterVec {
	return counterVec{newVec(desc{name: name, help: help, typ: TypeCounter}, func(labels string) *counter {
		return newCounter(name, help, labels)
	})}
}

func (v counterVec) With(labels map[string]string) Counter      { return v.with(labels) }
func (v counterVec) WithLabels(labels map[string]string) Metric { return v.with(labels) }

type gaugeVec struct {
	*vec[*gauge]
}

// NewGaugeVec creates a GaugeVec.
func NewGaugeVec(name, help string) GaugeVec {
	return gaugeVec{newVec(desc{name: name, help: help, typ: TypeGauge}, func(labels string) *gauge {
		return newGauge(name, help, labels)
	})}
}

func (v gaugeVec) With(labels map[string]string) Gauge        { return v.with(labels) }
func (v gaugeVec) WithLabels(labels map[string]string) Metric { return v.with(labels) }

type histogramVec struct {
	*vec[*histogram]
}

// NewHistogramVec creates a HistogramVec sharing one bucket layout.
func NewHistogramVec(name, help string, buckets []float64) HistogramVec {
	return histogramVec{newVec(desc{name: name, help: help, typ: TypeHistogram}, func(labels string) *histogram {
		return newHistogram(name, help, labels, buckets)
	})}
}

func (v histogramVec) With(labels map[string]string) Histogram    { return v.with(labels) }
func (v histogramVec) WithLabels(labels map[string]string) Metric { return v.with(labels) }
