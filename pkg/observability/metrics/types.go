// Package metrics provides in-process metrics rendered in the Prometheus
// text exposition format.
package metrics

// MetricType represents the type of metric.
type MetricType string

// Metric type constants define the supported metric types.
const (
	TypeCounter   MetricType = "counter"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
)

// Metric is the base interface for all metrics.
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	// Describe returns the metric in Prometheus text format.
	Describe() string
}

// Counter is a monotonically increasing value.
type Counter interface {
	Metric
	Inc()
	Add(float64)
	Get() float64
}

// Gauge is a value that can go up and down.
type Gauge interface {
	Metric
	Set(float64)
	Inc()
	Dec()
	Add(float64)
	Get() float64
}

// Histogram samples observations into cumulative buckets.
type Histogram interface {
	Metric
	Observe(float64)
	// Sum returns the sum of all observed values.
	Sum() float64
	// Count returns the number of observations.
	Count() uint64
}

// Vector is a family of metrics sharing a name and differing by labels.
type Vector interface {
	Metric
	WithLabels(labels map[string]string) Metric
}

// CounterVec is a vector of counters.
type CounterVec interface {
	Vector
	With(labels map[string]string) Counter
}

// GaugeVec is a vector of gauges.
type GaugeVec interface {
	Vector
	With(labels map[string]string) Gauge
}

// HistogramVec is a vector of histograms.
type HistogramVec interface {
	Vector
	With(labels map[string]string) Histogram
}
