// Package metrics 提供问答服务的业务指标，以 Prometheus 文本格式导出。
package metrics

import (
	"time"

	"github.com/kart-io/sentinel-ask/pkg/observability/metrics"
)

// Namespace 指标名前缀。
const Namespace = "sentinel_ask"

// Outcome 问答请求的最终结果分类。
type Outcome int

const (
	OutcomeAnswered Outcome = iota
	OutcomeRejected
	OutcomeCorpusUnavailable
	OutcomeEmbeddingFailed
	OutcomeDimensionMismatch
	OutcomeCompletionFailed
	OutcomeInternal
)

var outcomeNames = [...]string{
	OutcomeAnswered:          "answered",
	OutcomeRejected:          "rejected",
	OutcomeCorpusUnavailable: "corpus_unavailable",
	OutcomeEmbeddingFailed:   "embedding_failed",
	OutcomeDimensionMismatch: "dimension_mismatch",
	OutcomeCompletionFailed:  "completion_failed",
	OutcomeInternal:          "internal",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return outcomeNames[OutcomeInternal]
	}
	return outcomeNames[o]
}

// AskMetrics 问答服务业务指标，所有方法并发安全。
type AskMetrics struct {
	registry *metrics.Registry

	questions metrics.CounterVec

	embedDuration metrics.Histogram
	embedErrors   metrics.Counter

	llmDuration metrics.Histogram
	llmErrors   metrics.Counter
	llmFallback metrics.Counter

	corpusLoads metrics.CounterVec

	startTime time.Time
}

// New 创建指标收集器，并注册到一个新的 Registry。
func New() *AskMetrics {
	return NewWithRegistry(metrics.NewRegistry())
}

// NewWithRegistry 创建指标收集器并注册到 reg。同一 reg 只能注册一次。
func NewWithRegistry(reg *metrics.Registry) *AskMetrics {
	m := &AskMetrics{
		registry: reg,
		questions: metrics.NewCounterVec(Namespace+"_questions_total",
			"Questions handled, by outcome."),
		embedDuration: metrics.NewHistogram(Namespace+"_embedding_duration_seconds",
			"Embedding provider call duration in seconds.", nil),
		embedErrors: metrics.NewCounter(Namespace+"_embedding_errors_total",
			"Failed embedding provider calls."),
		llmDuration: metrics.NewHistogram(Namespace+"_completion_duration_seconds",
			"Completion provider call duration in seconds.", nil),
		llmErrors: metrics.NewCounter(Namespace+"_completion_errors_total",
			"Failed completion provider calls."),
		llmFallback: metrics.NewCounter(Namespace+"_completion_fallbacks_total",
			"Completions that returned no content and used the fallback answer."),
		corpusLoads: metrics.NewCounterVec(Namespace+"_corpus_loads_total",
			"Corpus source reads, by result."),
		startTime: time.Now(),
	}

	start := metrics.NewGauge(Namespace+"_start_time_seconds", "Process start time in unix seconds.")
	start.Set(float64(m.startTime.Unix()))

	reg.MustRegister(m.questions, m.embedDuration, m.embedErrors,
		m.llmDuration, m.llmErrors, m.llmFallback, m.corpusLoads, start)
	return m
}

// Registry 返回指标所在的 Registry。
func (m *AskMetrics) Registry() *metrics.Registry {
	return m.registry
}

// RecordQuestion 记录一次问答请求及其结果。
func (m *AskMetrics) RecordQuestion(outcome Outcome) {
	m.questions.With(map[string]string{"outcome": outcome.String()}).Inc()
}

// RecordEmbedding 记录一次向量服务调用。
func (m *AskMetrics) RecordEmbedding(d time.Duration, err error) {
	m.embedDuration.Observe(d.Seconds())
	if err != nil {
		m.embedErrors.Inc()
	}
}

// RecordCompletion 记录一次对话模型调用，fallback 表示模型返回了空内容。
func (m *AskMetrics) RecordCompletion(d time.Duration, fallback bool, err error) {
	m.llmDuration.Observe(d.Seconds())
	if err != nil {
		m.llmErrors.Inc()
		return
	}
	if fallback {
		m.llmFallback.Inc()
	}
}

// RecordCorpusLoad 记录一次语料库源读取。
func (m *AskMetrics) RecordCorpusLoad(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.corpusLoads.With(map[string]string{"result": result}).Inc()
}

// Snapshot 指标快照。
type Snapshot struct {
	UptimeSeconds float64 `json:"uptime_seconds"`

	QuestionsTotal    uint64 `json:"questions_total"`
	Answered          uint64 `json:"answered"`
	Rejected          uint64 `json:"rejected"`
	CorpusUnavailable uint64 `json:"corpus_unavailable"`
	EmbeddingFailed   uint64 `json:"embedding_failed"`
	DimensionMismatch uint64 `json:"dimension_mismatch"`
	CompletionFailed  uint64 `json:"completion_failed"`
	Internal          uint64 `json:"internal"`

	EmbeddingCalls      uint64  `json:"embedding_calls"`
	EmbeddingErrors     uint64  `json:"embedding_errors"`
	EmbeddingAvgSeconds float64 `json:"embedding_avg_seconds"`

	CompletionCalls      uint64  `json:"completion_calls"`
	CompletionErrors     uint64  `json:"completion_errors"`
	CompletionFallbacks  uint64  `json:"completion_fallbacks"`
	CompletionAvgSeconds float64 `json:"completion_avg_seconds"`

	CorpusLoads  uint64 `json:"corpus_loads"`
	CorpusErrors uint64 `json:"corpus_errors"`
}

// Snapshot 返回当前指标快照。
func (m *AskMetrics) Snapshot() Snapshot {
	s := Snapshot{
		UptimeSeconds:       time.Since(m.startTime).Seconds(),
		Answered:            m.outcome(OutcomeAnswered),
		Rejected:            m.outcome(OutcomeRejected),
		CorpusUnavailable:   m.outcome(OutcomeCorpusUnavailable),
		EmbeddingFailed:     m.outcome(OutcomeEmbeddingFailed),
		DimensionMismatch:   m.outcome(OutcomeDimensionMismatch),
		CompletionFailed:    m.outcome(OutcomeCompletionFailed),
		Internal:            m.outcome(OutcomeInternal),
		EmbeddingCalls:      m.embedDuration.Count(),
		EmbeddingErrors:     uint64(m.embedErrors.Get()),
		CompletionCalls:     m.llmDuration.Count(),
		CompletionErrors:    uint64(m.llmErrors.Get()),
		CompletionFallbacks: uint64(m.llmFallback.Get()),
	}
	s.QuestionsTotal = s.Answered + s.Rejected + s.CorpusUnavailable + s.EmbeddingFailed +
		s.DimensionMismatch + s.CompletionFailed + s.Internal

	ok := uint64(m.corpusLoads.With(map[string]string{"result": "ok"}).Get())
	s.CorpusErrors = uint64(m.corpusLoads.With(map[string]string{"result": "error"}).Get())
	s.CorpusLoads = ok + s.CorpusErrors

	s.EmbeddingAvgSeconds = avg(m.embedDuration)
	s.CompletionAvgSeconds = avg(m.llmDuration)
	return s
}

func (m *AskMetrics) outcome(o Outcome) uint64 {
	return uint64(m.questions.With(map[string]string{"outcome": o.String()}).Get())
}

func avg(h metrics.Histogram) float64 {
	n := h.Count()
	if n == 0 {
		return 0
	}
	return h.Sum() / float64(n)
}
