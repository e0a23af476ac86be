package biz

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/sentinel-ask/internal/ask/metrics"
	"github.com/kart-io/sentinel-ask/internal/ask/store"
	"github.com/kart-io/sentinel-ask/pkg/llm"
	"github.com/kart-io/sentinel-ask/pkg/middleware/common"
	"github.com/kart-io/sentinel-ask/pkg/utils/errors"
)

// DefaultTopK 默认送入提示词的记录数。
const DefaultTopK = 2

// TracerName 流水线 span 使用的 tracer 名称。
const TracerName = "github.com/kart-io/sentinel-ask/internal/ask/biz"

func tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// State 一次提问的最终状态。
type State int

const (
	StateAnswered State = iota
	StateRejected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAnswered:
		return "answered"
	case StateRejected:
		return "rejected"
	default:
		return "failed"
	}
}

// StateOf 将 Ask 的返回错误映射为最终状态。
func StateOf(err error) State {
	switch {
	case err == nil:
		return StateAnswered
	case errors.Is(err, errors.ErrInvalidQuestion):
		return StateRejected
	default:
		return StateFailed
	}
}

// CorpusLoader 提供已加载的语料库。
type CorpusLoader interface {
	Load(ctx context.Context) (*store.Corpus, error)
}

// Answer 问答结果。
type Answer struct {
	Text string
}

// PipelineConfig 流水线配置。
type PipelineConfig struct {
	// TopK 送入提示词的最多记录数。
	TopK int
	// FallbackAnswer 模型返回空内容时的答案。
	FallbackAnswer string
	// Assembler 提示词组装配置。
	Assembler *AssemblerConfig
}

// DefaultPipelineConfig 返回默认配置。
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		TopK:           DefaultTopK,
		FallbackAnswer: DefaultFallbackAnswer,
		Assembler:      DefaultAssemblerConfig(),
	}
}

// Pipeline 问答流水线，可被多个请求并发使用。
type Pipeline struct {
	corpus    CorpusLoader
	embedder  *Embedder
	assembler *Assembler
	completer *Completer
	topK      int
	metrics   *metrics.AskMetrics
}

// NewPipeline 创建问答流水线。
func NewPipeline(
	corpus CorpusLoader,
	embedProvider llm.EmbeddingProvider,
	chatProvider llm.ChatProvider,
	config *PipelineConfig,
	m *metrics.AskMetrics,
) *Pipeline {
	if config == nil {
		config = DefaultPipelineConfig()
	}
	if m == nil {
		m = metrics.New()
	}
	topK := config.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &Pipeline{
		corpus:    corpus,
		embedder:  NewEmbedder(embedProvider, m),
		assembler: NewAssembler(config.Assembler),
		completer: NewCompleter(chatProvider, config.FallbackAnswer, m),
		topK:      topK,
		metrics:   m,
	}
}

// ValidateQuestion 问题必须是合法 UTF-8 且去除空白后非空。
func ValidateQuestion(question string) error {
	if !utf8.ValidString(question) {
		return errors.ErrInvalidQuestion.WithCause(fmt.Errorf("question is not valid UTF-8"))
	}
	if strings.TrimSpace(question) == "" {
		return errors.ErrInvalidQuestion.WithCause(fmt.Errorf("question is empty"))
	}
	return nil
}

// Ask 回答一个问题。
//
// 输入无效时返回 ErrInvalidQuestion，且不会调用任何外部服务。
// 向量化使用去除首尾空白的问题，提示词中保留原文。
// 其余失败分别返回 ErrCorpusUnavailable、ErrEmbeddingProvider、
// ErrDimensionMismatch 或 ErrCompletionProvider；任何一步都不重试。
func (p *Pipeline) Ask(ctx context.Context, question string) (*Answer, error) {
	start := time.Now()
	requestID := common.GetRequestID(ctx)

	ctx, span := tracer().Start(ctx, "Pipeline.Ask")
	defer span.End()
	if requestID != "" {
		span.SetAttributes(attribute.String("request.id", requestID))
	}

	if err := ValidateQuestion(question); err != nil {
		p.metrics.RecordQuestion(metrics.OutcomeRejected)
		span.SetStatus(codes.Error, "question rejected")
		logger.Infow("question rejected", "request_id", requestID, "reason", errors.FromError(err).Cause().Error())
		return nil, err
	}

	corpus, err := p.corpus.Load(ctx)
	if err != nil {
		return nil, p.fail(span, requestID, "load_corpus", err)
	}

	query, err := p.embedder.Embed(ctx, strings.TrimSpace(question))
	if err != nil {
		return nil, p.fail(span, requestID, "embed_query", err)
	}

	ranking, err := Rank(query, corpus)
	if err != nil {
		return nil, p.fail(span, requestID, "rank", err)
	}
	topK := ranking.Top(p.topK)
	span.SetAttributes(
		attribute.Int("corpus.records", corpus.Len()),
		attribute.Int("context.records", len(topK)),
	)

	prompt := p.assembler.Assemble(topK, question)

	text, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, p.fail(span, requestID, "generate_answer", err)
	}

	p.metrics.RecordQuestion(metrics.OutcomeAnswered)
	fields := []any{
		"request_id", requestID,
		"corpus_records", corpus.Len(),
		"context_records", len(topK),
		"duration", time.Since(start).String(),
	}
	if len(topK) > 0 {
		fields = append(fields, "top_id", topK[0].Record.ID, "top_score", topK[0].Score)
	}
	logger.Infow("question answered", fields...)

	return &Answer{Text: text}, nil
}

// fail 记录完整的失败原因，返回只携带通用信息的 Errno。
func (p *Pipeline) fail(span trace.Span, requestID, stage string, err error) error {
	e := errors.FromError(err)
	p.metrics.RecordQuestion(outcomeOf(e))
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	span.SetAttributes(attribute.Int("errno", e.Code))
	logger.Errorw("question failed",
		"request_id", requestID,
		"stage", stage,
		"code", e.Code,
		"error", fmt.Sprintf("%+v", e),
	)
	return e
}

func outcomeOf(e *errors.Errno) metrics.Outcome {
	switch {
	case errors.Is(e, errors.ErrInvalidQuestion):
		return metrics.OutcomeRejected
	case errors.Is(e, errors.ErrCorpusUnavailable):
		return metrics.OutcomeCorpusUnavailable
	case errors.Is(e, errors.ErrEmbeddingProvider):
		return metrics.OutcomeEmbeddingFailed
	case errors.Is(e, errors.ErrDimensionMismatch):
		return metrics.OutcomeDimensionMismatch
	case errors.Is(e, errors.ErrCompletionProvider):
		return metrics.OutcomeCompletionFailed
	default:
		return metrics.OutcomeInternal
	}
}
