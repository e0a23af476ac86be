package biz

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kart-io/sentinel-ask/internal/ask/metrics"
	"github.com/kart-io/sentinel-ask/pkg/llm"
	"github.com/kart-io/sentinel-ask/pkg/utils/errors"
)

var (
	// ErrEmptyVector 向量服务返回了空向量。
	ErrEmptyVector = stderrors.New("embedding is empty")
	// ErrZeroVector 向量服务返回了全零向量，余弦相似度无定义。
	ErrZeroVector = stderrors.New("embedding is all zeros")
)

// Embedder 将问题文本转换为查询向量。
type Embedder struct {
	provider llm.EmbeddingProvider
	metrics  *metrics.AskMetrics
}

// NewEmbedder 创建 Embedder。
func NewEmbedder(provider llm.EmbeddingProvider, m *metrics.AskMetrics) *Embedder {
	if m == nil {
		m = metrics.New()
	}
	return &Embedder{provider: provider, metrics: m}
}

// Embed 返回 text 的向量。调用失败、向量为空、全零或含非有限值时
// 返回 ErrEmbeddingProvider，绝不会把空向量当作成功结果。
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := tracer().Start(ctx, "Embedder.Embed")
	defer span.End()
	span.SetAttributes(attribute.String("llm.provider", e.provider.Name()))

	start := time.Now()
	vec, err := e.provider.EmbedSingle(ctx, text)
	if err == nil {
		err = checkVector(vec)
	}
	e.metrics.RecordEmbedding(time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return nil, errors.ErrEmbeddingProvider.WithCause(fmt.Errorf("%s: %w", e.provider.Name(), err))
	}
	span.SetAttributes(attribute.Int("embedding.dimensions", len(vec)))
	return vec, nil
}

func checkVector(vec []float32) error {
	if len(vec) == 0 {
		return ErrEmptyVector
	}
	nonZero := false
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("embedding component %d is not finite", i)
		}
		if v != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		return ErrZeroVector
	}
	return nil
}
