package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kart-io/sentinel-ask/internal/ask/metrics"
	"github.com/kart-io/sentinel-ask/pkg/llm"
	"github.com/kart-io/sentinel-ask/pkg/utils/errors"
)

// DefaultFallbackAnswer 模型返回空内容时使用的答案。
const DefaultFallbackAnswer = "Sem resposta gerada."

// Completer 调用对话模型生成答案。
type Completer struct {
	provider llm.ChatProvider
	fallback string
	metrics  *metrics.AskMetrics
}

// NewCompleter 创建 Completer。fallback 为空时使用 DefaultFallbackAnswer。
func NewCompleter(provider llm.ChatProvider, fallback string, m *metrics.AskMetrics) *Completer {
	if fallback == "" {
		fallback = DefaultFallbackAnswer
	}
	if m == nil {
		m = metrics.New()
	}
	return &Completer{provider: provider, fallback: fallback, metrics: m}
}

// Complete 发送系统指令与用户消息，返回去除首尾空白的答案。
// 模型返回空内容时返回兜底答案而不是错误；请求失败或响应没有
// 候选结果时返回 ErrCompletionProvider。
func (c *Completer) Complete(ctx context.Context, prompt Prompt) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompt.SystemInstruction},
		{Role: llm.RoleUser, Content: prompt.UserMessage},
	}

	ctx, span := tracer().Start(ctx, "Completer.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.provider", c.provider.Name()))

	start := time.Now()
	content, err := c.provider.Chat(ctx, messages)
	if err != nil {
		c.metrics.RecordCompletion(time.Since(start), false, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", errors.ErrCompletionProvider.WithCause(fmt.Errorf("%s: %w", c.provider.Name(), err))
	}

	answer := strings.TrimSpace(content)
	empty := answer == ""
	c.metrics.RecordCompletion(time.Since(start), empty, nil)
	span.SetAttributes(attribute.Bool("completion.fallback", empty))
	if empty {
		return c.fallback, nil
	}
	return answer, nil
}
