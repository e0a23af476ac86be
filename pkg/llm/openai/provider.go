// Package openai 提供 OpenAI 兼容接口的供应商实现。
// 同时适用于 OpenAI 官方 API 以及 Groq、LocalAI 等兼容服务。
//
// 基本用法示例：
//
//	import _ "github.com/kart-io/sentinel-ask/pkg/llm/openai"
//
//	embedder, err := llm.NewEmbeddingProvider("openai", map[string]any{
//	    "api_key":     os.Getenv("OPENAI_API_KEY"),
//	    "embed_model": "text-embedding-ada-002",
//	})
//
//	chat, err := llm.NewChatProvider("openai", map[string]any{
//	    "api_key":     os.Getenv("OPENAI_API_KEY"),
//	    "temperature": 0.3,
//	})
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/sentinel-ask/pkg/llm"
	"github.com/kart-io/sentinel-ask/pkg/utils/httpclient"
)

// ProviderName 是 OpenAI 供应商的名称标识符
const ProviderName = "openai"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config OpenAI 供应商配置。
type Config struct {
	// BaseURL API 基础地址，默认为 OpenAI 官方地址。
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// APIKey API 密钥。
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// EmbedModel 用于生成嵌入的模型。
	EmbedModel string `json:"embed_model" mapstructure:"embed_model"`

	// ChatModel 用于对话的模型。
	ChatModel string `json:"chat_model" mapstructure:"chat_model"`

	// Timeout 单次请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// Organization 组织 ID（可选）。
	Organization string `json:"organization" mapstructure:"organization"`

	// Temperature 采样温度，为 nil 时不发送，由服务端决定。
	Temperature *float64 `json:"temperature" mapstructure:"temperature"`

	// MaxTokens 最大生成 token 数，0 表示不限制。
	MaxTokens int `json:"max_tokens" mapstructure:"max_tokens"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.openai.com/v1",
		EmbedModel: "text-embedding-ada-002",
		ChatModel:  "gpt-4o-mini",
		Timeout:    60 * time.Second,
	}
}

// ApplyMap 用配置 map 中的非空值覆盖 cfg。
func ApplyMap(cfg *Config, configMap map[string]any) {
	if v, ok := configMap["base_url"].(string); ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := configMap["api_key"].(string); ok && v != "" {
		cfg.APIKey = v
	}
	if v, ok := configMap["embed_model"].(string); ok && v != "" {
		cfg.EmbedModel = v
	}
	if v, ok := configMap["chat_model"].(string); ok && v != "" {
		cfg.ChatModel = v
	}
	if v, ok := configMap["timeout"].(time.Duration); ok && v > 0 {
		cfg.Timeout = v
	}
	if v, ok := configMap["organization"].(string); ok && v != "" {
		cfg.Organization = v
	}
	if v, ok := configMap["temperature"].(float64); ok {
		cfg.Temperature = &v
	}
	if v, ok := configMap["max_tokens"].(int); ok {
		cfg.MaxTokens = v
	}
}

// NewProvider 从配置 map 创建 OpenAI 供应商。
func NewProvider(configMap map[string]any) (llm.Provider, error) {
	cfg := DefaultConfig()
	ApplyMap(cfg, configMap)

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api_key 是必需的")
	}
	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig 使用结构化配置创建供应商。
func NewProviderWithConfig(cfg *Config) *Provider {
	return &Provider{
		name:   ProviderName,
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout),
	}
}

// Provider OpenAI 供应商实现。
type Provider struct {
	name   string
	config *Config
	client *httpclient.Client
}

// WithName 返回使用另一个名称的副本，供兼容服务的封装使用。
func (p *Provider) WithName(name string) *Provider {
	c := *p
	c.name = name
	return &c
}

// Name 返回供应商名称。
func (p *Provider) Name() string {
	return p.name
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// Embed 为多个文本生成向量嵌入。
// 响应缺少任何一个输入对应的向量时返回 llm.ErrNoEmbedding。
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embeddingResponse
	req := embeddingRequest{Model: p.config.EmbedModel, Input: texts}
	if err := p.client.PostJSON(ctx, p.endpoint("/embeddings"), p.headers(), req, &resp); err != nil {
		return nil, fmt.Errorf("%s embeddings: %w", p.name, err)
	}

	// 按 index 排序确保顺序正确
	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("%s embeddings: index %d out of range", p.name, data.Index)
		}
		embeddings[data.Index] = data.Embedding
	}
	for i, e := range embeddings {
		if len(e) == 0 {
			return nil, fmt.Errorf("%s embeddings: input %d: %w", p.name, i, llm.ErrNoEmbedding)
		}
	}

	return embeddings, nil
}

// EmbedSingle 为单个文本生成向量嵌入。
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Index        int         `json:"index"`
		Message      llm.Message `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Chat 发送一次对话请求并返回第一个候选结果的内容。
func (p *Provider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	req := chatRequest{
		Model:       p.config.ChatModel,
		Messages:    messages,
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	}

	var resp chatResponse
	if err := p.client.PostJSON(ctx, p.endpoint("/chat/completions"), p.headers(), req, &resp); err != nil {
		return "", fmt.Errorf("%s chat: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s chat: %w", p.name, llm.ErrNoChoices)
	}

	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) endpoint(path string) string {
	return strings.TrimRight(p.config.BaseURL, "/") + path
}

func (p *Provider) headers() map[string]string {
	h := map[string]string{"Authorization": "Bearer " + p.config.APIKey}
	if p.config.Organization != "" {
		h["OpenAI-Organization"] = p.config.Organization
	}
	return h
}
