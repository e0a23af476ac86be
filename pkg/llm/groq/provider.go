// Package groq 提供 Groq 对话供应商。
// Groq API 兼容 OpenAI 格式，只提供对话模型，因此仅注册为 Chat 供应商。
package groq

import (
	"fmt"

	"github.com/kart-io/sentinel-ask/pkg/llm"
	"github.com/kart-io/sentinel-ask/pkg/llm/openai"
)

// ProviderName 是 Groq 供应商的名称标识符
const ProviderName = "groq"

const (
	// DefaultBaseURL Groq 的 OpenAI 兼容接口地址。
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultChatModel 默认对话模型。
	DefaultChatModel = "llama3-8b-8192"
)

func init() {
	llm.RegisterChatProvider(ProviderName, NewProvider)
}

// NewProvider 从配置 map 创建 Groq 对话供应商。
func NewProvider(configMap map[string]any) (llm.ChatProvider, error) {
	cfg := openai.DefaultConfig()
	cfg.BaseURL = DefaultBaseURL
	cfg.ChatModel = DefaultChatModel
	cfg.EmbedModel = ""
	openai.ApplyMap(cfg, configMap)

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq: api_key 是必需的")
	}
	return openai.NewProviderWithConfig(cfg).WithName(ProviderName), nil
}
