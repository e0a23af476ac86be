// Package llm provides model provider configuration options.
package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-ask/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions 定义模型供应商配置。
type ProviderOptions struct {
	// Provider 供应商名称（openai, groq）。
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL API 基础地址，为空时使用供应商默认值。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥。
	APIKey string `json:"api-key" mapstructure:"api-key"`

	// APIKeyEnv APIKey 为空时读取的环境变量名。
	APIKeyEnv string `json:"api-key-env" mapstructure:"api-key-env"`

	// Model 使用的模型名称。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 单次请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// Organization 组织 ID（OpenAI 可选）。
	Organization string `json:"organization" mapstructure:"organization"`

	// Temperature 采样温度，负数表示不发送该参数。
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
}

// NewEmbeddingOptions 创建默认 Embedding 供应商配置。
func NewEmbeddingOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:    "openai",
		BaseURL:     "https://api.openai.com/v1",
		APIKeyEnv:   "OPENAI_API_KEY",
		Model:       "text-embedding-ada-002",
		Timeout:     30 * time.Second,
		Temperature: -1,
	}
}

// NewChatOptions 创建默认 Chat 供应商配置。
func NewChatOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:    "groq",
		BaseURL:     "https://api.groq.com/openai/v1",
		APIKeyEnv:   "GROQ_API_KEY",
		Model:       "llama3-8b-8192",
		Timeout:     60 * time.Second,
		Temperature: 0.3,
	}
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *ProviderOptions) ToConfigMap() map[string]any {
	m := map[string]any{
		"base_url":     o.BaseURL,
		"api_key":      o.APIKey,
		"embed_model":  o.Model,
		"chat_model":   o.Model,
		"timeout":      o.Timeout,
		"organization": o.Organization,
	}
	if o.Temperature >= 0 {
		m["temperature"] = o.Temperature
	}
	return m
}

// AddFlags adds flags for provider options to the specified FlagSet.
// Callers pass a prefix such as "embedding" or "chat".
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...)
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "Model provider (openai, groq).")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "Provider API base URL.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "Provider API key.")
	fs.StringVar(&o.APIKeyEnv, p+"api-key-env", o.APIKeyEnv, "Environment variable read when the API key is empty.")
	fs.StringVar(&o.Model, p+"model", o.Model, "Model name.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Provider request timeout.")
	fs.StringVar(&o.Organization, p+"organization", o.Organization, "Organization ID (optional).")
	fs.Float64Var(&o.Temperature, p+"temperature", o.Temperature, "Sampling temperature, negative to leave it to the provider.")
}

// Complete fills the API key from the environment when it is empty.
func (o *ProviderOptions) Complete() error {
	if o.APIKey == "" && o.APIKeyEnv != "" {
		o.APIKey = os.Getenv(o.APIKeyEnv)
	}
	return nil
}

// Validate validates the provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Provider == "" {
		errs = append(errs, fmt.Errorf("provider is required"))
	}
	if o.Model == "" {
		errs = append(errs, fmt.Errorf("model is required"))
	}
	if o.APIKey == "" {
		errs = append(errs, fmt.Errorf("api-key is required for %s provider (set it or %s)", o.Provider, o.APIKeyEnv))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	if o.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must not exceed 2"))
	}
	return errs
}
