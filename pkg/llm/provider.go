// Package llm 提供统一的模型供应商抽象层。
// Embedding 与 Chat 可以分别使用不同供应商的模型。
package llm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrNoChoices 表示 Chat 接口返回的响应中没有任何候选结果。
var ErrNoChoices = errors.New("llm: response contains no choices")

// ErrNoEmbedding 表示 Embedding 接口返回的响应中缺少向量。
var ErrNoEmbedding = errors.New("llm: response contains no embedding")

// EmbeddingProvider 定义 Embedding 供应商接口。
type EmbeddingProvider interface {
	// Embed 为多个文本生成向量嵌入，结果顺序与输入一致。
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle 为单个文本生成向量嵌入。
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Name 返回供应商名称。
	Name() string
}

// ChatProvider 定义 Chat 供应商接口。
type ChatProvider interface {
	// Chat 发送一次对话请求，返回第一个候选结果的内容（可能为空字符串）。
	// 响应中没有候选结果时返回 ErrNoChoices。
	Chat(ctx context.Context, messages []Message) (string, error)

	// Name 返回供应商名称。
	Name() string
}

// Message 表示对话中的一条消息。
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role 定义消息角色。
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Provider 同时支持 Embedding 和 Chat 的完整供应商。
type Provider interface {
	EmbeddingProvider
	ChatProvider
}

// ProviderFactory 供应商工厂函数类型。
type ProviderFactory func(config map[string]any) (Provider, error)

// EmbeddingProviderFactory Embedding 供应商工厂函数类型。
type EmbeddingProviderFactory func(config map[string]any) (EmbeddingProvider, error)

// ChatProviderFactory Chat 供应商工厂函数类型。
type ChatProviderFactory func(config map[string]any) (ChatProvider, error)

var registry = &providerRegistry{
	providers:          make(map[string]ProviderFactory),
	embeddingProviders: make(map[string]EmbeddingProviderFactory),
	chatProviders:      make(map[string]ChatProviderFactory),
}

type providerRegistry struct {
	mu                 sync.RWMutex
	providers          map[string]ProviderFactory
	embeddingProviders map[string]EmbeddingProviderFactory
	chatProviders      map[string]ChatProviderFactory
}

// RegisterProvider 注册完整供应商工厂。
func RegisterProvider(name string, factory ProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.providers[name] = factory
}

// RegisterEmbeddingProvider 注册 Embedding 供应商工厂。
func RegisterEmbeddingProvider(name string, factory EmbeddingProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.embeddingProviders[name] = factory
}

// RegisterChatProvider 注册 Chat 供应商工厂。
func RegisterChatProvider(name string, factory ChatProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.chatProviders[name] = factory
}

// NewEmbeddingProvider 根据名称创建 Embedding 供应商实例。
// 优先查找专用 Embedding 工厂，其次查找完整供应商工厂。
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	registry.mu.RLock()
	embed, okEmbed := registry.embeddingProviders[name]
	full, okFull := registry.providers[name]
	registry.mu.RUnlock()

	switch {
	case okEmbed:
		return embed(config)
	case okFull:
		return full(config)
	}
	return nil, fmt.Errorf("unknown embedding provider: %s", name)
}

// NewChatProvider 根据名称创建 Chat 供应商实例。
// 优先查找专用 Chat 工厂，其次查找完整供应商工厂。
func NewChatProvider(name string, config map[string]any) (ChatProvider, error) {
	registry.mu.RLock()
	chat, okChat := registry.chatProviders[name]
	full, okFull := registry.providers[name]
	registry.mu.RUnlock()

	switch {
	case okChat:
		return chat(config)
	case okFull:
		return full(config)
	}
	return nil, fmt.Errorf("unknown chat provider: %s", name)
}

// ListProviders 列出所有已注册的供应商名称（已排序、去重）。
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	var names []string
	for name := range registry.providers {
		names = append(names, name)
	}
	for name := range registry.embeddingProviders {
		names = append(names, name)
	}
	for name := range registry.chatProviders {
		names = append(names, name)
	}

	slices.Sort(names)
	return slices.Compact(names)
}
