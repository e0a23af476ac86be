package biz

import (
	"strings"
)

// 默认提示词。{{uncertainty}}、{{context}}、{{question}} 会被一次性替换，
// 问题文本中出现的占位符不会被二次展开。
const (
	DefaultSystemInstruction = "Você é um assistente útil e responde com base no contexto fornecido. " +
		"Caso a resposta não esteja contida nele, diga \"{{uncertainty}}\"."

	DefaultUserTemplate = "Responda à pergunta com base somente no contexto a seguir.\n" +
		"Se a resposta não estiver nele, diga \"{{uncertainty}}\".\n\n" +
		"Contexto:\n{{context}}\n\n" +
		"Pergunta: {{question}}\n" +
		"Resposta:"

	DefaultNoContextLine = "(nenhum contexto disponível; responda \"{{uncertainty}}\")"

	DefaultUncertaintyPhrase = "Não sei"

	contextBullet = "• "
)

// AssemblerConfig 提示词组装配置。
type AssemblerConfig struct {
	// SystemInstruction 系统指令模板。
	SystemInstruction string
	// UserTemplate 用户消息模板，依次包含约束说明、上下文、问题与作答请求。
	UserTemplate string
	// NoContextLine 没有任何检索结果时写在上下文位置的提示。
	NoContextLine string
	// UncertaintyPhrase 答案不在上下文中时模型应回复的短语。
	UncertaintyPhrase string
}

// DefaultAssemblerConfig 返回默认配置。
func DefaultAssemblerConfig() *AssemblerConfig {
	return &AssemblerConfig{
		SystemInstruction: DefaultSystemInstruction,
		UserTemplate:      DefaultUserTemplate,
		NoContextLine:     DefaultNoContextLine,
		UncertaintyPhrase: DefaultUncertaintyPhrase,
	}
}

// Prompt 发送给对话模型的提示词。
type Prompt struct {
	SystemInstruction string
	UserMessage       string
	// Context 渲染后的上下文块，没有检索结果时为空。
	Context string
}

// Assembler 根据排序结果与问题组装提示词。
type Assembler struct {
	config *AssemblerConfig
}

// NewAssembler 创建 Assembler，空字段使用默认值。
func NewAssembler(config *AssemblerConfig) *Assembler {
	def := DefaultAssemblerConfig()
	if config == nil {
		config = def
	}
	cfg := *config
	if cfg.SystemInstruction == "" {
		cfg.SystemInstruction = def.SystemInstruction
	}
	if cfg.UserTemplate == "" {
		cfg.UserTemplate = def.UserTemplate
	}
	if cfg.NoContextLine == "" {
		cfg.NoContextLine = def.NoContextLine
	}
	if cfg.UncertaintyPhrase == "" {
		cfg.UncertaintyPhrase = def.UncertaintyPhrase
	}
	return &Assembler{config: &cfg}
}

// RenderContext 将记录渲染为项目符号列表，每条一行，保持排名顺序。
func RenderContext(topK []ScoredRecord) string {
	lines := make([]string, len(topK))
	for i, r := range topK {
		lines[i] = contextBullet + r.Record.Text
	}
	return strings.Join(lines, "\n")
}

// Assemble 组装提示词。topK 为空时上下文块为空，并在用户消息中
// 明确要求模型回复不确定短语。
func (a *Assembler) Assemble(topK []ScoredRecord, question string) Prompt {
	block := RenderContext(topK)

	uncertainty := strings.NewReplacer("{{uncertainty}}", a.config.UncertaintyPhrase)
	contextSlot := block
	if len(topK) == 0 {
		contextSlot = uncertainty.Replace(a.config.NoContextLine)
	}

	user := strings.NewReplacer(
		"{{uncertainty}}", a.config.UncertaintyPhrase,
		"{{context}}", contextSlot,
		"{{question}}", question,
	).Replace(a.config.UserTemplate)

	return Prompt{
		SystemInstruction: uncertainty.Replace(a.config.SystemInstruction),
		UserMessage:       user,
		Context:           block,
	}
}
