package biz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/sentinel-ask/internal/ask/store"
)

func scored(texts ...string) []ScoredRecord {
	out := make([]ScoredRecord, len(texts))
	for i, t := range texts {
		out[i] = ScoredRecord{Record: store.Record{ID: t, Text: t}, Score: 1 - float64(i)/10}
	}
	return out
}

func TestRenderContext(t *testing.T) {
	assert.Equal(t, "• a\n• b", RenderContext(scored("a", "b")))
	assert.Equal(t, "", RenderContext(nil))
}

func TestAssembleOrder(t *testing.T) {
	a := NewAssembler(nil)
	p := a.Assemble(scored("Brasília é a capital do Brasil.", "O Sol é uma estrela."), "Qual a capital do Brasil?")

	assert.Equal(t, "• Brasília é a capital do Brasil.\n• O Sol é uma estrela.", p.Context)
	assert.Contains(t, p.SystemInstruction, `"Não sei"`)

	msg := p.UserMessage
	instr := strings.Index(msg, "Responda à pergunta com base somente no contexto")
	ctx := strings.Index(msg, "Contexto:\n• Brasília")
	question := strings.Index(msg, "Pergunta: Qual a capital do Brasil?")
	answer := strings.Index(msg, "Resposta:")

	assert.True(t, instr >= 0 && ctx > instr && question > ctx && answer > question, msg)
	assert.True(t, strings.HasSuffix(msg, "Resposta:"))
	assert.Contains(t, msg, `diga "Não sei"`)
}

func TestAssembleEmptyContext(t *testing.T) {
	p := NewAssembler(nil).Assemble(nil, "Quem descobriu o Brasil?")

	assert.Empty(t, p.Context)
	assert.Contains(t, p.UserMessage, "nenhum contexto disponível")
	assert.Contains(t, p.UserMessage, "Pergunta: Quem descobriu o Brasil?")
	assert.NotContains(t, p.UserMessage, "• ")
}

func TestAssembleDoesNotExpandPlaceholdersInQuestion(t *testing.T) {
	p := NewAssembler(nil).Assemble(scored("segredo"), "o que é {{context}}?")

	assert.Contains(t, p.UserMessage, "Pergunta: o que é {{context}}?")
	assert.Equal(t, 1, strings.Count(p.UserMessage, "segredo"))
}

func TestAssembleCustomUncertainty(t *testing.T) {
	p := NewAssembler(&AssemblerConfig{UncertaintyPhrase: "I don't know"}).Assemble(nil, "q")

	assert.Contains(t, p.SystemInstruction, "I don't know")
	assert.Contains(t, p.UserMessage, "I don't know")
	assert.NotContains(t, p.UserMessage, "{{")
}
