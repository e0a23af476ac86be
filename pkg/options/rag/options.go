// Package rag provides question-answering pipeline configuration options.
package rag

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-ask/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains pipeline configuration. Empty prompt fields fall back to
// the built-in Portuguese prompts.
type Options struct {
	// CorpusPath is the JSON corpus file produced by the indexer.
	CorpusPath string `json:"corpus-path" mapstructure:"corpus-path"`

	// TopK is the number of records placed in the prompt context.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// SystemInstruction overrides the system message template.
	SystemInstruction string `json:"system-instruction" mapstructure:"system-instruction"`

	// UserTemplate overrides the user message template.
	UserTemplate string `json:"user-template" mapstructure:"user-template"`

	// NoContextLine replaces the context block when nothing was retrieved.
	NoContextLine string `json:"no-context-line" mapstructure:"no-context-line"`

	// UncertaintyPhrase is what the model is told to answer when the context lacks the answer.
	UncertaintyPhrase string `json:"uncertainty-phrase" mapstructure:"uncertainty-phrase"`

	// FallbackAnswer is returned when the model produces no text.
	FallbackAnswer string `json:"fallback-answer" mapstructure:"fallback-answer"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		CorpusPath:        "data.json",
		TopK:              2,
		UncertaintyPhrase: "Não sei",
		FallbackAnswer:    "Sem resposta gerada.",
	}
}

// AddFlags adds flags for pipeline options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "rag."
	fs.StringVar(&o.CorpusPath, p+"corpus-path", o.CorpusPath, "Path of the JSON corpus file.")
	fs.IntVar(&o.TopK, p+"top-k", o.TopK, "Number of corpus records placed in the prompt context.")
	fs.StringVar(&o.SystemInstruction, p+"system-instruction", o.SystemInstruction, "System message template ({{uncertainty}} is replaced).")
	fs.StringVar(&o.UserTemplate, p+"user-template", o.UserTemplate, "User message template ({{uncertainty}}, {{context}}, {{question}}).")
	fs.StringVar(&o.NoContextLine, p+"no-context-line", o.NoContextLine, "Text used in place of the context when nothing was retrieved.")
	fs.StringVar(&o.UncertaintyPhrase, p+"uncertainty-phrase", o.UncertaintyPhrase, "Answer the model is told to give when the context lacks it.")
	fs.StringVar(&o.FallbackAnswer, p+"fallback-answer", o.FallbackAnswer, "Answer returned when the model produces no text.")
}

// Validate validates the pipeline options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.CorpusPath == "" {
		errs = append(errs, fmt.Errorf("rag.corpus-path is required"))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("rag.top-k must be positive, got %d", o.TopK))
	}
	if o.FallbackAnswer == "" {
		errs = append(errs, fmt.Errorf("rag.fallback-answer must not be empty"))
	}
	return errs
}
