// Package options contains flags and options for initializing the ask server.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	asksvc "github.com/kart-io/sentinel-ask/internal/ask"
	"github.com/kart-io/sentinel-ask/pkg/app/cliflag"
	httpopts "github.com/kart-io/sentinel-ask/pkg/options/http"
	llmopts "github.com/kart-io/sentinel-ask/pkg/options/llm"
	logopts "github.com/kart-io/sentinel-ask/pkg/options/logger"
	ragopts "github.com/kart-io/sentinel-ask/pkg/options/rag"
	tracingopts "github.com/kart-io/sentinel-ask/pkg/options/tracing"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// ChatOptions contains chat provider configuration.
	ChatOptions *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// RAGOptions contains pipeline configuration.
	RAGOptions *ragopts.Options `json:"rag" mapstructure:"rag"`

	// TracingOptions contains OpenTelemetry tracing configuration.
	TracingOptions *tracingopts.Options `json:"tracing" mapstructure:"tracing"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:      httpopts.NewOptions(),
		LogOptions:       logopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		ChatOptions:      llmopts.NewChatOptions(),
		RAGOptions:       ragopts.NewOptions(),
		TracingOptions:   tracingopts.NewOptions(),
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.ChatOptions.AddFlags(fss.FlagSet("chat"), "chat")
	o.RAGOptions.AddFlags(fss.FlagSet("rag"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.ChatOptions.Complete(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, prefixed("embedding", o.EmbeddingOptions.Validate())...)
	errs = append(errs, prefixed("chat", o.ChatOptions.Validate())...)
	errs = append(errs, o.RAGOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)

	return utilerrors.NewAggregate(errs)
}

// Config builds an asksvc.Config based on ServerOptions.
func (o *ServerOptions) Config() (*asksvc.Config, error) {
	return &asksvc.Config{
		HTTPOptions:      o.HTTPOptions,
		LogOptions:       o.LogOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		ChatOptions:      o.ChatOptions,
		RAGOptions:       o.RAGOptions,
		TracingOptions:   o.TracingOptions,
	}, nil
}

func prefixed(section string, errs []error) []error {
	out := make([]error, len(errs))
	for i, err := range errs {
		out[i] = fmt.Errorf("%s: %w", section, err)
	}
	return out
}
