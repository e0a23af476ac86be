// Package options contains flags and options for the corpus builder.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	asksvc "github.com/kart-io/sentinel-ask/internal/ask"
	"github.com/kart-io/sentinel-ask/pkg/app/cliflag"
	indexeropts "github.com/kart-io/sentinel-ask/pkg/options/indexer"
	llmopts "github.com/kart-io/sentinel-ask/pkg/options/llm"
	logopts "github.com/kart-io/sentinel-ask/pkg/options/logger"
	ragopts "github.com/kart-io/sentinel-ask/pkg/options/rag"
)

// IndexerOptions contains the configuration options for the corpus builder.
type IndexerOptions struct {
	LogOptions       *logopts.Options         `json:"log" mapstructure:"log"`
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`
	RAGOptions       *ragopts.Options         `json:"rag" mapstructure:"rag"`
	IndexerOptions   *indexeropts.Options     `json:"indexer" mapstructure:"indexer"`
}

// NewIndexerOptions creates an IndexerOptions instance with default values.
func NewIndexerOptions() *IndexerOptions {
	return &IndexerOptions{
		LogOptions:       logopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		RAGOptions:       ragopts.NewOptions(),
		IndexerOptions:   indexeropts.NewOptions(),
	}
}

// Flags returns the builder flags by section name. Only the corpus path is
// taken from the rag section; the prompt flags do not apply here.
func (o *IndexerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.IndexerOptions.AddFlags(fss.FlagSet("indexer"))
	fss.FlagSet("rag").StringVar(&o.RAGOptions.CorpusPath, "rag.corpus-path", o.RAGOptions.CorpusPath, "Path of the JSON corpus file to write.")
	return fss
}

// Complete completes all the required options.
func (o *IndexerOptions) Complete() error {
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	return nil
}

// Validate checks whether the options are valid.
func (o *IndexerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.LogOptions.Validate()...)
	for _, err := range o.EmbeddingOptions.Validate() {
		errs = append(errs, fmt.Errorf("embedding: %w", err))
	}
	errs = append(errs, o.IndexerOptions.Validate()...)
	if o.RAGOptions.CorpusPath == "" {
		errs = append(errs, fmt.Errorf("rag.corpus-path is required"))
	}

	return utilerrors.NewAggregate(errs)
}

// Config builds an asksvc.IndexerConfig based on IndexerOptions.
func (o *IndexerOptions) Config() *asksvc.IndexerConfig {
	return &asksvc.IndexerConfig{
		LogOptions:       o.LogOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		RAGOptions:       o.RAGOptions,
		IndexerOptions:   o.IndexerOptions,
	}
}
