// Package indexer provides corpus builder configuration options.
package indexer

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-ask/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains corpus builder configuration.
type Options struct {
	// DocumentsFile holds one document per line. Empty means the built-in documents.
	DocumentsFile string `json:"documents-file" mapstructure:"documents-file"`
	// Concurrency bounds concurrent embedding requests.
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		Concurrency: 4,
	}
}

// AddFlags adds flags for indexer options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "indexer."
	fs.StringVar(&o.DocumentsFile, p+"documents-file", o.DocumentsFile, "File with one document per line (built-in documents when empty).")
	fs.IntVar(&o.Concurrency, p+"concurrency", o.Concurrency, "Maximum concurrent embedding requests.")
}

// Validate validates the indexer options.
func (o *Options) Validate() []error {
	if o.Concurrency <= 0 {
		return []error{fmt.Errorf("indexer.concurrency must be positive, got %d", o.Concurrency)}
	}
	return nil
}
