package asksvc

import (
	"context"
	"fmt"
	"os"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-ask/internal/ask/biz"
	"github.com/kart-io/sentinel-ask/internal/ask/store"
	indexeropts "github.com/kart-io/sentinel-ask/pkg/options/indexer"
	llmopts "github.com/kart-io/sentinel-ask/pkg/options/llm"
	logopts "github.com/kart-io/sentinel-ask/pkg/options/logger"
	ragopts "github.com/kart-io/sentinel-ask/pkg/options/rag"
)

// IndexerName is the name of the corpus builder application.
const IndexerName = "sentinel-ask-indexer"

// IndexerConfig contains corpus builder configurations.
type IndexerConfig struct {
	LogOptions       *logopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	RAGOptions       *ragopts.Options
	IndexerOptions   *indexeropts.Options
}

// RunIndexer embeds the configured documents and writes the corpus file.
func (cfg *IndexerConfig) RunIndexer(ctx context.Context) error {
	if err := initLogger(cfg.LogOptions, IndexerName); err != nil {
		return err
	}
	defer func() { _ = logger.Flush() }()

	documents, err := cfg.documents()
	if err != nil {
		return err
	}

	provider, err := newEmbeddingProvider(cfg.EmbeddingOptions)
	if err != nil {
		return err
	}

	ix := biz.NewIndexer(
		provider,
		store.NewFileSource(cfg.RAGOptions.CorpusPath),
		&biz.IndexerConfig{Concurrency: cfg.IndexerOptions.Concurrency},
	)
	if _, err := ix.Build(ctx, documents); err != nil {
		return fmt.Errorf("failed to build corpus: %w", err)
	}
	return nil
}

func (cfg *IndexerConfig) documents() ([]string, error) {
	path := cfg.IndexerOptions.DocumentsFile
	if path == "" {
		return biz.DefaultDocuments, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open documents file: %w", err)
	}
	defer f.Close()

	documents, err := biz.ReadDocuments(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents file %s: %w", path, err)
	}
	if len(documents) == 0 {
		return nil, fmt.Errorf("documents file %s has no documents", path)
	}
	return documents, nil
}
