package biz

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"

	"github.com/kart-io/sentinel-ask/internal/ask/store"
	"github.com/kart-io/sentinel-ask/pkg/llm"
)

// DefaultDocuments 未提供文档文件时使用的内置语料。
var DefaultDocuments = []string{
	"Brasília é a capital do Brasil.",
	"O maior cajueiro do mundo está no Rio Grande do Norte.",
	"O Sol é uma estrela da sequência principal do tipo espectral G2.",
}

// CorpusSink 语料库的写入目标。
type CorpusSink interface {
	Save(ctx context.Context, records []store.Record) error
}

// DefaultIndexerConcurrency 未配置时同时进行的向量请求数。
const DefaultIndexerConcurrency = 4

// IndexerConfig 语料构建配置。
type IndexerConfig struct {
	// Concurrency 同时进行的向量请求数。
	Concurrency int
}

// Indexer 离线构建语料库：为每篇文档生成向量并写入 sink。
type Indexer struct {
	provider llm.EmbeddingProvider
	sink     CorpusSink
	config   *IndexerConfig
	newID    func() string
}

// NewIndexer 创建语料构建器。
func NewIndexer(provider llm.EmbeddingProvider, sink CorpusSink, config *IndexerConfig) *Indexer {
	var cfg IndexerConfig
	if config != nil {
		cfg = *config
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultIndexerConcurrency
	}
	return &Indexer{
		provider: provider,
		sink:     sink,
		config:   &cfg,
		newID:    uuid.NewString,
	}
}

// ReadDocuments 按行读取文档，忽略空行。
func ReadDocuments(r io.Reader) ([]string, error) {
	var docs []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			docs = append(docs, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	return docs, nil
}

// Build 为 documents 生成记录并保存，记录顺序与输入一致。
// 任意一篇文档向量化失败都会中止构建，不会写入部分结果。
func (ix *Indexer) Build(ctx context.Context, documents []string) ([]store.Record, error) {
	if len(documents) == 0 {
		return nil, fmt.Errorf("no documents to index")
	}

	start := time.Now()
	embeddings, err := ix.embedAll(ctx, documents)
	if err != nil {
		return nil, err
	}

	dim := len(embeddings[0])
	records := make([]store.Record, len(documents))
	for i, doc := range documents {
		if len(embeddings[i]) != dim {
			return nil, fmt.Errorf("document %d: embedding has %d dimensions, expected %d", i, len(embeddings[i]), dim)
		}
		records[i] = store.Record{ID: ix.newID(), Text: doc, Embedding: embeddings[i]}
	}

	if err := ix.sink.Save(ctx, records); err != nil {
		return nil, fmt.Errorf("save corpus: %w", err)
	}

	logger.Infow("corpus built",
		"provider", ix.provider.Name(),
		"documents", len(records),
		"dimensions", dim,
		"duration", time.Since(start).String(),
	)
	return records, nil
}

func (ix *Indexer) embedAll(ctx context.Context, documents []string) ([][]float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := ants.NewPool(ix.config.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	embeddings := make([][]float32, len(documents))
	for i, doc := range documents {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if ctx.Err() != nil {
				fail(ctx.Err())
				return
			}
			vec, err := ix.provider.EmbedSingle(ctx, doc)
			if err == nil {
				err = checkVector(vec)
			}
			if err != nil {
				fail(fmt.Errorf("embed document %d: %w", i, err))
				return
			}
			embeddings[i] = vec
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			fail(fmt.Errorf("submit document %d: %w", i, err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return embeddings, nil
}
