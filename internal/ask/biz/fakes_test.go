package biz

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kart-io/sentinel-ask/internal/ask/store"
	"github.com/kart-io/sentinel-ask/pkg/llm"
)

// fakeEmbedder 按文本返回预设向量。
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	def     []float32
	err     error
	calls   atomic.Int32
}

func (f *fakeEmbedder) Name() string { return "fake-embed" }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.EmbedSingle(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.def, nil
}

// fakeChat 记录收到的消息并返回预设内容。
type fakeChat struct {
	reply    string
	err      error
	calls    atomic.Int32
	mu       sync.Mutex
	messages []llm.Message
}

func (f *fakeChat) Name() string { return "fake-chat" }

func (f *fakeChat) Chat(_ context.Context, messages []llm.Message) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.messages = messages
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// staticCorpus 直接返回给定语料或错误。
type staticCorpus struct {
	corpus *store.Corpus
	err    error
	calls  atomic.Int32
}

func (s *staticCorpus) Load(context.Context) (*store.Corpus, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.corpus, nil
}

func corpusOf(records ...store.Record) *store.Corpus {
	return store.NewCorpus(records)
}
