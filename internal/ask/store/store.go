package store

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"golang.org/x/sync/singleflight"

	"github.com/kart-io/sentinel-ask/pkg/utils/errors"
)

const loadKey = "corpus"

// LoadObserver 在每次实际读取来源后被调用。
type LoadObserver func(err error)

// Option 配置 CorpusStore。
type Option func(*CorpusStore)

// WithLoadObserver 设置读取来源后的回调。
func WithLoadObserver(fn LoadObserver) Option {
	return func(s *CorpusStore) {
		s.observe = fn
	}
}

// CorpusStore 缓存从 Source 加载的语料库，是缓存的唯一写入者。
type CorpusStore struct {
	source  Source
	group   singleflight.Group
	corpus  atomic.Pointer[Corpus]
	observe LoadObserver
}

// NewCorpusStore 创建语料库存储。
func NewCorpusStore(source Source, opts ...Option) *CorpusStore {
	s := &CorpusStore{source: source}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load 返回缓存的语料库，首次调用时从来源加载。
//
// 并发的首次调用共享同一次加载；加载在脱离调用方取消信号的 context 中进行，
// 某个调用方提前退出不会让其他等待者失败。来源读取失败时返回
// ErrCorpusUnavailable，且下次调用会重新读取。
func (s *CorpusStore) Load(ctx context.Context) (*Corpus, error) {
	if c := s.corpus.Load(); c != nil {
		return c, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(loadKey, func() (any, error) {
		if c := s.corpus.Load(); c != nil {
			return c, nil
		}
		return s.load(loadCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Corpus), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Loaded 返回已缓存的语料库，不会触发加载。
func (s *CorpusStore) Loaded() (*Corpus, bool) {
	c := s.corpus.Load()
	return c, c != nil
}

func (s *CorpusStore) load(ctx context.Context) (*Corpus, error) {
	start := time.Now()
	records, err := s.source.Read(ctx)
	if s.observe != nil {
		s.observe(err)
	}
	if err != nil {
		logger.Errorw("failed to load corpus", "source", s.source, "error", err.Error())
		return nil, errors.ErrCorpusUnavailable.WithCause(err)
	}

	c := NewCorpus(records)
	s.corpus.Store(c)
	logger.Infow("corpus loaded",
		"source", s.source,
		"records", c.Len(),
		"duration", time.Since(start).String(),
	)
	return c, nil
}
