// Package asksvc wires the question-answering service and the corpus builder.
package asksvc

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-ask/internal/ask/biz"
	"github.com/kart-io/sentinel-ask/internal/ask/handler"
	"github.com/kart-io/sentinel-ask/internal/ask/metrics"
	"github.com/kart-io/sentinel-ask/internal/ask/router"
	"github.com/kart-io/sentinel-ask/internal/ask/store"
	"github.com/kart-io/sentinel-ask/pkg/infra/app"
	"github.com/kart-io/sentinel-ask/pkg/infra/server"
	"github.com/kart-io/sentinel-ask/pkg/infra/tracing"
	"github.com/kart-io/sentinel-ask/pkg/llm"
	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/sentinel-ask/pkg/llm/groq"
	_ "github.com/kart-io/sentinel-ask/pkg/llm/openai"
	httpopts "github.com/kart-io/sentinel-ask/pkg/options/http"
	llmopts "github.com/kart-io/sentinel-ask/pkg/options/llm"
	logopts "github.com/kart-io/sentinel-ask/pkg/options/logger"
	ragopts "github.com/kart-io/sentinel-ask/pkg/options/rag"
	tracingopts "github.com/kart-io/sentinel-ask/pkg/options/tracing"
)

// Name is the name of the application.
const Name = "sentinel-ask"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions      *httpopts.Options
	LogOptions       *logopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	ChatOptions      *llmopts.ProviderOptions
	RAGOptions       *ragopts.Options
	TracingOptions   *tracingopts.Options
}

// Server represents the ask server.
type Server struct {
	srv     *server.Manager
	handler *gin.Engine
	tracing *tracing.Provider
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	// 1. 初始化日志
	if err := initLogger(cfg.LogOptions, Name); err != nil {
		return nil, err
	}
	logger.Info("Starting ask service...")

	// 2. 初始化链路追踪
	tp, err := tracing.NewProvider(ctx, Name, app.GetVersion(), cfg.TracingOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	logger.Infow("Tracing initialized", "enabled", tp.Enabled())

	// 3. 初始化 LLM 供应商
	embedProvider, err := newEmbeddingProvider(cfg.EmbeddingOptions)
	if err != nil {
		return nil, err
	}
	chatProvider, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized",
		"provider", cfg.ChatOptions.Provider,
		"model", cfg.ChatOptions.Model,
	)

	// 4. 初始化语料库
	m := metrics.New()
	corpus := store.NewCorpusStore(
		store.NewFileSource(cfg.RAGOptions.CorpusPath),
		store.WithLoadObserver(m.RecordCorpusLoad),
	)
	// 预加载失败不阻止启动，请求到来时会重新尝试加载。
	if _, err := corpus.Load(ctx); err != nil {
		logger.Warnw("Corpus preload failed, questions will be refused until it loads",
			"path", cfg.RAGOptions.CorpusPath,
			"error", err.Error(),
		)
	}

	// 5. 初始化 Biz 层
	pipeline := biz.NewPipeline(corpus, embedProvider, chatProvider, cfg.PipelineConfig(), m)
	logger.Infow("Ask pipeline initialized",
		"top_k", cfg.RAGOptions.TopK,
		"corpus", cfg.RAGOptions.CorpusPath,
	)

	// 6. 初始化 Handler 与路由
	gin.SetMode(gin.ReleaseMode)
	engine := router.New(
		handler.NewAskHandler(pipeline, corpus, m),
		router.Config{
			AllowOrigins: cfg.HTTPOptions.AllowOrigins,
			Registry:     m.Registry(),
			Namespace:    metrics.Namespace,
		},
	)

	// 7. 初始化服务器
	manager := server.NewManager(
		server.WithServer(server.NewHTTPServer(cfg.HTTPOptions, engine)),
		server.WithShutdownTimeout(cfg.HTTPOptions.ShutdownTimeout),
	)

	logger.Infow("Ask service is ready", "addr", cfg.HTTPOptions.Addr)
	return &Server{srv: manager, handler: engine, tracing: tp}, nil
}

// PipelineConfig builds the pipeline configuration from the options.
func (cfg *Config) PipelineConfig() *biz.PipelineConfig {
	return &biz.PipelineConfig{
		TopK:           cfg.RAGOptions.TopK,
		FallbackAnswer: cfg.RAGOptions.FallbackAnswer,
		Assembler: &biz.AssemblerConfig{
			SystemInstruction: cfg.RAGOptions.SystemInstruction,
			UserTemplate:      cfg.RAGOptions.UserTemplate,
			NoContextLine:     cfg.RAGOptions.NoContextLine,
			UncertaintyPhrase: cfg.RAGOptions.UncertaintyPhrase,
		},
	}
}

// Handler returns the HTTP handler serving the ask routes.
func (s *Server) Handler() *gin.Engine {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer func() { _ = logger.Flush() }()
	defer func() {
		if err := s.tracing.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warnw("Tracing shutdown failed", "error", err.Error())
		}
	}()
	return s.srv.Run(ctx)
}

func initLogger(opts *logopts.Options, name string) error {
	opts.AddInitialField("service.name", name)
	opts.AddInitialField("service.version", app.GetVersion())
	if err := opts.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func newEmbeddingProvider(opts *llmopts.ProviderOptions) (llm.EmbeddingProvider, error) {
	p, err := llm.NewEmbeddingProvider(opts.Provider, opts.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized",
		"provider", opts.Provider,
		"model", opts.Model,
	)
	return p, nil
}
