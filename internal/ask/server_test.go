package asksvc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpopts "github.com/kart-io/sentinel-ask/pkg/options/http"
	indexeropts "github.com/kart-io/sentinel-ask/pkg/options/indexer"
	llmopts "github.com/kart-io/sentinel-ask/pkg/options/llm"
	logopts "github.com/kart-io/sentinel-ask/pkg/options/logger"
	ragopts "github.com/kart-io/sentinel-ask/pkg/options/rag"
	"github.com/kart-io/sentinel-ask/pkg/utils/json"
)

// upstream fakes an OpenAI compatible API. Texts mentioning "capital" embed
// to [1, 0], everything else to [0, 1].
type upstream struct {
	*httptest.Server

	mu       sync.Mutex
	prompts  []string
	answer   string
	embedErr atomic.Bool
}

func newUpstream(t *testing.T) *upstream {
	u := &upstream{answer: "Brasília"}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) serve(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/embeddings":
		if u.embedErr.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		var req struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		type item struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Data []item `json:"data"`
		}{}
		for i, text := range req.Input {
			vec := []float32{0, 1}
			if strings.Contains(strings.ToLower(text), "capital") {
				vec = []float32{1, 0}
			}
			resp.Data = append(resp.Data, item{Embedding: vec, Index: i})
		}
		_ = json.NewEncoder(w).Encode(resp)
	case "/chat/completions":
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		u.mu.Lock()
		u.prompts = append(u.prompts, req.Messages[len(req.Messages)-1].Content)
		u.mu.Unlock()
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"` + u.answer + `"}}]}`))
	default:
		http.NotFound(w, r)
	}
}

func providerOptions(u *upstream, base *llmopts.ProviderOptions) *llmopts.ProviderOptions {
	base.BaseURL = u.URL
	base.APIKey = "test-key"
	return base
}

func ragOptions(t *testing.T) *ragopts.Options {
	opts := ragopts.NewOptions()
	opts.CorpusPath = filepath.Join(t.TempDir(), "data.json")
	return opts
}

func buildCorpus(t *testing.T, u *upstream, rag *ragopts.Options, docs string) {
	t.Helper()
	docsPath := filepath.Join(t.TempDir(), "docs.txt")
	require.NoError(t, os.WriteFile(docsPath, []byte(docs), 0o600))

	idx := indexeropts.NewOptions()
	idx.DocumentsFile = docsPath
	cfg := &IndexerConfig{
		LogOptions:       logopts.NewOptions(),
		EmbeddingOptions: providerOptions(u, llmopts.NewEmbeddingOptions()),
		RAGOptions:       rag,
		IndexerOptions:   idx,
	}
	require.NoError(t, cfg.RunIndexer(context.Background()))
}

func newTestServer(t *testing.T, u *upstream, rag *ragopts.Options) *Server {
	t.Helper()
	cfg := &Config{
		HTTPOptions:      httpopts.NewOptions(),
		LogOptions:       logopts.NewOptions(),
		EmbeddingOptions: providerOptions(u, llmopts.NewEmbeddingOptions()),
		ChatOptions:      providerOptions(u, llmopts.NewChatOptions()),
		RAGOptions:       rag,
	}
	s, err := cfg.NewServer(context.Background())
	require.NoError(t, err)
	return s
}

func ask(s *Server, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestIndexThenAsk(t *testing.T) {
	u := newUpstream(t)
	rag := ragOptions(t)
	buildCorpus(t, u, rag, "A capital do Brasil é Brasília.\n\nO céu é azul.\n")

	s := newTestServer(t, u, rag)
	w := ask(s, `{"pergunta":"Qual é a capital do Brasil?"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"resposta":"Brasília"}`, w.Body.String())

	u.mu.Lock()
	defer u.mu.Unlock()
	require.Len(t, u.prompts, 1)
	prompt := u.prompts[0]
	assert.Contains(t, prompt, "Pergunta: Qual é a capital do Brasil?")
	assert.Less(t, strings.Index(prompt, "Brasília."), strings.Index(prompt, "O céu é azul."))

	m := httptest.NewRecorder()
	s.Handler().ServeHTTP(m, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), `sentinel_ask_questions_total{outcome="answered"} 1`)
	assert.Contains(t, m.Body.String(), `sentinel_ask_http_requests_total{method="POST",route="/api/ask",status="200"} 1`)
}

func TestAskWithoutCorpus(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u, ragOptions(t))

	w := ask(s, `{"pergunta":"Qual é a capital do Brasil?"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Erro interno ao processar a pergunta")
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	u := newUpstream(t)
	rag := ragOptions(t)
	buildCorpus(t, u, rag, "A capital do Brasil é Brasília.\n")

	s := newTestServer(t, u, rag)
	w := ask(s, `{"pergunta":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Pergunta inválida")
}

func TestIndexerFailsWhenProviderDown(t *testing.T) {
	u := newUpstream(t)
	u.embedErr.Store(true)
	rag := ragOptions(t)

	cfg := &IndexerConfig{
		LogOptions:       logopts.NewOptions(),
		EmbeddingOptions: providerOptions(u, llmopts.NewEmbeddingOptions()),
		RAGOptions:       rag,
		IndexerOptions:   indexeropts.NewOptions(),
	}
	require.Error(t, cfg.RunIndexer(context.Background()))

	_, err := os.Stat(rag.CorpusPath)
	assert.True(t, os.IsNotExist(err), "no partial corpus is written")
}

func TestIndexerRejectsEmptyDocumentsFile(t *testing.T) {
	u := newUpstream(t)
	docsPath := filepath.Join(t.TempDir(), "docs.txt")
	require.NoError(t, os.WriteFile(docsPath, []byte("\n  \n"), 0o600))

	idx := indexeropts.NewOptions()
	idx.DocumentsFile = docsPath
	cfg := &IndexerConfig{
		LogOptions:       logopts.NewOptions(),
		EmbeddingOptions: providerOptions(u, llmopts.NewEmbeddingOptions()),
		RAGOptions:       ragOptions(t),
		IndexerOptions:   idx,
	}
	assert.Error(t, cfg.RunIndexer(context.Background()))
}
