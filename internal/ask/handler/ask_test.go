package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-ask/internal/ask/biz"
	"github.com/kart-io/sentinel-ask/internal/ask/handler"
	"github.com/kart-io/sentinel-ask/internal/ask/metrics"
	"github.com/kart-io/sentinel-ask/internal/ask/router"
	"github.com/kart-io/sentinel-ask/internal/ask/store"
	"github.com/kart-io/sentinel-ask/pkg/utils/errors"
	"github.com/kart-io/sentinel-ask/pkg/utils/json"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAsker struct {
	answer   string
	err      error
	question string
	called   bool
}

func (f *fakeAsker) Ask(_ context.Context, question string) (*biz.Answer, error) {
	f.called = true
	f.question = question
	if f.err != nil {
		return nil, f.err
	}
	if err := biz.ValidateQuestion(question); err != nil {
		return nil, err
	}
	return &biz.Answer{Text: f.answer}, nil
}

func serve(t *testing.T, asker handler.Asker, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	engine := router.New(handler.NewAskHandler(asker, nil, metrics.New()), router.Config{})

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://site.example")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAskSuccess(t *testing.T) {
	asker := &fakeAsker{answer: "Brasília."}
	w := serve(t, asker, http.MethodPost, "/api/ask", `{"pergunta":"Qual a capital do Brasil?"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Brasília.", decode(t, w)["resposta"])
	assert.Equal(t, "Qual a capital do Brasil?", asker.question)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAskBadBodies(t *testing.T) {
	for name, body := range map[string]string{
		"missing field": `{}`,
		"not a string":  `{"pergunta": 42}`,
		"null":          `{"pergunta": null}`,
		"malformed":     `{"pergunta":`,
		"empty body":    ``,
	} {
		t.Run(name, func(t *testing.T) {
			asker := &fakeAsker{}
			w := serve(t, asker, http.MethodPost, "/api/ask", body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			out := decode(t, w)
			assert.Equal(t, handler.MsgInvalidQuestion, out["error"])
			assert.EqualValues(t, errors.ErrInvalidQuestion.Code, out["code"])
			assert.False(t, asker.called)
		})
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	w := serve(t, &fakeAsker{}, http.MethodPost, "/api/ask", `{"pergunta":"   "}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handler.MsgInvalidQuestion, decode(t, w)["error"])
}

func TestAskUpstreamFailureHidesCause(t *testing.T) {
	asker := &fakeAsker{err: errors.ErrEmbeddingProvider.WithCause(assert.AnError)}
	w := serve(t, asker, http.MethodPost, "/api/ask", `{"pergunta":"oi"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	out := decode(t, w)
	assert.Equal(t, handler.MsgInternal, out["error"])
	assert.EqualValues(t, errors.ErrEmbeddingProvider.Code, out["code"])
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestAskCorpusUnavailableStatus(t *testing.T) {
	w := serve(t, &fakeAsker{err: errors.ErrCorpusUnavailable}, http.MethodPost, "/api/ask", `{"pergunta":"oi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAskMethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := serve(t, &fakeAsker{}, method, "/api/ask", "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.Equal(t, handler.MsgMethodNotAllowed, decode(t, w)["error"])
	}
}

func TestAskPreflight(t *testing.T) {
	asker := &fakeAsker{}
	w := serve(t, asker, http.MethodOptions, "/api/ask", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, asker.called)
}

func TestNotFound(t *testing.T) {
	w := serve(t, &fakeAsker{}, http.MethodPost, "/api/nope", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStats(t *testing.T) {
	src := store.NewFileSource(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, src.Save(context.Background(), []store.Record{{ID: "1", Text: "a", Embedding: []float32{1}}}))
	corpus := store.NewCorpusStore(src)
	m := metrics.New()

	engine := router.New(handler.NewAskHandler(&fakeAsker{}, corpus, m), router.Config{})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["corpus_loaded"])

	_, err := corpus.Load(context.Background())
	require.NoError(t, err)
	m.RecordQuestion(metrics.OutcomeAnswered)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	out := decode(t, w)
	assert.Equal(t, true, out["corpus_loaded"])
	assert.EqualValues(t, 1, out["corpus_records"])
	assert.EqualValues(t, 1, out["metrics"].(map[string]any)["answered"])
}

func TestHealth(t *testing.T) {
	w := serve(t, &fakeAsker{}, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}
