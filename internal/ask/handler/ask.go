// Package handler provides HTTP handlers for the ask service.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-ask/internal/ask/biz"
	"github.com/kart-io/sentinel-ask/internal/ask/metrics"
	"github.com/kart-io/sentinel-ask/internal/ask/store"
	"github.com/kart-io/sentinel-ask/pkg/middleware/common"
	"github.com/kart-io/sentinel-ask/pkg/utils/errors"
	"github.com/kart-io/sentinel-ask/pkg/utils/json"
)

// maxBodyBytes caps the request body of POST /api/ask.
const maxBodyBytes = 64 << 10

// Client-facing messages. Upstream details never reach the response body.
const (
	MsgInvalidQuestion  = "Pergunta inválida"
	MsgMethodNotAllowed = "Método não permitido"
	MsgInternal         = "Erro interno ao processar a pergunta"
	MsgNotFound         = "Recurso não encontrado"
)

// Asker answers questions.
type Asker interface {
	Ask(ctx context.Context, question string) (*biz.Answer, error)
}

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Pergunta *string `json:"pergunta"`
}

// AskResponse is the success body of POST /api/ask.
type AskResponse struct {
	Resposta string `json:"resposta"`
}

// ErrorResponse is the failure body.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      int    `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// AskHandler handles question requests.
type AskHandler struct {
	asker   Asker
	corpus  *store.CorpusStore
	metrics *metrics.AskMetrics
}

// NewAskHandler creates a new AskHandler. corpus and m may be nil, in which
// case the stats endpoint reports only what it has.
func NewAskHandler(asker Asker, corpus *store.CorpusStore, m *metrics.AskMetrics) *AskHandler {
	return &AskHandler{asker: asker, corpus: corpus, metrics: m}
}

// Ask answers the question in the request body.
func (h *AskHandler) Ask(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		h.reject(c, "unreadable body", err)
		return
	}

	var req AskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.reject(c, "malformed body", err)
		return
	}
	if req.Pergunta == nil {
		h.reject(c, "missing pergunta", nil)
		return
	}

	answer, err := h.asker.Ask(ctx, *req.Pergunta)
	if err != nil {
		h.fail(c, err)
		return
	}

	writeJSON(c, http.StatusOK, AskResponse{Resposta: answer.Text})
}

// Stats reports pipeline counters and corpus state.
func (h *AskHandler) Stats(c *gin.Context) {
	resp := gin.H{}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	if h.corpus != nil {
		corpus, loaded := h.corpus.Loaded()
		resp["corpus_loaded"] = loaded
		if loaded {
			resp["corpus_records"] = corpus.Len()
		}
	}
	writeJSON(c, http.StatusOK, resp)
}

// Health reports liveness.
func (h *AskHandler) Health(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// MethodNotAllowed answers requests whose method no route accepts.
func MethodNotAllowed(c *gin.Context) {
	writeJSON(c, http.StatusMethodNotAllowed, ErrorResponse{
		Error: MsgMethodNotAllowed,
		Code:  errors.ErrMethodNotAllowed.Code,
	})
}

// NotFound answers requests for unknown paths.
func NotFound(c *gin.Context) {
	writeJSON(c, http.StatusNotFound, ErrorResponse{
		Error: MsgNotFound,
		Code:  errors.ErrNotFound.Code,
	})
}

func (h *AskHandler) reject(c *gin.Context, reason string, cause error) {
	fields := []any{"request_id", common.GetRequestID(c.Request.Context()), "reason", reason}
	if cause != nil {
		fields = append(fields, "error", cause.Error())
	}
	logger.Infow("ask request rejected", fields...)

	if h.metrics != nil {
		h.metrics.RecordQuestion(metrics.OutcomeRejected)
	}
	h.fail(c, errors.ErrInvalidQuestion)
}

func (h *AskHandler) fail(c *gin.Context, err error) {
	e := errors.FromError(err)
	msg := MsgInternal
	if biz.StateOf(e) == biz.StateRejected {
		msg = MsgInvalidQuestion
	}

	writeJSON(c, e.HTTPStatus(), ErrorResponse{
		Error:     msg,
		Code:      e.Code,
		RequestID: common.GetRequestID(c.Request.Context()),
	})
}

// writeJSON renders v with the shared codec.
func writeJSON(c *gin.Context, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Errorw("failed to encode response", "error", err.Error())
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}
