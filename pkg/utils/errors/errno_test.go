package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestMakeAndParseCode(t *testing.T) {
	code := MakeCode(ServiceAsk, CategoryNetwork, 2)
	assert.Equal(t, 2110002, code)

	service, category, seq := ParseCode(code)
	assert.Equal(t, ServiceAsk, service)
	assert.Equal(t, CategoryNetwork, category)
	assert.Equal(t, 2, seq)

	assert.True(t, IsClientError(ErrInvalidQuestion.Code))
	assert.True(t, IsServerError(ErrCorpusUnavailable.Code))
}

func TestAskCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *Errno
		code int
		http int
		grpc codes.Code
	}{
		{"invalid question", ErrInvalidQuestion, 2101001, http.StatusBadRequest, codes.InvalidArgument},
		{"corpus unavailable", ErrCorpusUnavailable, 2107001, http.StatusServiceUnavailable, codes.Unavailable},
		{"dimension mismatch", ErrDimensionMismatch, 2107002, http.StatusInternalServerError, codes.Internal},
		{"embedding provider", ErrEmbeddingProvider, 2110001, http.StatusBadGateway, codes.Unavailable},
		{"completion provider", ErrCompletionProvider, 2110002, http.StatusBadGateway, codes.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.http, tt.err.HTTPStatus())
			assert.Equal(t, tt.grpc, tt.err.GRPCStatus())

			registered, ok := Lookup(tt.code)
			require.True(t, ok)
			assert.Same(t, tt.err, registered)
		})
	}
}

func TestWithCauseKeepsSentinelIntact(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	wrapped := ErrEmbeddingProvider.WithCause(cause)

	assert.Nil(t, ErrEmbeddingProvider.Cause())
	assert.Equal(t, cause, wrapped.Cause())
	assert.True(t, stderrors.Is(wrapped, ErrEmbeddingProvider))
	assert.True(t, stderrors.Is(wrapped, cause))
	assert.False(t, stderrors.Is(wrapped, ErrCompletionProvider))
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestIsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("stage embed: %w", ErrEmbeddingProvider.WithCause(stderrors.New("boom")))

	assert.True(t, Is(err, ErrEmbeddingProvider))
	assert.Equal(t, ErrEmbeddingProvider.Code, GetCode(err))
	assert.Equal(t, ErrEmbeddingProvider.Code, FromError(err).Code)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	assert.Nil(t, FromError(nil))

	e := FromError(stderrors.New("plain"))
	assert.Equal(t, ErrInternal.Code, e.Code)
	assert.Equal(t, -1, GetCode(stderrors.New("plain")))
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register(New(ErrInvalidQuestion.Code, http.StatusBadRequest, codes.InvalidArgument, "dup", ""))
	})
}

func TestMessageLanguage(t *testing.T) {
	assert.Equal(t, "问题无效", ErrInvalidQuestion.Message("zh-CN"))
	assert.Equal(t, "Invalid question", ErrInvalidQuestion.Message("en"))
	assert.Equal(t, "custom", ErrInvalidQuestion.WithMessage("custom").MessageEN)
}

func TestFormatVerbose(t *testing.T) {
	err := ErrCorpusUnavailable.WithCause(stderrors.New("open data.json: no such file"))
	out := fmt.Sprintf("%+v", err)
	assert.Contains(t, out, "HTTP 503")
	assert.Contains(t, out, "caused by: open data.json")
}
