package biz

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-ask/internal/ask/metrics"
	"github.com/kart-io/sentinel-ask/pkg/utils/errors"
)

func TestEmbedderSuccess(t *testing.T) {
	m := metrics.New()
	e := NewEmbedder(&fakeEmbedder{def: []float32{0.1, 0.2}}, m)

	v, err := e.Embed(context.Background(), "oi")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, v)
	assert.Equal(t, uint64(1), m.Snapshot().EmbeddingCalls)
}

func TestEmbedderRejectsUnusableVectors(t *testing.T) {
	tests := []struct {
		name string
		vec  []float32
		err  error
	}{
		{"empty", []float32{}, ErrEmptyVector},
		{"nil", nil, ErrEmptyVector},
		{"all zeros", []float32{0, 0, 0}, ErrZeroVector},
		{"nan", []float32{1, float32(math.NaN())}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			_, err := NewEmbedder(&fakeEmbedder{def: tt.vec}, m).Embed(context.Background(), "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrEmbeddingProvider))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
			assert.Equal(t, uint64(1), m.Snapshot().EmbeddingErrors)
		})
	}
}

func TestEmbedderProviderError(t *testing.T) {
	cause := stderrors.New("status 500")
	_, err := NewEmbedder(&fakeEmbedder{err: cause}, nil).Embed(context.Background(), "x")

	assert.True(t, errors.Is(err, errors.ErrEmbeddingProvider))
	assert.ErrorIs(t, err, cause)
}
