package embed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider scripts per-call behavior: calls counts invocations and
// failOn marks which call numbers (1-based) return an error.
type stubProvider struct {
	dim    int
	calls  int
	failOn map[int]bool
	last   []string
}

func (s *stubProvider) EmbedTexts(_ context.Context, texts []string, dim int) ([][]float32, error) {
	s.calls++
	s.last = texts
	if s.failOn[s.calls] {
		return nil, errors.New("quota exceeded")
	}
	d := s.dim
	if d == 0 {
		d = dim
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, d)
		for j := range vec {
			vec[j] = float32(i + 1)
		}
		out[i] = vec
	}
	return out, nil
}

func TestEmbedSingle(t *testing.T) {
	t.Run("provider result passes through", func(t *testing.T) {
		p := &stubProvider{dim: 8}
		g := New(p)
		vec := g.Embed(context.Background(), "hello", Options{Dimensions: 8})
		require.Len(t, vec, 8)
		assert.Equal(t, float32(1), vec[0])
	})

	t.Run("provider failure falls back to deterministic mock", func(t *testing.T) {
		p := &stubProvider{failOn: map[int]bool{1: true, 2: true}}
		g := New(p)
		a := g.Embed(context.Background(), "hello", Options{Dimensions: 16})
		b := g.Embed(context.Background(), "hello", Options{Dimensions: 16})
		require.Len(t, a, 16)
		assert.Equal(t, a, b)
		assert.Equal(t, MockVector(16), a)
	})

	t.Run("normalize yields unit vector", func(t *testing.T) {
		p := &stubProvider{dim: 32}
		g := New(p)
		vec := g.Embed(context.Background(), "hello", Options{Dimensions: 32, Normalize: true})

		var sum float64
		for _, x := range vec {
			sum += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
	})

	t.Run("input truncated to token budget", func(t *testing.T) {
		p := &stubProvider{dim: 4}
		g := New(p)
		long := strings.Repeat("a", 1000)
		g.Embed(context.Background(), long, Options{Dimensions: 4, MaxTokens: 10})
		require.Len(t, p.last, 1)
		assert.Len(t, p.last[0], 40) // 10 tokens * 4 chars
	})

	t.Run("truncation never splits a rune", func(t *testing.T) {
		p := &stubProvider{dim: 4}
		g := New(p)
		long := strings.Repeat("é", 1000) // 2 bytes per rune
		g.Embed(context.Background(), long, Options{Dimensions: 4, MaxTokens: 10})
		require.Len(t, p.last, 1)
		assert.True(t, utf8.ValidString(p.last[0]))
		assert.Equal(t, 40, utf8.RuneCountInString(p.last[0]))
	})
}

func TestEmbedBatch(t *testing.T) {
	t.Run("failing middle batch isolates its items", func(t *testing.T) {
		texts := make([]string, 9)
		for i := range texts {
			texts[i] = fmt.Sprintf("text-%d", i)
		}
		p := &stubProvider{dim: 4, failOn: map[int]bool{2: true}}
		g := New(p)

		res := g.EmbedBatch(context.Background(), texts, Options{Dimensions: 4, BatchSize: 3})

		assert.Equal(t, 3, p.calls)
		require.Len(t, res.Successful, 6) // batches 1 and 3
		require.Len(t, res.Failed, 3)     // all of batch 2

		var gotIdx []int
		for _, e := range res.Successful {
			gotIdx = append(gotIdx, e.Index)
		}
		assert.Equal(t, []int{0, 1, 2, 6, 7, 8}, gotIdx)

		for i, f := range res.Failed {
			assert.Equal(t, fmt.Sprintf("text-%d", i+3), f.Content)
			assert.NotEmpty(t, f.Error)
		}
	})

	t.Run("nil provider embeds everything with the mock", func(t *testing.T) {
		g := New(nil)
		res := g.EmbedBatch(context.Background(), []string{"a", "b"}, Options{Dimensions: 8})
		require.Len(t, res.Successful, 2)
		assert.Empty(t, res.Failed)
		assert.Equal(t, MockVector(8), res.Successful[0].Vector)
	})

	t.Run("empty input", func(t *testing.T) {
		g := New(&stubProvider{})
		res := g.EmbedBatch(context.Background(), nil, Options{})
		assert.Empty(t, res.Successful)
		assert.Empty(t, res.Failed)
	})
}

func TestMockVectorDeterministic(t *testing.T) {
	assert.Equal(t, MockVector(64), MockVector(64))
	assert.Len(t, MockVector(DefaultDimension), 1536)
}
