package embed

import (
	"context"
	"log/slog"
	"math"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/core/similarity"
	"github.com/markdave123-py/vectora/internal/models"
)

const (
	DefaultDimension = 1536
	DefaultBatchSize = 20
	DefaultMaxTokens = 8000

	// charsPerToken matches the estimator used by the chunker.
	charsPerToken = 4
)

// Options tunes one embed call.
//
// Dimensions: vector length the provider should return (and the mock
//             fallback produces).
// MaxTokens:  input budget; text beyond ~4*MaxTokens characters is
//             truncated before the provider call.
// Normalize:  L2-normalize returned vectors.
// BatchSize:  inputs per provider request in EmbedBatch.
type Options struct {
	Dimensions int
	MaxTokens  int
	Normalize  bool
	BatchSize  int
}

func (o Options) withDefaults() Options {
	if o.Dimensions <= 0 {
		o.Dimensions = DefaultDimension
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o
}

// Embedded is one successful batch item, tied back to its input slot.
type Embedded struct {
	Index   int
	Content string
	Vector  []float32
}

// BatchResult reports partial success across batches: a batch-level
// provider failure moves every item of that batch to Failed.
type BatchResult struct {
	Successful []Embedded
	Failed     []models.FailedEmbedding
}

// Generator converts text into fixed-dimension vectors through an
// external provider, with a deterministic local fallback so the
// pipeline stays exercisable without one.
type Generator struct {
	provider core.EmbeddingProvider
	logger   *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New builds a Generator. provider may be nil, in which case every
// embed resolves to the mock vector.
func New(provider core.EmbeddingProvider, opts ...Option) *Generator {
	g := &Generator{provider: provider, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Embed converts one text into a vector. Provider failure is recovered
// locally with the deterministic mock vector, never surfaced.
func (g *Generator) Embed(ctx context.Context, text string, opts Options) []float32 {
	opts = opts.withDefaults()
	text = truncate(text, opts.MaxTokens)

	vec := g.callProvider(ctx, []string{text}, opts)
	var out []float32
	if len(vec) == 1 && len(vec[0]) > 0 {
		out = vec[0]
	} else {
		out = MockVector(opts.Dimensions)
	}
	if opts.Normalize {
		out = similarity.Normalize(out)
	}
	return out
}

// EmbedBatch chunks texts into provider batches. One failing batch
// reassigns all of its items to Failed; other batches proceed.
func (g *Generator) EmbedBatch(ctx context.Context, texts []string, opts Options) BatchResult {
	opts = opts.withDefaults()

	var res BatchResult
	for start := 0; start < len(texts); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := make([]string, end-start)
		for i, t := range texts[start:end] {
			batch[i] = truncate(t, opts.MaxTokens)
		}

		vecs, err := g.embedOnce(ctx, batch, opts)
		if err != nil {
			g.logger.Warn("embedding batch failed", "batch_start", start, "size", len(batch), "err", err)
			for _, t := range texts[start:end] {
				res.Failed = append(res.Failed, models.FailedEmbedding{Content: t, Error: err.Error()})
			}
			continue
		}
		for i, v := range vecs {
			if opts.Normalize {
				v = similarity.Normalize(v)
			}
			res.Successful = append(res.Successful, Embedded{Index: start + i, Content: texts[start+i], Vector: v})
		}
	}
	return res
}

func (g *Generator) embedOnce(ctx context.Context, batch []string, opts Options) ([][]float32, error) {
	if g.provider == nil {
		out := make([][]float32, len(batch))
		for i := range out {
			out[i] = MockVector(opts.Dimensions)
		}
		return out, nil
	}
	vecs, err := g.provider.EmbedTexts(ctx, batch, opts.Dimensions)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(batch) {
		return nil, core.ErrDimensionMismatch
	}
	return vecs, nil
}

// callProvider is the single-embed path: any provider error degrades to
// nil so the caller substitutes the mock vector.
func (g *Generator) callProvider(ctx context.Context, texts []string, opts Options) [][]float32 {
	if g.provider == nil {
		return nil
	}
	vecs, err := g.provider.EmbedTexts(ctx, texts, opts.Dimensions)
	if err != nil {
		g.logger.Warn("embedding provider failed, using deterministic fallback", "err", err)
		return nil
	}
	return vecs
}

// truncate caps text at the approximate character budget for maxTokens.
// The cut lands on a rune boundary so the provider never receives a
// torn multi-byte sequence.
func truncate(text string, maxTokens int) string {
	limit := maxTokens * charsPerToken
	if len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// MockVector is the deterministic fallback: a fixed function of the
// dimension index, so repeated calls and unit tests are reproducible.
func MockVector(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(math.Sin(float64(i))*0.5 + math.Cos(float64(i)/2)*0.5)
	}
	return v
}
