package similarity

import (
	"math"
	"sort"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/models"
)

// Metric selects the distance function for FindSimilar.
type Metric string

const (
	MetricCosine    Metric = "cosine"
	MetricEuclidean Metric = "euclidean"
)

// Cosine returns the cosine similarity of two equal-length vectors.
// A zero vector scores 0 against anything.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, core.ErrDimensionMismatch
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Euclidean returns the euclidean distance of two equal-length vectors.
func Euclidean(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, core.ErrDimensionMismatch
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Candidate is one scored record in FindSimilar's input.
type Candidate struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  models.ChunkMetadata
}

// SearchOptions tunes FindSimilar.
type SearchOptions struct {
	TopK      int
	Threshold float64
	Metric    Metric
}

// FindSimilar scores every candidate against the query, filters by
// threshold, sorts descending and truncates to TopK. Euclidean distance
// is converted to 1/(1+d) so threshold and ranking behave uniformly
// across metrics. Linear scan; meant for the in-memory fallback path,
// not as a primary index.
func FindSimilar(query []float32, candidates []Candidate, opts SearchOptions) ([]models.SimilarityResult, error) {
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	metric := opts.Metric
	if metric == "" {
		metric = MetricCosine
	}

	results := make([]models.SimilarityResult, 0, len(candidates))
	for _, c := range candidates {
		var score float64
		var err error
		switch metric {
		case MetricEuclidean:
			var d float64
			d, err = Euclidean(query, c.Embedding)
			score = 1 / (1 + d)
		default:
			score, err = Cosine(query, c.Embedding)
		}
		if err != nil {
			return nil, err
		}
		if score < opts.Threshold {
			continue
		}
		results = append(results, models.SimilarityResult{
			ID:       c.ID,
			Content:  c.Content,
			Score:    score,
			Metadata: c.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	return results, nil
}

// Normalize scales v to unit L2 length in place and returns it.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}
