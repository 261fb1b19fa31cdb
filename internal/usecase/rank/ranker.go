// Package rank recomputes the final order of retrieved candidates. The
// store only orders by raw similarity; the composite score here is what
// realizes the multi-factor guarantee.
package rank

import (
	"math"
	"sort"

	"github.com/atelierlabs/stylequery/internal/domain"
)

// DefaultPopularityCap is the review count beyond which popularity stops
// contributing. Keeps a handful of extremely reviewed items from dominating
// on volume alone.
const DefaultPopularityCap = 10000

// Weights is the convex combination of the three sub-scores. Semantic
// similarity is the primary signal; rating and popularity adjust quality.
type Weights struct {
	Semantic   float64
	Rating     float64
	Popularity float64
}

// DefaultWeights returns the standard 0.7/0.2/0.1 combination.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.7, Rating: 0.2, Popularity: 0.1}
}

// Ranker orders candidates by composite score, deterministically.
type Ranker struct {
	weights       Weights
	popularityCap int
}

// New creates a ranker. Zero-value weights or cap fall back to defaults.
func New(weights Weights, popularityCap int) *Ranker {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	if popularityCap <= 0 {
		popularityCap = DefaultPopularityCap
	}
	return &Ranker{weights: weights, popularityCap: popularityCap}
}

// Rank scores every candidate on a 0-1 scale and sorts descending by score.
// Ties break by ascending cosine distance, then by parent ASIN, so the
// order is a deterministic total order. Empty input yields empty output.
func (r *Ranker) Rank(candidates []domain.Candidate) []domain.RankedResult {
	results := make([]domain.RankedResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, domain.RankedResult{
			Candidate: c,
			Score:     r.score(c),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].CosineDistance != results[j].CosineDistance {
			return results[i].CosineDistance < results[j].CosineDistance
		}
		return results[i].ParentASIN < results[j].ParentASIN
	})

	for i := range results {
		results[i].Position = i + 1
	}

	return results
}

// score computes the convex combination of the normalized sub-scores.
func (r *Ranker) score(c domain.Candidate) float64 {
	// Cosine distance is bounded in [0,2]; similarity is clamped to [0,1].
	semantic := clamp01(1 - c.CosineDistance)
	rating := clamp01(c.AverageRating / 5.0)
	popularity := clamp01(math.Log1p(float64(c.RatingNumber)) / math.Log1p(float64(r.popularityCap)))

	return r.weights.Semantic*semantic + r.weights.Rating*rating + r.weights.Popularity*popularity
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
