package search

import (
	"context"

	"github.com/atelierlabs/stylequery/internal/domain"
)

// Extractor classifies a prompt as fashion-related and derives structured
// filter constraints. The boolean is the in-domain flag; when it is false
// the returned filters are ignored.
type Extractor interface {
	Extract(ctx context.Context, prompt string) (domain.FilterSet, bool, error)
}

// Embedder converts a prompt into a dense query vector.
type Embedder interface {
	Embed(ctx context.Context, prompt string) ([]float32, error)
}

// Retriever runs the filtered nearest-neighbor query against the store,
// returning candidates in ascending-distance order.
type Retriever interface {
	Search(ctx context.Context, embedding []float32, filters domain.FilterSet) ([]domain.Candidate, error)
}

// Ranker reorders candidates by composite score.
type Ranker interface {
	Rank(candidates []domain.Candidate) []domain.RankedResult
}

// Composer produces a short natural-language summary of the results.
type Composer interface {
	Compose(ctx context.Context, prompt string, results []domain.RankedResult) (string, error)
}
