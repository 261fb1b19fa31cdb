package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atelierlabs/stylequery/internal/domain"
	"github.com/atelierlabs/stylequery/internal/logger"
	"github.com/atelierlabs/stylequery/internal/metrics"
)

// User-visible pipeline messages. The decline message is fixed: an
// out-of-domain prompt is never an error.
const (
	declineMessage = "Looks like you're searching for something outside of fashion! " +
		"Try asking about clothing, accessories, or fashion items instead."
	noMatchesWarning  = "No items matched your criteria. Try broadening your search!"
	fewMatchesWarning = "Not many items were found. Try broadening your search!"
)

// fewMatchesThreshold is the result count below which the advisory
// few-matches warning is attached.
const fewMatchesThreshold = 5

// Service orchestrates the query pipeline:
// extract -> (decline | embed) -> retrieve -> rank -> compose.
type Service struct {
	extract     Extractor
	embed       Embedder
	retrieve    Retriever
	rank        Ranker
	compose     Composer
	callTimeout time.Duration
}

// New creates the search pipeline. callTimeout bounds each upstream call
// individually; zero disables per-call timeouts.
func New(extract Extractor, embed Embedder, retrieve Retriever, rank Ranker, compose Composer, callTimeout time.Duration) *Service {
	return &Service{
		extract:     extract,
		embed:       embed,
		retrieve:    retrieve,
		rank:        rank,
		compose:     compose,
		callTimeout: callTimeout,
	}
}

// Search answers one prompt. Extractor, embedder, and retriever failures
// are fatal; a composer failure degrades to results without a
// recommendation. An empty candidate set is a valid outcome carried via a
// warning, never an error.
//
// The embedder only runs after classification so that out-of-domain
// prompts never cost an embedding call.
func (s *Service) Search(ctx context.Context, prompt string) (domain.SearchResponse, error) {
	filters, inDomain, err := s.extractFilters(ctx, prompt)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return domain.SearchResponse{}, fmt.Errorf("extract filters: %w", err)
	}

	if !inDomain {
		metrics.SearchRequestsTotal.WithLabelValues("declined").Inc()
		return domain.SearchResponse{
			Results:  []domain.RankedResult{},
			Warnings: []string{declineMessage},
			// No filters applied: extractor output is ignored for
			// out-of-domain prompts.
			FiltersApplied: domain.FilterSet{},
		}, nil
	}

	embedding, err := s.embedPrompt(ctx, prompt)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return domain.SearchResponse{}, fmt.Errorf("embed prompt: %w", err)
	}

	candidates, err := s.retrieveCandidates(ctx, embedding, filters)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return domain.SearchResponse{}, fmt.Errorf("retrieve candidates: %w", err)
	}

	// Ranking runs unconditionally, even on an empty list.
	results := s.rank.Rank(candidates)

	resp := domain.SearchResponse{
		Results:        results,
		Warnings:       []string{},
		FiltersApplied: filters,
	}

	if len(results) == 0 {
		metrics.SearchRequestsTotal.WithLabelValues("empty").Inc()
		resp.Warnings = append(resp.Warnings, noMatchesWarning)
		return resp, nil
	}
	if len(results) < fewMatchesThreshold {
		resp.Warnings = append(resp.Warnings, fewMatchesWarning)
	}

	if rec, ok := s.composeRecommendation(ctx, prompt, results); ok {
		resp.Recommendation = &rec
	}

	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	return resp, nil
}

func (s *Service) extractFilters(ctx context.Context, prompt string) (domain.FilterSet, bool, error) {
	cctx, cancel := s.withCallTimeout(ctx)
	defer cancel()
	return s.extract.Extract(cctx, prompt)
}

func (s *Service) embedPrompt(ctx context.Context, prompt string) ([]float32, error) {
	ectx, cancel := s.withCallTimeout(ctx)
	defer cancel()
	return s.embed.Embed(ectx, prompt)
}

func (s *Service) retrieveCandidates(ctx context.Context, embedding []float32, filters domain.FilterSet) ([]domain.Candidate, error) {
	rctx, cancel := s.withCallTimeout(ctx)
	defer cancel()
	return s.retrieve.Search(rctx, embedding, filters)
}

// composeRecommendation fails open: a failed composition is logged and the
// results are delivered without a recommendation.
func (s *Service) composeRecommendation(ctx context.Context, prompt string, results []domain.RankedResult) (string, bool) {
	cctx, cancel := s.withCallTimeout(ctx)
	defer cancel()

	rec, err := s.compose.Compose(cctx, prompt, results)
	if err != nil {
		metrics.RecommendationFailuresTotal.Inc()
		logger.FromContext(ctx).Warn("recommendation composition failed, returning results without it",
			zap.Error(err))
		return "", false
	}
	return rec, true
}

func (s *Service) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.callTimeout)
}
