package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/atelierlabs/stylequery/internal/domain"
	"github.com/atelierlabs/stylequery/internal/metrics"
)

const embeddingCapability = "embedding"

// Embedder converts a prompt into a dense vector via the embeddings API.
// Pure function of the prompt text: no caching, no batching — every request
// re-embeds. The vector is not normalized here; the store's cosine operator
// owns comparison semantics.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	logger     *zap.Logger
}

// NewEmbedder creates a query embedder for the given model and dimensions.
func NewEmbedder(client *openai.Client, model string, dimensions int, logger *zap.Logger) *Embedder {
	return &Embedder{
		client:     client,
		model:      openai.EmbeddingModel(model),
		dimensions: dimensions,
		logger:     logger,
	}
}

// Embed returns the embedding vector for the prompt.
func (e *Embedder) Embed(ctx context.Context, prompt string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{prompt},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()

	resp, err := e.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(embeddingCapability, string(e.model), "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(embeddingCapability, string(e.model), "api_error").Inc()
		return nil, parseAPIError(embeddingCapability, err)
	}

	if len(resp.Data) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(embeddingCapability, string(e.model), "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(embeddingCapability, string(e.model), "empty_response").Inc()
		return nil, fmt.Errorf("empty embedding response: %w", domain.ErrUpstream)
	}

	vector := resp.Data[0].Embedding
	if e.dimensions > 0 && len(vector) != e.dimensions {
		metrics.LLMRequestsTotal.WithLabelValues(embeddingCapability, string(e.model), "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(embeddingCapability, string(e.model), "dimension_mismatch").Inc()
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d: %w",
			len(vector), e.dimensions, domain.ErrUpstream)
	}

	metrics.LLMRequestsTotal.WithLabelValues(embeddingCapability, string(e.model), "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(embeddingCapability, string(e.model)).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(embeddingCapability, string(e.model), "prompt").
			Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(embeddingCapability, string(e.model), "total").
			Add(float64(resp.Usage.TotalTokens))
	}

	return vector, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
