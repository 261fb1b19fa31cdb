package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/atelierlabs/stylequery/internal/domain"
	"github.com/atelierlabs/stylequery/internal/metrics"
)

const compositionCapability = "composition"

// composerDigestLimit bounds how many top results are described to the model.
const composerDigestLimit = 5

const composerSystemPrompt = "You are a helpful assistant that provides recommendations " +
	"to a user based on their query. Use the provided original user query and the " +
	"recommended items (title, price, rating) to provide a recommendation. This " +
	"recommendation should be no more than 2 sentences."

// Composer turns a ranked result set into a short natural-language summary.
// Callers treat a failure here as non-fatal: results are delivered without a
// recommendation.
type Composer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewComposer creates a recommendation composer.
func NewComposer(client *openai.Client, model string, logger *zap.Logger) *Composer {
	return &Composer{client: client, model: model, logger: logger}
}

// Compose returns the model's summary of the top results, verbatim.
func (c *Composer) Compose(ctx context.Context, prompt string, results []domain.RankedResult) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: composerSystemPrompt + "\n\nRecommended items:\n" + digest(results)},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(compositionCapability, c.model, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(compositionCapability, c.model, "api_error").Inc()
		return "", parseAPIError(compositionCapability, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.LLMRequestsTotal.WithLabelValues(compositionCapability, c.model, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(compositionCapability, c.model, "empty_response").Inc()
		return "", fmt.Errorf("empty composition response: %w", domain.ErrUpstream)
	}

	metrics.LLMRequestsTotal.WithLabelValues(compositionCapability, c.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(compositionCapability, c.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(compositionCapability, c.model, "prompt").
			Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(compositionCapability, c.model, "total").
			Add(float64(resp.Usage.TotalTokens))
	}

	return resp.Choices[0].Message.Content, nil
}

// digest renders a compact description of the top results for the model.
func digest(results []domain.RankedResult) string {
	var b strings.Builder
	for i, r := range results {
		if i >= composerDigestLimit {
			break
		}
		fmt.Fprintf(&b, "%d. %s", i+1, r.Title)
		if r.Price != nil {
			fmt.Fprintf(&b, " — $%.2f", *r.Price)
		}
		fmt.Fprintf(&b, ", %.1f stars (%d ratings)\n", r.AverageRating, r.RatingNumber)
	}
	return b.String()
}
