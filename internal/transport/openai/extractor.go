package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/atelierlabs/stylequery/internal/domain"
	"github.com/atelierlabs/stylequery/internal/metrics"
)

const extractionCapability = "extraction"

const extractorSystemPrompt = "You are a helpful assistant that extracts search filters " +
	"from a user's prompt. These filters are used when querying a SQL database which " +
	"contains data about fashion items in an e-commerce store. The ratings are rated " +
	"from 0-5. Every filter the prompt does not explicitly imply must be null."

// filterSchemaJSON is the fixed structured-output schema: a required
// fashion-relevance boolean plus eight required-but-nullable filter fields.
// No additional fields are permitted in the response.
const filterSchemaJSON = `{
  "type": "object",
  "properties": {
    "is_related_to_fashion": {
      "type": "boolean",
      "description": "Whether the user's prompt is about fashion items."
    },
    "min_price": {"type": ["number", "null"], "description": "Minimum price implied by the prompt."},
    "max_price": {"type": ["number", "null"], "description": "Maximum price implied by the prompt."},
    "min_avg_rating": {"type": ["number", "null"], "description": "Minimum average rating, 0-5 scale."},
    "max_avg_rating": {"type": ["number", "null"], "description": "Maximum average rating, 0-5 scale."},
    "min_rating_count": {"type": ["integer", "null"], "description": "Minimum number of ratings."},
    "max_rating_count": {"type": ["integer", "null"], "description": "Maximum number of ratings."},
    "store_name": {"type": ["string", "null"], "description": "Exact store name to match."},
    "discontinued": {
      "type": ["string", "null"],
      "enum": ["Yes", "No", null],
      "description": "Whether the item is discontinued."
    }
  },
  "required": [
    "is_related_to_fashion",
    "min_price", "max_price",
    "min_avg_rating", "max_avg_rating",
    "min_rating_count", "max_rating_count",
    "store_name", "discontinued"
  ],
  "additionalProperties": false
}`

// Extractor classifies a prompt as in-domain and derives structured filter
// constraints via constrained generation. It performs no local inference:
// every field the model returns as null stays null.
type Extractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewExtractor creates a relevance and filter extractor.
func NewExtractor(client *openai.Client, model string, logger *zap.Logger) *Extractor {
	return &Extractor{client: client, model: model, logger: logger}
}

// filterPayload mirrors the extraction schema. The relevance flag is a
// pointer so a payload that omits it is detected as a schema violation
// rather than silently defaulting to false.
type filterPayload struct {
	IsRelatedToFashion *bool    `json:"is_related_to_fashion"`
	MinPrice           *float64 `json:"min_price"`
	MaxPrice           *float64 `json:"max_price"`
	MinAvgRating       *float64 `json:"min_avg_rating"`
	MaxAvgRating       *float64 `json:"max_avg_rating"`
	MinRatingCount     *int     `json:"min_rating_count"`
	MaxRatingCount     *int     `json:"max_rating_count"`
	StoreName          *string  `json:"store_name"`
	Discontinued       *string  `json:"discontinued"`
}

// Extract returns the filters implied by the prompt and whether the prompt
// is fashion-related. When the second return value is false the filters are
// meaningless and the caller must ignore them.
func (e *Extractor) Extract(ctx context.Context, prompt string) (domain.FilterSet, bool, error) {
	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "fashion_search_filters",
				Schema: json.RawMessage(filterSchemaJSON),
				Strict: true,
			},
		},
	}

	start := time.Now()

	resp, err := e.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(extractionCapability, e.model, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(extractionCapability, e.model, "api_error").Inc()
		return domain.FilterSet{}, false, parseAPIError(extractionCapability, err)
	}

	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(extractionCapability, e.model, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(extractionCapability, e.model, "empty_response").Inc()
		return domain.FilterSet{}, false, fmt.Errorf("empty extraction response: %w", domain.ErrUpstream)
	}

	payload, err := parseFilterPayload(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(extractionCapability, e.model, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(extractionCapability, e.model, "schema_violation").Inc()
		return domain.FilterSet{}, false, err
	}

	metrics.LLMRequestsTotal.WithLabelValues(extractionCapability, e.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(extractionCapability, e.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(extractionCapability, e.model, "prompt").
			Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(extractionCapability, e.model, "total").
			Add(float64(resp.Usage.TotalTokens))
	}

	filters := domain.FilterSet{
		MinPrice:       payload.MinPrice,
		MaxPrice:       payload.MaxPrice,
		MinAvgRating:   payload.MinAvgRating,
		MaxAvgRating:   payload.MaxAvgRating,
		MinRatingCount: payload.MinRatingCount,
		MaxRatingCount: payload.MaxRatingCount,
		StoreName:      payload.StoreName,
	}
	if payload.Discontinued != nil {
		d := domain.Discontinued(*payload.Discontinued)
		filters.Discontinued = &d
	}

	return filters, *payload.IsRelatedToFashion, nil
}

// parseFilterPayload decodes the model output strictly against the schema.
func parseFilterPayload(content string) (filterPayload, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.DisallowUnknownFields()

	var payload filterPayload
	if err := dec.Decode(&payload); err != nil {
		return filterPayload{}, fmt.Errorf("decode extraction payload: %w", domain.ErrSchemaViolation)
	}
	if payload.IsRelatedToFashion == nil {
		return filterPayload{}, fmt.Errorf("missing is_related_to_fashion: %w", domain.ErrSchemaViolation)
	}
	if payload.Discontinued != nil && !domain.Discontinued(*payload.Discontinued).Valid() {
		return filterPayload{}, fmt.Errorf("discontinued must be Yes or No, got %q: %w",
			*payload.Discontinued, domain.ErrSchemaViolation)
	}
	return payload, nil
}
