package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/atelierlabs/stylequery/internal/domain"
)

// chatServer answers /chat/completions with the given message content.
func chatServer(t *testing.T, content string, inspect func(body map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if inspect != nil {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("invalid request body: %v", err)
			} else {
				inspect(body)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": %s}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 40, "completion_tokens": 30, "total_tokens": 70}
		}`, mustJSONString(content))
	}))
}

func mustJSONString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

const inDomainPayload = `{
	"is_related_to_fashion": true,
	"min_price": null, "max_price": 75,
	"min_avg_rating": 4, "max_avg_rating": null,
	"min_rating_count": null, "max_rating_count": null,
	"store_name": null, "discontinued": null
}`

func TestExtract_InDomainFilters(t *testing.T) {
	var sentSchema bool
	server := chatServer(t, inDomainPayload, func(body map[string]any) {
		rf, _ := body["response_format"].(map[string]any)
		if rf["type"] == "json_schema" {
			sentSchema = true
		}
	})
	defer server.Close()

	ext := NewExtractor(NewClient("test-key", server.URL), "test-model", zap.NewNop())

	filters, inDomain, err := ext.Extract(context.Background(), "stylish dresses under $75 with at least 4-star ratings")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !inDomain {
		t.Error("expected in-domain classification")
	}
	if !sentSchema {
		t.Error("request must use json_schema structured output")
	}
	if filters.MaxPrice == nil || *filters.MaxPrice != 75 {
		t.Errorf("max_price not extracted: %v", filters.MaxPrice)
	}
	if filters.MinAvgRating == nil || *filters.MinAvgRating != 4 {
		t.Errorf("min_avg_rating not extracted: %v", filters.MinAvgRating)
	}
	if filters.MinPrice != nil || filters.StoreName != nil || filters.Discontinued != nil {
		t.Errorf("null fields must stay nil: %+v", filters)
	}
}

func TestExtract_OutOfDomain(t *testing.T) {
	payload := `{
		"is_related_to_fashion": false,
		"min_price": null, "max_price": null,
		"min_avg_rating": null, "max_avg_rating": null,
		"min_rating_count": null, "max_rating_count": null,
		"store_name": null, "discontinued": null
	}`
	server := chatServer(t, payload, nil)
	defer server.Close()

	ext := NewExtractor(NewClient("test-key", server.URL), "test-model", zap.NewNop())

	_, inDomain, err := ext.Extract(context.Background(), "What is the capital of Japan?")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if inDomain {
		t.Error("expected out-of-domain classification")
	}
}

func TestExtract_DiscontinuedEnum(t *testing.T) {
	payload := `{
		"is_related_to_fashion": true,
		"min_price": null, "max_price": null,
		"min_avg_rating": null, "max_avg_rating": null,
		"min_rating_count": null, "max_rating_count": null,
		"store_name": null, "discontinued": "Yes"
	}`
	server := chatServer(t, payload, nil)
	defer server.Close()

	ext := NewExtractor(NewClient("test-key", server.URL), "test-model", zap.NewNop())

	filters, _, err := ext.Extract(context.Background(), "discontinued sneakers")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if filters.Discontinued == nil || *filters.Discontinued != domain.DiscontinuedYes {
		t.Errorf("discontinued not extracted: %v", filters.Discontinued)
	}
}

func TestExtract_SchemaViolations(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", `dresses are related to fashion`},
		{"missing relevance flag", `{"min_price": null, "max_price": null, "min_avg_rating": null,
			"max_avg_rating": null, "min_rating_count": null, "max_rating_count": null,
			"store_name": null, "discontinued": null}`},
		{"unknown field", `{"is_related_to_fashion": true, "min_price": null, "max_price": null,
			"min_avg_rating": null, "max_avg_rating": null, "min_rating_count": null,
			"max_rating_count": null, "store_name": null, "discontinued": null, "brand": "acme"}`},
		{"invalid enum", `{"is_related_to_fashion": true, "min_price": null, "max_price": null,
			"min_avg_rating": null, "max_avg_rating": null, "min_rating_count": null,
			"max_rating_count": null, "store_name": null, "discontinued": "Maybe"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := chatServer(t, tc.payload, nil)
			defer server.Close()

			ext := NewExtractor(NewClient("test-key", server.URL), "test-model", zap.NewNop())

			_, _, err := ext.Extract(context.Background(), "red dresses")
			if !errors.Is(err, domain.ErrSchemaViolation) {
				t.Fatalf("expected ErrSchemaViolation, got %v", err)
			}
		})
	}
}

func TestExtract_APIErrorWrapsUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail":"gateway error"}`))
	}))
	defer server.Close()

	ext := NewExtractor(NewClient("test-key", server.URL), "test-model", zap.NewNop())

	_, _, err := ext.Extract(context.Background(), "red dresses")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
