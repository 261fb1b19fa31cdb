// Package openai adapts the OpenAI-compatible model service to the three
// narrow capabilities the pipeline consumes: structured filter extraction,
// query embedding, and free-text recommendation composition.
package openai

import (
	openai "github.com/sashabaranov/go-openai"
)

// NewClient creates an OpenAI-compatible API client. BaseURL may point at
// any compatible endpoint; empty means the default OpenAI API.
func NewClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}
