package models

import (
	"context"
	"fmt"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// NewHostedModel creates a model.LLM for a hosted open-weights model served
// behind an OpenAI-compatible router (Hugging Face, OpenRouter, NIM).
func NewHostedModel(ctx context.Context, modelName string, cfg *genai.ClientConfig) (model.LLM, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.HTTPOptions.BaseURL == "" {
		return nil, fmt.Errorf("hosted model requires a base URL")
	}
	return newOpenAICompatible(modelName, cfg, "hosted-go")
}
