// Package models adapts vendor clients to the ADK model.LLM interface and runs
// ordered failover across them.
package models

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"runtime"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// openaiModel wraps an OpenAI-compatible chat completions client.
type openaiModel struct {
	client             *openai.Client
	name               string
	versionHeaderValue string
}

// NewOpenAIModel creates a model.LLM backed by the OpenAI API. A base URL in
// cfg.HTTPOptions points the client at any OpenAI-compatible endpoint.
func NewOpenAIModel(ctx context.Context, modelName string, cfg *genai.ClientConfig) (model.LLM, error) {
	return newOpenAICompatible(modelName, cfg, "openai-go")
}

func newOpenAICompatible(modelName string, cfg *genai.ClientConfig, agent string) (*openaiModel, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// failover handles retries across providers
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.HTTPOptions.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	client := openai.NewClient(opts...)

	headerValue := fmt.Sprintf("%s/%s go/%s",
		agent, "1.0.0", strings.TrimPrefix(runtime.Version(), "go"))

	return &openaiModel{
		name:               modelName,
		client:             &client,
		versionHeaderValue: headerValue,
	}, nil
}

func (m *openaiModel) Name() string {
	return m.name
}

// GenerateContent always performs a blocking call; stream is accepted for
// interface compatibility and yields a single final response.
func (m *openaiModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *openaiModel) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}
	params := buildOpenAIParams(req, m.name)

	resp, err := m.client.Chat.Completions.New(ctx, *params, option.WithHeader("user-agent", m.versionHeaderValue))
	if err != nil {
		slog.Debug("chat completion call failed", "model", m.name, "error", err.Error())
		return nil, fmt.Errorf("failed to call chat completions API: %w", err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completions returned no choices")
	}

	message := resp.Choices[0].Message
	content := &genai.Content{
		Role:  genai.RoleModel,
		Parts: []*genai.Part{},
	}
	if message.Content != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: message.Content})
	}

	return &model.LLMResponse{
		Content:      content,
		TurnComplete: true,
	}, nil
}
