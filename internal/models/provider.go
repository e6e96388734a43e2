package models

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/mindmate/internal/types"
	"github.com/easeaico/mindmate/internal/utils"
)

// Provider is one generation backend in the failover chain.
type Provider interface {
	ID() types.ProviderID
	TryGenerate(ctx context.Context, req types.GenerationRequest) (string, error)
}

// llmProvider adapts an ADK model.LLM to Provider.
type llmProvider struct {
	id  types.ProviderID
	llm model.LLM
}

// NewLLMProvider wraps llm as the provider with the given id.
func NewLLMProvider(id types.ProviderID, llm model.LLM) Provider {
	return &llmProvider{id: id, llm: llm}
}

func (p *llmProvider) ID() types.ProviderID {
	return p.id
}

func (p *llmProvider) TryGenerate(ctx context.Context, req types.GenerationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	llmReq := buildLLMRequest(p.llm.Name(), req)
	var sb strings.Builder
	for resp, err := range p.llm.GenerateContent(ctx, llmReq, false) {
		if err != nil {
			return "", fmt.Errorf("failed to generate content with %s: %w", p.id, err)
		}
		if resp == nil || resp.Partial {
			continue
		}
		sb.WriteString(utils.ExtractContentText(resp.Content))
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%s returned an empty completion", p.id)
	}
	return text, nil
}

func buildLLMRequest(modelName string, req types.GenerationRequest) *model.LLMRequest {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		role := genai.RoleUser
		if msg.Role == types.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, genai.Role(role)))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = jsonMIMEType
	}

	return &model.LLMRequest{
		Model:    modelName,
		Contents: contents,
		Config:   cfg,
	}
}
