package models

import (
	"context"
	"log/slog"
	"strings"

	"github.com/easeaico/mindmate/internal/prompt"
	"github.com/easeaico/mindmate/internal/types"
)

const (
	defaultMaxTokens   = 350
	defaultTemperature = 0.75
)

// Result is the generated reply and the provider that produced it.
type Result struct {
	Text     string
	Provider types.ProviderID
}

// Generator produces replies through the registry's failover chain and
// degrades to the mock responder.
type Generator struct {
	registry *Registry
	mock     *MockResponder
}

// NewGenerator creates a generator. A nil mock uses the default tables.
func NewGenerator(registry *Registry, mock *MockResponder) *Generator {
	if mock == nil {
		mock = NewMockResponder()
	}
	return &Generator{registry: registry, mock: mock}
}

// Registry returns the registry the generator draws providers from.
func (g *Generator) Registry() *Registry {
	return g.registry
}

// Generate always returns a non-empty reply. Provider errors and panics are
// logged and fall through to the next provider, then to the mock responder.
func (g *Generator) Generate(ctx context.Context, systemPrompt string, messages []types.ChatMessage, userCtx *types.UserContext, maxTokens int, temperature float64) (result Result) {
	lastUser := lastUserMessage(messages)
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("response generation panicked, using mock", "error", rec)
			result = Result{Text: g.mock.Respond(lastUser, userCtx), Provider: types.ProviderMock}
		}
	}()

	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if temperature < 0 || temperature > 2 {
		temperature = defaultTemperature
	}

	enhanced := systemPrompt
	if block := prompt.BuildPersonalizationBlock(userCtx); block != "" {
		enhanced = strings.TrimRight(systemPrompt, "\n") + "\n\n" + block
	}

	req := types.GenerationRequest{
		SystemPrompt: enhanced,
		Messages:     messages,
		MaxTokens:    maxTokens,
		Temperature:  temperature,
	}

	attempt, err := Failover(ctx, g.registry.Live(), g.registry.Timeout(), req, nil)
	if err == nil {
		return Result{Text: attempt.Text, Provider: attempt.Provider}
	}

	slog.Warn("all providers unavailable, using mock responder", "error", err.Error())
	return Result{Text: g.mock.Respond(lastUser, userCtx), Provider: types.ProviderMock}
}

func lastUserMessage(messages []types.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
