// Package insight summarizes a user's wellbeing data into structured insights.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/easeaico/mindmate/internal/models"
	"github.com/easeaico/mindmate/internal/types"
)

const insightInstruction = `You are a supportive well-being analyst. Summarize the user's data below.
Be warm and non-clinical. Never diagnose.
Return ONLY a JSON object matching this JSON schema, with no extra keys:
%s`

// Generator asks providers for structured insights and falls back to LocalSummary.
type Generator struct {
	registry *models.Registry
}

// NewGenerator returns a Generator over registry.
func NewGenerator(registry *models.Registry) *Generator {
	return &Generator{registry: registry}
}

// Generate never fails. Provider output that does not match the insights
// shape counts as a provider failure.
func (g *Generator) Generate(ctx context.Context, data types.UserData) (result types.Insights) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("insight generation panicked, using local summary", "error", rec)
			result = LocalSummary(data)
		}
	}()

	var providers []models.Provider
	if g != nil {
		providers = g.registry.Live()
	}
	if len(providers) == 0 {
		return LocalSummary(data)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		slog.Warn("failed to encode user data for insights", "error", err.Error())
		return LocalSummary(data)
	}

	req := types.GenerationRequest{
		SystemPrompt: fmt.Sprintf(insightInstruction, SchemaJSON()),
		Messages:     []types.ChatMessage{{Role: types.RoleUser, Content: string(payload)}},
		MaxTokens:    800,
		Temperature:  0.4,
		JSON:         true,
	}

	var parsed types.Insights
	accept := func(text string) error {
		out, err := ParseInsights(text)
		if err != nil {
			return err
		}
		parsed = out
		return nil
	}

	attempt, err := models.Failover(ctx, providers, g.registry.Timeout(), req, accept)
	if err != nil {
		slog.Warn("no provider produced insights, using local summary", "error", err.Error())
		return LocalSummary(data)
	}
	slog.Info("insights generated", "provider", attempt.Provider)
	return parsed
}
