package emotion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/easeaico/mindmate/internal/models"
	"github.com/easeaico/mindmate/internal/types"
	"github.com/easeaico/mindmate/internal/utils"
)

const analyzerInstruction = `You are a sentiment analyzer for a mental well-being app.
Return ONLY a JSON object with this exact shape and nothing else:
{"sentiment":"positive|negative|neutral","score":<number from -1 to 1>,"emotions":["up to 3 single-word emotions"],"intensity":"low|medium|high"}`

// Analyzer classifies text with the primary provider and falls back to
// keyword counting. Callers get the same result shape either way.
type Analyzer struct {
	provider models.Provider
	timeout  time.Duration
}

// NewAnalyzer returns an Analyzer. provider may be nil.
func NewAnalyzer(provider models.Provider, timeout time.Duration) *Analyzer {
	return &Analyzer{provider: provider, timeout: timeout}
}

// NewAnalyzerFromRegistry uses the registry's primary provider only.
func NewAnalyzerFromRegistry(registry *models.Registry) *Analyzer {
	provider, _ := registry.Get(types.ProviderPrimaryLLM)
	return NewAnalyzer(provider, registry.Timeout())
}

// Analyze never fails.
func (a *Analyzer) Analyze(ctx context.Context, text string) types.SentimentResult {
	if strings.TrimSpace(text) == "" {
		return Neutral()
	}
	if a == nil || a.provider == nil {
		return KeywordSentiment(text)
	}

	result, err := a.analyzeWithProvider(ctx, text)
	if err != nil {
		slog.Warn("sentiment provider failed, using keyword model", "provider", a.provider.ID(), "error", err.Error())
		return KeywordSentiment(text)
	}
	return result
}

func (a *Analyzer) analyzeWithProvider(ctx context.Context, text string) (result types.SentimentResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("sentiment provider panicked: %v", rec)
		}
	}()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.provider.TryGenerate(ctx, types.GenerationRequest{
		SystemPrompt: analyzerInstruction,
		Messages:     []types.ChatMessage{{Role: types.RoleUser, Content: text}},
		MaxTokens:    150,
		Temperature:  0.1,
		JSON:         true,
	})
	if err != nil {
		return types.SentimentResult{}, err
	}
	return ParseSentiment(raw)
}

// ParseSentiment decodes and validates model output.
func ParseSentiment(raw string) (types.SentimentResult, error) {
	var out struct {
		Sentiment string   `json:"sentiment"`
		Score     *float64 `json:"score"`
		Emotions  []string `json:"emotions"`
		Intensity string   `json:"intensity"`
	}
	if err := utils.DecodeJSONObject(raw, &out); err != nil {
		return types.SentimentResult{}, err
	}

	sentiment := strings.ToLower(strings.TrimSpace(out.Sentiment))
	switch sentiment {
	case types.SentimentPositive, types.SentimentNegative, types.SentimentNeutral:
	default:
		return types.SentimentResult{}, fmt.Errorf("invalid sentiment label: %q", out.Sentiment)
	}
	if out.Score == nil {
		return types.SentimentResult{}, fmt.Errorf("missing score")
	}

	intensity := strings.ToLower(strings.TrimSpace(out.Intensity))
	switch intensity {
	case types.IntensityLow, types.IntensityMedium, types.IntensityHigh:
	default:
		intensity = types.IntensityLow
	}

	return types.SentimentResult{
		Sentiment: sentiment,
		Score:     ClampScore(*out.Score),
		Emotions:  normalizeEmotions(out.Emotions),
		Intensity: intensity,
	}, nil
}
