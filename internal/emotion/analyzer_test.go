package emotion

import (
	"context"
	"errors"
	"testing"

	"github.com/easeaico/mindmate/internal/types"
)

type fakeProvider struct {
	reply string
	err   error
	calls int
}

func (p *fakeProvider) ID() types.ProviderID {
	return types.ProviderPrimaryLLM
}

func (p *fakeProvider) TryGenerate(ctx context.Context, req types.GenerationRequest) (string, error) {
	p.calls++
	return p.reply, p.err
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func TestAnalyzeKeywordPositive(t *testing.T) {
	got := NewAnalyzer(nil, 0).Analyze(context.Background(), "I am so happy and grateful today")
	if got.Sentiment != types.SentimentPositive || got.Score <= 0 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if !contains(got.Emotions, "happy") || !contains(got.Emotions, "grateful") {
		t.Fatalf("expected happy and grateful in emotions, got %v", got.Emotions)
	}
	if got.Intensity != types.IntensityMedium {
		t.Fatalf("expected medium intensity, got %s", got.Intensity)
	}
}

func TestAnalyzeKeywordNegative(t *testing.T) {
	got := NewAnalyzer(nil, 0).Analyze(context.Background(), "I feel hopeless and exhausted")
	if got.Sentiment != types.SentimentNegative || got.Score >= 0 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestKeywordSentimentNoMatches(t *testing.T) {
	got := KeywordSentiment("The bus was late")
	if got.Sentiment != types.SentimentNeutral || got.Score != 0 || got.Intensity != types.IntensityLow {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestKeywordSentimentCapsEmotions(t *testing.T) {
	got := KeywordSentiment("sad, lonely, anxious, worried and exhausted")
	if len(got.Emotions) != 3 {
		t.Fatalf("expected 3 emotions, got %v", got.Emotions)
	}
	if got.Intensity != types.IntensityHigh {
		t.Fatalf("expected high intensity, got %s", got.Intensity)
	}
}

func TestAnalyzeUsesProvider(t *testing.T) {
	provider := &fakeProvider{reply: "```json\n{\"sentiment\":\"Negative\",\"score\":-3,\"emotions\":[\"Sad\",\"tired\",\"alone\",\"extra\"],\"intensity\":\"HIGH\"}\n```"}
	got := NewAnalyzer(provider, 0).Analyze(context.Background(), "whatever")
	if got.Sentiment != types.SentimentNegative || got.Score != -1 || got.Intensity != types.IntensityHigh {
		t.Fatalf("unexpected result: %+v", got)
	}
	if len(got.Emotions) != 3 || got.Emotions[0] != "sad" {
		t.Fatalf("unexpected emotions: %v", got.Emotions)
	}
}

func TestAnalyzeFallsBackOnProviderFailure(t *testing.T) {
	cases := []*fakeProvider{
		{err: errors.New("unauthorized")},
		{reply: "I think it's positive"},
		{reply: `{"sentiment":"ecstatic","score":0.9}`},
	}
	for i, provider := range cases {
		got := NewAnalyzer(provider, 0).Analyze(context.Background(), "I am so happy and grateful today")
		if got.Sentiment != types.SentimentPositive || got.Score != 1 {
			t.Fatalf("case %d: expected keyword fallback, got %+v", i, got)
		}
	}
}

func TestAnalyzeEmptyTextSkipsProvider(t *testing.T) {
	provider := &fakeProvider{reply: `{"sentiment":"positive","score":1}`}
	got := NewAnalyzer(provider, 0).Analyze(context.Background(), "   ")
	if provider.calls != 0 || got.Sentiment != types.SentimentNeutral {
		t.Fatalf("unexpected result %+v with %d calls", got, provider.calls)
	}
}
