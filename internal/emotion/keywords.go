package emotion

import (
	"strings"

	"github.com/easeaico/mindmate/internal/types"
)

// PositiveWords and NegativeWords are matched as case-insensitive substrings.
var (
	PositiveWords = []string{
		"happy", "grateful", "thankful", "joy", "excited", "calm", "peaceful",
		"hopeful", "proud", "relieved", "love", "content", "optimistic",
		"great", "wonderful", "better", "motivated", "confident",
	}
	NegativeWords = []string{
		"sad", "hopeless", "exhausted", "anxious", "stressed", "angry", "lonely",
		"depressed", "worried", "tired", "overwhelmed", "afraid", "scared",
		"hurt", "frustrated", "worthless", "empty", "miserable", "panic",
	}
)

// KeywordSentiment scores text by counting positive and negative words.
func KeywordSentiment(text string) types.SentimentResult {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return Neutral()
	}

	var matched []string
	pos := 0
	for _, w := range PositiveWords {
		if strings.Contains(lower, w) {
			pos++
			matched = append(matched, w)
		}
	}
	neg := 0
	for _, w := range NegativeWords {
		if strings.Contains(lower, w) {
			neg++
			matched = append(matched, w)
		}
	}

	score := 0.0
	if total := pos + neg; total > 0 {
		score = float64(pos-neg) / float64(total)
	}

	return types.SentimentResult{
		Sentiment: ClassifyScore(score),
		Score:     score,
		Emotions:  normalizeEmotions(matched),
		Intensity: ClassifyMatches(pos + neg),
	}
}
