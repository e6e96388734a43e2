// Package emotion scores free text for sentiment and intensity.
package emotion

import (
	"strings"

	"github.com/easeaico/mindmate/internal/types"
)

const (
	positiveThreshold = 0.2
	negativeThreshold = -0.2
	maxEmotions       = 3
)

// ClassifyScore maps a score in [-1,1] to a sentiment label.
func ClassifyScore(score float64) string {
	switch {
	case score > positiveThreshold:
		return types.SentimentPositive
	case score < negativeThreshold:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}

// ClassifyMatches maps a keyword match count to an intensity label.
func ClassifyMatches(n int) string {
	switch {
	case n > 3:
		return types.IntensityHigh
	case n > 1:
		return types.IntensityMedium
	default:
		return types.IntensityLow
	}
}

// ClampScore bounds score to [-1,1].
func ClampScore(score float64) float64 {
	switch {
	case score < -1:
		return -1
	case score > 1:
		return 1
	default:
		return score
	}
}

// Neutral is the result for empty input.
func Neutral() types.SentimentResult {
	return types.SentimentResult{
		Sentiment: types.SentimentNeutral,
		Score:     0,
		Emotions:  []string{},
		Intensity: types.IntensityLow,
	}
}

func normalizeEmotions(emotions []string) []string {
	out := make([]string, 0, maxEmotions)
	for _, e := range emotions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		out = append(out, e)
		if len(out) == maxEmotions {
			break
		}
	}
	return out
}
