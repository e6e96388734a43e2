package emotion

import "github.com/easeaico/mindmate/internal/types"

// ToneInstruction returns a short reply guideline for the user's current
// sentiment, or "" when no adjustment is needed.
func ToneInstruction(result types.SentimentResult) string {
	switch result.Sentiment {
	case types.SentimentNegative:
		if result.Intensity == types.IntensityHigh {
			return "The user sounds very distressed right now. Slow down, validate first, and keep suggestions very small."
		}
		return "The user sounds low. Lead with empathy before offering any idea."
	case types.SentimentPositive:
		return "The user sounds upbeat. Share their good energy and stay curious."
	default:
		return ""
	}
}
