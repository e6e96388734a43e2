package insight

import (
	"fmt"

	"github.com/easeaico/mindmate/internal/types"
)

const (
	positiveMood = 7.0
	lowMood      = 4.0
	shortSleep   = 6.0
	enoughSleep  = 7.0
)

// LocalSummary builds insights from simple averages without any provider.
// AreasOfStrength and Recommendations are never empty.
func LocalSummary(data types.UserData) types.Insights {
	out := types.Insights{
		AreasOfStrength: []string{},
		AreasForGrowth:  []string{},
		Recommendations: []string{},
		Patterns:        []string{},
		Encouragement:   "Every check-in is a step toward understanding yourself better. Be gentle with yourself.",
	}

	if avg, ok := averageMood(data.Moods); ok {
		switch {
		case avg >= positiveMood:
			out.OverallMood = fmt.Sprintf("Your mood has been mostly positive lately (average %.1f/10).", avg)
			out.AreasOfStrength = append(out.AreasOfStrength, "Maintaining a positive mood")
		case avg <= lowMood:
			out.OverallMood = fmt.Sprintf("Things seem to have been hard lately (average mood %.1f/10). It's okay to struggle, and support is here.", avg)
			out.AreasForGrowth = append(out.AreasForGrowth, "Finding small sources of relief on difficult days")
			out.Recommendations = append(out.Recommendations, "Try one small mood-lifting activity each day, like a short walk or reaching out to someone you trust")
		default:
			out.OverallMood = fmt.Sprintf("Your mood has been fairly balanced (average %.1f/10), with ups and downs.", avg)
		}
	} else {
		out.OverallMood = "Not enough mood data yet to see a clear picture."
	}

	if avg, ok := averageSleep(data.Sleep); ok {
		switch {
		case avg < shortSleep:
			out.SleepQuality = fmt.Sprintf("You've averaged %.1f hours of sleep, which is less than most people need.", avg)
			out.AreasForGrowth = append(out.AreasForGrowth, "Getting more consistent rest")
			out.Recommendations = append(out.Recommendations, "Aim for a regular bedtime and a screen-free wind-down for 30 minutes before sleep")
		case avg >= enoughSleep:
			out.SleepQuality = fmt.Sprintf("You've been sleeping well, averaging %.1f hours.", avg)
			out.AreasOfStrength = append(out.AreasOfStrength, "Healthy sleep habits")
		default:
			out.SleepQuality = fmt.Sprintf("Your sleep has been moderate, averaging %.1f hours.", avg)
		}
	} else {
		out.SleepQuality = "No sleep data available."
	}

	if len(data.Journals) > 0 {
		out.AreasOfStrength = append(out.AreasOfStrength, "Regular reflection through journaling")
		negative := 0
		for _, j := range data.Journals {
			if j.Sentiment == types.SentimentNegative {
				negative++
			}
		}
		if negative > 0 {
			out.Patterns = append(out.Patterns, fmt.Sprintf("%d of your recent journal entries reflect difficult emotions", negative))
			out.Recommendations = append(out.Recommendations, "When writing feels heavy, try ending each entry with one thing you can do to care for yourself")
		}
	}

	for _, a := range latestAssessments(data.Assessments) {
		line := fmt.Sprintf("Latest %s score: %d", a.Kind, a.Score)
		if a.Severity != "" {
			line += fmt.Sprintf(" (%s)", a.Severity)
		}
		out.Patterns = append(out.Patterns, line)
	}

	if data.LearnedPattern != nil {
		for _, activity := range data.LearnedPattern.EffectiveActivities {
			out.AreasOfStrength = append(out.AreasOfStrength, fmt.Sprintf("Knowing that %s helps you", activity))
		}
		if trend := data.LearnedPattern.SleepTrend; trend != "" {
			out.Patterns = append(out.Patterns, fmt.Sprintf("Sleep trend: %s", trend))
		}
	}

	if len(out.AreasOfStrength) == 0 {
		out.AreasOfStrength = append(out.AreasOfStrength, "Showing up for your own well-being by checking in")
	}
	if len(out.Recommendations) == 0 {
		out.Recommendations = append(out.Recommendations, "Keep logging your mood daily so patterns become easier to spot")
	}
	return out
}

func averageMood(moods []types.MoodEntry) (float64, bool) {
	if len(moods) == 0 {
		return 0, false
	}
	var sum float64
	for _, m := range moods {
		sum += m.Rating
	}
	return sum / float64(len(moods)), true
}

func averageSleep(sleep []types.SleepEntry) (float64, bool) {
	if len(sleep) == 0 {
		return 0, false
	}
	var sum float64
	for _, s := range sleep {
		sum += s.DurationHours
	}
	return sum / float64(len(sleep)), true
}

// latestAssessments keeps the newest result per kind, in first-seen order.
func latestAssessments(results []types.AssessmentResult) []types.AssessmentResult {
	index := make(map[string]int)
	var out []types.AssessmentResult
	for _, r := range results {
		if i, ok := index[r.Kind]; ok {
			if r.CreatedAt.After(out[i].CreatedAt) {
				out[i] = r
			}
			continue
		}
		index[r.Kind] = len(out)
		out = append(out, r)
	}
	return out
}
