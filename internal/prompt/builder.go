// Package prompt assembles the personalization blocks injected into the
// companion's system prompt.
package prompt

import (
	"bytes"
	"log/slog"
	"strings"
	"text/template"

	"github.com/easeaico/mindmate/internal/types"
)

// Mood trend labels.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

const (
	trendDelta       = 0.5
	maxSessionTopics = 5
	maxAvoidPhrases  = 3
)

var funcs = template.FuncMap{"join": strings.Join}

// MoodTrend compares the mean of the first half of moods with the mean of the
// second half. Fewer than two samples are stable.
func MoodTrend(moods []float64) string {
	if len(moods) < 2 {
		return TrendStable
	}
	half := len(moods) / 2
	first := mean(moods[:half])
	second := mean(moods[half:])
	switch diff := second - first; {
	case diff > trendDelta:
		return TrendImproving
	case diff < -trendDelta:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// BuildPersonalizationBlock renders the long-term context sections that are
// present in userCtx, in fixed order. It returns "" for a nil context.
func BuildPersonalizationBlock(userCtx *types.UserContext) string {
	if userCtx == nil {
		return ""
	}

	data := struct {
		Name          string
		HasMoods      bool
		MoodAverage   float64
		MoodTrend     string
		LastSleep     *types.SleepRecord
		HasStress     bool
		StressLevel   float64
		JournalThemes []string
		TopConcerns   []string
		LastActivity  string
		Insights      []string
	}{
		Name:          strings.TrimSpace(userCtx.Name),
		HasMoods:      len(userCtx.RecentMoods) > 0,
		MoodAverage:   mean(userCtx.RecentMoods),
		MoodTrend:     MoodTrend(userCtx.RecentMoods),
		LastSleep:     userCtx.LastSleep,
		HasStress:     userCtx.StressLevel != nil,
		JournalThemes: userCtx.RecentJournalThemes,
		TopConcerns:   userCtx.TopConcerns,
		LastActivity:  strings.TrimSpace(userCtx.LastActivity),
		Insights:      userCtx.LearningInsights,
	}

	if userCtx.StressLevel != nil {
		data.StressLevel = *userCtx.StressLevel
	}

	return render(personalizationTemplate, data)
}

// BuildSessionBlock renders the short-term block: the most recent unique
// session topics and the last phrases to avoid. It returns "" when both are empty.
func BuildSessionBlock(sessionTopics, recentPhrases []string) string {
	topics := recentUnique(sessionTopics, maxSessionTopics)
	phrases := recentPhrases
	if len(phrases) > maxAvoidPhrases {
		phrases = phrases[len(phrases)-maxAvoidPhrases:]
	}
	if len(topics) == 0 && len(phrases) == 0 {
		return ""
	}

	data := struct {
		Topics  []string
		Phrases []string
	}{Topics: topics, Phrases: phrases}

	return render(sessionTemplate, data)
}

func render(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		slog.Warn("failed to render prompt block", "template", tmpl.Name(), "error", err.Error())
		return ""
	}
	return buf.String()
}

// recentUnique returns up to n unique values, most recent last.
func recentUnique(values []string, n int) []string {
	seen := make(map[string]bool)
	var out []string
	for i := len(values) - 1; i >= 0 && len(out) < n; i-- {
		v := strings.TrimSpace(values[i])
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
