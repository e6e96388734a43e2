package agent

import (
	"fmt"
	"slices"
	"strings"

	"github.com/easeaico/mindmate/internal/types"
)

const maxSuggestions = 4

// Times of day accepted by SuggestActivities.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
	Night     = "night"
)

var timeOfDaySuggestions = map[string]types.ActivitySuggestion{
	Morning: {
		Activity: "Gentle morning stretching",
		Reason:   "Loosens the body and sets a calm tone for the day",
		Duration: "5-10 minutes",
		Priority: 2,
	},
	Afternoon: {
		Activity: "Mindful break away from screens",
		Reason:   "A short reset helps with the afternoon slump",
		Duration: "5 minutes",
		Priority: 2,
	},
	Evening: {
		Activity: "Wind-down routine before bed",
		Reason:   "Dim lights and a slower pace prepare the body for sleep",
		Duration: "20-30 minutes",
		Priority: 2,
	},
	Night: {
		Activity: "Body-scan relaxation in bed",
		Reason:   "Releasing tension muscle by muscle makes it easier to fall asleep",
		Duration: "10 minutes",
		Priority: 1,
	},
}

// SuggestActivities returns at most four suggestions ordered by priority.
func (c *Companion) SuggestActivities(mood int, timeOfDay string) ([]types.ActivitySuggestion, error) {
	if mood < 1 || mood > 10 {
		return nil, ErrInvalidMood
	}
	timeOfDay = strings.ToLower(strings.TrimSpace(timeOfDay))
	timed, ok := timeOfDaySuggestions[timeOfDay]
	if !ok {
		return nil, ErrInvalidTimeOfDay
	}

	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	userCtx := c.userCtx.Clone()
	c.mu.Unlock()

	var suggestions []types.ActivitySuggestion
	switch {
	case mood <= 4:
		suggestions = append(suggestions,
			types.ActivitySuggestion{
				Activity: "Guided breathing or short meditation",
				Reason:   "Slow breathing calms the nervous system when things feel heavy",
				Duration: "5 minutes",
				Priority: 1,
			},
			types.ActivitySuggestion{
				Activity: "Reach out to someone you trust",
				Reason:   "Sharing how you feel can lighten the load",
				Duration: "10-15 minutes",
				Priority: 3,
			},
		)
	case mood <= 7:
		suggestions = append(suggestions, types.ActivitySuggestion{
			Activity: "Short walk outside",
			Reason:   "Light movement and fresh air can lift your energy",
			Duration: "15 minutes",
			Priority: 2,
		})
	default:
		suggestions = append(suggestions, types.ActivitySuggestion{
			Activity: "Write down three things you're grateful for",
			Reason:   "Noticing what went well helps good days stick",
			Duration: "5 minutes",
			Priority: 3,
		})
	}

	suggestions = append(suggestions, timed)

	if userCtx != nil {
		if len(userCtx.Patterns.EffectiveActivities) > 0 {
			activity := userCtx.Patterns.EffectiveActivities[0]
			suggestions = append(suggestions, types.ActivitySuggestion{
				Activity:     activity,
				Reason:       fmt.Sprintf("%s has helped you feel better before", activity),
				Duration:     "15-20 minutes",
				Priority:     2,
				Personalized: true,
			})
		}
		if userCtx.StressLevel != nil && *userCtx.StressLevel >= 4 {
			suggestions = append(suggestions, types.ActivitySuggestion{
				Activity:     "Progressive muscle relaxation",
				Reason:       "Your recent stress levels have been high",
				Duration:     "10 minutes",
				Priority:     2,
				Personalized: true,
			})
		}
		if userCtx.LastSleep != nil && userCtx.LastSleep.DurationHours < 6 && timeOfDay == Afternoon {
			suggestions = append(suggestions, types.ActivitySuggestion{
				Activity:     "Short power nap",
				Reason:       "You slept less than usual last night",
				Duration:     "20 minutes",
				Priority:     3,
				Personalized: true,
			})
		}
	}

	suggestions = append(suggestions, types.ActivitySuggestion{
		Activity: "Quick journal check-in",
		Reason:   "Putting thoughts on paper helps you notice patterns",
		Duration: "5-10 minutes",
		Priority: 4,
	})

	slices.SortStableFunc(suggestions, func(a, b types.ActivitySuggestion) int {
		return a.Priority - b.Priority
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, nil
}
