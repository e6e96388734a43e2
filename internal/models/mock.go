package models

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/easeaico/mindmate/internal/types"
	"github.com/easeaico/mindmate/internal/utils"
)

var (
	tiredPattern    = regexp.MustCompile(`(?i)\b(?:tired|exhausted|sleepy|can'?t sleep|insomnia|no sleep|drained)`)
	stressedPattern = regexp.MustCompile(`(?i)\b(?:stress|anxi|overwhelm|panic|nervous|worried)`)
	greetingPattern = regexp.MustCompile(`(?i)^\s*(?:hi|hello|hey|good (?:morning|afternoon|evening)|howdy)\b`)
)

// MockReplies maps keyword categories to canned replies.
type MockReplies struct {
	Category utils.Category
	Reply    string
}

// DefaultMockReplies is consulted in order; the first matching category wins.
var DefaultMockReplies = []MockReplies{
	{
		Category: utils.KeywordCategory("stress", `stress|anxi|overwhelm|pressure|panic`),
		Reply:    "It sounds like you're carrying a lot right now. Would it help to talk through what's weighing on you most, or would you like to try a short breathing exercise together?",
	},
	{
		Category: utils.KeywordCategory("sad", `sad|down|depress|unhappy|cry|hopeless`),
		Reply:    "I'm sorry you're feeling this way. Your feelings are valid, and you don't have to go through them alone. What's been on your mind?",
	},
	{
		Category: utils.KeywordCategory("sleep", `sleep|tired|insomnia|exhausted|rest`),
		Reply:    "Sleep can affect so much of how we feel. How have your nights been lately? Sometimes a calm wind-down routine makes a real difference.",
	},
	{
		Category: utils.KeywordCategory("anger", `angry|anger|furious|mad|frustrat|irritat`),
		Reply:    "That sounds really frustrating. It's okay to feel angry. Do you want to tell me what happened?",
	},
	{
		Category: utils.KeywordCategory("loneliness", `lonely|alone|isolated|no one|nobody`),
		Reply:    "Feeling alone can be so hard. I'm here with you right now. Would you like to talk about what's been making you feel this way?",
	},
	{
		Category: utils.KeywordCategory("happy", `happy|great|good|excited|grateful|wonderful|joy`),
		Reply:    "That's lovely to hear! What's been bringing you this good energy? I'd love to hear more.",
	},
	{
		Category: utils.KeywordCategory("help", `help|support|advice|what should i`),
		Reply:    "I'm here to help however I can. Can you tell me a bit more about what's going on so we can figure it out together?",
	},
}

// DefaultFallbacks are generic empathetic replies used when nothing matches.
var DefaultFallbacks = []string{
	"I'm here and listening. Tell me more about what's on your mind.",
	"Thank you for sharing that with me. How are you feeling about it right now?",
	"That sounds important. What would be most helpful for you in this moment?",
	"I appreciate you opening up. What's been the hardest part of your day?",
	"I'm glad you reached out. Would you like to talk it through together?",
}

// MockResponder produces contextual canned replies without any network call.
type MockResponder struct {
	Replies   []MockReplies
	Fallbacks []string
	// Pick returns an index in [0,n). Defaults to a random source.
	Pick func(n int) int
}

// NewMockResponder returns a responder over the default tables.
func NewMockResponder() *MockResponder {
	return &MockResponder{
		Replies:   DefaultMockReplies,
		Fallbacks: DefaultFallbacks,
		Pick:      rand.IntN,
	}
}

// Respond returns a non-empty reply for message given the user context.
func (m *MockResponder) Respond(message string, userCtx *types.UserContext) string {
	if userCtx != nil {
		if avg, ok := average(userCtx.RecentMoods); ok {
			if avg < 4 {
				return fmt.Sprintf("I've noticed things have felt heavy for you lately%s. I'm really glad you're here. Would you like to share what's been hardest, or try something small and gentle together?", nameSuffix(userCtx.Name))
			}
			if avg > 7 {
				return fmt.Sprintf("You've been in a really good place recently%s, and that's wonderful to see! What's been helping you feel this way?", nameSuffix(userCtx.Name))
			}
		}
		if userCtx.LastSleep != nil && userCtx.LastSleep.DurationHours < 6 && tiredPattern.MatchString(message) {
			return fmt.Sprintf("It looks like you only got about %.1f hours of sleep, so feeling worn out makes sense. Would you like a few tips for winding down tonight?", userCtx.LastSleep.DurationHours)
		}
		if userCtx.StressLevel != nil && *userCtx.StressLevel >= 4 && stressedPattern.MatchString(message) {
			return "Your stress has been running high. Let's try grounding together: name five things you can see, four you can touch, and three you can hear. Want to give it a go?"
		}
		if userCtx.Name != "" && greetingPattern.MatchString(message) {
			return fmt.Sprintf("Hi %s! It's good to hear from you. How are you feeling today?", userCtx.Name)
		}
	}

	categories := make([]utils.Category, len(m.Replies))
	for i, r := range m.Replies {
		categories[i] = r.Category
	}
	if i := utils.FirstMatch(categories, message); i >= 0 {
		return m.Replies[i].Reply
	}

	fallbacks := m.Fallbacks
	if len(fallbacks) == 0 {
		fallbacks = DefaultFallbacks
	}
	pick := m.Pick
	if pick == nil {
		pick = rand.IntN
	}
	idx := pick(len(fallbacks))
	if idx < 0 || idx >= len(fallbacks) {
		idx = 0
	}
	return fallbacks[idx]
}

func nameSuffix(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return ", " + name
}

func average(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}
