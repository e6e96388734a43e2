package agent

import (
	"regexp"
	"strings"

	"github.com/easeaico/mindmate/internal/utils"
)

// TopicTable is the fixed conversation topic table. A message may match several topics.
var TopicTable = []utils.Category{
	utils.KeywordCategory("stress", `stress|overwhelm|pressure|burn(?:ed|t)? ?out`),
	utils.KeywordCategory("sleep", `sleep|insomnia|tired|exhausted|nightmare|rest(?:less)?\b`),
	utils.KeywordCategory("work", `work|job|boss|career|office|deadline|colleague|coworker`),
	utils.KeywordCategory("relationships", `relationship|partner|boyfriend|girlfriend|husband|wife|friend|dating|breakup|family`),
	utils.KeywordCategory("anxiety", `anxi|panic|worr|nervous|fear`),
	utils.KeywordCategory("depression", `depress|hopeless|empty|numb|worthless|sad\b`),
	utils.KeywordCategory("loneliness", `lonely|alone|isolat|no one|nobody`),
	utils.KeywordCategory("self-esteem", `confiden|self[- ]?esteem|not good enough|hate myself|insecur|failure`),
	utils.KeywordCategory("health", `health|sick|ill\b|pain|doctor|headache|medication`),
	utils.KeywordCategory("gratitude", `grateful|thankful|gratitude|appreciat|blessed`),
	utils.KeywordCategory("exercise", `exercis|workout|gym|run(?:ning)?\b|walk|yoga|swim`),
	utils.KeywordCategory("nutrition", `eat|food|diet|meal|appetite|hungry|nutrition`),
}

// StressorTable is the fixed stressor category table.
var StressorTable = []utils.Category{
	utils.KeywordCategory("work", `work|job|boss|deadline|career|colleague|coworker|office`),
	utils.KeywordCategory("family", `family|mom|mother|dad|father|parent|sibling|brother|sister|kids?\b|children`),
	utils.KeywordCategory("relationship", `relationship|partner|boyfriend|girlfriend|husband|wife|breakup|divorce|dating`),
	utils.KeywordCategory("financial", `money|financ|debt|rent|bills?\b|loan|afford|salary|broke\b`),
}

var namePattern = regexp.MustCompile(`(?i)\b(?:my name is|i'm|i’m|call me)\s+([\p{L}]+)`)

// nonNames are words that commonly follow "I'm" but are not names.
var nonNames = map[string]bool{
	"ok": true, "okay": true, "fine": true, "good": true, "great": true, "well": true,
	"tired": true, "sad": true, "happy": true, "not": true, "so": true, "just": true,
	"feeling": true, "going": true, "really": true, "very": true, "here": true,
	"sorry": true, "stressed": true, "anxious": true, "worried": true, "scared": true,
	"exhausted": true, "alright": true, "back": true, "still": true, "also": true,
	"trying": true, "being": true, "having": true, "doing": true, "getting": true,
	"sick": true, "lonely": true, "bored": true, "angry": true, "upset": true,
	"depressed": true, "overwhelmed": true, "a": true, "an": true, "the": true,
}

// DetectName extracts a self-introduced name, normalized to title case.
// The first token that is 2-20 letters and not a common non-name word wins.
func DetectName(text string) (string, bool) {
	for _, m := range namePattern.FindAllStringSubmatch(text, -1) {
		if name, ok := normalizeName(m[1]); ok {
			return name, true
		}
	}
	return "", false
}

func normalizeName(token string) (string, bool) {
	runes := []rune(token)
	if len(runes) < 2 || len(runes) > 20 {
		return "", false
	}
	lower := strings.ToLower(token)
	if nonNames[lower] {
		return "", false
	}
	lowerRunes := []rune(lower)
	return strings.ToUpper(string(lowerRunes[:1])) + string(lowerRunes[1:]), true
}

// DetectTopics returns every topic in TopicTable that text mentions.
func DetectTopics(text string) []string {
	return utils.AllMatches(TopicTable, text)
}

// DetectStressors returns every stressor category text mentions.
func DetectStressors(text string) []string {
	return utils.AllMatches(StressorTable, text)
}

// mergeTopics appends topics, moving repeats to the end, and keeps the most
// recent max unique entries.
func mergeTopics(existing, topics []string, max int) []string {
	out := make([]string, 0, len(existing)+len(topics))
	for _, t := range existing {
		if !containsString(topics, t) {
			out = append(out, t)
		}
	}
	out = utils.AppendUnique(out, topics...)
	if len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
