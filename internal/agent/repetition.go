package agent

import (
	"regexp"
	"strings"

	"github.com/easeaico/mindmate/internal/utils"
)

const (
	maxPhraseBuffer    = 10
	repetitionWindow   = 5
	repetitionPrefix   = 20
	keyPhraseLength    = 40
	minSentenceLength  = 10
	keyPhrasesPerReply = 2
)

// Transitions are prepended to a reply whose opening repeats a recent one.
var Transitions = []string{
	"You know, ",
	"I hear what you're saying. ",
	"That makes sense. ",
	"Thinking about it a little more, ",
	"I appreciate you sharing that. ",
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// ExtractKeyPhrases returns the opening characters of up to two sentences
// longer than ten characters.
func ExtractKeyPhrases(reply string) []string {
	var phrases []string
	for _, sentence := range sentenceSplit.Split(reply, -1) {
		sentence = strings.TrimSpace(sentence)
		if len([]rune(sentence)) <= minSentenceLength {
			continue
		}
		phrases = append(phrases, utils.Truncate(sentence, keyPhraseLength))
		if len(phrases) == keyPhrasesPerReply {
			break
		}
	}
	return phrases
}

// AvoidRepetition prepends a transition when reply opens like one of the last
// five buffered phrases. pick selects the transition.
func AvoidRepetition(reply string, buffer []string, pick func(n int) int) string {
	prefix := openingKey(reply)
	if prefix == "" {
		return reply
	}

	recent := buffer
	if len(recent) > repetitionWindow {
		recent = recent[len(recent)-repetitionWindow:]
	}
	for _, phrase := range recent {
		if openingKey(phrase) == prefix {
			idx := pick(len(Transitions))
			if idx < 0 || idx >= len(Transitions) {
				idx = 0
			}
			return Transitions[idx] + reply
		}
	}
	return reply
}

// pushPhrases appends phrases and keeps the most recent maxPhraseBuffer.
func pushPhrases(buffer, phrases []string) []string {
	buffer = append(buffer, phrases...)
	if len(buffer) > maxPhraseBuffer {
		buffer = append([]string(nil), buffer[len(buffer)-maxPhraseBuffer:]...)
	}
	return buffer
}

func openingKey(text string) string {
	return strings.ToLower(utils.Truncate(strings.TrimSpace(text), repetitionPrefix))
}
