package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/easeaico/mindmate/internal/emotion"
	"github.com/easeaico/mindmate/internal/memory"
	"github.com/easeaico/mindmate/internal/prompt"
	"github.com/easeaico/mindmate/internal/types"
)

const (
	replyMaxTokens   = 350
	replyTemperature = 0.75
	maxSessionTopics = 10

	stressorConfidence  = 0.7
	sentimentConfidence = 0.6
	strongSentiment     = 0.5

	apologyReply = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."
)

// HandleOptions tune a single turn.
type HandleOptions struct {
	GenerateVoice bool
}

// MessageResult is the outcome of one turn. A failed turn still carries a
// user-facing Reply.
type MessageResult struct {
	Success        bool                  `json:"success"`
	Reply          string                `json:"reply"`
	SessionID      string                `json:"session_id"`
	Sentiment      types.SentimentResult `json:"sentiment"`
	Timestamp      time.Time             `json:"timestamp"`
	DetectedTopics []string              `json:"detected_topics,omitempty"`
	Audio          []byte                `json:"audio,omitempty"`
	Provider       types.ProviderID      `json:"provider_id,omitempty"`
	Error          string                `json:"error,omitempty"`
}

// HandleMessage runs one conversation turn. Turns for the same user are
// serialized. Only an empty message or an unusable agent return an error;
// every other failure is reported through MessageResult.
func (c *Companion) HandleMessage(ctx context.Context, text, sessionID, msgType string, opts HandleOptions) (result *MessageResult, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	c.turn.Lock()
	defer c.turn.Unlock()

	c.mu.Lock()
	if err := c.ready(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.state = StateProcessing
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.state == StateProcessing {
			c.state = StateReady
		}
		c.mu.Unlock()
	}()
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("message handling panicked", "user_id", c.userID, "error", rec)
			result = c.failure(sessionID, fmt.Errorf("panic: %v", rec))
			err = nil
		}
	}()

	if msgType == "" {
		msgType = "text"
	}
	return c.handle(ctx, text, sessionID, msgType, opts), nil
}

func (c *Companion) handle(ctx context.Context, text, sessionID, msgType string, opts HandleOptions) *MessageResult {
	session, err := c.loadSession(ctx, sessionID)
	if err != nil {
		slog.Error("failed to load session", "user_id", c.userID, "session_id", sessionID, "error", err.Error())
		return c.failure(sessionID, err)
	}

	now := c.deps.Now()
	session.Messages = append(session.Messages, types.SessionMessage{
		ID:        uuid.NewString(),
		Author:    types.AuthorUser,
		Content:   text,
		Type:      msgType,
		CreatedAt: now,
	})

	sentiment := c.deps.Sentiment.Analyze(ctx, text)
	userScore := sentiment.Score
	session.Messages[len(session.Messages)-1].SentimentScore = &userScore

	topics := DetectTopics(text)
	stressors := DetectStressors(text)

	c.mu.Lock()
	if name, ok := DetectName(text); ok {
		if c.userCtx == nil {
			c.userCtx = &types.UserContext{}
		}
		c.userCtx.Name = name
		c.deps.Tasks.Go(ctx, "memory.set_name", func(ctx context.Context) error {
			return c.deps.Memory.SetName(ctx, c.userID, name)
		})
	}
	c.sessionTopics = mergeTopics(c.sessionTopics, topics, maxSessionTopics)
	userCtx := c.userCtx.Clone()
	sessionTopics := append([]string(nil), c.sessionTopics...)
	phrases := append([]string(nil), c.recentPhrases...)
	c.mu.Unlock()

	session.Topics = mergeTopics(session.Topics, topics, maxSessionTopics)

	for _, stressor := range stressors {
		content := fmt.Sprintf("Mentioned %s stress", stressor)
		c.deps.Tasks.Go(ctx, "memory.record_stressor", func(ctx context.Context) error {
			return c.deps.Memory.RecordObservation(ctx, c.userID, "stressor", content, stressorConfidence)
		})
	}

	systemPrompt := c.systemPrompt(ctx, text, sentiment, sessionTopics, phrases)
	generated := c.deps.Generator.Generate(ctx, systemPrompt, c.window(session.Messages), userCtx, replyMaxTokens, replyTemperature)

	reply := AvoidRepetition(generated.Text, phrases, c.deps.Pick)

	c.mu.Lock()
	c.recentPhrases = pushPhrases(c.recentPhrases, ExtractKeyPhrases(reply))
	c.mu.Unlock()

	replyScore := emotion.KeywordSentiment(reply).Score
	session.Messages = append(session.Messages, types.SessionMessage{
		ID:             uuid.NewString(),
		Author:         types.AuthorCompanion,
		Content:        reply,
		Type:           "text",
		SentimentScore: &replyScore,
		CreatedAt:      c.deps.Now(),
	})
	session.UpdatedAt = c.deps.Now()

	if err := c.deps.Sessions.Save(ctx, session); err != nil {
		slog.Error("failed to save session", "user_id", c.userID, "session_id", session.ID, "error", err.Error())
		return c.failure(session.ID, err)
	}

	c.learn(ctx, text, topics, stressors, sentiment)

	result := &MessageResult{
		Success:        true,
		Reply:          reply,
		SessionID:      session.ID,
		Sentiment:      sentiment,
		Timestamp:      now,
		DetectedTopics: topics,
		Provider:       generated.Provider,
	}

	if opts.GenerateVoice && c.deps.Voice != nil {
		audio, err := c.deps.Voice.Synthesize(ctx, reply)
		if err != nil {
			slog.Warn("failed to synthesize reply audio", "user_id", c.userID, "error", err.Error())
		} else {
			result.Audio = audio
		}
	}

	return result
}

// loadSession resumes sessionID or starts a new session under that id. An
// empty id starts a session with a fresh one.
func (c *Companion) loadSession(ctx context.Context, sessionID string) (*types.Session, error) {
	if sessionID != "" {
		session, err := c.deps.Sessions.Find(ctx, sessionID, c.userID)
		if err != nil {
			return nil, err
		}
		if session != nil {
			return session, nil
		}
	} else {
		sessionID = uuid.NewString()
	}

	now := c.deps.Now()
	session := &types.Session{
		ID:        sessionID,
		UserID:    c.userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := c.deps.Sessions.Create(ctx, session)
	if errors.Is(err, types.ErrSessionExists) {
		slog.Warn("session id taken, starting a new session", "user_id", c.userID, "session_id", sessionID)
		session.ID = uuid.NewString()
		err = c.deps.Sessions.Create(ctx, session)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// window maps the most recent stored messages to chat turns.
func (c *Companion) window(messages []types.SessionMessage) []types.ChatMessage {
	if len(messages) > c.deps.HistoryLimit {
		messages = messages[len(messages)-c.deps.HistoryLimit:]
	}
	out := make([]types.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		role := types.RoleUser
		if msg.Author == types.AuthorCompanion {
			role = types.RoleAssistant
		}
		out = append(out, types.ChatMessage{Role: role, Content: msg.Content})
	}
	return out
}

func (c *Companion) systemPrompt(ctx context.Context, text string, sentiment types.SentimentResult, topics, phrases []string) string {
	var sb strings.Builder
	sb.WriteString(prompt.BasePersonaPrompt)

	if block := prompt.BuildSessionBlock(topics, phrases); block != "" {
		sb.WriteString("\n\n")
		sb.WriteString(block)
	}
	if tone := emotion.ToneInstruction(sentiment); tone != "" {
		sb.WriteString("\n\n")
		sb.WriteString(tone)
	}

	related, err := c.deps.Memory.RecallRelated(ctx, c.userID, text)
	if err != nil {
		slog.Warn("failed to recall related observations", "user_id", c.userID, "error", err.Error())
	}
	if len(related) > 0 {
		sb.WriteString("\n\nThings they have shared before that may be relevant:\n")
		for _, obs := range related {
			sb.WriteString("- ")
			sb.WriteString(obs.Content)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (c *Companion) learn(ctx context.Context, text string, topics, stressors []string, sentiment types.SentimentResult) {
	in := memory.LearnInput{Topics: topics, Stressors: stressors, Message: text}
	c.deps.Tasks.Go(ctx, "memory.learn", func(ctx context.Context) error {
		return c.deps.Memory.Learn(ctx, c.userID, in)
	})

	if sentiment.Score >= -strongSentiment && sentiment.Score <= strongSentiment {
		return
	}
	content := fmt.Sprintf("Expressed %s feelings: %s", sentiment.Sentiment, strings.Join(sentiment.Emotions, ", "))
	if len(sentiment.Emotions) == 0 {
		content = fmt.Sprintf("Expressed %s feelings", sentiment.Sentiment)
	}
	c.deps.Tasks.Go(ctx, "memory.record_sentiment", func(ctx context.Context) error {
		return c.deps.Memory.RecordObservation(ctx, c.userID, "emotional_state", content, sentimentConfidence)
	})
}

func (c *Companion) failure(sessionID string, err error) *MessageResult {
	return &MessageResult{
		Success:   false,
		Reply:     apologyReply,
		SessionID: sessionID,
		Sentiment: emotion.Neutral(),
		Timestamp: c.deps.Now(),
		Error:     err.Error(),
	}
}
