package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/easeaico/mindmate/internal/prompt"
	"github.com/easeaico/mindmate/internal/types"
	"github.com/easeaico/mindmate/internal/utils"
)

const (
	contextMoodLimit        = 7
	contextJournalLimit     = 5
	contextObservationLimit = 10
	maxTopConcerns          = 5
	maxJournalThemes        = 5
	maxLearningInsights     = 5
	insightConfidence       = 0.6

	insightMoodLimit       = 30
	insightSleepLimit      = 14
	insightJournalLimit    = 10
	insightAssessmentLimit = 5
)

// MemoryRepo persists the long-term memory document and observations.
type MemoryRepo interface {
	GetOrCreate(ctx context.Context, userID string) (*types.UserMemory, error)
	SetName(ctx context.Context, userID, name string) error
	IncrementTopics(ctx context.Context, userID string, topics []string) error
	// MergePatterns applies fn atomically; fn reports whether it changed anything.
	MergePatterns(ctx context.Context, userID string, fn func(*types.Patterns) bool) error
	AddObservation(ctx context.Context, obs types.Observation) error
	RecentObservations(ctx context.Context, userID string, limit int) ([]types.Observation, error)
	SearchSimilar(ctx context.Context, userID string, embedding []float32, topK int, threshold float64) ([]types.Observation, error)
}

// RecordsRepo reads health-adjacent records, oldest first.
type RecordsRepo interface {
	RecentMoods(ctx context.Context, userID string, limit int) ([]types.MoodEntry, error)
	RecentSleep(ctx context.Context, userID string, limit int) ([]types.SleepEntry, error)
	RecentJournals(ctx context.Context, userID string, limit int) ([]types.JournalEntry, error)
	RecentAssessments(ctx context.Context, userID string, limit int) ([]types.AssessmentResult, error)
}

// Service is the learning collaborator used by the conversation agent.
type Service struct {
	memories            MemoryRepo
	records             RecordsRepo
	embedder            Embedder
	topK                int
	similarityThreshold float64
}

// NewService returns a memory service. embedder may be nil, which disables
// observation embeddings and recall.
func NewService(memories MemoryRepo, records RecordsRepo, embedder Embedder, topK int, threshold float64) *Service {
	if topK <= 0 {
		topK = 3
	}
	if threshold <= 0 {
		threshold = 0.75
	}
	return &Service{
		memories:            memories,
		records:             records,
		embedder:            embedder,
		topK:                topK,
		similarityThreshold: threshold,
	}
}

func (s *Service) GetOrCreate(ctx context.Context, userID string) (*types.UserMemory, error) {
	return s.memories.GetOrCreate(ctx, userID)
}

func (s *Service) SetName(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return s.memories.SetName(ctx, userID, name)
}

// RecordObservation stores a learned fact, embedding it when an embedder is set.
// An embedding failure still stores the observation without a vector.
func (s *Service) RecordObservation(ctx context.Context, userID, category, content string, confidence float64) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("observation content cannot be empty")
	}

	obs := types.Observation{
		UserID:     userID,
		Category:   category,
		Content:    content,
		Confidence: confidence,
	}
	if s.embedder != nil {
		vec, err := s.embedder.EmbedDocument(ctx, content)
		if err != nil {
			slog.Warn("failed to embed observation", "user_id", userID, "error", err.Error())
		} else {
			obs.Embedding = vec
		}
	}

	if err := s.memories.AddObservation(ctx, obs); err != nil {
		return fmt.Errorf("failed to record observation: %w", err)
	}
	return nil
}

// LearnInput is what one message teaches about the user.
type LearnInput struct {
	Topics    []string
	Stressors []string
	Message   string
}

// Learn increments topic frequencies and folds stressors and communication
// style into the learned patterns.
func (s *Service) Learn(ctx context.Context, userID string, in LearnInput) error {
	if err := s.memories.IncrementTopics(ctx, userID, in.Topics); err != nil {
		return fmt.Errorf("failed to learn topics: %w", err)
	}

	style := CommunicationStyle(in.Message)
	err := s.memories.MergePatterns(ctx, userID, func(patterns *types.Patterns) bool {
		changed := false
		triggers := utils.AppendUnique(append([]string(nil), patterns.KnownTriggers...), in.Stressors...)
		if len(triggers) != len(patterns.KnownTriggers) {
			patterns.KnownTriggers = triggers
			changed = true
		}
		if style != "" && style != patterns.CommunicationStyle {
			patterns.CommunicationStyle = style
			changed = true
		}
		return changed
	})
	if err != nil {
		return fmt.Errorf("failed to learn patterns: %w", err)
	}
	return nil
}

// UpdatePatterns replaces the learned patterns.
func (s *Service) UpdatePatterns(ctx context.Context, userID string, patterns types.Patterns) error {
	err := s.memories.MergePatterns(ctx, userID, func(current *types.Patterns) bool {
		*current = patterns
		return true
	})
	if err != nil {
		return fmt.Errorf("failed to update patterns: %w", err)
	}
	return nil
}

// CommunicationStyle classifies a message by length.
func CommunicationStyle(message string) string {
	words := len(strings.Fields(message))
	switch {
	case words == 0:
		return ""
	case words < 8:
		return "brief"
	case words > 40:
		return "detailed"
	default:
		return "conversational"
	}
}

// BuildUserContext assembles the personalization snapshot. Record types the
// user has not granted are left out. Record read failures are logged and skipped.
func (s *Service) BuildUserContext(ctx context.Context, userID string, perms types.PermissionSet) (*types.UserContext, error) {
	mem, err := s.memories.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user memory: %w", err)
	}

	userCtx := &types.UserContext{
		Name:        mem.PreferredName,
		TopConcerns: topTopics(mem.TopicFrequency, maxTopConcerns),
		Patterns:    mem.Patterns,
	}

	if perms.AnalyzeMood && s.records != nil {
		moods, err := s.records.RecentMoods(ctx, userID, contextMoodLimit)
		if err != nil {
			slog.Warn("failed to load moods for context", "user_id", userID, "error", err.Error())
		}
		for _, m := range moods {
			userCtx.RecentMoods = append(userCtx.RecentMoods, m.Rating)
			if m.StressLevel != nil {
				stress := *m.StressLevel
				userCtx.StressLevel = &stress
			}
			if len(m.Activities) > 0 {
				userCtx.LastActivity = m.Activities[0]
			}
		}
	}

	if perms.AnalyzeSleepData && s.records != nil {
		sleep, err := s.records.RecentSleep(ctx, userID, contextMoodLimit)
		if err != nil {
			slog.Warn("failed to load sleep for context", "user_id", userID, "error", err.Error())
		}
		if n := len(sleep); n > 0 {
			last := sleep[n-1]
			userCtx.LastSleep = &types.SleepRecord{DurationHours: last.DurationHours, Quality: last.Quality}
			durations := make([]float64, 0, n)
			for _, e := range sleep {
				durations = append(durations, e.DurationHours)
			}
			if n >= 2 {
				userCtx.Patterns.SleepTrend = prompt.MoodTrend(durations)
			}
		}
	}

	if perms.AnalyzeJournals && s.records != nil {
		journals, err := s.records.RecentJournals(ctx, userID, contextJournalLimit)
		if err != nil {
			slog.Warn("failed to load journals for context", "user_id", userID, "error", err.Error())
		}
		for i := len(journals) - 1; i >= 0 && len(userCtx.RecentJournalThemes) < maxJournalThemes; i-- {
			userCtx.RecentJournalThemes = utils.AppendUnique(userCtx.RecentJournalThemes, journals[i].Themes...)
		}
		if len(userCtx.RecentJournalThemes) > maxJournalThemes {
			userCtx.RecentJournalThemes = userCtx.RecentJournalThemes[:maxJournalThemes]
		}
	}

	observations, err := s.memories.RecentObservations(ctx, userID, contextObservationLimit)
	if err != nil {
		slog.Warn("failed to load observations for context", "user_id", userID, "error", err.Error())
	}
	for i := len(observations) - 1; i >= 0 && len(userCtx.LearningInsights) < maxLearningInsights; i-- {
		if observations[i].Confidence >= insightConfidence {
			userCtx.LearningInsights = utils.AppendUnique(userCtx.LearningInsights, observations[i].Content)
		}
	}

	return userCtx, nil
}

// GatherUserData collects the records the user has granted for insight generation.
func (s *Service) GatherUserData(ctx context.Context, userID string, perms types.PermissionSet) (types.UserData, error) {
	var data types.UserData
	if s.records == nil {
		return data, fmt.Errorf("records repository not configured")
	}

	var err error
	if perms.AnalyzeMood {
		if data.Moods, err = s.records.RecentMoods(ctx, userID, insightMoodLimit); err != nil {
			return data, err
		}
	}
	if perms.AnalyzeSleepData {
		if data.Sleep, err = s.records.RecentSleep(ctx, userID, insightSleepLimit); err != nil {
			return data, err
		}
	}
	if perms.AnalyzeJournals {
		if data.Journals, err = s.records.RecentJournals(ctx, userID, insightJournalLimit); err != nil {
			return data, err
		}
	}
	if perms.AnalyzeAssessments {
		if data.Assessments, err = s.records.RecentAssessments(ctx, userID, insightAssessmentLimit); err != nil {
			return data, err
		}
	}
	if perms.AnalyzeConversations {
		mem, err := s.memories.GetOrCreate(ctx, userID)
		if err != nil {
			return data, err
		}
		patterns := mem.Patterns
		data.LearnedPattern = &patterns
	}
	return data, nil
}

// RecallRelated returns past observations similar to text. It returns nil
// when no embedder is configured.
func (s *Service) RecallRelated(ctx context.Context, userID, text string) ([]types.Observation, error) {
	if s.embedder == nil || strings.TrimSpace(text) == "" {
		return nil, nil
	}
	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.memories.SearchSimilar(ctx, userID, vec, s.topK, s.similarityThreshold)
}

// topTopics returns up to n topics by descending frequency, ties alphabetical.
func topTopics(freq map[string]int, n int) []string {
	topics := make([]string, 0, len(freq))
	for topic, count := range freq {
		if count > 0 {
			topics = append(topics, topic)
		}
	}
	sort.Slice(topics, func(i, j int) bool {
		if freq[topics[i]] != freq[topics[j]] {
			return freq[topics[i]] > freq[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > n {
		topics = topics[:n]
	}
	return topics
}
