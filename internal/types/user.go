package types

import "time"

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Intensity labels.
const (
	IntensityLow    = "low"
	IntensityMedium = "medium"
	IntensityHigh   = "high"
)

// SentimentResult has the same shape whichever analyzer path produced it.
type SentimentResult struct {
	Sentiment string   `json:"sentiment"`
	Score     float64  `json:"score"`
	Emotions  []string `json:"emotions"`
	Intensity string   `json:"intensity"`
}

// SleepRecord is the most recent sleep sample.
type SleepRecord struct {
	DurationHours float64 `json:"duration_hours"`
	Quality       string  `json:"quality"`
}

// Patterns are derived traits learned over time.
type Patterns struct {
	SleepTrend          string   `json:"sleep_trend,omitempty"`
	EffectiveActivities []string `json:"effective_activities,omitempty"`
	KnownTriggers       []string `json:"known_triggers,omitempty"`
	CommunicationStyle  string   `json:"communication_style,omitempty"`
}

// UserContext is the personalization snapshot injected into prompts.
// Pointer and empty fields are absent and produce no prompt section.
type UserContext struct {
	Name                string       `json:"name,omitempty"`
	RecentMoods         []float64    `json:"recent_moods,omitempty"`
	LastSleep           *SleepRecord `json:"last_sleep,omitempty"`
	StressLevel         *float64     `json:"stress_level,omitempty"`
	RecentJournalThemes []string     `json:"recent_journal_themes,omitempty"`
	TopConcerns         []string     `json:"top_concerns,omitempty"`
	LastActivity        string       `json:"last_activity,omitempty"`
	LearningInsights    []string     `json:"learning_insights,omitempty"`
	Patterns            Patterns     `json:"patterns"`
}

// Clone returns a deep copy so callers cannot mutate an agent's cached context.
func (c *UserContext) Clone() *UserContext {
	if c == nil {
		return nil
	}
	out := *c
	out.RecentMoods = append([]float64(nil), c.RecentMoods...)
	out.RecentJournalThemes = append([]string(nil), c.RecentJournalThemes...)
	out.TopConcerns = append([]string(nil), c.TopConcerns...)
	out.LearningInsights = append([]string(nil), c.LearningInsights...)
	out.Patterns.EffectiveActivities = append([]string(nil), c.Patterns.EffectiveActivities...)
	out.Patterns.KnownTriggers = append([]string(nil), c.Patterns.KnownTriggers...)
	if c.LastSleep != nil {
		sleep := *c.LastSleep
		out.LastSleep = &sleep
	}
	if c.StressLevel != nil {
		stress := *c.StressLevel
		out.StressLevel = &stress
	}
	return &out
}

// PermissionSet gates which personal data the companion may analyze.
type PermissionSet struct {
	AnalyzeJournals      bool `json:"analyze_journals"`
	AnalyzeVoiceNotes    bool `json:"analyze_voice_notes"`
	AnalyzeConversations bool `json:"analyze_conversations"`
	AnalyzeSleepData     bool `json:"analyze_sleep_data"`
	AnalyzeAssessments   bool `json:"analyze_assessments"`
	AnalyzeMood          bool `json:"analyze_mood"`
}

// Any reports whether at least one flag is granted.
func (p PermissionSet) Any() bool {
	return p.AnalyzeJournals || p.AnalyzeVoiceNotes || p.AnalyzeConversations ||
		p.AnalyzeSleepData || p.AnalyzeAssessments || p.AnalyzeMood
}

// PermissionUpdate is a partial update; nil fields are left unchanged.
type PermissionUpdate struct {
	AnalyzeJournals      *bool `json:"analyze_journals,omitempty"`
	AnalyzeVoiceNotes    *bool `json:"analyze_voice_notes,omitempty"`
	AnalyzeConversations *bool `json:"analyze_conversations,omitempty"`
	AnalyzeSleepData     *bool `json:"analyze_sleep_data,omitempty"`
	AnalyzeAssessments   *bool `json:"analyze_assessments,omitempty"`
	AnalyzeMood          *bool `json:"analyze_mood,omitempty"`
}

// Apply returns p with the non-nil fields of u applied.
func (u PermissionUpdate) Apply(p PermissionSet) PermissionSet {
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.AnalyzeJournals, u.AnalyzeJournals)
	set(&p.AnalyzeVoiceNotes, u.AnalyzeVoiceNotes)
	set(&p.AnalyzeConversations, u.AnalyzeConversations)
	set(&p.AnalyzeSleepData, u.AnalyzeSleepData)
	set(&p.AnalyzeAssessments, u.AnalyzeAssessments)
	set(&p.AnalyzeMood, u.AnalyzeMood)
	return p
}

// Observation is one learned fact about the user.
type Observation struct {
	ID         int       `json:"id"`
	UserID     string    `json:"user_id"`
	Category   string    `json:"category"`
	Content    string    `json:"content"`
	Confidence float64   `json:"confidence"`
	Embedding  []float32 `json:"-"`
	Similarity float64   `json:"similarity,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserMemory is the long-term memory document kept per user.
type UserMemory struct {
	UserID         string         `json:"user_id"`
	PreferredName  string         `json:"preferred_name,omitempty"`
	TopicFrequency map[string]int `json:"topic_frequency"`
	Patterns       Patterns       `json:"patterns"`
	Observations   []Observation  `json:"observations,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// MoodEntry is a logged mood rating (1-10) with optional stress (1-5).
type MoodEntry struct {
	Rating      float64   `json:"rating"`
	StressLevel *float64  `json:"stress_level,omitempty"`
	Activities  []string  `json:"activities,omitempty"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SleepEntry is one night of sleep.
type SleepEntry struct {
	DurationHours float64   `json:"duration_hours"`
	Quality       string    `json:"quality"`
	CreatedAt     time.Time `json:"created_at"`
}

// JournalEntry is a journal note with its analyzed sentiment.
type JournalEntry struct {
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	Themes    []string  `json:"themes,omitempty"`
	Sentiment string    `json:"sentiment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AssessmentResult is a scored questionnaire such as PHQ-9 or GAD-7.
type AssessmentResult struct {
	Kind      string    `json:"kind"`
	Score     int       `json:"score"`
	Severity  string    `json:"severity,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserData is the permission-gated bag handed to the insight generator.
type UserData struct {
	Moods          []MoodEntry        `json:"moods,omitempty"`
	Sleep          []SleepEntry       `json:"sleep,omitempty"`
	Journals       []JournalEntry     `json:"journals,omitempty"`
	Assessments    []AssessmentResult `json:"assessments,omitempty"`
	LearnedPattern *Patterns          `json:"learned_patterns,omitempty"`
}

// Empty reports whether no data was gathered.
func (d UserData) Empty() bool {
	return len(d.Moods) == 0 && len(d.Sleep) == 0 && len(d.Journals) == 0 &&
		len(d.Assessments) == 0 && d.LearnedPattern == nil
}

// Insights is the structured wellbeing summary.
type Insights struct {
	OverallMood     string   `json:"overallMood"`
	SleepQuality    string   `json:"sleepQuality"`
	AreasOfStrength []string `json:"areasOfStrength"`
	AreasForGrowth  []string `json:"areasForGrowth"`
	Recommendations []string `json:"recommendations"`
	Encouragement   string   `json:"encouragement"`
	Patterns        []string `json:"patterns"`
}

// ActivitySuggestion is one ranked suggestion; lower priority sorts first.
type ActivitySuggestion struct {
	Activity     string `json:"activity"`
	Reason       string `json:"reason"`
	Duration     string `json:"duration"`
	Priority     int    `json:"priority"`
	Personalized bool   `json:"personalized,omitempty"`
}
