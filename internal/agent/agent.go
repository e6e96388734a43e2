// Package agent implements the per-user conversation companion.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/easeaico/mindmate/internal/background"
	"github.com/easeaico/mindmate/internal/memory"
	"github.com/easeaico/mindmate/internal/models"
	"github.com/easeaico/mindmate/internal/types"
)

var (
	ErrEmptyMessage     = errors.New("message cannot be empty")
	ErrNotInitialized   = errors.New("agent is not initialized")
	ErrDisposed         = errors.New("agent has been disposed")
	ErrInvalidMood      = errors.New("mood must be between 1 and 10")
	ErrInvalidTimeOfDay = errors.New("time of day must be morning, afternoon, evening or night")
)

// State is the agent lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateProcessing
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateProcessing:
		return "processing"
	case StateDisposed:
		return "disposed"
	default:
		return "uninitialized"
	}
}

// SessionStore persists conversation logs.
type SessionStore interface {
	Create(ctx context.Context, session *types.Session) error
	// Find returns nil without error when the session does not exist.
	Find(ctx context.Context, sessionID, userID string) (*types.Session, error)
	Save(ctx context.Context, session *types.Session) error
}

// PermissionStore persists analysis permissions.
type PermissionStore interface {
	GetOrCreate(ctx context.Context, userID string) (types.PermissionSet, error)
	Update(ctx context.Context, userID string, perms types.PermissionSet) error
}

// Learner is the long-term memory collaborator.
type Learner interface {
	BuildUserContext(ctx context.Context, userID string, perms types.PermissionSet) (*types.UserContext, error)
	GatherUserData(ctx context.Context, userID string, perms types.PermissionSet) (types.UserData, error)
	SetName(ctx context.Context, userID, name string) error
	RecordObservation(ctx context.Context, userID, category, content string, confidence float64) error
	Learn(ctx context.Context, userID string, in memory.LearnInput) error
	RecallRelated(ctx context.Context, userID, text string) ([]types.Observation, error)
}

// SentimentAnalyzer scores a message.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) types.SentimentResult
}

// InsightGenerator summarizes gathered user data.
type InsightGenerator interface {
	Generate(ctx context.Context, data types.UserData) types.Insights
}

// Synthesizer renders reply audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Deps are the collaborators shared by every agent.
type Deps struct {
	Sessions    SessionStore
	Permissions PermissionStore
	Memory      Learner
	Generator   *models.Generator
	Sentiment   SentimentAnalyzer
	Insights    InsightGenerator
	// Voice may be nil, which disables audio replies.
	Voice Synthesizer
	Tasks *background.Runner
	// HistoryLimit bounds the conversation window; defaults to 20.
	HistoryLimit int
	// Pick returns an index in [0,n); defaults to a random source.
	Pick func(n int) int
	Now  func() time.Time
}

// Status is a read-only snapshot of the agent.
type Status struct {
	Initialized    bool             `json:"initialized"`
	HasPermissions bool             `json:"has_permissions"`
	Provider       types.ProviderID `json:"provider_id"`
	RecentTopics   []string         `json:"recent_topics"`
	UserName       string           `json:"user_name,omitempty"`
}

// Companion owns one user's live conversation state.
type Companion struct {
	userID string
	deps   Deps

	// turn serializes HandleMessage; mu guards the fields below it.
	turn          sync.Mutex
	mu            sync.Mutex
	state         State
	perms         types.PermissionSet
	userCtx       *types.UserContext
	recentPhrases []string
	sessionTopics []string
}

// New returns an uninitialized companion for userID.
func New(userID string, deps Deps) *Companion {
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = 20
	}
	if deps.Pick == nil {
		deps.Pick = rand.IntN
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Tasks == nil {
		deps.Tasks = background.NewRunner(0)
	}
	return &Companion{userID: userID, deps: deps}
}

// UserID returns the owning user.
func (c *Companion) UserID() string {
	return c.userID
}

// Initialize loads permissions (all false when none are stored) and builds the
// user context. It reports false on failure and the agent stays unusable.
func (c *Companion) Initialize(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDisposed {
		return false
	}

	perms, err := c.deps.Permissions.GetOrCreate(ctx, c.userID)
	if err != nil {
		slog.Error("failed to load permissions", "user_id", c.userID, "error", err.Error())
		return false
	}
	userCtx, err := c.deps.Memory.BuildUserContext(ctx, c.userID, perms)
	if err != nil {
		slog.Error("failed to build user context", "user_id", c.userID, "error", err.Error())
		return false
	}

	c.perms = perms
	c.userCtx = userCtx
	c.state = StateReady
	slog.Info("agent initialized", "user_id", c.userID, "has_permissions", perms.Any())
	return true
}

// UpdatePermissions applies a partial update and refreshes the cached context.
func (c *Companion) UpdatePermissions(ctx context.Context, update types.PermissionUpdate) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.usable() != nil {
		return false
	}

	perms := update.Apply(c.perms)
	if err := c.deps.Permissions.Update(ctx, c.userID, perms); err != nil {
		slog.Error("failed to update permissions", "user_id", c.userID, "error", err.Error())
		return false
	}
	c.perms = perms

	userCtx, err := c.deps.Memory.BuildUserContext(ctx, c.userID, perms)
	if err != nil {
		slog.Warn("failed to refresh user context", "user_id", c.userID, "error", err.Error())
		return true
	}
	if userCtx.Name == "" && c.userCtx != nil {
		userCtx.Name = c.userCtx.Name
	}
	c.userCtx = userCtx
	return true
}

// Status has no side effects.
func (c *Companion) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{
		Initialized:    c.state == StateReady || c.state == StateProcessing,
		HasPermissions: c.perms.Any(),
		Provider:       c.deps.Generator.Registry().Current(),
		RecentTopics:   recentTopics(c.sessionTopics),
	}
	if c.userCtx != nil {
		status.UserName = c.userCtx.Name
	}
	return status
}

// State returns the lifecycle state.
func (c *Companion) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispose ends the live session. Later calls are rejected.
func (c *Companion) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateDisposed
	c.recentPhrases = nil
	c.sessionTopics = nil
}

// usable accepts a ready or busy agent, for reads that do not need the turn lock.
func (c *Companion) usable() error {
	if c.state == StateProcessing {
		return nil
	}
	return c.ready()
}

func (c *Companion) ready() error {
	switch c.state {
	case StateReady:
		return nil
	case StateDisposed:
		return ErrDisposed
	default:
		return ErrNotInitialized
	}
}

func recentTopics(topics []string) []string {
	block := make([]string, 0, 5)
	seen := make(map[string]bool)
	for i := len(topics) - 1; i >= 0 && len(block) < 5; i-- {
		if seen[topics[i]] {
			continue
		}
		seen[topics[i]] = true
		block = append(block, topics[i])
	}
	for i, j := 0, len(block)-1; i < j; i, j = i+1, j-1 {
		block[i], block[j] = block[j], block[i]
	}
	return block
}
