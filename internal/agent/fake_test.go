package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/easeaico/mindmate/internal/background"
	"github.com/easeaico/mindmate/internal/emotion"
	"github.com/easeaico/mindmate/internal/memory"
	"github.com/easeaico/mindmate/internal/models"
	"github.com/easeaico/mindmate/internal/types"
)

var errStoreDown = errors.New("store down")

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*types.Session
	creates  int
	saves    int
	saveErr  error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]*types.Session)}
}

func (s *fakeSessions) Create(ctx context.Context, session *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if _, ok := s.sessions[session.ID]; ok {
		return types.ErrSessionExists
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeSessions) Find(ctx context.Context, sessionID, userID string) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, nil
	}
	return session, nil
}

func (s *fakeSessions) Save(ctx context.Context, session *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.sessions[session.ID] = session
	return nil
}

type fakePermissions struct {
	perms   types.PermissionSet
	err     error
	updates int

	// gates holds a user's load until the channel is closed.
	gates   map[string]chan struct{}
	entered chan string
	mu      sync.Mutex
	loads   map[string]int
}

func (p *fakePermissions) GetOrCreate(ctx context.Context, userID string) (types.PermissionSet, error) {
	p.mu.Lock()
	if p.loads == nil {
		p.loads = make(map[string]int)
	}
	p.loads[userID]++
	gate := p.gates[userID]
	p.mu.Unlock()

	if gate != nil {
		if p.entered != nil {
			p.entered <- userID
		}
		<-gate
	}
	return p.perms, p.err
}

func (p *fakePermissions) loadCount(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loads[userID]
}

func (p *fakePermissions) Update(ctx context.Context, userID string, perms types.PermissionSet) error {
	p.updates++
	p.perms = perms
	return nil
}

type recordedObservation struct {
	category   string
	content    string
	confidence float64
}

type fakeMemory struct {
	mu           sync.Mutex
	userCtx      types.UserContext
	data         types.UserData
	builds       int
	names        []string
	observations []recordedObservation
	learned      []memory.LearnInput

	setNameErr error
	observeErr error
	learnErr   error
}

func (m *fakeMemory) observationsIn(category string) []recordedObservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []recordedObservation
	for _, obs := range m.observations {
		if obs.category == category {
			out = append(out, obs)
		}
	}
	return out
}

func (m *fakeMemory) BuildUserContext(ctx context.Context, userID string, perms types.PermissionSet) (*types.UserContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds++
	return m.userCtx.Clone(), nil
}

func (m *fakeMemory) GatherUserData(ctx context.Context, userID string, perms types.PermissionSet) (types.UserData, error) {
	return m.data, nil
}

func (m *fakeMemory) SetName(ctx context.Context, userID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = append(m.names, name)
	return m.setNameErr
}

func (m *fakeMemory) RecordObservation(ctx context.Context, userID, category, content string, confidence float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations = append(m.observations, recordedObservation{category: category, content: content, confidence: confidence})
	return m.observeErr
}

func (m *fakeMemory) Learn(ctx context.Context, userID string, in memory.LearnInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.learned = append(m.learned, in)
	return m.learnErr
}

func (m *fakeMemory) RecallRelated(ctx context.Context, userID, text string) ([]types.Observation, error) {
	return nil, nil
}

// fakeSentiment returns result when set and keyword scoring otherwise.
type fakeSentiment struct {
	result *types.SentimentResult
}

func (f *fakeSentiment) Analyze(ctx context.Context, text string) types.SentimentResult {
	if f.result != nil {
		return *f.result
	}
	return emotion.KeywordSentiment(text)
}

type fakeInsights struct {
	calls int
	last  types.UserData
}

func (f *fakeInsights) Generate(ctx context.Context, data types.UserData) types.Insights {
	f.calls++
	f.last = data
	return types.Insights{OverallMood: "steady", Recommendations: []string{"keep going"}}
}

type fakeVoice struct {
	err error
}

func (v fakeVoice) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if v.err != nil {
		return nil, v.err
	}
	return []byte("audio:" + text), nil
}

type fakeProvider struct {
	mu    sync.Mutex
	reply string
	calls int
	last  types.GenerationRequest
}

func (p *fakeProvider) ID() types.ProviderID {
	return types.ProviderPrimaryLLM
}

func (p *fakeProvider) TryGenerate(ctx context.Context, req types.GenerationRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.last = req
	return p.reply, nil
}

type fixture struct {
	sessions *fakeSessions
	perms    *fakePermissions
	memory   *fakeMemory
	insights  *fakeInsights
	sentiment *fakeSentiment
	provider *fakeProvider
	tasks    *background.Runner
	deps     Deps
}

func newFixture(reply string) *fixture {
	f := &fixture{
		sessions: newFakeSessions(),
		perms:    &fakePermissions{},
		memory:   &fakeMemory{},
		insights:  &fakeInsights{},
		sentiment: &fakeSentiment{},
		provider: &fakeProvider{reply: reply},
		tasks:    background.NewRunner(time.Second),
	}
	f.deps = Deps{
		Sessions:    f.sessions,
		Permissions: f.perms,
		Memory:      f.memory,
		Generator:   models.NewGenerator(models.NewRegistryWithProviders(time.Second, f.provider), nil),
		Sentiment:   f.sentiment,
		Insights:    f.insights,
		Tasks:       f.tasks,
		Pick:        func(int) int { return 0 },
		Now:         func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
	}
	return f
}

func (f *fixture) companion(t interface{ Fatalf(string, ...any) }) *Companion {
	c := New("user-1", f.deps)
	if !c.Initialize(context.Background()) {
		t.Fatalf("expected initialization to succeed")
	}
	return c
}
