package agent

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/easeaico/mindmate/internal/types"
)

func TestHandleMessageRejectsEmpty(t *testing.T) {
	f := newFixture("hello")
	c := f.companion(t)

	for _, text := range []string{"", "   \n\t"} {
		if _, err := c.HandleMessage(context.Background(), text, "", "text", HandleOptions{}); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("expected ErrEmptyMessage for %q, got %v", text, err)
		}
	}
	if f.sessions.creates != 0 || f.sessions.saves != 0 {
		t.Fatalf("expected nothing stored, got creates=%d saves=%d", f.sessions.creates, f.sessions.saves)
	}
	if f.provider.calls != 0 {
		t.Fatalf("expected no provider call, got %d", f.provider.calls)
	}
}

func TestHandleMessageStoresTurn(t *testing.T) {
	f := newFixture("That sounds like a heavy week. What part of work weighs on you most?")
	c := f.companion(t)

	res, err := c.HandleMessage(context.Background(), "Work has been really stressful lately", "", "", HandleOptions{})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	f.tasks.Wait()

	if !res.Success || res.SessionID == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Provider != types.ProviderPrimaryLLM {
		t.Fatalf("expected primary provider, got %s", res.Provider)
	}
	if !reflect.DeepEqual(res.DetectedTopics, []string{"stress", "work"}) {
		t.Fatalf("unexpected topics: %v", res.DetectedTopics)
	}

	session := f.sessions.sessions[res.SessionID]
	if session == nil || len(session.Messages) != 2 {
		t.Fatalf("expected two stored messages, got %+v", session)
	}
	if session.Messages[0].Author != types.AuthorUser || session.Messages[1].Author != types.AuthorCompanion {
		t.Fatalf("unexpected authors: %s, %s", session.Messages[0].Author, session.Messages[1].Author)
	}
	if session.Messages[1].SentimentScore == nil {
		t.Fatalf("expected companion message to carry a sentiment score")
	}

	req := f.provider.last
	if req.MaxTokens != 350 || req.Temperature != 0.75 {
		t.Fatalf("unexpected limits: %d %v", req.MaxTokens, req.Temperature)
	}
	if !strings.Contains(req.SystemPrompt, "stress, work") {
		t.Fatalf("expected session topics in prompt, got %q", req.SystemPrompt)
	}

	if len(f.memory.learned) != 1 {
		t.Fatalf("expected one learning task, got %d", len(f.memory.learned))
	}
	stressors := f.memory.observationsIn("stressor")
	if len(stressors) != 1 || stressors[0].content != "Mentioned work stress" {
		t.Fatalf("expected work stressor observation, got %+v", stressors)
	}
	if stressors[0].confidence != stressorConfidence {
		t.Fatalf("expected stressor confidence 0.7, got %v", stressors[0].confidence)
	}
}

func TestHandleMessageRecordsStrongSentiment(t *testing.T) {
	cases := []struct {
		name   string
		result types.SentimentResult
		record bool
	}{
		{"distress", types.SentimentResult{Sentiment: types.SentimentNegative, Score: -0.8, Emotions: []string{"hopeless"}}, true},
		{"positive", types.SentimentResult{Sentiment: types.SentimentPositive, Score: 0.7, Emotions: []string{"grateful"}}, true},
		{"mild", types.SentimentResult{Sentiment: types.SentimentPositive, Score: 0.3}, false},
		{"boundary", types.SentimentResult{Sentiment: types.SentimentNegative, Score: -0.5}, false},
		{"neutral", types.SentimentResult{Sentiment: types.SentimentNeutral, Score: 0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture("I'm here with you.")
			f.sentiment.result = &tc.result
			c := f.companion(t)

			if _, err := c.HandleMessage(context.Background(), "hello", "", "text", HandleOptions{}); err != nil {
				t.Fatalf("HandleMessage failed: %v", err)
			}
			f.tasks.Wait()

			got := f.memory.observationsIn("emotional_state")
			if !tc.record {
				if len(got) != 0 {
					t.Fatalf("expected no emotional observation, got %+v", got)
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("expected one emotional observation, got %+v", got)
			}
			if got[0].confidence != sentimentConfidence || !strings.Contains(got[0].content, tc.result.Sentiment) {
				t.Fatalf("unexpected observation: %+v", got[0])
			}
		})
	}
}

func TestHandleMessageLearningFailuresStaySilent(t *testing.T) {
	reply := "That sounds like a lot. What would help most right now?"
	f := newFixture(reply)
	f.sentiment.result = &types.SentimentResult{Sentiment: types.SentimentNegative, Score: -0.9, Emotions: []string{"overwhelmed"}}
	f.memory.setNameErr = errStoreDown
	f.memory.observeErr = errStoreDown
	f.memory.learnErr = errStoreDown
	c := f.companion(t)

	res, err := c.HandleMessage(context.Background(), "I'm Sam and my boss keeps piling on work", "", "text", HandleOptions{})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	f.tasks.Wait()

	if !res.Success || res.Reply != reply || res.Error != "" {
		t.Fatalf("expected learning failures to stay out of the result, got %+v", res)
	}
	if len(f.memory.names) != 1 || len(f.memory.learned) != 1 {
		t.Fatalf("expected the writes to be attempted, got names=%v learned=%d", f.memory.names, len(f.memory.learned))
	}
	if got := len(f.memory.observationsIn("stressor")) + len(f.memory.observationsIn("emotional_state")); got != 2 {
		t.Fatalf("expected stressor and emotional observations attempted, got %d", got)
	}
	if c.Status().UserName != "Sam" {
		t.Fatalf("expected in-memory name despite failed persist")
	}
}

func TestHandleMessageForeignSessionStartsFresh(t *testing.T) {
	f := newFixture("I'm listening.")
	f.sessions.sessions["session-9"] = &types.Session{ID: "session-9", UserID: "someone-else"}
	c := f.companion(t)

	res, err := c.HandleMessage(context.Background(), "hello there", "session-9", "text", HandleOptions{})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if !res.Success || res.Error != "" {
		t.Fatalf("expected a successful turn, got %+v", res)
	}
	if res.SessionID == "" || res.SessionID == "session-9" {
		t.Fatalf("expected a fresh session id, got %q", res.SessionID)
	}
	f.tasks.Wait()

	if got := len(f.sessions.sessions["session-9"].Messages); got != 0 {
		t.Fatalf("expected the other user's session untouched, got %d messages", got)
	}
	if f.sessions.sessions[res.SessionID].UserID != "user-1" {
		t.Fatalf("expected the new session owned by user-1")
	}
}

func TestHandleMessageResumesSession(t *testing.T) {
	f := newFixture("I'm listening.")
	c := f.companion(t)

	first, err := c.HandleMessage(context.Background(), "hello there", "session-7", "text", HandleOptions{})
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	if first.SessionID != "session-7" {
		t.Fatalf("expected requested session id, got %s", first.SessionID)
	}
	if _, err := c.HandleMessage(context.Background(), "still here", "session-7", "text", HandleOptions{}); err != nil {
		t.Fatalf("second turn failed: %v", err)
	}
	f.tasks.Wait()

	if f.sessions.creates != 1 {
		t.Fatalf("expected one created session, got %d", f.sessions.creates)
	}
	if got := len(f.sessions.sessions["session-7"].Messages); got != 4 {
		t.Fatalf("expected four messages, got %d", got)
	}
	if got := len(f.provider.last.Messages); got != 3 {
		t.Fatalf("expected three window messages, got %d", got)
	}
	if f.provider.last.Messages[1].Role != types.RoleAssistant {
		t.Fatalf("expected companion message mapped to assistant, got %s", f.provider.last.Messages[1].Role)
	}
}

func TestHandleMessageWindowBounded(t *testing.T) {
	f := newFixture("ok")
	f.deps.HistoryLimit = 4
	c := f.companion(t)

	for i := 0; i < 4; i++ {
		if _, err := c.HandleMessage(context.Background(), "another message", "s", "text", HandleOptions{}); err != nil {
			t.Fatalf("turn %d failed: %v", i, err)
		}
	}
	f.tasks.Wait()

	if got := len(f.provider.last.Messages); got != 4 {
		t.Fatalf("expected window of 4, got %d", got)
	}
}

func TestHandleMessageDetectsName(t *testing.T) {
	f := newFixture("Nice to meet you too.")
	c := f.companion(t)

	if _, err := c.HandleMessage(context.Background(), "Hi, I'm Alex, nice to meet you", "", "text", HandleOptions{}); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	f.tasks.Wait()

	if got := c.Status().UserName; got != "Alex" {
		t.Fatalf("expected name Alex, got %q", got)
	}
	if !reflect.DeepEqual(f.memory.names, []string{"Alex"}) {
		t.Fatalf("expected name persisted once, got %v", f.memory.names)
	}
	if !strings.Contains(f.provider.last.SystemPrompt, "Alex") {
		t.Fatalf("expected current turn to use the name")
	}
}

func TestDetectName(t *testing.T) {
	cases := []struct {
		text string
		name string
		ok   bool
	}{
		{"Hi, I'm Alex, nice to meet you", "Alex", true},
		{"my name is JORDAN", "Jordan", true},
		{"you can call me sam", "Sam", true},
		{"I'm ok", "", false},
		{"I'm really glad, my name is Sam", "Sam", true},
		{"I'm tired and I'm sad", "", false},
		{"I'm so tired", "", false},
		{"my name is X", "", false},
		{"nothing to see here", "", false},
	}
	for _, tc := range cases {
		name, ok := DetectName(tc.text)
		if name != tc.name || ok != tc.ok {
			t.Fatalf("DetectName(%q) = %q, %v; want %q, %v", tc.text, name, ok, tc.name, tc.ok)
		}
	}
}

func TestHandleMessageSaveFailure(t *testing.T) {
	f := newFixture("a reply that will not be stored")
	f.sessions.saveErr = errStoreDown
	c := f.companion(t)

	res, err := c.HandleMessage(context.Background(), "hello", "", "text", HandleOptions{})
	if err != nil {
		t.Fatalf("expected failure result, got error %v", err)
	}
	f.tasks.Wait()

	if res.Success {
		t.Fatalf("expected unsuccessful result")
	}
	if res.Reply != apologyReply || res.Error == "" {
		t.Fatalf("unexpected failure result: %+v", res)
	}
	if len(f.memory.learned) != 0 {
		t.Fatalf("expected no learning after failed save")
	}
}

func TestHandleMessageVoice(t *testing.T) {
	f := newFixture("Take a slow breath with me.")
	f.deps.Voice = fakeVoice{}
	c := f.companion(t)

	res, err := c.HandleMessage(context.Background(), "hello", "", "text", HandleOptions{GenerateVoice: true})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if string(res.Audio) != "audio:Take a slow breath with me." {
		t.Fatalf("unexpected audio: %q", res.Audio)
	}

	f.deps.Voice = fakeVoice{err: errStoreDown}
	c = f.companion(t)
	res, err = c.HandleMessage(context.Background(), "hello", "", "text", HandleOptions{GenerateVoice: true})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	f.tasks.Wait()
	if !res.Success || res.Audio != nil || res.Reply == "" {
		t.Fatalf("expected text reply without audio, got %+v", res)
	}
}

func TestHandleMessageAvoidsRepeatedOpening(t *testing.T) {
	reply := "It sounds like today has been a lot to carry. I'm here."
	f := newFixture(reply)
	c := f.companion(t)

	first, err := c.HandleMessage(context.Background(), "hello", "s", "text", HandleOptions{})
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	if first.Reply != reply {
		t.Fatalf("expected first reply unmodified, got %q", first.Reply)
	}

	second, err := c.HandleMessage(context.Background(), "hello again", "s", "text", HandleOptions{})
	if err != nil {
		t.Fatalf("second turn failed: %v", err)
	}
	f.tasks.Wait()
	if second.Reply != Transitions[0]+reply {
		t.Fatalf("expected transition prefix, got %q", second.Reply)
	}
	if !strings.Contains(f.provider.last.SystemPrompt, "It sounds like today has been a lot to c") {
		t.Fatalf("expected buffered phrase in prompt")
	}
}

func TestAvoidRepetition(t *testing.T) {
	buffer := []string{"First phrase entirely unrelated", "That must be really hard for you"}
	pick := func(int) int { return 2 }

	got := AvoidRepetition("That must be really hard to deal with.", buffer, pick)
	if got != Transitions[2]+"That must be really hard to deal with." {
		t.Fatalf("expected transition, got %q", got)
	}

	fresh := "Let's try something different today."
	if got := AvoidRepetition(fresh, buffer, pick); got != fresh {
		t.Fatalf("expected unmodified reply, got %q", got)
	}

	old := []string{"That must be really hard for you", "a1 phrase", "a2 phrase", "a3 phrase", "a4 phrase", "a5 phrase"}
	if got := AvoidRepetition("That must be really hard to deal with.", old, pick); !strings.HasPrefix(got, "That") {
		t.Fatalf("expected phrases outside the window to be ignored, got %q", got)
	}
}

func TestKeyPhraseBuffer(t *testing.T) {
	phrases := ExtractKeyPhrases("Short. This is the first long sentence here! And this second one is long too? Third long sentence ignored.")
	want := []string{"This is the first long sentence here", "And this second one is long too"}
	if !reflect.DeepEqual(phrases, want) {
		t.Fatalf("unexpected phrases: %v", phrases)
	}

	var buffer []string
	for i := 0; i < 7; i++ {
		buffer = pushPhrases(buffer, []string{"a phrase", "b phrase"})
	}
	if len(buffer) != maxPhraseBuffer {
		t.Fatalf("expected buffer capped at %d, got %d", maxPhraseBuffer, len(buffer))
	}
}

func TestMergeTopicsKeepsMostRecent(t *testing.T) {
	var topics []string
	for _, topic := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"} {
		topics = mergeTopics(topics, []string{topic}, maxSessionTopics)
	}
	if len(topics) != maxSessionTopics || topics[0] != "b" || topics[9] != "k" {
		t.Fatalf("unexpected topics: %v", topics)
	}

	topics = mergeTopics(topics, []string{"c"}, maxSessionTopics)
	if topics[9] != "c" || len(topics) != maxSessionTopics {
		t.Fatalf("expected repeated topic moved to the end, got %v", topics)
	}
}

func TestSuggestActivitiesLowMoodEvening(t *testing.T) {
	f := newFixture("ok")
	c := f.companion(t)

	got, err := c.SuggestActivities(3, "evening")
	if err != nil {
		t.Fatalf("SuggestActivities failed: %v", err)
	}
	if len(got) > 4 {
		t.Fatalf("expected at most 4 suggestions, got %d", len(got))
	}
	var windDown, breathing bool
	for i, s := range got {
		if i > 0 && got[i-1].Priority > s.Priority {
			t.Fatalf("suggestions not sorted: %+v", got)
		}
		if strings.Contains(s.Activity, "Wind-down") {
			windDown = true
		}
		if strings.Contains(s.Activity, "breathing") {
			breathing = true
		}
	}
	if !windDown || !breathing {
		t.Fatalf("expected wind-down and breathing suggestions, got %+v", got)
	}
}

func TestSuggestActivitiesPersonalized(t *testing.T) {
	f := newFixture("ok")
	stress := 4.5
	f.memory.userCtx = types.UserContext{
		StressLevel: &stress,
		Patterns:    types.Patterns{EffectiveActivities: []string{"Yoga"}},
	}
	c := f.companion(t)

	got, err := c.SuggestActivities(6, "morning")
	if err != nil {
		t.Fatalf("SuggestActivities failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 suggestions, got %d", len(got))
	}
	if !got[1].Personalized && !got[2].Personalized {
		t.Fatalf("expected personalized suggestions, got %+v", got)
	}
	if got[3].Activity != "Progressive muscle relaxation" {
		t.Fatalf("expected stable ordering within a priority, got %+v", got)
	}
}

func TestSuggestActivitiesValidation(t *testing.T) {
	c := newFixture("ok").companion(t)

	if _, err := c.SuggestActivities(0, "morning"); !errors.Is(err, ErrInvalidMood) {
		t.Fatalf("expected ErrInvalidMood, got %v", err)
	}
	if _, err := c.SuggestActivities(5, "brunch"); !errors.Is(err, ErrInvalidTimeOfDay) {
		t.Fatalf("expected ErrInvalidTimeOfDay, got %v", err)
	}
}

func TestStatusIdempotent(t *testing.T) {
	f := newFixture("Thanks for telling me.")
	c := f.companion(t)
	if _, err := c.HandleMessage(context.Background(), "I have been anxious about my health", "", "text", HandleOptions{}); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	f.tasks.Wait()

	first := c.Status()
	second := c.Status()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("status changed between calls: %+v vs %+v", first, second)
	}
	if !first.Initialized || first.Provider != types.ProviderPrimaryLLM {
		t.Fatalf("unexpected status: %+v", first)
	}
	if !reflect.DeepEqual(first.RecentTopics, []string{"anxiety", "health"}) {
		t.Fatalf("unexpected recent topics: %v", first.RecentTopics)
	}
}

func TestPermissionsAndInsights(t *testing.T) {
	f := newFixture("ok")
	c := f.companion(t)

	res, err := c.GenerateInsights(context.Background())
	if err != nil {
		t.Fatalf("GenerateInsights failed: %v", err)
	}
	if !res.NeedsPermission || res.Success || f.insights.calls != 0 {
		t.Fatalf("expected needs-permission result, got %+v", res)
	}

	allow := true
	if !c.UpdatePermissions(context.Background(), types.PermissionUpdate{AnalyzeMood: &allow}) {
		t.Fatalf("expected permission update to succeed")
	}
	if !f.perms.perms.AnalyzeMood || f.perms.perms.AnalyzeJournals {
		t.Fatalf("unexpected stored permissions: %+v", f.perms.perms)
	}
	if f.memory.builds != 2 {
		t.Fatalf("expected context refresh, got %d builds", f.memory.builds)
	}
	if !c.Status().HasPermissions {
		t.Fatalf("expected status to report permissions")
	}

	res, err = c.GenerateInsights(context.Background())
	if err != nil {
		t.Fatalf("GenerateInsights failed: %v", err)
	}
	if !res.Success || res.Insights == nil || res.Insights.OverallMood != "steady" {
		t.Fatalf("unexpected insights result: %+v", res)
	}
}

func TestUpdatePermissionsKeepsDetectedName(t *testing.T) {
	f := newFixture("ok")
	c := f.companion(t)
	if _, err := c.HandleMessage(context.Background(), "call me Robin", "", "text", HandleOptions{}); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	f.tasks.Wait()

	allow := true
	c.UpdatePermissions(context.Background(), types.PermissionUpdate{AnalyzeSleepData: &allow})
	if got := c.Status().UserName; got != "Robin" {
		t.Fatalf("expected name kept after refresh, got %q", got)
	}
}

func TestLifecycle(t *testing.T) {
	f := newFixture("ok")
	c := New("user-1", f.deps)

	if _, err := c.HandleMessage(context.Background(), "hi", "", "text", HandleOptions{}); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if c.Status().Initialized {
		t.Fatalf("expected uninitialized status")
	}

	f.perms.err = errStoreDown
	if c.Initialize(context.Background()) {
		t.Fatalf("expected initialization to fail")
	}

	f.perms.err = nil
	if !c.Initialize(context.Background()) {
		t.Fatalf("expected initialization to succeed")
	}
	c.Dispose()
	if _, err := c.HandleMessage(context.Background(), "hi", "", "text", HandleOptions{}); !errors.Is(err, ErrDisposed) {
		t.Fatalf("expected ErrDisposed, got %v", err)
	}
	if c.Initialize(context.Background()) {
		t.Fatalf("expected disposed agent to stay disposed")
	}
}

func TestManager(t *testing.T) {
	f := newFixture("ok")
	m := NewManager(f.deps)

	f.perms.err = errStoreDown
	if _, err := m.Get(context.Background(), "user-1"); err == nil {
		t.Fatalf("expected initialization error")
	}
	if m.Len() != 0 {
		t.Fatalf("expected failed agent not cached")
	}

	f.perms.err = nil
	a, err := m.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	b, _ := m.Get(context.Background(), "user-1")
	if a != b {
		t.Fatalf("expected the same agent for the same user")
	}

	m.Dispose("user-1")
	if a.State() != StateDisposed || m.Len() != 0 {
		t.Fatalf("expected agent disposed and removed")
	}
	c, _ := m.Get(context.Background(), "user-1")
	if c == a {
		t.Fatalf("expected a fresh agent after dispose")
	}
	m.DisposeAll()
	if c.State() != StateDisposed {
		t.Fatalf("expected DisposeAll to dispose agents")
	}
}

func TestManagerInitializesOutsideLock(t *testing.T) {
	f := newFixture("ok")
	gate := make(chan struct{})
	f.perms.gates = map[string]chan struct{}{"slow": gate}
	f.perms.entered = make(chan string, 2)
	m := NewManager(f.deps)

	var wg sync.WaitGroup
	slow := make([]*Companion, 2)
	for i := range slow {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := m.Get(context.Background(), "slow")
			if err != nil {
				t.Errorf("Get slow failed: %v", err)
			}
			slow[i] = c
		}(i)
	}
	<-f.perms.entered

	done := make(chan error, 1)
	go func() {
		_, err := m.Get(context.Background(), "fast")
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Get fast failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		close(gate)
		t.Fatalf("expected another user's initialization not to block")
	}

	close(gate)
	wg.Wait()
	if slow[0] == nil || slow[0] != slow[1] {
		t.Fatalf("expected concurrent gets to share one agent")
	}
	if n := f.perms.loadCount("slow"); n != 1 {
		t.Fatalf("expected one initialization, got %d", n)
	}
	if m.Len() != 2 {
		t.Fatalf("expected two cached agents, got %d", m.Len())
	}
}
