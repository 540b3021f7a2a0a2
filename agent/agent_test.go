package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Origin-of-Miracles/Anima/llm"
	"github.com/Origin-of-Miracles/Anima/memory"
	"github.com/Origin-of-Miracles/Anima/mood"
	"github.com/Origin-of-Miracles/Anima/persona"
	"github.com/Origin-of-Miracles/Anima/throttle"
)

// stubClient records requests and plays back canned results.
type stubClient struct {
	mu       sync.Mutex
	requests []llm.Request
	content  string
	err      error
}

func (s *stubClient) Chat(_ context.Context, req llm.Request) (llm.Result, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.err != nil {
		return llm.Result{}, s.err
	}
	return llm.Result{
		Content:  s.content,
		Usage:    llm.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
		Duration: 5 * time.Millisecond,
	}, nil
}

func (s *stubClient) lastRequest(t *testing.T) llm.Request {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		t.Fatal("no requests captured")
	}
	return s.requests[len(s.requests)-1]
}

func testPersona() persona.Persona {
	return persona.Persona{
		ID:   "arona",
		Name: "阿罗娜",
		ExampleDialogues: []persona.ExampleDialogue{
			{User: "你好", Assistant: "老师，早上好~！"},
		},
	}
}

func newTestAgent(t *testing.T, client llm.Client, opts ...AgentOption) *Agent {
	t.Helper()
	store, err := memory.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	a, err := New(context.Background(), testPersona(), client, store, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestChatSuccessUpdatesState(t *testing.T) {
	stub := &stubClient{content: "老师好！(≧▽≦)"}
	th := throttle.New(2, 100)
	a := newTestAgent(t, stub, WithThrottle(th))

	result, err := a.Chat(context.Background(), "你好呀")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if result.Content != "老师好！(≧▽≦)" {
		t.Errorf("reply = %q", result.Content)
	}
	if got := a.HistorySize(); got != 2 {
		t.Errorf("HistorySize() = %d, want 2", got)
	}

	// conversation_started fires on the first turn, and the reply's
	// positive keywords push the mood further up.
	snap := a.Mood()
	if snap.Valence <= 0 {
		t.Errorf("valence = %v, want > 0 after positive turn", snap.Valence)
	}

	stats := th.Stats()
	if stats.TotalRequests != 1 {
		t.Errorf("throttle TotalRequests = %d, want 1", stats.TotalRequests)
	}
	if stats.CompletionTokens != 20 {
		t.Errorf("throttle CompletionTokens = %d, want 20", stats.CompletionTokens)
	}
	if got := th.AvailablePermits(); got != 2 {
		t.Errorf("permit leaked: AvailablePermits() = %d, want 2", got)
	}
}

func TestChatFailureLeavesHistoryUntouched(t *testing.T) {
	stub := &stubClient{err: &llm.UpstreamError{StatusCode: 500, Body: "boom"}}
	a := newTestAgent(t, stub)

	_, err := a.Chat(context.Background(), "你好")
	var upstream *llm.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("Chat() error = %v, want UpstreamError", err)
	}
	if got := a.HistorySize(); got != 0 {
		t.Fatalf("HistorySize() after failure = %d, want 0", got)
	}
}

func TestChatFewShotOnlyOnFirstTurn(t *testing.T) {
	stub := &stubClient{content: "好的~"}
	a := newTestAgent(t, stub)
	ctx := context.Background()

	if _, err := a.Chat(ctx, "第一句"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	first := stub.lastRequest(t)
	// system + example user/assistant + user message
	if len(first.Messages) != 4 {
		t.Fatalf("first request has %d messages, want 4", len(first.Messages))
	}
	if first.Messages[1].Content != "你好" || first.Messages[2].Content != "老师，早上好~！" {
		t.Errorf("few-shot example missing from first request: %+v", first.Messages)
	}

	if _, err := a.Chat(ctx, "第二句"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	second := stub.lastRequest(t)
	// system + 2 history + user message, no examples
	if len(second.Messages) != 4 {
		t.Fatalf("second request has %d messages, want 4", len(second.Messages))
	}
	if second.Messages[1].Content != "第一句" {
		t.Errorf("second request should replay history, got %+v", second.Messages)
	}
}

func TestChatSystemPromptCarriesState(t *testing.T) {
	stub := &stubClient{content: "好~"}
	a := newTestAgent(t, stub)
	a.SetPerception(&Perception{
		TimeOfDay:      "黄昏",
		PlayerPosition: "(120, 64, -35)",
		PlayerHeldItem: "草莓牛奶",
		NearbyEntities: 3,
	})

	if _, err := a.Chat(context.Background(), "你好"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	system := stub.lastRequest(t).Messages[0].Content
	for _, want := range []string{
		"你是阿罗娜",
		"【当前状态】",
		"- 情绪: ",
		"【环境感知】",
		"- 时间: 黄昏",
		"- 玩家手持: 草莓牛奶",
		"- 附近实体: 3个",
		"【当前对话】",
	} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt missing %q:\n%s", want, system)
		}
	}
}

func TestChatPassesPersonaOverrides(t *testing.T) {
	temp := 0.9
	p := testPersona()
	p.ModelOverride = "gpt-4o"
	p.TemperatureOverride = &temp

	stub := &stubClient{content: "好~"}
	store, err := memory.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	a, err := New(context.Background(), p, stub, store)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := a.Chat(context.Background(), "你好"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	req := stub.lastRequest(t)
	if req.Model != "gpt-4o" {
		t.Errorf("request model = %q, want gpt-4o", req.Model)
	}
	if req.Temperature == nil || *req.Temperature != 0.9 {
		t.Errorf("request temperature = %v, want 0.9", req.Temperature)
	}
}

func TestChatThrottledReturnsErrOverloaded(t *testing.T) {
	stub := &stubClient{content: "好~"}
	th := throttle.New(5, 1) // one request per minute
	a := newTestAgent(t, stub, WithThrottle(th))
	ctx := context.Background()

	if _, err := a.Chat(ctx, "第一句"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	_, err := a.Chat(ctx, "第二句")
	if !errors.Is(err, ErrOverloaded) {
		t.Fatalf("Chat() over budget = %v, want ErrOverloaded", err)
	}
	// The rejected turn must not grow history.
	if got := a.HistorySize(); got != 2 {
		t.Fatalf("HistorySize() = %d, want 2", got)
	}
}

func TestHistoryWindowTrimmed(t *testing.T) {
	stub := &stubClient{content: "好~"}
	a := newTestAgent(t, stub)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		if _, err := a.Chat(ctx, "继续"); err != nil {
			t.Fatalf("Chat() #%d error = %v", i, err)
		}
	}
	if got := a.HistorySize(); got != maxHistorySize {
		t.Fatalf("HistorySize() = %d, want %d", got, maxHistorySize)
	}
	history := a.History()
	if history[len(history)-1].Role != llm.RoleAssistant {
		t.Errorf("last history message role = %q, want assistant", history[len(history)-1].Role)
	}
}

func TestMoodChangeRecordedAsEmotion(t *testing.T) {
	stub := &stubClient{content: "好~"}
	a := newTestAgent(t, stub)

	// Force a state change; the subscription should write an emotion entry.
	if err := a.TriggerMood(mood.TriggerAttacked, 1); err != nil {
		t.Fatalf("TriggerMood() error = %v", err)
	}

	entries := a.Memories().Immediate().Entries()
	found := false
	for _, e := range entries {
		if e.Type == memory.TypeEmotion && strings.Contains(e.Content, "生气") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no emotion entry recorded for mood change, entries = %v", entries)
	}
}

func TestTriggerMoodUnknownID(t *testing.T) {
	a := newTestAgent(t, &stubClient{content: "好~"})
	if err := a.TriggerMood("no_such_trigger", 1); err == nil {
		t.Fatal("TriggerMood() with unknown id succeeded")
	}
}

func TestDecayMoodReturnsToNeutral(t *testing.T) {
	a := newTestAgent(t, &stubClient{content: "好~"})
	if err := a.TriggerMood(mood.TriggerAttacked, 1); err != nil {
		t.Fatalf("TriggerMood() error = %v", err)
	}
	if got := a.Mood().State; got != mood.StateAngry {
		t.Fatalf("State after attack = %v, want %v", got, mood.StateAngry)
	}

	a.DecayMood(5 * time.Minute)
	snap := a.Mood()
	if snap.State != mood.StateNeutral {
		t.Errorf("State after decay = %v, want %v", snap.State, mood.StateNeutral)
	}
	if snap.Valence != 0 {
		t.Errorf("Valence after decay = %v, want 0", snap.Valence)
	}
}

func TestSubscribeMoodObservesTransitions(t *testing.T) {
	a := newTestAgent(t, &stubClient{content: "好~"})

	var mu sync.Mutex
	var events []mood.ChangeEvent
	sub := a.SubscribeMood(func(ev mood.ChangeEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	if err := a.TriggerMood(mood.TriggerAttacked, 1); err != nil {
		t.Fatalf("TriggerMood() error = %v", err)
	}
	mu.Lock()
	n := len(events)
	mu.Unlock()
	if n != 1 {
		t.Fatalf("handler fired %d times, want 1", n)
	}
	if events[0].Current != mood.StateAngry {
		t.Errorf("event Current = %v, want %v", events[0].Current, mood.StateAngry)
	}

	a.UnsubscribeMood(sub)
	a.DecayMood(5 * time.Minute)
	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Errorf("handler fired after unsubscribe: %d events", len(events))
	}
}

func TestEndSessionPersistsMemory(t *testing.T) {
	ctx := context.Background()
	stub := &stubClient{content: "好~"}
	dir := t.TempDir()
	store, err := memory.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	a, err := New(ctx, testPersona(), stub, store)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	a.Memories().RecordEvent("和老师一起看了日落", 0.9)
	if err := a.EndSession(ctx); err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}
	if got := a.HistorySize(); got != 0 {
		t.Fatalf("HistorySize() after EndSession() = %d, want 0", got)
	}

	// A new agent over the same store remembers.
	b, err := New(ctx, testPersona(), stub, store)
	if err != nil {
		t.Fatalf("New() reload error = %v", err)
	}
	if hits := b.Memories().SearchByKeyword("日落"); len(hits) == 0 {
		t.Fatal("promoted memory not visible after reload")
	}
}

func TestClearHistoryDropsImmediateMemory(t *testing.T) {
	stub := &stubClient{content: "好~"}
	a := newTestAgent(t, stub)

	if _, err := a.Chat(context.Background(), "你好"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	a.ClearHistory()
	if a.HistorySize() != 0 {
		t.Fatalf("HistorySize() = %d, want 0", a.HistorySize())
	}
	if got := a.Memories().Immediate().EntryCount(); got != 0 {
		t.Fatalf("immediate entries after ClearHistory() = %d, want 0", got)
	}
}

func TestPerceptionRenderEmpty(t *testing.T) {
	var p *Perception
	if got := p.render(); got != "" {
		t.Fatalf("nil perception render = %q, want empty", got)
	}
}
