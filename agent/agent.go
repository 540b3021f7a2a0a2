// Package agent binds a persona, a mood engine, a memory bank and the
// completion client into one conversational character, and manages the set
// of live characters through a registry.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Origin-of-Miracles/Anima/llm"
	"github.com/Origin-of-Miracles/Anima/memory"
	"github.com/Origin-of-Miracles/Anima/mood"
	"github.com/Origin-of-Miracles/Anima/persona"
	"github.com/Origin-of-Miracles/Anima/throttle"
)

// maxHistorySize bounds the dialogue history replayed to the model. A user
// and an assistant turn each count as one message.
const maxHistorySize = 20

// ErrOverloaded is returned when the shared throttle refuses the request.
var ErrOverloaded = errors.New("agent: model capacity exhausted")

// Perception is a snapshot of the character's surroundings supplied by the
// host. All fields are optional.
type Perception struct {
	TimeOfDay      string
	PlayerPosition string
	PlayerHeldItem string
	NearbyEntities int
}

func (p *Perception) render() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n【环境感知】\n")
	if p.TimeOfDay != "" {
		b.WriteString("- 时间: " + p.TimeOfDay + "\n")
	}
	if p.PlayerPosition != "" {
		b.WriteString("- 玩家位置: " + p.PlayerPosition + "\n")
	}
	if p.PlayerHeldItem != "" {
		b.WriteString("- 玩家手持: " + p.PlayerHeldItem + "\n")
	}
	if p.NearbyEntities > 0 {
		b.WriteString("- 附近实体: " + strconv.Itoa(p.NearbyEntities) + "个\n")
	}
	return b.String()
}

// Agent is one live conversational character. All of its operations are
// serialized on an internal mutex: one chat is in flight per agent at a
// time.
type Agent struct {
	id       string
	persona  persona.Persona
	client   llm.Client
	throttle *throttle.Throttle
	logger   *slog.Logger

	moods      *mood.Engine
	memories   *memory.Bank
	classifier mood.Classifier

	mu         sync.Mutex
	history    []llm.Message
	perception *Perception
}

type AgentOption func(*Agent)

func WithThrottle(t *throttle.Throttle) AgentOption {
	return func(a *Agent) { a.throttle = t }
}

func WithClassifier(c mood.Classifier) AgentOption {
	return func(a *Agent) { a.classifier = c }
}

func WithLogger(logger *slog.Logger) AgentOption {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New constructs an agent with a fresh mood engine and a memory bank
// restored from the store. Mood transitions are recorded into memory as
// emotion entries.
func New(ctx context.Context, p persona.Persona, client llm.Client, store memory.Store, opts ...AgentOption) (*Agent, error) {
	id := strings.ToLower(p.ID)
	a := &Agent{
		id:         id,
		persona:    p,
		client:     client,
		classifier: mood.KeywordClassifier{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.moods = mood.NewEngine(id, mood.WithLogger(a.logger))

	bank, err := memory.NewBank(ctx, id, store, memory.WithBankLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("create agent %s: %w", id, err)
	}
	a.memories = bank

	a.moods.Subscribe(func(ev mood.ChangeEvent) {
		a.memories.RecordEmotion(
			"情绪从"+ev.Previous.DisplayName()+"变为"+ev.Current.DisplayName(),
			ev.Current.BaseValence(),
		)
	})

	a.logger.Debug("agent_created", "id", id, "persona", p.Name)
	return a, nil
}

func (a *Agent) ID() string               { return a.id }
func (a *Agent) Persona() persona.Persona { return a.persona }
func (a *Agent) Memories() *memory.Bank   { return a.memories }

// SetPerception replaces the environment snapshot injected into the next
// prompt. Nil clears it.
func (a *Agent) SetPerception(p *Perception) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.perception = p
}

// Chat sends one user message and returns the model's reply. History,
// memory and mood are only updated when the upstream call succeeds, so a
// failed turn can be retried with identical state.
func (a *Agent) Chat(ctx context.Context, userMessage string) (llm.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.history) == 0 {
		if trigger, ok := mood.TriggerFromID(mood.TriggerConversationStarted); ok {
			a.moods.ApplyTrigger(trigger, 1)
		}
	}

	a.memories.RecordUserMessage(userMessage)

	messages := a.buildMessages(userMessage)

	if a.throttle != nil {
		if err := a.throttle.Acquire(ctx); err != nil {
			if errors.Is(err, throttle.ErrThrottled) {
				return llm.Result{}, fmt.Errorf("%w: %s", ErrOverloaded, a.id)
			}
			return llm.Result{}, err
		}
		defer a.throttle.Release()
	}

	result, err := a.client.Chat(ctx, llm.Request{
		Model:       a.persona.ModelOverride,
		Messages:    messages,
		Temperature: a.persona.TemperatureOverride,
	})
	if err != nil {
		a.logger.Warn("chat_failed", "id", a.id, "error", err)
		return llm.Result{}, err
	}

	a.appendHistory(llm.User(userMessage))
	a.appendHistory(llm.Assistant(result.Content))
	a.memories.RecordAssistantMessage(result.Content)

	if a.classifier != nil {
		if reaction, ok := a.classifier.Classify(result.Content); ok {
			reaction.Apply(a.moods)
		}
	}
	if a.throttle != nil {
		a.throttle.RecordUsage(result.Usage)
	}

	a.logger.Debug("chat_completed",
		"id", a.id,
		"history", len(a.history),
		"tokens", result.Usage.TotalTokens,
		"duration", result.Duration,
	)
	return result, nil
}

// buildMessages assembles the request: enhanced system prompt, then the
// persona's few-shot examples on the very first turn only, then history and
// the new user message. Caller holds a.mu.
func (a *Agent) buildMessages(userMessage string) []llm.Message {
	systemPrompt := a.buildEnhancedSystemPrompt()

	if len(a.history) == 0 && len(a.persona.ExampleDialogues) > 0 {
		messages := make([]llm.Message, 0, 2+2*len(a.persona.ExampleDialogues))
		messages = append(messages, llm.System(systemPrompt))
		for _, example := range a.persona.ExampleDialogues {
			messages = append(messages, llm.User(example.User), llm.Assistant(example.Assistant))
		}
		return append(messages, llm.User(userMessage))
	}
	return llm.BuildMessages(systemPrompt, a.history, userMessage)
}

// buildEnhancedSystemPrompt layers the live state onto the persona's base
// prompt: current mood, perception, then the memory context. Caller holds
// a.mu.
func (a *Agent) buildEnhancedSystemPrompt() string {
	var b strings.Builder
	b.WriteString(a.persona.BuildSystemPrompt())

	b.WriteString("\n\n【当前状态】\n")
	b.WriteString("- 情绪: " + a.moods.Describe() + "\n")

	b.WriteString(a.perception.render())

	if memoryContext := a.memories.BuildContext(); memoryContext != "" {
		b.WriteString("\n" + memoryContext)
	}
	return b.String()
}

func (a *Agent) appendHistory(msg llm.Message) {
	a.history = append(a.history, msg)
	if overflow := len(a.history) - maxHistorySize; overflow > 0 {
		a.history = append(a.history[:0:0], a.history[overflow:]...)
	}
}

// History returns a copy of the replayed dialogue window.
func (a *Agent) History() []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]llm.Message, len(a.history))
	copy(out, a.history)
	return out
}

func (a *Agent) HistorySize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.history)
}

// ClearHistory drops the dialogue window and the immediate memory tier
// without extraction.
func (a *Agent) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
	a.memories.ClearImmediate()
	a.logger.Debug("history_cleared", "id", a.id)
}

// EndSession closes the conversation: a conversation_ended mood trigger,
// then memory extraction and persistence. The dialogue window is cleared.
func (a *Agent) EndSession(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if trigger, ok := mood.TriggerFromID(mood.TriggerConversationEnded); ok {
		a.moods.ApplyTrigger(trigger, 1)
	}
	a.history = nil
	if err := a.memories.EndSession(ctx); err != nil {
		// Memory persistence is best-effort: the session still ends.
		a.logger.Error("session_save_failed", "id", a.id, "error", err)
		return err
	}
	a.logger.Info("session_ended", "id", a.id)
	return nil
}

// Mood returns the current mood snapshot.
func (a *Agent) Mood() mood.Snapshot {
	return a.moods.Snapshot()
}

// MoodDescription renders the mood for display, e.g. 轻微开心.
func (a *Agent) MoodDescription() string {
	return a.moods.Describe()
}

// DecayMood applies time decay to the mood engine. The engine does no
// internal scheduling, so hosts call this from their own tick.
func (a *Agent) DecayMood(elapsed time.Duration) {
	a.moods.Decay(elapsed)
}

// SubscribeMood registers a handler for committed mood transitions. The
// handler runs outside the agent's lock.
func (a *Agent) SubscribeMood(handler func(mood.ChangeEvent)) mood.Subscription {
	return a.moods.Subscribe(handler)
}

// UnsubscribeMood removes a handler registered with SubscribeMood.
func (a *Agent) UnsubscribeMood(sub mood.Subscription) {
	a.moods.Unsubscribe(sub)
}

// TriggerMood applies a named mood trigger scaled by multiplier.
func (a *Agent) TriggerMood(triggerID string, multiplier float64) error {
	trigger, ok := mood.TriggerFromID(triggerID)
	if !ok {
		return fmt.Errorf("unknown mood trigger %q", triggerID)
	}
	a.moods.ApplyTrigger(trigger, multiplier)
	return nil
}
