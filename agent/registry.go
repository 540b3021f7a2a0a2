package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Origin-of-Miracles/Anima/llm"
	"github.com/Origin-of-Miracles/Anima/memory"
	"github.com/Origin-of-Miracles/Anima/mood"
	"github.com/Origin-of-Miracles/Anima/persona"
	"github.com/Origin-of-Miracles/Anima/throttle"
)

// ErrPersonaNotFound is returned when no persona definition exists for the
// requested id.
var ErrPersonaNotFound = errors.New("agent: persona not found")

// Info summarizes one configured persona and, when an agent exists for it,
// its session state.
type Info struct {
	ID               string
	Name             string
	NameEn           string
	School           string
	Club             string
	Role             string
	HasActiveSession bool
	HistorySize      int
}

// Registry creates agents on demand, one per persona id, and serves them
// for the process lifetime. Ids are case-insensitive; an agent is
// constructed at most once.
type Registry struct {
	client   llm.Client
	personas persona.Source
	store    memory.Store
	throttle *throttle.Throttle
	logger   *slog.Logger

	mu     sync.Mutex
	agents map[string]*Agent
}

type RegistryOption func(*Registry)

func WithRegistryThrottle(t *throttle.Throttle) RegistryOption {
	return func(r *Registry) { r.throttle = t }
}

func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRegistry(client llm.Client, personas persona.Source, store memory.Store, opts ...RegistryOption) *Registry {
	r := &Registry{
		client:   client,
		personas: personas,
		store:    store,
		logger:   slog.Default(),
		agents:   make(map[string]*Agent),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the agent for an id, constructing it on first use.
func (r *Registry) Get(ctx context.Context, id string) (*Agent, error) {
	key := strings.ToLower(id)

	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.agents[key]; ok {
		return a, nil
	}

	p, ok := r.personas.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPersonaNotFound, id)
	}

	opts := []AgentOption{WithLogger(r.logger)}
	if r.throttle != nil {
		opts = append(opts, WithThrottle(r.throttle))
	}
	a, err := New(ctx, p, r.client, r.store, opts...)
	if err != nil {
		return nil, err
	}
	r.agents[key] = a
	r.logger.Info("agent_started", "id", key, "persona", p.Name)
	return a, nil
}

// Chat routes one message to the named persona's agent.
func (r *Registry) Chat(ctx context.Context, id, message string) (llm.Result, error) {
	a, err := r.Get(ctx, id)
	if err != nil {
		return llm.Result{}, err
	}
	return a.Chat(ctx, message)
}

// EndSession closes the named agent's conversation if it exists.
func (r *Registry) EndSession(ctx context.Context, id string) error {
	if a, ok := r.lookup(id); ok {
		return a.EndSession(ctx)
	}
	return nil
}

// ClearHistory drops the named agent's conversation. It reports whether an
// agent existed.
func (r *Registry) ClearHistory(id string) bool {
	if a, ok := r.lookup(id); ok {
		a.ClearHistory()
		return true
	}
	return false
}

// ClearAllHistory drops every live agent's conversation.
func (r *Registry) ClearAllHistory() {
	for _, a := range r.snapshotAgents() {
		a.ClearHistory()
	}
	r.logger.Info("all_history_cleared")
}

// ListAvailable describes every configured persona, with session state for
// the ones that have a live agent. Sorted by id.
func (r *Registry) ListAvailable() []Info {
	personas := r.personas.All()
	out := make([]Info, 0, len(personas))
	for _, p := range personas {
		info := Info{
			ID:     p.ID,
			Name:   p.Name,
			NameEn: p.NameEn,
			School: p.School,
			Club:   p.Club,
			Role:   p.Role,
		}
		if a, ok := r.lookup(p.ID); ok {
			info.HistorySize = a.HistorySize()
			info.HasActiveSession = info.HistorySize > 0
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Describe returns the info for a single persona.
func (r *Registry) Describe(id string) (Info, error) {
	p, ok := r.personas.Get(id)
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrPersonaNotFound, id)
	}
	info := Info{
		ID:     p.ID,
		Name:   p.Name,
		NameEn: p.NameEn,
		School: p.School,
		Club:   p.Club,
		Role:   p.Role,
	}
	if a, ok := r.lookup(p.ID); ok {
		info.HistorySize = a.HistorySize()
		info.HasActiveSession = info.HistorySize > 0
	}
	return info, nil
}

// Mood returns the named persona's current mood, constructing the agent if
// needed so a never-chatted persona reports its resting state.
func (r *Registry) Mood(ctx context.Context, id string) (mood.Snapshot, string, error) {
	a, err := r.Get(ctx, id)
	if err != nil {
		return mood.Snapshot{}, "", err
	}
	return a.Mood(), a.MoodDescription(), nil
}

// TriggerMood applies a named trigger to the persona's agent.
func (r *Registry) TriggerMood(ctx context.Context, id, triggerID string, multiplier float64) error {
	a, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return a.TriggerMood(triggerID, multiplier)
}

// DecayMoods applies time decay to every live agent's mood. Hosts call
// this from a periodic tick alongside their world updates.
func (r *Registry) DecayMoods(elapsed time.Duration) {
	for _, a := range r.snapshotAgents() {
		a.DecayMood(elapsed)
	}
}

// SubscribeMood registers a mood-transition handler on the persona's
// agent, constructing it if needed.
func (r *Registry) SubscribeMood(ctx context.Context, id string, handler func(mood.ChangeEvent)) (mood.Subscription, error) {
	a, err := r.Get(ctx, id)
	if err != nil {
		return mood.Subscription{}, err
	}
	return a.SubscribeMood(handler), nil
}

// RemoveAgent drops the live agent, releasing its state. The persona
// definition is untouched; the next Get constructs a fresh agent.
func (r *Registry) RemoveAgent(id string) {
	key := strings.ToLower(id)
	r.mu.Lock()
	_, existed := r.agents[key]
	delete(r.agents, key)
	r.mu.Unlock()
	if existed {
		r.logger.Info("agent_removed", "id", key)
	}
}

// ActiveAgents reports how many agents have been constructed.
func (r *Registry) ActiveAgents() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.agents)
}

// ReloadPersonas re-reads the persona definitions. Live agents keep the
// persona they were created with.
func (r *Registry) ReloadPersonas() error {
	if err := r.personas.Reload(); err != nil {
		return fmt.Errorf("reload personas: %w", err)
	}
	r.logger.Info("personas_reloaded")
	return nil
}

func (r *Registry) lookup(id string) (*Agent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[strings.ToLower(id)]
	return a, ok
}

func (r *Registry) snapshotAgents() []*Agent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	return out
}
