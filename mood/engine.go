package mood

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// decayRatePerSecond moves valence toward zero; intensity decays at
	// half this rate, floored at 0.1.
	decayRatePerSecond = 0.02

	// smoothingFactor is the exponential smoothing applied to trigger
	// deltas, so single events shift mood gradually rather than replacing
	// it.
	smoothingFactor = 0.3

	// stateChangeThreshold is the minimum intensity at which a trigger's
	// suggested state takes over; below half of it the state falls back to
	// neutral.
	stateChangeThreshold = 0.4

	defaultIntensity = 0.5
)

// ChangeEvent describes one committed state transition.
type ChangeEvent struct {
	PersonaID string
	Previous  State
	Current   State
	Intensity float64
	Timestamp time.Time
}

// Snapshot is an immutable copy of the engine's current state.
type Snapshot struct {
	State      State
	Intensity  float64
	Valence    float64
	LastUpdate time.Time
}

// Engine tracks one persona's mood. All mutating methods are serialized
// internally; subscribers are invoked synchronously on the mutating
// goroutine, after the transition is committed and without the engine lock
// held.
type Engine struct {
	personaID string
	log       *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	state      State
	intensity  float64
	valence    float64
	lastUpdate time.Time

	nextSubID int
	subs      map[int]func(ChangeEvent)
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(personaID string, opts ...Option) *Engine {
	e := &Engine{
		personaID: personaID,
		log:       slog.Default(),
		now:       time.Now,
		state:     StateNeutral,
		intensity: defaultIntensity,
		subs:      make(map[int]func(ChangeEvent)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.lastUpdate = e.now()
	return e
}

// Subscription identifies one registered change handler.
type Subscription struct {
	id int
}

// Subscribe registers a handler for committed state changes.
func (e *Engine) Subscribe(handler func(ChangeEvent)) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSubID++
	e.subs[e.nextSubID] = handler
	return Subscription{id: e.nextSubID}
}

func (e *Engine) Unsubscribe(sub Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subs, sub.id)
}

// ApplyTrigger folds a trigger's valence delta into the current mood with
// exponential smoothing. The trigger's suggested state takes over once
// intensity reaches the change threshold; very low intensity falls back to
// neutral.
func (e *Engine) ApplyTrigger(trigger Trigger, multiplier float64) {
	e.mu.Lock()

	e.valence = clamp(e.valence+trigger.ValenceDelta*multiplier*smoothingFactor, -1, 1)
	e.intensity = lerp(e.intensity, abs(e.valence), smoothingFactor)

	previous := e.state
	if e.intensity >= stateChangeThreshold {
		if trigger.SuggestedState != e.state {
			e.state = trigger.SuggestedState
		}
	} else if e.intensity < stateChangeThreshold*0.5 {
		e.state = StateNeutral
	}
	e.lastUpdate = e.now()

	ev, subs := e.transitionLocked(previous)
	e.mu.Unlock()
	e.notify(ev, subs)
}

// SetState overrides the current state directly. Valence is derived from
// the state's base valence scaled by intensity.
func (e *Engine) SetState(state State, intensity float64) {
	e.mu.Lock()

	previous := e.state
	e.state = state
	e.intensity = clamp(intensity, 0, 1)
	e.valence = state.BaseValence() * e.intensity
	e.lastUpdate = e.now()

	ev, subs := e.transitionLocked(previous)
	e.mu.Unlock()
	e.notify(ev, subs)
}

// Decay applies time decay for the given elapsed duration: valence moves
// toward zero, intensity shrinks at half the rate (floored at 0.1), and a
// sufficiently calm non-neutral state returns to neutral. Decay performs no
// internal scheduling; callers invoke it periodically.
func (e *Engine) Decay(elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	e.mu.Lock()

	decay := decayRatePerSecond * elapsed.Seconds()
	switch {
	case e.valence > 0:
		e.valence = max(0, e.valence-decay)
	case e.valence < 0:
		e.valence = min(0, e.valence+decay)
	}
	e.intensity = max(0.1, e.intensity-decay*0.5)

	previous := e.state
	if e.intensity < stateChangeThreshold*0.5 && e.state != StateNeutral {
		e.state = StateNeutral
	}
	e.lastUpdate = e.now()

	ev, subs := e.transitionLocked(previous)
	e.mu.Unlock()
	e.notify(ev, subs)
}

// Snapshot returns a copy of the current mood state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		State:      e.state,
		Intensity:  e.intensity,
		Valence:    e.valence,
		LastUpdate: e.lastUpdate,
	}
}

// Describe renders the current mood as a prompt-ready phrase, combining an
// intensity bucket with the state's display name.
func (e *Engine) Describe() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateNeutral {
		return "情绪平静"
	}

	var bucket string
	switch {
	case e.intensity < 0.3:
		bucket = "轻微"
	case e.intensity < 0.6:
		bucket = "一般"
	case e.intensity < 0.8:
		bucket = "明显"
	default:
		bucket = "强烈"
	}
	return bucket + e.state.DisplayName()
}

func (e *Engine) IsPositive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.IsPositive() && e.intensity > stateChangeThreshold
}

func (e *Engine) IsNegative() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.IsNegative() && e.intensity > stateChangeThreshold
}

// transitionLocked builds the change event and handler snapshot if the
// state actually changed. Caller holds e.mu.
func (e *Engine) transitionLocked(previous State) (ChangeEvent, []func(ChangeEvent)) {
	if previous == e.state {
		return ChangeEvent{}, nil
	}
	subs := make([]func(ChangeEvent), 0, len(e.subs))
	for _, h := range e.subs {
		subs = append(subs, h)
	}
	return ChangeEvent{
		PersonaID: e.personaID,
		Previous:  previous,
		Current:   e.state,
		Intensity: e.intensity,
		Timestamp: e.lastUpdate,
	}, subs
}

func (e *Engine) notify(ev ChangeEvent, subs []func(ChangeEvent)) {
	if len(subs) == 0 {
		return
	}
	e.log.Debug("mood_changed",
		"persona", ev.PersonaID,
		"previous", string(ev.Previous),
		"current", string(ev.Current),
		"intensity", ev.Intensity,
	)
	for _, h := range subs {
		h(ev)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
