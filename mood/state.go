// Package mood models a persona's emotional state: a fixed catalogue of
// states and triggers, and a per-persona engine that applies triggers,
// decays over time and notifies subscribers on state changes.
package mood

import "strings"

type State string

const (
	StateNeutral      State = "neutral"
	StateHappy        State = "happy"
	StateExcited      State = "excited"
	StateSad          State = "sad"
	StateAngry        State = "angry"
	StateSurprised    State = "surprised"
	StateShy          State = "shy"
	StateConfused     State = "confused"
	StateThinking     State = "thinking"
	StateTired        State = "tired"
	StateWorried      State = "worried"
	StateAnticipating State = "anticipating"
)

type stateInfo struct {
	displayName string
	baseValence float64
}

var states = map[State]stateInfo{
	StateNeutral:      {"平静", 0},
	StateHappy:        {"开心", 0.7},
	StateExcited:      {"兴奋", 0.9},
	StateSad:          {"难过", -0.6},
	StateAngry:        {"生气", -0.8},
	StateSurprised:    {"惊讶", 0.3},
	StateShy:          {"害羞", 0.4},
	StateConfused:     {"困惑", -0.2},
	StateThinking:     {"思考中", 0},
	StateTired:        {"疲惫", -0.3},
	StateWorried:      {"担心", -0.4},
	StateAnticipating: {"期待", 0.5},
}

func (s State) DisplayName() string {
	return states[s].displayName
}

func (s State) BaseValence() float64 {
	return states[s].baseValence
}

func (s State) IsPositive() bool {
	return s.BaseValence() > 0.1
}

func (s State) IsNegative() bool {
	return s.BaseValence() < -0.1
}

// StateFromID resolves a state identifier, case-insensitively. Unknown
// identifiers resolve to StateNeutral.
func StateFromID(id string) State {
	s := State(strings.ToLower(strings.TrimSpace(id)))
	if _, ok := states[s]; ok {
		return s
	}
	return StateNeutral
}
