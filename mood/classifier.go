package mood

import "strings"

// Reaction is a suggested mood adjustment inferred from free text. Either
// Trigger is set (applied with Multiplier through Engine.ApplyTrigger) or
// State is set (applied directly with Intensity).
type Reaction struct {
	Trigger    *Trigger
	Multiplier float64
	State      State
	Intensity  float64
}

// Apply folds the reaction into the engine.
func (r Reaction) Apply(e *Engine) {
	if r.Trigger != nil {
		e.ApplyTrigger(*r.Trigger, r.Multiplier)
		return
	}
	e.SetState(r.State, r.Intensity)
}

// Classifier infers a mood reaction from reply text. It is a fuzzy,
// non-authoritative signal; implementations may be swapped without touching
// the agent's control flow.
type Classifier interface {
	Classify(text string) (Reaction, bool)
}

// KeywordClassifier is the default heuristic: small fixed keyword lists for
// strongly valenced affect. First match wins, in positive, sad, angry,
// question order.
type KeywordClassifier struct{}

var (
	positiveKeywords = []string{"开心", "高兴", "太好了", "≧▽≦", "嘿嘿"}
	sadKeywords      = []string{"难过", "伤心", "呜呜", "•́︿•̀"}
	angryKeywords    = []string{"生气", "哼", "讨厌"}
	questionKeywords = []string{"？", "什么", "为什么"}
)

func (KeywordClassifier) Classify(text string) (Reaction, bool) {
	lowered := strings.ToLower(text)

	if containsAny(lowered, positiveKeywords) {
		t, _ := TriggerFromID(TriggerReceivedCompliment)
		return Reaction{Trigger: &t, Multiplier: 0.5}, true
	}
	if containsAny(lowered, sadKeywords) {
		return Reaction{State: StateSad, Intensity: 0.5}, true
	}
	if containsAny(lowered, angryKeywords) {
		return Reaction{State: StateAngry, Intensity: 0.4}, true
	}
	if containsAny(lowered, questionKeywords) {
		return Reaction{State: StateConfused, Intensity: 0.3}, true
	}
	return Reaction{}, false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
