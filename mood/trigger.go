package mood

import "strings"

// Trigger is a named event with a fixed valence effect and a suggested
// target state. Triggers are stateless constants looked up by id.
type Trigger struct {
	ID             string
	ValenceDelta   float64
	SuggestedState State
}

const (
	TriggerReceivedGift         = "received_gift"
	TriggerReceivedFavoriteGift = "received_favorite_gift"
	TriggerReceivedCompliment   = "received_compliment"
	TriggerTaskCompleted        = "task_completed"
	TriggerGreeted              = "greeted"
	TriggerConversationStarted  = "conversation_started"
	TriggerAttacked             = "attacked"
	TriggerTaskFailed           = "task_failed"
	TriggerIgnored              = "ignored"
	TriggerReceivedDislikedGift = "received_disliked_gift"
	TriggerInterrupted          = "interrupted"
	TriggerSawInteresting       = "saw_interesting"
	TriggerAskedQuestion        = "asked_question"
	TriggerTimePassed           = "time_passed"
	TriggerConversationEnded    = "conversation_ended"
)

var triggers = map[string]Trigger{
	TriggerReceivedGift:         {TriggerReceivedGift, 0.5, StateHappy},
	TriggerReceivedFavoriteGift: {TriggerReceivedFavoriteGift, 0.8, StateExcited},
	TriggerReceivedCompliment:   {TriggerReceivedCompliment, 0.4, StateHappy},
	TriggerTaskCompleted:        {TriggerTaskCompleted, 0.6, StateHappy},
	TriggerGreeted:              {TriggerGreeted, 0.3, StateHappy},
	TriggerConversationStarted:  {TriggerConversationStarted, 0.2, StateAnticipating},
	TriggerAttacked:             {TriggerAttacked, -0.7, StateAngry},
	TriggerTaskFailed:           {TriggerTaskFailed, -0.5, StateSad},
	TriggerIgnored:              {TriggerIgnored, -0.3, StateSad},
	TriggerReceivedDislikedGift: {TriggerReceivedDislikedGift, -0.2, StateConfused},
	TriggerInterrupted:          {TriggerInterrupted, -0.4, StateAngry},
	TriggerSawInteresting:       {TriggerSawInteresting, 0.3, StateSurprised},
	TriggerAskedQuestion:        {TriggerAskedQuestion, 0.1, StateThinking},
	TriggerTimePassed:           {TriggerTimePassed, 0, StateNeutral},
	TriggerConversationEnded:    {TriggerConversationEnded, -0.1, StateNeutral},
}

// TriggerFromID resolves a trigger identifier, case-insensitively. Unknown
// identifiers are a lookup failure, not a fallback.
func TriggerFromID(id string) (Trigger, bool) {
	t, ok := triggers[strings.ToLower(strings.TrimSpace(id))]
	return t, ok
}
