// Package memory implements the two-tier memory store: a bounded immediate
// window for the current conversation, and a persisted, date-bucketed
// short-term store of promoted important entries.
package memory

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type EntryType string

const (
	TypeDialogue    EntryType = "dialogue"
	TypeEvent       EntryType = "event"
	TypeObservation EntryType = "observation"
	TypeEmotion     EntryType = "emotion"
)

const (
	SourceSelf        = "self"
	SourcePlayer      = "player"
	SourceEnvironment = "environment"
)

// Entry is one atomic remembered fact. Entries are value types: the With*
// methods return adjusted copies, and stores copy entries rather than
// sharing them.
type Entry struct {
	ID           string    `json:"id"`
	Type         EntryType `json:"type"`
	Content      string    `json:"content"`
	Source       string    `json:"source"`
	Timestamp    time.Time `json:"timestamp"`
	Importance   float64   `json:"importance"`
	Valence      float64   `json:"emotional_valence"`
	Location     string    `json:"location,omitempty"`
	Participants []string  `json:"participants,omitempty"`
}

func newEntry(entryType EntryType, content, source string) Entry {
	return Entry{
		ID:         uuid.NewString(),
		Type:       entryType,
		Content:    content,
		Source:     source,
		Timestamp:  time.Now(),
		Importance: 0.5,
	}
}

func Dialogue(content, source string) Entry {
	return newEntry(TypeDialogue, content, source)
}

func Event(content string) Entry {
	return newEntry(TypeEvent, content, SourceEnvironment)
}

func Observation(content string) Entry {
	return newEntry(TypeObservation, content, SourceSelf)
}

func Emotion(content string, valence float64) Entry {
	return newEntry(TypeEmotion, content, SourceSelf).WithValence(valence)
}

func (e Entry) WithImportance(importance float64) Entry {
	e.Importance = clamp(importance, 0, 1)
	return e
}

func (e Entry) WithValence(valence float64) Entry {
	e.Valence = clamp(valence, -1, 1)
	return e
}

func (e Entry) WithLocation(location string) Entry {
	e.Location = location
	return e
}

func (e Entry) WithParticipants(participants ...string) Entry {
	e.Participants = participants
	return e
}

func (e Entry) WithTimestamp(ts time.Time) Entry {
	e.Timestamp = ts
	return e
}

// Relevance scores the entry as importance discounted by age:
// importance × hourlyDecay^hours.
func (e Entry) Relevance(hourlyDecay float64, now time.Time) float64 {
	hours := now.Sub(e.Timestamp).Hours()
	if hours < 0 {
		hours = 0
	}
	return e.Importance * math.Pow(hourlyDecay, math.Floor(hours))
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Content)
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
