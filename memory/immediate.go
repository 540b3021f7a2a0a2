package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/Origin-of-Miracles/Anima/llm"
)

// DefaultImmediateCapacity is the message window of one conversation. The
// entry buffer holds twice this many entries, since non-dialogue entries
// accumulate alongside the dialogue itself.
const DefaultImmediateCapacity = 20

// Immediate is the bounded memory of the current conversation. Oldest
// items are evicted FIFO on overflow; the whole store is cleared at session
// end.
type Immediate struct {
	mu       sync.Mutex
	capacity int
	messages []llm.Message
	entries  []Entry
}

func NewImmediate(capacity int) *Immediate {
	if capacity <= 0 {
		capacity = DefaultImmediateCapacity
	}
	return &Immediate{capacity: capacity}
}

// AddMessage records a dialogue turn, mirroring it as a dialogue entry
// whose source is derived from the message role.
func (m *Immediate) AddMessage(msg llm.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, msg)

	source := SourcePlayer
	if msg.Role == llm.RoleAssistant {
		source = SourceSelf
	}
	m.entries = append(m.entries, Dialogue(msg.Content, source))

	m.trimLocked()
}

func (m *Immediate) AddUserMessage(content string) {
	m.AddMessage(llm.User(content))
}

func (m *Immediate) AddAssistantMessage(content string) {
	m.AddMessage(llm.Assistant(content))
}

// AddEntry records a non-dialogue entry.
func (m *Immediate) AddEntry(entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	m.trimLocked()
}

func (m *Immediate) Messages() []llm.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *Immediate) RecentMessages(n int) []llm.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n >= len(m.messages) {
		n = len(m.messages)
	}
	out := make([]llm.Message, n)
	copy(out, m.messages[len(m.messages)-n:])
	return out
}

func (m *Immediate) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// ImportantEntries returns up to limit entries with importance at or above
// minImportance, most important first.
func (m *Immediate) ImportantEntries(minImportance float64, limit int) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, 0, limit)
	for _, e := range m.entries {
		if e.Importance >= minImportance {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *Immediate) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	m.entries = nil
}

func (m *Immediate) MessageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func (m *Immediate) EntryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Immediate) Capacity() int {
	return m.capacity
}

const emptyContextPlaceholder = "（暂无对话历史）"

// ContextSummary renders the last few entries for the prompt's
// current-conversation block.
func (m *Immediate) ContextSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == 0 {
		return emptyContextPlaceholder
	}

	start := len(m.entries) - 5
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for _, entry := range m.entries[start:] {
		switch entry.Type {
		case TypeDialogue:
			b.WriteString("- " + entry.Source + ": " + truncate(entry.Content, 50) + "\n")
		case TypeEvent:
			b.WriteString("- [事件] " + entry.Content + "\n")
		case TypeObservation:
			b.WriteString("- [观察] " + entry.Content + "\n")
		}
	}
	return b.String()
}

// trimLocked enforces the message window and the 2x entry buffer. Caller
// holds m.mu.
func (m *Immediate) trimLocked() {
	if overflow := len(m.messages) - m.capacity; overflow > 0 {
		m.messages = append(m.messages[:0:0], m.messages[overflow:]...)
	}
	entryCapacity := m.capacity * 2
	if overflow := len(m.entries) - entryCapacity; overflow > 0 {
		m.entries = append(m.entries[:0:0], m.entries[overflow:]...)
	}
}

func truncate(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes-3]) + "..."
}
