package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Origin-of-Miracles/Anima/llm"
)

const (
	// extractionThreshold is the minimum importance for an immediate entry
	// to be promoted into short-term memory.
	extractionThreshold = 0.7

	importanceObservation = 0.3
	importanceEmotion     = 0.6

	// summaryMaxEntries caps how many short-term entries are rendered
	// into the prompt context.
	summaryMaxEntries = 10
)

// Bank ties the two memory tiers of one persona together and drives
// extraction, persistence and cleanup.
type Bank struct {
	personaID string
	immediate *Immediate
	shortTerm *ShortTerm
	store     Store
	logger    *slog.Logger
}

type BankOption func(*Bank)

func WithBankLogger(logger *slog.Logger) BankOption {
	return func(b *Bank) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithImmediateCapacity(capacity int) BankOption {
	return func(b *Bank) { b.immediate = NewImmediate(capacity) }
}

func WithShortTermOptions(opts ...ShortTermOption) BankOption {
	return func(b *Bank) { b.shortTerm = NewShortTerm(opts...) }
}

// NewBank creates the memory bank for a persona and restores its
// short-term tier from the store.
func NewBank(ctx context.Context, personaID string, store Store, opts ...BankOption) (*Bank, error) {
	b := &Bank{
		personaID: personaID,
		immediate: NewImmediate(DefaultImmediateCapacity),
		shortTerm: NewShortTerm(),
		store:     store,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if store != nil {
		days, err := store.Load(ctx, personaID)
		if err != nil {
			return nil, fmt.Errorf("restore memory: %w", err)
		}
		b.shortTerm.restore(days)
		// Buckets that expired while the persona was offline must not
		// survive the restart.
		b.shortTerm.Cleanup()
	}
	return b, nil
}

func (b *Bank) PersonaID() string     { return b.personaID }
func (b *Bank) Immediate() *Immediate { return b.immediate }
func (b *Bank) ShortTerm() *ShortTerm { return b.shortTerm }

// RecordUserMessage stores a player utterance in immediate memory.
func (b *Bank) RecordUserMessage(content string) {
	b.immediate.AddUserMessage(content)
}

// RecordAssistantMessage stores the persona's own utterance.
func (b *Bank) RecordAssistantMessage(content string) {
	b.immediate.AddAssistantMessage(content)
}

// RecordEvent stores an event. Events important enough to survive a
// session go straight into short-term memory as well.
func (b *Bank) RecordEvent(content string, importance float64) {
	entry := Event(content).WithImportance(importance)
	b.immediate.AddEntry(entry)
	if entry.Importance >= extractionThreshold {
		b.shortTerm.AddEntry(entry)
	}
}

// RecordObservation stores a low-importance environmental observation.
func (b *Bank) RecordObservation(content string) {
	b.immediate.AddEntry(Observation(content).WithImportance(importanceObservation))
}

// RecordEmotion stores a mood shift with the valence that caused it.
func (b *Bank) RecordEmotion(content string, valence float64) {
	b.immediate.AddEntry(Emotion(content, valence).WithImportance(importanceEmotion))
}

// BuildContext renders both tiers for prompt injection. Empty tiers are
// omitted; an entirely empty bank yields "".
func (b *Bank) BuildContext() string {
	var parts []string
	if summary := b.shortTerm.BuildSummary(summaryMaxEntries); summary != "" {
		parts = append(parts, "【近期记忆】\n"+summary)
	}
	if b.immediate.EntryCount() > 0 {
		parts = append(parts, "【当前对话】\n"+b.immediate.ContextSummary())
	}
	return strings.Join(parts, "\n")
}

// SearchByKeyword searches the short-term tier.
func (b *Bank) SearchByKeyword(keyword string) []Entry {
	return b.shortTerm.SearchByKeyword(keyword)
}

// RecentMessages exposes the dialogue window for history replay.
func (b *Bank) RecentMessages(n int) []llm.Message {
	return b.immediate.RecentMessages(n)
}

// EndSession promotes important immediate entries into short-term memory,
// persists the result and clears the immediate tier.
func (b *Bank) EndSession(ctx context.Context) error {
	extracted := b.shortTerm.ExtractFrom(b.immediate, extractionThreshold)
	b.immediate.Clear()

	if err := b.save(ctx); err != nil {
		return err
	}
	b.logger.Debug("memory_session_ended",
		"persona", b.personaID,
		"extracted", extracted,
		"short_term_entries", b.shortTerm.EntryCount(),
	)
	return nil
}

// Maintain runs periodic upkeep: extraction, retention cleanup and a save.
func (b *Bank) Maintain(ctx context.Context) error {
	extracted := b.shortTerm.ExtractFrom(b.immediate, extractionThreshold)
	removed := b.shortTerm.Cleanup()

	if err := b.save(ctx); err != nil {
		return err
	}
	b.logger.Debug("memory_maintained",
		"persona", b.personaID,
		"extracted", extracted,
		"expired", removed,
	)
	return nil
}

// ClearImmediate drops the current conversation without extraction.
func (b *Bank) ClearImmediate() {
	b.immediate.Clear()
}

func (b *Bank) save(ctx context.Context) error {
	if b.store == nil {
		return nil
	}
	if err := b.store.Save(ctx, b.personaID, b.shortTerm.snapshot()); err != nil {
		return fmt.Errorf("persist memory: %w", err)
	}
	return nil
}
