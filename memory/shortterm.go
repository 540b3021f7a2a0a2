package memory

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultRetentionDays is how many days of entries survive cleanup.
	DefaultRetentionDays = 7
	// DefaultMaxEntriesPerDay bounds each day bucket; the least important
	// entries are dropped first when a bucket overflows.
	DefaultMaxEntriesPerDay = 20

	dateLayout = "2006-01-02"
)

// ShortTerm holds entries bucketed by local calendar date, retained for a
// rolling window of days. It is the durable tier fed by extraction from
// immediate memory.
type ShortTerm struct {
	mu               sync.Mutex
	retentionDays    int
	maxEntriesPerDay int
	days             map[string][]Entry

	now func() time.Time
}

type ShortTermOption func(*ShortTerm)

func WithRetention(days int) ShortTermOption {
	return func(s *ShortTerm) {
		if days > 0 {
			s.retentionDays = days
		}
	}
}

func WithMaxEntriesPerDay(n int) ShortTermOption {
	return func(s *ShortTerm) {
		if n > 0 {
			s.maxEntriesPerDay = n
		}
	}
}

func WithShortTermClock(now func() time.Time) ShortTermOption {
	return func(s *ShortTerm) { s.now = now }
}

func NewShortTerm(opts ...ShortTermOption) *ShortTerm {
	s := &ShortTerm{
		retentionDays:    DefaultRetentionDays,
		maxEntriesPerDay: DefaultMaxEntriesPerDay,
		days:             make(map[string][]Entry),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddEntry files the entry under its timestamp's local date. If the day
// bucket overflows, the least important entries are dropped.
func (s *ShortTerm) AddEntry(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(entry)
}

func (s *ShortTerm) addLocked(entry Entry) {
	key := entry.Timestamp.Local().Format(dateLayout)
	bucket := append(s.days[key], entry)
	if len(bucket) > s.maxEntriesPerDay {
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Importance > bucket[j].Importance
		})
		bucket = bucket[:s.maxEntriesPerDay]
	}
	s.days[key] = bucket
}

// ExtractFrom copies the most important entries of the immediate tier into
// short-term storage. Up to five entries at or above threshold are taken;
// the immediate tier is left untouched.
func (s *ShortTerm) ExtractFrom(im *Immediate, threshold float64) int {
	extracted := im.ImportantEntries(threshold, 5)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range extracted {
		s.addLocked(e)
	}
	return len(extracted)
}

func (s *ShortTerm) EntriesForDate(date time.Time) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := date.Local().Format(dateLayout)
	out := make([]Entry, len(s.days[key]))
	copy(out, s.days[key])
	return out
}

func (s *ShortTerm) TodayEntries() []Entry {
	return s.EntriesForDate(s.now())
}

// RecentEntries returns every retained entry, oldest first.
func (s *ShortTerm) RecentEntries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	for _, bucket := range s.days {
		out = append(out, bucket...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// SearchByKeyword returns entries whose content contains the keyword,
// case-insensitively, newest first.
func (s *ShortTerm) SearchByKeyword(keyword string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(keyword)
	var out []Entry
	for _, bucket := range s.days {
		for _, e := range bucket {
			if strings.Contains(strings.ToLower(e.Content), needle) {
				out = append(out, e)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// BuildSummary renders up to maxEntries retained entries grouped by date
// for prompt injection, oldest days first under a 【date】 header. A
// non-positive maxEntries renders everything.
func (s *ShortTerm) BuildSummary(maxEntries int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.days) == 0 {
		return ""
	}

	dates := make([]string, 0, len(s.days))
	for key := range s.days {
		dates = append(dates, key)
	}
	sort.Strings(dates)

	var b strings.Builder
	rendered := 0
	for _, date := range dates {
		bucket := s.days[date]
		if len(bucket) == 0 {
			continue
		}
		if maxEntries > 0 && rendered >= maxEntries {
			break
		}
		b.WriteString("【" + date + "】\n")
		for _, e := range bucket {
			if maxEntries > 0 && rendered >= maxEntries {
				break
			}
			rendered++
			switch e.Type {
			case TypeDialogue:
				b.WriteString("- " + e.Source + "说: \"" + truncate(e.Content, 100) + "\"\n")
			case TypeEvent:
				b.WriteString("- 发生了: " + truncate(e.Content, 100) + "\n")
			case TypeObservation:
				b.WriteString("- 注意到: " + truncate(e.Content, 100) + "\n")
			case TypeEmotion:
				b.WriteString("- 当时的心情: " + truncate(e.Content, 100) + "\n")
			default:
				b.WriteString("- " + truncate(e.Content, 100) + "\n")
			}
		}
	}
	return b.String()
}

// Cleanup drops day buckets strictly older than the retention window and
// reports how many entries were removed.
func (s *ShortTerm) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Local().AddDate(0, 0, -s.retentionDays).Format(dateLayout)
	removed := 0
	for key, bucket := range s.days {
		if key < cutoff {
			removed += len(bucket)
			delete(s.days, key)
		}
	}
	return removed
}

func (s *ShortTerm) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, bucket := range s.days {
		n += len(bucket)
	}
	return n
}

// snapshot copies the day map for persistence.
func (s *ShortTerm) snapshot() map[string][]Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]Entry, len(s.days))
	for key, bucket := range s.days {
		cp := make([]Entry, len(bucket))
		copy(cp, bucket)
		out[key] = cp
	}
	return out
}

// restore replaces the day map from persisted state.
func (s *ShortTerm) restore(days map[string][]Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.days = make(map[string][]Entry, len(days))
	for key, bucket := range days {
		cp := make([]Entry, len(bucket))
		copy(cp, bucket)
		s.days[key] = cp
	}
}
