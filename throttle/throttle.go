// Package throttle bounds concurrent upstream calls and enforces a
// per-minute request rate shared by every persona in the process.
package throttle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/Origin-of-Miracles/Anima/llm"
)

const (
	DefaultMaxConcurrent     = 5
	DefaultRequestsPerMinute = 60
	DefaultAcquireTimeout    = 30 * time.Second

	windowLength = time.Minute
)

// ErrThrottled is returned when a slot cannot be granted: either the
// per-minute budget is spent or no permit freed up within the acquire
// timeout.
var ErrThrottled = errors.New("throttle: request rejected")

// Stats is a point-in-time view of the throttle's counters.
type Stats struct {
	TotalRequests    int64
	Rejected         int64
	PromptTokens     int64
	CompletionTokens int64
	InFlight         int
	WindowRequests   int
}

// Throttle is a fair concurrency gate plus a lazily-reset rate window.
// Waiters queue on a buffered channel, so permits are granted roughly in
// arrival order.
type Throttle struct {
	permits        chan struct{}
	maxConcurrent  int
	perMinute      int
	acquireTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time

	mu          sync.Mutex
	windowStart time.Time
	windowCount int

	total            atomic.Int64
	rejected         atomic.Int64
	promptTokens     atomic.Int64
	completionTokens atomic.Int64
}

type Option func(*Throttle)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Throttle) {
		if logger != nil {
			t.logger = logger
		}
	}
}

func WithAcquireTimeout(d time.Duration) Option {
	return func(t *Throttle) {
		if d > 0 {
			t.acquireTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Throttle) { t.now = now }
}

func New(maxConcurrent, requestsPerMinute int, opts ...Option) *Throttle {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}
	t := &Throttle{
		permits:        make(chan struct{}, maxConcurrent),
		maxConcurrent:  maxConcurrent,
		perMinute:      requestsPerMinute,
		acquireTimeout: DefaultAcquireTimeout,
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.windowStart = t.now()
	for i := 0; i < maxConcurrent; i++ {
		t.permits <- struct{}{}
	}
	return t
}

// Acquire claims a slot for one upstream request. The rate window is
// checked first so a spent budget fails fast instead of occupying a
// permit; the request only counts against the window and the totals once
// a permit is granted, so a timed-out wait burns nothing. Release must be
// called exactly once per successful Acquire.
func (t *Throttle) Acquire(ctx context.Context) error {
	if !t.rateLimitOK() {
		t.rejected.Inc()
		t.logger.Debug("throttle_rate_exceeded", "per_minute", t.perMinute)
		return ErrThrottled
	}

	timer := time.NewTimer(t.acquireTimeout)
	defer timer.Stop()

	select {
	case <-t.permits:
		t.noteAdmitted()
		return nil
	case <-timer.C:
		t.rejected.Inc()
		t.logger.Debug("throttle_acquire_timeout", "timeout", t.acquireTimeout)
		return ErrThrottled
	case <-ctx.Done():
		t.rejected.Inc()
		return ctx.Err()
	}
}

// Release returns a permit. An unpaired Release is dropped rather than
// growing the permit pool.
func (t *Throttle) Release() {
	select {
	case t.permits <- struct{}{}:
	default:
	}
}

// rateLimitOK reports whether the current minute's budget admits another
// request, resetting the window lazily once it has elapsed. It does not
// consume a slot.
func (t *Throttle) rateLimitOK() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.windowStart) >= windowLength {
		t.windowStart = now
		t.windowCount = 0
		return true
	}
	return t.windowCount < t.perMinute
}

// noteAdmitted counts one granted request against the window and totals.
func (t *Throttle) noteAdmitted() {
	t.total.Inc()
	t.mu.Lock()
	t.windowCount++
	t.mu.Unlock()
}

// RecordUsage accumulates token usage reported by a completed request.
func (t *Throttle) RecordUsage(usage llm.Usage) {
	t.promptTokens.Add(int64(usage.PromptTokens))
	t.completionTokens.Add(int64(usage.CompletionTokens))
}

func (t *Throttle) Stats() Stats {
	return Stats{
		TotalRequests:    t.total.Load(),
		Rejected:         t.rejected.Load(),
		PromptTokens:     t.promptTokens.Load(),
		CompletionTokens: t.completionTokens.Load(),
		InFlight:         t.maxConcurrent - len(t.permits),
		WindowRequests:   t.WindowRequests(),
	}
}

// AvailablePermits reports how many requests could start immediately.
func (t *Throttle) AvailablePermits() int {
	return len(t.permits)
}

// WindowRequests reports requests admitted in the current minute.
func (t *Throttle) WindowRequests() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.now().Sub(t.windowStart) >= windowLength {
		return 0
	}
	return t.windowCount
}

// RemainingWait reports how long until the rate window resets. Zero means
// requests are admissible now.
func (t *Throttle) RemainingWait() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.windowCount < t.perMinute {
		return 0
	}
	remaining := windowLength - t.now().Sub(t.windowStart)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetStats zeroes the cumulative counters and the current minute's
// request count. Permits in flight are untouched.
func (t *Throttle) ResetStats() {
	t.total.Store(0)
	t.rejected.Store(0)
	t.promptTokens.Store(0)
	t.completionTokens.Store(0)

	t.mu.Lock()
	t.windowCount = 0
	t.mu.Unlock()
}
