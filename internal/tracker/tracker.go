package tracker

import (
	"fmt"
	"math"
	"sync"
	"time"

	"checkpoint-quiz/internal/domain"
)

// Tracker measures total session time and the time spent on each question.
// It is safe for concurrent use; the optional refresh callback runs on its own goroutine.
type Tracker struct {
	mu  sync.Mutex
	now func() time.Time

	refreshEvery time.Duration
	onRefresh    func(elapsedSeconds int)
	stopRefresh  chan struct{}

	started         time.Time
	questionStarted time.Time
	stopped         time.Time
	initialized     bool
	ordinal         int
	entries         []domain.TimeEntry
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithRefresh registers a callback invoked every interval with the total elapsed seconds
// while a session is running.
func WithRefresh(interval time.Duration, fn func(elapsedSeconds int)) Option {
	return func(t *Tracker) {
		t.refreshEvery = interval
		t.onRefresh = fn
	}
}

func New(opts ...Option) *Tracker {
	t := &Tracker{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartSession records the session start, which is also the first question's start.
func (t *Tracker) StartSession() {
	t.mu.Lock()
	t.haltRefreshLocked()
	now := t.now()
	t.started = now
	t.questionStarted = now
	t.stopped = time.Time{}
	t.initialized = true
	t.ordinal = 1
	t.entries = nil
	refresh := t.startRefreshLocked()
	t.mu.Unlock()

	if refresh != nil {
		refresh(0)
	}
}

// RecordQuestion logs the whole seconds spent since the previous record (or the session start).
func (t *Tracker) RecordQuestion(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return
	}
	now := t.now()
	t.entries = append(t.entries, domain.TimeEntry{
		Ordinal: t.ordinal,
		Key:     key,
		Seconds: wholeSeconds(now.Sub(t.questionStarted)),
	})
	t.questionStarted = now
	t.ordinal++
}

// StopSession halts the periodic refresh and freezes the total elapsed time.
func (t *Tracker) StopSession() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.haltRefreshLocked()
	if t.initialized && t.stopped.IsZero() {
		t.stopped = t.now()
	}
}

// Reset clears all state back to uninitialized.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.haltRefreshLocked()
	t.started = time.Time{}
	t.questionStarted = time.Time{}
	t.stopped = time.Time{}
	t.initialized = false
	t.ordinal = 0
	t.entries = nil
}

// Elapsed returns the total whole seconds since StartSession.
func (t *Tracker) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked()
}

// Stats summarises the recorded entries. Ties for fastest and slowest go to the first entry.
func (t *Tracker) Stats() domain.TimeStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := make([]domain.TimeEntry, len(t.entries))
	copy(entries, t.entries)
	stats := domain.TimeStats{
		TotalSeconds: t.elapsedLocked(),
		Answered:     len(entries),
		Entries:      entries,
	}
	if len(entries) == 0 {
		return stats
	}

	sum := 0
	fastest, slowest := 0, 0
	for i, e := range entries {
		sum += e.Seconds
		if e.Seconds < entries[fastest].Seconds {
			fastest = i
		}
		if e.Seconds > entries[slowest].Seconds {
			slowest = i
		}
	}
	stats.AverageSeconds = int(math.Round(float64(sum) / float64(len(entries))))
	f, s := entries[fastest], entries[slowest]
	stats.Fastest = &f
	stats.Slowest = &s
	return stats
}

func (t *Tracker) elapsedLocked() int {
	if !t.initialized {
		return 0
	}
	end := t.stopped
	if end.IsZero() {
		end = t.now()
	}
	return wholeSeconds(end.Sub(t.started))
}

func (t *Tracker) startRefreshLocked() func(int) {
	if t.onRefresh == nil || t.refreshEvery <= 0 {
		return nil
	}
	stop := make(chan struct{})
	t.stopRefresh = stop
	fn := t.onRefresh
	go func() {
		ticker := time.NewTicker(t.refreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn(t.Elapsed())
			case <-stop:
				return
			}
		}
	}()
	return fn
}

func (t *Tracker) haltRefreshLocked() {
	if t.stopRefresh != nil {
		close(t.stopRefresh)
		t.stopRefresh = nil
	}
}

func wholeSeconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatDuration renders seconds as "42s" or "3m 5s".
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
