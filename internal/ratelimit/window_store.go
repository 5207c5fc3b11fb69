package ratelimit

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/romejiang/moltbook-api/internal/metrics"
)

const (
	// DefaultPruneInterval is how often the background sweep runs.
	DefaultPruneInterval = 5 * time.Minute
	// DefaultPruneHorizon is how long an idle key survives before the sweep
	// drops it. Generous on purpose: pruning bounds memory for abandoned keys,
	// it is not part of the limiter's correctness.
	DefaultPruneHorizon = time.Hour
)

// WindowStore keeps per-key event timestamp history for sliding-window-log
// admission. All operations on a key are serialized by the store mutex, so a
// concurrent sweep can never drop a key mid-check.
type WindowStore struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	entries map[string][]time.Time
}

// Sample is the result of one atomic check-and-record step.
type Sample struct {
	// Count is the number of events inside the window before this check.
	Count int
	// Oldest is the oldest in-window event; zero when Count is 0.
	Oldest time.Time
	// Recorded reports whether this check appended a new event.
	Recorded bool
}

func NewWindowStore(clock clockwork.Clock) *WindowStore {
	return &WindowStore{
		clock:   clock,
		entries: make(map[string][]time.Time),
	}
}

// RecordAndCount filters the key's history to events within the trailing
// window, samples the count before any append, and appends the current instant
// only if admit approves that count. Filter, decision, and append happen under
// one lock acquisition, so concurrent checks for the same key observe a total
// order with no lost updates.
func (s *WindowStore) RecordAndCount(key string, window time.Duration, admit func(countInWindow int) bool) Sample {
	now := s.clock.Now()
	cutoff := now.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.entries[key]

	// Drop expired events in place. History is append-only ordered, so the
	// in-window suffix starts at the first timestamp past the cutoff.
	start := 0
	for start < len(history) && history[start].Before(cutoff) {
		start++
	}
	if start > 0 {
		history = append(history[:0], history[start:]...)
	}

	sample := Sample{Count: len(history)}
	if len(history) > 0 {
		sample.Oldest = history[0]
	}

	if admit(sample.Count) {
		history = append(history, now)
		sample.Recorded = true
	}

	if len(history) == 0 {
		delete(s.entries, key)
	} else {
		s.entries[key] = history
	}
	metrics.AdmissionTrackedKeys.Set(float64(len(s.entries)))

	return sample
}

// Prune removes keys whose most recent event is older than horizon and returns
// the number of keys dropped.
func (s *WindowStore) Prune(horizon time.Duration) int {
	cutoff := s.clock.Now().Add(-horizon)

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for key, history := range s.entries {
		if len(history) == 0 || history[len(history)-1].Before(cutoff) {
			delete(s.entries, key)
			pruned++
		}
	}
	metrics.AdmissionTrackedKeys.Set(float64(len(s.entries)))

	return pruned
}

// Size returns the number of tracked keys.
func (s *WindowStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartPruneLoop starts a background goroutine that sweeps stale keys on a
// fixed interval. Returns a stop function.
func (s *WindowStore) StartPruneLoop(interval, horizon time.Duration) func() {
	ticker := s.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				pruned := s.Prune(horizon)
				if pruned > 0 {
					slog.Debug("Pruned stale admission keys",
						"count", pruned,
						"remaining", s.Size(),
					)
					metrics.AdmissionPrunedKeysTotal.Add(float64(pruned))
				}

			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}
