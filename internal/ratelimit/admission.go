package ratelimit

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"
)

// Limit is a quota: at most Max admitted checks per trailing Window.
type Limit struct {
	Max    int
	Window time.Duration
}

// Decision is the outcome of one admission check. It is computed per check and
// never persisted.
type Decision struct {
	Allowed bool
	// Remaining is the number of further requests permitted in the current
	// window, after this one.
	Remaining int
	// Limit echoes the configured ceiling.
	Limit int
	// ResetAt is when the oldest counted event exits the window.
	ResetAt time.Time
	// RetryAfter is the whole seconds until ResetAt; 0 when allowed.
	RetryAfter int
}

// AdmissionController decides whether a keyed request may proceed under a
// sliding-window-log quota. Unlike a fixed-bucket counter it has no window
// boundary burst artifact: the window trails the current instant exactly.
type AdmissionController struct {
	store *WindowStore
	clock clockwork.Clock
}

func NewAdmissionController(store *WindowStore, clock clockwork.Clock) *AdmissionController {
	return &AdmissionController{store: store, clock: clock}
}

// Check records an admitted request against key and returns the decision.
// Denied checks consume no quota: a blocked client that retries does not fall
// further behind.
func (a *AdmissionController) Check(key string, limit Limit) Decision {
	now := a.clock.Now()

	sample := a.store.RecordAndCount(key, limit.Window, func(countInWindow int) bool {
		return countInWindow < limit.Max
	})

	decision := Decision{
		Allowed: sample.Recorded,
		Limit:   limit.Max,
	}

	remaining := limit.Max - sample.Count
	if decision.Allowed {
		remaining--
	}
	if remaining < 0 {
		remaining = 0
	}
	decision.Remaining = remaining

	if sample.Count > 0 {
		decision.ResetAt = sample.Oldest.Add(limit.Window)
	} else {
		decision.ResetAt = now.Add(limit.Window)
	}

	if !decision.Allowed {
		decision.RetryAfter = int(math.Ceil(decision.ResetAt.Sub(now).Seconds()))
		if decision.RetryAfter < 0 {
			decision.RetryAfter = 0
		}
	}

	return decision
}
