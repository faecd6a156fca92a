package gateway

import (
	"sync"
	"time"
)

// RateLimiter applies sliding-window admission control to outbound LLM
// calls. Two windows (per-minute, per-hour) are pruned on every check.
// State is process-local on purpose: it only bounds this process's rate.
type RateLimiter struct {
	mu          sync.Mutex
	minuteLimit int
	hourLimit   int
	minuteCalls []time.Time
	hourCalls   []time.Time
	now         func() time.Time
}

func NewRateLimiter(perMinute, perHour int) *RateLimiter {
	return &RateLimiter{
		minuteLimit: perMinute,
		hourLimit:   perHour,
		now:         time.Now,
	}
}

func pruneWindow(calls []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(calls) && !calls[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return calls
	}
	return append(calls[:0], calls[idx:]...)
}

func (r *RateLimiter) prune(now time.Time) {
	r.minuteCalls = pruneWindow(r.minuteCalls, now.Add(-time.Minute))
	r.hourCalls = pruneWindow(r.hourCalls, now.Add(-time.Hour))
}

// CanMakeRequest reports whether both windows are under their ceilings.
func (r *RateLimiter) CanMakeRequest() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune(r.now())
	return len(r.minuteCalls) < r.minuteLimit && len(r.hourCalls) < r.hourLimit
}

// RecordRequest counts one admitted call against both windows.
func (r *RateLimiter) RecordRequest() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.minuteCalls = append(r.minuteCalls, now)
	r.hourCalls = append(r.hourCalls, now)
}

// GetWaitTime returns how long the caller must wait until the oldest entry
// of the saturated window expires. Zero means a request can go out now.
func (r *RateLimiter) GetWaitTime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.prune(now)

	var wait time.Duration
	if len(r.minuteCalls) >= r.minuteLimit && len(r.minuteCalls) > 0 {
		if d := r.minuteCalls[0].Add(time.Minute).Sub(now); d > wait {
			wait = d
		}
	}
	if len(r.hourCalls) >= r.hourLimit && len(r.hourCalls) > 0 {
		if d := r.hourCalls[0].Add(time.Hour).Sub(now); d > wait {
			wait = d
		}
	}
	return wait
}
