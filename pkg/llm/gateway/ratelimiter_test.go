package gateway

import (
	"testing"
	"time"
)

func TestRateLimiterWindowExhaustion(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	rl := NewRateLimiter(3, 100)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.CanMakeRequest() {
			t.Fatalf("request %d should be admitted", i)
		}
		rl.RecordRequest()
	}

	if rl.CanMakeRequest() {
		t.Error("4th request within the minute should be rejected")
	}
	if wait := rl.GetWaitTime(); wait <= 0 {
		t.Errorf("wait time should be positive, got %v", wait)
	}

	// The oldest entry expires after 60s; the window opens again.
	now = base.Add(61 * time.Second)
	if !rl.CanMakeRequest() {
		t.Error("request should be admitted after the minute window slides")
	}
	if wait := rl.GetWaitTime(); wait != 0 {
		t.Errorf("wait time should be zero after sliding, got %v", wait)
	}
}

func TestRateLimiterHourWindow(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	rl := NewRateLimiter(100, 2)
	rl.now = func() time.Time { return now }

	rl.RecordRequest()
	now = now.Add(5 * time.Minute)
	rl.RecordRequest()

	if rl.CanMakeRequest() {
		t.Error("hour ceiling reached, request should be rejected")
	}

	// Wait time is driven by the hour window's oldest entry, not the minute window.
	want := base.Add(time.Hour).Sub(now)
	if got := rl.GetWaitTime(); got != want {
		t.Errorf("GetWaitTime() = %v, want %v", got, want)
	}
}

func TestRateLimiterWaitTimeIsLargerWindow(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.RecordRequest()
	now = now.Add(30 * time.Second)

	// Both windows are saturated; the hour window dominates.
	if got := rl.GetWaitTime(); got != base.Add(time.Hour).Sub(now) {
		t.Errorf("GetWaitTime() = %v, want the hour window remainder", got)
	}
}
