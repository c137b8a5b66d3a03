package attempt

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRemaining(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		deadline time.Time
		want     time.Duration
	}{
		{name: "future truncates", deadline: now.Add(1500 * time.Millisecond), want: time.Second},
		{name: "exactly now", deadline: now, want: 0},
		{name: "past floors at zero", deadline: now.Add(-time.Hour), want: 0},
		{name: "sub second", deadline: now.Add(999 * time.Millisecond), want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Remaining(tc.deadline, now); got != tc.want {
				t.Fatalf("Remaining = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "00:00:00"},
		{in: 3661 * time.Second, want: "01:01:01"},
		{in: 59*time.Second + 900*time.Millisecond, want: "00:00:59"},
		{in: -5 * time.Second, want: "00:00:00"},
		{in: 100 * time.Hour, want: "100:00:00"},
	}
	for _, tc := range tests {
		if got := FormatRemaining(tc.in); got != tc.want {
			t.Fatalf("FormatRemaining(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCountdownResetReplacesTicker(t *testing.T) {
	clock := newFakeClock()
	countdown := NewCountdown(clock, nil, nil)

	countdown.Reset(clock.Now().Add(time.Minute))
	first := clock.latest()
	countdown.Reset(clock.Now().Add(time.Minute))
	second := clock.latest()

	if first == second || !first.stopped.Load() || second.stopped.Load() {
		t.Fatalf("expected exactly the newest ticker to be live")
	}
	countdown.Stop()
	if !second.stopped.Load() || countdown.Running() {
		t.Fatalf("expected Stop to tear the ticker down")
	}
}

func TestCountdownExpiresOnce(t *testing.T) {
	clock := newFakeClock()
	var ticks, expiries atomic.Int32
	countdown := NewCountdown(clock, func(time.Duration) { ticks.Add(1) }, func() { expiries.Add(1) })

	countdown.Reset(clock.Now().Add(2 * time.Second))
	clock.Advance(time.Second)
	clock.Tick(t)
	waitUntil(t, func() bool { return ticks.Load() == 1 })

	clock.Advance(5 * time.Second)
	clock.Tick(t)
	waitUntil(t, func() bool { return expiries.Load() == 1 })

	if countdown.Running() {
		t.Fatalf("countdown should stop after expiry")
	}
	if !clock.latest().stopped.Load() {
		t.Fatalf("ticker should be stopped after expiry")
	}
}
