package resilience

import (
	"testing"
	"time"
)

func TestExponentialBackoff_Intervals(t *testing.T) {
	b := NewExponentialBackoff(time.Second, 30*time.Second, 10)

	want := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for n, w := range want {
		d := b.ShouldRetry(n)
		if !d.Retry {
			t.Fatalf("retry %d: expected retry decision", n)
		}
		if d.After != w {
			t.Errorf("retry %d: expected %v, got %v", n, w, d.After)
		}
	}
}

func TestExponentialBackoff_StopsAfterMaxRetries(t *testing.T) {
	b := NewExponentialBackoff(time.Millisecond, time.Second, 2)

	if !b.ShouldRetry(0).Retry || !b.ShouldRetry(1).Retry {
		t.Fatal("expected the first two retries to be allowed")
	}
	if b.ShouldRetry(2).Retry {
		t.Error("expected stop after 2 retries")
	}
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	b := NewExponentialBackoff(100*time.Millisecond, time.Second, 5)
	b.Jitter = 0.5

	for i := 0; i < 50; i++ {
		d := b.ShouldRetry(1)
		if d.After < 100*time.Millisecond || d.After > 300*time.Millisecond {
			t.Fatalf("jittered wait out of range: %v", d.After)
		}
	}
}

func TestNewExponentialBackoffWithTotalDuration(t *testing.T) {
	// 1+2+4+8+16 = 31s, then 30s steps: 8 more fit in 300s (271s total).
	b := NewExponentialBackoffWithTotalDuration(time.Second, 30*time.Second, 5*time.Minute)
	if b.MaxRetries != 13 {
		t.Errorf("expected 13 retries, got %d", b.MaxRetries)
	}

	var total time.Duration
	for n := 0; ; n++ {
		d := b.ShouldRetry(n)
		if !d.Retry {
			break
		}
		total += d.After
	}
	if total > 5*time.Minute {
		t.Errorf("sum of waits %v exceeds total cap", total)
	}
}

func TestNewExponentialBackoffWithTotalDuration_ZeroInterval(t *testing.T) {
	b := NewExponentialBackoffWithTotalDuration(0, time.Second, time.Minute)
	if b.ShouldRetry(0).Retry {
		t.Error("zero interval backoff should not retry")
	}
}

func TestMaxRetries(t *testing.T) {
	always := PolicyFunc(func(int) Decision { return RetryAfter(time.Millisecond) })
	p := MaxRetries(1, always)

	if !p.ShouldRetry(0).Retry {
		t.Error("expected first retry")
	}
	if p.ShouldRetry(1).Retry {
		t.Error("expected stop after one retry")
	}
}
