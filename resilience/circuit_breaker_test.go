package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock is a settable clock safe for concurrent use.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var errBoom = errors.New("boom")

func fail() error    { return errBoom }
func succeed() error { return nil }

// call runs fn through cb the way the request pipeline does.
func call(cb *CircuitBreaker, fn func() error) error {
	if err := cb.Allow(); err != nil {
		return err
	}
	err := fn()
	cb.Record(err)
	return err
}

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"))
	if cb.State() != StateClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
	if cb.Name() != "test" {
		t.Errorf("unexpected name %q", cb.Name())
	}
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3, OpenTimeout: time.Minute, Now: newFakeClock().Now})

	for i := 0; i < 3; i++ {
		_ = call(cb, fail)
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	err := call(cb, func() error {
		t.Error("function must not run while open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3})

	_ = call(cb, fail)
	_ = call(cb, fail)
	_ = call(cb, succeed)
	_ = call(cb, fail)

	if cb.State() != StateClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
	if cb.Failures() != 1 {
		t.Errorf("expected 1 consecutive failure, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clock := newFakeClock()
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		OpenTimeout: 10 * time.Second,
		Now:         clock.Now,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = call(cb, fail)
	clock.Advance(10 * time.Second)

	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.State())
	}
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected a probe slot, got %v", err)
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected a single probe, got %v", err)
	}
	cb.Record(nil)

	if cb.State() != StateClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("expected %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], transitions[i])
		}
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, OpenTimeout: time.Second, Now: clock.Now})

	_ = call(cb, fail)
	clock.Advance(time.Second)
	_ = call(cb, fail)

	if cb.State() != StateOpen {
		t.Errorf("expected open, got %s", cb.State())
	}
}

func TestCircuitBreaker_IsFailureFiltersResults(t *testing.T) {
	ignored := errors.New("caller mistake")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		IsFailure:   func(err error) bool { return err != nil && !errors.Is(err, ignored) },
	})

	_ = call(cb, func() error { return ignored })
	if cb.State() != StateClosed {
		t.Errorf("ignored errors must not open the circuit")
	}
	_ = call(cb, fail)
	if cb.State() != StateOpen {
		t.Errorf("expected open, got %s", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1})
	_ = call(cb, fail)
	cb.Reset()

	if cb.State() != StateClosed || cb.Failures() != 0 {
		t.Errorf("expected a clean closed breaker, got %s with %d failures", cb.State(), cb.Failures())
	}
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = call(cb, fail)
			} else {
				_ = call(cb, succeed)
			}
		}(i)
	}
	wg.Wait()

	if cb.State() != StateClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(42):     "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
