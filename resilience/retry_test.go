package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(maxRetries int) Policy {
	return NewExponentialBackoff(time.Millisecond, 5*time.Millisecond, maxRetries)
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	cfg := RetryConfig{}
	callCount := 0

	result, err := Retry(context.Background(), cfg, func() (string, error) {
		callCount++
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	cfg := RetryConfig{Policy: fastPolicy(3)}
	callCount := 0

	result, err := Retry(context.Background(), cfg, func() (string, error) {
		callCount++
		if callCount < 3 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetry_PolicyStops(t *testing.T) {
	cfg := RetryConfig{Policy: fastPolicy(2)}
	callCount := 0
	testErr := errors.New("persistent error")

	result, err := Retry(context.Background(), cfg, func() (int, error) {
		callCount++
		return callCount, testErr
	})

	if !errors.Is(err, testErr) {
		t.Errorf("expected testErr, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls (1 + 2 retries), got %d", callCount)
	}
	if result != 3 {
		t.Errorf("expected last result to be returned, got %d", result)
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{Policy: NewExponentialBackoff(time.Second, time.Second, 5)}
	callCount := 0

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := Retry(ctx, cfg, func() (string, error) {
		callCount++
		return "", errors.New("error")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", callCount)
	}
}

func TestRetry_RetryIfFilter(t *testing.T) {
	retryableErr := errors.New("retryable")
	nonRetryableErr := errors.New("non-retryable")

	cfg := RetryConfig{
		Policy: fastPolicy(5),
		RetryIf: func(err error) bool {
			return errors.Is(err, retryableErr)
		},
	}
	callCount := 0

	_, err := Retry(context.Background(), cfg, func() (string, error) {
		callCount++
		if callCount == 1 {
			return "", retryableErr
		}
		return "", nonRetryableErr
	})

	if !errors.Is(err, nonRetryableErr) {
		t.Errorf("expected nonRetryableErr, got %v", err)
	}
	if callCount != 2 {
		t.Errorf("expected 2 calls, got %d", callCount)
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := RetryConfig{
		Policy: fastPolicy(2),
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			attempts = append(attempts, attempt)
		},
	}

	_, _ = Retry(context.Background(), cfg, func() (int, error) {
		return 0, errors.New("error")
	})

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected OnRetry for attempts [1 2], got %v", attempts)
	}
}

func TestRetry_DefaultRetryIfStopsOnDeadline(t *testing.T) {
	callCount := 0
	_, err := Retry(context.Background(), RetryConfig{Policy: fastPolicy(3)}, func() (int, error) {
		callCount++
		return 0, context.DeadlineExceeded
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestSleep_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := Sleep(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Sleep should return promptly on a canceled context")
	}
}
