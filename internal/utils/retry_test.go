package utils

import (
	"context"
	"errors"
	"testing"
)

func TestRetryWithBackoffFirstTrySuccess(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), 3, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("RetryWithBackoff() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestRetryWithBackoffStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryWithBackoff(ctx, 3, func() error {
		calls++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1 (no retries after cancellation)", calls)
	}
}

func TestRetryWithBackoffWrapsLastError(t *testing.T) {
	sentinel := errors.New("boom")
	err := RetryWithBackoff(context.Background(), 1, func() error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want wrapped sentinel", err)
	}
}
