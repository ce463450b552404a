package llm

import (
	"context"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1000 * time.Millisecond},
		{2, 2000 * time.Millisecond},
		{3, 4000 * time.Millisecond},
		{10, 30 * time.Second}, // capped
	}
	for _, tc := range cases {
		got := ExponentialBackoff(tc.attempt, 1000, 30)
		if got != tc.want {
			t.Errorf("ExponentialBackoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestIsRetryableClassification(t *testing.T) {
	if !IsRetryable(&ProviderError{Kind: ErrTransient}) {
		t.Error("ErrTransient should be retryable")
	}
	if IsRetryable(&ProviderError{Kind: ErrAuth, StatusCode: 401}) {
		t.Error("ErrAuth/401 should not be retryable")
	}
	if !IsRetryable(&ProviderError{Kind: ErrOther, StatusCode: 429}) {
		t.Error("429 should be retryable")
	}
	if IsRetryable(&ProviderError{Kind: ErrSchemaValidation}) {
		t.Error("schema validation should not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil error should not be retryable")
	}
}

func TestCollectWithRetryGivesUpAfterMaxRetries(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, BaseBackoffMs: 1, MaxBackoffSecs: 1}
	attempts := 0
	_, err := CollectWithRetry(context.Background(), cfg, func(ctx context.Context) ([]Event, error) {
		attempts++
		return nil, &ProviderError{Kind: ErrTransient}
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 3 { // initial + 2 retries
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestCollectWithRetrySucceedsAfterTransientError(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseBackoffMs: 1, MaxBackoffSecs: 1}
	attempts := 0
	want := []Event{FinishedEvent(EndCompleted)}
	got, err := CollectWithRetry(context.Background(), cfg, func(ctx context.Context) ([]Event, error) {
		attempts++
		if attempts < 2 {
			return nil, &ProviderError{Kind: ErrTransient}
		}
		return want, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
}

func TestCollectWithRetryStopsOnNonRetryable(t *testing.T) {
	cfg := DefaultRetryConfig()
	attempts := 0
	_, err := CollectWithRetry(context.Background(), cfg, func(ctx context.Context) ([]Event, error) {
		attempts++
		return nil, &ProviderError{Kind: ErrAuth, StatusCode: 401}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (no retry on auth failure)", attempts)
	}
}
