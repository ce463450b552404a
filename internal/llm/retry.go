package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryConfig governs the Provider Pipeline's retry-with-backoff loop.
// Defaults mirror the Rust predecessor: 3 retries, 1s base backoff, 30s cap.
type RetryConfig struct {
	MaxRetries     int
	BaseBackoffMs  int64
	MaxBackoffSecs int64
}

// DefaultRetryConfig returns the pipeline's default retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseBackoffMs: 1000, MaxBackoffSecs: 30}
}

// ProviderError is the error shape surfaced by provider streams, carrying
// enough detail for the retry loop to classify and, if transient, space out
// a retry.
type ProviderError struct {
	Kind       ProviderErrorKind
	StatusCode int
	RetryAfter time.Duration // zero if the server provided no hint
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Kind.String()
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// ProviderErrorKind classifies a ProviderError for retry and reporting
// purposes.
type ProviderErrorKind int

const (
	ErrAuth ProviderErrorKind = iota
	ErrTransient
	ErrOther
	ErrSchemaValidation
	ErrSerialization
	ErrCancelled
	ErrAggregation
)

func (k ProviderErrorKind) String() string {
	switch k {
	case ErrAuth:
		return "provider authentication failed"
	case ErrTransient:
		return "provider transient error"
	case ErrSchemaValidation:
		return "structured output schema validation failed"
	case ErrSerialization:
		return "request serialization failed"
	case ErrCancelled:
		return "cancelled"
	case ErrAggregation:
		return "tool call aggregation failed"
	default:
		return "provider error"
	}
}

// IsRetryable reports whether the error should drive another attempt of the
// retry loop, per the classification in the Provider Pipeline spec: timeouts,
// connection failures, and HTTP 408/429/500/502/503/504 are retryable;
// serialization, auth, schema-validation, and other 4xx are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case ErrTransient:
			return true
		case ErrAuth, ErrSchemaValidation, ErrSerialization, ErrCancelled, ErrOther:
			return isRetryableStatus(pe.StatusCode)
		case ErrAggregation:
			// A malformed tool-call argument stream is a data problem with
			// the model's own output, not a transient server condition;
			// retrying from scratch is unlikely to produce a different shape.
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return false
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// ExponentialBackoff computes min(base*2^(attempt-1), maxBackoffSecs*1000),
// matching the Rust predecessor's formula; attempt is 1-indexed.
func ExponentialBackoff(attempt int, baseBackoffMs, maxBackoffSecs int64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > 20 {
		shift = 20
	}
	delayMs := baseBackoffMs << uint(shift)
	maxMs := maxBackoffSecs * 1000
	if delayMs > maxMs || delayMs < 0 {
		delayMs = maxMs
	}
	return time.Duration(delayMs) * time.Millisecond
}

// StreamFunc opens a fresh provider stream from scratch; the retry loop
// calls it once per attempt.
type StreamFunc func(ctx context.Context) ([]Event, error)

// CollectWithRetry drives StreamFunc under cfg's retry policy, retrying the
// entire stream from scratch on a retryable error until MaxRetries is
// exhausted or a non-retryable error is returned.
func CollectWithRetry(ctx context.Context, cfg RetryConfig, open StreamFunc) ([]Event, error) {
	for attempt := 1; ; attempt++ {
		events, err := open(ctx)
		if err == nil {
			return events, nil
		}

		if !IsRetryable(err) || attempt > cfg.MaxRetries {
			return nil, err
		}

		delay := retryDelay(err, attempt, cfg)
		log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("llm: retrying provider stream")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func retryDelay(err error, attempt int, cfg RetryConfig) time.Duration {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.RetryAfter > 0 {
		maxDur := time.Duration(cfg.MaxBackoffSecs) * time.Second
		if pe.RetryAfter > maxDur {
			return maxDur
		}
		return pe.RetryAfter
	}
	return ExponentialBackoff(attempt, cfg.BaseBackoffMs, cfg.MaxBackoffSecs)
}
