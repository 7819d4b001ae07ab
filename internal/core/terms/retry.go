package terms

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/agenthands/weft/internal/core/model"
)

// RetryConfig holds retry configuration for resolver calls.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per call.
	MaxAttempts int

	// BackoffBase is the initial backoff duration.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to backoff on each retry.
	BackoffMultiplier float64

	// MaxBackoff caps the maximum backoff duration.
	MaxBackoff time.Duration

	// Timeout bounds a single attempt. Zero means no per-attempt timeout.
	Timeout time.Duration
}

// DefaultRetryConfig returns the retry policy used when none is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       500 * time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        10 * time.Second,
		Timeout:           30 * time.Second,
	}
}

// RetryResolver retries transient failures of the wrapped resolver. Fatal
// errors and exhausted retries surface as model.ErrResolverUnavailable.
type RetryResolver struct {
	Resolver Resolver
	Config   RetryConfig
	Logger   *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetryResolver(r Resolver, cfg RetryConfig, logger *slog.Logger) *RetryResolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryResolver{Resolver: r, Config: cfg, Logger: logger, sleep: sleepCtx}
}

func (r *RetryResolver) Resolve(ctx context.Context, text string) ([]Term, error) {
	var lastErr error

	for attempt := 1; attempt <= r.Config.MaxAttempts; attempt++ {
		res, err := r.attempt(ctx, text)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if IsFatal(err) || ctx.Err() != nil {
			break
		}

		if attempt < r.Config.MaxAttempts {
			backoff := r.backoff(attempt)
			r.Logger.Debug("resolver call failed, retrying",
				"attempt", attempt,
				"max_attempts", r.Config.MaxAttempts,
				"backoff", backoff,
				"error", err)
			if err := r.sleep(ctx, backoff); err != nil {
				lastErr = err
				break
			}
		}
	}

	return nil, fmt.Errorf("%w: %v", model.ErrResolverUnavailable, lastErr)
}

func (r *RetryResolver) attempt(ctx context.Context, text string) ([]Term, error) {
	if r.Config.Timeout <= 0 {
		return r.Resolver.Resolve(ctx, text)
	}
	ctx, cancel := context.WithTimeout(ctx, r.Config.Timeout)
	defer cancel()
	return r.Resolver.Resolve(ctx, text)
}

// backoff computes exponential backoff with +/- 25% jitter.
func (r *RetryResolver) backoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= r.Config.BackoffMultiplier
	}

	backoff := time.Duration(float64(r.Config.BackoffBase) * multiplier)
	if r.Config.MaxBackoff > 0 && backoff > r.Config.MaxBackoff {
		backoff = r.Config.MaxBackoff
	}

	jitter := float64(backoff) * 0.25 * (rand.Float64()*2 - 1)
	return backoff + time.Duration(jitter)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
