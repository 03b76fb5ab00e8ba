package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"instapi/pkg/config"
	errs "instapi/pkg/errors"
	"instapi/pkg/logger"
)

// Operation is a unit of work that may be retried
type Operation func(ctx context.Context) error

// OperationWithResult is an Operation producing a value
type OperationWithResult[T any] func(ctx context.Context) (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts counts the first try; 1 disables retries
	MaxAttempts int
	// Backoff is used for errors without a type-specific strategy
	Backoff BackoffStrategy
	// ByType overrides Backoff for particular remote error types
	ByType map[errs.ErrorType]BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each wait
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return FromSettings(config.DefaultConfig().Retry, nil)
}

// FromSettings builds a Config from the user-facing retry section.
func FromSettings(s config.RetryConfig, log logger.Logger) *Config {
	if log == nil {
		log = logger.GetLogger()
	}
	base := &ExponentialBackoff{
		BaseDelay:    s.BaseDelay,
		MaxDelay:     s.MaxDelay,
		Multiplier:   s.Multiplier,
		JitterFactor: 0.1,
	}
	return &Config{
		MaxAttempts: s.MaxAttempts,
		Backoff:     base,
		ByType: map[errs.ErrorType]BackoffStrategy{
			errs.ErrorTypeRateLimit: &ExponentialBackoff{
				BaseDelay:    30 * time.Second,
				MaxDelay:     5 * time.Minute,
				Multiplier:   1.5,
				JitterFactor: 0.3,
			},
		},
		RetryIf: DefaultRetryIf,
		Logger:  log,
	}
}

// DefaultRetryIf retries transient transport failures only. Anything that is
// not an *errors.Error, such as a decode failure, is final.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if apiErr, ok := errs.As(err); ok {
		return errs.IsRetryable(apiErr.Type)
	}
	return false
}

func (c *Config) backoffFor(err error) BackoffStrategy {
	if apiErr, ok := errs.As(err); ok {
		if b, ok := c.ByType[apiErr.Type]; ok {
			return b
		}
	}
	return c.Backoff
}

// Do runs op until it succeeds, fails permanently, runs out of attempts or
// ctx is done.
func Do(ctx context.Context, cfg *Config, op Operation) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		lastErr = err

		if !retryIf(err) {
			return err
		}
		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			log.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
				"attempts":   attempt,
				"last_error": lastErr.Error(),
			})
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		delay := cfg.backoffFor(err).NextDelay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		log.WarnWithFields("retrying operation", map[string]interface{}{
			"attempt":  attempt,
			"error":    err.Error(),
			"delay_ms": delay.Milliseconds(),
		})

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult is Do for operations that produce a value
func DoWithResult[T any](ctx context.Context, cfg *Config, op OperationWithResult[T]) (T, error) {
	var result T
	err := Do(ctx, cfg, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, err
}
