package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"atelier/internal/domain/models"
	"atelier/internal/lib/logger/sl"
	"atelier/internal/metrics"
	"atelier/internal/storage"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
)

// HealthProber reports whether the store connection is usable. Backed by
// the pgx pool ping.
type HealthProber interface {
	IsHealthy(ctx context.Context) bool
}

// Executor retries one logical unit of store work with a constant delay.
// Before every retry it probes store health; a failing probe aborts the
// remaining attempts instead of burning them against a dead connection.
type Executor struct {
	log         *slog.Logger
	prober      HealthProber
	maxAttempts int
	delay       time.Duration
}

func NewExecutor(log *slog.Logger, prober HealthProber) *Executor {
	return &Executor{
		log:         log,
		prober:      prober,
		maxAttempts: defaultMaxAttempts,
		delay:       defaultRetryDelay,
	}
}

// WithPolicy overrides the attempt ceiling and delay; used by tests.
func (e *Executor) WithPolicy(maxAttempts int, delay time.Duration) *Executor {
	e.maxAttempts = maxAttempts
	e.delay = delay
	return e
}

func (e *Executor) Execute(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if !retryable(err) {
			return err
		}

		lastErr = err

		if attempt == e.maxAttempts {
			break
		}

		e.log.Warn("store operation failed, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			sl.Err(err),
		)
		metrics.StoreRetriesTotal.WithLabelValues(op).Inc()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.delay):
		}

		if !e.prober.IsHealthy(ctx) {
			metrics.StoreUnavailableTotal.Inc()
			return fmt.Errorf("%s: %w", op, storage.ErrStoreUnavailable)
		}
	}

	return fmt.Errorf("%s: retries exhausted: %w", op, lastErr)
}

// retryable filters out errors a retry can never fix: a definite
// not-found, a validation failure, or a cancelled request.
func retryable(err error) bool {
	if errors.Is(err, storage.ErrProductNotFound) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if models.IsProductValidationError(err) {
		return false
	}
	return true
}
