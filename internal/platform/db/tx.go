package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrBusy indicates the transaction kept losing serialization conflicts and
// all retry attempts are exhausted. Callers may retry after a delay.
var ErrBusy = errors.New("platform/db: storage busy, retries exhausted")

// RetryPolicy bounds automatic retries for contended transactions.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy matches the engine-wide contention policy.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 50 * time.Millisecond}

// WithTx executes fn inside a serializable transaction. Serialization
// failures and deadlocks are retried per policy; exhaustion surfaces ErrBusy.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	return WithTxRetry(ctx, pool, DefaultRetryPolicy, fn)
}

// WithTxRetry is WithTx with an explicit retry policy.
func WithTxRetry(ctx context.Context, pool *pgxpool.Pool, policy RetryPolicy, fn func(pgx.Tx) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && policy.Backoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(policy.Backoff * time.Duration(attempt)):
			}
		}

		err := runTx(ctx, pool, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %w", ErrBusy, lastErr)
}

func runTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

// retryable reports whether the error is a transient concurrency failure
// (serialization_failure or deadlock_detected).
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
