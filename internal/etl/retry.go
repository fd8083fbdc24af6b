package etl

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultMaxRetries bounds how many times a failed batch transaction
	// is re-executed before the failure is demoted to a batch failure.
	DefaultMaxRetries = 3

	// DefaultBaseDelay is the first backoff interval; each retry doubles
	// it and adds up to one second of jitter.
	DefaultBaseDelay = time.Second
)

// SQLSTATE codes considered transient. Class 08 covers connection
// exceptions.
var retryableSQLStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

// IsRetryable reports whether an error is a transient storage failure
// worth re-executing the batch for.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if retryableSQLStates[pgErr.Code] {
			return true
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return true
		}
		return false
	}

	// Driver-level connection failures don't always surface as PgError
	msg := strings.ToLower(err.Error())
	for _, keyword := range []string{"deadlock", "lock timeout", "serialization failure", "connection"} {
		if strings.Contains(msg, keyword) {
			return true
		}
	}

	return false
}

// WithRetry executes fn, re-executing it on transient failures with
// exponential backoff plus jitter. It returns the number of attempts
// made and the final error, nil if any attempt succeeded. Non-transient
// errors are returned immediately.
func WithRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func() error) (int, error) {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return attempt + 1, nil
		}
		if attempt == maxRetries || !IsRetryable(err) {
			return attempt + 1, err
		}

		delay := baseDelay*time.Duration(1<<attempt) + time.Duration(rand.Int63n(int64(time.Second)))
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", maxRetries+1).
			Dur("delay", delay).
			Msg("Retryable error, backing off")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return attempt + 1, ctx.Err()
		}
	}
	return maxRetries + 1, err
}
