package etl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, true},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, true},
		{"connection exception class", &pgconn.PgError{Code: "08006"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"not null violation", &pgconn.PgError{Code: "23502"}, false},
		{"keyword deadlock", errors.New("pq: deadlock detected"), true},
		{"keyword connection", errors.New("connection refused"), true},
		{"plain error", errors.New("invalid input"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	attempts, err := WithRetry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRecoversFromTransientFailure(t *testing.T) {
	calls := 0
	attempts, err := WithRetry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40P01"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustsRetries(t *testing.T) {
	calls := 0
	attempts, err := WithRetry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return &pgconn.PgError{Code: "40001"}
	})

	require.Error(t, err)
	assert.Equal(t, 4, attempts, "Initial attempt plus three retries")
	assert.Equal(t, 4, calls)
}

func TestWithRetryNonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	sentinel := &pgconn.PgError{Code: "23505"}
	attempts, err := WithRetry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return sentinel
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithRetry(ctx, 3, time.Hour, func() error {
		return &pgconn.PgError{Code: "40001"}
	})

	assert.ErrorIs(t, err, context.Canceled)
}
