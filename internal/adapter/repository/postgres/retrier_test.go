package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestRetrierRetriesBucketConflicts(t *testing.T) {
	for _, code := range []string{pgErrDeadlock, pgErrSerializationFailure} {
		t.Run(code, func(t *testing.T) {
			r := fastRetrier()

			attempts := 0
			err := r.Retry(context.Background(), func() error {
				attempts++
				if attempts < 3 {
					return fmt.Errorf("upsert bucket: %w", &pgconn.PgError{Code: code})
				}
				return nil
			})

			if err != nil {
				t.Fatalf("expected success after retries, got %v", err)
			}
			if attempts != 3 {
				t.Fatalf("expected 3 attempts, got %d", attempts)
			}
		})
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := fastRetrier()
	attempts := 0
	uniqueViolation := &pgconn.PgError{Code: "23505"}

	err := r.Retry(context.Background(), func() error {
		attempts++
		return uniqueViolation
	})

	if !errors.Is(err, uniqueViolation) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetrierStopsWhenContextDone(t *testing.T) {
	r := fastRetrier()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := r.Retry(ctx, func() error {
		attempts++
		return &pgconn.PgError{Code: pgErrDeadlock}
	})

	if err == nil {
		t.Fatalf("expected error when context is cancelled")
	}
	if attempts > 1 {
		t.Fatalf("expected no retries after cancel, got %d attempts", attempts)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadlock", &pgconn.PgError{Code: pgErrDeadlock}, true},
		{"serialization failure", &pgconn.PgError{Code: pgErrSerializationFailure}, true},
		{"wrapped deadlock", fmt.Errorf("write bucket: %w", &pgconn.PgError{Code: pgErrDeadlock}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", errors.New("conn reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Fatalf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
