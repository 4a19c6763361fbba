package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryErrWithContext(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name      string
		maxTries  int
		failures  int
		fnErr     error
		wantCalls int
		wantErr   error
	}{
		{"success immediate", 3, 0, errBoom, 1, nil},
		{"success after retries", 3, 2, errBoom, 3, nil},
		{"persistent failure", 3, 5, errBoom, 3, errBoom},
		{"zero tries means one", 0, 5, errBoom, 1, errBoom},
		{"context error from fn stops", 5, 5, context.DeadlineExceeded, 1, context.DeadlineExceeded},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			err := RetryErrWithContext(context.Background(), tc.maxTries, time.Millisecond, func(context.Context) error {
				calls++
				if calls <= tc.failures {
					return tc.fnErr
				}
				return nil
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if calls != tc.wantCalls {
				t.Fatalf("calls = %d, want %d", calls, tc.wantCalls)
			}
		})
	}
}

func TestRetryErrWithContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryErrWithContext(ctx, 5, time.Hour, func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
