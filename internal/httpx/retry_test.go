package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestIsRetryableStatus(t *testing.T) {
	cases := map[int]bool{
		http.StatusOK:                  false,
		http.StatusBadRequest:          false,
		http.StatusUnauthorized:        false,
		http.StatusNotFound:            false,
		http.StatusUnprocessableEntity: false,
		http.StatusRequestTimeout:      true,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
	}
	for code, want := range cases {
		if got := IsRetryableStatus(code); got != want {
			t.Errorf("IsRetryableStatus(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	if got := RetryAfter(resp); got != 0 {
		t.Errorf("expected 0 without header, got %v", got)
	}
	resp.Header.Set("Retry-After", "2")
	if got := RetryAfter(resp); got != 2*time.Second {
		t.Errorf("expected 2s, got %v", got)
	}
	resp.Header.Set("Retry-After", "3600")
	if got := RetryAfter(resp); got != MaxRetryAfter {
		t.Errorf("expected cap, got %v", got)
	}
	resp.Header.Set("Retry-After", "Wed, 21 Oct 2015 07:28:00 GMT")
	if got := RetryAfter(resp); got != 0 {
		t.Errorf("expected 0 for date form, got %v", got)
	}
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, nil, func() (time.Duration, error) {
		calls++
		return 0, statusErr(http.StatusForbidden)
	})
	if !errors.Is(err, statusErr(http.StatusForbidden)) {
		t.Fatalf("expected the original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, nil, func() (time.Duration, error) {
		calls++
		if calls < 3 {
			return time.Millisecond, statusErr(http.StatusBadGateway)
		}
		return 0, nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ZeroRetries(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 0, time.Millisecond, nil, func() (time.Duration, error) {
		calls++
		return 0, statusErr(http.StatusServiceUnavailable)
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected one failed attempt, got calls=%d err=%v", calls, err)
	}
}

func TestRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Retry(ctx, 3, time.Millisecond, nil, func() (time.Duration, error) {
		calls++
		return 0, statusErr(http.StatusServiceUnavailable)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected no retries after cancellation, got %d calls", calls)
	}
}
