package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// MaxRetryAfter caps how long a Retry-After header may stall a caller.
const MaxRetryAfter = 30 * time.Second

// StatusCoder is implemented by errors that carry an HTTP response status.
type StatusCoder interface {
	HTTPStatusCode() int
}

// IsRetryableStatus reports whether a response status is transient.
func IsRetryableStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// IsRetryable reports whether err is a transient transport or status failure.
// Cancellation of ctx is never retryable.
func IsRetryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return IsRetryableStatus(sc.HTTPStatusCode())
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// RetryAfter parses a Retry-After header given in seconds, capped at MaxRetryAfter.
func RetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if ra == "" {
		return 0
	}
	secs, err := strconv.Atoi(ra)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > MaxRetryAfter {
		d = MaxRetryAfter
	}
	return d
}

// Attempt performs one request. A positive wait overrides the next backoff
// delay, typically from a Retry-After header.
type Attempt func() (wait time.Duration, err error)

// Retry runs attempt until it succeeds, fails permanently, maxRetries retries
// are exhausted, or ctx is done. Only errors accepted by IsRetryable are retried.
func Retry(ctx context.Context, maxRetries int, initial time.Duration, logger *slog.Logger, attempt Attempt) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	exp := backoff.NewExponentialBackOff()
	if initial > 0 {
		exp.InitialInterval = initial
	}
	exp.MaxElapsedTime = 0
	policy := &hinted{BackOff: backoff.WithMaxRetries(exp, uint64(maxRetries))}

	op := func() error {
		wait, err := attempt()
		if err == nil {
			return nil
		}
		if !IsRetryable(ctx, err) {
			return backoff.Permanent(err)
		}
		policy.hint = wait
		return err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("Request failed, retrying", "error", err, "wait", wait)
	}

	return backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify)
}

// hinted lets a server-provided delay replace the next computed one.
type hinted struct {
	backoff.BackOff
	hint time.Duration
}

func (h *hinted) NextBackOff() time.Duration {
	next := h.BackOff.NextBackOff()
	if next == backoff.Stop {
		return backoff.Stop
	}
	if h.hint > 0 {
		next, h.hint = h.hint, 0
	}
	return next
}
