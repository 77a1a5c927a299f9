package httpx

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"net"
	"strconv"
	"syscall"
	"time"
)

// RetryPolicy is passed to provider clients instead of ad-hoc loops.
type RetryPolicy struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_ms"`
	MaxDelay    time.Duration `mapstructure:"max_ms"`
	Jitter      time.Duration `mapstructure:"jitter_ms"`

	// AttemptTimeout is the budget for the first attempt; each further
	// attempt gets one more multiple, capped at AttemptTimeoutCap.
	AttemptTimeout    time.Duration `mapstructure:"attempt_timeout"`
	AttemptTimeoutCap time.Duration `mapstructure:"attempt_timeout_cap"`
}

// DefaultRetryPolicy returns the provider defaults: 3 attempts, exponential
// backoff capped at 5s, per-attempt timeout growing linearly to 15s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		BaseDelay:         500 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		Jitter:            250 * time.Millisecond,
		AttemptTimeout:    5 * time.Second,
		AttemptTimeoutCap: 15 * time.Second,
	}
}

// Backoff computes the delay before retrying after the given zero-based
// attempt: exponential with jitter, capped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	if capped := float64(p.MaxDelay); d > capped {
		d = capped
	}
	if p.Jitter > 0 {
		d += rand.Float64() * float64(p.Jitter)
	}
	return time.Duration(d)
}

// TimeoutFor returns the per-attempt timeout for the given zero-based
// attempt. The budget grows linearly and is capped.
func (p RetryPolicy) TimeoutFor(attempt int) time.Duration {
	t := p.AttemptTimeout * time.Duration(attempt+1)
	if p.AttemptTimeoutCap > 0 && t > p.AttemptTimeoutCap {
		t = p.AttemptTimeoutCap
	}
	return t
}

// RetryableStatus reports whether an HTTP status is worth retrying:
// 429 and all 5xx. Other 4xx are fatal.
func RetryableStatus(status int) bool {
	return status == 429 || (status >= 500 && status < 600)
}

// RetryableError reports whether a transport error is worth retrying:
// timeouts, dial and connection failures, and truncated responses. A
// refused or reset connection has to exhaust the policy like any other
// outage so IsProviderDown sees it.
func RetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// RetryError is returned when every attempt has been exhausted.
type RetryError struct {
	Op         string
	Attempts   int
	LastStatus int
	LastErr    error
}

func (e *RetryError) Error() string {
	msg := e.Op + " failed after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastStatus != 0 {
		msg += " (HTTP " + strconv.Itoa(e.LastStatus) + ")"
	}
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *RetryError) Unwrap() error { return e.LastErr }

// IsProviderDown reports whether err represents retry exhaustion, i.e.
// the provider is hard-down for this call.
func IsProviderDown(err error) bool {
	var re *RetryError
	return errors.As(err, &re)
}

// StatusError is returned for a non-retryable HTTP status. It is fatal
// for the call but does not mean the provider is down.
type StatusError struct {
	Op     string
	Status int
}

func (e *StatusError) Error() string {
	return e.Op + ": HTTP " + strconv.Itoa(e.Status)
}
