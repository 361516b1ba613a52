package http

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/notion-client/internal/constants"
)

// BackoffPolicy is the retry schedule of one logical call.
type BackoffPolicy struct {
	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration
	// Multiplier grows the wait for every further retry.
	Multiplier float64
	// MaxDelay caps a computed wait. Server-provided Retry-After hints are not capped.
	MaxDelay time.Duration
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int
}

// DefaultBackoffPolicy returns 500ms doubling up to 8s, three attempts.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		BaseDelay:   constants.DefaultRetryBaseDelay,
		Multiplier:  constants.ExponentialBackoffBase,
		MaxDelay:    constants.DefaultRetryMaxDelay,
		MaxAttempts: constants.DefaultMaxAttempts,
	}
}

// Delay returns the wait before the given retry, counting retries from 1.
func (p BackoffPolicy) Delay(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}

	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(retry-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}

	return time.Duration(delay)
}

// withDefaults fills zero fields from DefaultBackoffPolicy.
func (p BackoffPolicy) withDefaults() BackoffPolicy {
	def := DefaultBackoffPolicy()

	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}

	if p.Multiplier < 1 {
		p.Multiplier = def.Multiplier
	}

	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}

	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}

	return p
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	secs, err := strconv.ParseFloat(value, 64)
	if err == nil {
		if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, false
		}

		return time.Duration(secs * float64(time.Second)), true
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}

	wait := at.Sub(now)
	if wait < 0 {
		wait = 0
	}

	return wait, true
}
