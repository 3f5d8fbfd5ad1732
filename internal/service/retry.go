package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

const (
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 5 * time.Second
	defaultMaxAttempts    = 3
	backoffMultiplier     = 2
)

// RetryPolicy bounds retries of a single operation: exponential backoff
// between attempts, full jitter, capped by MaxBackoff.
type RetryPolicy struct {
	MaxAttempts    int           // Total attempts (first try included).
	InitialBackoff time.Duration // Backoff after the first failure; doubles each attempt.
	MaxBackoff     time.Duration // Upper bound on backoff between attempts.
}

// DefaultRetryPolicy matches the embedding pipeline contract: 3 attempts,
// 1s initial backoff, x2 growth, 5s cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    defaultMaxAttempts,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}

	if p.InitialBackoff <= 0 {
		p.InitialBackoff = defaultInitialBackoff
	}

	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}

	return p
}

// fullJitter returns a random duration in [0, d). Randomizing the whole
// interval avoids synchronized retry storms across concurrent callers.
func fullJitter(d time.Duration) time.Duration {
	nanos := d.Nanoseconds()
	if nanos <= 0 {
		return 0
	}

	var buf [8]byte

	if _, err := rand.Read(buf[:]); err != nil {
		return d / backoffMultiplier
	}

	randVal := binary.BigEndian.Uint64(buf[:])

	//nolint:gosec // G115: modulo result is in [0, nanos), safe to convert to int64
	return time.Duration(int64(randVal % uint64(nanos)))
}

// sleepCtx blocks for the given duration or until ctx is cancelled; returns
// ctx.Err() if cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
