// Package retry bounds retries of idempotent read/verify calls. State-changing
// calls (link, backfill, accept, decline, burn, withdraw, stake) never go through it.
package retry

import (
	"context"
	"errors"
	"time"

	goretry "github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	DefaultMaxRetries = 2
	DefaultBase       = 400 * time.Millisecond

	minBase = time.Millisecond
)

// Policy is MaxRetries extra attempts with exponential backoff starting at Base.
type Policy struct {
	MaxRetries uint64
	Base       time.Duration
}

// DefaultPolicy is 2 retries at 400ms then 800ms.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, Base: DefaultBase}
}

// None disables retries.
func None() Policy {
	return Policy{MaxRetries: 0, Base: minBase}
}

func (p Policy) backoff() goretry.Backoff {
	base := p.Base
	if base < minBase {
		base = minBase
	}
	return goretry.WithMaxRetries(p.MaxRetries, goretry.NewExponential(base))
}

type transient interface {
	Transient() bool
}

// Retryable reports whether err is worth another attempt: server-side
// transient failures and transport errors are, everything else is not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var t transient
	if errors.As(err, &t) {
		return t.Transient()
	}
	return true
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the policy is exhausted.
func Do[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	attempt := 0
	err := goretry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++
		v, err := fn(ctx)
		if err != nil {
			if Retryable(err) {
				zap.L().Debug("Read failed, will retry if attempts remain",
					zap.String("op", op),
					zap.Int("attempt", attempt),
					zap.Error(err))
				return goretry.RetryableError(err)
			}
			return err
		}
		out = v
		return nil
	})
	return out, err
}
