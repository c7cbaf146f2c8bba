package authctx

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds the confirmation read that follows a login
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	// Multiplier > 1 grows the delay between attempts; otherwise it is fixed
	Multiplier float64
}

// DefaultRetryPolicy is three attempts half a second apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       500 * time.Millisecond,
		Multiplier:  1,
	}
}

func (p RetryPolicy) attempts() uint {
	if p.MaxAttempts < 1 {
		return 1
	}
	return uint(p.MaxAttempts)
}

func (p RetryPolicy) backOff() backoff.BackOff {
	if p.Multiplier <= 1 {
		return backoff.NewConstantBackOff(p.Delay)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Delay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(float64(p.Delay) * p.Multiplier * float64(p.attempts()))
	b.Reset()
	return b
}
