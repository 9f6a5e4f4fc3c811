package subscriber

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultBaseDelay     = time.Second
	DefaultMaxDelay      = 30 * time.Second
	DefaultMaxAttempts   = 5
	DefaultRecoveryDelay = 60 * time.Second
)

var _ backoff.BackOff = (*Policy)(nil)

// Policy is a capped exponential backoff with a slow recovery tier. Delay n
// is min(BaseDelay*2^n, MaxDelay) for n below MaxAttempts. Once MaxAttempts
// fast retries are used up, the next delay is RecoveryDelay and the attempt
// counter starts over.
type Policy struct {
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	MaxAttempts   int
	RecoveryDelay time.Duration

	attempt int
}

// DefaultPolicy returns a Policy with base 1s, cap 30s, 5 fast attempts and
// a 60s recovery delay.
func DefaultPolicy() *Policy {
	return &Policy{
		BaseDelay:     DefaultBaseDelay,
		MaxDelay:      DefaultMaxDelay,
		MaxAttempts:   DefaultMaxAttempts,
		RecoveryDelay: DefaultRecoveryDelay,
	}
}

// Delay returns min(BaseDelay*2^attempt, MaxDelay) without touching the
// counter.
func (p *Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := p.BaseDelay
	for range attempt {
		if d >= p.MaxDelay/2 {
			return p.MaxDelay
		}
		d *= 2
	}
	return min(d, p.MaxDelay)
}

// NextBackOff returns the delay before the next reconnect and advances the
// attempt counter.
func (p *Policy) NextBackOff() time.Duration {
	if p.MaxAttempts > 0 && p.attempt >= p.MaxAttempts {
		p.attempt = 0
		return p.RecoveryDelay
	}
	d := p.Delay(p.attempt)
	p.attempt++
	return d
}

// Reset starts the counter over. Called on every successful open.
func (p *Policy) Reset() { p.attempt = 0 }

// Attempt returns the number of fast retries used since the last reset.
func (p *Policy) Attempt() int { return p.attempt }
