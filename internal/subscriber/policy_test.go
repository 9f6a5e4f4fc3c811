package subscriber

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicyMonotonicAndCapped(t *testing.T) {
	p := &Policy{BaseDelay: time.Second, MaxDelay: 30 * time.Second, MaxAttempts: 100}

	prev := time.Duration(0)
	for attempt := 0; attempt < 100; attempt++ {
		d := p.Delay(attempt)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		assert.LessOrEqual(t, d, 30*time.Second, "attempt %d", attempt)
		prev = d
	}
	assert.Equal(t, 30*time.Second, p.Delay(5))
	assert.Equal(t, 30*time.Second, p.Delay(63))
}

func TestPolicySequence(t *testing.T) {
	p := DefaultPolicy()

	var got []time.Duration
	for range 7 {
		got = append(got, p.NextBackOff())
	}

	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		60 * time.Second, // recovery tier
		1 * time.Second,  // counter started over
	}, got)
	assert.Equal(t, 1, p.Attempt())
}

func TestPolicyRecoveryResetsAttempt(t *testing.T) {
	p := &Policy{BaseDelay: time.Second, MaxDelay: 30 * time.Second, MaxAttempts: 2, RecoveryDelay: time.Minute}

	p.NextBackOff()
	p.NextBackOff()
	assert.Equal(t, 2, p.Attempt())

	assert.Equal(t, time.Minute, p.NextBackOff())
	assert.Equal(t, 0, p.Attempt())
}

func TestPolicyReset(t *testing.T) {
	p := DefaultPolicy()
	p.NextBackOff()
	p.NextBackOff()

	p.Reset()
	assert.Equal(t, 0, p.Attempt())
	assert.Equal(t, time.Second, p.NextBackOff())
}
