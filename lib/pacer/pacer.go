// Package pacer spaces out API calls and backs off when the remote
// says it is being called too fast.
//
// Nothing here retries. A call the remote rejected is returned to the
// caller as is and only slows down the calls that follow it.
package pacer

import (
	"context"
	"sync"
	"time"

	"github.com/TheHighestBit/CoDriver/fs"
	"golang.org/x/time/rate"
)

// Pacer state
type Pacer struct {
	mu                 sync.Mutex    // Protecting read/writes
	minSleep           time.Duration // minimum sleep time
	maxSleep           time.Duration // maximum sleep time
	decayConstant      uint          // decay constant
	attackConstant     uint          // attack constant
	sleepTime          time.Duration // time between calls
	burst              int           // calls allowed back to back
	limiter            *rate.Limiter // paces the calls
	consecutiveBackoff int           // number of calls in a row the remote pushed back on
}

// Paced is a function which is called by Call. It returns true if
// the remote signalled that it is overloaded, and the error.
type Paced func() (bool, error)

// New returns a Pacer with sensible defaults
func New() *Pacer {
	p := &Pacer{
		minSleep:       10 * time.Millisecond,
		maxSleep:       2 * time.Second,
		decayConstant:  2,
		attackConstant: 1,
		burst:          1,
	}
	p.sleepTime = p.minSleep
	p.limiter = rate.NewLimiter(rate.Every(p.sleepTime), p.burst)
	return p
}

// SetMinSleep sets the minimum sleep time for the pacer
func (p *Pacer) SetMinSleep(t time.Duration) *Pacer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minSleep = t
	p.setSleep(t)
	return p
}

// SetMaxSleep sets the maximum sleep time for the pacer
func (p *Pacer) SetMaxSleep(t time.Duration) *Pacer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maxSleep = t
	p.setSleep(p.minSleep)
	return p
}

// SetBurst sets how many calls may be made back to back before
// pacing starts
func (p *Pacer) SetBurst(n int) *Pacer {
	if n < 1 {
		n = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.burst = n
	p.limiter.SetBurst(n)
	return p
}

// SetDecayConstant sets the decay constant for the pacer
//
// This is the speed the time falls back to the minimum after errors
// have occurred.
//
// bigger for slower decay, exponential. 0 is disable decay.
func (p *Pacer) SetDecayConstant(decay uint) *Pacer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decayConstant = decay
	return p
}

// SetAttackConstant sets the attack constant for the pacer
//
// This is the speed the time grows from the minimum after errors have
// occurred.
//
// bigger for slower attack, 1 is double, 0 is go straight to maximum
func (p *Pacer) SetAttackConstant(attack uint) *Pacer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attackConstant = attack
	return p
}

// GetSleep returns the current time between calls
func (p *Pacer) GetSleep() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sleepTime
}

// setSleep changes the sleep time and the limiter with it
//
// Call with the lock held
func (p *Pacer) setSleep(t time.Duration) {
	p.sleepTime = t
	if t <= 0 {
		p.limiter.SetLimit(rate.Inf)
		return
	}
	p.limiter.SetLimit(rate.Every(t))
}

// calculatePace works out the new sleep time after a call
//
// Call with the lock held
func (p *Pacer) calculatePace(backoff bool) {
	oldSleepTime := p.sleepTime
	newSleepTime := oldSleepTime
	if backoff {
		if p.attackConstant == 0 {
			newSleepTime = p.maxSleep
		} else {
			newSleepTime = (oldSleepTime << p.attackConstant) / ((1 << p.attackConstant) - 1)
		}
		if newSleepTime > p.maxSleep {
			newSleepTime = p.maxSleep
		}
		if newSleepTime != oldSleepTime {
			fs.Debugf("pacer", "Rate limited, increasing sleep to %v", newSleepTime)
		}
	} else {
		newSleepTime = (oldSleepTime<<p.decayConstant - oldSleepTime) >> p.decayConstant
		if newSleepTime < p.minSleep {
			newSleepTime = p.minSleep
		}
		if newSleepTime != oldSleepTime {
			fs.Debugf("pacer", "Reducing sleep to %v", newSleepTime)
		}
	}
	p.setSleep(newSleepTime)
}

// endCall records the outcome of a call
func (p *Pacer) endCall(backoff bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if backoff {
		p.consecutiveBackoff++
	} else {
		p.consecutiveBackoff = 0
	}
	p.calculatePace(backoff)
}

// Call waits for its turn, calls fn once and returns its error.
//
// If fn reports that the remote pushed back, later calls are spaced
// further apart, but fn is not called again.
func (p *Pacer) Call(ctx context.Context, fn Paced) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	backoff, err := fn()
	p.endCall(backoff)
	return err
}
