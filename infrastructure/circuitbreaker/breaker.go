// Package circuitbreaker stops calling a dependency after repeated failures
// and lets a single trial call through once the open timeout has elapsed.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without calling the protected function.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Config controls when the circuit trips and recovers. Zero values take the
// DefaultConfig value.
type Config struct {
	// FailureThreshold consecutive failures open a closed circuit.
	FailureThreshold int
	// SuccessThreshold consecutive trial successes close a half-open circuit.
	SuccessThreshold int
	// Timeout is how long the circuit stays open.
	Timeout time.Duration

	// IsFailure classifies errors. Nil counts every non-nil error.
	IsFailure func(error) bool
	// OnStateChange is called with the lock held; it must not call back
	// into the breaker.
	OnStateChange func(from, to State)
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		Timeout:          30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = d.SuccessThreshold
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.IsFailure == nil {
		c.IsFailure = func(err error) bool { return err != nil }
	}
	return c
}

// Breaker is safe for concurrent use.
type Breaker struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
	probing   bool
}

func New(cfg Config) *Breaker {
	return &Breaker{cfg: cfg.withDefaults(), now: time.Now}
}

// Execute runs fn unless the circuit is open. When ctx is done before or
// during the call the result says nothing about the dependency, so it never
// counts against the circuit.
func (b *Breaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.admit(); err != nil {
		return err
	}

	err := fn()
	if ctx.Err() != nil {
		b.release()
		return err
	}
	b.settle(b.cfg.IsFailure(err))
	return err
}

// release ends a call without recording an outcome. A half-open circuit
// stays half-open and admits the next trial.
func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		wait := b.cfg.Timeout - b.now().Sub(b.openedAt)
		if wait > 0 {
			return fmt.Errorf("%w: retry after %v", ErrCircuitOpen, wait)
		}
		b.setState(StateHalfOpen)
	}

	if b.state == StateHalfOpen {
		if b.probing {
			return fmt.Errorf("%w: trial call in flight", ErrCircuitOpen)
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) settle(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false

	if failed {
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.cfg.FailureThreshold {
			b.openedAt = b.now()
			b.setState(StateOpen)
		}
		return
	}

	b.failures = 0
	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.setState(StateClosed)
		}
	}
}

func (b *Breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}

	b.state = to
	b.failures, b.successes = 0, 0
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset closes the circuit and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	b.setState(StateClosed)
	b.failures, b.successes = 0, 0
}
