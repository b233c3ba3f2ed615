package circuit

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State of the breaker.
type State int

const (
	StateClosed   State = iota // calls pass through
	StateOpen                  // calls fail fast
	StateHalfOpen              // a few probe calls test recovery
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrOpen            = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Config tunes the breaker's state machine.
type Config struct {
	// FailureThreshold consecutive failures open the circuit.
	FailureThreshold int
	// Cooldown is how long the circuit stays open before probing.
	Cooldown time.Duration
	// SuccessThreshold consecutive probe successes close it again.
	SuccessThreshold int
	// HalfOpenLimit caps concurrent probes while half-open.
	HalfOpenLimit int
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		SuccessThreshold: 3,
		HalfOpenLimit:    3,
	}
}

// Breaker guards calls to a slow-failing dependency. After
// FailureThreshold consecutive failures it rejects calls outright for the
// cooldown period, then lets a limited number of probes through until the
// dependency proves healthy again.
type Breaker struct {
	name string
	cfg  Config
	log  *zap.Logger

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	probes      int
	lastFailure time.Time
}

func NewBreaker(name string, cfg Config, log *zap.Logger) *Breaker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Breaker{
		name:  name,
		cfg:   cfg,
		log:   log,
		state: StateClosed,
	}
}

// Execute runs fn under the breaker. A rejected call returns ErrOpen or
// ErrTooManyRequests without invoking fn; otherwise fn's own error is
// recorded and returned.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	b.Record(err)
	return err
}

// Allow reports whether a call may proceed, advancing open → half-open when
// the cooldown has passed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if time.Since(b.lastFailure) < b.cfg.Cooldown {
			return ErrOpen
		}
		b.transition(StateHalfOpen)
		b.probes = 1
		return nil

	case StateHalfOpen:
		if b.probes >= b.cfg.HalfOpenLimit {
			return ErrTooManyRequests
		}
		b.probes++
		return nil

	default:
		return nil
	}
}

// Record feeds a call's outcome back into the state machine.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		if b.state == StateHalfOpen {
			b.successes++
			if b.successes >= b.cfg.SuccessThreshold {
				b.transition(StateClosed)
			}
		}
		return
	}

	b.failures++
	b.successes = 0
	b.lastFailure = time.Now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		// One failed probe sends the circuit straight back open
		b.transition(StateOpen)
	}
}

// transition changes state. Caller holds the lock.
func (b *Breaker) transition(next State) {
	prev := b.state
	b.state = next
	b.probes = 0
	if next == StateClosed {
		b.failures = 0
		b.successes = 0
	}

	b.log.Info("Circuit breaker state changed",
		zap.String("name", b.name),
		zap.String("from", prev.String()),
		zap.String("to", next.String()),
	)
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
