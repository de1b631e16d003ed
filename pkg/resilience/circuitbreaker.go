package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"ai-board-of-directors/backend/pkg/logger"
)

// ErrCircuitOpen is returned without calling the wrapped function while the breaker is open
var ErrCircuitOpen = errors.New("circuit open")

// State represents the current state of a circuit breaker
type State string

const (
	// StateClosed means requests pass through
	StateClosed State = "closed"
	// StateOpen means requests are short-circuited
	StateOpen State = "open"
	// StateHalfOpen means a limited number of probe requests are allowed
	StateHalfOpen State = "half-open"
)

// Config holds configuration for a circuit breaker
type Config struct {
	Name             string
	FailureThreshold uint
	SuccessThreshold uint
	// RetryTimeout is how long the breaker stays open before probing
	RetryTimeout time.Duration
}

// DefaultConfig returns the configuration used for upstream HTTP providers
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		RetryTimeout:     30 * time.Second,
	}
}

// Snapshot is a point-in-time view of breaker counters
type Snapshot struct {
	Name              string    `json:"name"`
	State             State     `json:"state"`
	TotalRequests     uint64    `json:"totalRequests"`
	TotalFailures     uint64    `json:"totalFailures"`
	TotalSuccesses    uint64    `json:"totalSuccesses"`
	ConsecutiveErrors uint64    `json:"consecutiveErrors"`
	OpenCount         uint64    `json:"openCount"`
	LastFailure       time.Time `json:"lastFailure,omitempty"`
}

// CircuitBreaker protects an upstream dependency from repeated calls while it is failing
type CircuitBreaker struct {
	cfg Config
	log *logger.Logger

	mu              sync.Mutex
	state           State
	failureCount    uint
	successCount    uint
	nextAttemptTime time.Time
	onStateChange   func(name string, from, to State)
	stats           Snapshot
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(cfg Config, log *logger.Logger) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 1
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 1
	}
	return &CircuitBreaker{
		cfg:   cfg,
		log:   log,
		state: StateClosed,
		stats: Snapshot{Name: cfg.Name},
	}
}

// OnStateChange registers a hook invoked on every transition
func (cb *CircuitBreaker) OnStateChange(fn func(name string, from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Execute runs fn through the breaker. Cancellation by the caller is not counted as an upstream failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if !cb.allow() {
		cb.log.Warn("Circuit breaker rejected request", "name", cb.cfg.Name)
		return ErrCircuitOpen
	}

	start := time.Now()
	err := fn(ctx)

	switch {
	case err == nil:
		cb.recordSuccess()
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		cb.log.Debug("Circuit breaker ignoring cancelled call", "name", cb.cfg.Name)
	default:
		cb.recordFailure()
		cb.log.Warn("Circuit breaker recorded failure",
			"name", cb.cfg.Name,
			"error", err.Error(),
			"duration", time.Since(start).String(),
		)
	}

	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalRequests++

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Now().After(cb.nextAttemptTime) {
			cb.transition(StateHalfOpen)
			cb.successCount = 0
			return true
		}
		return false
	case StateHalfOpen:
		return cb.successCount < cb.cfg.SuccessThreshold
	}
	return false
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalSuccesses++
	cb.stats.ConsecutiveErrors = 0

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.cfg.SuccessThreshold {
			cb.failureCount = 0
			cb.successCount = 0
			cb.transition(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalFailures++
	cb.stats.ConsecutiveErrors++
	cb.stats.LastFailure = time.Now()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.cfg.FailureThreshold {
			cb.open()
		}
	case StateHalfOpen:
		cb.open()
	}
}

// open must be called with mu held
func (cb *CircuitBreaker) open() {
	cb.nextAttemptTime = time.Now().Add(cb.cfg.RetryTimeout)
	cb.stats.OpenCount++
	cb.transition(StateOpen)

	cb.log.Info("Circuit breaker opened",
		"name", cb.cfg.Name,
		"failures", cb.failureCount,
		"nextAttempt", cb.nextAttemptTime.Format(time.RFC3339),
	)
}

// transition must be called with mu held
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	if from != to && cb.onStateChange != nil {
		cb.onStateChange(cb.cfg.Name, from, to)
	}
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Snapshot returns the current counters
func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	s := cb.stats
	s.State = cb.state
	return s
}
