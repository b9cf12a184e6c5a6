package middleware

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/storefront/pkg/logger"
)

// CircuitState represents the state of a circuit breaker
type CircuitState string

const (
	StateClosed   CircuitState = "closed"
	StateOpen     CircuitState = "open"
	StateHalfOpen CircuitState = "half-open"
)

// halfOpenSuccesses closes a half-open circuit.
const halfOpenSuccesses = 3

// CircuitBreaker stops calling an upstream after repeated failures and
// probes it again once timeout has passed.
type CircuitBreaker struct {
	name            string
	maxFailures     int
	timeout         time.Duration
	state           CircuitState
	failures        int
	successCount    int
	lastFailureTime time.Time
	lastStateChange time.Time
	now             func() time.Time
	mu              sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(name string, maxFailures int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:            name,
		maxFailures:     maxFailures,
		timeout:         timeout,
		state:           StateClosed,
		lastStateChange: time.Now(),
		now:             time.Now,
	}
}

// ErrCircuitOpen is returned by Call while the circuit is open.
type ErrCircuitOpen struct {
	Name string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker is open for %s", e.Name)
}

// Call runs fn unless the circuit is open and records its outcome.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if cb.State() == StateOpen {
		return &ErrCircuitOpen{Name: cb.name}
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
	return err
}

// State returns the current state, moving an expired open circuit to
// half-open.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.lastStateChange) > cb.timeout {
		cb.transition(StateHalfOpen)
		cb.successCount = 0
		logger.Logger.Info().
			Str("circuit", cb.name).
			Msg("Circuit breaker transitioning to half-open")
	}
	return cb.state
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailureTime = cb.now()

	switch {
	case cb.state == StateHalfOpen:
		cb.transition(StateOpen)
		logger.Logger.Warn().
			Str("circuit", cb.name).
			Msg("Circuit breaker reopened after half-open failure")
	case cb.failures >= cb.maxFailures && cb.state == StateClosed:
		cb.transition(StateOpen)
		logger.Logger.Error().
			Str("circuit", cb.name).
			Int("failures", cb.failures).
			Int("threshold", cb.maxFailures).
			Msg("Circuit breaker opened")
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= halfOpenSuccesses {
			cb.transition(StateClosed)
			cb.failures = 0
			cb.successCount = 0
			logger.Logger.Info().
				Str("circuit", cb.name).
				Msg("Circuit breaker closed after successful recovery")
		}
	case StateClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) transition(to CircuitState) {
	cb.state = to
	cb.lastStateChange = cb.now()
	circuitState.WithLabelValues(cb.name).Set(stateValue(to))
}

// Stats describes the breaker for the gateway overview.
func (cb *CircuitBreaker) Stats() map[string]any {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]any{
		"name":              cb.name,
		"state":             cb.state,
		"failures":          cb.failures,
		"max_failures":      cb.maxFailures,
		"last_failure_time": cb.lastFailureTime,
		"last_state_change": cb.lastStateChange,
	}
}

func stateValue(s CircuitState) float64 {
	switch s {
	case StateOpen:
		return 2
	case StateHalfOpen:
		return 1
	}
	return 0
}

// CircuitBreakerManager holds one breaker per upstream.
type CircuitBreakerManager struct {
	breakers    map[string]*CircuitBreaker
	maxFailures int
	timeout     time.Duration
	mu          sync.Mutex
}

// NewCircuitBreakerManager creates a new circuit breaker manager
func NewCircuitBreakerManager(maxFailures int, timeout time.Duration) *CircuitBreakerManager {
	return &CircuitBreakerManager{
		breakers:    make(map[string]*CircuitBreaker),
		maxFailures: maxFailures,
		timeout:     timeout,
	}
}

// GetOrCreate gets or creates a circuit breaker for an upstream.
func (m *CircuitBreakerManager) GetOrCreate(name string) *CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, ok := m.breakers[name]; ok {
		return cb
	}
	cb := NewCircuitBreaker(name, m.maxFailures, m.timeout)
	m.breakers[name] = cb

	logger.Logger.Info().
		Str("upstream", name).
		Msg("Circuit breaker created")
	return cb
}

// Stats returns the state of every breaker
func (m *CircuitBreakerManager) Stats() map[string]any {
	m.mu.Lock()
	breakers := make([]*CircuitBreaker, 0, len(m.breakers))
	for _, cb := range m.breakers {
		breakers = append(breakers, cb)
	}
	m.mu.Unlock()

	stats := make(map[string]any, len(breakers))
	for _, cb := range breakers {
		stats[cb.name] = cb.Stats()
	}
	return stats
}

// CircuitBreakerMiddleware guards requests under prefix with the upstream's
// breaker. A 5xx from the upstream counts as a failure and is passed through
// unchanged; an open circuit answers 503 without calling the upstream.
func CircuitBreakerMiddleware(manager *CircuitBreakerManager, upstream, prefix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Path(), prefix) {
			return c.Next()
		}

		cb := manager.GetOrCreate(upstream)

		var handlerErr error
		err := cb.Call(func() error {
			handlerErr = c.Next()
			if status := c.Response().StatusCode(); status >= fiber.StatusInternalServerError {
				return fmt.Errorf("upstream error: %d", status)
			}
			return handlerErr
		})

		var open *ErrCircuitOpen
		if errors.As(err, &open) {
			logger.Warn(c.UserContext()).
				Str("upstream", upstream).
				Str("path", c.Path()).
				Msg("Circuit breaker is open - request blocked")

			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":       "Service temporarily unavailable",
				"upstream":    upstream,
				"retry_after": int(manager.timeout.Seconds()),
			})
		}
		return handlerErr
	}
}
