// Package circuitbreaker wraps sony/gobreaker with project defaults.
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/flasharb-labs/flasharb/internal/apperror"
)

// Config holds circuit breaker tuning.
type Config struct {
	Name             string
	MaxRequests      uint32        // allowed through while half-open
	Interval         time.Duration // closed-state counters reset period
	Timeout          time.Duration // open -> half-open transition delay
	FailureThreshold uint32        // consecutive failures before tripping
}

// DefaultConfig returns the defaults used for RPC-facing breakers.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// CircuitBreaker is a typed wrapper over gobreaker.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New creates a circuit breaker from Config.
func New[T any](cfg Config) *CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}

	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn through the breaker. An open breaker is surfaced as a
// transient CIRCUIT_OPEN error so retry policies treat it correctly.
func (c *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	result, err := c.cb.Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		var zero T
		return zero, apperror.New(apperror.CodeCircuitOpen,
			apperror.WithCause(err),
			apperror.WithContext("breaker", c.cb.Name()))
	}
	return result, err
}

// State returns the current breaker state.
func (c *CircuitBreaker[T]) State() gobreaker.State {
	return c.cb.State()
}
