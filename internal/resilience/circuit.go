// Package resilience guards calls to external services with a circuit
// breaker. Calls are never retried; a failure surfaces to the caller
// immediately, and repeated transient failures open the circuit so later
// calls fail fast.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when a call is rejected because the circuit is open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// BreakerConfig controls circuit breaker behavior.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive transient failures
	// before opening the circuit. Default: 5.
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before a probe is
	// let through. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMaxProbes is the number of probes allowed while half-open.
	// Default: 1.
	HalfOpenMaxProbes int
}

// DefaultBreakerConfig returns the defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold:  5,
		ResetTimeout:      30 * time.Second,
		HalfOpenMaxProbes: 1,
	}
}

// Breaker is a named circuit breaker for one external service.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker creates a breaker for the named service. Only errors that
// IsTransient reports count as failures; a 401 or a validation error
// leaves the circuit alone.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	if cfg.HalfOpenMaxProbes <= 0 {
		cfg.HalfOpenMaxProbes = def.HalfOpenMaxProbes
	}
	threshold := uint32(cfg.FailureThreshold)

	return &Breaker{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(cfg.HalfOpenMaxProbes),
		Timeout:     cfg.ResetTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.L().Warn("resilience: circuit state change",
				zap.String("service", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})}
}

// Name returns the service name.
func (b *Breaker) Name() string { return b.cb.Name() }

// State returns "closed", "half-open" or "open".
func (b *Breaker) State() string { return b.cb.State().String() }

// Execute runs fn through the breaker.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Do runs fn through the breaker and returns its value. A rejected call
// returns an error matching ErrCircuitOpen.
func Do[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	v, err := b.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, eris.Wrapf(ErrCircuitOpen, "resilience: %s", b.cb.Name())
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
