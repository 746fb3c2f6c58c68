// Package payment simulates a payment gateway: a fixed processing delay
// followed by a random outcome. There is no real money movement.
package payment

import (
	"campus_events/internal/domain" // Payment states
	"context"                       // Cancellation of the processing delay
	"errors"                        // Sentinel errors
	"math/rand"                     // Success draw
	"time"                          // Processing delay
)

// ErrInvalidAmount is returned for non-positive charges
var ErrInvalidAmount = errors.New("payment amount must be positive")

// Result is the outcome of a processed charge
type Result struct {
	Status  string // domain.PaymentCompleted or domain.PaymentFailed
	Message string // Human readable reason
}

// Processor charges a payment identified by its reference
type Processor interface {
	Process(ctx context.Context, reference string, amount float64) (Result, error)
}

// Simulator is a Processor that waits Delay and succeeds with probability SuccessRate
type Simulator struct {
	Delay       time.Duration
	SuccessRate float64
	rand        func() float64
}

// NewSimulator returns a Simulator backed by math/rand
func NewSimulator(delay time.Duration, successRate float64) *Simulator {
	return &Simulator{Delay: delay, SuccessRate: successRate, rand: rand.Float64}
}

// WithRand replaces the random source, used to make outcomes deterministic
func (s *Simulator) WithRand(fn func() float64) *Simulator {
	s.rand = fn
	return s
}

// Process waits for the configured delay and then decides the outcome.
// A cancelled context aborts the wait and returns the context error.
func (s *Simulator) Process(ctx context.Context, reference string, amount float64) (Result, error) {
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}
	if s.rand() < s.SuccessRate {
		return Result{Status: domain.PaymentCompleted, Message: "Payment approved"}, nil
	}
	return Result{Status: domain.PaymentFailed, Message: "Payment declined by issuer"}, nil
}
