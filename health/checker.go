package health

import (
	"context"
	"time"
)

// Status classifies a component's health.
type Status int

const (
	// StatusHealthy means the component works normally.
	StatusHealthy Status = iota
	// StatusDegraded means the component works but with reduced quality.
	StatusDegraded
	// StatusUnhealthy means the component does not work.
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result is the outcome of one health check.
type Result struct {
	Status  Status
	Message string

	// Details holds check-specific metadata, such as probe latency or
	// cache counters.
	Details map[string]any

	// Duration is how long the check took.
	Duration time.Duration

	// Timestamp is when the check ran.
	Timestamp time.Time

	// Error is set when the check failed.
	Error error
}

// Healthy builds a healthy result.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message, Timestamp: time.Now()}
}

// Degraded builds a degraded result.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message, Timestamp: time.Now()}
}

// Unhealthy builds an unhealthy result carrying err.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Error: err, Timestamp: time.Now()}
}

// WithDetails returns a copy of r with details attached.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker probes one component.
type Checker interface {
	// Name identifies this checker in aggregate results.
	Name() string

	// Check probes the component. Implementations must honor ctx
	// cancellation.
	Check(ctx context.Context) Result
}

// CheckerFunc adapts an ordinary function into a Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc wraps fn as a named Checker.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string { return f.name }

func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }
