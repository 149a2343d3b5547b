package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jonwraymond/reqshape/kv"
	"github.com/jonwraymond/reqshape/observe"
)

// Config configures the limiter.
type Config struct {
	// Name identifies this limiter in logs and metrics.
	// Default: "default"
	Name string

	// Window is the fixed window length. Windows align to multiples of
	// Window since the Unix epoch, so an hourly window starts at the
	// top of the hour.
	// Default: 1 hour
	Window time.Duration

	// MaxRequests is the number of requests allowed per identity per
	// window.
	// Default: 20
	MaxRequests int

	// Logger and Metrics default to no-ops.
	Logger  observe.Logger
	Metrics observe.Metrics
}

// Result is the outcome of one rate-limit check.
type Result struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Remaining is the number of requests left in the window. -1 means
	// unknown: the limiter failed open because the store was
	// unreachable.
	Remaining int

	// ResetAt is when the current window ends and the count resets.
	ResetAt time.Time

	// Message is a human-readable rejection notice; empty when
	// allowed.
	Message string
}

// counterRecord is the persisted per-identity counter.
type counterRecord struct {
	Count       int       `json:"count"`
	WindowStart time.Time `json:"window_start"`
}

// Limiter enforces a fixed-window request limit per identity. The
// counter lives in the backing store, shared by every process using
// the same store; an in-process lock alone could not make the
// check-and-increment safe, so both run inside one store transaction.
type Limiter struct {
	config  Config
	store   kv.Store
	logger  observe.Logger
	metrics observe.Metrics

	// now is swappable for window tests.
	now func() time.Time
}

// NewLimiter creates a limiter over store, applying defaults for any
// zero config field.
func NewLimiter(store kv.Store, config Config) *Limiter {
	if config.Name == "" {
		config.Name = "default"
	}
	if config.Window <= 0 {
		config.Window = time.Hour
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = 20
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	if config.Metrics == nil {
		config.Metrics = observe.NopMetrics()
	}

	return &Limiter{
		config:  config,
		store:   store,
		logger:  config.Logger.WithComponent("ratelimit"),
		metrics: config.Metrics,
		now:     time.Now,
	}
}

// Check counts a request for identity against the current window.
//
// The counter read, the decision, and the increment execute as one
// store transaction: two concurrent requests can never both observe
// count = max-1 and both pass. A missing identity or a store failure
// fails open with Remaining = -1; that degradation is logged, never
// surfaced as an error.
func (l *Limiter) Check(ctx context.Context, identity string) Result {
	if identity == "" {
		l.logger.Warn(ctx, "rate limit check without identity, failing open")
		l.metrics.RecordDecision(ctx, l.config.Name, "fail-open")
		return Result{Allowed: true, Remaining: -1}
	}

	now := l.now()
	windowStart := now.Truncate(l.config.Window)

	var res Result
	err := l.store.Update(ctx, l.counterKey(identity), func(current []byte, found bool) ([]byte, error) {
		var rec counterRecord
		if found {
			if err := json.Unmarshal(current, &rec); err != nil {
				// Corrupt counter: start a fresh window.
				found = false
			}
		}

		switch {
		case !found, windowStart.After(rec.WindowStart):
			// First request ever, or the stored window has rolled over.
			rec = counterRecord{Count: 1, WindowStart: windowStart}
			res = Result{
				Allowed:   true,
				Remaining: l.config.MaxRequests - 1,
				ResetAt:   windowStart.Add(l.config.Window),
			}

		case rec.Count < l.config.MaxRequests:
			rec.Count++
			res = Result{
				Allowed:   true,
				Remaining: l.config.MaxRequests - rec.Count,
				ResetAt:   rec.WindowStart.Add(l.config.Window),
			}

		default:
			resetAt := rec.WindowStart.Add(l.config.Window)
			res = Result{
				Allowed:   false,
				Remaining: 0,
				ResetAt:   resetAt,
				Message:   rejectionMessage(now, resetAt),
			}
			// At the limit nothing changes; keep the record as is.
			return current, nil
		}

		return json.Marshal(rec)
	})
	if err != nil {
		// Fail open: availability beats strict enforcement when the
		// store is down.
		l.logger.Warn(ctx, "rate limit store unreachable, failing open",
			observe.Field{Key: "error", Value: err.Error()},
		)
		l.metrics.RecordDecision(ctx, l.config.Name, "fail-open")
		return Result{Allowed: true, Remaining: -1}
	}

	if res.Allowed {
		l.metrics.RecordDecision(ctx, l.config.Name, "allowed")
	} else {
		l.metrics.RecordDecision(ctx, l.config.Name, "rejected")
		l.logger.Debug(ctx, "rate limit rejected request",
			observe.Field{Key: "remaining_window", Value: res.ResetAt.Sub(now).String()},
		)
	}
	return res
}

// Execute runs op if identity is under the limit, returning
// ErrRateLimited otherwise.
func (l *Limiter) Execute(ctx context.Context, identity string, op func(context.Context) error) error {
	res := l.Check(ctx, identity)
	if !res.Allowed {
		return fmt.Errorf("%w: %s", ErrRateLimited, res.Message)
	}
	return op(ctx)
}

// Reset clears the counter for identity. Intended for tests and
// operator tooling.
func (l *Limiter) Reset(ctx context.Context, identity string) error {
	return l.store.Delete(ctx, l.counterKey(identity))
}

func (l *Limiter) counterKey(identity string) string {
	return "ratelimit:" + l.config.Name + ":" + identity
}

func rejectionMessage(now, resetAt time.Time) string {
	minutes := int(math.Ceil(resetAt.Sub(now).Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("Rate limit exceeded. Try again in %d %s.", minutes, unit)
}
