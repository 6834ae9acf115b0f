package xapi

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"xverify/internal/xapi/metrics"
	"xverify/pkg/platform/circuit"
	"xverify/pkg/platform/tracer"
	"xverify/pkg/requestcontext"
)

// BackoffConfig configures retries for transient failures.
type BackoffConfig struct {
	InitialDelay time.Duration // delay before the first retry (default: 200ms)
	MaxDelay     time.Duration // cap on any single delay (default: 2s)
	MaxRetries   int           // retries after the first attempt (default: 1)
	Multiplier   float64       // exponential factor (default: 2.0)
}

// DefaultBackoff is one retry after 200ms.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		MaxRetries:   1,
		Multiplier:   2.0,
	}
}

// Resilient decorates a Client with a per-call timeout, retry with backoff,
// an outbound rate limiter and a circuit breaker.
type Resilient struct {
	inner       Client
	callTimeout time.Duration
	backoff     BackoffConfig
	limiter     *rate.Limiter
	breaker     *circuit.Breaker
	metrics     *metrics.Metrics
	tracer      tracer.Tracer
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// ResilientOption configures a Resilient client.
type ResilientOption func(*Resilient)

func WithCallTimeout(d time.Duration) ResilientOption {
	return func(r *Resilient) {
		if d > 0 {
			r.callTimeout = d
		}
	}
}

func WithBackoff(cfg BackoffConfig) ResilientOption {
	return func(r *Resilient) {
		r.backoff = cfg
	}
}

// WithLimiter throttles outbound calls. A nil limiter disables throttling.
func WithLimiter(l *rate.Limiter) ResilientOption {
	return func(r *Resilient) {
		r.limiter = l
	}
}

func WithBreaker(b *circuit.Breaker) ResilientOption {
	return func(r *Resilient) {
		r.breaker = b
	}
}

func WithMetrics(m *metrics.Metrics) ResilientOption {
	return func(r *Resilient) {
		r.metrics = m
	}
}

func WithTracer(t tracer.Tracer) ResilientOption {
	return func(r *Resilient) {
		if t != nil {
			r.tracer = t
		}
	}
}

func WithLogger(l *slog.Logger) ResilientOption {
	return func(r *Resilient) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResilient wraps inner.
func NewResilient(inner Client, opts ...ResilientOption) *Resilient {
	r := &Resilient{
		inner:       inner,
		callTimeout: 5 * time.Second,
		backoff:     DefaultBackoff(),
		tracer:      tracer.NewNoop(),
		logger:      slog.Default(),
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.backoff.Multiplier < 1 {
		r.backoff.Multiplier = 1
	}
	return r
}

func (r *Resilient) LookupUserByHandle(ctx context.Context, handle string) (User, error) {
	return call(ctx, r, OpLookupUser, func(ctx context.Context) (User, error) {
		return r.inner.LookupUserByHandle(ctx, handle)
	})
}

func (r *Resilient) GetLikers(ctx context.Context, tweetID, token string) (Page[User], error) {
	return call(ctx, r, OpGetLikers, func(ctx context.Context) (Page[User], error) {
		return r.inner.GetLikers(ctx, tweetID, token)
	})
}

func (r *Resilient) GetRetweeters(ctx context.Context, tweetID, token string) (Page[User], error) {
	return call(ctx, r, OpGetRetweeters, func(ctx context.Context) (Page[User], error) {
		return r.inner.GetRetweeters(ctx, tweetID, token)
	})
}

func (r *Resilient) SearchReplies(ctx context.Context, query, token string) (Page[Tweet], error) {
	return call(ctx, r, OpSearchReplies, func(ctx context.Context) (Page[Tweet], error) {
		return r.inner.SearchReplies(ctx, query, token)
	})
}

func (r *Resilient) GetTweet(ctx context.Context, tweetID string) (Tweet, error) {
	return call(ctx, r, OpGetTweet, func(ctx context.Context) (Tweet, error) {
		return r.inner.GetTweet(ctx, tweetID)
	})
}

func (r *Resilient) GetFollowers(ctx context.Context, userID, token string) (Page[User], error) {
	return call(ctx, r, OpGetFollowers, func(ctx context.Context) (Page[User], error) {
		return r.inner.GetFollowers(ctx, userID, token)
	})
}

// call runs fn with the resilience policy. Only timeouts and outages are
// retried; every other failure is returned after the first attempt.
func call[T any](ctx context.Context, r *Resilient, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	ctx, span := r.tracer.Start(ctx, tracer.SpanXAPI, tracer.String(tracer.AttrXAPIOp, op))

	var lastErr error
	delay := r.backoff.InitialDelay

	for attempt := 0; attempt <= r.backoff.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := r.sleep(ctx, delay); err != nil {
				lastErr = NewError(ErrorTimeout, op, "cancelled during backoff", err)
				break
			}
			span.AddEvent(tracer.EventRetry, tracer.Int(tracer.AttrXAPIAttempt, attempt))
			if r.metrics != nil {
				r.metrics.IncRetry(op)
			}
			delay = time.Duration(float64(delay) * r.backoff.Multiplier)
			if r.backoff.MaxDelay > 0 && delay > r.backoff.MaxDelay {
				delay = r.backoff.MaxDelay
			}
		}

		if r.breaker != nil && !r.breaker.Allow() {
			if r.metrics != nil {
				r.metrics.IncCircuitRejection()
			}
			span.AddEvent(tracer.EventCircuitOpen)
			circuitErr := NewError(ErrorProviderOutage, op, "circuit open", nil)
			circuitErr.Retryable = false
			lastErr = circuitErr
			break
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				r.abandon()
				lastErr = NewError(ErrorTimeout, op, "outbound rate limiter wait aborted", err)
				break
			}
		}

		result, err := callOnce(ctx, r, op, fn)
		if err == nil {
			span.End(nil)
			return result, nil
		}
		lastErr = err
		if !IsRetryable(err) || ctx.Err() != nil {
			break
		}
		r.logger.WarnContext(ctx, "x api call failed, retrying",
			"op", op,
			"attempt", attempt+1,
			"category", CategoryOf(err),
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	span.SetAttributes(tracer.String(tracer.AttrXAPICategory, string(CategoryOf(lastErr))))
	span.End(lastErr)
	return zero, lastErr
}

// callOnce performs one bounded call and feeds the outcome to the breaker and metrics.
func callOnce[T any](ctx context.Context, r *Resilient, op string, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	start := time.Now()
	result, err := fn(callCtx)
	elapsed := time.Since(start).Seconds()

	if err != nil && CategoryOf(err) == ErrorInternal && callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		err = NewError(ErrorTimeout, op, "call timeout", err)
	}

	if r.metrics != nil {
		label := "ok"
		if err != nil {
			label = string(CategoryOf(err))
		}
		r.metrics.ObserveCall(op, label, elapsed)
		if rl := RateLimitOf(err); rl != nil {
			r.metrics.SetRateLimitRemaining(op, rl.Remaining)
		}
	}

	r.recordBreaker(ctx, op, err)
	return result, err
}

func (r *Resilient) recordBreaker(ctx context.Context, op string, err error) {
	if r.breaker == nil {
		return
	}
	if err == nil {
		r.breakerSuccess(ctx)
		return
	}
	switch CategoryOf(err) {
	case ErrorTimeout, ErrorProviderOutage:
		if change := r.breaker.RecordFailure(); change.Opened {
			if r.metrics != nil {
				r.metrics.SetCircuitOpen(true)
			}
			r.logger.WarnContext(ctx, "x api circuit opened",
				"op", op,
				"circuit", r.breaker.Name(),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	case ErrorInternal:
		r.breaker.Abandon()
	default:
		// not_found, 429 and other answers prove the API is reachable
		r.breakerSuccess(ctx)
	}
}

func (r *Resilient) breakerSuccess(ctx context.Context) {
	if change := r.breaker.RecordSuccess(); change.Closed {
		if r.metrics != nil {
			r.metrics.SetCircuitOpen(false)
		}
		r.logger.InfoContext(ctx, "x api circuit closed",
			"circuit", r.breaker.Name(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (r *Resilient) abandon() {
	if r.breaker != nil {
		r.breaker.Abandon()
	}
}

// BreakerState reports the circuit state for health checks.
func (r *Resilient) BreakerState() circuit.State {
	if r.breaker == nil {
		return circuit.StateClosed
	}
	return r.breaker.State()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ Client = (*Resilient)(nil)
