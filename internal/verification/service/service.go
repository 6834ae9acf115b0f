// Package service implements the verification gateway: it resolves the
// claimed handle, dispatches to the checker for the action kind and maps every
// failure to an outcome. Verify never returns an error.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"xverify/internal/verification/checker"
	"xverify/internal/verification/metrics"
	"xverify/internal/verification/models"
	"xverify/internal/verification/pagination"
	"xverify/internal/xapi"
	"xverify/pkg/platform/tracer"
	"xverify/pkg/requestcontext"
)

// Gateway verifies claimed actions against the X API.
type Gateway struct {
	client   xapi.Client
	checkers checker.Registry
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
	logger   *slog.Logger
}

// Option configures the Gateway.
type Option func(*Gateway)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(g *Gateway) {
		if t != nil {
			g.tracer = t
		}
	}
}

// WithCheckers replaces the standard dispatch table.
func WithCheckers(r checker.Registry) Option {
	return func(g *Gateway) {
		g.checkers = r
	}
}

// New builds a Gateway over client. It fails if the dispatch table does not
// cover every action kind.
func New(client xapi.Client, walker pagination.Walker, opts ...Option) (*Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("x api client is required")
	}
	g := &Gateway{
		client:   client,
		checkers: checker.NewRegistry(client, walker),
		tracer:   tracer.NewNoop(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := g.checkers.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Verify decides whether req.ActorHandle performed req.Action on req.ContentID.
// A panic anywhere below Verify becomes an infrastructure fault.
func (g *Gateway) Verify(ctx context.Context, req models.Request) *models.Result {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, tracer.SpanVerify)

	result := g.safeVerify(ctx, &req)

	span.SetAttributes(
		tracer.String(tracer.AttrAction, string(req.Action)),
		tracer.String(tracer.AttrContentID, req.ContentID),
		tracer.Handle(req.ActorHandle),
		tracer.String(tracer.AttrOutcome, string(result.Outcome)),
	)
	span.End(nil)
	g.observe(ctx, req, result, time.Since(start))
	return result
}

// safeVerify normalizes req in place and runs verify under a recover.
func (g *Gateway) safeVerify(ctx context.Context, req *models.Request) (result *models.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			g.recordPanic(ctx, req.Action, rec)
			result = &models.Result{
				Action:     req.Action,
				ContentID:  req.ContentID,
				Diagnostic: map[string]any{},
			}
			apply(result, classify(stageLookup, &panicError{value: rec}))
		}
	}()
	req.Normalize()
	return g.verify(ctx, *req)
}

func (g *Gateway) recordPanic(ctx context.Context, kind models.ActionKind, rec any) {
	if g.metrics != nil {
		g.metrics.IncPanic()
	}
	g.logger.ErrorContext(ctx, "verification panicked",
		"action", kind,
		"panic", rec,
		"stack", string(debug.Stack()),
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (g *Gateway) verify(ctx context.Context, req models.Request) *models.Result {
	result := &models.Result{
		Action:     req.Action,
		ContentID:  req.ContentID,
		Diagnostic: map[string]any{},
	}

	if err := req.Validate(); err != nil {
		result.Outcome = models.OutcomeInvalidRequest
		result.Diagnostic[models.DiagReason] = reasonInvalidRequest
		result.Diagnostic[models.DiagDetail] = err.Error()
		return result
	}

	actor, err := g.client.LookupUserByHandle(ctx, req.ActorHandle)
	if err != nil {
		apply(result, classify(stageLookup, err))
		return result
	}
	result.ActorPlatformID = actor.ID

	check, ok := g.checkers[req.Action]
	if !ok {
		// unreachable while New validates the table
		result.Outcome = models.OutcomeInvalidRequest
		result.Diagnostic[models.DiagReason] = reasonInvalidActionKind
		return result
	}

	target := checker.Target{ContentID: req.ContentID, ActorID: actor.ID, ActorHandle: req.ActorHandle}
	finding, err := g.runCheck(ctx, req.Action, check, target)
	result.Diagnostic[models.DiagPagesFetched] = finding.Stats.PagesFetched
	if finding.Stats.Truncated {
		result.Diagnostic[models.DiagTruncated] = true
	}
	if g.metrics != nil {
		g.metrics.ObservePages(string(req.Action), finding.Stats.PagesFetched)
	}

	switch {
	case err != nil:
		apply(result, classify(stageCheck, err))
	case finding.Found:
		result.Verified = true
		result.Outcome = models.OutcomeVerified
	case finding.Stats.Truncated:
		result.Outcome = models.OutcomeCheckIncomplete
		result.Diagnostic[models.DiagReason] = reasonPageLimit
	case finding.Stats.Looped:
		result.Outcome = models.OutcomeCheckIncomplete
		result.Diagnostic[models.DiagReason] = reasonPaginationLoop
	default:
		result.Outcome = models.OutcomeActionNotDetected
		result.Diagnostic[models.DiagReason] = reasonNoMatch
	}
	return result
}

// runCheck invokes the checker, converting a panic into a panicError.
func (g *Gateway) runCheck(ctx context.Context, kind models.ActionKind, c checker.Checker, t checker.Target) (finding checker.Finding, err error) {
	ctx, span := g.tracer.Start(ctx, tracer.SpanCheck, tracer.String(tracer.AttrAction, string(kind)))
	defer func() {
		if rec := recover(); rec != nil {
			g.recordPanic(ctx, kind, rec)
			finding, err = checker.Finding{}, &panicError{value: rec}
		}
		span.SetAttributes(
			tracer.Int(tracer.AttrPagesFetched, finding.Stats.PagesFetched),
			tracer.Bool(tracer.AttrTruncated, finding.Stats.Truncated),
		)
		span.End(err)
	}()
	return c.Check(ctx, t)
}

func (g *Gateway) observe(ctx context.Context, req models.Request, result *models.Result, elapsed time.Duration) {
	action := string(req.Action)
	if !req.Action.Valid() {
		action = "invalid"
	}
	if g.metrics != nil {
		g.metrics.ObserveVerification(action, string(result.Outcome), elapsed.Seconds())
	}

	attrs := []any{
		"action", action,
		"tweet_id", req.ContentID,
		"handle", req.ActorHandle,
		"outcome", result.Outcome,
		"verified", result.Verified,
		"duration_ms", elapsed.Milliseconds(),
		"request_id", requestcontext.RequestID(ctx),
	}
	if reason := result.Reason(); reason != "" {
		attrs = append(attrs, "reason", reason)
	}

	switch result.Outcome {
	case models.OutcomeInfrastructureFault:
		attrs = append(attrs, "error", result.Diagnostic[models.DiagError])
		g.logger.ErrorContext(ctx, "verification failed", attrs...)
	case models.OutcomeRateLimited:
		if result.RateLimit != nil {
			attrs = append(attrs, "rate_limit_reset", result.RateLimit.Reset, "rate_limit_remaining", result.RateLimit.Remaining)
		}
		g.logger.WarnContext(ctx, "verification rate limited", attrs...)
	case models.OutcomeCheckIncomplete:
		g.logger.WarnContext(ctx, "verification incomplete", attrs...)
	default:
		g.logger.InfoContext(ctx, "verification completed", attrs...)
	}
}
