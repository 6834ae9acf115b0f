package service

import (
	"context"
	"errors"
	"fmt"

	"xverify/internal/verification/models"
	"xverify/internal/xapi"
)

type stage int

const (
	stageLookup stage = iota
	stageCheck
)

const (
	reasonInvalidRequest    = "invalid_request"
	reasonInvalidActionKind = "invalid_action_kind"
	reasonActorNotFound     = "actor_not_found"
	reasonContentNotFound   = "content_not_found"
	reasonNoMatch           = "no_match"
	reasonPageLimit         = "page_limit_reached"
	reasonPaginationLoop    = "pagination_loop"
	reasonRateLimited       = "rate_limited"
	reasonCancelled         = "cancelled"
	reasonPanic             = "checker_panic"
)

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("checker panic: %v", e.value)
}

// classification is the outcome of mapping one error.
type classification struct {
	outcome   models.Outcome
	reason    string
	category  xapi.Category
	op        string
	err       error
	rateLimit *xapi.RateLimit
}

// classify is the single error-mapping rule for every lookup and checker error.
func classify(st stage, err error) classification {
	c := classification{err: err}

	var pe *panicError
	if errors.As(err, &pe) {
		c.outcome = models.OutcomeInfrastructureFault
		c.reason = reasonPanic
		return c
	}

	var xe *xapi.Error
	if !errors.As(err, &xe) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.outcome = models.OutcomeCheckIncomplete
			if st == stageLookup {
				c.outcome = models.OutcomeInfrastructureFault
			}
			c.reason = reasonCancelled
			return c
		}
		xe = xapi.NewError(xapi.ErrorInternal, "", "unclassified error", err)
	}
	c.category = xe.Category
	c.op = xe.Op
	c.rateLimit = xe.RateLimit

	switch xe.Category {
	case xapi.ErrorNotFound:
		if st == stageLookup {
			c.outcome = models.OutcomeActorNotFound
			c.reason = reasonActorNotFound
		} else {
			c.outcome = models.OutcomeCheckIncomplete
			c.reason = reasonContentNotFound
		}
	case xapi.ErrorRateLimited:
		c.outcome = models.OutcomeRateLimited
		c.reason = reasonRateLimited
	default:
		// without a resolved actor there is no check to call incomplete
		if st == stageLookup {
			c.outcome = models.OutcomeInfrastructureFault
		} else {
			c.outcome = models.OutcomeCheckIncomplete
		}
		c.reason = string(xe.Category)
	}
	return c
}

func apply(result *models.Result, c classification) {
	result.Verified = false
	result.Outcome = c.outcome
	result.RateLimit = c.rateLimit
	result.Diagnostic[models.DiagReason] = c.reason
	if c.category != "" {
		result.Diagnostic[models.DiagCategory] = string(c.category)
	}
	if c.op != "" {
		result.Diagnostic[models.DiagOp] = c.op
	}
	if c.err != nil {
		result.Diagnostic[models.DiagError] = c.err.Error()
	}
}
