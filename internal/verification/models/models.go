// Package models holds the verification request, outcome and result types.
package models

import (
	"slices"
	"strings"

	"xverify/internal/xapi"
	dErrors "xverify/pkg/domain-errors"
	"xverify/pkg/validation"
)

// ActionKind is the social action being claimed.
type ActionKind string

const (
	ActionLike    ActionKind = "like"
	ActionComment ActionKind = "comment"
	ActionFollow  ActionKind = "follow"
	ActionRetweet ActionKind = "retweet"
)

// AllActions is the closed set of supported kinds. Every kind listed here
// must have a registered checker.
var AllActions = []ActionKind{ActionLike, ActionComment, ActionFollow, ActionRetweet}

// ParseActionKind matches s case-insensitively against AllActions.
func ParseActionKind(s string) (ActionKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, kind := range AllActions {
		if string(kind) == s {
			return kind, true
		}
	}
	return "", false
}

func (k ActionKind) String() string {
	return string(k)
}

// Valid reports whether k is in AllActions.
func (k ActionKind) Valid() bool {
	return slices.Contains(AllActions, k)
}

// Request is a claim that ActorHandle performed Action on ContentID.
type Request struct {
	ContentID   string     `json:"tweetId" validate:"notblank"`
	ActorHandle string     `json:"userHandle" validate:"notblank,xhandle"`
	Action      ActionKind `json:"actionType" validate:"notblank"`
}

// Normalize trims input, strips a leading "@" from the handle, reduces a
// tweet link to its id and lower-cases the action.
func (r *Request) Normalize() {
	r.ActorHandle = strings.TrimPrefix(strings.TrimSpace(r.ActorHandle), "@")
	if id, err := ParseContentID(r.ContentID); err == nil {
		r.ContentID = id
	} else {
		r.ContentID = strings.TrimSpace(r.ContentID)
	}
	r.Action = ActionKind(strings.ToLower(strings.TrimSpace(string(r.Action))))
}

// Validate checks the request invariants. Callers should Normalize first.
func (r *Request) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	if _, err := ParseContentID(r.ContentID); err != nil {
		return err
	}
	if !r.Action.Valid() {
		return dErrors.New(dErrors.CodeValidation, "actionType must be one of [like comment follow retweet]")
	}
	return nil
}

// ActorIdentity is the claimed handle resolved to its platform id.
type ActorIdentity struct {
	Handle     string
	PlatformID string
}

// Outcome classifies how a verification attempt ended.
type Outcome string

const (
	OutcomeVerified            Outcome = "verified"
	OutcomeActorNotFound       Outcome = "actor_not_found"
	OutcomeActionNotDetected   Outcome = "action_not_detected"
	OutcomeCheckIncomplete     Outcome = "check_incomplete"
	OutcomeRateLimited         Outcome = "rate_limited"
	OutcomeInvalidRequest      Outcome = "invalid_request"
	OutcomeInfrastructureFault Outcome = "infrastructure_fault"
)

// Completed reports whether a decision was reached, even a negative or
// inconclusive one. Invalid requests and infrastructure faults are not completed.
func (o Outcome) Completed() bool {
	return o != OutcomeInvalidRequest && o != OutcomeInfrastructureFault
}

// Diagnostic keys.
const (
	DiagReason       = "reason"
	DiagDetail       = "detail"
	DiagPagesFetched = "pagesFetched"
	DiagTruncated    = "truncated"
	DiagCategory     = "category"
	DiagOp           = "op"
	DiagError        = "error"
)

// Result is the verification decision. Verified is true only for OutcomeVerified.
// Diagnostic is informational and never drives control flow.
type Result struct {
	Verified        bool
	ActorPlatformID string
	Action          ActionKind
	ContentID       string
	Outcome         Outcome
	Diagnostic      map[string]any
	RateLimit       *xapi.RateLimit
}

// Reason returns the diagnostic reason, if any.
func (r *Result) Reason() string {
	if r == nil || r.Diagnostic == nil {
		return ""
	}
	reason, _ := r.Diagnostic[DiagReason].(string)
	return reason
}
