package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"xverify/internal/verification/models"
	"xverify/internal/xapi"
	"xverify/pkg/platform/httputil"
	"xverify/pkg/requestcontext"
)

// Verifier is the gateway operation the handler exposes.
type Verifier interface {
	Verify(ctx context.Context, req models.Request) *models.Result
}

// Handler serves the verification endpoint.
type Handler struct {
	verifier Verifier
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures the Handler.
type Option func(*Handler)

// WithClock sets the clock used to compute retryAfter.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

func New(verifier Verifier, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		verifier: verifier,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the handler routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/verify-twitter-action", h.HandleVerify)
}

// VerifyRequest is the request body for a verification.
type VerifyRequest struct {
	TweetID    string `json:"tweetId"`
	UserHandle string `json:"userHandle"`
	ActionType string `json:"actionType"`
}

// ToModel converts the wire request.
func (r VerifyRequest) ToModel() models.Request {
	return models.Request{
		ContentID:   r.TweetID,
		ActorHandle: r.UserHandle,
		Action:      models.ActionKind(r.ActionType),
	}
}

// VerifyResponse is the 200 body for every completed verification.
type VerifyResponse struct {
	Verified bool  `json:"verified"`
	Debug    Debug `json:"debug"`
}

// Debug carries the decision context. userId, actionType and tweetId are
// always present.
type Debug struct {
	UserID       string `json:"userId"`
	ActionType   string `json:"actionType"`
	TweetID      string `json:"tweetId"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason,omitempty"`
	PagesFetched *int   `json:"pagesFetched,omitempty"`
	Truncated    bool   `json:"truncated,omitempty"`
	RetryAfter   *int64 `json:"retryAfter,omitempty"`
}

// ErrorEnvelope is the body of non-200 verification responses.
type ErrorEnvelope struct {
	Error     string          `json:"error"`
	Details   string          `json:"details"`
	Data      any             `json:"data"`
	RateLimit *xapi.RateLimit `json:"rateLimit"`
}

// HandleVerify handles POST /api/verify-twitter-action.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var body VerifyRequest
	if err := httputil.Decode(r.Body, &body); err != nil {
		h.logger.WarnContext(ctx, "failed to decode verification request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: "invalid_request", Details: decodeDetails(err)})
		return
	}

	result := h.verifier.Verify(ctx, body.ToModel())
	status, payload := Render(result, h.now())
	httputil.WriteJSON(w, status, payload)
}

func decodeDetails(err error) string {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return "request body too large"
	case errors.Is(err, io.EOF):
		return "request body is required"
	case errors.Is(err, httputil.ErrTrailingData):
		return "request body must be a single JSON object"
	default:
		return "request body must be a JSON object"
	}
}

// Render maps a result to its HTTP status and body. Completed verifications
// are 200, invalid requests 400 and infrastructure faults 500 with a generic
// message; the full error is logged by the gateway.
func Render(result *models.Result, now time.Time) (int, any) {
	switch result.Outcome {
	case models.OutcomeInvalidRequest:
		details, _ := result.Diagnostic[models.DiagDetail].(string)
		if details == "" {
			details = "invalid verification request"
		}
		return http.StatusBadRequest, ErrorEnvelope{Error: "invalid_request", Details: details}
	case models.OutcomeInfrastructureFault:
		return http.StatusInternalServerError, ErrorEnvelope{
			Error:     "Failed to verify Twitter action",
			Details:   "internal error",
			RateLimit: result.RateLimit,
		}
	}
	return http.StatusOK, NewVerifyResponse(result, now)
}

// NewVerifyResponse builds the 200 body for a completed verification.
func NewVerifyResponse(result *models.Result, now time.Time) VerifyResponse {
	debug := Debug{
		UserID:     result.ActorPlatformID,
		ActionType: string(result.Action),
		TweetID:    result.ContentID,
		Outcome:    string(result.Outcome),
		Reason:     result.Reason(),
	}
	if pages, ok := result.Diagnostic[models.DiagPagesFetched].(int); ok {
		debug.PagesFetched = &pages
	}
	if truncated, ok := result.Diagnostic[models.DiagTruncated].(bool); ok {
		debug.Truncated = truncated
	}
	if result.Outcome == models.OutcomeRateLimited {
		seconds := int64(result.RateLimit.RetryAfter(now) / time.Second)
		debug.RetryAfter = &seconds
	}
	return VerifyResponse{Verified: result.Verified, Debug: debug}
}
