// Package handler exposes task submissions over HTTP. Routes expect the
// caller's user id in the request context, set by the auth middleware.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"xverify/internal/submission/models"
	"xverify/internal/submission/service"
	verifyhandler "xverify/internal/verification/handler"
	"xverify/pkg/platform/httputil"
	"xverify/pkg/requestcontext"
)

// Service is the submission operations the handler needs.
type Service interface {
	Submit(ctx context.Context, userID, taskID string, req models.SubmitRequest) (*service.SubmitResult, error)
	List(ctx context.Context, userID string) ([]models.Submission, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
	now     func() time.Time
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger, now: time.Now}
}

// Register mounts the submission routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/tasks/{taskID}/submissions", h.HandleSubmit)
	r.Get("/api/me/submissions", h.HandleList)
}

// SubmitResponse is the verification response plus the recorded submission.
type SubmitResponse struct {
	verifyhandler.VerifyResponse
	Submission *models.Submission `json:"submission,omitempty"`
}

// ListResponse wraps the caller's submissions.
type ListResponse struct {
	Submissions []models.Submission `json:"submissions"`
}

// HandleSubmit handles POST /api/tasks/{taskID}/submissions.
// 201 when recorded, 200 with the decision when not verified, 409 on repeats.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)
	taskID := chi.URLParam(r, "taskID")

	req, ok := httputil.DecodeAndPrepare[models.SubmitRequest](w, r, h.logger)
	if !ok {
		return
	}

	res, err := h.service.Submit(ctx, userID, taskID, *req)
	if err != nil {
		h.logger.WarnContext(ctx, "submission rejected",
			"error", err,
			"task_id", taskID,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	status, payload := verifyhandler.Render(res.Verification, h.now())
	verifyResp, completed := payload.(verifyhandler.VerifyResponse)
	if !completed {
		httputil.WriteJSON(w, status, payload)
		return
	}
	if res.Submission != nil {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, SubmitResponse{VerifyResponse: verifyResp, Submission: res.Submission})
}

// HandleList handles GET /api/me/submissions.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subs, err := h.service.List(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list submissions",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Submissions: subs})
}
