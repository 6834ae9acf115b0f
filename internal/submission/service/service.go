// Package service records task completions once the gateway confirms the action.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"xverify/internal/submission/models"
	"xverify/internal/submission/store"
	verification "xverify/internal/verification/models"
	dErrors "xverify/pkg/domain-errors"
	"xverify/pkg/platform/keylock"
	"xverify/pkg/requestcontext"
)

// Verifier decides whether the claimed action happened.
type Verifier interface {
	Verify(ctx context.Context, req verification.Request) *verification.Result
}

// RewardPublisher announces granted rewards.
type RewardPublisher interface {
	Publish(ctx context.Context, event models.RewardGranted) error
}

// Service runs the submit flow: dedupe, verify, record, publish.
type Service struct {
	verifier  Verifier
	store     store.Store
	publisher RewardPublisher
	locks     *keylock.Sharded
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(verifier Verifier, st store.Store, publisher RewardPublisher, opts ...Option) (*Service, error) {
	if verifier == nil || st == nil || publisher == nil {
		return nil, errors.New("submission service requires a verifier, store and publisher")
	}
	s := &Service{
		verifier:  verifier,
		store:     st,
		publisher: publisher,
		locks:     keylock.New(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SubmitResult carries the verification decision and, when verified, the
// recorded submission.
type SubmitResult struct {
	Verification *verification.Result
	Submission   *models.Submission
}

// Submit verifies the claimed action for the task and records it on success.
// A user is credited at most once per task; repeats are conflicts. Submits
// for the same (user, task) run one at a time within this process; across
// processes the store's unique constraint decides.
func (s *Service) Submit(ctx context.Context, userID, taskID string, req models.SubmitRequest) (*SubmitResult, error) {
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user is required")
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "task id is required")
	}

	key := userID + "/" + taskID
	s.locks.Lock(key)
	defer s.locks.Unlock(key)
	return s.submit(ctx, userID, taskID, req)
}

func (s *Service) submit(ctx context.Context, userID, taskID string, req models.SubmitRequest) (*SubmitResult, error) {
	requestID := requestcontext.RequestID(ctx)

	if _, err := s.store.FindByUserAndTask(ctx, userID, taskID); err == nil {
		return nil, store.ErrDuplicate
	} else if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load submission")
	}

	vreq := req.VerificationRequest()
	vreq.Normalize()
	result := s.verifier.Verify(ctx, vreq)
	if !result.Verified {
		s.logger.InfoContext(ctx, "submission not verified",
			"task_id", taskID,
			"user_id", userID,
			"outcome", result.Outcome,
			"request_id", requestID,
		)
		return &SubmitResult{Verification: result}, nil
	}

	sub := &models.Submission{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		UserID:     userID,
		Handle:     vreq.ActorHandle,
		ContentID:  result.ContentID,
		Action:     result.Action,
		Status:     models.StatusVerified,
		VerifiedAt: s.now().UTC(),
	}
	if err := s.store.Create(ctx, sub); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record submission")
	}

	event := models.RewardGranted{
		EventID:      uuid.NewString(),
		SubmissionID: sub.ID,
		TaskID:       sub.TaskID,
		UserID:       sub.UserID,
		ActionType:   string(sub.Action),
		TweetID:      sub.ContentID,
		GrantedAt:    sub.VerifiedAt,
	}
	// The submission is the source of truth; a lost event is logged, not surfaced.
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish reward event",
			"error", err,
			"submission_id", sub.ID,
			"request_id", requestID,
		)
	}

	s.logger.InfoContext(ctx, "submission recorded",
		"submission_id", sub.ID,
		"task_id", taskID,
		"user_id", userID,
		"action", sub.Action,
		"request_id", requestID,
	)
	return &SubmitResult{Verification: result, Submission: sub}, nil
}

// List returns the user's verified submissions, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]models.Submission, error) {
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user is required")
	}
	subs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list submissions")
	}
	return subs, nil
}
