// Package store persists verified task submissions.
package store

import (
	"context"

	"xverify/internal/submission/models"
	dErrors "xverify/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "submission not found")
	// ErrDuplicate is returned when the user already has a submission for the task.
	ErrDuplicate = dErrors.New(dErrors.CodeConflict, "task already completed")
)

// Store is the submission ledger. Create enforces one submission per (user, task).
type Store interface {
	Create(ctx context.Context, sub *models.Submission) error
	FindByUserAndTask(ctx context.Context, userID, taskID string) (*models.Submission, error)
	ListByUser(ctx context.Context, userID string) ([]models.Submission, error)
}
