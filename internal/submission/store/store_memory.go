package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"xverify/internal/submission/models"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]models.Submission
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byUser: make(map[string][]models.Submission)}
}

func (s *InMemoryStore) Create(_ context.Context, sub *models.Submission) error {
	if sub == nil {
		return fmt.Errorf("submission is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byUser[sub.UserID] {
		if existing.TaskID == sub.TaskID {
			return ErrDuplicate
		}
	}
	s.byUser[sub.UserID] = append(s.byUser[sub.UserID], *sub)
	return nil
}

func (s *InMemoryStore) FindByUserAndTask(_ context.Context, userID, taskID string) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, existing := range s.byUser[userID] {
		if existing.TaskID == taskID {
			found := existing
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// ListByUser returns the user's submissions, newest first.
func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]models.Submission, error) {
	s.mu.RLock()
	out := slices.Clone(s.byUser[userID])
	s.mu.RUnlock()
	slices.SortStableFunc(out, func(a, b models.Submission) int {
		return b.VerifiedAt.Compare(a.VerifiedAt)
	})
	if out == nil {
		out = []models.Submission{}
	}
	return out, nil
}

var _ Store = (*InMemoryStore)(nil)
