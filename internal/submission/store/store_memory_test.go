package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"xverify/internal/submission/models"
	dErrors "xverify/pkg/domain-errors"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	base  time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) submission(user, task string, offset time.Duration) *models.Submission {
	return &models.Submission{
		ID:         fmt.Sprintf("%s-%s", user, task),
		TaskID:     task,
		UserID:     user,
		Handle:     "alice",
		ContentID:  "123",
		Action:     "like",
		Status:     models.StatusVerified,
		VerifiedAt: s.base.Add(offset),
	}
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	require.NoError(s.T(), s.store.Create(s.ctx, s.submission("u1", "t1", 0)))

	got, err := s.store.FindByUserAndTask(s.ctx, "u1", "t1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "u1-t1", got.ID)
}

func (s *InMemoryStoreSuite) TestDuplicateIsConflict() {
	require.NoError(s.T(), s.store.Create(s.ctx, s.submission("u1", "t1", 0)))

	err := s.store.Create(s.ctx, s.submission("u1", "t1", time.Minute))
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeConflict))

	// same task, different user is fine
	assert.NoError(s.T(), s.store.Create(s.ctx, s.submission("u2", "t1", 0)))
}

func (s *InMemoryStoreSuite) TestFindMissing() {
	_, err := s.store.FindByUserAndTask(s.ctx, "u1", "nope")
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *InMemoryStoreSuite) TestListNewestFirst() {
	require.NoError(s.T(), s.store.Create(s.ctx, s.submission("u1", "t1", 0)))
	require.NoError(s.T(), s.store.Create(s.ctx, s.submission("u1", "t2", 2*time.Minute)))
	require.NoError(s.T(), s.store.Create(s.ctx, s.submission("u1", "t3", time.Minute)))

	list, err := s.store.ListByUser(s.ctx, "u1")
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 3)
	assert.Equal(s.T(), []string{"t2", "t3", "t1"}, []string{list[0].TaskID, list[1].TaskID, list[2].TaskID})

	empty, err := s.store.ListByUser(s.ctx, "nobody")
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), empty)
	assert.Empty(s.T(), empty)
}
