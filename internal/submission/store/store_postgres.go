package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"xverify/internal/submission/models"
	verification "xverify/internal/verification/models"
)

// PostgresStore persists submissions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed submission store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertSubmission = `
INSERT INTO submissions (id, task_id, user_id, handle, content_id, action, status, verified_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const selectColumns = `SELECT id, task_id, user_id, handle, content_id, action, status, verified_at FROM submissions`

func (s *PostgresStore) Create(ctx context.Context, sub *models.Submission) error {
	if sub == nil {
		return fmt.Errorf("submission is required")
	}
	id, err := uuid.Parse(sub.ID)
	if err != nil {
		return fmt.Errorf("parse submission id: %w", err)
	}
	_, err = s.db.ExecContext(ctx, insertSubmission,
		id, sub.TaskID, sub.UserID, sub.Handle, sub.ContentID,
		string(sub.Action), string(sub.Status), sub.VerifiedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUserAndTask(ctx context.Context, userID, taskID string) (*models.Submission, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE user_id = $1 AND task_id = $2`, userID, taskID)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]models.Submission, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE user_id = $1 ORDER BY verified_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	out := []models.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*models.Submission, error) {
	var (
		id     uuid.UUID
		sub    models.Submission
		action string
		status string
	)
	if err := row.Scan(&id, &sub.TaskID, &sub.UserID, &sub.Handle, &sub.ContentID, &action, &status, &sub.VerifiedAt); err != nil {
		return nil, err
	}
	sub.ID = id.String()
	sub.Action = verification.ActionKind(action)
	sub.Status = models.Status(status)
	return &sub, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Store = (*PostgresStore)(nil)
