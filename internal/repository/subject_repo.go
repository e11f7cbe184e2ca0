package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Estud-AI/EstudAI/internal/models"
)

const subjectColumns = `id, user_id, name, progress, created_at, updated_at`

func scanSubject(row pgx.Row) (*models.Subject, error) {
	s := &models.Subject{}
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Progress, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func (q *Queries) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	s, err := scanSubject(q.db.QueryRow(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, id))
	return s, mapError(err)
}

// ListSubjectsByUser returns the user's subjects, newest first.
func (q *Queries) ListSubjectsByUser(ctx context.Context, userID int64) ([]*models.Subject, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+subjectColumns+` FROM subjects WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return collect(rows, scanSubject)
}

func (q *Queries) CreateSubject(ctx context.Context, s *models.Subject) error {
	query := `
		INSERT INTO subjects (user_id, name, progress)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return mapError(q.db.QueryRow(ctx, query, s.UserID, s.Name, s.Progress).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt))
}

// DeleteSubject removes only the subject row. Children must already be gone.
func (q *Queries) DeleteSubject(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows)
	}
	return nil
}
