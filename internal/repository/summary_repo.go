package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Estud-AI/EstudAI/internal/models"
)

func scanSummary(row pgx.Row) (*models.Summary, error) {
	s := &models.Summary{}
	if err := row.Scan(&s.ID, &s.SubjectID, &s.Name, &s.Text, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func (q *Queries) CreateSummary(ctx context.Context, s *models.Summary) error {
	query := `
		INSERT INTO summaries (subject_id, name, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return mapError(q.db.QueryRow(ctx, query, s.SubjectID, s.Name, s.Text).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt))
}

func (q *Queries) ListSummariesBySubject(ctx context.Context, subjectID int64) ([]*models.Summary, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, subject_id, name, text, created_at, updated_at FROM summaries WHERE subject_id = $1 ORDER BY id`, subjectID)
	if err != nil {
		return nil, mapError(err)
	}
	return collect(rows, scanSummary)
}

func (q *Queries) DeleteSummariesBySubject(ctx context.Context, subjectID int64) (int64, error) {
	return deleted(q.db.Exec(ctx, `DELETE FROM summaries WHERE subject_id = $1`, subjectID))
}
