package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Estud-AI/EstudAI/internal/models"
)

func scanFlashcard(row pgx.Row) (*models.Flashcard, error) {
	f := &models.Flashcard{}
	if err := row.Scan(&f.ID, &f.SubjectID, &f.Front, &f.Back, &f.Level, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return f, nil
}

func (q *Queries) CreateFlashcard(ctx context.Context, f *models.Flashcard) error {
	query := `
		INSERT INTO flashcards (subject_id, front, back, level)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return mapError(q.db.QueryRow(ctx, query, f.SubjectID, f.Front, f.Back, string(f.Level)).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt))
}

func (q *Queries) ListFlashcardsBySubject(ctx context.Context, subjectID int64) ([]*models.Flashcard, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, subject_id, front, back, level, created_at, updated_at FROM flashcards WHERE subject_id = $1 ORDER BY id`, subjectID)
	if err != nil {
		return nil, mapError(err)
	}
	return collect(rows, scanFlashcard)
}

func (q *Queries) DeleteFlashcardsBySubject(ctx context.Context, subjectID int64) (int64, error) {
	return deleted(q.db.Exec(ctx, `DELETE FROM flashcards WHERE subject_id = $1`, subjectID))
}
