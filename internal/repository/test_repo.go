package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Estud-AI/EstudAI/internal/models"
)

func scanTest(row pgx.Row) (*models.Test, error) {
	t := &models.Test{}
	if err := row.Scan(&t.ID, &t.SubjectID, &t.Name, &t.Attempts, &t.AccurateAnswers, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func scanQuestion(row pgx.Row) (*models.Question, error) {
	qu := &models.Question{}
	err := row.Scan(&qu.ID, &qu.TestID, &qu.Quest, &qu.Option1, &qu.Option2, &qu.Option3, &qu.Option4,
		&qu.CorrectAnswer, &qu.CreatedAt, &qu.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return qu, nil
}

func (q *Queries) CreateTest(ctx context.Context, t *models.Test) error {
	query := `
		INSERT INTO tests (subject_id, name, attempts, accurate_answers)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return mapError(q.db.QueryRow(ctx, query, t.SubjectID, t.Name, t.Attempts, t.AccurateAnswers).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt))
}

func (q *Queries) ListTestsBySubject(ctx context.Context, subjectID int64) ([]*models.Test, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, subject_id, name, attempts, accurate_answers, created_at, updated_at FROM tests WHERE subject_id = $1 ORDER BY id`, subjectID)
	if err != nil {
		return nil, mapError(err)
	}
	return collect(rows, scanTest)
}

// DeleteTestsBySubject fails with ErrInvalidEntity while any of the tests still has questions.
func (q *Queries) DeleteTestsBySubject(ctx context.Context, subjectID int64) (int64, error) {
	return deleted(q.db.Exec(ctx, `DELETE FROM tests WHERE subject_id = $1`, subjectID))
}

func (q *Queries) CreateQuestion(ctx context.Context, qu *models.Question) error {
	query := `
		INSERT INTO questions (test_id, question, option1, option2, option3, option4, correct_answer)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return mapError(q.db.QueryRow(ctx, query,
		qu.TestID, qu.Quest, qu.Option1, qu.Option2, qu.Option3, qu.Option4, qu.CorrectAnswer,
	).Scan(&qu.ID, &qu.CreatedAt, &qu.UpdatedAt))
}

// ListQuestionsByTest keeps insertion order, which is the generator's order.
func (q *Queries) ListQuestionsByTest(ctx context.Context, testID int64) ([]*models.Question, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, test_id, question, option1, option2, option3, option4, correct_answer, created_at, updated_at
		FROM questions WHERE test_id = $1 ORDER BY id`, testID)
	if err != nil {
		return nil, mapError(err)
	}
	return collect(rows, scanQuestion)
}

func (q *Queries) DeleteQuestionsByTest(ctx context.Context, testID int64) (int64, error) {
	return deleted(q.db.Exec(ctx, `DELETE FROM questions WHERE test_id = $1`, testID))
}
