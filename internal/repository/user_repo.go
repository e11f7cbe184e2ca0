package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Estud-AI/EstudAI/internal/models"
)

const userColumns = `id, name, email, phone_number, day_streak, last_streak_date, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PhoneNumber, &u.DayStreak, &u.LastStreakDate, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, mapError(err)
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	return u, mapError(err)
}

func (q *Queries) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (name, email, phone_number)
		VALUES ($1, $2, $3)
		RETURNING id, day_streak, created_at, updated_at`

	return mapError(q.db.QueryRow(ctx, query, u.Name, u.Email, u.PhoneNumber).
		Scan(&u.ID, &u.DayStreak, &u.CreatedAt, &u.UpdatedAt))
}

// UpdateUser writes name and phone number.
func (q *Queries) UpdateUser(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users SET name = $2, phone_number = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return mapError(q.db.QueryRow(ctx, query, u.ID, u.Name, u.PhoneNumber).Scan(&u.UpdatedAt))
}

func (q *Queries) UpdateStreak(ctx context.Context, userID int64, streak int, last time.Time) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE users SET day_streak = $2, last_streak_date = $3, updated_at = NOW() WHERE id = $1`,
		userID, streak, last)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows)
	}
	return nil
}

// GetProfileStats counts a user's subjects and flashcards. Quizzes completed is
// the sum of attempts over all of the user's tests.
func (q *Queries) GetProfileStats(ctx context.Context, userID int64) (models.ProfileStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM subjects WHERE user_id = $1),
			(SELECT COUNT(*) FROM flashcards f JOIN subjects s ON s.id = f.subject_id WHERE s.user_id = $1),
			(SELECT COALESCE(SUM(t.attempts), 0) FROM tests t JOIN subjects s ON s.id = t.subject_id WHERE s.user_id = $1)`

	var st models.ProfileStats
	err := q.db.QueryRow(ctx, query, userID).Scan(&st.Subjects, &st.Flashcards, &st.QuizzesCompleted)
	return st, mapError(err)
}
