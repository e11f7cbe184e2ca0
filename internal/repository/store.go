package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Estud-AI/EstudAI/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("duplicate record")
	ErrInvalidEntity = errors.New("invalid entity")
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

// Querier is every read and write the services need. Both the pool-backed
// store and a transaction scope satisfy it.
type Querier interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
	UpdateStreak(ctx context.Context, userID int64, streak int, last time.Time) error
	GetProfileStats(ctx context.Context, userID int64) (models.ProfileStats, error)

	GetSubject(ctx context.Context, id int64) (*models.Subject, error)
	ListSubjectsByUser(ctx context.Context, userID int64) ([]*models.Subject, error)
	CreateSubject(ctx context.Context, s *models.Subject) error
	DeleteSubject(ctx context.Context, id int64) error

	CreateSummary(ctx context.Context, s *models.Summary) error
	ListSummariesBySubject(ctx context.Context, subjectID int64) ([]*models.Summary, error)
	DeleteSummariesBySubject(ctx context.Context, subjectID int64) (int64, error)

	CreateFlashcard(ctx context.Context, f *models.Flashcard) error
	ListFlashcardsBySubject(ctx context.Context, subjectID int64) ([]*models.Flashcard, error)
	DeleteFlashcardsBySubject(ctx context.Context, subjectID int64) (int64, error)

	CreateTest(ctx context.Context, t *models.Test) error
	ListTestsBySubject(ctx context.Context, subjectID int64) ([]*models.Test, error)
	DeleteTestsBySubject(ctx context.Context, subjectID int64) (int64, error)
	CreateQuestion(ctx context.Context, q *models.Question) error
	ListQuestionsByTest(ctx context.Context, testID int64) ([]*models.Question, error)
	DeleteQuestionsByTest(ctx context.Context, testID int64) (int64, error)
}

// Store runs fn against a transaction scope. fn returning nil commits;
// any error rolls back everything fn wrote.
type Store interface {
	Querier
	InTx(ctx context.Context, fn func(q Querier) error) error
}

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type PGStore struct {
	*Queries
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Queries: NewQueries(pool), pool: pool}
}

func (s *PGStore) InTx(ctx context.Context, fn func(q Querier) error) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(NewQueries(tx))
	})
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	return nil
}

// mapError turns driver errors into the package's sentinels, keeping the original text.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w (%s): %w", ErrDuplicate, pgErr.ConstraintName, err)
		case foreignKeyViolationCode, checkViolationCode:
			return fmt.Errorf("%w (%s): %w", ErrInvalidEntity, pgErr.ConstraintName, err)
		}
	}
	return err
}

func collect[T any](rows pgx.Rows, scan func(row pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()
	out := []*T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, v)
	}
	return out, mapError(rows.Err())
}

func deleted(tag pgconn.CommandTag, err error) (int64, error) {
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}
