package testutil

import (
	"context"
	"time"

	"github.com/Estud-AI/EstudAI/internal/models"
	"github.com/Estud-AI/EstudAI/internal/repository"
)

var _ repository.Store = (*MemStore)(nil)

// Calls on the store itself read committed state or commit a single write.

func (m *MemStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return m.read().GetUserByID(ctx, id)
}

func (m *MemStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.read().GetUserByEmail(ctx, email)
}

func (m *MemStore) CreateUser(ctx context.Context, u *models.User) error {
	return m.autocommit(ctx, func(q *memTx) error { return q.CreateUser(ctx, u) })
}

func (m *MemStore) UpdateUser(ctx context.Context, u *models.User) error {
	return m.autocommit(ctx, func(q *memTx) error { return q.UpdateUser(ctx, u) })
}

func (m *MemStore) UpdateStreak(ctx context.Context, userID int64, streak int, last time.Time) error {
	return m.autocommit(ctx, func(q *memTx) error { return q.UpdateStreak(ctx, userID, streak, last) })
}

func (m *MemStore) GetProfileStats(ctx context.Context, userID int64) (models.ProfileStats, error) {
	return m.read().GetProfileStats(ctx, userID)
}

func (m *MemStore) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	return m.read().GetSubject(ctx, id)
}

func (m *MemStore) ListSubjectsByUser(ctx context.Context, userID int64) ([]*models.Subject, error) {
	return m.read().ListSubjectsByUser(ctx, userID)
}

func (m *MemStore) CreateSubject(ctx context.Context, s *models.Subject) error {
	return m.autocommit(ctx, func(q *memTx) error { return q.CreateSubject(ctx, s) })
}

func (m *MemStore) DeleteSubject(ctx context.Context, id int64) error {
	return m.autocommit(ctx, func(q *memTx) error { return q.DeleteSubject(ctx, id) })
}

func (m *MemStore) CreateSummary(ctx context.Context, s *models.Summary) error {
	return m.autocommit(ctx, func(q *memTx) error { return q.CreateSummary(ctx, s) })
}

func (m *MemStore) ListSummariesBySubject(ctx context.Context, subjectID int64) ([]*models.Summary, error) {
	return m.read().ListSummariesBySubject(ctx, subjectID)
}

func (m *MemStore) DeleteSummariesBySubject(ctx context.Context, subjectID int64) (n int64, err error) {
	err = m.autocommit(ctx, func(q *memTx) error {
		n, err = q.DeleteSummariesBySubject(ctx, subjectID)
		return err
	})
	return n, err
}

func (m *MemStore) CreateFlashcard(ctx context.Context, f *models.Flashcard) error {
	return m.autocommit(ctx, func(q *memTx) error { return q.CreateFlashcard(ctx, f) })
}

func (m *MemStore) ListFlashcardsBySubject(ctx context.Context, subjectID int64) ([]*models.Flashcard, error) {
	return m.read().ListFlashcardsBySubject(ctx, subjectID)
}

func (m *MemStore) DeleteFlashcardsBySubject(ctx context.Context, subjectID int64) (n int64, err error) {
	err = m.autocommit(ctx, func(q *memTx) error {
		n, err = q.DeleteFlashcardsBySubject(ctx, subjectID)
		return err
	})
	return n, err
}

func (m *MemStore) CreateTest(ctx context.Context, t *models.Test) error {
	return m.autocommit(ctx, func(q *memTx) error { return q.CreateTest(ctx, t) })
}

func (m *MemStore) ListTestsBySubject(ctx context.Context, subjectID int64) ([]*models.Test, error) {
	return m.read().ListTestsBySubject(ctx, subjectID)
}

func (m *MemStore) DeleteTestsBySubject(ctx context.Context, subjectID int64) (n int64, err error) {
	err = m.autocommit(ctx, func(q *memTx) error {
		n, err = q.DeleteTestsBySubject(ctx, subjectID)
		return err
	})
	return n, err
}

func (m *MemStore) CreateQuestion(ctx context.Context, qu *models.Question) error {
	return m.autocommit(ctx, func(q *memTx) error { return q.CreateQuestion(ctx, qu) })
}

func (m *MemStore) ListQuestionsByTest(ctx context.Context, testID int64) ([]*models.Question, error) {
	return m.read().ListQuestionsByTest(ctx, testID)
}

func (m *MemStore) DeleteQuestionsByTest(ctx context.Context, testID int64) (n int64, err error) {
	err = m.autocommit(ctx, func(q *memTx) error {
		n, err = q.DeleteQuestionsByTest(ctx, testID)
		return err
	})
	return n, err
}
var _ repository.Querier = (*memTx)(nil)
