// Package testutil holds in-memory stand-ins for the store and the model client.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Estud-AI/EstudAI/internal/models"
	"github.com/Estud-AI/EstudAI/internal/repository"
)

// MemStore is a repository.Store kept in maps. A transaction works on a copy
// that replaces the committed state only when fn returns nil, so readers
// outside the transaction never see its partial writes. It enforces the same
// unique email and foreign key rules as the Postgres schema.
type MemStore struct {
	txMu sync.Mutex // serializes writers
	mu   sync.RWMutex
	st   *memState

	faultMu     sync.Mutex
	inserts     int
	failInsert  int
	failErr     error
	staleEmails int
	ops         []string

	// OnWrite, if set, runs after every write with the operation name.
	// It runs inside the transaction, before commit.
	OnWrite func(op string)
}

type memState struct {
	nextID     map[string]int64
	users      map[int64]models.User
	subjects   map[int64]models.Subject
	summaries  map[int64]models.Summary
	flashcards map[int64]models.Flashcard
	tests      map[int64]models.Test
	questions  map[int64]models.Question
}

func NewMemStore() *MemStore {
	return &MemStore{st: &memState{
		nextID:     map[string]int64{},
		users:      map[int64]models.User{},
		subjects:   map[int64]models.Subject{},
		summaries:  map[int64]models.Summary{},
		flashcards: map[int64]models.Flashcard{},
		tests:      map[int64]models.Test{},
		questions:  map[int64]models.Question{},
	}}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	return &memState{
		nextID:     cloneMap(s.nextID),
		users:      cloneMap(s.users),
		subjects:   cloneMap(s.subjects),
		summaries:  cloneMap(s.summaries),
		flashcards: cloneMap(s.flashcards),
		tests:      cloneMap(s.tests),
		questions:  cloneMap(s.questions),
	}
}

func (s *memState) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

// FailInsertAt makes the nth insert from now (1-based, any table) return err.
func (m *MemStore) FailInsertAt(n int, err error) {
	m.faultMu.Lock()
	defer m.faultMu.Unlock()
	m.inserts, m.failInsert, m.failErr = 0, n, err
}

// StaleEmailReads makes the next n GetUserByEmail calls miss, as if another
// request had not yet committed its row.
func (m *MemStore) StaleEmailReads(n int) {
	m.faultMu.Lock()
	defer m.faultMu.Unlock()
	m.staleEmails = n
}

// Ops lists every write attempted so far, in order.
func (m *MemStore) Ops() []string {
	m.faultMu.Lock()
	defer m.faultMu.Unlock()
	return append([]string(nil), m.ops...)
}

func (m *MemStore) InTx(ctx context.Context, fn func(q repository.Querier) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	work := m.st.clone()
	m.mu.RUnlock()

	if err := fn(&memTx{m: m, st: work, ctx: ctx}); err != nil {
		return fmt.Errorf("transaction: %w", err)
	}

	m.mu.Lock()
	m.st = work
	m.mu.Unlock()
	return nil
}

// autocommit runs one write outside an explicit transaction.
func (m *MemStore) autocommit(ctx context.Context, fn func(q *memTx) error) error {
	return m.InTx(ctx, func(q repository.Querier) error { return fn(q.(*memTx)) })
}

func (m *MemStore) read() *memTx {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &memTx{m: m, st: m.st, ctx: context.Background()}
}

// Count returns how many rows in table reference parentID. A zero parentID counts every row.
func (m *MemStore) Count(table string, parentID int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	match := func(id int64) bool { return parentID == 0 || id == parentID }
	switch table {
	case "users":
		return len(m.st.users)
	case "subjects":
		for _, s := range m.st.subjects {
			if match(s.UserID) {
				n++
			}
		}
	case "summaries":
		for _, s := range m.st.summaries {
			if match(s.SubjectID) {
				n++
			}
		}
	case "flashcards":
		for _, f := range m.st.flashcards {
			if match(f.SubjectID) {
				n++
			}
		}
	case "tests":
		for _, t := range m.st.tests {
			if match(t.SubjectID) {
				n++
			}
		}
	case "questions":
		for _, q := range m.st.questions {
			if match(q.TestID) {
				n++
			}
		}
	}
	return n
}

// memTx is one transaction's view of a private copy of the state.
type memTx struct {
	m   *MemStore
	st  *memState
	ctx context.Context
}

func (t *memTx) wrote(op string) {
	if t.m.OnWrite != nil {
		t.m.OnWrite(op)
	}
}

func (t *memTx) insert(op string) error {
	t.m.faultMu.Lock()
	t.m.ops = append(t.m.ops, op)
	t.m.inserts++
	fail := t.m.failInsert > 0 && t.m.inserts == t.m.failInsert
	err := t.m.failErr
	t.m.faultMu.Unlock()
	if fail {
		return err
	}
	return t.ctx.Err()
}

func (t *memTx) op(op string) {
	t.m.faultMu.Lock()
	t.m.ops = append(t.m.ops, op)
	t.m.faultMu.Unlock()
}

func notFound(what string, id any) error {
	return fmt.Errorf("%w: %s %v", repository.ErrNotFound, what, id)
}

func missingParent(what string, id int64) error {
	return fmt.Errorf("%w: %s %d does not exist", repository.ErrInvalidEntity, what, id)
}

func sortByID[T any](items []*T, id func(*T) int64) []*T {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
	return items
}

func (t *memTx) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (t *memTx) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	t.m.faultMu.Lock()
	stale := t.m.staleEmails > 0
	if stale {
		t.m.staleEmails--
	}
	t.m.faultMu.Unlock()
	if stale {
		return nil, notFound("user", email)
	}
	for _, u := range t.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, notFound("user", email)
}

func (t *memTx) CreateUser(_ context.Context, u *models.User) error {
	if err := t.insert("create_user"); err != nil {
		return err
	}
	for _, existing := range t.st.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w (users_email_key): %s", repository.ErrDuplicate, u.Email)
		}
	}
	now := time.Now()
	u.ID, u.DayStreak, u.CreatedAt, u.UpdatedAt = t.st.id("users"), 0, now, now
	t.st.users[u.ID] = *u
	t.wrote("create_user")
	return nil
}

func (t *memTx) UpdateUser(_ context.Context, u *models.User) error {
	t.op("update_user")
	cur, ok := t.st.users[u.ID]
	if !ok {
		return notFound("user", u.ID)
	}
	cur.Name, cur.PhoneNumber, cur.UpdatedAt = u.Name, u.PhoneNumber, time.Now()
	u.UpdatedAt = cur.UpdatedAt
	t.st.users[u.ID] = cur
	t.wrote("update_user")
	return nil
}

func (t *memTx) UpdateStreak(_ context.Context, userID int64, streak int, last time.Time) error {
	t.op("update_streak")
	cur, ok := t.st.users[userID]
	if !ok {
		return notFound("user", userID)
	}
	d := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	cur.DayStreak, cur.LastStreakDate, cur.UpdatedAt = streak, &d, time.Now()
	t.st.users[userID] = cur
	t.wrote("update_streak")
	return nil
}

func (t *memTx) GetProfileStats(_ context.Context, userID int64) (models.ProfileStats, error) {
	var st models.ProfileStats
	owned := map[int64]bool{}
	for id, s := range t.st.subjects {
		if s.UserID == userID {
			owned[id] = true
			st.Subjects++
		}
	}
	for _, f := range t.st.flashcards {
		if owned[f.SubjectID] {
			st.Flashcards++
		}
	}
	for _, tt := range t.st.tests {
		if owned[tt.SubjectID] {
			st.QuizzesCompleted += tt.Attempts
		}
	}
	return st, nil
}

func (t *memTx) GetSubject(_ context.Context, id int64) (*models.Subject, error) {
	s, ok := t.st.subjects[id]
	if !ok {
		return nil, notFound("subject", id)
	}
	return &s, nil
}

func (t *memTx) ListSubjectsByUser(_ context.Context, userID int64) ([]*models.Subject, error) {
	out := []*models.Subject{}
	for _, s := range t.st.subjects {
		if s.UserID == userID {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (t *memTx) CreateSubject(_ context.Context, s *models.Subject) error {
	if err := t.insert("create_subject"); err != nil {
		return err
	}
	if _, ok := t.st.users[s.UserID]; !ok {
		return missingParent("user", s.UserID)
	}
	now := time.Now()
	s.ID, s.CreatedAt, s.UpdatedAt = t.st.id("subjects"), now, now
	t.st.subjects[s.ID] = *s
	t.wrote("create_subject")
	return nil
}

func (t *memTx) DeleteSubject(_ context.Context, id int64) error {
	t.op("delete_subject")
	if _, ok := t.st.subjects[id]; !ok {
		return notFound("subject", id)
	}
	for _, s := range t.st.summaries {
		if s.SubjectID == id {
			return fmt.Errorf("%w: subject %d still has summaries", repository.ErrInvalidEntity, id)
		}
	}
	for _, f := range t.st.flashcards {
		if f.SubjectID == id {
			return fmt.Errorf("%w: subject %d still has flashcards", repository.ErrInvalidEntity, id)
		}
	}
	for _, tt := range t.st.tests {
		if tt.SubjectID == id {
			return fmt.Errorf("%w: subject %d still has tests", repository.ErrInvalidEntity, id)
		}
	}
	delete(t.st.subjects, id)
	t.wrote("delete_subject")
	return nil
}

func (t *memTx) CreateSummary(_ context.Context, s *models.Summary) error {
	if err := t.insert("create_summary"); err != nil {
		return err
	}
	if _, ok := t.st.subjects[s.SubjectID]; !ok {
		return missingParent("subject", s.SubjectID)
	}
	now := time.Now()
	s.ID, s.CreatedAt, s.UpdatedAt = t.st.id("summaries"), now, now
	t.st.summaries[s.ID] = *s
	t.wrote("create_summary")
	return nil
}

func (t *memTx) ListSummariesBySubject(_ context.Context, subjectID int64) ([]*models.Summary, error) {
	out := []*models.Summary{}
	for _, s := range t.st.summaries {
		if s.SubjectID == subjectID {
			s := s
			out = append(out, &s)
		}
	}
	return sortByID(out, func(s *models.Summary) int64 { return s.ID }), nil
}

func (t *memTx) DeleteSummariesBySubject(_ context.Context, subjectID int64) (int64, error) {
	t.op("delete_summaries")
	var n int64
	for id, s := range t.st.summaries {
		if s.SubjectID == subjectID {
			delete(t.st.summaries, id)
			n++
		}
	}
	t.wrote("delete_summaries")
	return n, nil
}

func (t *memTx) CreateFlashcard(_ context.Context, f *models.Flashcard) error {
	if err := t.insert("create_flashcard"); err != nil {
		return err
	}
	if _, ok := t.st.subjects[f.SubjectID]; !ok {
		return missingParent("subject", f.SubjectID)
	}
	switch f.Level {
	case models.LevelEasy, models.LevelMedium, models.LevelHard:
	default:
		return fmt.Errorf("%w: level %q", repository.ErrInvalidEntity, f.Level)
	}
	now := time.Now()
	f.ID, f.CreatedAt, f.UpdatedAt = t.st.id("flashcards"), now, now
	t.st.flashcards[f.ID] = *f
	t.wrote("create_flashcard")
	return nil
}

func (t *memTx) ListFlashcardsBySubject(_ context.Context, subjectID int64) ([]*models.Flashcard, error) {
	out := []*models.Flashcard{}
	for _, f := range t.st.flashcards {
		if f.SubjectID == subjectID {
			f := f
			out = append(out, &f)
		}
	}
	return sortByID(out, func(f *models.Flashcard) int64 { return f.ID }), nil
}

func (t *memTx) DeleteFlashcardsBySubject(_ context.Context, subjectID int64) (int64, error) {
	t.op("delete_flashcards")
	var n int64
	for id, f := range t.st.flashcards {
		if f.SubjectID == subjectID {
			delete(t.st.flashcards, id)
			n++
		}
	}
	t.wrote("delete_flashcards")
	return n, nil
}

func (t *memTx) CreateTest(_ context.Context, tt *models.Test) error {
	if err := t.insert("create_test"); err != nil {
		return err
	}
	if _, ok := t.st.subjects[tt.SubjectID]; !ok {
		return missingParent("subject", tt.SubjectID)
	}
	now := time.Now()
	tt.ID, tt.CreatedAt, tt.UpdatedAt = t.st.id("tests"), now, now
	stored := *tt
	stored.Questions = nil
	t.st.tests[tt.ID] = stored
	t.wrote("create_test")
	return nil
}

func (t *memTx) ListTestsBySubject(_ context.Context, subjectID int64) ([]*models.Test, error) {
	out := []*models.Test{}
	for _, tt := range t.st.tests {
		if tt.SubjectID == subjectID {
			tt := tt
			out = append(out, &tt)
		}
	}
	return sortByID(out, func(tt *models.Test) int64 { return tt.ID }), nil
}

func (t *memTx) DeleteTestsBySubject(_ context.Context, subjectID int64) (int64, error) {
	t.op("delete_tests")
	for _, q := range t.st.questions {
		if tt, ok := t.st.tests[q.TestID]; ok && tt.SubjectID == subjectID {
			return 0, fmt.Errorf("%w: test %d still has questions", repository.ErrInvalidEntity, tt.ID)
		}
	}
	var n int64
	for id, tt := range t.st.tests {
		if tt.SubjectID == subjectID {
			delete(t.st.tests, id)
			n++
		}
	}
	t.wrote("delete_tests")
	return n, nil
}

func (t *memTx) CreateQuestion(_ context.Context, q *models.Question) error {
	if err := t.insert("create_question"); err != nil {
		return err
	}
	if _, ok := t.st.tests[q.TestID]; !ok {
		return missingParent("test", q.TestID)
	}
	if q.CorrectAnswer < 1 || q.CorrectAnswer > 4 {
		return fmt.Errorf("%w: correct_answer %d", repository.ErrInvalidEntity, q.CorrectAnswer)
	}
	now := time.Now()
	q.ID, q.CreatedAt, q.UpdatedAt = t.st.id("questions"), now, now
	t.st.questions[q.ID] = *q
	t.wrote("create_question")
	return nil
}

func (t *memTx) ListQuestionsByTest(_ context.Context, testID int64) ([]*models.Question, error) {
	out := []*models.Question{}
	for _, q := range t.st.questions {
		if q.TestID == testID {
			q := q
			out = append(out, &q)
		}
	}
	return sortByID(out, func(q *models.Question) int64 { return q.ID }), nil
}

func (t *memTx) DeleteQuestionsByTest(_ context.Context, testID int64) (int64, error) {
	t.op("delete_questions")
	var n int64
	for id, q := range t.st.questions {
		if q.TestID == testID {
			delete(t.st.questions, id)
			n++
		}
	}
	t.wrote("delete_questions")
	return n, nil
}
