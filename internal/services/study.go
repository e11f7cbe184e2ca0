package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Estud-AI/EstudAI/internal/logger"
	"github.com/Estud-AI/EstudAI/internal/models"
	"github.com/Estud-AI/EstudAI/internal/prompts"
	"github.com/Estud-AI/EstudAI/internal/repository"
)

const (
	maxTopicLen    = 200
	previewLen     = 300
	subjectSteps   = 4
	stepGenerating = 1
	stepParsing    = 2
	stepSaving     = 3
	stepDone       = 4

	SummaryNamePrefix = "Summary - "
	TestNamePrefix    = "Test - "
)

// StudyService runs prompt, generation, normalization, coercion and persistence
// for every study-material operation.
type StudyService struct {
	store   repository.Store
	gen     Generator
	limiter Limiter
	pub     Publisher
	log     *logger.Logger
}

// NewStudyService accepts nil limiter and publisher; both are then skipped.
func NewStudyService(store repository.Store, gen Generator, limiter Limiter, pub Publisher, log *logger.Logger) *StudyService {
	return &StudyService{store: store, gen: gen, limiter: limiter, pub: pub, log: log.With("component", "study")}
}

type FlashcardsResult struct {
	Created    []*models.Flashcard
	Duplicates []string
}

// CreateFullSubject generates and stores a subject with its summary, test and
// flashcards in one transaction. A nil bundle with a nil error means the
// response held nothing usable and nothing was written.
func (s *StudyService) CreateFullSubject(ctx context.Context, topic string, userID int64) (*models.SubjectBundle, error) {
	topic = strings.TrimSpace(topic)
	if err := validateTopic(topic, userID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, lookupErr(err, "user", userID)
	}
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	s.progress(ctx, userID, topic, stepGenerating, "Generating content")
	raw, err := s.generate(ctx, prompts.KindSubject, topic, nil)
	if err != nil {
		s.failed(ctx, userID, topic, "GENERATION_FAILED", err)
		return nil, err
	}

	s.progress(ctx, userID, topic, stepParsing, "Parsing response")
	n := Normalize(raw)
	if !n.OK() {
		s.parseFailed(prompts.KindSubject, n.Err)
		s.failed(ctx, userID, topic, "AI_PARSE_ERROR", n.Err)
		return nil, n.Err
	}
	content, err := CoerceSubject(n)
	if errors.Is(err, ErrUnexpectedShape) {
		pe := s.unexpectedShape(prompts.KindSubject, raw)
		s.failed(ctx, userID, topic, "AI_PARSE_ERROR", pe)
		return nil, pe
	}
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	s.log.Info("subject response coerced",
		"topic", topic,
		"questions", len(content.Questions.Questions),
		"discarded_questions", content.Questions.Discarded,
		"defaulted_answers", content.Questions.Defaulted,
		"flashcards", len(content.Flashcards.Cards),
		"discarded_flashcards", content.Flashcards.Discarded,
		"has_summary", content.Summary != "",
	)
	if content.Empty() {
		return nil, nil
	}

	s.progress(ctx, userID, topic, stepSaving, "Saving")
	bundle := &models.SubjectBundle{
		DiscardedQuestions:  content.Questions.Discarded,
		DiscardedFlashcards: content.Flashcards.Discarded,
	}
	err = s.store.InTx(ctx, func(q repository.Querier) error {
		subject := &models.Subject{UserID: userID, Name: topic}
		if err := q.CreateSubject(ctx, subject); err != nil {
			return fmt.Errorf("create subject: %w", err)
		}
		bundle.Subject = subject

		if content.Summary != "" {
			summary := &models.Summary{SubjectID: subject.ID, Name: "Summary: " + topic, Text: content.Summary}
			if err := q.CreateSummary(ctx, summary); err != nil {
				return fmt.Errorf("create summary: %w", err)
			}
			bundle.Summary = summary
		}

		test, err := insertTest(ctx, q, subject.ID, "Test: "+topic, content.Questions.Questions)
		if err != nil {
			return err
		}
		bundle.Test = test

		cards, err := insertFlashcards(ctx, q, subject.ID, content.Flashcards.Cards)
		if err != nil {
			return err
		}
		bundle.Flashcards = cards
		return nil
	})
	if err != nil {
		s.log.Error("subject creation rolled back", "topic", topic, "user_id", userID, "error", err)
		s.failed(ctx, userID, topic, "INTERNAL_ERROR", err)
		return nil, err
	}

	s.log.Info("subject created", "subject_id", bundle.Subject.ID, "user_id", userID,
		"questions", len(bundle.Test.Questions), "flashcards", len(bundle.Flashcards))
	if s.pub != nil {
		s.pub.PublishUpdate(ctx, userID, models.WSMessage{
			Type:    "completed",
			Payload: models.CompletedEvent{Topic: topic, SubjectID: bundle.Subject.ID},
		})
	}
	s.progress(ctx, userID, topic, stepDone, "Completed")
	return bundle, nil
}

// AddFlashcards generates up to FlashcardLimit new cards for an existing subject,
// telling the model which fronts it already has.
func (s *StudyService) AddFlashcards(ctx context.Context, userID, subjectID int64) (*FlashcardsResult, error) {
	subject, err := s.ownedSubject(ctx, userID, subjectID)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	existing, err := s.store.ListFlashcardsBySubject(ctx, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}
	fronts := make([]string, 0, len(existing))
	for _, f := range existing {
		fronts = append(fronts, f.Front)
	}

	raw, err := s.generate(ctx, prompts.KindFlashcards, subject.Name, map[string]string{
		"existing_fronts": strings.Join(fronts, "\n"),
	})
	if err != nil {
		return nil, err
	}
	n := Normalize(raw)
	if !n.OK() {
		s.parseFailed(prompts.KindFlashcards, n.Err)
		return nil, n.Err
	}

	set := CoerceFlashcards(n.Doc, LevelFromField, FlashcardLimit)
	if !set.Found {
		return nil, s.unexpectedShape(prompts.KindFlashcards, raw)
	}
	s.log.Info("flashcards coerced", "subject_id", subject.ID, "kept", len(set.Cards),
		"discarded", set.Discarded, "duplicates_reported", len(set.Duplicates))

	result := &FlashcardsResult{Created: []*models.Flashcard{}, Duplicates: set.Duplicates}
	if len(set.Cards) == 0 {
		return result, nil
	}

	err = s.store.InTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetSubject(ctx, subject.ID); err != nil {
			return lookupErr(err, "subject", subject.ID)
		}
		cards, err := insertFlashcards(ctx, q, subject.ID, set.Cards)
		result.Created = cards
		return err
	})
	if err != nil {
		s.log.Error("flashcard insert rolled back", "subject_id", subject.ID, "error", err)
		return nil, err
	}
	return result, nil
}

// CreateSummary stores one generated summary, or returns nil when the model returned
// nothing worth keeping. Unparseable text is kept as a single opaque section.
func (s *StudyService) CreateSummary(ctx context.Context, userID, subjectID int64) (*models.Summary, error) {
	subject, err := s.ownedSubject(ctx, userID, subjectID)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	raw, err := s.generate(ctx, prompts.KindSummary, subject.Name, nil)
	if err != nil {
		return nil, err
	}
	n := Normalize(raw)
	if !n.OK() {
		s.parseFailed(prompts.KindSummary, n.Err)
		if strings.TrimSpace(raw) == "" {
			return nil, n.Err
		}
	}
	text, err := CoerceSummary(n)
	if errors.Is(err, ErrUnexpectedShape) {
		return nil, s.unexpectedShape(prompts.KindSummary, raw)
	}
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	if text == "" {
		s.log.Info("summary response was empty", "subject_id", subject.ID)
		return nil, nil
	}

	summary := &models.Summary{SubjectID: subject.ID, Name: SummaryNamePrefix + subject.Name, Text: text}
	err = s.store.InTx(ctx, func(q repository.Querier) error {
		return q.CreateSummary(ctx, summary)
	})
	if err != nil {
		return nil, fmt.Errorf("create summary: %w", err)
	}
	return summary, nil
}

// CreateTest stores a generated test with up to QuestionLimit questions,
// or returns nil when no question survived coercion.
func (s *StudyService) CreateTest(ctx context.Context, userID, subjectID int64) (*models.Test, error) {
	subject, err := s.ownedSubject(ctx, userID, subjectID)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, userID); err != nil {
		return nil, err
	}

	raw, err := s.generate(ctx, prompts.KindTestBank, subject.Name, nil)
	if err != nil {
		return nil, err
	}
	n := Normalize(raw)
	if !n.OK() {
		s.parseFailed(prompts.KindTestBank, n.Err)
		return nil, n.Err
	}

	set := CoerceQuestions(n.Doc, QuestionLimit)
	if !set.Found {
		return nil, s.unexpectedShape(prompts.KindTestBank, raw)
	}
	s.log.Info("questions coerced", "subject_id", subject.ID, "kept", len(set.Questions),
		"discarded", set.Discarded, "defaulted_answers", set.Defaulted)
	if len(set.Questions) == 0 {
		return nil, nil
	}

	var test *models.Test
	err = s.store.InTx(ctx, func(q repository.Querier) error {
		var txErr error
		test, txErr = insertTest(ctx, q, subject.ID, TestNamePrefix+subject.Name, set.Questions)
		return txErr
	})
	if err != nil {
		s.log.Error("test creation rolled back", "subject_id", subject.ID, "error", err)
		return nil, err
	}
	return test, nil
}

// DeleteSubject removes a subject and everything under it, children first.
func (s *StudyService) DeleteSubject(ctx context.Context, subjectID int64) error {
	if subjectID <= 0 {
		return &ValidationError{Fields: map[string]string{"id": "must be a positive integer"}}
	}

	var questions, tests, cards, summaries int64
	err := s.store.InTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetSubject(ctx, subjectID); err != nil {
			return lookupErr(err, "subject", subjectID)
		}
		list, err := q.ListTestsBySubject(ctx, subjectID)
		if err != nil {
			return fmt.Errorf("list tests: %w", err)
		}
		for _, t := range list {
			n, err := q.DeleteQuestionsByTest(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("delete questions of test %d: %w", t.ID, err)
			}
			questions += n
		}
		if tests, err = q.DeleteTestsBySubject(ctx, subjectID); err != nil {
			return fmt.Errorf("delete tests: %w", err)
		}
		if cards, err = q.DeleteFlashcardsBySubject(ctx, subjectID); err != nil {
			return fmt.Errorf("delete flashcards: %w", err)
		}
		if summaries, err = q.DeleteSummariesBySubject(ctx, subjectID); err != nil {
			return fmt.Errorf("delete summaries: %w", err)
		}
		if err := q.DeleteSubject(ctx, subjectID); err != nil {
			return fmt.Errorf("delete subject: %w", err)
		}
		return nil
	})
	if err != nil {
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			s.log.Error("subject deletion rolled back", "subject_id", subjectID, "error", err)
		}
		return err
	}
	s.log.Info("subject deleted", "subject_id", subjectID,
		"questions", questions, "tests", tests, "flashcards", cards, "summaries", summaries)
	return nil
}

// ListSubjects returns the user's subjects, newest first, with all children and counts.
func (s *StudyService) ListSubjects(ctx context.Context, userID int64) ([]*models.Subject, error) {
	if userID <= 0 {
		return nil, &ValidationError{Fields: map[string]string{"user_id": "must be a positive integer"}}
	}
	subjects, err := s.store.ListSubjectsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	for _, subj := range subjects {
		if err := s.loadChildren(ctx, subj); err != nil {
			return nil, err
		}
	}
	return subjects, nil
}

func (s *StudyService) GetSubject(ctx context.Context, subjectID int64) (*models.Subject, error) {
	subj, err := s.store.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, lookupErr(err, "subject", subjectID)
	}
	if err := s.loadChildren(ctx, subj); err != nil {
		return nil, err
	}
	return subj, nil
}

func (s *StudyService) loadChildren(ctx context.Context, subj *models.Subject) error {
	var err error
	if subj.Summaries, err = s.store.ListSummariesBySubject(ctx, subj.ID); err != nil {
		return fmt.Errorf("list summaries: %w", err)
	}
	if subj.Flashcards, err = s.store.ListFlashcardsBySubject(ctx, subj.ID); err != nil {
		return fmt.Errorf("list flashcards: %w", err)
	}
	if subj.Tests, err = s.store.ListTestsBySubject(ctx, subj.ID); err != nil {
		return fmt.Errorf("list tests: %w", err)
	}
	for _, t := range subj.Tests {
		if t.Questions, err = s.store.ListQuestionsByTest(ctx, t.ID); err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
	}
	subj.Counts = &models.SubjectCounts{
		Summaries:  len(subj.Summaries),
		Tests:      len(subj.Tests),
		Flashcards: len(subj.Flashcards),
	}
	return nil
}

func insertTest(ctx context.Context, q repository.Querier, subjectID int64, name string, questions []*models.Question) (*models.Test, error) {
	test := &models.Test{SubjectID: subjectID, Name: name}
	if err := q.CreateTest(ctx, test); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}
	test.Questions = make([]*models.Question, 0, len(questions))
	for i, c := range questions {
		qu := *c
		qu.TestID = test.ID
		if err := q.CreateQuestion(ctx, &qu); err != nil {
			return nil, fmt.Errorf("create question %d: %w", i+1, err)
		}
		test.Questions = append(test.Questions, &qu)
	}
	return test, nil
}

func insertFlashcards(ctx context.Context, q repository.Querier, subjectID int64, cards []*models.Flashcard) ([]*models.Flashcard, error) {
	out := make([]*models.Flashcard, 0, len(cards))
	for i, c := range cards {
		f := *c
		f.SubjectID = subjectID
		if err := q.CreateFlashcard(ctx, &f); err != nil {
			return nil, fmt.Errorf("create flashcard %d: %w", i+1, err)
		}
		out = append(out, &f)
	}
	return out, nil
}

// ownedSubject treats another user's subject as absent.
func (s *StudyService) ownedSubject(ctx context.Context, userID, subjectID int64) (*models.Subject, error) {
	fields := map[string]string{}
	if userID <= 0 {
		fields["user_id"] = "must be a positive integer"
	}
	if subjectID <= 0 {
		fields["subject_id"] = "must be a positive integer"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	subject, err := s.store.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, lookupErr(err, "subject", subjectID)
	}
	if subject.UserID != userID {
		return nil, notFound("subject", subjectID)
	}
	return subject, nil
}

func (s *StudyService) generate(ctx context.Context, kind prompts.Kind, topic string, placeholders map[string]string) (string, error) {
	prompt, err := prompts.Resolve(kind, topic, placeholders)
	if err != nil {
		return "", err
	}
	start := time.Now()
	raw, err := s.gen.Generate(ctx, GenerateRequest{
		Prompt: prompt,
		System: DefaultSystemPrompt,
		JSON:   true,
		Label:  string(kind),
	})
	if err != nil {
		if !errors.Is(err, ErrGenerationFailed) {
			err = fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
		return "", err
	}
	s.log.Debug("generation returned", "kind", kind, "bytes", len(raw), "elapsed_ms", time.Since(start).Milliseconds())
	return raw, nil
}

func (s *StudyService) allow(ctx context.Context, userID int64) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Allow(ctx, userID)
}

func (s *StudyService) parseFailed(kind prompts.Kind, pe *ParseError) {
	s.log.Warn("could not parse AI response",
		"kind", kind,
		"raw_len", len(pe.Raw),
		"preview", logger.Preview(pe.Raw, previewLen),
		"error", pe.Err,
	)
}

// unexpectedShape reports a response that parsed but is missing the requested section.
func (s *StudyService) unexpectedShape(kind prompts.Kind, raw string) *ParseError {
	pe := &ParseError{Raw: raw, Err: ErrUnexpectedShape}
	s.parseFailed(kind, pe)
	return pe
}

func (s *StudyService) progress(ctx context.Context, userID int64, topic string, step int, name string) {
	if s.pub == nil {
		return
	}
	s.pub.PublishUpdate(ctx, userID, models.WSMessage{
		Type:    "status_update",
		Payload: models.StatusUpdate{Topic: topic, Step: step, TotalSteps: subjectSteps, StepName: name},
	})
}

func (s *StudyService) failed(ctx context.Context, userID int64, topic, code string, err error) {
	if s.pub == nil {
		return
	}
	s.pub.PublishUpdate(ctx, userID, models.WSMessage{
		Type:    "error",
		Payload: models.ErrorEvent{Topic: topic, ErrorCode: code, ErrorMessage: err.Error()},
	})
}

func validateTopic(topic string, userID int64) error {
	fields := map[string]string{}
	switch {
	case topic == "":
		fields["topic"] = "is required"
	case len([]rune(topic)) > maxTopicLen:
		fields["topic"] = fmt.Sprintf("must be at most %d characters", maxTopicLen)
	}
	if userID <= 0 {
		fields["user_id"] = "must be a positive integer"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// lookupErr turns a store miss into a NotFoundError and passes everything else through.
func lookupErr(err error, what string, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(what, id)
	}
	return fmt.Errorf("get %s %d: %w", what, id, err)
}
