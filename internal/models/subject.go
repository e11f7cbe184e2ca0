package models

import "time"

type Subject struct {
	ID         int64          `json:"id"`
	UserID     int64          `json:"user_id"`
	Name       string         `json:"name"`
	Progress   int            `json:"progress"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Summaries  []*Summary     `json:"summaries,omitempty"`
	Tests      []*Test        `json:"tests,omitempty"`
	Flashcards []*Flashcard   `json:"flashcards,omitempty"`
	Counts     *SubjectCounts `json:"counts,omitempty"`
}

type SubjectCounts struct {
	Summaries  int `json:"summaries"`
	Tests      int `json:"tests"`
	Flashcards int `json:"flashcards"`
}

type CreateSubjectRequest struct {
	Topic  string `json:"topic" validate:"required,max=200"`
	UserID int64  `json:"user_id" validate:"required,gt=0"`
}

// GenerateRequest is the body shared by the per-subject generation routes.
type GenerateRequest struct {
	UserID    int64 `json:"user_id" validate:"required,gt=0"`
	SubjectID int64 `json:"subject_id" validate:"required,gt=0"`
}

// SubjectBundle is everything created by one full-subject generation.
type SubjectBundle struct {
	Subject             *Subject     `json:"subject"`
	Summary             *Summary     `json:"summary"`
	Test                *Test        `json:"test"`
	Flashcards          []*Flashcard `json:"flashcards"`
	DiscardedQuestions  int          `json:"discarded_questions"`
	DiscardedFlashcards int          `json:"discarded_flashcards"`
}
