package models

import "time"

type Test struct {
	ID              int64       `json:"id"`
	SubjectID       int64       `json:"subject_id"`
	Name            string      `json:"name"`
	Attempts        int         `json:"attempts"`
	AccurateAnswers int         `json:"accurate_answers"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Questions       []*Question `json:"questions,omitempty"`
}

type Question struct {
	ID            int64     `json:"id"`
	TestID        int64     `json:"test_id"`
	Quest         string    `json:"question"`
	Option1       string    `json:"option1"`
	Option2       string    `json:"option2"`
	Option3       string    `json:"option3"`
	Option4       string    `json:"option4"`
	CorrectAnswer int       `json:"correct_answer"` // 1..4
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
