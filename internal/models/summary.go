package models

import "time"

type Summary struct {
	ID        int64     `json:"id"`
	SubjectID int64     `json:"subject_id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
