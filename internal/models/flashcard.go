package models

import (
	"strings"
	"time"
)

type Level string

const (
	LevelEasy   Level = "EASY"
	LevelMedium Level = "MEDIUM"
	LevelHard   Level = "HARD"
)

// ParseLevel trims and upper-cases s. Anything outside EASY/MEDIUM/HARD is MEDIUM.
func ParseLevel(s string) Level {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelEasy, LevelMedium, LevelHard:
		return l
	default:
		return LevelMedium
	}
}

type Flashcard struct {
	ID        int64     `json:"id"`
	SubjectID int64     `json:"subject_id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	Level     Level     `json:"level"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
