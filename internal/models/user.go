package models

import "time"

type User struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PhoneNumber    *string    `json:"phone_number"`
	DayStreak      int        `json:"day_streak"`
	LastStreakDate *time.Time `json:"last_streak_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type RegisterRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Email       string  `json:"email" validate:"required,email"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,phone"`
}

type UpdateProfileRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,phone"`
}

type StreakRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type UserProfile struct {
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	PhoneNumber *string      `json:"phone_number"`
	DayStreak   int          `json:"day_streak"`
	JoinedDate  time.Time    `json:"joined_date"`
	Stats       ProfileStats `json:"stats"`
}

type ProfileStats struct {
	Subjects         int `json:"subjects"`
	Flashcards       int `json:"flashcards"`
	QuizzesCompleted int `json:"quizzes_completed"`
}
