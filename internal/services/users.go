package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Estud-AI/EstudAI/internal/logger"
	"github.com/Estud-AI/EstudAI/internal/models"
	"github.com/Estud-AI/EstudAI/internal/repository"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// emailCheck applies the same "email" rule the HTTP layer validates request bodies with.
var emailCheck = validator.New()

// ValidPhone reports whether s looks like an E.164-ish phone number.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

type UserService struct {
	store repository.Store
	loc   *time.Location
	now   func() time.Time
	log   *logger.Logger
}

// NewUserService computes streak days as civil dates in loc.
func NewUserService(store repository.Store, loc *time.Location, log *logger.Logger) *UserService {
	if loc == nil {
		loc = time.UTC
	}
	return &UserService{store: store, loc: loc, now: time.Now, log: log.With("component", "users")}
}

// SetClock replaces the time source.
func (s *UserService) SetClock(now func() time.Time) {
	s.now = now
}

type UpsertInput struct {
	Name        string
	Email       string
	PhoneNumber *string
}

// Upsert finds the user by email and refreshes the name (and phone when given),
// or creates the user. The unique email constraint decides races: an insert
// that loses one is retried once as an update.
func (s *UserService) Upsert(ctx context.Context, in UpsertInput) (*models.User, bool, error) {
	in, err := normalizeUpsert(in)
	if err != nil {
		return nil, false, err
	}

	user, created, err := s.upsertOnce(ctx, in, true)
	if errors.Is(err, repository.ErrDuplicate) {
		s.log.Warn("user upsert raced with another insert, retrying as update", "email", in.Email)
		user, created, err = s.upsertOnce(ctx, in, false)
	}
	if err != nil {
		return nil, false, fmt.Errorf("upsert user: %w", err)
	}
	return user, created, nil
}

func (s *UserService) upsertOnce(ctx context.Context, in UpsertInput, mayInsert bool) (*models.User, bool, error) {
	var user *models.User
	created := false
	err := s.store.InTx(ctx, func(q repository.Querier) error {
		existing, err := q.GetUserByEmail(ctx, in.Email)
		switch {
		case err == nil:
			existing.Name = in.Name
			if in.PhoneNumber != nil {
				existing.PhoneNumber = in.PhoneNumber
			}
			if err := q.UpdateUser(ctx, existing); err != nil {
				return err
			}
			user = existing
			return nil
		case !errors.Is(err, repository.ErrNotFound):
			return err
		case !mayInsert:
			return fmt.Errorf("user %s vanished after insert conflict: %w", in.Email, err)
		}

		u := &models.User{Name: in.Name, Email: in.Email, PhoneNumber: in.PhoneNumber}
		if err := q.CreateUser(ctx, u); err != nil {
			return err
		}
		user, created = u, true
		return nil
	})
	return user, created, err
}

func normalizeUpsert(in UpsertInput) (UpsertInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.PhoneNumber != nil {
		p := strings.TrimSpace(*in.PhoneNumber)
		if p == "" {
			in.PhoneNumber = nil
		} else {
			in.PhoneNumber = &p
		}
	}

	fields := map[string]string{}
	if n := len([]rune(in.Name)); n < 2 || n > 100 {
		fields["name"] = "must be between 2 and 100 characters"
	}
	if emailCheck.Var(in.Email, "required,email") != nil {
		fields["email"] = "must be a valid email address"
	}
	if in.PhoneNumber != nil && !ValidPhone(*in.PhoneNumber) {
		fields["phone_number"] = "must be 7 to 15 digits, optionally prefixed with +"
	}
	if len(fields) > 0 {
		return in, &ValidationError{Fields: fields}
	}
	return in, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: "user not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "user", userID)
	}
	stats, err := s.store.GetProfileStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile stats: %w", err)
	}
	return &models.UserProfile{
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		DayStreak:   u.DayStreak,
		JoinedDate:  u.CreatedAt,
		Stats:       stats,
	}, nil
}

// UpdateProfile changes only the fields present in req.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req models.UpdateProfileRequest) (*models.User, error) {
	var user *models.User
	err := s.store.InTx(ctx, func(q repository.Querier) error {
		u, err := q.GetUserByID(ctx, userID)
		if err != nil {
			return lookupErr(err, "user", userID)
		}
		fields := map[string]string{}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if n := len([]rune(name)); n < 2 || n > 100 {
				fields["name"] = "must be between 2 and 100 characters"
			}
			u.Name = name
		}
		if req.PhoneNumber != nil {
			p := strings.TrimSpace(*req.PhoneNumber)
			switch {
			case p == "":
				u.PhoneNumber = nil
			case !ValidPhone(p):
				fields["phone_number"] = "must be 7 to 15 digits, optionally prefixed with +"
			default:
				u.PhoneNumber = &p
			}
		}
		if len(fields) > 0 {
			return &ValidationError{Fields: fields}
		}
		if err := q.UpdateUser(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

type StreakOutcome string

const (
	StreakStarted     StreakOutcome = "started"
	StreakUnchanged   StreakOutcome = "unchanged"
	StreakIncremented StreakOutcome = "incremented"
	StreakReset       StreakOutcome = "reset"
	// StreakClockSkew means the stored date is after today. Nothing changes.
	StreakClockSkew StreakOutcome = "clock_skew"
)

func (o StreakOutcome) Changed() bool {
	return o == StreakStarted || o == StreakIncremented || o == StreakReset
}

// CivilDate truncates t to its calendar day in loc, returned as midnight UTC
// so that day differences are exact whole multiples of 24h.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextStreak is the streak state machine. today and last are civil dates.
func NextStreak(streak int, last *time.Time, today time.Time) (int, time.Time, StreakOutcome) {
	if last == nil {
		return 1, today, StreakStarted
	}
	lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	diffDays := int(today.Sub(lastDay).Hours() / 24)
	switch {
	case diffDays == 0:
		return streak, lastDay, StreakUnchanged
	case diffDays == 1:
		return streak + 1, today, StreakIncremented
	case diffDays > 1:
		return 1, today, StreakReset
	default:
		return streak, lastDay, StreakClockSkew
	}
}

// UpdateStreak applies one qualifying study action for userID today.
func (s *UserService) UpdateStreak(ctx context.Context, userID int64) (*models.User, StreakOutcome, error) {
	if userID <= 0 {
		return nil, "", &ValidationError{Fields: map[string]string{"user_id": "must be a positive integer"}}
	}
	today := CivilDate(s.now(), s.loc)

	var (
		user    *models.User
		outcome StreakOutcome
	)
	err := s.store.InTx(ctx, func(q repository.Querier) error {
		u, err := q.GetUserByID(ctx, userID)
		if err != nil {
			return lookupErr(err, "user", userID)
		}
		streak, last, out := NextStreak(u.DayStreak, u.LastStreakDate, today)
		outcome = out
		user = u
		if !out.Changed() {
			return nil
		}
		if err := q.UpdateStreak(ctx, userID, streak, last); err != nil {
			return fmt.Errorf("update streak: %w", err)
		}
		u.DayStreak, u.LastStreakDate = streak, &last
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	if outcome == StreakClockSkew {
		s.log.Warn("streak date is in the future, leaving streak unchanged",
			"user_id", userID, "last_streak_date", user.LastStreakDate, "today", today.Format(time.DateOnly))
	}
	return user, outcome, nil
}
