package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Estud-AI/EstudAI/internal/logger"
	"github.com/Estud-AI/EstudAI/internal/models"
	"github.com/Estud-AI/EstudAI/internal/services"
	"github.com/Estud-AI/EstudAI/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestUpsert_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := services.NewUserService(store, time.UTC, logger.Nop())

	first, created, err := svc.Upsert(ctx, services.UpsertInput{Name: "Ana Souza", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.Upsert(ctx, services.UpsertInput{Name: "Ana Souza", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.Count("users", 0))
}

func TestUpsert_UpdatesNameAndNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := services.NewUserService(store, time.UTC, logger.Nop())

	u, _, err := svc.Upsert(ctx, services.UpsertInput{Name: "Ana", Email: "Ana@Example.com ", PhoneNumber: ptr("+5511999998888")})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)

	u2, created, err := svc.Upsert(ctx, services.UpsertInput{Name: "  Ana Maria  ", Email: "ANA@example.com"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, u2.ID)
	assert.Equal(t, "Ana Maria", u2.Name)
	require.NotNil(t, u2.PhoneNumber)
	assert.Equal(t, "+5511999998888", *u2.PhoneNumber, "phone is kept when not supplied")

	stored, err := store.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", stored.Name)
}

func TestUpsert_RetriesAfterLosingInsertRace(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := services.NewUserService(store, time.UTC, logger.Nop())

	_, _, err := svc.Upsert(ctx, services.UpsertInput{Name: "First Writer", Email: "race@example.com"})
	require.NoError(t, err)

	// the second request does not see the committed row and tries to insert
	store.StaleEmailReads(1)
	u, created, err := svc.Upsert(ctx, services.UpsertInput{Name: "Second Writer", Email: "race@example.com"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Second Writer", u.Name)
	assert.Equal(t, 1, store.Count("users", 0))
	assert.Contains(t, store.Ops(), "update_user")
}

func TestUpsert_Validation(t *testing.T) {
	svc := services.NewUserService(testutil.NewMemStore(), time.UTC, logger.Nop())
	tests := []struct {
		name  string
		in    services.UpsertInput
		field string
	}{
		{"short name", services.UpsertInput{Name: " A ", Email: "a@example.com"}, "name"},
		{"bad email", services.UpsertInput{Name: "Ana", Email: "not-an-email"}, "email"},
		{"email without domain", services.UpsertInput{Name: "Ana", Email: "ana@"}, "email"},
		{"email without local part", services.UpsertInput{Name: "Ana", Email: "@example.com"}, "email"},
		{"email with two ats", services.UpsertInput{Name: "Ana", Email: "ana@x@example.com"}, "email"},
		{"blank email", services.UpsertInput{Name: "Ana", Email: "   "}, "email"},
		{"bad phone", services.UpsertInput{Name: "Ana", Email: "a@example.com", PhoneNumber: ptr("12-34")}, "phone_number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Upsert(context.Background(), tt.in)
			var ve *services.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestValidPhone(t *testing.T) {
	for _, p := range []string{"1234567", "+5511999998888", "123456789012345"} {
		assert.True(t, services.ValidPhone(p), p)
	}
	for _, p := range []string{"123456", "1234567890123456", "+55 11 9999", "abc1234567", ""} {
		assert.False(t, services.ValidPhone(p), p)
	}
}

func TestNextStreak(t *testing.T) {
	tests := []struct {
		name       string
		streak     int
		last       *time.Time
		today      string
		wantStreak int
		wantLast   string
		want       services.StreakOutcome
	}{
		{"first ever", 0, nil, "2024-01-10", 1, "2024-01-10", services.StreakStarted},
		{"next day", 4, ptr(date("2024-01-10")), "2024-01-11", 5, "2024-01-11", services.StreakIncremented},
		{"same day", 5, ptr(date("2024-01-11")), "2024-01-11", 5, "2024-01-11", services.StreakUnchanged},
		{"gap of two", 5, ptr(date("2024-01-11")), "2024-01-13", 1, "2024-01-13", services.StreakReset},
		{"across a month", 2, ptr(date("2024-01-31")), "2024-02-01", 3, "2024-02-01", services.StreakIncremented},
		{"across a leap day", 2, ptr(date("2024-02-28")), "2024-03-01", 1, "2024-03-01", services.StreakReset},
		{"future last date", 3, ptr(date("2024-01-15")), "2024-01-13", 3, "2024-01-15", services.StreakClockSkew},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			streak, last, outcome := services.NextStreak(tt.streak, tt.last, date(tt.today))
			assert.Equal(t, tt.wantStreak, streak)
			assert.Equal(t, tt.wantLast, last.Format(time.DateOnly))
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestCivilDate_DST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2024-03-10 is 23 hours long in New York
	before := time.Date(2024, 3, 10, 0, 30, 0, 0, ny)
	after := time.Date(2024, 3, 11, 23, 30, 0, 0, ny)
	last := services.CivilDate(before, ny)

	streak, _, outcome := services.NextStreak(1, &last, services.CivilDate(after, ny))
	assert.Equal(t, services.StreakIncremented, outcome)
	assert.Equal(t, 2, streak)

	// the same instant is a different civil day in Sao Paulo and Tokyo
	instant := time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC)
	sp, _ := time.LoadLocation("America/Sao_Paulo")
	tk, _ := time.LoadLocation("Asia/Tokyo")
	assert.Equal(t, "2024-01-10", services.CivilDate(instant, sp).Format(time.DateOnly))
	assert.Equal(t, "2024-01-11", services.CivilDate(instant, tk).Format(time.DateOnly))
}

func TestUpdateStreak_Scenario(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := services.NewUserService(store, time.UTC, logger.Nop())

	u := &models.User{Name: "Streaker", Email: "streak@example.com"}
	require.NoError(t, store.CreateUser(ctx, u))
	require.NoError(t, store.UpdateStreak(ctx, u.ID, 3, date("2024-01-10")))

	at := func(day string) {
		svc.SetClock(func() time.Time { return date(day).Add(15 * time.Hour) })
	}

	at("2024-01-11")
	got, outcome, err := svc.UpdateStreak(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, services.StreakIncremented, outcome)
	assert.Equal(t, 4, got.DayStreak)
	assert.Equal(t, "2024-01-11", got.LastStreakDate.Format(time.DateOnly))

	got, outcome, err = svc.UpdateStreak(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, services.StreakUnchanged, outcome)
	assert.Equal(t, 4, got.DayStreak)

	at("2024-01-13")
	got, outcome, err = svc.UpdateStreak(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, services.StreakReset, outcome)
	assert.Equal(t, 1, got.DayStreak)

	stored, err := store.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.DayStreak)
	assert.Equal(t, "2024-01-13", stored.LastStreakDate.Format(time.DateOnly))
}

func TestUpdateStreak_ClockSkewIsNoop(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := services.NewUserService(store, time.UTC, logger.Nop())

	u := &models.User{Name: "Skewed", Email: "skew@example.com"}
	require.NoError(t, store.CreateUser(ctx, u))
	require.NoError(t, store.UpdateStreak(ctx, u.ID, 6, date("2024-05-02")))
	before := len(store.Ops())

	svc.SetClock(func() time.Time { return date("2024-05-01") })
	got, outcome, err := svc.UpdateStreak(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, services.StreakClockSkew, outcome)
	assert.Equal(t, 6, got.DayStreak)
	assert.Len(t, store.Ops(), before, "no write on skew")
}

func TestUpdateStreak_Errors(t *testing.T) {
	svc := services.NewUserService(testutil.NewMemStore(), time.UTC, logger.Nop())

	_, _, err := svc.UpdateStreak(context.Background(), 0)
	var ve *services.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, _, err = svc.UpdateStreak(context.Background(), 42)
	var nf *services.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	users := services.NewUserService(store, time.UTC, logger.Nop())
	study := services.NewStudyService(store, testutil.NewFakeGenerator(testutil.LinearAlgebraResponse), nil, nil, logger.Nop())

	u, _, err := users.Upsert(ctx, services.UpsertInput{Name: "Profiled", Email: "p@example.com"})
	require.NoError(t, err)
	_, err = study.CreateFullSubject(ctx, "Linear Algebra", u.ID)
	require.NoError(t, err)

	p, err := users.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStats{Subjects: 1, Flashcards: 2, QuizzesCompleted: 0}, p.Stats)
	assert.Equal(t, "p@example.com", p.Email)

	updated, err := users.UpdateProfile(ctx, u.ID, models.UpdateProfileRequest{PhoneNumber: ptr("11987654321")})
	require.NoError(t, err)
	assert.Equal(t, "Profiled", updated.Name)
	assert.Equal(t, "11987654321", *updated.PhoneNumber)

	_, err = users.UpdateProfile(ctx, u.ID, models.UpdateProfileRequest{Name: ptr("X")})
	var ve *services.ValidationError
	assert.ErrorAs(t, err, &ve)

	got, err := users.GetByEmail(ctx, " P@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = users.GetByEmail(ctx, "nobody@example.com")
	var nf *services.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
