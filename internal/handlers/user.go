package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/Estud-AI/EstudAI/internal/models"
	"github.com/Estud-AI/EstudAI/internal/services"
)

type tokenIssuer interface {
	GenerateAccessToken(userID int64, email string) (string, error)
}

type UserHandler struct {
	*Responder
	users  *services.UserService
	tokens tokenIssuer
}

func NewUserHandler(users *services.UserService, tokens tokenIssuer, resp *Responder) *UserHandler {
	return &UserHandler{Responder: resp, users: users, tokens: tokens}
}

// Register creates the user or refreshes the stored name and phone for an
// existing email. Both registration routes share it.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, created, err := h.users.Upsert(r.Context(), services.UpsertInput{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	token, err := h.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]interface{}{
		"ok":           true,
		"user":         user,
		"access_token": token,
	})
}

func (h *UserHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		email = chi.URLParam(r, "email")
	}
	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "user": user})
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	profile, err := h.users.GetProfile(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "profile": profile})
}

// UpdateProfile changes only the fields present in the body.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	var req models.UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), id, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "user": user})
}

var streakMessages = map[services.StreakOutcome]string{
	services.StreakStarted:     "Streak started",
	services.StreakUnchanged:   "Streak already counted today",
	services.StreakIncremented: "Streak increased",
	services.StreakReset:       "Streak reset",
	services.StreakClockSkew:   "Streak unchanged",
}

func (h *UserHandler) UpdateStreak(w http.ResponseWriter, r *http.Request) {
	var req models.StreakRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, outcome, err := h.users.UpdateStreak(r.Context(), req.UserID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"user":    user,
		"outcome": outcome,
		"message": streakMessages[outcome],
	})
}
