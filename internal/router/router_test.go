package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Estud-AI/EstudAI/internal/handlers"
	"github.com/Estud-AI/EstudAI/internal/logger"
	"github.com/Estud-AI/EstudAI/internal/middleware"
	"github.com/Estud-AI/EstudAI/internal/services"
	"github.com/Estud-AI/EstudAI/internal/testutil"
)

func newTestRouter(t *testing.T, limit int) http.Handler {
	t.Helper()
	store := testutil.NewMemStore()
	gen := testutil.NewFakeGenerator("hello")
	resp := handlers.NewResponder(false, logger.Nop())
	study := services.NewStudyService(store, gen, nil, nil, logger.Nop())
	users := services.NewUserService(store, nil, logger.Nop())
	rl := middleware.NewRateLimiter(limit, time.Minute)
	t.Cleanup(rl.Stop)

	return New(Deps{
		Subjects:    handlers.NewSubjectHandler(study, resp),
		Generation:  handlers.NewGenerationHandler(study, resp),
		Users:       handlers.NewUserHandler(users, middleware.NewJWTAuth("s"), resp),
		AI:          handlers.NewAIHandler(gen, resp),
		Limiter:     rl,
		FrontendURL: "http://localhost:5173",
		Log:         logger.Nop(),
	})
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, 10)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
}

func TestRoutes(t *testing.T) {
	h := newTestRouter(t, 100)
	tests := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodPost, "/api/v1/users/register", `{"name":"Ana","email":"ana@example.com"}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/users/register-google", `{"name":"Ana","email":"ana@example.com"}`, http.StatusOK},
		{http.MethodGet, "/api/v1/users/by-email/ana@example.com", "", http.StatusOK},
		{http.MethodGet, "/api/v1/users/1/profile", "", http.StatusOK},
		{http.MethodGet, "/api/v1/subjects/user/1", "", http.StatusOK},
		{http.MethodGet, "/api/v1/subjects/5", "", http.StatusNotFound},
		{http.MethodPost, "/api/v1/streak/update", `{"user_id":1}`, http.StatusOK},
		{http.MethodPost, "/api/v1/ai/ask", `{"prompt":"hi"}`, http.StatusOK},
		{http.MethodGet, "/api/v1/ai/prompts", "", http.StatusOK},
		{http.MethodGet, "/api/v1/ai/prompts/summary?topic=Sets", "", http.StatusOK},
		{http.MethodGet, "/api/v1/nope", "", http.StatusNotFound},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, tc.status, rr.Code, "%s %s: %s", tc.method, tc.path, rr.Body.String())
	}
}

func TestAPIRateLimit(t *testing.T) {
	h := newTestRouter(t, 1)
	codes := []int{}
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/subjects/user/1", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
