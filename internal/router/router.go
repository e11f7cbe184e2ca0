package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Estud-AI/EstudAI/internal/handlers"
	"github.com/Estud-AI/EstudAI/internal/logger"
	"github.com/Estud-AI/EstudAI/internal/middleware"
	"github.com/Estud-AI/EstudAI/internal/websocket"
)

type Deps struct {
	Subjects    *handlers.SubjectHandler
	Generation  *handlers.GenerationHandler
	Users       *handlers.UserHandler
	AI          *handlers.AIHandler
	Hub         *websocket.Hub
	Limiter     *middleware.RateLimiter
	FrontendURL string
	Log         *logger.Logger
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(accessLog(d.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.FrontendURL))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if d.Hub != nil {
			r.Get("/ws", d.Hub.HandleWebSocket)
		}

		r.Group(func(r chi.Router) {
			if d.Limiter != nil {
				r.Use(d.Limiter.Middleware)
			}

			r.Route("/subjects", func(r chi.Router) {
				r.Post("/", d.Subjects.Create)
				r.Get("/user/{userID}", d.Subjects.ListByUser)
				r.Get("/{id}", d.Subjects.Get)
				r.Delete("/{id}", d.Subjects.Delete)
			})

			r.Post("/flashcards", d.Generation.Flashcards)
			r.Post("/summaries", d.Generation.Summary)
			r.Post("/tests", d.Generation.Test)

			r.Route("/users", func(r chi.Router) {
				r.Post("/register", d.Users.Register)
				r.Post("/register-google", d.Users.Register)
				r.Get("/by-email/{email}", d.Users.GetByEmail)
				r.Get("/{id}/profile", d.Users.GetProfile)
				r.Put("/{id}/profile", d.Users.UpdateProfile)
			})

			r.Post("/streak/update", d.Users.UpdateStreak)
			r.Route("/ai", func(r chi.Router) {
				r.Post("/ask", d.AI.Ask)
				r.Get("/prompts", d.AI.Prompts)
				r.Get("/prompts/{kind}", d.AI.Prompt)
			})
		})
	})

	return r
}

func accessLog(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote", r.RemoteAddr,
				"request_id", r.Header.Get(middleware.RequestIDHeader),
			)
		})
	}
}
