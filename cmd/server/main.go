package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Estud-AI/EstudAI/internal/config"
	"github.com/Estud-AI/EstudAI/internal/database"
	"github.com/Estud-AI/EstudAI/internal/handlers"
	"github.com/Estud-AI/EstudAI/internal/logger"
	"github.com/Estud-AI/EstudAI/internal/middleware"
	"github.com/Estud-AI/EstudAI/internal/repository"
	"github.com/Estud-AI/EstudAI/internal/router"
	"github.com/Estud-AI/EstudAI/internal/services"
	"github.com/Estud-AI/EstudAI/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("starting EstudAI backend", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connection failed", "error", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	// ──── Step 3: Run Database Migrations ────
	if err := database.Migrate(ctx, pool, log); err != nil {
		log.Fatal("database migration failed", "error", err)
	}

	// ──── Step 4: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", "error", err)
	}
	defer redisClients.Close()
	log.Info("redis connected")

	// ──── Step 5: Initialize Gemini Client ────
	gemini, err := services.NewGeminiService(ctx, cfg, log)
	if err != nil {
		log.Fatal("gemini client initialization failed", "error", err)
	}
	defer gemini.Close()
	log.Info("gemini client initialized", "model", cfg.GeminiModel, "concurrency", cfg.GeminiConcurrentReqs)

	// ──── Initialize Services ────
	store := repository.NewPGStore(pool)
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	limiter := services.NewRedisLimiter(redisClients.Cmd, cfg.GenerationRequestsPerMin, log)
	publisher := services.NewRedisPublisher(redisClients.Cmd, log)
	study := services.NewStudyService(store, gemini, limiter, publisher, log)
	users := services.NewUserService(store, cfg.StreakLocation(), log)

	// ──── Initialize Handlers ────
	resp := handlers.NewResponder(cfg.IsProduction(), log)
	wsHub := websocket.NewHub(websocket.NewRedisSource(redisClients.PubSub), jwtAuth, log)
	defer wsHub.Close()
	apiLimiter := middleware.NewRateLimiter(cfg.APIRequestsPerMin, time.Minute)
	defer apiLimiter.Stop()

	r := router.New(router.Deps{
		Subjects:    handlers.NewSubjectHandler(study, resp),
		Generation:  handlers.NewGenerationHandler(study, resp),
		Users:       handlers.NewUserHandler(users, jwtAuth, resp),
		AI:          handlers.NewAIHandler(gemini, resp),
		Hub:         wsHub,
		Limiter:     apiLimiter,
		FrontendURL: cfg.FrontendURL,
		Log:         log,
	})

	// Generation calls can take up to GeminiTimeout, so writes get the same budget plus slack.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GeminiTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	}()

	log.Info("EstudAI backend ready", "addr", server.Addr, "api", "/api/v1", "ws", "/api/v1/ws")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", "error", err)
	}
}
