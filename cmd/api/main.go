package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "dealdesk/docs" // This is for Swagger
	"dealdesk/internal/auth"
	"dealdesk/internal/config"
	"dealdesk/internal/database"
	"dealdesk/internal/handlers"
	"dealdesk/internal/keymanager"
	"dealdesk/internal/logger"
	"dealdesk/internal/middleware"
	"dealdesk/internal/repository"
	"dealdesk/internal/service"
	"dealdesk/internal/vault"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Dealdesk API
// @version 1.0
// @description Backend API for tracking investment deals through the pipeline

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level: cfg.Log.Level,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		err := db.Close()
		if err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.RunMigrations("./migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	roleRepo := repository.NewRoleRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	dealRepo := repository.NewDealRepository(db.DB)
	memoRepo := repository.NewMemoRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)
	voteRepo := repository.NewVoteRepository(db.DB)
	activityRepo := repository.NewActivityRepository(db.DB)

	// Initialize token service. With Vault enabled the ECDSA signing
	// key lives in Vault's KV store and survives restarts.
	var authService *auth.Service
	if cfg.Vault.Enabled {
		vaultClient, err := vault.NewClient(&vault.Config{
			Address: cfg.Vault.Address,
			Token:   cfg.Vault.Token,
		})
		if err != nil {
			slog.Error("Failed to initialize Vault client", "error", err)
			os.Exit(1)
		}

		keyManager := keymanager.NewKeyManager(vaultClient, cfg.Vault.KeyPath)
		privateKey, publicKey, err := keyManager.SigningKey()
		if err != nil {
			slog.Error("Failed to load JWT signing key from Vault", "error", err)
			os.Exit(1)
		}

		authService = auth.NewServiceWithKey(privateKey, publicKey, &cfg.JWT)
		slog.Info("JWT signing key loaded from Vault", "vault_addr", cfg.Vault.Address)
	} else {
		authService = auth.NewService(&cfg.JWT)
	}

	// Initialize services
	authSvc := service.NewAuthService(userRepo, roleRepo, sessionRepo, authService)
	userSvc := service.NewUserService(userRepo, roleRepo)
	dealSvc := service.NewDealService(db.DB, dealRepo, activityRepo)
	memoSvc := service.NewMemoService(db.DB, dealRepo, memoRepo, activityRepo)
	collabSvc := service.NewCollaborationService(dealRepo, commentRepo, voteRepo)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService, sessionRepo, userRepo)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authSvc, cfg)
	userHandler := handlers.NewUserHandler(userSvc)
	dealHandler := handlers.NewDealHandler(dealSvc)
	memoHandler := handlers.NewMemoHandler(memoSvc)
	collabHandler := handlers.NewCollaborationHandler(collabSvc)

	// Setup router
	mux := http.NewServeMux()

	protected := func(h http.HandlerFunc) http.Handler {
		return authMw.Authenticate(h)
	}

	// Public routes
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)

	// Auth routes
	mux.Handle("POST /api/v1/auth/register", protected(authHandler.Register))
	mux.Handle("GET /api/v1/auth/me", protected(authHandler.Me))

	// Deal routes
	mux.Handle("GET /api/v1/deals", protected(dealHandler.List))
	mux.Handle("POST /api/v1/deals", protected(dealHandler.Create))
	mux.Handle("GET /api/v1/deals/{id}", protected(dealHandler.Get))
	mux.Handle("PATCH /api/v1/deals/{id}", protected(dealHandler.Update))
	mux.Handle("DELETE /api/v1/deals/{id}", protected(dealHandler.Archive))
	mux.Handle("POST /api/v1/deals/{id}/stage", protected(dealHandler.TransitionStage))
	mux.Handle("GET /api/v1/deals/{id}/activity", protected(dealHandler.ListActivity))

	// Memo routes
	mux.Handle("GET /api/v1/deals/{id}/memos", protected(memoHandler.List))
	mux.Handle("POST /api/v1/deals/{id}/memos", protected(memoHandler.Save))
	mux.Handle("GET /api/v1/deals/{id}/memos/latest", protected(memoHandler.GetLatest))
	mux.Handle("GET /api/v1/deals/{id}/memos/{version}", protected(memoHandler.GetVersion))

	// Collaboration routes
	mux.Handle("GET /api/v1/deals/{id}/comments", protected(collabHandler.ListComments))
	mux.Handle("POST /api/v1/deals/{id}/comments", protected(collabHandler.AddComment))
	mux.Handle("GET /api/v1/deals/{id}/votes", protected(collabHandler.ListVotes))
	mux.Handle("POST /api/v1/deals/{id}/votes", protected(collabHandler.CastVote))
	mux.Handle("GET /api/v1/deals/{id}/votes/summary", protected(collabHandler.VoteSummary))

	// Admin routes
	mux.Handle("GET /api/v1/users",
		authMw.Authenticate(
			middleware.RequirePermission("manage_users")(
				http.HandlerFunc(userHandler.List),
			),
		),
	)
	mux.Handle("PATCH /api/v1/users/{id}",
		authMw.Authenticate(
			middleware.RequirePermission("manage_users")(
				http.HandlerFunc(userHandler.Update),
			),
		),
	)
	mux.Handle("GET /api/v1/roles",
		authMw.Authenticate(
			middleware.RequirePermission("manage_users")(
				http.HandlerFunc(userHandler.ListRoles),
			),
		),
	)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, err := w.Write([]byte(`{"status":"unhealthy","database":"error"}`))
			if err != nil {
				slog.Error("Failed to write health check response", "error", err)
				return
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`{"status":"healthy","version":"` + cfg.App.Version + `"}`))
		if err != nil {
			slog.Error("Failed to write health check response", "error", err)
			return
		}
	})

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.LoggingMiddleware(
		middleware.SecurityHeaders(
			corsMw.Handler(
				rateLimiter.Limit(mux),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
