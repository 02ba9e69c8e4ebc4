package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oasisauth/internal/config"
	"oasisauth/internal/database"
	"oasisauth/internal/handlers"
	"oasisauth/internal/repository"
	"oasisauth/internal/security"
	"oasisauth/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)

	// Initialize services
	notifier, err := service.NewEmailService(context.Background(), cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	hasher := service.NewSecretHasher(cfg.HashCost)
	tokens := service.NewTokenIssuer(signingKey(cfg), service.TokenLifetimes{
		Session:            cfg.SessionTokenTTL,
		EmailVerification:  cfg.VerifyTokenTTL,
		ResetAuthorization: cfg.ResetTokenTTL,
	})
	resets := service.NewResetChallengeStore(accountRepo)
	identity := service.NewIdentityService(accountRepo, notifier, hasher, tokens, resets, cfg.AppBaseURL, cfg.MailTimeout)

	// Initialize handlers
	limiter := security.NewRateLimiter(20, time.Minute)
	defer limiter.Close()
	middleware := handlers.NewMiddleware(tokens, limiter)
	authHandler := handlers.NewAuthHandler(identity)

	// Setup routes
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("GET /auth/verify/{token}", authHandler.Verify)
	mux.HandleFunc("POST /auth/resend", middleware.RateLimit(authHandler.Resend))
	mux.HandleFunc("POST /auth/forgot-password", middleware.RateLimit(authHandler.ForgotPassword))
	mux.HandleFunc("GET /auth/verify-reset/{token}", authHandler.VerifyReset)
	mux.HandleFunc("POST /auth/reset", middleware.RateLimit(authHandler.Reset))
	mux.HandleFunc("GET /auth/me", middleware.RequireAuth(authHandler.Me))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// signingKey returns the configured token signing key, generating an
// ephemeral one when unset. An ephemeral key invalidates every
// outstanding token on restart, so it only suits local development.
func signingKey(cfg *config.Config) []byte {
	if len(cfg.SigningKey) > 0 {
		return cfg.SigningKey
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("Failed to generate signing key: %v", err)
	}
	log.Printf("Warning: TOKEN_SIGNING_KEY not set, using ephemeral key %s...", hex.EncodeToString(key[:4]))
	return key
}
