package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/auth"
	"github.com/SAP-F-2025/dump-practice-service/internal/cache"
	"github.com/SAP-F-2025/dump-practice-service/internal/config"
	"github.com/SAP-F-2025/dump-practice-service/internal/handlers"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/dump-practice-service/internal/services"
	"github.com/SAP-F-2025/dump-practice-service/internal/utils"
	"github.com/SAP-F-2025/dump-practice-service/internal/validator"
	"github.com/SAP-F-2025/dump-practice-service/pkg"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewLogger("production").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment)
	slogger := utils.ToSlogLogger(logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}
	repo := postgres.NewRepository(db)
	defer repo.Close()

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to redis")
		os.Exit(1)
	}
	defer redisClient.Close()
	sessions := services.NewRedisSessionStore(cache.NewRedisCache(redisClient, slogger), cfg.SessionTTL)

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Failed to create event publisher")
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.LogError(err, "Failed to close event publisher")
		}
	}()

	// Local accounts sign their own tokens; casdoor accounts are verified
	// against the casdoor certificate and synced on first request.
	var verifier auth.Verifier
	var issuer *auth.LocalIssuer
	switch cfg.AuthProvider {
	case "casdoor":
		verifier = auth.NewCasdoorVerifier(cfg.Casdoor)
	default:
		issuer = auth.NewLocalIssuer(cfg.JWTSecret, cfg.TokenTTL)
		verifier = issuer
	}

	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Sessions:  sessions,
		Publisher: publisher,
		Verifier:  verifier,
		Issuer:    issuer,
		Logger:    slogger,
		Validator: validator.New(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go serviceManager.Quiz().RunSweeper(ctx, cfg.SweepInterval)

	handlerManager := handlers.NewHandlerManager(serviceManager, logger, map[string]handlers.HealthCheck{
		"database": repo.Ping,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlerManager.NewRouter(cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "auth_provider", cfg.AuthProvider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Graceful shutdown failed")
	}
}
