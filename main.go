package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	api "ireporter-backend/cmd/api"
	authdomain "ireporter-backend/internal/auth/domain"
	authRepo "ireporter-backend/internal/auth/repository"
	"ireporter-backend/internal/auth/scheduler"
	"ireporter-backend/internal/auth/token"
	authUsecase "ireporter-backend/internal/auth/usecase"
	"ireporter-backend/pkg/config"
	"ireporter-backend/pkg/database"
	"ireporter-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	appLogger := logger.New(cfg.LogFormat, cfg.LogLevel, os.Stdout)

	// Initialize database
	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close(db)

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&authdomain.User{}, &authdomain.RevokedToken{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories and use cases (dependency injection)
	store := authRepo.NewStore(db, cfg.BcryptCost)
	issuer := token.NewIssuer(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	authUsecaseInstance := authUsecase.NewAuthUsecase(store, issuer, cfg.BcryptCost, appLogger)

	// Expired denylist entries are dead weight
	janitor := scheduler.NewDenylistJanitor(store, cfg.DenylistPurgeInterval, appLogger)
	janitor.Start()
	defer janitor.Stop()

	handler := api.NewHandler(authUsecaseInstance, cfg, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server
	appLogger.Info("server starting", "port", cfg.Port, "db_driver", cfg.DBDriver)
	if err := handler.Start(ctx, ":"+cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
