package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azizhamoud35/namatclinic3/internal/api"
	"github.com/azizhamoud35/namatclinic3/internal/config"
	"github.com/azizhamoud35/namatclinic3/internal/repository/mongo"
	"github.com/azizhamoud35/namatclinic3/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logger := newLogger(cfg.Env)
	defer logger.Sync() //nolint:errcheck
	logger.Info("Starting scheduling server", zap.String("env", cfg.Env))

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal("Could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("Failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info("Database connection established", zap.String("database", cfg.Database.Name))

	// --- Ensure Indexes ---
	// The unique (coachId, date) appointment index must exist before the
	// scheduler runs; it backs the conflict detection.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureAvailabilityIndexes(ctx, appDB.Collection("availabilities"))
		mongo.EnsureAppointmentIndexes(ctx, appDB.Collection("appointments"))
		logger.Info("Index creation process completed")
	}()

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	availabilityRepo := mongo.NewMongoAvailabilityRepository(appDB)
	appointmentRepo := mongo.NewMongoAppointmentRepository(appDB)
	settingsRepo := mongo.NewMongoSettingsRepository(appDB)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	schedulingService := service.NewSchedulingService(userRepo, availabilityRepo, appointmentRepo, settingsRepo, logger)
	availabilityService := service.NewAvailabilityService(availabilityRepo, schedulingService, logger)
	appointmentService := service.NewAppointmentService(appointmentRepo)
	autoScheduler := service.NewAutoScheduler(schedulingService, settingsRepo, logger, cfg.Scheduler.Interval)

	// Re-arm the background scheduler if it was enabled before shutdown.
	if err := autoScheduler.Start(context.Background()); err != nil {
		logger.Error("Could not restore auto-scheduling state", zap.Error(err))
	}
	defer autoScheduler.Stop()

	// --- Initialize Gin Engine ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default() // Includes Logger and Recovery middleware

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.JWT.Secret, authService, availabilityService, schedulingService, appointmentService, autoScheduler)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ListenAndServe error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// newLogger builds the process-wide zap logger.
func newLogger(env string) *zap.Logger {
	var zapConfig zap.Config
	if env == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapConfig.OutputPaths = []string{"stdout"}

	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	return logger
}
