package main

import (
	"alcyxob/workout-log/internal/api"
	"alcyxob/workout-log/internal/config"
	"alcyxob/workout-log/internal/gemini"
	"alcyxob/workout-log/internal/logging"
	"alcyxob/workout-log/internal/metrics"
	"alcyxob/workout-log/internal/repository"
	"alcyxob/workout-log/internal/repository/memory"
	"alcyxob/workout-log/internal/repository/mongo"
	"alcyxob/workout-log/internal/service"
	"alcyxob/workout-log/internal/storage"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// @title Workout Log API
// @version 1.0
// @description Free-text gym workout log with per-exercise progression.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logging.Setup(logging.Params{
		Level:    cfg.Log.Level,
		JSON:     cfg.Log.JSON,
		FileName: cfg.Log.FileName,
		ToStdout: cfg.Log.ToStdout,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	log.WithFields(log.Fields{
		"address": cfg.Server.Address,
		"driver":  cfg.Database.Driver,
		"model":   cfg.Gemini.Model,
	}).Info("starting workout log server")

	// --- Repositories ---
	var (
		userRepo    repository.UserRepository
		workoutRepo repository.WorkoutRepository
	)
	switch cfg.Database.Driver {
	case "memory":
		log.Warn("using in-memory store, data is lost on exit")
		userRepo = memory.NewUserRepository()
		workoutRepo = memory.NewWorkoutRepository()
	default:
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			log.Fatalf("could not connect to MongoDB: %v", err)
		}
		defer func() {
			log.Info("disconnecting MongoDB")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				log.WithError(err).Error("failed to disconnect MongoDB")
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)

		indexCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err = mongo.EnsureIndexes(indexCtx, appDB)
		cancel()
		if err != nil {
			log.Fatalf("could not create indexes: %v", err)
		}
		log.WithField("database", cfg.Database.Name).Info("database connection established")

		userRepo = mongo.NewMongoUserRepository(appDB)
		workoutRepo = mongo.NewMongoWorkoutRepository(appDB)
	}

	// --- Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(context.Background(), cfg.S3)
		if err != nil {
			log.Fatalf("failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Info("no S3 bucket configured, log export disabled")
	}

	// --- Services ---
	metricsManager := metrics.NewManager("workout_log", "server", prometheus.DefaultRegisterer)
	geminiClient := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
		Timeout: cfg.Gemini.Timeout,
	})

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	tracker := service.NewWorkoutTracker(workoutRepo, geminiClient, metricsManager, cfg.Tracker.RecentSetsLimit)
	backupService := service.NewBackupService(tracker, fileStorage)

	// --- Router ---
	if !log.IsLevelEnabled(log.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(), api.RequestMetrics(metricsManager))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api.SetupRoutes(router, api.Services{
		Auth:      authService,
		Tracker:   tracker,
		Backup:    backupService,
		Generator: geminiClient,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		log.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server exiting")
}
