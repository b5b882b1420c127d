package api

import (
	"alcyxob/workout-log/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer needs.
type Services struct {
	Auth      service.AuthService
	Tracker   *service.WorkoutTracker
	Backup    *service.BackupService
	Generator TextGenerator
}

func SetupRoutes(router *gin.Engine, services Services) {
	authHandler := NewAuthHandler(services.Auth)
	workoutHandler := NewWorkoutHandler(services.Tracker)
	backupHandler := NewBackupHandler(services.Backup)
	geminiHandler := NewGeminiHandler(services.Generator)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.POST("/api/gemini", geminiHandler.Generate)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/auth/anonymous", authHandler.IssueAnonymous)
		apiV1.GET("/catalog", GetCatalog)
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(services.Auth.GetJWTSecret()))
	{
		protected.GET("/me", authHandler.Me)

		workouts := protected.Group("/workouts")
		{
			workouts.GET("", workoutHandler.GetLog)
			workouts.POST("", workoutHandler.AddExercise)
			workouts.DELETE("/:recordId/sets", workoutHandler.DeleteSet)
			workouts.GET("/exercises", workoutHandler.GetExercises)
			workouts.GET("/progress", workoutHandler.GetProgress)
			workouts.GET("/recent", workoutHandler.GetRecentSets)
			workouts.POST("/import", backupHandler.Import)
			workouts.POST("/export", backupHandler.Export)
		}
	}
}
