package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/getdone/api/internal/auth"
	"github.com/getdone/api/internal/config"
	"github.com/getdone/api/internal/database"
	"github.com/getdone/api/internal/handlers"
	"github.com/getdone/api/internal/middleware"
	"github.com/getdone/api/internal/repository"
	"github.com/getdone/api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		log.WithError(err).Fatal("Failed to create indexes")
	}

	auth.Configure(cfg.JWT.Secret, cfg.JWT.TTL)

	// Repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	mailer := services.NewMailer(cfg.Email, log)
	notificationService := services.NewNotificationService(notificationRepo, mailer, log)
	authService := services.NewAuthService(userRepo)
	groupService := services.NewGroupService(groupRepo, invitationRepo, userRepo, mailer, log)
	taskService := services.NewTaskService(taskRepo, groupRepo, userRepo, notificationService)

	// Background sweep for tasks approaching their due date
	sweeper := services.NewTaskSweeper(taskRepo, userRepo, notificationService, cfg.Sweep.Interval, log)
	sweeper.Start()

	// Handlers
	userHandler := handlers.NewUserHandler(authService, mailer)
	groupHandler := handlers.NewGroupHandler(groupService)
	taskHandler := handlers.NewTaskHandler(taskService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Initialize Gin router
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "GetDone API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// User routes (public)
		users := api.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.POST("/resetPassword", userHandler.ResetPassword)
			users.POST("/validateUserData", userHandler.ValidateUserData)
			users.POST("/sendVerificationCode", userHandler.SendVerificationCode)
			users.POST("/sendResetPasswordCode", userHandler.SendResetPasswordCode)

			// Profile routes (protected)
			users.GET("/profile", middleware.RequireAuth(), userHandler.GetProfile)
			users.PATCH("/profile", middleware.RequireAuth(), userHandler.UpdateProfileField)
			users.PATCH("/firstName", middleware.RequireAuth(), userHandler.UpdateFirstName)
			users.PATCH("/lastName", middleware.RequireAuth(), userHandler.UpdateLastName)
			users.PATCH("/password", middleware.RequireAuth(), userHandler.UpdatePassword)
		}

		// Group routes (protected)
		groups := api.Group("/groups")
		groups.Use(middleware.RequireAuth())
		{
			groups.POST("", groupHandler.CreateGroup)
			groups.GET("", groupHandler.ListGroups)
			groups.POST("/join", groupHandler.JoinGroup)
			groups.POST("/invite", groupHandler.InviteUser)
			groups.POST("/accept", groupHandler.AcceptInvitation)
			groups.GET("/search", groupHandler.SearchGroups)
			groups.GET("/:id", groupHandler.GetGroup)
			groups.GET("/:id/members", groupHandler.GetGroupMembers)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/search", taskHandler.SearchTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.PATCH("/:id/complete", taskHandler.CompleteTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.POST("/:id/comments", taskHandler.AddComment)
			tasks.GET("/:id/comments", taskHandler.ListComments)
		}

		// Notification routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(middleware.RequireAuth())
		{
			notifications.GET("", notificationHandler.List)
			notifications.POST("/markasread", notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.DELETE("/deleteall", notificationHandler.DeleteAll)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
}
