package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/evalhub/evalhub-api/internal/config"
	"github.com/evalhub/evalhub-api/internal/database"
	"github.com/evalhub/evalhub-api/internal/handler"
	"github.com/evalhub/evalhub-api/internal/middleware"
	"github.com/evalhub/evalhub-api/internal/models"
	"github.com/evalhub/evalhub-api/internal/repository"
	"github.com/evalhub/evalhub-api/internal/router"
	"github.com/evalhub/evalhub-api/internal/service"
	"github.com/evalhub/evalhub-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Assessment{},
		&models.Question{},
		&models.QuestionOption{},
		&models.Category{},
		&models.Submission{},
		&models.Note{},
		&models.Notification{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, caching and fanout disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, cross-node fanout disabled")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	var drafter ai.FeedbackDrafter
	if cfg.AIProvider == "openai" && cfg.OpenAIAPIKey != "" {
		openAIDrafter, err := ai.NewOpenAIDrafter(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create openai drafter: %v", err)
		}
		drafter = openAIDrafter
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	activityService := service.NewActivityService(activityRepo, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, "evalhub", natsConn, validate, logger)
	notificationService.Start(ctx)

	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.TokenTTL, logger)
	assessmentService := service.NewAssessmentService(assessmentRepo, submissionRepo, activityService, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assessmentRepo, validate, logger)
	evaluationService := service.NewEvaluationService(submissionRepo, validate, activityService, notificationService, drafter, logger)
	challengeService := service.NewChallengeService(submissionRepo, validate, activityService, notificationService, logger)
	categoryService := service.NewCategoryService(categoryRepo, validate, logger)
	noteService := service.NewNoteService(noteRepo, validate, logger)
	dashboardService := service.NewStudentDashboardService(assessmentRepo, submissionRepo, redisClient, cfg.DashboardCacheTTL, logger)

	if err := authService.SeedAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to seed admin account: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:             handler.NewAuthHandler(authService, logger),
		AssessmentHandler:       handler.NewAssessmentHandler(assessmentService, logger),
		SubmissionHandler:       handler.NewSubmissionHandler(submissionService, challengeService, logger),
		CategoryHandler:         handler.NewCategoryHandler(categoryService, logger),
		NoteHandler:             handler.NewNoteHandler(noteService, logger),
		NotificationHandler:     handler.NewNotificationHandler(notificationService, logger, 30*time.Second),
		StudentDashboardHandler: handler.NewStudentDashboardHandler(dashboardService, logger),
		AdminAssessmentHandler:  handler.NewAdminAssessmentHandler(assessmentService, logger),
		AdminGradingHandler:     handler.NewAdminGradingHandler(evaluationService, challengeService, logger),
		AdminActivityHandler:    handler.NewAdminActivityHandler(activityService, logger),
		JWTMiddleware:           middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
