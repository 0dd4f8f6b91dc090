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

	"github.com/assessly/assessly-api/internal/config"
	"github.com/assessly/assessly-api/internal/database"
	"github.com/assessly/assessly-api/internal/handler"
	"github.com/assessly/assessly-api/internal/middleware"
	"github.com/assessly/assessly-api/internal/models"
	"github.com/assessly/assessly-api/internal/repository"
	"github.com/assessly/assessly-api/internal/router"
	"github.com/assessly/assessly-api/internal/service"
	"github.com/assessly/assessly-api/internal/session"
	"github.com/assessly/assessly-api/pkg/objectstore"
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
		&models.Module{},
		&models.ModuleInstructor{},
		&models.ModuleStudent{},
		&models.Question{},
		&models.Part{},
		&models.SubQuestion{},
		&models.Artefact{},
		&models.Submission{},
		&models.Answer{},
		&models.Grade{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	sessions := session.NewRedisStore(redisClient, cfg.SessionTTL, logger)

	store, err := objectstore.New(objectstore.Config{
		Endpoint:  cfg.ObjectStoreEndpoint,
		Region:    cfg.ObjectStoreRegion,
		AccessKey: cfg.ObjectStoreAccessKey,
		SecretKey: cfg.ObjectStoreSecretKey,
		Bucket:    cfg.ObjectStoreBucket,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create object store client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	contentRepo := repository.NewContentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	authService := service.NewAuthService(userRepo, sessions, validate, logger)
	moduleService := service.NewModuleService(moduleRepo, contentRepo, userRepo, validate, activityService, logger)
	contentService := service.NewContentService(contentRepo, moduleRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, contentRepo, moduleRepo, validate, activityService, logger)
	gradingService := service.NewGradingService(submissionRepo, contentRepo, moduleRepo, validate, activityService, logger)
	artefactService := service.NewArtefactService(contentRepo, moduleRepo, store, logger)

	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureBootstrapAdmin(bootstrapCtx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminSecret, cfg.BootstrapAdminName); err != nil {
		cancelBootstrap()
		log.Fatalf("failed to bootstrap admin account: %v", err)
	}
	cancelBootstrap()

	authHandler := handler.NewAuthHandler(authService, cfg.IsProduction(), logger)
	moduleHandler := handler.NewModuleHandler(moduleService, logger)
	contentHandler := handler.NewContentHandler(contentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	gradeHandler := handler.NewGradeHandler(gradingService, logger)
	artefactHandler := handler.NewArtefactHandler(artefactService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       authHandler,
		ModuleHandler:     moduleHandler,
		ContentHandler:    contentHandler,
		SubmissionHandler: submissionHandler,
		GradeHandler:      gradeHandler,
		ArtefactHandler:   artefactHandler,
		ActivityHandler:   activityHandler,
		SessionMiddleware: middleware.SessionProtected(sessions, userRepo),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
