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
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campuslife/activity-api/internal/config"
	"github.com/campuslife/activity-api/internal/database"
	"github.com/campuslife/activity-api/internal/handler"
	"github.com/campuslife/activity-api/internal/middleware"
	"github.com/campuslife/activity-api/internal/models"
	"github.com/campuslife/activity-api/internal/repository"
	"github.com/campuslife/activity-api/internal/router"
	"github.com/campuslife/activity-api/internal/service"
	"github.com/campuslife/activity-api/internal/token"
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
		&models.Identity{},
		&models.Activity{},
		&models.Application{},
		&models.Attendance{},
		&models.Notification{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	identityRepo := repository.NewIdentityRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	authority := token.NewAuthority(cfg.JWTSecret, cfg.TokenTTL, identityRepo, redisClient, cfg.EpochCacheTTL, logger)
	hooks := service.NewSideEffects(logger, cfg.SynchronousHooks)

	auditService := service.NewAuditService(auditRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, identityRepo, redisClient, cfg.NotifyChannel, natsConn, logger)
	authService := service.NewAuthService(identityRepo, authority, auditService, hooks, validate, logger)
	activityService := service.NewActivityService(activityRepo, applicationRepo, notificationService, auditService, hooks, validate, logger)
	applicationService := service.NewApplicationService(applicationRepo, activityRepo, notificationService, auditService, hooks, validate, logger)

	runCtx, stopRelays := context.WithCancel(context.Background())
	defer stopRelays()
	notificationService.Start(runCtx)

	authHandler := handler.NewAuthHandler(authService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)
	applicationHandler := handler.NewApplicationHandler(applicationService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger, cfg.SSEKeepAlive)
	auditHandler := handler.NewAuditHandler(auditService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         authHandler,
		ActivityHandler:     activityHandler,
		ApplicationHandler:  applicationHandler,
		NotificationHandler: notificationHandler,
		AuditHandler:        auditHandler,
		Verify:              authority.Verify,
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
