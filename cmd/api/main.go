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

	"github.com/scriptbay/forum-api/internal/config"
	"github.com/scriptbay/forum-api/internal/database"
	"github.com/scriptbay/forum-api/internal/handler"
	"github.com/scriptbay/forum-api/internal/middleware"
	"github.com/scriptbay/forum-api/internal/models"
	"github.com/scriptbay/forum-api/internal/repository"
	"github.com/scriptbay/forum-api/internal/router"
	"github.com/scriptbay/forum-api/internal/service"
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
		&models.Script{},
		&models.DiscussionCategory{},
		&models.Discussion{},
		&models.Comment{},
		&models.ReadMark{},
		&models.DiscussionSubscription{},
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

	discussionRepo := repository.NewDiscussionRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	userRepo := repository.NewUserRepository(db)
	readMarkRepo := repository.NewReadMarkRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	pipeline := service.NewFilterPipeline(categoryRepo, userRepo)
	readStatusService := service.NewReadStatusService(discussionRepo, readMarkRepo, userRepo, cfg.ContentMode, logger)
	events := service.NewActivityPublisher(redisClient, natsConn, logger)
	listingService := service.NewListingService(discussionRepo, userRepo, pipeline, readStatusService, cfg.ContentMode, redisClient, cfg.ListingCacheTTL, logger)
	discussionService := service.NewDiscussionService(discussionRepo, categoryRepo, userRepo, subscriptionRepo, readStatusService, events, cfg.ContentMode, validate, logger)
	subscriptionService := service.NewSubscriptionService(discussionRepo, subscriptionRepo, logger)

	discussionHandler := handler.NewDiscussionHandler(listingService, discussionService, subscriptionService, logger)
	categoryHandler := handler.NewCategoryHandler(categoryRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		DiscussionHandler: discussionHandler,
		CategoryHandler:   categoryHandler,
		JWTOptional:       middleware.JWTOptional(cfg.JWTSecret),
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
