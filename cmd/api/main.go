package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/authz"
	"github.com/orangecat-platform/backend/internal/config"
	"github.com/orangecat-platform/backend/internal/db"
	"github.com/orangecat-platform/backend/internal/events"
	apphttp "github.com/orangecat-platform/backend/internal/http"
	"github.com/orangecat-platform/backend/internal/http/handlers"
	"github.com/orangecat-platform/backend/internal/repositories"
	"github.com/orangecat-platform/backend/internal/services"
	"github.com/orangecat-platform/backend/internal/storage"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, db.PoolOptions{
		MaxConns: int32(cfg.DBMaxConns),
		MinConns: int32(cfg.DBMinConns),
	}, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Proof object storage
	s3Client, err := storage.NewS3Client(ctx, cfg.S3Region, cfg.S3Endpoint)
	if err != nil {
		log.Fatal("failed to build s3 client", zap.Error(err))
	}
	proofStore := storage.NewProofStore(s3Client, cfg.ProofBucket, cfg.ProofMaxUploadMiB<<20, cfg.ProofPublicBaseURL)

	// Repositories
	profileRepo := repositories.NewProfileRepo(pool)
	actorRepo := repositories.NewActorRepo(pool)
	groupRepo := repositories.NewGroupRepo(pool)
	projectRepo := repositories.NewProjectRepo(pool)
	walletRepo := repositories.NewWalletRepo(pool)
	timelineRepo := repositories.NewTimelineRepo(pool)
	loanRepo := repositories.NewLoanRepo(pool)
	eventRepo := repositories.NewEventRepo(pool)
	messageRepo := repositories.NewMessageRepo(pool)
	assistantRepo := repositories.NewAssistantRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Policy
	policy := authz.NewService(actorRepo, groupRepo, log)

	// Services
	actorService := services.NewActorService(actorRepo, profileRepo, log)
	profileService := services.NewProfileService(profileRepo, actorService, auditRepo, cfg, log)
	timelineService := services.NewTimelineService(timelineRepo, actorRepo, policy, publisher, log)
	groupService := services.NewGroupService(groupRepo, actorRepo, auditRepo, policy, timelineService, log)
	projectService := services.NewProjectService(projectRepo, actorRepo, auditRepo, policy, timelineService, log)
	walletService := services.NewWalletService(walletRepo, actorRepo, auditRepo, policy, timelineService, log)
	loanService := services.NewLoanService(loanRepo, actorRepo, auditRepo, policy, timelineService, publisher, log)
	eventService := services.NewEventService(eventRepo, actorRepo, auditRepo, policy, timelineService, log)
	messageService := services.NewMessageService(messageRepo, groupRepo, profileRepo, publisher, log)
	assistantService := services.NewAssistantService(assistantRepo)
	proofService := services.NewProofService(proofStore, projectRepo, auditRepo, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(profileService, log)
	profileHandler := handlers.NewProfileHandler(profileService, log)
	groupHandler := handlers.NewGroupHandler(groupService, log)
	projectHandler := handlers.NewProjectHandler(projectService, log)
	walletHandler := handlers.NewWalletHandler(walletService, actorRepo, log)
	timelineHandler := handlers.NewTimelineHandler(timelineService, actorRepo, cfg.FeedPageSize, log)
	loanHandler := handlers.NewLoanHandler(loanService, log)
	eventHandler := handlers.NewEventHandler(eventService, log)
	messageHandler := handlers.NewMessageHandler(messageService, log)
	assistantHandler := handlers.NewAssistantHandler(assistantService, log)
	proofHandler := handlers.NewProofHandler(proofService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, messageService, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb,
		authHandler, profileHandler, groupHandler, projectHandler, walletHandler,
		timelineHandler, loanHandler, eventHandler, messageHandler,
		assistantHandler, proofHandler, wsHub,
	)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
