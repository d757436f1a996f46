package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/config"
	"github.com/orangecat-platform/backend/internal/http/handlers"
	"github.com/orangecat-platform/backend/internal/middleware"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	groupHandler *handlers.GroupHandler,
	projectHandler *handlers.ProjectHandler,
	walletHandler *handlers.WalletHandler,
	timelineHandler *handlers.TimelineHandler,
	loanHandler *handlers.LoanHandler,
	eventHandler *handlers.EventHandler,
	messageHandler *handlers.MessageHandler,
	assistantHandler *handlers.AssistantHandler,
	proofHandler *handlers.ProofHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)

	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Public reads: responses widen when a valid token is attached.
	public := api.Group("", middleware.OptionalAuthMiddleware(cfg))
	public.Get("/feed", timelineHandler.Feed)
	public.Get("/profiles/:username", profileHandler.GetByUsername)
	public.Get("/projects", projectHandler.List)
	public.Get("/projects/:id", projectHandler.Get)
	public.Get("/projects/:id/contributions", projectHandler.ListContributions)
	public.Get("/groups", groupHandler.List)
	public.Get("/groups/:id", groupHandler.Get)
	public.Get("/groups/:id/members", groupHandler.ListMembers)
	public.Get("/events", eventHandler.List)
	public.Get("/events/:id", eventHandler.Get)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Profile
	protected.Get("/me", profileHandler.GetMe)
	protected.Put("/me", profileHandler.UpdateMe)

	// Groups
	protected.Post("/groups", groupHandler.Create)
	protected.Put("/groups/:id", groupHandler.Update)
	protected.Post("/groups/:id/join", groupHandler.Join)
	protected.Post("/groups/:id/leave", groupHandler.Leave)
	protected.Put("/groups/:id/members/:profileId", groupHandler.UpdateMember)

	// Projects
	protected.Post("/projects", projectHandler.Create)
	protected.Put("/projects/:id", projectHandler.Update)
	protected.Post("/projects/:id/status", projectHandler.ChangeStatus)
	protected.Post("/projects/:id/support", projectHandler.Support)

	// Fulfillment proofs
	protected.Post("/contributions/:contributionId/proofs", proofHandler.Upload)
	protected.Delete("/proofs/*", proofHandler.Delete)

	// Wallets
	protected.Post("/wallets", walletHandler.Connect)
	protected.Get("/wallets", walletHandler.List)
	protected.Delete("/wallets/:id", walletHandler.Remove)
	protected.Post("/wallets/:id/transactions", walletHandler.RecordTransaction)
	protected.Get("/wallets/:id/transactions", walletHandler.ListTransactions)

	// Timeline
	protected.Post("/timeline/status", timelineHandler.PostStatus)
	protected.Delete("/timeline/:id", timelineHandler.Delete)

	// Loans
	protected.Post("/loans", loanHandler.Request)
	protected.Get("/loans", loanHandler.List)
	protected.Get("/loans/:id", loanHandler.Get)
	protected.Post("/loans/:id/approve", loanHandler.Approve)
	protected.Post("/loans/:id/reject", loanHandler.Reject)
	protected.Post("/loans/:id/cancel", loanHandler.Cancel)
	protected.Post("/loans/:id/fund", loanHandler.Fund)
	protected.Post("/loans/:id/repay", loanHandler.Repay)

	// Calendar events
	protected.Post("/events", eventHandler.Create)
	protected.Put("/events/:id", eventHandler.Update)
	protected.Post("/events/:id/rsvp", eventHandler.RSVP)

	// Messaging
	protected.Post("/conversations", messageHandler.StartConversation)
	protected.Get("/conversations", messageHandler.ListConversations)
	protected.Get("/conversations/:id/messages", messageHandler.ListMessages)
	protected.Post("/conversations/:id/messages", messageHandler.Send)
	protected.Put("/conversations/:id/messages/:messageId", messageHandler.Edit)
	protected.Delete("/conversations/:id/messages/:messageId", messageHandler.Delete)
	protected.Post("/conversations/:id/read", messageHandler.MarkRead)

	// Assistant preferences
	protected.Get("/assistant/prefs", assistantHandler.Get)
	protected.Put("/assistant/prefs", assistantHandler.Put)

	// WebSocket: per-conversation relay, token passed as a query param.
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws/conversations/:id", websocket.New(wsHub.HandleWS))
}
