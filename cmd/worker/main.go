package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/authz"
	"github.com/orangecat-platform/backend/internal/config"
	"github.com/orangecat-platform/backend/internal/db"
	"github.com/orangecat-platform/backend/internal/events"
	"github.com/orangecat-platform/backend/internal/linkpreview"
	"github.com/orangecat-platform/backend/internal/repositories"
	"github.com/orangecat-platform/backend/internal/services"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, db.PoolOptions{
		MaxConns: int32(cfg.DBMaxConns),
		MinConns: int32(cfg.DBMinConns),
	}, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	profileRepo := repositories.NewProfileRepo(pool)
	actorRepo := repositories.NewActorRepo(pool)
	groupRepo := repositories.NewGroupRepo(pool)
	projectRepo := repositories.NewProjectRepo(pool)
	walletRepo := repositories.NewWalletRepo(pool)
	timelineRepo := repositories.NewTimelineRepo(pool)
	loanRepo := repositories.NewLoanRepo(pool)
	eventRepo := repositories.NewEventRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	policy := authz.NewService(actorRepo, groupRepo, log)
	actorService := services.NewActorService(actorRepo, profileRepo, log)
	timelineService := services.NewTimelineService(timelineRepo, actorRepo, policy, publisher, log)
	loanService := services.NewLoanService(loanRepo, actorRepo, auditRepo, policy, timelineService, publisher, log)
	reconcileService := services.NewReconcileService(projectRepo, walletRepo, loanRepo, eventRepo, log)
	fetcher := linkpreview.NewFetcher(cfg.LinkPreviewTimeout, cfg.LinkPreviewMaxBytes)

	log.Info("worker started")

	reconcileTicker := time.NewTicker(cfg.ReconcileInterval)
	loanDueTicker := time.NewTicker(cfg.LoanDueInterval)
	previewTicker := time.NewTicker(cfg.LinkPreviewInterval)
	backfillTicker := time.NewTicker(10 * time.Minute)
	defer reconcileTicker.Stop()
	defer loanDueTicker.Stop()
	defer previewTicker.Stop()
	defer backfillTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-reconcileTicker.C:
			reconcileService.Run(ctx)
		case <-loanDueTicker.C:
			runLoanDueSweep(ctx, loanService, log)
		case <-previewTicker.C:
			runLinkPreviews(ctx, timelineRepo, fetcher, log)
		case <-backfillTicker.C:
			runActorBackfill(ctx, actorService, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runLoanDueSweep(ctx context.Context, loanService *services.LoanService, log *zap.Logger) {
	n, err := loanService.MarkOverdue(ctx, time.Now())
	if err != nil {
		log.Error("loan due sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("overdue loans flagged", zap.Int("count", n))
	}
}

type previewStore interface {
	ListPendingPreviews(ctx context.Context, limit int) ([]repositories.PendingPreview, error)
	AttachPreview(ctx context.Context, eventID uuid.UUID, url, title string, imageURL *string) error
	MarkPreviewFailed(ctx context.Context, eventID uuid.UUID) error
}

type previewFetcher interface {
	Fetch(ctx context.Context, url string) (*linkpreview.Preview, error)
}

// runLinkPreviews resolves previews for status posts whose content carries a
// URL. Each failed fetch is counted against the row; once the count passes
// the store's cap the row leaves the pending set, so an unreachable URL is
// not re-fetched forever.
func runLinkPreviews(ctx context.Context, store previewStore, fetcher previewFetcher, log *zap.Logger) {
	pending, err := store.ListPendingPreviews(ctx, 50)
	if err != nil {
		log.Error("failed to list pending previews", zap.Error(err))
		return
	}

	for _, p := range pending {
		url := linkpreview.ExtractURL(p.Content)
		if url == "" {
			_ = store.MarkPreviewFailed(ctx, p.EventID)
			continue
		}

		preview, err := fetcher.Fetch(ctx, url)
		if err != nil {
			log.Debug("link preview fetch failed",
				zap.String("event_id", p.EventID.String()),
				zap.String("url", url),
				zap.Error(err),
			)
			_ = store.MarkPreviewFailed(ctx, p.EventID)
			continue
		}

		if err := store.AttachPreview(ctx, p.EventID, preview.URL, preview.Title, preview.ImageURL); err != nil {
			log.Error("failed to attach preview", zap.String("event_id", p.EventID.String()), zap.Error(err))
		}
	}
}

func runActorBackfill(ctx context.Context, actorService *services.ActorService, log *zap.Logger) {
	n, err := actorService.BackfillProfiles(ctx, 200)
	if err != nil {
		log.Error("actor backfill sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("actors backfilled", zap.Int("count", n))
	}
}
