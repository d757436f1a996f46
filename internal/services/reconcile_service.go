package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/repositories"
)

// ReconcileService recomputes every cached aggregate from its fact rows and
// repairs drift. The triggers keep counters current on the hot path; this
// sweep is the safety net that makes them trustworthy.
type ReconcileService struct {
	projectRepo *repositories.ProjectRepo
	walletRepo  *repositories.WalletRepo
	loanRepo    *repositories.LoanRepo
	eventRepo   *repositories.EventRepo
	log         *zap.Logger
}

func NewReconcileService(
	projectRepo *repositories.ProjectRepo,
	walletRepo *repositories.WalletRepo,
	loanRepo *repositories.LoanRepo,
	eventRepo *repositories.EventRepo,
	log *zap.Logger,
) *ReconcileService {
	return &ReconcileService{
		projectRepo: projectRepo,
		walletRepo:  walletRepo,
		loanRepo:    loanRepo,
		eventRepo:   eventRepo,
		log:         log,
	}
}

const reconcileBatch = 500

// Run sweeps all aggregate families once. Each family is independent; an
// error in one does not stop the others.
func (s *ReconcileService) Run(ctx context.Context) {
	if err := s.reconcileProjects(ctx); err != nil {
		s.log.Error("project reconciliation failed", zap.Error(err))
	}
	if err := s.reconcileWallets(ctx); err != nil {
		s.log.Error("wallet reconciliation failed", zap.Error(err))
	}
	if err := s.reconcileLoans(ctx); err != nil {
		s.log.Error("loan reconciliation failed", zap.Error(err))
	}
	if err := s.reconcileEvents(ctx); err != nil {
		s.log.Error("event reconciliation failed", zap.Error(err))
	}
}

func (s *ReconcileService) reconcileProjects(ctx context.Context) error {
	for offset := 0; ; offset += reconcileBatch {
		ids, err := s.projectRepo.ListIDs(ctx, reconcileBatch, offset)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		for _, id := range ids {
			want, err := s.projectRepo.RecomputeAggregates(ctx, id)
			if err != nil {
				return err
			}
			have, err := s.projectRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if have.RaisedSats == want.RaisedSats && have.SupportersCount == want.SupportersCount {
				continue
			}

			s.log.Warn("project aggregate drift repaired",
				zap.String("project_id", id.String()),
				zap.Int64("cached_raised", have.RaisedSats),
				zap.Int64("actual_raised", want.RaisedSats),
			)
			if err := s.projectRepo.RepairAggregates(ctx, id, *want); err != nil {
				return err
			}
		}
	}
}

func (s *ReconcileService) reconcileWallets(ctx context.Context) error {
	for offset := 0; ; offset += reconcileBatch {
		ids, err := s.walletRepo.ListActiveIDs(ctx, reconcileBatch, offset)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		for _, id := range ids {
			want, err := s.walletRepo.RecomputeBalance(ctx, id)
			if err != nil {
				return err
			}
			have, err := s.walletRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if have.BalanceSats == want {
				continue
			}

			s.log.Warn("wallet balance drift repaired",
				zap.String("wallet_id", id.String()),
				zap.Int64("cached", have.BalanceSats),
				zap.Int64("actual", want),
			)
			if err := s.walletRepo.RepairBalance(ctx, id, want); err != nil {
				return err
			}
		}
	}
}

func (s *ReconcileService) reconcileLoans(ctx context.Context) error {
	for offset := 0; ; offset += reconcileBatch {
		ids, err := s.loanRepo.ListOpenIDs(ctx, reconcileBatch, offset)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		for _, id := range ids {
			want, err := s.loanRepo.RecomputeOutstanding(ctx, id)
			if err != nil {
				return err
			}
			have, err := s.loanRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if have.OutstandingSats == want {
				continue
			}

			s.log.Warn("loan outstanding drift repaired",
				zap.String("loan_id", id.String()),
				zap.Int64("cached", have.OutstandingSats),
				zap.Int64("actual", want),
			)
			if err := s.loanRepo.RepairOutstanding(ctx, id, want); err != nil {
				return err
			}
		}
	}
}

func (s *ReconcileService) reconcileEvents(ctx context.Context) error {
	for offset := 0; ; offset += reconcileBatch {
		ids, err := s.eventRepo.ListIDs(ctx, reconcileBatch, offset)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		for _, id := range ids {
			want, err := s.eventRepo.RecomputeAttendees(ctx, id)
			if err != nil {
				return err
			}
			have, err := s.eventRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if have.AttendeeCount == want {
				continue
			}

			s.log.Warn("event attendee drift repaired",
				zap.String("event_id", id.String()),
				zap.Int("cached", have.AttendeeCount),
				zap.Int("actual", want),
			)
			if err := s.eventRepo.RepairAttendees(ctx, id, want); err != nil {
				return err
			}
		}
	}
}
