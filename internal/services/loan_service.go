package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/authz"
	"github.com/orangecat-platform/backend/internal/events"
	"github.com/orangecat-platform/backend/internal/models"
	"github.com/orangecat-platform/backend/internal/repositories"
)

type LoanService struct {
	loanRepo  *repositories.LoanRepo
	actorRepo *repositories.ActorRepo
	auditRepo *repositories.AuditRepo
	policy    *authz.Service
	timeline  *TimelineService
	publisher events.Publisher
	log       *zap.Logger
}

func NewLoanService(
	loanRepo *repositories.LoanRepo,
	actorRepo *repositories.ActorRepo,
	auditRepo *repositories.AuditRepo,
	policy *authz.Service,
	timeline *TimelineService,
	publisher events.Publisher,
	log *zap.Logger,
) *LoanService {
	return &LoanService{
		loanRepo:  loanRepo,
		actorRepo: actorRepo,
		auditRepo: auditRepo,
		policy:    policy,
		timeline:  timeline,
		publisher: publisher,
		log:       log,
	}
}

// transition validates and applies a loan status change with audit logging
// and a change-feed event.
func (s *LoanService) transition(ctx context.Context, loan *models.Loan, newStatus string, actorID *uuid.UUID, actorType string) error {
	if !models.IsValidLoanTransition(loan.Status, newStatus) {
		return fmt.Errorf("invalid transition from %s to %s", loan.Status, newStatus)
	}

	oldStatus := loan.Status
	if err := s.loanRepo.UpdateStatus(ctx, loan.ID, newStatus); err != nil {
		return err
	}
	loan.Status = newStatus

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: actorID,
		ActorType:      actorType,
		Action:         fmt.Sprintf("loan_status_%s_to_%s", oldStatus, newStatus),
		EntityKind:     "loan",
		EntityID:       &loan.ID,
		Meta:           map[string]any{"old_status": oldStatus, "new_status": newStatus},
	})

	_ = s.publisher.Publish(ctx, events.StreamLoans, events.Event{
		Type: events.EventLoanStatusChanged,
		Payload: map[string]any{
			"loan_id":    loan.ID.String(),
			"old_status": oldStatus,
			"new_status": newStatus,
		},
	})

	return nil
}

type RequestLoanInput struct {
	Purpose       string
	PrincipalSats int64
	Visibility    string
	DueAt         *time.Time
}

func (s *LoanService) Request(ctx context.Context, requesterID uuid.UUID, in RequestLoanInput) (*models.Loan, error) {
	if in.Purpose == "" {
		return nil, fmt.Errorf("loan purpose is required")
	}
	if in.PrincipalSats <= 0 {
		return nil, fmt.Errorf("principal must be positive")
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPrivate
	}
	if !models.IsValidVisibility(in.Visibility) {
		return nil, fmt.Errorf("invalid visibility %q", in.Visibility)
	}

	actor, err := s.actorRepo.GetByProfileID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("requester has no actor: %w", err)
	}

	loan := &models.Loan{
		Purpose:        in.Purpose,
		Status:         models.LoanStatusRequested,
		Visibility:     in.Visibility,
		PrincipalSats:  in.PrincipalSats,
		DueAt:          in.DueAt,
		ActorID:        &actor.ID,
		OwnerProfileID: &requesterID,
	}
	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, err
	}
	loan.OutstandingSats = loan.PrincipalSats

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &requesterID,
		ActorType:      "user",
		Action:         "loan_requested",
		EntityKind:     "loan",
		EntityID:       &loan.ID,
		Meta:           map[string]any{"principal_sats": in.PrincipalSats},
	})

	return loan, nil
}

func (s *LoanService) Get(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	visible := loan.Visibility != models.VisibilityPrivate
	own := authz.Ownership{ActorID: loan.ActorID, OwnerProfileID: loan.OwnerProfileID}

	ok, err := s.policy.CanRead(ctx, viewer, visible, own)
	if err != nil {
		return nil, err
	}
	if !ok && viewer != nil && loan.LenderActorID != nil {
		// The lender always sees the loan they funded.
		if lender, err := s.actorRepo.GetByID(ctx, *loan.LenderActorID); err == nil {
			ok = lender.Kind == models.ActorKindUser && lender.ProfileID != nil && *lender.ProfileID == *viewer
		}
	}
	if !ok {
		return nil, fmt.Errorf("loan not found")
	}
	return loan, nil
}

func (s *LoanService) List(ctx context.Context, f repositories.LoanFilter) ([]models.Loan, error) {
	return s.loanRepo.List(ctx, f)
}

// Approve and Reject are borrower-side decisions on the request.
func (s *LoanService) Approve(ctx context.Context, id, requesterID uuid.UUID) (*models.Loan, error) {
	return s.ownerTransition(ctx, id, requesterID, models.LoanStatusApproved)
}

func (s *LoanService) Reject(ctx context.Context, id, requesterID uuid.UUID) (*models.Loan, error) {
	return s.ownerTransition(ctx, id, requesterID, models.LoanStatusRejected)
}

func (s *LoanService) Cancel(ctx context.Context, id, requesterID uuid.UUID) (*models.Loan, error) {
	return s.ownerTransition(ctx, id, requesterID, models.LoanStatusCancelled)
}

func (s *LoanService) ownerTransition(ctx context.Context, id, requesterID uuid.UUID, newStatus string) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireWrite(ctx, requesterID, loan); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, loan, newStatus, &requesterID, "user"); err != nil {
		return nil, err
	}
	return loan, nil
}

// fundEligible checks the lender-side preconditions that need no lookups.
func fundEligible(loan *models.Loan, lenderProfileID uuid.UUID) error {
	if loan.OwnerProfileID != nil && *loan.OwnerProfileID == lenderProfileID {
		return fmt.Errorf("cannot fund your own loan")
	}
	if !models.IsValidLoanTransition(loan.Status, models.LoanStatusFunded) {
		return fmt.Errorf("invalid transition from %s to %s", loan.Status, models.LoanStatusFunded)
	}
	return nil
}

// Fund records the lender and marks the loan funded in one write. The lender
// is any profile other than the borrower who can see the loan.
func (s *LoanService) Fund(ctx context.Context, id, lenderProfileID uuid.UUID) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fundEligible(loan, lenderProfileID); err != nil {
		return nil, err
	}

	visible := loan.Visibility != models.VisibilityPrivate
	ok, err := s.policy.CanRead(ctx, &lenderProfileID, visible, authz.Ownership{
		ActorID:        loan.ActorID,
		OwnerProfileID: loan.OwnerProfileID,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("loan not found")
	}

	lenderActor, err := s.actorRepo.GetByProfileID(ctx, lenderProfileID)
	if err != nil {
		return nil, fmt.Errorf("lender has no actor: %w", err)
	}

	if err := s.loanRepo.MarkFunded(ctx, id, lenderActor.ID); err != nil {
		return nil, err
	}
	oldStatus := loan.Status
	loan.Status = models.LoanStatusFunded
	loan.LenderActorID = &lenderActor.ID

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorProfileID: &lenderProfileID,
		ActorType:      "user",
		Action:         fmt.Sprintf("loan_status_%s_to_%s", oldStatus, loan.Status),
		EntityKind:     "loan",
		EntityID:       &loan.ID,
		Meta:           map[string]any{"old_status": oldStatus, "new_status": loan.Status},
	})

	_ = s.publisher.Publish(ctx, events.StreamLoans, events.Event{
		Type: events.EventLoanStatusChanged,
		Payload: map[string]any{
			"loan_id":    loan.ID.String(),
			"old_status": oldStatus,
			"new_status": loan.Status,
		},
	})

	if loan.ActorID != nil && loan.Visibility != models.VisibilityPrivate {
		_, _ = s.timeline.Emit(ctx, EmitInput{
			ActorID:      lenderActor.ID,
			EventType:    models.EventLoanFunded,
			Subject:      models.EntityRef{Kind: models.RefKindLoan, ID: loan.ID},
			SubjectTitle: &loan.Purpose,
			Visibility:   loan.Visibility,
			Metadata:     map[string]any{"principal_sats": loan.PrincipalSats},
		})
	}

	return loan, nil
}

// Repay records a repayment. The first repayment moves the loan to
// repaying; reaching zero outstanding moves it to repaid.
func (s *LoanService) Repay(ctx context.Context, id, requesterID uuid.UUID, amountSats int64, txid *string) (*models.Loan, error) {
	if amountSats <= 0 {
		return nil, fmt.Errorf("repayment amount must be positive")
	}

	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireWrite(ctx, requesterID, loan); err != nil {
		return nil, err
	}

	if loan.Status == models.LoanStatusFunded {
		if err := s.transition(ctx, loan, models.LoanStatusRepaying, &requesterID, "user"); err != nil {
			return nil, err
		}
	}
	if loan.Status != models.LoanStatusRepaying {
		return nil, fmt.Errorf("loan is not accepting repayments in status %s", loan.Status)
	}

	rep := &models.LoanRepayment{LoanID: id, AmountSats: amountSats, TxID: txid}
	if err := s.loanRepo.AddRepayment(ctx, rep); err != nil {
		return nil, err
	}

	loan, err = s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan.OutstandingSats == 0 {
		if err := s.transition(ctx, loan, models.LoanStatusRepaid, &requesterID, "user"); err != nil {
			return nil, err
		}
		if loan.ActorID != nil && loan.Visibility != models.VisibilityPrivate {
			_, _ = s.timeline.Emit(ctx, EmitInput{
				ActorID:      *loan.ActorID,
				EventType:    models.EventLoanRepaid,
				Subject:      models.EntityRef{Kind: models.RefKindLoan, ID: loan.ID},
				SubjectTitle: &loan.Purpose,
				Visibility:   loan.Visibility,
			})
		}
	}

	return loan, nil
}

// MarkOverdue flags loans past their due date. Called by the worker; the
// status stays funded/repaying, only the overdue event is published so
// downstream consumers can notify.
func (s *LoanService) MarkOverdue(ctx context.Context, cutoff time.Time) (int, error) {
	loans, err := s.loanRepo.ListDueBefore(ctx, cutoff, 100)
	if err != nil {
		return 0, err
	}
	for i := range loans {
		_ = s.publisher.Publish(ctx, events.StreamLoans, events.Event{
			Type: events.EventLoanOverdue,
			Payload: map[string]any{
				"loan_id": loans[i].ID.String(),
				"due_at":  loans[i].DueAt,
			},
		})
	}
	return len(loans), nil
}

// Default marks a loan defaulted. System or borrower action.
func (s *LoanService) Default(ctx context.Context, id uuid.UUID, requesterID *uuid.UUID) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	actorType := "system"
	if requesterID != nil {
		if err := s.requireWrite(ctx, *requesterID, loan); err != nil {
			return nil, err
		}
		actorType = "user"
	}
	if err := s.transition(ctx, loan, models.LoanStatusDefaulted, requesterID, actorType); err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *LoanService) requireWrite(ctx context.Context, requesterID uuid.UUID, loan *models.Loan) error {
	ok, err := s.policy.CanWrite(ctx, requesterID, authz.Ownership{
		ActorID:        loan.ActorID,
		OwnerProfileID: loan.OwnerProfileID,
	}, authz.CapManageProjects)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not allowed to modify this loan")
	}
	return nil
}
