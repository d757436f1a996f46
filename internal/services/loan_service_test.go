package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/orangecat-platform/backend/internal/models"
)

func TestFundEligible(t *testing.T) {
	borrower := uuid.New()
	lender := uuid.New()

	cases := []struct {
		name    string
		status  string
		funder  uuid.UUID
		wantErr bool
	}{
		{"approved loan, outside lender", models.LoanStatusApproved, lender, false},
		{"borrower funding own loan", models.LoanStatusApproved, borrower, true},
		{"still requested", models.LoanStatusRequested, lender, true},
		{"already funded", models.LoanStatusFunded, lender, true},
		{"repaid", models.LoanStatusRepaid, lender, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			loan := &models.Loan{Status: c.status, OwnerProfileID: &borrower}
			err := fundEligible(loan, c.funder)
			if (err != nil) != c.wantErr {
				t.Errorf("fundEligible(status=%s, funder=%v) error = %v, wantErr %v", c.status, c.funder, err, c.wantErr)
			}
		})
	}
}
