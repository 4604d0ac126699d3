// Package store provides persistence for loan records and their payment
// history.
package store

import (
	"errors"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/emi"
	"github.com/google/uuid"
)

// ErrLoanNotFound is returned when no loan exists under the given ID.
var ErrLoanNotFound = errors.New("loan not found")

// ErrPeriodAlreadyPaid is returned when a payment already exists for the
// billing period; at most one payment record exists per period key.
var ErrPeriodAlreadyPaid = errors.New("payment already recorded for this period")

// Storage defines the interface for database operations related to loans
// and payments.
type Storage interface {
	CreateLoan(loan *emi.LoanRecord) error
	GetLoan(id uuid.UUID) (*emi.LoanRecord, error)
	UpdateLoan(loan *emi.LoanRecord) error
	ListLoans() ([]*emi.LoanRecord, error)

	// RecordPayment inserts a payment under the given period key. The
	// (loan, period) pair is unique; a duplicate returns ErrPeriodAlreadyPaid.
	RecordPayment(loanID uuid.UUID, periodKey string, payment emi.PaymentRecord) error

	Close() error
}
