// Package emi implements the EMI ledger engine: pure derivations over a
// loan record snapshot. Installment amounts, due status, penalty accrual,
// and completion are all computed from the snapshot plus a single
// explicitly threaded clock reading; nothing here mutates the record.
package emi

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a loan enquiry. Transitions are owned by
// the surrounding workflow layer; the engine only reads it.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusCompleted   Status = "completed"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// PaymentRecord is one settled billing period. When a payment bundled the
// period's late fee, PenaltyIncluded and PenaltyAmount carry the breakdown.
type PaymentRecord struct {
	Amount          float64   `json:"amount"`
	PaidAt          time.Time `json:"paidAt"`
	PenaltyIncluded bool      `json:"penaltyIncluded,omitempty"`
	PenaltyAmount   float64   `json:"penaltyAmount,omitempty"`
}

// LoanRecord is a read-only snapshot of one loan. Payments is keyed by
// period key (the due date of the billing month, YYYY-MM-DD); at most one
// record exists per key.
type LoanRecord struct {
	ID                uuid.UUID                `json:"id"`
	Principal         float64                  `json:"principalAmount"`
	AnnualRatePercent float64                  `json:"annualRatePercent"`
	TenureMonths      int                      `json:"tenureMonths"`
	EMIStarted        bool                     `json:"emiStarted"`
	EMIDueDay         int                      `json:"emiDueDay"`
	Payments          map[string]PaymentRecord `json:"payments,omitempty"`
	PenaltyAmount     float64                  `json:"penaltyAmount"`
	PenaltyStartedAt  *time.Time               `json:"penaltyStartedAt,omitempty"`
	PenaltyWaived     bool                     `json:"penaltyWaived"`
	Status            Status                   `json:"status"`
	CreatedAt         time.Time                `json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
}

// TotalPaid sums the amounts of all recorded payments.
func (l *LoanRecord) TotalPaid() float64 {
	total := 0.0
	for _, payment := range l.Payments {
		total += payment.Amount
	}
	return total
}
