// Package testutil provides common utility functions for testing.
package testutil

import (
	"time"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/emi"
	"github.com/google/uuid"
)

// FindEntry finds a schedule entry by period key in the entries slice.
// Returns a pointer to the entry if found, nil otherwise.
func FindEntry(entries []emi.ScheduleEntry, periodKey string) *emi.ScheduleEntry {
	for i := range entries {
		if entries[i].PeriodKey == periodKey {
			return &entries[i]
		}
	}
	return nil
}

// ActiveLoan builds an approved loan record with a started repayment
// schedule, suitable as a baseline fixture.
func ActiveLoan(principal, annualRatePercent float64, tenureMonths, dueDay int, createdAt time.Time) emi.LoanRecord {
	return emi.LoanRecord{
		ID:                uuid.New(),
		Principal:         principal,
		AnnualRatePercent: annualRatePercent,
		TenureMonths:      tenureMonths,
		EMIStarted:        true,
		EMIDueDay:         dueDay,
		Payments:          make(map[string]emi.PaymentRecord),
		Status:            emi.StatusApproved,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}
}

// PayPeriods settles the given period keys on the loan with the given
// amount each and returns the loan for chaining.
func PayPeriods(loan emi.LoanRecord, amount float64, periodKeys ...string) emi.LoanRecord {
	for _, key := range periodKeys {
		paidAt, err := time.Parse("2006-01-02", key)
		if err != nil {
			paidAt = loan.CreatedAt
		}
		loan.Payments[key] = emi.PaymentRecord{Amount: amount, PaidAt: paidAt}
	}
	return loan
}
