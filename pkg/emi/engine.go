package emi

import (
	"fmt"
	"time"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/constants"
	"go.uber.org/zap"
)

// Engine performs a full derivation pass over a loan record. All
// sub-derivations share the single clock reading passed to Derive so the
// due, grace, and penalty views are mutually consistent.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new derivation engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Derivation is the complete set of derived facts for one loan at one
// instant. When EMI has not started only Completion is populated.
type Derivation struct {
	PeriodKey          string     `json:"periodKey,omitempty"`
	MonthlyInstallment float64    `json:"monthlyInstallment"`
	DueThisPeriod      bool       `json:"dueThisPeriod"`
	DueDate            *time.Time `json:"dueDate,omitempty"`
	PenaltyStartDate   *time.Time `json:"penaltyStartDate,omitempty"`
	InGracePeriod      bool       `json:"inGracePeriod"`
	DaysOverdue        int        `json:"daysOverdue"`
	AccruedPenalty     float64    `json:"accruedPenalty"`
	Completion         Completion `json:"completion"`
}

// Derive computes every derived fact for the loan from a single clock
// reading. Preconditions (due day in range, tenure in range) are rejected
// with a validation error rather than producing nonsensical output.
func (e *Engine) Derive(now time.Time, loan LoanRecord) (Derivation, error) {
	if !loan.EMIStarted {
		e.logger.Debug(fmt.Sprintf("loan %s has no active EMI schedule, deriving completion only", loan.ID),
			zap.String("op", "emi.Derive"),
		)
		return Derivation{Completion: CompletionStatus(loan)}, nil
	}

	if loan.EMIDueDay < constants.MinDueDay || loan.EMIDueDay > constants.MaxDueDay {
		return Derivation{}, fmt.Errorf("due day must be in [%d, %d], got %d",
			constants.MinDueDay, constants.MaxDueDay, loan.EMIDueDay)
	}
	if loan.TenureMonths < constants.MinTenureMonths || loan.TenureMonths > constants.MaxTenureMonths {
		return Derivation{}, fmt.Errorf("tenure must be in [%d, %d] months, got %d",
			constants.MinTenureMonths, constants.MaxTenureMonths, loan.TenureMonths)
	}

	installment, err := MonthlyInstallment(loan.Principal, loan.AnnualRatePercent, loan.TenureMonths)
	if err != nil {
		return Derivation{}, err
	}

	due := DueDate(now, loan.EMIDueDay)
	penaltyStart := PenaltyStartDate(now, loan.EMIDueDay)
	daysOverdue := DaysOverdue(now, loan.EMIDueDay)

	d := Derivation{
		PeriodKey:          CurrentPeriodKey(now, loan.EMIDueDay),
		MonthlyInstallment: installment,
		DueThisPeriod:      IsDueThisPeriod(now, loan.EMIDueDay, loan.Payments),
		DueDate:            &due,
		PenaltyStartDate:   &penaltyStart,
		InGracePeriod:      IsInGracePeriod(now, loan.EMIDueDay),
		DaysOverdue:        daysOverdue,
		AccruedPenalty:     AccruedPenalty(now, loan.EMIDueDay, installment, loan.Payments),
		Completion:         CompletionStatus(loan),
	}

	e.logger.Debug(fmt.Sprintf("derived period %s for loan %s: due=%t grace=%t overdue=%d days",
		d.PeriodKey, loan.ID, d.DueThisPeriod, d.InGracePeriod, d.DaysOverdue),
		zap.String("op", "emi.Derive"),
	)

	return d, nil
}
