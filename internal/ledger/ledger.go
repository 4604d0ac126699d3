// Package ledger orchestrates loan persistence, workflow transitions, and
// the EMI derivation engine. All mutations of loan records live here; the
// engine itself only derives.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/internal/cache"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/internal/store"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/constants"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/emi"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/mathutil"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrEMINotStarted is returned when an operation needs an active repayment
// schedule and the loan has none.
var ErrEMINotStarted = errors.New("EMI schedule has not been started")

// ErrEMIAlreadyStarted is returned when activating a schedule twice.
var ErrEMIAlreadyStarted = errors.New("EMI schedule already started")

// ErrNotApproved is returned when starting EMI on a loan that has not been
// approved.
var ErrNotApproved = errors.New("loan is not approved")

// ErrInvalidTransition is returned for a disallowed status change.
var ErrInvalidTransition = errors.New("invalid status transition")

// Ledger handles the business logic for loans and their repayment
// lifecycle.
type Ledger struct {
	storage  store.Storage
	engine   *emi.Engine
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// New creates a Ledger over the given storage and derivation cache.
func New(storage store.Storage, derivationCache cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if derivationCache == nil {
		derivationCache = cache.NewMemoryCache()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &Ledger{
		storage:  storage,
		engine:   emi.NewEngine(logger),
		cache:    derivationCache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// CreateLoan registers a new loan enquiry in the pending state. A zero
// tenure defaults to 12 months.
func (l *Ledger) CreateLoan(principal, annualRate decimal.Decimal, tenureMonths int, now time.Time) (*emi.LoanRecord, error) {
	if tenureMonths == 0 {
		tenureMonths = constants.DefaultTenureMonths
	}

	principalVal := principal.InexactFloat64()
	rateVal := annualRate.InexactFloat64()
	if err := validation.ValidateLoanInputs(principalVal, rateVal, tenureMonths); err != nil {
		return nil, err
	}

	loan := &emi.LoanRecord{
		ID:                uuid.New(),
		Principal:         principalVal,
		AnnualRatePercent: rateVal,
		TenureMonths:      tenureMonths,
		Payments:          make(map[string]emi.PaymentRecord),
		Status:            emi.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := l.storage.CreateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}

	l.logger.Info(fmt.Sprintf("created loan %s: principal %.2f over %d months", loan.ID, principalVal, tenureMonths),
		zap.String("op", "ledger.CreateLoan"),
	)
	return loan, nil
}

// GetLoan retrieves a loan by its ID.
func (l *Ledger) GetLoan(id uuid.UUID) (*emi.LoanRecord, error) {
	return l.storage.GetLoan(id)
}

// ListLoans retrieves all loans.
func (l *Ledger) ListLoans() ([]*emi.LoanRecord, error) {
	return l.storage.ListLoans()
}

// allowedTransitions is the review workflow: staff move an enquiry from
// pending through review to a decision, and an approved loan can be closed
// out once repaid.
var allowedTransitions = map[emi.Status][]emi.Status{
	emi.StatusPending:     {emi.StatusUnderReview, emi.StatusApproved, emi.StatusRejected},
	emi.StatusUnderReview: {emi.StatusApproved, emi.StatusRejected},
	emi.StatusApproved:    {emi.StatusCompleted},
}

// SetStatus applies a workflow transition.
func (l *Ledger) SetStatus(ctx context.Context, id uuid.UUID, status emi.Status, now time.Time) (*emi.LoanRecord, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	loan, err := l.storage.GetLoan(id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range allowedTransitions[loan.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, loan.Status, status)
	}

	loan.Status = status
	loan.UpdatedAt = now
	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to update loan status: %w", err)
	}

	l.invalidate(ctx, loan)
	return loan, nil
}

// StartEMI activates the repayment schedule for an approved loan.
func (l *Ledger) StartEMI(ctx context.Context, id uuid.UUID, dueDay int, now time.Time) (*emi.LoanRecord, error) {
	loan, err := l.storage.GetLoan(id)
	if err != nil {
		return nil, err
	}
	if loan.Status != emi.StatusApproved {
		return nil, ErrNotApproved
	}
	if loan.EMIStarted {
		return nil, ErrEMIAlreadyStarted
	}

	if loan.TenureMonths == 0 {
		loan.TenureMonths = constants.DefaultTenureMonths
	}
	if err := validation.ValidateEMIInputs(loan.Principal, loan.AnnualRatePercent, loan.TenureMonths, dueDay); err != nil {
		return nil, err
	}

	loan.EMIStarted = true
	loan.EMIDueDay = dueDay
	loan.UpdatedAt = now
	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to start EMI: %w", err)
	}

	l.logger.Info(fmt.Sprintf("started EMI for loan %s: due day %d", loan.ID, dueDay),
		zap.String("op", "ledger.StartEMI"),
	)
	l.invalidate(ctx, loan)
	return loan, nil
}

// RecordPayment settles the current billing period with the given amount.
// When includePenalty is set, the accrued late fee at this instant is
// captured in the record's breakdown and the stored penalty snapshot is
// cleared. A second payment for the same period returns
// store.ErrPeriodAlreadyPaid.
func (l *Ledger) RecordPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal, includePenalty bool, now time.Time) (*emi.PaymentRecord, error) {
	loan, err := l.storage.GetLoan(id)
	if err != nil {
		return nil, err
	}
	if !loan.EMIStarted {
		return nil, ErrEMINotStarted
	}
	amountVal := amount.InexactFloat64()
	if amountVal <= 0 {
		return nil, fmt.Errorf("payment amount must be greater than zero, got %s", amount)
	}

	payment := emi.PaymentRecord{
		Amount: mathutil.Round(amountVal),
		PaidAt: now,
	}
	if includePenalty && !loan.PenaltyWaived {
		installment, err := emi.MonthlyInstallment(loan.Principal, loan.AnnualRatePercent, loan.TenureMonths)
		if err != nil {
			return nil, err
		}
		payment.PenaltyIncluded = true
		payment.PenaltyAmount = emi.AccruedPenalty(now, loan.EMIDueDay, installment, loan.Payments)
	}

	periodKey := emi.CurrentPeriodKey(now, loan.EMIDueDay)
	if err := l.storage.RecordPayment(loan.ID, periodKey, payment); err != nil {
		return nil, err
	}
	loan.Payments[periodKey] = payment

	// The period is settled, so the stored penalty snapshot no longer applies.
	loan.PenaltyAmount = 0
	loan.PenaltyStartedAt = nil
	loan.UpdatedAt = now

	if loan.Status == emi.StatusApproved && emi.IsComplete(*loan) {
		loan.Status = emi.StatusCompleted
		l.logger.Info(fmt.Sprintf("loan %s fully repaid, marking completed", loan.ID),
			zap.String("op", "ledger.RecordPayment"),
		)
	}

	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to update loan after payment: %w", err)
	}

	l.logger.Info(fmt.Sprintf("recorded payment of %.2f for loan %s period %s", payment.Amount, loan.ID, periodKey),
		zap.String("op", "ledger.RecordPayment"),
	)
	l.invalidate(ctx, loan)
	return &payment, nil
}

// RefreshPenalty recomputes the stored penalty snapshot from the clock.
// The computation is idempotent: it derives the full amount owed for the
// current period rather than incrementing a counter, so concurrent or
// repeated refreshes converge on the same value. Waived, settled, and
// within-grace periods refresh to zero.
func (l *Ledger) RefreshPenalty(ctx context.Context, id uuid.UUID, now time.Time) (*emi.LoanRecord, error) {
	loan, err := l.storage.GetLoan(id)
	if err != nil {
		return nil, err
	}
	if !loan.EMIStarted {
		return nil, ErrEMINotStarted
	}

	penalty := 0.0
	if !loan.PenaltyWaived {
		installment, err := emi.MonthlyInstallment(loan.Principal, loan.AnnualRatePercent, loan.TenureMonths)
		if err != nil {
			return nil, err
		}
		penalty = emi.AccruedPenalty(now, loan.EMIDueDay, installment, loan.Payments)
	}

	loan.PenaltyAmount = penalty
	if penalty > 0 {
		startedAt := emi.PenaltyStartDate(now, loan.EMIDueDay)
		loan.PenaltyStartedAt = &startedAt
	} else {
		loan.PenaltyStartedAt = nil
	}
	loan.UpdatedAt = now

	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to refresh penalty: %w", err)
	}

	l.logger.Debug(fmt.Sprintf("refreshed penalty for loan %s: %.2f", loan.ID, penalty),
		zap.String("op", "ledger.RefreshPenalty"),
	)
	l.invalidate(ctx, loan)
	return loan, nil
}

// WaivePenalty forgives the current late fee. The engine stays unaware of
// waivers; the ledger simply zeroes the snapshot and stops refreshing it.
func (l *Ledger) WaivePenalty(ctx context.Context, id uuid.UUID, now time.Time) (*emi.LoanRecord, error) {
	loan, err := l.storage.GetLoan(id)
	if err != nil {
		return nil, err
	}

	loan.PenaltyWaived = true
	loan.PenaltyAmount = 0
	loan.PenaltyStartedAt = nil
	loan.UpdatedAt = now

	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to waive penalty: %w", err)
	}

	l.logger.Info(fmt.Sprintf("waived penalty for loan %s", loan.ID),
		zap.String("op", "ledger.WaivePenalty"),
	)
	l.invalidate(ctx, loan)
	return loan, nil
}

// Summary returns the full derivation for a loan at the given instant,
// served from the cache when a fresh snapshot exists.
func (l *Ledger) Summary(ctx context.Context, id uuid.UUID, now time.Time) (emi.Derivation, error) {
	loan, err := l.storage.GetLoan(id)
	if err != nil {
		return emi.Derivation{}, err
	}

	key := l.summaryKey(loan)
	if cached, ok := l.cache.Get(ctx, key); ok {
		var derivation emi.Derivation
		if err := json.Unmarshal([]byte(cached), &derivation); err == nil {
			return derivation, nil
		}
		// Unreadable snapshot; fall through and recompute.
		_ = l.cache.Delete(ctx, key)
	}

	derivation, err := l.derive(loan, now)
	if err != nil {
		return emi.Derivation{}, err
	}

	if encoded, err := json.Marshal(derivation); err == nil {
		if err := l.cache.Set(ctx, key, string(encoded), l.cacheTTL); err != nil {
			l.logger.Warn("failed to cache derivation snapshot",
				zap.String("op", "ledger.Summary"),
				zap.Error(err),
			)
		}
	}

	return derivation, nil
}

// SummaryAt returns the full derivation for an explicitly chosen instant.
// The cache is skipped entirely: snapshots throttle wall-clock queries and
// must not answer for a different injected clock reading.
func (l *Ledger) SummaryAt(ctx context.Context, id uuid.UUID, at time.Time) (emi.Derivation, error) {
	loan, err := l.storage.GetLoan(id)
	if err != nil {
		return emi.Derivation{}, err
	}
	return l.derive(loan, at)
}

func (l *Ledger) derive(loan *emi.LoanRecord, now time.Time) (emi.Derivation, error) {
	derivation, err := l.engine.Derive(now, *loan)
	if err != nil {
		return emi.Derivation{}, err
	}
	if loan.PenaltyWaived {
		derivation.AccruedPenalty = 0
	}
	return derivation, nil
}

// ScheduleFor returns the expected installment schedule for a loan. The
// first period anchors at the earliest recorded payment when one exists,
// otherwise at the current billing period.
func (l *Ledger) ScheduleFor(id uuid.UUID, now time.Time) ([]emi.ScheduleEntry, error) {
	loan, err := l.storage.GetLoan(id)
	if err != nil {
		return nil, err
	}
	if !loan.EMIStarted {
		return nil, ErrEMINotStarted
	}

	firstPeriod := now
	earliest := ""
	for key := range loan.Payments {
		if earliest == "" || key < earliest {
			earliest = key
		}
	}
	if earliest != "" {
		if parsed, err := time.Parse(constants.PeriodKeyLayout, earliest); err == nil {
			firstPeriod = parsed
		}
	}

	return emi.Schedule(*loan, firstPeriod)
}

func (l *Ledger) summaryKey(loan *emi.LoanRecord) string {
	return fmt.Sprintf("emi:summary:%s", loan.ID)
}

func (l *Ledger) invalidate(ctx context.Context, loan *emi.LoanRecord) {
	if err := l.cache.Delete(ctx, l.summaryKey(loan)); err != nil {
		l.logger.Warn("failed to invalidate derivation snapshot",
			zap.String("op", "ledger.invalidate"),
			zap.Error(err),
		)
	}
}
