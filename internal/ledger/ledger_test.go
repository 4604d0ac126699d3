package ledger

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/internal/cache"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/internal/store"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/datetime"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/emi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return New(store.NewMemoryStore(), cache.NewMemoryCache(), time.Minute, nil)
}

func at(value string) time.Time {
	return datetime.MustParseTime(time.RFC3339, value)
}

// approvedLoan creates a loan and walks it to approved with an active EMI
// schedule due on the 15th.
func approvedLoan(t *testing.T, l *Ledger, now time.Time) *emi.LoanRecord {
	t.Helper()
	ctx := context.Background()

	loan, err := l.CreateLoan(decimal.NewFromInt(50000), decimal.NewFromInt(18), 12, now)
	if err != nil {
		t.Fatalf("CreateLoan() returned error: %v", err)
	}
	if _, err := l.SetStatus(ctx, loan.ID, emi.StatusApproved, now); err != nil {
		t.Fatalf("SetStatus(approved) returned error: %v", err)
	}
	loan, err = l.StartEMI(ctx, loan.ID, 15, now)
	if err != nil {
		t.Fatalf("StartEMI() returned error: %v", err)
	}
	return loan
}

func TestCreateLoanDefaultsAndValidation(t *testing.T) {
	l := newTestLedger(t)
	now := at("2026-01-05T10:00:00Z")

	loan, err := l.CreateLoan(decimal.NewFromInt(50000), decimal.NewFromInt(18), 0, now)
	if err != nil {
		t.Fatalf("CreateLoan() returned error: %v", err)
	}
	if loan.TenureMonths != 12 {
		t.Errorf("TenureMonths = %d, expected default 12", loan.TenureMonths)
	}
	if loan.Status != emi.StatusPending {
		t.Errorf("Status = %s, expected pending", loan.Status)
	}

	if _, err := l.CreateLoan(decimal.Zero, decimal.NewFromInt(18), 12, now); err == nil {
		t.Error("CreateLoan() accepted a zero principal")
	}
	if _, err := l.CreateLoan(decimal.NewFromInt(50000), decimal.NewFromInt(101), 12, now); err == nil {
		t.Error("CreateLoan() accepted a rate above 100")
	}
}

func TestSetStatusTransitions(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	now := at("2026-01-05T10:00:00Z")

	loan, err := l.CreateLoan(decimal.NewFromInt(50000), decimal.NewFromInt(18), 12, now)
	if err != nil {
		t.Fatalf("CreateLoan() returned error: %v", err)
	}

	if _, err := l.SetStatus(ctx, loan.ID, emi.StatusUnderReview, now); err != nil {
		t.Fatalf("pending -> under_review returned error: %v", err)
	}
	if _, err := l.SetStatus(ctx, loan.ID, emi.StatusApproved, now); err != nil {
		t.Fatalf("under_review -> approved returned error: %v", err)
	}

	// Approved can only complete.
	if _, err := l.SetStatus(ctx, loan.ID, emi.StatusRejected, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("approved -> rejected error = %v, expected ErrInvalidTransition", err)
	}
	if _, err := l.SetStatus(ctx, loan.ID, emi.StatusCompleted, now); err != nil {
		t.Fatalf("approved -> completed returned error: %v", err)
	}
	// Completed is terminal.
	if _, err := l.SetStatus(ctx, loan.ID, emi.StatusPending, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("completed -> pending error = %v, expected ErrInvalidTransition", err)
	}

	if _, err := l.SetStatus(ctx, loan.ID, emi.Status("bogus"), now); err == nil {
		t.Error("SetStatus() accepted an unknown status")
	}
	if _, err := l.SetStatus(ctx, uuid.New(), emi.StatusApproved, now); !errors.Is(err, store.ErrLoanNotFound) {
		t.Errorf("SetStatus() for unknown loan error = %v, expected ErrLoanNotFound", err)
	}
}

func TestStartEMI(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	now := at("2026-01-05T10:00:00Z")

	loan, err := l.CreateLoan(decimal.NewFromInt(50000), decimal.NewFromInt(18), 12, now)
	if err != nil {
		t.Fatalf("CreateLoan() returned error: %v", err)
	}

	// Not yet approved.
	if _, err := l.StartEMI(ctx, loan.ID, 15, now); !errors.Is(err, ErrNotApproved) {
		t.Errorf("StartEMI() error = %v, expected ErrNotApproved", err)
	}

	if _, err := l.SetStatus(ctx, loan.ID, emi.StatusApproved, now); err != nil {
		t.Fatalf("SetStatus() returned error: %v", err)
	}
	if _, err := l.StartEMI(ctx, loan.ID, 32, now); err == nil {
		t.Error("StartEMI() accepted due day 32")
	}

	started, err := l.StartEMI(ctx, loan.ID, 15, now)
	if err != nil {
		t.Fatalf("StartEMI() returned error: %v", err)
	}
	if !started.EMIStarted || started.EMIDueDay != 15 {
		t.Errorf("StartEMI() = started %v, due day %d", started.EMIStarted, started.EMIDueDay)
	}

	if _, err := l.StartEMI(ctx, loan.ID, 15, now); !errors.Is(err, ErrEMIAlreadyStarted) {
		t.Errorf("second StartEMI() error = %v, expected ErrEMIAlreadyStarted", err)
	}
}

func TestRecordPayment(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	loan := approvedLoan(t, l, at("2026-01-05T10:00:00Z"))

	payAt := at("2026-01-10T10:00:00Z")
	payment, err := l.RecordPayment(ctx, loan.ID, decimal.NewFromFloat(4916.67), false, payAt)
	if err != nil {
		t.Fatalf("RecordPayment() returned error: %v", err)
	}
	if math.Abs(payment.Amount-4916.67) > 0.001 {
		t.Errorf("payment amount = %.4f, expected 4916.67", payment.Amount)
	}

	// Same period again.
	if _, err := l.RecordPayment(ctx, loan.ID, decimal.NewFromFloat(4916.67), false, payAt); !errors.Is(err, store.ErrPeriodAlreadyPaid) {
		t.Errorf("duplicate RecordPayment() error = %v, expected ErrPeriodAlreadyPaid", err)
	}

	// Next month is a new period.
	if _, err := l.RecordPayment(ctx, loan.ID, decimal.NewFromFloat(4916.67), false, at("2026-02-10T10:00:00Z")); err != nil {
		t.Fatalf("RecordPayment() for February returned error: %v", err)
	}

	fetched, err := l.GetLoan(loan.ID)
	if err != nil {
		t.Fatalf("GetLoan() returned error: %v", err)
	}
	if len(fetched.Payments) != 2 {
		t.Errorf("loan has %d payments, expected 2", len(fetched.Payments))
	}
	if _, ok := fetched.Payments["2026-01-15"]; !ok {
		t.Errorf("payments missing period 2026-01-15: %v", fetched.Payments)
	}

	if _, err := l.RecordPayment(ctx, loan.ID, decimal.Zero, false, payAt); err == nil {
		t.Error("RecordPayment() accepted a zero amount")
	}
}

func TestRecordPaymentBundlesPenalty(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	loan := approvedLoan(t, l, at("2026-01-05T10:00:00Z"))

	// 6 chargeable days past the January grace window.
	lateAt := at("2026-01-23T06:00:00Z")
	if _, err := l.RefreshPenalty(ctx, loan.ID, lateAt); err != nil {
		t.Fatalf("RefreshPenalty() returned error: %v", err)
	}

	payment, err := l.RecordPayment(ctx, loan.ID, decimal.NewFromFloat(5506.65), true, lateAt)
	if err != nil {
		t.Fatalf("RecordPayment() returned error: %v", err)
	}
	if !payment.PenaltyIncluded {
		t.Error("payment did not flag the bundled penalty")
	}
	if math.Abs(payment.PenaltyAmount-589.98) > 0.001 {
		t.Errorf("bundled penalty = %.4f, expected 589.98", payment.PenaltyAmount)
	}

	fetched, err := l.GetLoan(loan.ID)
	if err != nil {
		t.Fatalf("GetLoan() returned error: %v", err)
	}
	if fetched.PenaltyAmount != 0 || fetched.PenaltyStartedAt != nil {
		t.Errorf("penalty snapshot not cleared after payment: amount %.2f", fetched.PenaltyAmount)
	}
}

func TestRecordPaymentAutoCompletes(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	loan := approvedLoan(t, l, at("2026-01-05T10:00:00Z"))

	// A single payment covering the full expected total.
	if _, err := l.RecordPayment(ctx, loan.ID, decimal.NewFromFloat(59000.04), false, at("2026-01-10T10:00:00Z")); err != nil {
		t.Fatalf("RecordPayment() returned error: %v", err)
	}

	fetched, err := l.GetLoan(loan.ID)
	if err != nil {
		t.Fatalf("GetLoan() returned error: %v", err)
	}
	if fetched.Status != emi.StatusCompleted {
		t.Errorf("status = %s, expected completed after full repayment", fetched.Status)
	}
}

func TestRefreshPenalty(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	loan := approvedLoan(t, l, at("2026-01-05T10:00:00Z"))

	t.Run("Within grace refreshes to zero", func(t *testing.T) {
		refreshed, err := l.RefreshPenalty(ctx, loan.ID, at("2026-01-16T10:00:00Z"))
		if err != nil {
			t.Fatalf("RefreshPenalty() returned error: %v", err)
		}
		if refreshed.PenaltyAmount != 0 || refreshed.PenaltyStartedAt != nil {
			t.Errorf("penalty = %.2f, expected 0 within grace", refreshed.PenaltyAmount)
		}
	})

	t.Run("Past grace accrues", func(t *testing.T) {
		refreshed, err := l.RefreshPenalty(ctx, loan.ID, at("2026-01-23T06:00:00Z"))
		if err != nil {
			t.Fatalf("RefreshPenalty() returned error: %v", err)
		}
		if math.Abs(refreshed.PenaltyAmount-589.98) > 0.001 {
			t.Errorf("penalty = %.4f, expected 589.98", refreshed.PenaltyAmount)
		}
		if refreshed.PenaltyStartedAt == nil || refreshed.PenaltyStartedAt.Format("2006-01-02") != "2026-01-18" {
			t.Errorf("penalty start = %v, expected 2026-01-18", refreshed.PenaltyStartedAt)
		}
	})

	t.Run("Idempotent at the same instant", func(t *testing.T) {
		first, err := l.RefreshPenalty(ctx, loan.ID, at("2026-01-23T06:00:00Z"))
		if err != nil {
			t.Fatalf("RefreshPenalty() returned error: %v", err)
		}
		second, err := l.RefreshPenalty(ctx, loan.ID, at("2026-01-23T06:00:00Z"))
		if err != nil {
			t.Fatalf("RefreshPenalty() returned error: %v", err)
		}
		if first.PenaltyAmount != second.PenaltyAmount {
			t.Errorf("refresh not idempotent: %.4f then %.4f", first.PenaltyAmount, second.PenaltyAmount)
		}
	})

	t.Run("Waived refreshes to zero", func(t *testing.T) {
		if _, err := l.WaivePenalty(ctx, loan.ID, at("2026-01-23T07:00:00Z")); err != nil {
			t.Fatalf("WaivePenalty() returned error: %v", err)
		}
		refreshed, err := l.RefreshPenalty(ctx, loan.ID, at("2026-01-25T06:00:00Z"))
		if err != nil {
			t.Fatalf("RefreshPenalty() returned error: %v", err)
		}
		if refreshed.PenaltyAmount != 0 {
			t.Errorf("penalty = %.2f, expected 0 when waived", refreshed.PenaltyAmount)
		}
	})
}

func TestRefreshPenaltyRequiresStartedEMI(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	now := at("2026-01-05T10:00:00Z")

	loan, err := l.CreateLoan(decimal.NewFromInt(50000), decimal.NewFromInt(18), 12, now)
	if err != nil {
		t.Fatalf("CreateLoan() returned error: %v", err)
	}
	if _, err := l.RefreshPenalty(ctx, loan.ID, now); !errors.Is(err, ErrEMINotStarted) {
		t.Errorf("RefreshPenalty() error = %v, expected ErrEMINotStarted", err)
	}
}

func TestSummaryUsesCache(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	loan := approvedLoan(t, l, at("2026-01-05T10:00:00Z"))

	first, err := l.Summary(ctx, loan.ID, at("2026-01-23T06:00:00Z"))
	if err != nil {
		t.Fatalf("Summary() returned error: %v", err)
	}
	if first.PeriodKey != "2026-01-15" {
		t.Errorf("PeriodKey = %s, expected 2026-01-15", first.PeriodKey)
	}
	if math.Abs(first.AccruedPenalty-589.98) > 0.001 {
		t.Errorf("AccruedPenalty = %.4f, expected 589.98", first.AccruedPenalty)
	}

	// A later instant inside the TTL serves the cached snapshot; this is
	// the throttling policy for penalty recomputation.
	second, err := l.Summary(ctx, loan.ID, at("2026-01-24T06:00:00Z"))
	if err != nil {
		t.Fatalf("Summary() returned error: %v", err)
	}
	if second.AccruedPenalty != first.AccruedPenalty {
		t.Errorf("cached AccruedPenalty = %.4f, expected %.4f", second.AccruedPenalty, first.AccruedPenalty)
	}

	// A mutation invalidates the snapshot.
	if _, err := l.RecordPayment(ctx, loan.ID, decimal.NewFromFloat(4916.67), false, at("2026-01-24T07:00:00Z")); err != nil {
		t.Fatalf("RecordPayment() returned error: %v", err)
	}
	third, err := l.Summary(ctx, loan.ID, at("2026-01-24T08:00:00Z"))
	if err != nil {
		t.Fatalf("Summary() returned error: %v", err)
	}
	if third.DueThisPeriod {
		t.Error("DueThisPeriod = true after the period was settled")
	}
	if third.AccruedPenalty != 0 {
		t.Errorf("AccruedPenalty = %.4f, expected 0 after settlement", third.AccruedPenalty)
	}
}

func TestSummaryAtBypassesCache(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	loan := approvedLoan(t, l, at("2026-01-05T10:00:00Z"))

	first, err := l.Summary(ctx, loan.ID, at("2026-01-23T06:00:00Z"))
	if err != nil {
		t.Fatalf("Summary() returned error: %v", err)
	}
	if first.DaysOverdue != 6 {
		t.Fatalf("DaysOverdue = %d, expected 6", first.DaysOverdue)
	}

	// An explicitly chosen instant one day later is recomputed, never
	// served from the snapshot cached above.
	injected, err := l.SummaryAt(ctx, loan.ID, at("2026-01-24T06:00:00Z"))
	if err != nil {
		t.Fatalf("SummaryAt() returned error: %v", err)
	}
	if injected.DaysOverdue != 7 {
		t.Errorf("DaysOverdue = %d at the injected instant, expected 7", injected.DaysOverdue)
	}
	if math.Abs(injected.AccruedPenalty-688.31) > 0.001 {
		t.Errorf("AccruedPenalty = %.4f at the injected instant, expected 688.31", injected.AccruedPenalty)
	}

	// Wall-clock queries keep being throttled by the snapshot.
	cached, err := l.Summary(ctx, loan.ID, at("2026-01-24T06:00:00Z"))
	if err != nil {
		t.Fatalf("Summary() returned error: %v", err)
	}
	if cached.AccruedPenalty != first.AccruedPenalty {
		t.Errorf("cached AccruedPenalty = %.4f, expected %.4f", cached.AccruedPenalty, first.AccruedPenalty)
	}
}

func TestSummaryWaivedPenalty(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	loan := approvedLoan(t, l, at("2026-01-05T10:00:00Z"))

	if _, err := l.WaivePenalty(ctx, loan.ID, at("2026-01-20T10:00:00Z")); err != nil {
		t.Fatalf("WaivePenalty() returned error: %v", err)
	}

	summary, err := l.Summary(ctx, loan.ID, at("2026-01-23T06:00:00Z"))
	if err != nil {
		t.Fatalf("Summary() returned error: %v", err)
	}
	if summary.AccruedPenalty != 0 {
		t.Errorf("AccruedPenalty = %.4f, expected 0 when waived", summary.AccruedPenalty)
	}
	if summary.DaysOverdue == 0 {
		t.Error("DaysOverdue = 0, the overdue facts should survive a waiver")
	}
}

func TestScheduleFor(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	loan := approvedLoan(t, l, at("2026-01-05T10:00:00Z"))

	if _, err := l.RecordPayment(ctx, loan.ID, decimal.NewFromFloat(4916.67), false, at("2026-01-10T10:00:00Z")); err != nil {
		t.Fatalf("RecordPayment() returned error: %v", err)
	}

	// Asked for in March, the schedule still anchors at the earliest payment.
	entries, err := l.ScheduleFor(loan.ID, at("2026-03-20T10:00:00Z"))
	if err != nil {
		t.Fatalf("ScheduleFor() returned error: %v", err)
	}
	if len(entries) != 12 {
		t.Fatalf("ScheduleFor() returned %d entries, expected 12", len(entries))
	}
	if entries[0].PeriodKey != "2026-01-15" {
		t.Errorf("first period = %s, expected 2026-01-15", entries[0].PeriodKey)
	}
	if !entries[0].Paid {
		t.Error("first entry not marked paid")
	}
}
