package emi

import (
	"time"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/constants"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/datetime"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/mathutil"
)

// PenaltyStartDate returns the first instant from which a late fee can
// accrue for the current billing period: the due date plus the grace window.
func PenaltyStartDate(now time.Time, dueDay int) time.Time {
	return DueDate(now, dueDay).AddDate(0, 0, constants.GraceDays)
}

// IsInGracePeriod reports whether now falls in the grace window: strictly
// after the current period's due date but not past the penalty start date.
// No penalty accrues inside the window.
func IsInGracePeriod(now time.Time, dueDay int) bool {
	due := DueDate(now, dueDay)
	start := PenaltyStartDate(now, dueDay)
	return now.After(due) && !now.After(start)
}

// DaysOverdue returns the number of chargeable days past the grace window
// for the current billing period. The first chargeable day begins the
// instant the penalty start date passes; a partial day counts in full.
func DaysOverdue(now time.Time, dueDay int) int {
	return datetime.DaysElapsed(PenaltyStartDate(now, dueDay), now)
}

// DailyPenalty computes the accrued late fee: a flat percentage of the
// monthly installment charged per chargeable day. The charge is additive per
// day, never compounding on the penalty itself, so the per-day amount is
// rounded to currency precision once and multiplied out. The total can
// therefore differ from rounding installment*rate*days by a fraction of a
// cent per day (4916.67 over 3 days yields 294.99, not 295.00); in exchange
// every additional day adds exactly the same amount.
func DailyPenalty(installment float64, daysOverdue int) float64 {
	if daysOverdue <= 0 || installment <= 0 {
		return 0
	}
	perDay := mathutil.Round(installment * constants.DailyPenaltyRate)
	return perDay * float64(daysOverdue)
}

// AccruedPenalty recomputes the current period's late fee from the clock
// reading. A settled period accrues nothing. The result is idempotent;
// callers persist it as a snapshot rather than incrementing a counter.
func AccruedPenalty(now time.Time, dueDay int, installment float64, payments map[string]PaymentRecord) float64 {
	if !IsDueThisPeriod(now, dueDay, payments) {
		return 0
	}
	return DailyPenalty(installment, DaysOverdue(now, dueDay))
}
