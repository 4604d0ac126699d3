package emi

import (
	"time"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/constants"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/datetime"
)

// DueDate returns the installment due date for the billing period containing
// now: now's year and month anchored to the loan's fixed due day. The period
// rolls at each month boundary, not at the due day itself.
func DueDate(now time.Time, dueDay int) time.Time {
	return datetime.AnchoredDate(now, dueDay)
}

// CurrentPeriodKey returns the key identifying the billing period containing
// now. Payments are recorded under this key, one per period.
func CurrentPeriodKey(now time.Time, dueDay int) string {
	return DueDate(now, dueDay).Format(constants.PeriodKeyLayout)
}

// IsDueThisPeriod reports whether the current billing period still awaits a
// payment. A period is settled the instant a payment record exists under its
// key, independent of whether it was paid early, on time, or late.
func IsDueThisPeriod(now time.Time, dueDay int, payments map[string]PaymentRecord) bool {
	_, paid := payments[CurrentPeriodKey(now, dueDay)]
	return !paid
}
