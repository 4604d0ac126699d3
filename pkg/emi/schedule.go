package emi

import (
	"fmt"
	"time"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/constants"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/mathutil"
)

// ScheduleEntry is one expected installment in the repayment schedule.
type ScheduleEntry struct {
	Number        int     `json:"number"`
	PeriodKey     string  `json:"periodKey"`
	Amount        float64 `json:"amount"`
	CumulativeDue float64 `json:"cumulativeDue"`
	Paid          bool    `json:"paid"`
	PaidAmount    float64 `json:"paidAmount,omitempty"`
}

// Schedule generates the expected installment schedule for the loan starting
// from the billing period containing firstPeriod. Each entry's period key is
// the due day anchored in successive calendar months, with recorded payments
// matched up by key.
func Schedule(loan LoanRecord, firstPeriod time.Time) ([]ScheduleEntry, error) {
	if loan.EMIDueDay < constants.MinDueDay || loan.EMIDueDay > constants.MaxDueDay {
		return nil, fmt.Errorf("due day must be in [%d, %d], got %d",
			constants.MinDueDay, constants.MaxDueDay, loan.EMIDueDay)
	}

	installment, err := MonthlyInstallment(loan.Principal, loan.AnnualRatePercent, loan.TenureMonths)
	if err != nil {
		return nil, err
	}

	entries := make([]ScheduleEntry, 0, loan.TenureMonths)
	for i := 0; i < loan.TenureMonths; i++ {
		due := time.Date(firstPeriod.Year(), firstPeriod.Month()+time.Month(i), loan.EMIDueDay,
			0, 0, 0, 0, firstPeriod.Location())
		key := due.Format(constants.PeriodKeyLayout)

		entry := ScheduleEntry{
			Number:        i + 1,
			PeriodKey:     key,
			Amount:        installment,
			CumulativeDue: mathutil.Round(installment * float64(i+1)),
		}
		if payment, ok := loan.Payments[key]; ok {
			entry.Paid = true
			entry.PaidAmount = payment.Amount
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
