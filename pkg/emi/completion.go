package emi

import (
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/constants"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/mathutil"
)

// Completion reports repayment progress against the expected total.
type Completion struct {
	IsComplete           bool    `json:"isComplete"`
	TotalPaid            float64 `json:"totalPaid"`
	TotalExpected        float64 `json:"totalExpected"`
	RemainingAmount      float64 `json:"remainingAmount"`
	CompletionPercentage float64 `json:"completionPercentage"`
}

// CompletionStatus aggregates all recorded payments against the expected
// total. A loan whose status is "completed" is reported complete regardless
// of the payment math (administrative override). A loan whose EMI never
// started, or whose principal or tenure was never set, reports not-complete
// with zeroed figures. Otherwise the loan is complete once total payments
// reach the completion threshold of the expected total, a tolerance for
// rounding drift across many small installments.
func CompletionStatus(loan LoanRecord) Completion {
	if loan.Status == StatusCompleted {
		c := completionFigures(loan)
		c.IsComplete = true
		return c
	}

	if !loan.EMIStarted || loan.Principal <= 0 || loan.TenureMonths < constants.MinTenureMonths {
		return Completion{}
	}

	c := completionFigures(loan)
	if c.TotalExpected > 0 {
		c.IsComplete = mathutil.Round(c.TotalPaid) >= mathutil.Round(constants.CompletionThreshold*c.TotalExpected)
	}
	return c
}

// IsComplete reports whether the loan is fully repaid.
func IsComplete(loan LoanRecord) bool {
	return CompletionStatus(loan).IsComplete
}

func completionFigures(loan LoanRecord) Completion {
	if loan.Principal <= 0 || loan.TenureMonths < constants.MinTenureMonths {
		return Completion{}
	}

	expected, err := TotalExpected(loan.Principal, loan.AnnualRatePercent, loan.TenureMonths)
	if err != nil {
		return Completion{}
	}

	paid := mathutil.Round(loan.TotalPaid())
	return Completion{
		TotalPaid:            paid,
		TotalExpected:        expected,
		RemainingAmount:      mathutil.Round(mathutil.Max(0, expected-paid)),
		CompletionPercentage: mathutil.Min(100, mathutil.CalculatePercentage(paid, expected)),
	}
}
