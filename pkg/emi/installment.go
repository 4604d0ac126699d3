package emi

import (
	"fmt"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/constants"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/mathutil"
)

// MonthlyInstallment calculates the fixed monthly installment for a loan
// using the simple-interest model: interest for the full tenure is computed
// up front and spread evenly across every installment. There is no
// declining-balance amortization; each installment is numerically identical.
// The result is rounded to currency precision (2 decimals).
func MonthlyInstallment(principal, annualRatePercent float64, tenureMonths int) (float64, error) {
	if tenureMonths < constants.MinTenureMonths {
		return 0, fmt.Errorf("tenure must be at least %d month, got %d", constants.MinTenureMonths, tenureMonths)
	}

	totalInterest := principal * annualRatePercent * float64(tenureMonths) /
		(constants.PercentageMultiplier * constants.MonthsPerYear)
	totalPayable := principal + totalInterest

	return mathutil.Round(totalPayable / float64(tenureMonths)), nil
}

// TotalExpected is the full amount owed over the life of the loan: the
// rounded monthly installment times the number of installments. This is the
// figure repayments are measured against, so rounding applies per
// installment first.
func TotalExpected(principal, annualRatePercent float64, tenureMonths int) (float64, error) {
	installment, err := MonthlyInstallment(principal, annualRatePercent, tenureMonths)
	if err != nil {
		return 0, err
	}
	return mathutil.Round(installment * float64(tenureMonths)), nil
}
