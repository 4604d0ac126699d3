// Package validation provides loan input validation utilities.
package validation

import (
	"fmt"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/constants"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/emi"
)

// ValidateLoanInputs checks the hard preconditions shared by loan creation
// and EMI activation. Violations are rejected up front; the calculation
// engine never sees them.
func ValidateLoanInputs(principal, annualRatePercent float64, tenureMonths int) error {
	if principal <= 0 {
		return fmt.Errorf("principal must be greater than zero, got %.2f", principal)
	}
	if annualRatePercent < 0 || annualRatePercent > constants.PercentageMultiplier {
		return fmt.Errorf("annual rate must be in [0, 100], got %.2f", annualRatePercent)
	}
	if tenureMonths < constants.MinTenureMonths || tenureMonths > constants.MaxTenureMonths {
		return fmt.Errorf("tenure must be in [%d, %d] months, got %d",
			constants.MinTenureMonths, constants.MaxTenureMonths, tenureMonths)
	}
	return nil
}

// ValidateEMIInputs checks the preconditions for starting a repayment
// schedule, including the due day of month.
func ValidateEMIInputs(principal, annualRatePercent float64, tenureMonths, dueDay int) error {
	if err := ValidateLoanInputs(principal, annualRatePercent, tenureMonths); err != nil {
		return err
	}
	if dueDay < constants.MinDueDay || dueDay > constants.MaxDueDay {
		return fmt.Errorf("due day must be in [%d, %d], got %d",
			constants.MinDueDay, constants.MaxDueDay, dueDay)
	}
	return nil
}

// ValidateLoanRecord performs general validation of a loan record and
// returns warnings for conditions that are legal but worth surfacing.
func ValidateLoanRecord(loan emi.LoanRecord) []string {
	var warnings []string

	if loan.EMIStarted && loan.EMIDueDay > 28 {
		warnings = append(warnings, fmt.Sprintf(
			"due day %d rolls into the following month in months with fewer days", loan.EMIDueDay))
	}

	if loan.EMIStarted && loan.AnnualRatePercent == 0 {
		warnings = append(warnings, "annual rate is zero; installments carry no interest")
	}

	if loan.PenaltyWaived && loan.PenaltyAmount > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"penalty of %.2f is recorded but waived; stored amount should be cleared", loan.PenaltyAmount))
	}

	if !loan.Status.Valid() {
		warnings = append(warnings, fmt.Sprintf("unknown loan status %q", loan.Status))
	}

	return warnings
}

// ValidateOutputFormat checks that the requested output format is supported.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV:
		return nil
	}
	return fmt.Errorf("unsupported output format %q; expected %q or %q",
		format, constants.OutputFormatPretty, constants.OutputFormatCSV)
}
