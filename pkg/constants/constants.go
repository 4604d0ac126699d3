// Package constants provides shared constants for the EMI ledger engine.
package constants

// PeriodKeyLayout is the date format used for billing-period keys and is
// also the output date format.
const PeriodKeyLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 paisa)
	CurrencyTolerance = 0.01
)

// EMI schedule constants
const (
	// GraceDays is the number of calendar days after the due date during
	// which no penalty accrues
	GraceDays = 3

	// DailyPenaltyRate is the flat per-day late fee as a fraction of the
	// monthly installment
	DailyPenaltyRate = 0.02

	// CompletionThreshold is the fraction of the expected total at which a
	// loan is treated as fully repaid; tolerance for rounding drift across
	// many small installments
	CompletionThreshold = 0.99

	// DefaultTenureMonths is used when a loan's tenure was never set upstream
	DefaultTenureMonths = 12

	// MinTenureMonths and MaxTenureMonths bound the number of installments
	MinTenureMonths = 1
	MaxTenureMonths = 60

	// MinDueDay and MaxDueDay bound the calendar day of month an
	// installment can be due
	MinDueDay = 1
	MaxDueDay = 31
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultDatabasePath is the default SQLite database location
	DefaultDatabasePath = "emi-ledger.db"
)
