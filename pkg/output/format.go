// Package output provides utilities for formatting and displaying
// repayment schedules.
package output

import (
	"fmt"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/emi"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(entries []emi.ScheduleEntry, completion emi.Completion) {
	p := message.NewPrinter(language.English)
	fmt.Printf("No. | Due date   | Amount        | Cumulative    | Paid\n")
	fmt.Printf("___ | ________   | ______        | __________    | ____\n")
	for _, entry := range entries {
		paid := ""
		if entry.Paid {
			paid = format.Currency(entry.PaidAmount)
		}
		_, _ = p.Printf("%3d | %s | %13.2f | %13.2f | %s\n",
			entry.Number, entry.PeriodKey, entry.Amount, entry.CumulativeDue, paid)
	}
	fmt.Printf("\nTotal expected: %s | Total paid: %s | Remaining: %s | %.1f%% complete\n",
		format.Currency(completion.TotalExpected),
		format.Currency(completion.TotalPaid),
		format.Currency(completion.RemainingAmount),
		completion.CompletionPercentage)
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(entries []emi.ScheduleEntry) {
	fmt.Printf("\"number\",\"due_date\",\"amount\",\"cumulative_due\",\"paid\",\"paid_amount\"\n")
	for _, entry := range entries {
		fmt.Printf("\"%d\",\"%s\",\"%.2f\",\"%.2f\",\"%t\",\"%.2f\"\n",
			entry.Number, entry.PeriodKey, entry.Amount, entry.CumulativeDue, entry.Paid, entry.PaidAmount)
	}
}
