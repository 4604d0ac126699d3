// Package datetime provides date and time utility functions for billing
// periods.
package datetime

import (
	"math"
	"time"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/constants"
)

const (
	// PeriodKeyLayout is the date format used for billing-period keys.
	PeriodKeyLayout = constants.PeriodKeyLayout

	// HoursPerDay is used for whole-day arithmetic on wall-clock instants.
	HoursPerDay = 24
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// AnchoredDate builds the date for the current billing period: now's year and
// month combined with the fixed day of month. Days past the end of the month
// (e.g. 31 in February) roll into the following month per time.Date
// normalization; this matches the documented period-key behavior.
func AnchoredDate(now time.Time, day int) time.Time {
	return time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, now.Location())
}

// DaysElapsed returns the number of days from "from" to "to" where a partial
// day in progress counts as a full day. Returns 0 when "to" is not after
// "from", so an instant exactly on the boundary has not yet elapsed a day.
func DaysElapsed(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	return int(math.Ceil(to.Sub(from).Hours() / HoursPerDay))
}
