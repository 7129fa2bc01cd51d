package core

import "time"

// Window is a closed date range [Start, End] scoping an aggregation.
type Window struct {
	Start time.Time
	End   time.Time
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// YearWindow covers the calendar year of now in now's location.
func YearWindow(now time.Time) Window {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Nanosecond)}
}

// MonthWindow covers the calendar month of now in now's location.
func MonthWindow(now time.Time) Window {
	return TrailingMonths(now, 1)
}

// TrailingMonths covers n calendar months ending with the month of now:
// from the first day of the month n-1 months earlier to the last instant
// of the current month.
func TrailingMonths(now time.Time, n int) Window {
	if n < 1 {
		n = 1
	}
	cur := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{
		Start: cur.AddDate(0, -(n - 1), 0),
		End:   cur.AddDate(0, 1, 0).Add(-time.Nanosecond),
	}
}

// Months lists the calendar months touched by the window, oldest first.
func (w Window) Months() []YearMonth {
	var out []YearMonth
	cur := time.Date(w.Start.Year(), w.Start.Month(), 1, 0, 0, 0, 0, w.Start.Location())
	for !cur.After(w.End) {
		out = append(out, YearMonth{Year: cur.Year(), Month: cur.Month()})
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

// PeriodWindow returns the window a budget period covers around now.
func PeriodWindow(p BudgetPeriod, now time.Time) Window {
	if p == Yearly {
		return YearWindow(now)
	}
	return MonthWindow(now)
}
