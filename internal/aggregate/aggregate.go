// Package aggregate groups ledger transactions into report figures.
//
// The functions in this package are pure: they never touch a store and they
// produce the same output for the same input. All sums are kept in integer
// cents so that totals are exact.
package aggregate

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

// Monthly buckets txs by calendar month of year in loc. It always returns 12
// slots ordered January to December; months without transactions are zero.
// Transactions dated outside year are ignored.
func Monthly(txs []core.Transaction, year int, loc *time.Location) []core.MonthSlot {
	if loc == nil {
		loc = time.UTC
	}
	slots := make([]core.MonthSlot, 12)
	for i := range slots {
		slots[i].Month = i + 1
	}
	for _, tx := range txs {
		d := tx.Date.In(loc)
		if d.Year() != year {
			continue
		}
		s := &slots[int(d.Month())-1]
		switch tx.Type {
		case core.Income:
			s.Income = s.Income.Add(tx.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(tx.Amount)
		}
	}
	for i := range slots {
		slots[i].Balance = slots[i].Income.Sub(slots[i].Expense)
	}
	return slots
}

// ByCategory sums expense transactions per category, largest first. Equal
// totals keep the order in which their category first appeared in txs.
func ByCategory(txs []core.Transaction) []core.CategoryTotal {
	idx := map[string]int{}
	out := []core.CategoryTotal{}
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		i, ok := idx[tx.Category]
		if !ok {
			i = len(out)
			idx[tx.Category] = i
			out = append(out, core.CategoryTotal{Category: tx.Category})
		}
		out[i].Total = out[i].Total.Add(tx.Amount)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.Cents > out[j].Total.Cents })
	return out
}

// Totals sums income and expense. Balance may be negative.
func Totals(txs []core.Transaction) core.Totals {
	var t core.Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// Progress derives spent and remaining for b. Only expenses in the budget's
// category count; remaining goes negative when the budget is overspent.
func Progress(b core.Budget, txs []core.Transaction) core.BudgetProgress {
	p := core.BudgetProgress{Budget: b, Scope: core.ScopeAllTime}
	for _, tx := range txs {
		if tx.Type == core.Expense && tx.Category == b.Category {
			p.Spent = p.Spent.Add(tx.Amount)
		}
	}
	p.Remaining = b.Amount.Sub(p.Spent)
	return p
}

// Trend returns income and expense for each listed month, in the given
// order. Dates are compared in loc.
func Trend(txs []core.Transaction, months []core.YearMonth, loc *time.Location) []core.TrendSlot {
	if loc == nil {
		loc = time.UTC
	}
	slots := make([]core.TrendSlot, len(months))
	pos := make(map[core.YearMonth]int, len(months))
	for i, m := range months {
		slots[i].Year = m.Year
		slots[i].Month = int(m.Month)
		pos[m] = i
	}
	for _, tx := range txs {
		d := tx.Date.In(loc)
		i, ok := pos[core.YearMonth{Year: d.Year(), Month: d.Month()}]
		if !ok {
			continue
		}
		switch tx.Type {
		case core.Income:
			slots[i].Income = slots[i].Income.Add(tx.Amount)
		case core.Expense:
			slots[i].Expense = slots[i].Expense.Add(tx.Amount)
		}
	}
	for i := range slots {
		slots[i].Balance = slots[i].Income.Sub(slots[i].Expense)
	}
	return slots
}
