package core

import "time"

// MonthSlot holds the income and expense totals of one calendar month.
type MonthSlot struct {
	Month   int   `json:"_id"` // 1-12
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Balance Money `json:"balance"`
}

// CategoryTotal is an expense amount aggregated by category name.
type CategoryTotal struct {
	Category string `json:"_id"`
	Total    Money  `json:"total"`
}

// Totals sums income and expense over a window.
type Totals struct {
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Balance Money `json:"balance"`
}

// TrendSlot is one month of a trailing trend.
type TrendSlot struct {
	Year    int   `json:"year"`
	Month   int   `json:"month"`
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Balance Money `json:"balance"`
}

// SpendScope selects the transactions counted as spent against a budget.
type SpendScope string

const (
	ScopeAllTime SpendScope = "all"
	ScopePeriod  SpendScope = "period"
)

// BudgetProgress is a budget with its derived spend.
type BudgetProgress struct {
	Budget
	Spent     Money
	Remaining Money
	Scope     SpendScope
	Window    *Window
}

// MonthSnapshot summarises the current calendar month.
type MonthSnapshot struct {
	Month             int             `json:"month"`
	Year              int             `json:"year"`
	Income            Money           `json:"income"`
	Expenses          Money           `json:"expenses"`
	Balance           Money           `json:"balance"`
	CategoryBreakdown []CategoryTotal `json:"categoryBreakdown"`
	TransactionCount  int             `json:"transactionCount"`
}

// InsightSnapshot combines the aggregations handed to the insight generator.
type InsightSnapshot struct {
	CurrentMonth         MonthSnapshot   `json:"currentMonth"`
	Last3Months          []TrendSlot     `json:"last3Months"`
	TopExpenseCategories []CategoryTotal `json:"topExpenseCategories"`
}

// Insight is a generated narrative with the data it was derived from.
type Insight struct {
	FinancialData InsightSnapshot
	Text          string
	GeneratedAt   time.Time
}
