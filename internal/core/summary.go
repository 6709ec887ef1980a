package core

import "github.com/shopspring/decimal"

// Summary holds the totals over a set of transactions.
// Balance is always TotalIncome minus TotalExpenses.
type Summary struct {
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	Balance       decimal.Decimal
	Count         int
}

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Kind       Kind
	CategoryID *int64
	Name       string
	Total      decimal.Decimal
	Count      int
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year     int
	Month    int // 1-12
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Balance  decimal.Decimal
}
