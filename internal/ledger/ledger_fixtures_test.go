package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

var testCategories = map[int64]core.Category{
	1: {ID: 1, Name: "Salary"},
	2: {ID: 2, Name: "Freelancing"},
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func created(day int) time.Time {
	return time.Date(2023, 12, day, 9, 0, 0, 0, time.UTC)
}

func salary() core.Income {
	return core.Income{ID: 1, CategoryID: 1, Source: "Salary", Amount: amount("3000.00"), Date: core.NewDate(2023, 12, 1), CreatedAt: created(1)}
}

func groceries() core.Expense {
	return core.Expense{ID: 1, Title: "Groceries", Amount: amount("150.00"), Date: core.NewDate(2023, 12, 2), CreatedAt: created(2)}
}
