package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags a Transaction with the record type it was derived from.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

const (
	// ExpenseCategoryName labels every expense, which has no category of its own.
	ExpenseCategoryName = "Expense"
	// UnknownCategoryName replaces a category that could not be resolved.
	UnknownCategoryName = "Unknown"
)

// ParseKind accepts "income", "expense", "all" or "". The last two mean
// "any kind" and return the empty Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return "", nil
	case string(KindIncome):
		return KindIncome, nil
	case string(KindExpense):
		return KindExpense, nil
	default:
		return "", &ValidationError{Field: "type", Message: "must be income, expense or all", Err: ErrInvalidKind}
	}
}

// Label is the human form used in exports.
func (k Kind) Label() string {
	switch k {
	case KindIncome:
		return "Income"
	case KindExpense:
		return "Expense"
	default:
		return string(k)
	}
}

// CategoryRef is the category as shown on a Transaction. ID is nil for the
// expense sentinel.
type CategoryRef struct {
	ID   *int64
	Name string
}

// ExpenseCategory returns the sentinel category carried by expenses.
func ExpenseCategory() CategoryRef {
	return CategoryRef{Name: ExpenseCategoryName}
}

// Transaction is the unified, read-only view over an Income or an Expense.
type Transaction struct {
	ID        int64
	Kind      Kind
	Title     string
	Category  CategoryRef
	Amount    decimal.Decimal
	Date      Date
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key identifies a transaction across both kinds.
func (t Transaction) Key() string {
	return TransactionKey(t.Kind, t.ID)
}

// TransactionKey builds the "<kind>:<id>" identifier.
func TransactionKey(kind Kind, id int64) string {
	return string(kind) + ":" + strconv.FormatInt(id, 10)
}
