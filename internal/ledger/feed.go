// Package ledger merges incomes and expenses into one ordered feed and
// derives totals, breakdowns and filtered views from it.
//
// Every function in this package is pure: inputs are never mutated and
// the same inputs always yield the same outputs.
package ledger

import (
	"fmt"
	"sort"

	"wallet/internal/core"
)

// Options tunes BuildFeed.
type Options struct {
	// Strict makes an unresolvable income category fatal instead of
	// degrading it to the "Unknown" label.
	Strict bool
}

// Anomaly records an income whose category could not be resolved.
type Anomaly struct {
	Kind       core.Kind
	ID         int64
	CategoryID int64
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s:%d references missing category %d", a.Kind, a.ID, a.CategoryID)
}

// Feed is the merged, ordered view over both transaction kinds.
type Feed struct {
	Transactions []core.Transaction
	Summary      core.Summary
	Anomalies    []Anomaly
}

// BuildFeed converts every income and expense into a Transaction, orders
// the result newest first and computes its summary.
func BuildFeed(incomes []core.Income, expenses []core.Expense, categories map[int64]core.Category, opts Options) (Feed, error) {
	txs := make([]core.Transaction, 0, len(incomes)+len(expenses))
	var anomalies []Anomaly

	for _, in := range incomes {
		if in.Amount.Sign() <= 0 {
			return Feed{}, nonPositive(core.KindIncome, in.ID)
		}
		ref, err := ResolveCategory(categories, in.CategoryID)
		if err != nil {
			if opts.Strict {
				return Feed{}, fmt.Errorf("income %d: %w", in.ID, err)
			}
			anomalies = append(anomalies, Anomaly{Kind: core.KindIncome, ID: in.ID, CategoryID: in.CategoryID})
			ref = core.CategoryRef{ID: int64Ptr(in.CategoryID), Name: core.UnknownCategoryName}
		}
		txs = append(txs, FromIncome(in, ref))
	}

	for _, ex := range expenses {
		if ex.Amount.Sign() <= 0 {
			return Feed{}, nonPositive(core.KindExpense, ex.ID)
		}
		txs = append(txs, FromExpense(ex))
	}

	Sort(txs)
	return Feed{
		Transactions: txs,
		Summary:      Summarize(txs),
		Anomalies:    anomalies,
	}, nil
}

// ResolveCategory looks up a single income category.
func ResolveCategory(categories map[int64]core.Category, id int64) (core.CategoryRef, error) {
	c, ok := categories[id]
	if !ok {
		return core.CategoryRef{}, fmt.Errorf("%w: id %d", core.ErrMissingCategory, id)
	}
	return core.CategoryRef{ID: int64Ptr(c.ID), Name: c.Name}, nil
}

// FromIncome projects an income onto the unified view.
func FromIncome(in core.Income, ref core.CategoryRef) core.Transaction {
	return core.Transaction{
		ID:        in.ID,
		Kind:      core.KindIncome,
		Title:     in.Source,
		Category:  ref,
		Amount:    in.Amount,
		Date:      in.Date,
		Note:      in.Note,
		CreatedAt: in.CreatedAt,
		UpdatedAt: in.UpdatedAt,
	}
}

// FromExpense projects an expense onto the unified view.
func FromExpense(ex core.Expense) core.Transaction {
	return core.Transaction{
		ID:        ex.ID,
		Kind:      core.KindExpense,
		Title:     ex.Title,
		Category:  core.ExpenseCategory(),
		Amount:    ex.Amount,
		Date:      ex.Date,
		CreatedAt: ex.CreatedAt,
		UpdatedAt: ex.UpdatedAt,
	}
}

// Sort orders transactions by date, creation time and id, all descending,
// with incomes before expenses on a full tie.
func Sort(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return Less(txs[i], txs[j])
	})
}

// Less reports whether a precedes b in feed order.
func Less(a, b core.Transaction) bool {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c > 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if a.ID != b.ID {
		return a.ID > b.ID
	}
	return kindRank(a.Kind) < kindRank(b.Kind)
}

func kindRank(k core.Kind) int {
	switch k {
	case core.KindIncome:
		return 0
	case core.KindExpense:
		return 1
	default:
		return 2
	}
}

func nonPositive(kind core.Kind, id int64) error {
	return &core.ValidationError{
		Field:   "amount",
		Message: fmt.Sprintf("%s %d has a non-positive amount", kind, id),
		Err:     core.ErrInvalidAmount,
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}
