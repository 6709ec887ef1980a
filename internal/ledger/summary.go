package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

// Summarize totals the given transactions exactly.
func Summarize(txs []core.Transaction) core.Summary {
	income, expenses := decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Kind {
		case core.KindIncome:
			income = income.Add(t.Amount)
		case core.KindExpense:
			expenses = expenses.Add(t.Amount)
		}
	}
	return core.Summary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		Balance:       income.Sub(expenses),
		Count:         len(txs),
	}
}

// Recent returns at most n leading transactions of an ordered feed.
func Recent(txs []core.Transaction, n int) []core.Transaction {
	if n <= 0 {
		return []core.Transaction{}
	}
	if n > len(txs) {
		n = len(txs)
	}
	out := make([]core.Transaction, n)
	copy(out, txs[:n])
	return out
}

// Breakdown groups transactions by kind and category name. Incomes come
// first; within a kind, larger totals come first and ties sort by name.
func Breakdown(txs []core.Transaction) []core.CategoryAmount {
	type key struct {
		kind core.Kind
		name string
	}
	idx := map[key]int{}
	var out []core.CategoryAmount
	for _, t := range txs {
		k := key{t.Kind, t.Category.Name}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, core.CategoryAmount{Kind: t.Kind, CategoryID: t.Category.ID, Name: t.Category.Name, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(t.Amount)
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return kindRank(out[i].Kind) < kindRank(out[j].Kind)
		}
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Monthly buckets transactions per calendar month, oldest month first.
func Monthly(txs []core.Transaction) []core.MonthOverview {
	idx := map[[2]int]int{}
	var out []core.MonthOverview
	for _, t := range txs {
		k := [2]int{t.Date.Year(), t.Date.Month()}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, core.MonthOverview{Year: k[0], Month: k[1], Income: decimal.Zero, Expenses: decimal.Zero})
		}
		switch t.Kind {
		case core.KindIncome:
			out[i].Income = out[i].Income.Add(t.Amount)
		case core.KindExpense:
			out[i].Expenses = out[i].Expenses.Add(t.Amount)
		}
	}
	for i := range out {
		out[i].Balance = out[i].Income.Sub(out[i].Expenses)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}
