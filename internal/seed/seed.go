// Package seed fills a ledger with randomized sample transactions.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

const (
	DefaultIncomeCount  = 10
	DefaultExpenseCount = 8
	DefaultMaxAgeDays   = 90
)

var (
	IncomeSources = []string{
		"Salary - Tech Corp", "Freelance Project", "Consulting Work", "Side Business", "Investment Returns",
		"Bonus Payment", "Contract Work", "Part-time Job", "Rental Income", "Dividend Payment",
	}
	ExpenseTitles = []string{
		"Grocery Shopping", "Gas Station", "Restaurant Dinner", "Coffee Shop", "Online Shopping",
		"Utility Bill", "Phone Bill", "Internet Bill", "Movie Tickets", "Gym Membership",
	}
)

// amount bounds in cents
const (
	incomeMinCents  = 100_00
	incomeMaxCents  = 5000_00
	expenseMinCents = 10_00
	expenseMaxCents = 500_00
)

var ErrNoCategories = errors.New("no categories to assign incomes to")

// Writer is the subset of the ledger service the seeder writes through.
type Writer interface {
	CreateIncome(ctx context.Context, in core.Income) (core.Income, error)
	CreateExpense(ctx context.Context, ex core.Expense) (core.Expense, error)
}

type Options struct {
	IncomeCount  int
	ExpenseCount int
	// MaxAgeDays bounds how far before Today a sample may be dated.
	MaxAgeDays int
	Today      core.Date
	Rand       *rand.Rand
}

// Result counts what was written. Individual failures do not stop a run.
type Result struct {
	Incomes  int
	Expenses int
	Failures []error
}

func (o Options) withDefaults() Options {
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = DefaultMaxAgeDays
	}
	if o.Today.IsZero() {
		o.Today = core.DateOf(time.Now())
	}
	if o.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		o.Rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return o
}

// Run writes opts.IncomeCount incomes spread over categories and
// opts.ExpenseCount expenses.
func Run(ctx context.Context, w Writer, categories []core.Category, opts Options) (Result, error) {
	if opts.IncomeCount > 0 && len(categories) == 0 {
		return Result{}, ErrNoCategories
	}
	opts = opts.withDefaults()
	r := opts.Rand

	var res Result
	for i := 0; i < opts.IncomeCount; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		in := core.Income{
			CategoryID: categories[r.IntN(len(categories))].ID,
			Source:     pick(r, IncomeSources),
			Amount:     randomAmount(r, incomeMinCents, incomeMaxCents),
			Date:       randomDate(r, opts.Today, opts.MaxAgeDays),
		}
		if r.IntN(2) == 0 {
			in.Note = fmt.Sprintf("Sample income transaction #%d", i+1)
		}
		if _, err := w.CreateIncome(ctx, in); err != nil {
			res.Failures = append(res.Failures, fmt.Errorf("income #%d: %w", i+1, err))
			continue
		}
		res.Incomes++
	}

	for i := 0; i < opts.ExpenseCount; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ex := core.Expense{
			Title:  pick(r, ExpenseTitles),
			Amount: randomAmount(r, expenseMinCents, expenseMaxCents),
			Date:   randomDate(r, opts.Today, opts.MaxAgeDays),
		}
		if _, err := w.CreateExpense(ctx, ex); err != nil {
			res.Failures = append(res.Failures, fmt.Errorf("expense #%d: %w", i+1, err))
			continue
		}
		res.Expenses++
	}
	return res, nil
}

func pick(r *rand.Rand, from []string) string {
	return from[r.IntN(len(from))]
}

// randomAmount is uniform over [minCents, maxCents].
func randomAmount(r *rand.Rand, minCents, maxCents int64) decimal.Decimal {
	return core.AmountFromCents(minCents + r.Int64N(maxCents-minCents+1))
}

func randomDate(r *rand.Rand, today core.Date, maxAgeDays int) core.Date {
	return core.DateOf(today.Time.AddDate(0, 0, -r.IntN(maxAgeDays+1)))
}
