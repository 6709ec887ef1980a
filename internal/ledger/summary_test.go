package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/core"
)

func TestRecent(t *testing.T) {
	feed := sampleFeed(t)
	assert.Equal(t, []string{"Website build", "Rent"}, titlesOf(Recent(feed, 2)))
	assert.Len(t, Recent(feed, 10), 4)
	assert.Empty(t, Recent(feed, 0))
}

func TestBreakdown(t *testing.T) {
	incomes := []core.Income{
		salary(),
		{ID: 2, CategoryID: 1, Source: "Bonus", Amount: amount("500.00"), Date: core.NewDate(2023, 12, 20)},
		{ID: 3, CategoryID: 2, Source: "Gig", Amount: amount("4000.00"), Date: core.NewDate(2023, 12, 21)},
	}
	feed, err := BuildFeed(incomes, []core.Expense{groceries()}, testCategories, Options{})
	require.NoError(t, err)

	got := Breakdown(feed.Transactions)
	require.Len(t, got, 3)

	assert.Equal(t, "Freelancing", got[0].Name)
	assert.Equal(t, "4000.00", got[0].Total.StringFixed(2))
	assert.Equal(t, "Salary", got[1].Name)
	assert.Equal(t, "3500.00", got[1].Total.StringFixed(2))
	assert.Equal(t, 2, got[1].Count)
	assert.Equal(t, core.KindExpense, got[2].Kind)
	assert.Equal(t, core.ExpenseCategoryName, got[2].Name)
}

func TestMonthly(t *testing.T) {
	incomes := []core.Income{
		salary(),
		{ID: 2, CategoryID: 1, Source: "Salary", Amount: amount("3100.00"), Date: core.NewDate(2024, 1, 1)},
	}
	expenses := []core.Expense{
		groceries(),
		{ID: 2, Title: "Rent", Amount: amount("950.00"), Date: core.NewDate(2024, 1, 3)},
	}
	feed, err := BuildFeed(incomes, expenses, testCategories, Options{})
	require.NoError(t, err)

	months := Monthly(feed.Transactions)
	require.Len(t, months, 2)
	assert.Equal(t, 2023, months[0].Year)
	assert.Equal(t, 12, months[0].Month)
	assert.Equal(t, "2850.00", months[0].Balance.StringFixed(2))
	assert.Equal(t, 2024, months[1].Year)
	assert.Equal(t, "2150.00", months[1].Balance.StringFixed(2))
}

func TestPaginate(t *testing.T) {
	feed := sampleFeed(t)

	p := Paginate(feed, 1, 3)
	assert.Equal(t, 2, p.TotalPages)
	assert.Equal(t, 4, p.TotalItems)
	assert.Len(t, p.Items, 3)
	assert.True(t, p.HasNext())
	assert.False(t, p.HasPrevious())

	p = Paginate(feed, 9, 3)
	assert.Equal(t, 2, p.Number)
	assert.Equal(t, []string{"Salary"}, titlesOf(p.Items))

	p = Paginate(nil, 1, 0)
	assert.Equal(t, DefaultPageSize, p.Size)
	assert.Equal(t, 1, p.TotalPages)
	assert.Empty(t, p.Items)
}
