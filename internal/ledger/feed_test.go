package ledger

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/core"
)

func TestBuildFeedSalaryAndGroceries(t *testing.T) {
	feed, err := BuildFeed([]core.Income{salary()}, []core.Expense{groceries()}, testCategories, Options{})
	require.NoError(t, err)

	assert.Equal(t, "3000.00", feed.Summary.TotalIncome.StringFixed(2))
	assert.Equal(t, "150.00", feed.Summary.TotalExpenses.StringFixed(2))
	assert.Equal(t, "2850.00", feed.Summary.Balance.StringFixed(2))
	assert.Equal(t, 2, feed.Summary.Count)

	require.Len(t, feed.Transactions, 2)
	assert.Equal(t, "Groceries", feed.Transactions[0].Title)
	assert.Equal(t, core.KindExpense, feed.Transactions[0].Kind)
	assert.Nil(t, feed.Transactions[0].Category.ID)
	assert.Equal(t, core.ExpenseCategoryName, feed.Transactions[0].Category.Name)

	assert.Equal(t, "Salary", feed.Transactions[1].Title)
	require.NotNil(t, feed.Transactions[1].Category.ID)
	assert.Equal(t, int64(1), *feed.Transactions[1].Category.ID)
	assert.Empty(t, feed.Anomalies)
}

func TestBuildFeedEmpty(t *testing.T) {
	feed, err := BuildFeed(nil, nil, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, feed.Transactions)
	assert.True(t, feed.Summary.TotalIncome.IsZero())
	assert.True(t, feed.Summary.TotalExpenses.IsZero())
	assert.True(t, feed.Summary.Balance.IsZero())
	assert.Equal(t, 0, feed.Summary.Count)
}

func TestBuildFeedOnlyExpenses(t *testing.T) {
	feed, err := BuildFeed(nil, []core.Expense{groceries()}, testCategories, Options{})
	require.NoError(t, err)
	assert.Equal(t, "-150.00", feed.Summary.Balance.StringFixed(2))
}

func TestBuildFeedMissingCategory(t *testing.T) {
	orphan := salary()
	orphan.CategoryID = 99

	t.Run("graceful", func(t *testing.T) {
		feed, err := BuildFeed([]core.Income{orphan}, nil, testCategories, Options{})
		require.NoError(t, err)
		require.Len(t, feed.Transactions, 1)
		assert.Equal(t, core.UnknownCategoryName, feed.Transactions[0].Category.Name)
		require.Len(t, feed.Anomalies, 1)
		assert.Equal(t, Anomaly{Kind: core.KindIncome, ID: 1, CategoryID: 99}, feed.Anomalies[0])
	})

	t.Run("strict", func(t *testing.T) {
		_, err := BuildFeed([]core.Income{orphan}, nil, testCategories, Options{Strict: true})
		assert.ErrorIs(t, err, core.ErrMissingCategory)
	})
}

func TestBuildFeedRejectsNonPositiveAmount(t *testing.T) {
	bad := groceries()
	bad.Amount = amount("0")
	_, err := BuildFeed(nil, []core.Expense{bad}, nil, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestResolveCategory(t *testing.T) {
	ref, err := ResolveCategory(testCategories, 2)
	require.NoError(t, err)
	assert.Equal(t, "Freelancing", ref.Name)

	_, err = ResolveCategory(testCategories, 3)
	assert.ErrorIs(t, err, core.ErrMissingCategory)
}

func TestBuildFeedOrderIsTotal(t *testing.T) {
	d := core.NewDate(2024, 3, 10)
	incomes := []core.Income{
		{ID: 1, CategoryID: 1, Source: "a", Amount: amount("1"), Date: d, CreatedAt: created(1)},
		{ID: 2, CategoryID: 2, Source: "b", Amount: amount("2"), Date: d, CreatedAt: created(1)},
		{ID: 3, CategoryID: 1, Source: "c", Amount: amount("3"), Date: core.NewDate(2024, 3, 11), CreatedAt: created(1)},
		{ID: 4, CategoryID: 1, Source: "d", Amount: amount("4"), Date: d, CreatedAt: created(5)},
	}
	expenses := []core.Expense{
		{ID: 2, Title: "e", Amount: amount("5"), Date: d, CreatedAt: created(1)},
		{ID: 7, Title: "f", Amount: amount("6"), Date: core.NewDate(2024, 1, 1), CreatedAt: created(9)},
	}

	want, err := BuildFeed(incomes, expenses, testCategories, Options{})
	require.NoError(t, err)
	titles := func(f Feed) []string {
		out := make([]string, len(f.Transactions))
		for i, tx := range f.Transactions {
			out[i] = tx.Title
		}
		return out
	}
	assert.Equal(t, []string{"c", "d", "b", "e", "a", "f"}, titles(want))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		in := append([]core.Income(nil), incomes...)
		ex := append([]core.Expense(nil), expenses...)
		rng.Shuffle(len(in), func(a, b int) { in[a], in[b] = in[b], in[a] })
		rng.Shuffle(len(ex), func(a, b int) { ex[a], ex[b] = ex[b], ex[a] })

		got, err := BuildFeed(in, ex, testCategories, Options{})
		require.NoError(t, err)
		assert.Equal(t, titles(want), titles(got))
		assert.Len(t, got.Transactions, len(in)+len(ex))
	}
}

func TestSummarizeBalanceIsExact(t *testing.T) {
	var incomes []core.Income
	var expenses []core.Expense
	for i := 1; i <= 10; i++ {
		incomes = append(incomes, core.Income{ID: int64(i), CategoryID: 1, Source: "x", Amount: amount("0.10"), Date: core.NewDate(2024, 1, i)})
		expenses = append(expenses, core.Expense{ID: int64(i), Title: "y", Amount: amount("0.20"), Date: core.NewDate(2024, 1, i)})
	}
	feed, err := BuildFeed(incomes, expenses, testCategories, Options{})
	require.NoError(t, err)
	assert.Equal(t, "1.00", feed.Summary.TotalIncome.StringFixed(2))
	assert.Equal(t, "2.00", feed.Summary.TotalExpenses.StringFixed(2))
	assert.True(t, feed.Summary.Balance.Equal(feed.Summary.TotalIncome.Sub(feed.Summary.TotalExpenses)))
	assert.Equal(t, "-1.00", feed.Summary.Balance.StringFixed(2))
}
