// Package storetest holds the behaviour every storage.Store must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/storage"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("IncomeLifecycle", func(t *testing.T) { testIncomeLifecycle(t, newStore(t)) })
	t.Run("ExpenseLifecycle", func(t *testing.T) { testExpenseLifecycle(t, newStore(t)) })
	t.Run("CategoryInUse", func(t *testing.T) { testCategoryInUse(t, newStore(t)) })
	t.Run("MissingCategory", func(t *testing.T) { testMissingCategory(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("DuplicateCategory", func(t *testing.T) { testDuplicateCategory(t, newStore(t)) })
	t.Run("Revision", func(t *testing.T) { testRevision(t, newStore(t)) })
}

func mustCategory(t *testing.T, s storage.Store, name string) core.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), name)
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	if c.ID == 0 || c.Name != name {
		t.Fatalf("unexpected category %+v", c)
	}
	return c
}

func testIncomeLifecycle(t *testing.T, s storage.Store) {
	ctx := context.Background()
	cat := mustCategory(t, s, "Consulting")

	created, err := s.CreateIncome(ctx, core.Income{
		CategoryID: cat.ID,
		Source:     "Client A",
		Amount:     decimal.RequireFromString("1234.56"),
		Date:       core.NewDate(2024, 2, 29),
		Note:       "invoice 12",
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps, got %+v", created)
	}

	got, err := s.GetIncome(ctx, created.ID)
	if err != nil {
		t.Fatalf("get income: %v", err)
	}
	if got.Amount.StringFixed(2) != "1234.56" || got.Date.String() != "2024-02-29" || got.Note != "invoice 12" {
		t.Fatalf("income did not round trip: %+v", got)
	}

	got.Source = "Client B"
	got.Amount = decimal.RequireFromString("10.05")
	updated, err := s.UpdateIncome(ctx, got)
	if err != nil {
		t.Fatalf("update income: %v", err)
	}
	if updated.Source != "Client B" || updated.Amount.StringFixed(2) != "10.05" {
		t.Fatalf("update not applied: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}

	list, err := s.ListIncomes(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("unexpected list: %v (err=%v)", list, err)
	}

	if err := s.DeleteIncome(ctx, created.ID); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	if _, err := s.GetIncome(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func testExpenseLifecycle(t *testing.T, s storage.Store) {
	ctx := context.Background()

	created, err := s.CreateExpense(ctx, core.Expense{
		Title:  "Groceries",
		Amount: decimal.RequireFromString("150.00"),
		Date:   core.NewDate(2023, 12, 2),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	created.Title = "Groceries and wine"
	updated, err := s.UpdateExpense(ctx, created)
	if err != nil {
		t.Fatalf("update expense: %v", err)
	}
	if updated.Title != "Groceries and wine" || updated.Amount.StringFixed(2) != "150.00" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	list, err := s.ListExpenses(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("unexpected list: %v (err=%v)", list, err)
	}
	if err := s.DeleteExpense(ctx, created.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if err := s.DeleteExpense(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func testCategoryInUse(t *testing.T, s storage.Store) {
	ctx := context.Background()
	cat := mustCategory(t, s, "Dividends")
	in, err := s.CreateIncome(ctx, core.Income{
		CategoryID: cat.ID,
		Source:     "ETF",
		Amount:     decimal.RequireFromString("12.00"),
		Date:       core.NewDate(2024, 1, 15),
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}

	if err := s.DeleteCategory(ctx, cat.ID); !errors.Is(err, core.ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
	if _, err := s.GetCategory(ctx, cat.ID); err != nil {
		t.Fatalf("category should survive rejected delete: %v", err)
	}

	if err := s.DeleteIncome(ctx, in.ID); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	if err := s.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("delete unreferenced category: %v", err)
	}
}

func testMissingCategory(t *testing.T, s storage.Store) {
	_, err := s.CreateIncome(context.Background(), core.Income{
		CategoryID: 987654,
		Source:     "Ghost",
		Amount:     decimal.RequireFromString("1.00"),
		Date:       core.NewDate(2024, 1, 1),
	})
	if !errors.Is(err, core.ErrMissingCategory) || !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected missing category validation error, got %v", err)
	}
}

func testNotFound(t *testing.T, s storage.Store) {
	ctx := context.Background()
	if _, err := s.GetExpense(ctx, 424242); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get expense: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetCategory(ctx, 424242); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get category: expected ErrNotFound, got %v", err)
	}
	_, err := s.UpdateExpense(ctx, core.Expense{ID: 424242, Title: "x", Amount: decimal.RequireFromString("1"), Date: core.NewDate(2024, 1, 1)})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update expense: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteCategory(ctx, 424242); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete category: expected ErrNotFound, got %v", err)
	}
}

func testDuplicateCategory(t *testing.T, s storage.Store) {
	mustCategory(t, s, "Royalties")
	if _, err := s.CreateCategory(context.Background(), "Royalties"); !errors.Is(err, core.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	other := mustCategory(t, s, "Grants")
	if _, err := s.RenameCategory(context.Background(), other.ID, "Royalties"); !errors.Is(err, core.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on rename, got %v", err)
	}
	renamed, err := s.RenameCategory(context.Background(), other.ID, "Scholarships")
	if err != nil || renamed.Name != "Scholarships" {
		t.Fatalf("rename failed: %+v (err=%v)", renamed, err)
	}
}

func testRevision(t *testing.T, s storage.Store) {
	ctx := context.Background()
	rev := func() int64 {
		t.Helper()
		r, err := s.Revision(ctx)
		if err != nil {
			t.Fatalf("revision: %v", err)
		}
		return r
	}

	start := rev()
	if _, err := s.ListIncomes(ctx); err != nil {
		t.Fatal(err)
	}
	if rev() != start {
		t.Fatalf("reads must not change the revision")
	}

	ex, err := s.CreateExpense(ctx, core.Expense{Title: "Bus", Amount: decimal.RequireFromString("2.50"), Date: core.NewDate(2024, 3, 1)})
	if err != nil {
		t.Fatal(err)
	}
	afterCreate := rev()
	if afterCreate <= start {
		t.Fatalf("create must bump revision: %d -> %d", start, afterCreate)
	}

	if err := s.DeleteExpense(ctx, ex.ID+1000); err == nil {
		t.Fatalf("expected delete of unknown id to fail")
	}
	if rev() != afterCreate {
		t.Fatalf("failed writes must not bump revision")
	}

	if err := s.DeleteExpense(ctx, ex.ID); err != nil {
		t.Fatal(err)
	}
	if rev() <= afterCreate {
		t.Fatalf("delete must bump revision")
	}
}
