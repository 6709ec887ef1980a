// Package storage defines the ledger record store and its SQL backends.
package storage

import (
	"context"
	"fmt"

	"wallet/internal/core"
	applog "wallet/internal/log"
)

type (
	// Reader is the read side consumed by the reporting engine.
	Reader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		ListIncomes(ctx context.Context) ([]core.Income, error)
		ListExpenses(ctx context.Context) ([]core.Expense, error)

		GetCategory(ctx context.Context, id int64) (core.Category, error)
		GetIncome(ctx context.Context, id int64) (core.Income, error)
		GetExpense(ctx context.Context, id int64) (core.Expense, error)

		// Revision increases with every committed write.
		Revision(ctx context.Context) (int64, error)
	}

	// Writer mutates the ledger. Every method is atomic and bumps the
	// revision in the same transaction.
	Writer interface {
		CreateCategory(ctx context.Context, name string) (core.Category, error)
		RenameCategory(ctx context.Context, id int64, name string) (core.Category, error)
		// DeleteCategory fails with core.ErrCategoryInUse while any income
		// references the category.
		DeleteCategory(ctx context.Context, id int64) error

		CreateIncome(ctx context.Context, in core.Income) (core.Income, error)
		UpdateIncome(ctx context.Context, in core.Income) (core.Income, error)
		DeleteIncome(ctx context.Context, id int64) error

		CreateExpense(ctx context.Context, ex core.Expense) (core.Expense, error)
		UpdateExpense(ctx context.Context, ex core.Expense) (core.Expense, error)
		DeleteExpense(ctx context.Context, id int64) error
	}

	Store interface {
		Reader
		Writer
		Close() error
	}
)

// CategoryIndex keys categories by id.
func CategoryIndex(cats []core.Category) map[int64]core.Category {
	out := make(map[int64]core.Category, len(cats))
	for _, c := range cats {
		out[c.ID] = c
	}
	return out
}

// logFor returns the request logger from ctx tagged as storage.
func logFor(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentStorage)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrStoreUnavailable, op, err)
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, core.ErrNotFound)
}

func missingCategory(id int64) error {
	return &core.ValidationError{Field: "category_id", Message: fmt.Sprintf("invalid category %d", id), Err: core.ErrMissingCategory}
}

func duplicateCategory(name string) error {
	return fmt.Errorf("category %q: %w", name, core.ErrDuplicate)
}

func categoryInUse(id int64, refs int64) error {
	return fmt.Errorf("category %d referenced by %d incomes: %w", id, refs, core.ErrCategoryInUse)
}
