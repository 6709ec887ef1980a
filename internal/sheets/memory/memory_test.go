package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

func tx(kind core.Kind, id int64, title string) core.Transaction {
	return core.Transaction{
		ID:       id,
		Kind:     kind,
		Title:    title,
		Category: core.ExpenseCategory(),
		Amount:   decimal.RequireFromString("1.5"),
		Date:     core.NewDate(2024, 1, 1),
	}
}

func TestSheetUpsertAndDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Upsert(ctx, tx(core.KindExpense, 1, "a"))
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected upsert: ref=%q err=%v", ref, err)
	}
	if _, err := s.Upsert(ctx, tx(core.KindIncome, 1, "b")); err != nil {
		t.Fatal(err)
	}
	ref, _ = s.Upsert(ctx, tx(core.KindExpense, 1, "a2"))
	if ref != "mem:2" {
		t.Fatalf("update should keep the row, got %q", ref)
	}

	rows := s.Rows()
	if len(rows) != 2 || rows[0][3] != "a2" || rows[0][5] != "1.50" {
		t.Fatalf("unexpected rows %v", rows)
	}

	if err := s.Delete(ctx, "expense:1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "expense:1"); err != nil {
		t.Fatalf("deleting twice should be a no-op: %v", err)
	}
	if keys := s.Keys(); len(keys) != 1 || keys[0] != "income:1" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestSheetReplaceAll(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.Upsert(ctx, tx(core.KindExpense, 9, "stale"))

	n, err := s.ReplaceAll(ctx, []core.Transaction{tx(core.KindIncome, 2, "x"), tx(core.KindExpense, 3, "y")})
	if err != nil || n != 2 {
		t.Fatalf("ReplaceAll() = %d, %v", n, err)
	}
	keys := s.Keys()
	if len(keys) != 2 || keys[0] != "income:2" || keys[1] != "expense:3" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
