package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"wallet/internal/amqp"
	"wallet/internal/core"
	sheetmem "wallet/internal/sheets/memory"
	"wallet/internal/storage/memory"
)

type failingMirror struct{ *sheetmem.Sheet }

var errSheetsDown = errors.New("sheets down")

func (failingMirror) Upsert(context.Context, core.Transaction) (string, error) {
	return "", errSheetsDown
}

func seed(t *testing.T) (*memory.Store, core.Income, core.Expense) {
	t.Helper()
	ctx := context.Background()
	store := memory.New([]string{"Salary"})
	in, err := store.CreateIncome(ctx, core.Income{
		CategoryID: 1, Source: "Salary", Amount: decimal.RequireFromString("3000"), Date: core.NewDate(2024, 1, 15),
	})
	if err != nil {
		t.Fatal(err)
	}
	ex, err := store.CreateExpense(ctx, core.Expense{
		Title: "Rent", Amount: decimal.RequireFromString("800"), Date: core.NewDate(2024, 1, 20),
	})
	if err != nil {
		t.Fatal(err)
	}
	return store, in, ex
}

func TestHandleSyncMessage_Upsert(t *testing.T) {
	store, in, ex := seed(t)
	sheet := sheetmem.New()
	w := NewSyncWorker(store, sheet, nil)
	ctx := context.Background()

	if err := w.HandleSyncMessage(ctx, amqp.NewSyncMessage(core.KindIncome, in.ID, amqp.OpUpsert, 1)); err != nil {
		t.Fatalf("HandleSyncMessage() error = %v", err)
	}
	if err := w.HandleSyncMessage(ctx, amqp.NewSyncMessage(core.KindExpense, ex.ID, amqp.OpUpsert, 2)); err != nil {
		t.Fatalf("HandleSyncMessage() error = %v", err)
	}

	rows := sheet.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %v", rows)
	}
	if rows[0][0] != "income:1" || rows[0][4] != "Salary" || rows[0][5] != "3000.00" {
		t.Errorf("income row = %v", rows[0])
	}
	if rows[1][0] != "expense:1" || rows[1][4] != core.ExpenseCategoryName {
		t.Errorf("expense row = %v", rows[1])
	}
}

func TestHandleSyncMessage_Delete(t *testing.T) {
	store, in, _ := seed(t)
	sheet := sheetmem.New()
	w := NewSyncWorker(store, sheet, nil)
	ctx := context.Background()

	if err := w.HandleSyncMessage(ctx, amqp.NewSyncMessage(core.KindIncome, in.ID, amqp.OpUpsert, 1)); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleSyncMessage(ctx, amqp.NewSyncMessage(core.KindIncome, in.ID, amqp.OpDelete, 2)); err != nil {
		t.Fatalf("HandleSyncMessage(delete) error = %v", err)
	}
	if keys := sheet.Keys(); len(keys) != 0 {
		t.Errorf("expected empty mirror, got %v", keys)
	}
}

func TestHandleSyncMessage_UpsertOfDeletedRecord(t *testing.T) {
	store, _, ex := seed(t)
	sheet := sheetmem.New()
	w := NewSyncWorker(store, sheet, nil)
	ctx := context.Background()

	if err := w.HandleSyncMessage(ctx, amqp.NewSyncMessage(core.KindExpense, ex.ID, amqp.OpUpsert, 1)); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteExpense(ctx, ex.ID); err != nil {
		t.Fatal(err)
	}

	if err := w.HandleSyncMessage(ctx, amqp.NewSyncMessage(core.KindExpense, ex.ID, amqp.OpUpsert, 3)); err != nil {
		t.Fatalf("stale upsert should succeed, got %v", err)
	}
	if keys := sheet.Keys(); len(keys) != 0 {
		t.Errorf("stale upsert should remove the row, got %v", keys)
	}
}

func TestHandleSyncMessage_Reconcile(t *testing.T) {
	store, _, _ := seed(t)
	sheet := sheetmem.New()
	w := NewSyncWorker(store, sheet, nil)

	if err := w.HandleSyncMessage(context.Background(), &amqp.SyncMessage{Operation: amqp.OpReconcile}); err != nil {
		t.Fatalf("HandleSyncMessage(reconcile) error = %v", err)
	}
	keys := sheet.Keys()
	if len(keys) != 2 || keys[0] != "expense:1" || keys[1] != "income:1" {
		t.Errorf("mirror should follow feed order, got %v", keys)
	}
}

func TestHandleSyncMessage_Errors(t *testing.T) {
	store, in, _ := seed(t)
	ctx := context.Background()

	w := NewSyncWorker(store, failingMirror{sheetmem.New()}, nil)
	err := w.HandleSyncMessage(ctx, amqp.NewSyncMessage(core.KindIncome, in.ID, amqp.OpUpsert, 1))
	if !errors.Is(err, errSheetsDown) {
		t.Errorf("expected mirror error, got %v", err)
	}

	err = w.HandleSyncMessage(ctx, &amqp.SyncMessage{Kind: core.KindIncome, RecordID: 1, Operation: "merge"})
	if err == nil {
		t.Error("unknown operation should fail")
	}
}

func TestSyncAll(t *testing.T) {
	store, _, _ := seed(t)
	sheet := sheetmem.New()
	w := NewSyncWorker(store, sheet, nil)
	ctx := context.Background()

	rev, n, err := w.SyncAll(ctx)
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	want, _ := store.Revision(ctx)
	if rev != want || n != 2 {
		t.Errorf("SyncAll() = rev %d rows %d, want rev %d rows 2", rev, n, want)
	}
}
