package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"wallet/internal/amqp"
	"wallet/internal/core"
	"wallet/internal/storage/memory"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.SyncMessage
	err  error
}

func (p *recordingPublisher) PublishSync(_ context.Context, msg *amqp.SyncMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) last(t *testing.T) *amqp.SyncMessage {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.msgs) == 0 {
		t.Fatal("no sync message published")
	}
	return p.msgs[len(p.msgs)-1]
}

func newTestService(pub SyncPublisher) (*LedgerService, *memory.Store) {
	store := memory.New([]string{"Salary", "Business"})
	return NewLedgerService(store, pub, nil), store
}

func TestNewLedgerService(t *testing.T) {
	service := NewLedgerService(nil, nil, nil)

	if service == nil {
		t.Fatal("NewLedgerService should return a non-nil service")
	}
	if service.store != nil {
		t.Error("NewLedgerService should set store to nil when passed nil")
	}
	if service.logger == nil {
		t.Error("NewLedgerService should fall back to a default logger")
	}
}

func TestLedgerService_CreateIncome(t *testing.T) {
	pub := &recordingPublisher{}
	service, store := newTestService(pub)
	ctx := context.Background()

	saved, err := service.CreateIncome(ctx, core.Income{
		CategoryID: 1,
		Source:     "  Monthly salary ",
		Amount:     decimal.RequireFromString("3000.00"),
		Date:       core.NewDate(2024, 1, 15),
	})
	if err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}
	if saved.ID == 0 || saved.Source != "Monthly salary" {
		t.Errorf("CreateIncome() = %+v", saved)
	}

	msg := pub.last(t)
	if msg.Kind != core.KindIncome || msg.RecordID != saved.ID || msg.Operation != amqp.OpUpsert {
		t.Errorf("published %+v", msg)
	}
	rev, _ := store.Revision(ctx)
	if msg.Revision != rev {
		t.Errorf("message revision = %d, want %d", msg.Revision, rev)
	}
}

func TestLedgerService_CreateIncome_Invalid(t *testing.T) {
	pub := &recordingPublisher{}
	service, _ := newTestService(pub)
	ctx := context.Background()

	tests := []struct {
		name string
		in   core.Income
		want error
	}{
		{
			name: "zero amount",
			in:   core.Income{CategoryID: 1, Source: "x", Amount: decimal.Zero, Date: core.NewDate(2024, 1, 1)},
			want: core.ErrInvalidAmount,
		},
		{
			name: "blank source",
			in:   core.Income{CategoryID: 1, Source: "   ", Amount: decimal.NewFromInt(1), Date: core.NewDate(2024, 1, 1)},
			want: core.ErrValidation,
		},
		{
			name: "unknown category",
			in:   core.Income{CategoryID: 99, Source: "x", Amount: decimal.NewFromInt(1), Date: core.NewDate(2024, 1, 1)},
			want: core.ErrMissingCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateIncome(ctx, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("CreateIncome() error = %v, want %v", err, tt.want)
			}
		})
	}

	if len(pub.msgs) != 0 {
		t.Errorf("rejected writes should not publish, got %d messages", len(pub.msgs))
	}
}

func TestLedgerService_UpdateIncome(t *testing.T) {
	pub := &recordingPublisher{}
	service, _ := newTestService(pub)
	ctx := context.Background()

	saved, err := service.CreateIncome(ctx, core.Income{
		CategoryID: 1,
		Source:     "Salary",
		Amount:     decimal.RequireFromString("100.00"),
		Date:       core.NewDate(2024, 1, 15),
		Note:       "january",
	})
	if err != nil {
		t.Fatal(err)
	}

	amount := decimal.RequireFromString("150.50")
	category := int64(2)
	updated, err := service.UpdateIncome(ctx, saved.ID, IncomePatch{Amount: &amount, CategoryID: &category})
	if err != nil {
		t.Fatalf("UpdateIncome() error = %v", err)
	}
	if !updated.Amount.Equal(amount) || updated.CategoryID != 2 {
		t.Errorf("UpdateIncome() = %+v", updated)
	}
	if updated.Note != "january" || updated.Source != "Salary" {
		t.Errorf("untouched fields changed: %+v", updated)
	}

	if _, err := service.UpdateIncome(ctx, 404, IncomePatch{Amount: &amount}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateIncome() on missing id error = %v", err)
	}

	negative := decimal.NewFromInt(-5)
	if _, err := service.UpdateIncome(ctx, saved.ID, IncomePatch{Amount: &negative}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("UpdateIncome() negative amount error = %v", err)
	}
}

func TestLedgerService_DeleteExpense(t *testing.T) {
	pub := &recordingPublisher{}
	service, store := newTestService(pub)
	ctx := context.Background()

	saved, err := service.CreateExpense(ctx, core.Expense{
		Title:  "Groceries",
		Amount: decimal.RequireFromString("45.99"),
		Date:   core.NewDate(2024, 2, 1),
	})
	if err != nil {
		t.Fatal(err)
	}

	deleted, err := service.DeleteExpense(ctx, saved.ID)
	if err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	if deleted.Title != "Groceries" {
		t.Errorf("DeleteExpense() returned %+v", deleted)
	}
	if _, err := store.GetExpense(ctx, saved.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expense should be gone, got %v", err)
	}

	msg := pub.last(t)
	if msg.Operation != amqp.OpDelete || msg.Kind != core.KindExpense || msg.RecordID != saved.ID {
		t.Errorf("published %+v", msg)
	}

	if _, err := service.DeleteExpense(ctx, saved.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete error = %v", err)
	}
}

func TestLedgerService_UpdateExpense(t *testing.T) {
	service, _ := newTestService(nil)
	ctx := context.Background()

	saved, err := service.CreateExpense(ctx, core.Expense{
		Title:  "Rent",
		Amount: decimal.RequireFromString("800"),
		Date:   core.NewDate(2024, 3, 1),
	})
	if err != nil {
		t.Fatal(err)
	}

	title := " Rent March "
	date := core.NewDate(2024, 3, 2)
	updated, err := service.UpdateExpense(ctx, saved.ID, ExpensePatch{Title: &title, Date: &date})
	if err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}
	if updated.Title != "Rent March" || updated.Date != date {
		t.Errorf("UpdateExpense() = %+v", updated)
	}
}

func TestLedgerService_PublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: amqp.ErrCircuitOpen}
	service, store := newTestService(pub)
	ctx := context.Background()

	saved, err := service.CreateExpense(ctx, core.Expense{
		Title:  "Coffee",
		Amount: decimal.RequireFromString("2.50"),
		Date:   core.NewDate(2024, 1, 1),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if _, err := store.GetExpense(ctx, saved.ID); err != nil {
		t.Errorf("expense should be stored: %v", err)
	}
}

func TestLedgerService_Categories(t *testing.T) {
	pub := &recordingPublisher{}
	service, _ := newTestService(pub)
	ctx := context.Background()

	created, err := service.CreateCategory(ctx, " Freelancing ")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if created.Name != "Freelancing" {
		t.Errorf("CreateCategory() name = %q", created.Name)
	}

	if _, err := service.CreateCategory(ctx, "Freelancing"); !errors.Is(err, core.ErrDuplicate) {
		t.Errorf("duplicate CreateCategory() error = %v", err)
	}
	if _, err := service.CreateCategory(ctx, ""); !errors.Is(err, core.ErrValidation) {
		t.Errorf("empty CreateCategory() error = %v", err)
	}

	renamed, err := service.RenameCategory(ctx, created.ID, "Consulting")
	if err != nil {
		t.Fatalf("RenameCategory() error = %v", err)
	}
	if renamed.Name != "Consulting" {
		t.Errorf("RenameCategory() = %+v", renamed)
	}
	if msg := pub.last(t); msg.Operation != amqp.OpReconcile {
		t.Errorf("rename should request a reconcile, got %s", msg.Operation)
	}

	if _, err := service.CreateIncome(ctx, core.Income{
		CategoryID: created.ID,
		Source:     "Client",
		Amount:     decimal.NewFromInt(10),
		Date:       core.NewDate(2024, 1, 1),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := service.DeleteCategory(ctx, created.ID); !errors.Is(err, core.ErrCategoryInUse) {
		t.Errorf("DeleteCategory() on referenced category error = %v", err)
	}

	deleted, err := service.DeleteCategory(ctx, 2)
	if err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if deleted.Name != "Business" {
		t.Errorf("DeleteCategory() = %+v", deleted)
	}
}

func TestLedgerService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := &LedgerService{}

		if err := service.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})

	t.Run("memory store", func(t *testing.T) {
		service, _ := newTestService(&recordingPublisher{})

		if err := service.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	})
}
