package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"wallet/internal/amqp"
	"wallet/internal/core"
	applog "wallet/internal/log"
	"wallet/internal/storage"
)

// SyncPublisher announces committed ledger writes to the sync worker.
type SyncPublisher interface {
	PublishSync(ctx context.Context, msg *amqp.SyncMessage) error
}

// LedgerService orchestrates ledger writes across the store and AMQP.
// Publishing is best effort: a write that reached the store is never
// reported as failed because the broker was unavailable.
type LedgerService struct {
	store     storage.Store
	publisher SyncPublisher
	logger    *applog.Logger
	events    *applog.StructuredLogger
}

func NewLedgerService(store storage.Store, publisher SyncPublisher, logger *applog.Logger) *LedgerService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentLedger)
	return &LedgerService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		events:    applog.NewStructuredLogger(logger),
	}
}

// IncomePatch holds the fields of a partial income update.
type IncomePatch struct {
	CategoryID *int64
	Source     *string
	Amount     *decimal.Decimal
	Date       *core.Date
	Note       *string
}

// ExpensePatch holds the fields of a partial expense update.
type ExpensePatch struct {
	Title  *string
	Amount *decimal.Decimal
	Date   *core.Date
}

func (p IncomePatch) apply(in core.Income) core.Income {
	if p.CategoryID != nil {
		in.CategoryID = *p.CategoryID
	}
	if p.Source != nil {
		in.Source = strings.TrimSpace(*p.Source)
	}
	if p.Amount != nil {
		in.Amount = *p.Amount
	}
	if p.Date != nil {
		in.Date = *p.Date
	}
	if p.Note != nil {
		in.Note = strings.TrimSpace(*p.Note)
	}
	return in
}

func (p ExpensePatch) apply(ex core.Expense) core.Expense {
	if p.Title != nil {
		ex.Title = strings.TrimSpace(*p.Title)
	}
	if p.Amount != nil {
		ex.Amount = *p.Amount
	}
	if p.Date != nil {
		ex.Date = *p.Date
	}
	return ex
}

// CreateIncome validates and saves an income, then publishes a sync message.
func (s *LedgerService) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	in.Source = strings.TrimSpace(in.Source)
	in.Note = strings.TrimSpace(in.Note)
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	saved, err := s.store.CreateIncome(ctx, in)
	if err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}
	s.written(ctx, applog.OpCreate, incomeTx(saved))
	s.publish(ctx, core.KindIncome, saved.ID, amqp.OpUpsert)
	return saved, nil
}

// UpdateIncome applies patch to the stored income.
func (s *LedgerService) UpdateIncome(ctx context.Context, id int64, patch IncomePatch) (core.Income, error) {
	current, err := s.store.GetIncome(ctx, id)
	if err != nil {
		return core.Income{}, fmt.Errorf("load income: %w", err)
	}
	next := patch.apply(current)
	if err := next.Validate(); err != nil {
		return core.Income{}, err
	}
	saved, err := s.store.UpdateIncome(ctx, next)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", err)
	}
	s.written(ctx, applog.OpUpdate, incomeTx(saved))
	s.publish(ctx, core.KindIncome, saved.ID, amqp.OpUpsert)
	return saved, nil
}

// DeleteIncome removes an income and returns what was deleted.
func (s *LedgerService) DeleteIncome(ctx context.Context, id int64) (core.Income, error) {
	current, err := s.store.GetIncome(ctx, id)
	if err != nil {
		return core.Income{}, fmt.Errorf("load income: %w", err)
	}
	if err := s.store.DeleteIncome(ctx, id); err != nil {
		return core.Income{}, fmt.Errorf("delete income: %w", err)
	}
	s.written(ctx, applog.OpDelete, incomeTx(current))
	s.publish(ctx, core.KindIncome, id, amqp.OpDelete)
	return current, nil
}

// CreateExpense validates and saves an expense, then publishes a sync message.
func (s *LedgerService) CreateExpense(ctx context.Context, ex core.Expense) (core.Expense, error) {
	ex.Title = strings.TrimSpace(ex.Title)
	if err := ex.Validate(); err != nil {
		return core.Expense{}, err
	}
	saved, err := s.store.CreateExpense(ctx, ex)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.written(ctx, applog.OpCreate, expenseTx(saved))
	s.publish(ctx, core.KindExpense, saved.ID, amqp.OpUpsert)
	return saved, nil
}

// UpdateExpense applies patch to the stored expense.
func (s *LedgerService) UpdateExpense(ctx context.Context, id int64, patch ExpensePatch) (core.Expense, error) {
	current, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("load expense: %w", err)
	}
	next := patch.apply(current)
	if err := next.Validate(); err != nil {
		return core.Expense{}, err
	}
	saved, err := s.store.UpdateExpense(ctx, next)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.written(ctx, applog.OpUpdate, expenseTx(saved))
	s.publish(ctx, core.KindExpense, saved.ID, amqp.OpUpsert)
	return saved, nil
}

// DeleteExpense removes an expense and returns what was deleted.
func (s *LedgerService) DeleteExpense(ctx context.Context, id int64) (core.Expense, error) {
	current, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("load expense: %w", err)
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}
	s.written(ctx, applog.OpDelete, expenseTx(current))
	s.publish(ctx, core.KindExpense, id, amqp.OpDelete)
	return current, nil
}

// CreateCategory adds a named income category.
func (s *LedgerService) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	c := core.Category{Name: strings.TrimSpace(name)}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	saved, err := s.store.CreateCategory(ctx, c.Name)
	if err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category created", applog.FieldRecordID, saved.ID, applog.FieldCategory, saved.Name)
	return saved, nil
}

// RenameCategory changes a category name. Every income row in the mirror
// shows the name, so a full reconcile is requested.
func (s *LedgerService) RenameCategory(ctx context.Context, id int64, name string) (core.Category, error) {
	c := core.Category{ID: id, Name: strings.TrimSpace(name)}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	saved, err := s.store.RenameCategory(ctx, id, c.Name)
	if err != nil {
		return core.Category{}, fmt.Errorf("rename category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category renamed", applog.FieldRecordID, saved.ID, applog.FieldCategory, saved.Name)
	s.publish(ctx, "", 0, amqp.OpReconcile)
	return saved, nil
}

// DeleteCategory removes an unreferenced category. Referenced categories
// are rejected with core.ErrCategoryInUse.
func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) (core.Category, error) {
	current, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("load category: %w", err)
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, core.ErrCategoryInUse) {
			s.logger.WarnContext(ctx, "Category delete rejected", applog.FieldRecordID, id, applog.FieldError, err)
		}
		return core.Category{}, fmt.Errorf("delete category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category deleted", applog.FieldRecordID, id, applog.FieldCategory, current.Name)
	return current, nil
}

func (s *LedgerService) written(ctx context.Context, op string, t core.Transaction) {
	s.events.LogTransactionWritten(ctx, op, string(t.Kind), t.ID, t.Title, core.FormatAmount(t.Amount), t.Date.String())
}

func (s *LedgerService) publish(ctx context.Context, kind core.Kind, id int64, op amqp.Operation) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping sync message")
		return
	}
	rev, err := s.store.Revision(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read revision for sync message", applog.FieldError, err)
	}
	msg := amqp.NewSyncMessage(kind, id, op, rev)
	if err := s.publisher.PublishSync(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			applog.FieldKind, string(kind),
			applog.FieldRecordID, id,
			applog.FieldError, err)
	}
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if closer, ok := s.publisher.(interface{ Close() error }); ok && closer != nil {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}

func incomeTx(in core.Income) core.Transaction {
	return core.Transaction{Kind: core.KindIncome, ID: in.ID, Title: in.Source, Amount: in.Amount, Date: in.Date}
}

func expenseTx(ex core.Expense) core.Transaction {
	return core.Transaction{Kind: core.KindExpense, ID: ex.ID, Title: ex.Title, Amount: ex.Amount, Date: ex.Date}
}
