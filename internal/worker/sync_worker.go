// Package worker mirrors committed ledger writes into the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"wallet/internal/amqp"
	"wallet/internal/core"
	"wallet/internal/ledger"
	applog "wallet/internal/log"
	"wallet/internal/sheets"
	"wallet/internal/storage"
)

// SyncWorker handles synchronization of ledger records to the sheet mirror
type SyncWorker struct {
	store  storage.Reader
	mirror sheets.Mirror
	logger *applog.Logger
}

func NewSyncWorker(store storage.Reader, mirror sheets.Mirror, logger *applog.Logger) *SyncWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &SyncWorker{
		store:  store,
		mirror: mirror,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleSyncMessage applies a single sync message from AMQP to the mirror.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		applog.FieldMessageID, msg.MessageID,
		applog.FieldOperation, string(msg.Operation),
		applog.FieldKind, string(msg.Kind),
		applog.FieldRecordID, msg.RecordID,
		applog.FieldRevision, msg.Revision)

	switch msg.Operation {
	case amqp.OpReconcile:
		_, _, err := w.SyncAll(ctx)
		return err
	case amqp.OpDelete:
		return w.deleteRow(ctx, core.TransactionKey(msg.Kind, msg.RecordID))
	case amqp.OpUpsert:
		t, err := w.load(ctx, msg.Kind, msg.RecordID)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted after the message was published; the delete message
			// may still be queued, so the row is removed either way.
			return w.deleteRow(ctx, core.TransactionKey(msg.Kind, msg.RecordID))
		}
		if err != nil {
			return fmt.Errorf("load %s %d: %w", msg.Kind, msg.RecordID, err)
		}
		ref, err := w.mirror.Upsert(ctx, t)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", t.Key(), err)
		}
		w.logger.InfoContext(ctx, "Successfully synced transaction",
			applog.FieldKind, string(t.Kind),
			applog.FieldRecordID, t.ID,
			applog.FieldSheetsRef, ref,
			applog.FieldAmount, core.FormatAmount(t.Amount))
		return nil
	default:
		return fmt.Errorf("unknown operation: %s", msg.Operation)
	}
}

// SyncAll rewrites the mirror from the full feed. It returns the revision
// the feed was read at; writes committed after it are picked up by the
// next reconcile.
func (w *SyncWorker) SyncAll(ctx context.Context) (int64, int, error) {
	rev, err := w.store.Revision(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("read revision: %w", err)
	}

	var (
		incomes    []core.Income
		expenses   []core.Expense
		categories []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { incomes, err = w.store.ListIncomes(gctx); return })
	g.Go(func() (err error) { expenses, err = w.store.ListExpenses(gctx); return })
	g.Go(func() (err error) { categories, err = w.store.ListCategories(gctx); return })
	if err := g.Wait(); err != nil {
		return 0, 0, fmt.Errorf("load ledger: %w", err)
	}

	feed, err := ledger.BuildFeed(incomes, expenses, storage.CategoryIndex(categories), ledger.Options{})
	if err != nil {
		return 0, 0, fmt.Errorf("build feed: %w", err)
	}
	for _, a := range feed.Anomalies {
		w.logger.WarnContext(ctx, "Mirroring transaction with unresolved category", "anomaly", a.String())
	}

	n, err := w.mirror.ReplaceAll(ctx, feed.Transactions)
	if err != nil {
		return 0, 0, fmt.Errorf("replace mirror: %w", err)
	}

	w.logger.InfoContext(ctx, "Mirror reconciled",
		applog.FieldRevision, rev,
		applog.FieldCount, n)
	return rev, n, nil
}

func (w *SyncWorker) load(ctx context.Context, kind core.Kind, id int64) (core.Transaction, error) {
	switch kind {
	case core.KindIncome:
		in, err := w.store.GetIncome(ctx, id)
		if err != nil {
			return core.Transaction{}, err
		}
		ref := core.CategoryRef{Name: core.UnknownCategoryName}
		c, err := w.store.GetCategory(ctx, in.CategoryID)
		switch {
		case err == nil:
			ref = core.CategoryRef{ID: &c.ID, Name: c.Name}
		case errors.Is(err, core.ErrNotFound):
			w.logger.WarnContext(ctx, "Income references a missing category",
				applog.FieldRecordID, id,
				applog.FieldCategory, in.CategoryID)
		default:
			return core.Transaction{}, err
		}
		return ledger.FromIncome(in, ref), nil
	case core.KindExpense:
		ex, err := w.store.GetExpense(ctx, id)
		if err != nil {
			return core.Transaction{}, err
		}
		return ledger.FromExpense(ex), nil
	default:
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidKind, kind)
	}
}

func (w *SyncWorker) deleteRow(ctx context.Context, key string) error {
	if err := w.mirror.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	w.logger.InfoContext(ctx, "Successfully deleted transaction from mirror", "key", key)
	return nil
}
