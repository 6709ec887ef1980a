// Package report is the read side of the ledger: it loads a consistent
// snapshot from the store, builds the merged feed and answers dashboard,
// listing, search and export queries from it.
package report

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"wallet/internal/cache"
	"wallet/internal/core"
	"wallet/internal/export"
	"wallet/internal/ledger"
	applog "wallet/internal/log"
	"wallet/internal/storage"
)

const (
	DefaultRecentLimit = 10
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
)

type Config struct {
	// RecentLimit is the number of transactions on the dashboard.
	RecentLimit int
	// Strict fails snapshots holding incomes with unknown categories.
	Strict bool
	// Instance names the database behind the store in cache keys, so
	// services over different databases can share one feed cache.
	Instance string
}

type Service struct {
	store  storage.Reader
	cache  cache.Cache[ledger.Feed]
	cfg    Config
	logger *applog.Logger
}

// Dashboard is the overview returned by DashboardSummary.
type Dashboard struct {
	Summary   core.Summary
	Recent    []core.Transaction
	Anomalies int
}

// Query selects and optionally paginates a listing. Page 0 disables
// pagination.
type Query struct {
	Criteria ledger.Criteria
	Page     int
	PageSize int
}

// Listing is a filtered view with totals over the whole filtered set.
type Listing struct {
	Transactions []core.Transaction
	Summary      core.Summary
	Page         *ledger.Page
}

func NewService(store storage.Reader, c cache.Cache[ledger.Feed], cfg Config, logger *applog.Logger) *Service {
	if c == nil {
		c = cache.Noop[ledger.Feed]{}
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Service{store: store, cache: c, cfg: cfg, logger: logger.WithComponent(applog.ComponentReport)}
}

func storeErr(op string, err error) error {
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", core.ErrStoreUnavailable, op, err)
}

func (s *Service) feedKey(rev int64) string {
	key := "feed:"
	if s.cfg.Instance != "" {
		key += s.cfg.Instance + ":"
	}
	return key + strconv.FormatInt(rev, 10) + ":" + strconv.FormatBool(s.cfg.Strict)
}

// Snapshot returns the full ordered feed for the current store revision.
func (s *Service) Snapshot(ctx context.Context) (ledger.Feed, error) {
	rev, err := s.store.Revision(ctx)
	if err != nil {
		return ledger.Feed{}, storeErr("read revision", err)
	}
	key := s.feedKey(rev)
	if feed, ok := s.cache.Get(ctx, key); ok {
		s.logger.DebugContext(ctx, "Feed served from cache", applog.FieldRevision, rev)
		return feed, nil
	}

	var (
		incomes    []core.Income
		expenses   []core.Expense
		categories []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if incomes, err = s.store.ListIncomes(gctx); err != nil {
			return storeErr("list incomes", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if expenses, err = s.store.ListExpenses(gctx); err != nil {
			return storeErr("list expenses", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if categories, err = s.store.ListCategories(gctx); err != nil {
			return storeErr("list categories", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load ledger snapshot", applog.FieldError, err, applog.FieldRevision, rev)
		return ledger.Feed{}, err
	}

	feed, err := ledger.BuildFeed(incomes, expenses, storage.CategoryIndex(categories), ledger.Options{Strict: s.cfg.Strict})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build feed", applog.FieldError, err, applog.FieldRevision, rev)
		return ledger.Feed{}, err
	}
	if len(feed.Anomalies) > 0 {
		anomalies := make([]string, len(feed.Anomalies))
		for i, a := range feed.Anomalies {
			anomalies[i] = a.String()
		}
		s.logger.WarnContext(ctx, "Incomes reference missing categories",
			applog.FieldCount, len(anomalies),
			"anomalies", anomalies,
			applog.FieldRevision, rev)
	}

	// A write between the revision read and the list queries may have
	// mixed two revisions into the feed; serve it but keep it out of the cache.
	if after, err := s.store.Revision(ctx); err != nil || after != rev {
		s.logger.DebugContext(ctx, "Ledger changed while loading, feed not cached",
			applog.FieldRevision, rev, "revision_after", after)
		return feed, nil
	}
	s.cache.Set(ctx, key, feed)
	return feed, nil
}

// DashboardSummary returns overall totals and the most recent transactions.
func (s *Service) DashboardSummary(ctx context.Context) (Dashboard, error) {
	feed, err := s.Snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Summary:   feed.Summary,
		Recent:    ledger.Recent(feed.Transactions, s.cfg.RecentLimit),
		Anomalies: len(feed.Anomalies),
	}, nil
}

// ListTransactions filters the feed; Summary covers every match even when
// only one page is returned.
func (s *Service) ListTransactions(ctx context.Context, q Query) (Listing, error) {
	if err := q.Criteria.Validate(); err != nil {
		return Listing{}, err
	}
	feed, err := s.Snapshot(ctx)
	if err != nil {
		return Listing{}, err
	}
	matched, err := ledger.Filter(feed.Transactions, q.Criteria)
	if err != nil {
		return Listing{}, err
	}

	out := Listing{Transactions: matched, Summary: ledger.Summarize(matched)}
	if q.Page > 0 {
		page := ledger.Paginate(matched, q.Page, q.PageSize)
		out.Transactions = page.Items
		out.Page = &page
	}
	return out, nil
}

// ListCategories returns every category ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, storeErr("list categories", err)
	}
	if cats == nil {
		cats = []core.Category{}
	}
	return cats, nil
}

// Search returns up to limit transactions whose text matches query.
func (s *Service) Search(ctx context.Context, query string, kind core.Kind, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, MaxSearchLimit)
	feed, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Search(feed.Transactions, query, kind, limit)
}

// Breakdown totals the matching transactions per category.
func (s *Service) Breakdown(ctx context.Context, c ledger.Criteria) ([]core.CategoryAmount, error) {
	l, err := s.ListTransactions(ctx, Query{Criteria: c})
	if err != nil {
		return nil, err
	}
	return ledger.Breakdown(l.Transactions), nil
}

// Monthly totals the matching transactions per calendar month.
func (s *Service) Monthly(ctx context.Context, c ledger.Criteria) ([]core.MonthOverview, error) {
	l, err := s.ListTransactions(ctx, Query{Criteria: c})
	if err != nil {
		return nil, err
	}
	return ledger.Monthly(l.Transactions), nil
}

// Export renders the matching transactions as CSV.
func (s *Service) Export(ctx context.Context, c ledger.Criteria) ([]byte, error) {
	l, err := s.ListTransactions(ctx, Query{Criteria: c})
	if err != nil {
		return nil, err
	}
	out, err := export.ToCSV(l.Transactions)
	if err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}
	s.logger.InfoContext(ctx, "Transactions exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldKind, string(c.Kind),
		applog.FieldCount, len(l.Transactions))
	return out, nil
}

// Income returns one income as a Transaction. An unresolvable category
// fails with core.ErrMissingCategory.
func (s *Service) Income(ctx context.Context, id int64) (core.Transaction, error) {
	in, err := s.store.GetIncome(ctx, id)
	if err != nil {
		return core.Transaction{}, storeErr("get income", err)
	}
	cat, err := s.store.GetCategory(ctx, in.CategoryID)
	if errors.Is(err, core.ErrNotFound) {
		return core.Transaction{}, fmt.Errorf("income %d: %w: id %d", id, core.ErrMissingCategory, in.CategoryID)
	}
	if err != nil {
		return core.Transaction{}, storeErr("get category", err)
	}
	ref, err := ledger.ResolveCategory(map[int64]core.Category{cat.ID: cat}, in.CategoryID)
	if err != nil {
		return core.Transaction{}, err
	}
	return ledger.FromIncome(in, ref), nil
}

// Expense returns one expense as a Transaction.
func (s *Service) Expense(ctx context.Context, id int64) (core.Transaction, error) {
	ex, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Transaction{}, storeErr("get expense", err)
	}
	return ledger.FromExpense(ex), nil
}

// Transaction fetches one record of the given kind.
func (s *Service) Transaction(ctx context.Context, kind core.Kind, id int64) (core.Transaction, error) {
	switch kind {
	case core.KindIncome:
		return s.Income(ctx, id)
	case core.KindExpense:
		return s.Expense(ctx, id)
	default:
		return core.Transaction{}, &core.ValidationError{Field: "type", Message: "must be income or expense", Err: core.ErrInvalidKind}
	}
}

// CacheStats reports the feed cache counters when the cache keeps them.
func (s *Service) CacheStats() (cache.Stats, bool) {
	r, ok := s.cache.(cache.StatsReporter)
	if !ok {
		return cache.Stats{}, false
	}
	return r.Stats(), true
}
