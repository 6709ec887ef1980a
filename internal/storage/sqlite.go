package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wallet/internal/core"

	_ "modernc.org/sqlite"
)

const timestampLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

func sqliteDSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY churn
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) Revision(ctx context.Context) (int64, error) {
	var rev int64
	if err := r.db.QueryRowContext(ctx, `SELECT value FROM ledger_revision WHERE id = 1`).Scan(&rev); err != nil {
		return 0, unavailable("read revision", err)
	}
	return rev, nil
}

// withTx runs fn in a transaction and bumps the revision before commit.
func (r *SQLiteRepository) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE ledger_revision SET value = value + 1 WHERE id = 1`); err != nil {
		return unavailable(op, err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable(op, err)
	}
	return nil
}

// Categories

const categoryColumns = `id, name, created_at`

func scanCategory(s rowScanner) (core.Category, error) {
	var (
		c       core.Category
		created string
	)
	if err := s.Scan(&c.ID, &c.Name, &created); err != nil {
		return c, err
	}
	var err error
	c.CreatedAt, err = parseTimestamp("created_at", created)
	return c, err
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, unavailable("list categories", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, unavailable("scan category", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list categories", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, notFound("category", id)
	}
	if err != nil {
		return c, unavailable("get category", err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	c := core.Category{Name: name, CreatedAt: time.Now().UTC()}
	err := r.withTx(ctx, "create category", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO categories (name, created_at) VALUES (?, ?)`,
			name, formatTimestamp(c.CreatedAt))
		if isUniqueViolation(err) {
			return duplicateCategory(name)
		}
		if err != nil {
			return unavailable("insert category", err)
		}
		c.ID, err = res.LastInsertId()
		if err != nil {
			return unavailable("insert category", err)
		}
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}
	logFor(ctx).InfoContext(ctx, "Category saved to SQLite", "id", c.ID, "name", c.Name)
	return c, nil
}

func (r *SQLiteRepository) RenameCategory(ctx context.Context, id int64, name string) (core.Category, error) {
	err := r.withTx(ctx, "rename category", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
		if isUniqueViolation(err) {
			return duplicateCategory(name)
		}
		if err != nil {
			return unavailable("rename category", err)
		}
		return requireAffected(res, "category", id)
	})
	if err != nil {
		return core.Category{}, err
	}
	return r.GetCategory(ctx, id)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	return r.withTx(ctx, "delete category", func(tx *sql.Tx) error {
		var refs int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM incomes WHERE category_id = ?`, id).Scan(&refs); err != nil {
			return unavailable("count category references", err)
		}
		if refs > 0 {
			return categoryInUse(id, refs)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return unavailable("delete category", err)
		}
		return requireAffected(res, "category", id)
	})
}

// Incomes

const incomeColumns = `id, category_id, source, amount_cents, date, note, created_at, updated_at`

func scanIncome(s rowScanner) (core.Income, error) {
	var (
		in                     core.Income
		cents                  int64
		date, created, updated string
	)
	if err := s.Scan(&in.ID, &in.CategoryID, &in.Source, &cents, &date, &in.Note, &created, &updated); err != nil {
		return in, err
	}
	in.Amount = core.AmountFromCents(cents)
	return in, parseTimes(date, created, updated, &in.Date, &in.CreatedAt, &in.UpdatedAt)
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+incomeColumns+` FROM incomes ORDER BY date DESC, created_at DESC, id DESC`)
	if err != nil {
		return nil, unavailable("list incomes", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, unavailable("scan income", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list incomes", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	in, err := scanIncome(r.db.QueryRowContext(ctx, `SELECT `+incomeColumns+` FROM incomes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return in, notFound("income", id)
	}
	if err != nil {
		return in, unavailable("get income", err)
	}
	return in, nil
}

func categoryExists(ctx context.Context, tx *sql.Tx, id int64) error {
	var n int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE id = ?`, id).Scan(&n); err != nil {
		return unavailable("check category", err)
	}
	if n == 0 {
		return missingCategory(id)
	}
	return nil
}

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	now := time.Now().UTC()
	in.CreatedAt, in.UpdatedAt = now, now
	err := r.withTx(ctx, "create income", func(tx *sql.Tx) error {
		if err := categoryExists(ctx, tx, in.CategoryID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO incomes (category_id, source, amount_cents, date, note, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			in.CategoryID, in.Source, core.AmountToCents(in.Amount), in.Date.String(), in.Note,
			formatTimestamp(in.CreatedAt), formatTimestamp(in.UpdatedAt))
		if err != nil {
			return unavailable("insert income", err)
		}
		in.ID, err = res.LastInsertId()
		if err != nil {
			return unavailable("insert income", err)
		}
		return nil
	})
	if err != nil {
		return core.Income{}, err
	}

	logFor(ctx).InfoContext(ctx, "Income saved to SQLite",
		"id", in.ID,
		"source", in.Source,
		"amount", core.FormatAmount(in.Amount),
		"date", in.Date.String())
	return in, nil
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	in.UpdatedAt = time.Now().UTC()
	err := r.withTx(ctx, "update income", func(tx *sql.Tx) error {
		if err := categoryExists(ctx, tx, in.CategoryID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE incomes SET category_id = ?, source = ?, amount_cents = ?, date = ?, note = ?, updated_at = ? WHERE id = ?`,
			in.CategoryID, in.Source, core.AmountToCents(in.Amount), in.Date.String(), in.Note,
			formatTimestamp(in.UpdatedAt), in.ID)
		if err != nil {
			return unavailable("update income", err)
		}
		return requireAffected(res, "income", in.ID)
	})
	if err != nil {
		return core.Income{}, err
	}
	return r.GetIncome(ctx, in.ID)
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id int64) error {
	return r.withTx(ctx, "delete income", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM incomes WHERE id = ?`, id)
		if err != nil {
			return unavailable("delete income", err)
		}
		return requireAffected(res, "income", id)
	})
}

// Expenses

const expenseColumns = `id, title, amount_cents, date, created_at, updated_at`

func scanExpense(s rowScanner) (core.Expense, error) {
	var (
		ex                     core.Expense
		cents                  int64
		date, created, updated string
	)
	if err := s.Scan(&ex.ID, &ex.Title, &cents, &date, &created, &updated); err != nil {
		return ex, err
	}
	ex.Amount = core.AmountFromCents(cents)
	return ex, parseTimes(date, created, updated, &ex.Date, &ex.CreatedAt, &ex.UpdatedAt)
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, created_at DESC, id DESC`)
	if err != nil {
		return nil, unavailable("list expenses", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		ex, err := scanExpense(rows)
		if err != nil {
			return nil, unavailable("scan expense", err)
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list expenses", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	ex, err := scanExpense(r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ex, notFound("expense", id)
	}
	if err != nil {
		return ex, unavailable("get expense", err)
	}
	return ex, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, ex core.Expense) (core.Expense, error) {
	now := time.Now().UTC()
	ex.CreatedAt, ex.UpdatedAt = now, now
	err := r.withTx(ctx, "create expense", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (title, amount_cents, date, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			ex.Title, core.AmountToCents(ex.Amount), ex.Date.String(),
			formatTimestamp(ex.CreatedAt), formatTimestamp(ex.UpdatedAt))
		if err != nil {
			return unavailable("insert expense", err)
		}
		ex.ID, err = res.LastInsertId()
		if err != nil {
			return unavailable("insert expense", err)
		}
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}

	logFor(ctx).InfoContext(ctx, "Expense saved to SQLite",
		"id", ex.ID,
		"title", ex.Title,
		"amount", core.FormatAmount(ex.Amount),
		"date", ex.Date.String())
	return ex, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, ex core.Expense) (core.Expense, error) {
	ex.UpdatedAt = time.Now().UTC()
	err := r.withTx(ctx, "update expense", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE expenses SET title = ?, amount_cents = ?, date = ?, updated_at = ? WHERE id = ?`,
			ex.Title, core.AmountToCents(ex.Amount), ex.Date.String(), formatTimestamp(ex.UpdatedAt), ex.ID)
		if err != nil {
			return unavailable("update expense", err)
		}
		return requireAffected(res, "expense", ex.ID)
	})
	if err != nil {
		return core.Expense{}, err
	}
	return r.GetExpense(ctx, ex.ID)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	return r.withTx(ctx, "delete expense", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
		if err != nil {
			return unavailable("delete expense", err)
		}
		return requireAffected(res, "expense", id)
	})
}

func requireAffected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("rows affected", err)
	}
	if n == 0 {
		return notFound(what, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(column, s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt %s %q: %w", column, s, err)
	}
	return t, nil
}

func parseDate(s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("corrupt date %q: %w", s, err)
	}
	return d, nil
}

// parseTimes fills the date, created_at and updated_at columns of a row.
func parseTimes(date, created, updated string, d *core.Date, c, u *time.Time) error {
	var err error
	if *d, err = parseDate(date); err != nil {
		return err
	}
	if *c, err = parseTimestamp("created_at", created); err != nil {
		return err
	}
	*u, err = parseTimestamp("updated_at", updated)
	return err
}
