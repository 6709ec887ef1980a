package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"wallet/internal/core"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresRepository is the pgx-backed Store.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresRepository)(nil)

// NewPostgresRepository connects, pings and migrates the database at url.
func NewPostgresRepository(ctx context.Context, url string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := RunPostgresMigrations(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Ping reports whether the database answers.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) Revision(ctx context.Context) (int64, error) {
	var rev int64
	if err := r.pool.QueryRow(ctx, `SELECT value FROM ledger_revision WHERE id = 1`).Scan(&rev); err != nil {
		return 0, unavailable("read revision", err)
	}
	return rev, nil
}

func (r *PostgresRepository) withTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return unavailable(op, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE ledger_revision SET value = value + 1 WHERE id = 1`); err != nil {
		return unavailable(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return unavailable(op, err)
	}
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error), op string) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, unavailable(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

// Categories

func scanPgCategory(row pgx.Row) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.Name, &c.CreatedAt)
	return c, err
}

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, unavailable("list categories", err)
	}
	return collect(rows, scanPgCategory, "list categories")
}

func (r *PostgresRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c, err := scanPgCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return c, notFound("category", id)
	}
	if err != nil {
		return c, unavailable("get category", err)
	}
	return c, nil
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	var c core.Category
	err := r.withTx(ctx, "create category", func(tx pgx.Tx) error {
		var err error
		c, err = scanPgCategory(tx.QueryRow(ctx,
			`INSERT INTO categories (name) VALUES ($1) RETURNING `+categoryColumns, name))
		if pgCode(err) == pgUniqueViolation {
			return duplicateCategory(name)
		}
		if err != nil {
			return unavailable("insert category", err)
		}
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}
	logFor(ctx).InfoContext(ctx, "Category saved to Postgres", "id", c.ID, "name", c.Name)
	return c, nil
}

func (r *PostgresRepository) RenameCategory(ctx context.Context, id int64, name string) (core.Category, error) {
	var c core.Category
	err := r.withTx(ctx, "rename category", func(tx pgx.Tx) error {
		var err error
		c, err = scanPgCategory(tx.QueryRow(ctx,
			`UPDATE categories SET name = $1 WHERE id = $2 RETURNING `+categoryColumns, name, id))
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return notFound("category", id)
		case pgCode(err) == pgUniqueViolation:
			return duplicateCategory(name)
		case err != nil:
			return unavailable("rename category", err)
		}
		return nil
	})
	return c, err
}

func (r *PostgresRepository) DeleteCategory(ctx context.Context, id int64) error {
	return r.withTx(ctx, "delete category", func(tx pgx.Tx) error {
		var refs int64
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM incomes WHERE category_id = $1`, id).Scan(&refs); err != nil {
			return unavailable("count category references", err)
		}
		if refs > 0 {
			return categoryInUse(id, refs)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if pgCode(err) == pgForeignKeyViolation {
			return categoryInUse(id, 1)
		}
		if err != nil {
			return unavailable("delete category", err)
		}
		if tag.RowsAffected() == 0 {
			return notFound("category", id)
		}
		return nil
	})
}

// Incomes

func scanPgIncome(row pgx.Row) (core.Income, error) {
	var (
		in    core.Income
		cents int64
		date  time.Time
	)
	if err := row.Scan(&in.ID, &in.CategoryID, &in.Source, &cents, &date, &in.Note, &in.CreatedAt, &in.UpdatedAt); err != nil {
		return in, err
	}
	in.Amount = core.AmountFromCents(cents)
	in.Date = core.DateOf(date)
	return in, nil
}

func (r *PostgresRepository) ListIncomes(ctx context.Context) ([]core.Income, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+incomeColumns+` FROM incomes ORDER BY date DESC, created_at DESC, id DESC`)
	if err != nil {
		return nil, unavailable("list incomes", err)
	}
	return collect(rows, scanPgIncome, "list incomes")
}

func (r *PostgresRepository) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	in, err := scanPgIncome(r.pool.QueryRow(ctx, `SELECT `+incomeColumns+` FROM incomes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return in, notFound("income", id)
	}
	if err != nil {
		return in, unavailable("get income", err)
	}
	return in, nil
}

func (r *PostgresRepository) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	var out core.Income
	err := r.withTx(ctx, "create income", func(tx pgx.Tx) error {
		var err error
		out, err = scanPgIncome(tx.QueryRow(ctx,
			`INSERT INTO incomes (category_id, source, amount_cents, date, note) VALUES ($1, $2, $3, $4, $5) RETURNING `+incomeColumns,
			in.CategoryID, in.Source, core.AmountToCents(in.Amount), in.Date.Time, in.Note))
		if pgCode(err) == pgForeignKeyViolation {
			return missingCategory(in.CategoryID)
		}
		if err != nil {
			return unavailable("insert income", err)
		}
		return nil
	})
	if err != nil {
		return core.Income{}, err
	}
	logFor(ctx).InfoContext(ctx, "Income saved to Postgres", "id", out.ID, "amount", core.FormatAmount(out.Amount))
	return out, nil
}

func (r *PostgresRepository) UpdateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	var out core.Income
	err := r.withTx(ctx, "update income", func(tx pgx.Tx) error {
		var err error
		out, err = scanPgIncome(tx.QueryRow(ctx,
			`UPDATE incomes SET category_id = $1, source = $2, amount_cents = $3, date = $4, note = $5, updated_at = now()
			 WHERE id = $6 RETURNING `+incomeColumns,
			in.CategoryID, in.Source, core.AmountToCents(in.Amount), in.Date.Time, in.Note, in.ID))
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return notFound("income", in.ID)
		case pgCode(err) == pgForeignKeyViolation:
			return missingCategory(in.CategoryID)
		case err != nil:
			return unavailable("update income", err)
		}
		return nil
	})
	return out, err
}

func (r *PostgresRepository) DeleteIncome(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "incomes", "income", id)
}

// Expenses

func scanPgExpense(row pgx.Row) (core.Expense, error) {
	var (
		ex    core.Expense
		cents int64
		date  time.Time
	)
	if err := row.Scan(&ex.ID, &ex.Title, &cents, &date, &ex.CreatedAt, &ex.UpdatedAt); err != nil {
		return ex, err
	}
	ex.Amount = core.AmountFromCents(cents)
	ex.Date = core.DateOf(date)
	return ex, nil
}

func (r *PostgresRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, created_at DESC, id DESC`)
	if err != nil {
		return nil, unavailable("list expenses", err)
	}
	return collect(rows, scanPgExpense, "list expenses")
}

func (r *PostgresRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	ex, err := scanPgExpense(r.pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return ex, notFound("expense", id)
	}
	if err != nil {
		return ex, unavailable("get expense", err)
	}
	return ex, nil
}

func (r *PostgresRepository) CreateExpense(ctx context.Context, ex core.Expense) (core.Expense, error) {
	var out core.Expense
	err := r.withTx(ctx, "create expense", func(tx pgx.Tx) error {
		var err error
		out, err = scanPgExpense(tx.QueryRow(ctx,
			`INSERT INTO expenses (title, amount_cents, date) VALUES ($1, $2, $3) RETURNING `+expenseColumns,
			ex.Title, core.AmountToCents(ex.Amount), ex.Date.Time))
		if err != nil {
			return unavailable("insert expense", err)
		}
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}
	logFor(ctx).InfoContext(ctx, "Expense saved to Postgres", "id", out.ID, "amount", core.FormatAmount(out.Amount))
	return out, nil
}

func (r *PostgresRepository) UpdateExpense(ctx context.Context, ex core.Expense) (core.Expense, error) {
	var out core.Expense
	err := r.withTx(ctx, "update expense", func(tx pgx.Tx) error {
		var err error
		out, err = scanPgExpense(tx.QueryRow(ctx,
			`UPDATE expenses SET title = $1, amount_cents = $2, date = $3, updated_at = now()
			 WHERE id = $4 RETURNING `+expenseColumns,
			ex.Title, core.AmountToCents(ex.Amount), ex.Date.Time, ex.ID))
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return notFound("expense", ex.ID)
		case err != nil:
			return unavailable("update expense", err)
		}
		return nil
	})
	return out, err
}

func (r *PostgresRepository) DeleteExpense(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "expenses", "expense", id)
}

func (r *PostgresRepository) deleteByID(ctx context.Context, table, what string, id int64) error {
	return r.withTx(ctx, "delete "+what, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
		if err != nil {
			return unavailable("delete "+what, err)
		}
		if tag.RowsAffected() == 0 {
			return notFound(what, id)
		}
		return nil
	})
}
