package http

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/ledger"
	"wallet/internal/report"
)

// amount renders a decimal as a JSON number with exactly two decimals.
func amount(d decimal.Decimal) json.Number {
	return json.Number(core.FormatAmount(d))
}

type categoryRefJSON struct {
	ID   *int64 `json:"id"`
	Name string `json:"name"`
}

type transactionJSON struct {
	ID        int64           `json:"id"`
	Type      core.Kind       `json:"type"`
	Title     string          `json:"title"`
	Category  categoryRefJSON `json:"category"`
	Amount    json.Number     `json:"amount"`
	Date      core.Date       `json:"date"`
	Note      string          `json:"note"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:        t.ID,
		Type:      t.Kind,
		Title:     t.Title,
		Category:  categoryRefJSON{ID: t.Category.ID, Name: t.Category.Name},
		Amount:    amount(t.Amount),
		Date:      t.Date,
		Note:      t.Note,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toTransactionsJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

// incomeJSON is the per-kind income view.
type incomeJSON struct {
	ID        int64           `json:"id"`
	Source    string          `json:"source"`
	Category  categoryRefJSON `json:"category"`
	Amount    json.Number     `json:"amount"`
	Date      core.Date       `json:"date"`
	Note      string          `json:"note"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toIncomeJSON(t core.Transaction) incomeJSON {
	return incomeJSON{
		ID:        t.ID,
		Source:    t.Title,
		Category:  categoryRefJSON{ID: t.Category.ID, Name: t.Category.Name},
		Amount:    amount(t.Amount),
		Date:      t.Date,
		Note:      t.Note,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// expenseJSON is the per-kind expense view.
type expenseJSON struct {
	ID        int64       `json:"id"`
	Title     string      `json:"title"`
	Amount    json.Number `json:"amount"`
	Date      core.Date   `json:"date"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func toExpenseJSON(t core.Transaction) expenseJSON {
	return expenseJSON{
		ID:        t.ID,
		Title:     t.Title,
		Amount:    amount(t.Amount),
		Date:      t.Date,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

type categoryJSON struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

type summaryJSON struct {
	TotalIncome   json.Number `json:"total_income"`
	TotalExpenses json.Number `json:"total_expenses"`
	Balance       json.Number `json:"balance"`
	Count         int         `json:"count"`
}

func toSummaryJSON(s core.Summary) summaryJSON {
	return summaryJSON{
		TotalIncome:   amount(s.TotalIncome),
		TotalExpenses: amount(s.TotalExpenses),
		Balance:       amount(s.Balance),
		Count:         s.Count,
	}
}

type dashboardJSON struct {
	summaryJSON
	RecentTransactions []transactionJSON `json:"recent_transactions"`
	Anomalies          int               `json:"anomalies"`
}

func toDashboardJSON(d report.Dashboard) dashboardJSON {
	return dashboardJSON{
		summaryJSON:        toSummaryJSON(d.Summary),
		RecentTransactions: toTransactionsJSON(d.Recent),
		Anomalies:          d.Anomalies,
	}
}

type pageJSON struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

func toPageJSON(p *ledger.Page) *pageJSON {
	if p == nil {
		return nil
	}
	return &pageJSON{
		Page:        p.Number,
		PageSize:    p.Size,
		TotalItems:  p.TotalItems,
		TotalPages:  p.TotalPages,
		HasNext:     p.HasNext(),
		HasPrevious: p.HasPrevious(),
	}
}

type listingJSON[T any] struct {
	Transactions []T         `json:"transactions"`
	Stats        summaryJSON `json:"stats"`
	Pagination   *pageJSON   `json:"pagination,omitempty"`
}

func toListingJSON[T any](l report.Listing, conv func(core.Transaction) T) listingJSON[T] {
	items := make([]T, 0, len(l.Transactions))
	for _, t := range l.Transactions {
		items = append(items, conv(t))
	}
	return listingJSON[T]{
		Transactions: items,
		Stats:        toSummaryJSON(l.Summary),
		Pagination:   toPageJSON(l.Page),
	}
}

type breakdownJSON struct {
	Type       core.Kind   `json:"type"`
	CategoryID *int64      `json:"category_id"`
	Name       string      `json:"name"`
	Total      json.Number `json:"total"`
	Count      int         `json:"count"`
}

func toBreakdownJSON(rows []core.CategoryAmount) []breakdownJSON {
	out := make([]breakdownJSON, 0, len(rows))
	for _, r := range rows {
		out = append(out, breakdownJSON{Type: r.Kind, CategoryID: r.CategoryID, Name: r.Name, Total: amount(r.Total), Count: r.Count})
	}
	return out
}

type monthJSON struct {
	Year     int         `json:"year"`
	Month    int         `json:"month"`
	Income   json.Number `json:"income"`
	Expenses json.Number `json:"expenses"`
	Balance  json.Number `json:"balance"`
}

func toMonthsJSON(rows []core.MonthOverview) []monthJSON {
	out := make([]monthJSON, 0, len(rows))
	for _, m := range rows {
		out = append(out, monthJSON{Year: m.Year, Month: m.Month, Income: amount(m.Income), Expenses: amount(m.Expenses), Balance: amount(m.Balance)})
	}
	return out
}

// deletedJSON summarizes a removed record.
type deletedJSON struct {
	ID     int64       `json:"id"`
	Type   core.Kind   `json:"type"`
	Title  string      `json:"title"`
	Amount json.Number `json:"amount"`
}
