// This file implements utilities for parsing and validating HTTP request data:
// listing filters from the query string, path identifiers and JSON bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/ledger"
	"wallet/internal/services"
)

const (
	maxBodyBytes = 1 << 20
	maxPageSize  = 100
)

// ParseCriteria builds listing filters from query parameters. Malformed
// values are rejected rather than ignored.
func ParseCriteria(query url.Values) (ledger.Criteria, error) {
	var c ledger.Criteria

	kind, err := core.ParseKind(query.Get("type"))
	if err != nil {
		return c, err
	}
	c.Kind = kind

	if c.DateFrom, err = parseDateParam(query, "date_from"); err != nil {
		return c, err
	}
	if c.DateTo, err = parseDateParam(query, "date_to"); err != nil {
		return c, err
	}
	if c.AmountMin, err = parseAmountParam(query, "amount_min"); err != nil {
		return c, err
	}
	if c.AmountMax, err = parseAmountParam(query, "amount_max"); err != nil {
		return c, err
	}

	c.Keyword = sanitizeInput(query.Get("search"))
	c.Category = sanitizeInput(query.Get("category"))

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func parseDateParam(query url.Values, name string) (*core.Date, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, &core.ValidationError{Field: name, Message: "invalid format, use YYYY-MM-DD", Err: core.ErrInvalidDate}
	}
	return &d, nil
}

func parseAmountParam(query url.Values, name string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, &core.ValidationError{Field: name, Message: "must be a number", Err: core.ErrInvalidAmount}
	}
	return &d, nil
}

// ParsePagination reads page and page_size. A missing page disables
// pagination and yields 0.
func ParsePagination(query url.Values, defaultSize int) (page, size int, err error) {
	size = defaultSize
	if v := strings.TrimSpace(query.Get("page_size")); v != "" {
		size, err = strconv.Atoi(v)
		if err != nil || size < 1 || size > maxPageSize {
			return 0, 0, &core.ValidationError{Field: "page_size", Message: fmt.Sprintf("must be between 1 and %d", maxPageSize)}
		}
	}
	if v := strings.TrimSpace(query.Get("page")); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 {
			return 0, 0, &core.ValidationError{Field: "page", Message: "must be a positive integer"}
		}
	}
	return page, size, nil
}

// ParseLimit reads a positive limit, falling back to def.
func ParseLimit(query url.Values, def int) (int, error) {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, &core.ValidationError{Field: "limit", Message: "must be a positive integer"}
	}
	return n, nil
}

// pathID reads a positive integer path segment.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}

// pathKind reads the {type} path segment, which must name a concrete kind.
func pathKind(r *http.Request) (core.Kind, error) {
	kind, err := core.ParseKind(r.PathValue("type"))
	if err != nil {
		return "", err
	}
	if kind == "" {
		return "", &core.ValidationError{Field: "type", Message: "must be income or expense", Err: core.ErrInvalidKind}
	}
	return kind, nil
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var verr *core.ValidationError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &verr):
			return verr
		case errors.Is(err, io.EOF):
			return &core.ValidationError{Message: "request body is required"}
		case errors.As(err, &maxErr):
			return &core.ValidationError{Message: "request body too large"}
		default:
			return &core.ValidationError{Message: "invalid JSON data"}
		}
	}
	if dec.More() {
		return &core.ValidationError{Message: "request body must contain a single JSON object"}
	}
	return nil
}

// amountValue accepts a JSON number or a numeric string.
type amountValue struct {
	decimal.Decimal
}

func (a *amountValue) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return invalidAmount()
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return invalidAmount()
	}
	a.Decimal = d
	return nil
}

func invalidAmount() error {
	return &core.ValidationError{Field: "amount", Message: "invalid amount format", Err: core.ErrInvalidAmount}
}

func missingField(name string) error {
	return &core.ValidationError{Field: name, Message: "missing required field", Err: core.ErrEmptyField}
}

type incomeRequest struct {
	CategoryID *int64       `json:"category_id"`
	Source     *string      `json:"source"`
	Amount     *amountValue `json:"amount"`
	Date       *core.Date   `json:"date"`
	Note       *string      `json:"note"`
}

func (req incomeRequest) income() (core.Income, error) {
	switch {
	case req.CategoryID == nil:
		return core.Income{}, missingField("category_id")
	case req.Source == nil:
		return core.Income{}, missingField("source")
	case req.Amount == nil:
		return core.Income{}, missingField("amount")
	case req.Date == nil:
		return core.Income{}, missingField("date")
	}
	in := core.Income{
		CategoryID: *req.CategoryID,
		Source:     sanitizeInput(*req.Source),
		Amount:     req.Amount.Decimal,
		Date:       *req.Date,
	}
	if req.Note != nil {
		in.Note = sanitizeInput(*req.Note)
	}
	return in, nil
}

func (req incomeRequest) patch() services.IncomePatch {
	p := services.IncomePatch{CategoryID: req.CategoryID, Date: req.Date}
	if req.Source != nil {
		s := sanitizeInput(*req.Source)
		p.Source = &s
	}
	if req.Amount != nil {
		p.Amount = &req.Amount.Decimal
	}
	if req.Note != nil {
		n := sanitizeInput(*req.Note)
		p.Note = &n
	}
	return p
}

type expenseRequest struct {
	Title  *string      `json:"title"`
	Amount *amountValue `json:"amount"`
	Date   *core.Date   `json:"date"`
}

func (req expenseRequest) expense() (core.Expense, error) {
	switch {
	case req.Title == nil:
		return core.Expense{}, missingField("title")
	case req.Amount == nil:
		return core.Expense{}, missingField("amount")
	case req.Date == nil:
		return core.Expense{}, missingField("date")
	}
	return core.Expense{
		Title:  sanitizeInput(*req.Title),
		Amount: req.Amount.Decimal,
		Date:   *req.Date,
	}, nil
}

func (req expenseRequest) patch() services.ExpensePatch {
	p := services.ExpensePatch{Date: req.Date}
	if req.Title != nil {
		s := sanitizeInput(*req.Title)
		p.Title = &s
	}
	if req.Amount != nil {
		p.Amount = &req.Amount.Decimal
	}
	return p
}

// transactionRequest is the kind-agnostic body of /api/transactions/.
// Title falls back to description and then source; a missing date means
// today.
type transactionRequest struct {
	Type        string       `json:"type"`
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Source      *string      `json:"source"`
	CategoryID  *int64       `json:"category_id"`
	Amount      *amountValue `json:"amount"`
	Date        *core.Date   `json:"date"`
	Note        *string      `json:"note"`
}

func (req transactionRequest) title() *string {
	for _, v := range []*string{req.Title, req.Description, req.Source} {
		if v != nil {
			return v
		}
	}
	return nil
}

func (req transactionRequest) asIncome() incomeRequest {
	return incomeRequest{CategoryID: req.CategoryID, Source: req.title(), Amount: req.Amount, Date: req.Date, Note: req.Note}
}

func (req transactionRequest) asExpense() expenseRequest {
	return expenseRequest{Title: req.title(), Amount: req.Amount, Date: req.Date}
}

type categoryRequest struct {
	Name *string `json:"name"`
}

func (req categoryRequest) name() (string, error) {
	if req.Name == nil {
		return "", missingField("name")
	}
	return sanitizeInput(*req.Name), nil
}

// sanitizeInput removes control characters other than tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
