package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

// Criteria narrows a feed. Zero-valued fields do not constrain; all set
// fields must match. Bounds are inclusive.
type Criteria struct {
	Kind      core.Kind
	DateFrom  *core.Date
	DateTo    *core.Date
	AmountMin *decimal.Decimal
	AmountMax *decimal.Decimal
	Keyword   string
	Category  string
}

// Validate rejects inverted bounds with core.ErrInvalidRange.
func (c Criteria) Validate() error {
	switch c.Kind {
	case "", core.KindIncome, core.KindExpense:
	default:
		return &core.ValidationError{Field: "type", Message: "unknown transaction type", Err: core.ErrInvalidKind}
	}
	if c.DateFrom != nil && c.DateTo != nil && c.DateFrom.Compare(*c.DateTo) > 0 {
		return core.RangeError("date_from", "date_to")
	}
	if c.AmountMin != nil && c.AmountMax != nil && c.AmountMin.GreaterThan(*c.AmountMax) {
		return core.RangeError("amount_min", "amount_max")
	}
	return nil
}

// IsZero reports whether the criteria match everything.
func (c Criteria) IsZero() bool {
	return c.Kind == "" && c.DateFrom == nil && c.DateTo == nil &&
		c.AmountMin == nil && c.AmountMax == nil &&
		strings.TrimSpace(c.Keyword) == "" && c.Category == ""
}

// Match reports whether t satisfies every set criterion. Criteria are
// assumed valid.
func (c Criteria) Match(t core.Transaction) bool {
	if c.Kind != "" && t.Kind != c.Kind {
		return false
	}
	if c.DateFrom != nil && t.Date.Compare(*c.DateFrom) < 0 {
		return false
	}
	if c.DateTo != nil && t.Date.Compare(*c.DateTo) > 0 {
		return false
	}
	if c.AmountMin != nil && t.Amount.LessThan(*c.AmountMin) {
		return false
	}
	if c.AmountMax != nil && t.Amount.GreaterThan(*c.AmountMax) {
		return false
	}
	if c.Category != "" && t.Category.Name != c.Category {
		return false
	}
	if kw := strings.TrimSpace(c.Keyword); kw != "" && !containsKeyword(t, kw) {
		return false
	}
	return true
}

// Filter returns the transactions matching c, in their original order.
func Filter(txs []core.Transaction, c Criteria) ([]core.Transaction, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if c.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Search is a keyword lookup limited to the first limit matches. An empty
// query yields no results.
func Search(txs []core.Transaction, query string, kind core.Kind, limit int) ([]core.Transaction, error) {
	if strings.TrimSpace(query) == "" {
		return []core.Transaction{}, nil
	}
	found, err := Filter(txs, Criteria{Kind: kind, Keyword: query})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func containsKeyword(t core.Transaction, kw string) bool {
	kw = strings.ToLower(kw)
	for _, field := range []string{t.Title, t.Category.Name, t.Note} {
		if strings.Contains(strings.ToLower(field), kw) {
			return true
		}
	}
	return false
}
