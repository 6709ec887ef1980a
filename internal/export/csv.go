// Package export serializes transaction feeds for download and mirroring.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"wallet/internal/core"
)

// ContentType is the MIME type of ToCSV output.
const ContentType = "text/csv"

// Header is the fixed column set of every export.
var Header = []string{"Date", "Type", "Title", "Category", "Amount", "Note"}

// Row projects a transaction onto the export columns.
func Row(t core.Transaction) []string {
	return []string{
		t.Date.String(),
		t.Kind.Label(),
		t.Title,
		t.Category.Name,
		core.FormatAmount(t.Amount),
		t.Note,
	}
}

// Rows projects every transaction, keeping input order.
func Rows(txs []core.Transaction) [][]string {
	out := make([][]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, Row(t))
	}
	return out
}

// WriteCSV writes the header followed by one row per transaction.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		if err := cw.Write(Row(t)); err != nil {
			return fmt.Errorf("write csv row %s: %w", t.Key(), err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ToCSV renders the feed as a CSV document.
func ToCSV(txs []core.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, txs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename returns the download name for an export of the given kind.
func Filename(kind core.Kind) string {
	switch kind {
	case core.KindIncome:
		return "income_transactions.csv"
	case core.KindExpense:
		return "expense_transactions.csv"
	default:
		return "all_transactions.csv"
	}
}
