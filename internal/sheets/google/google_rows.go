package google

import (
	"fmt"
	"strings"

	gsheet "google.golang.org/api/sheets/v4"
)

type span struct{ start, end int }

// batches splits n rows into consecutive spans of at most size rows.
func batches(n, size int) []span {
	if size <= 0 {
		size = n
	}
	var out []span
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		out = append(out, span{start: start, end: end})
	}
	return out
}

// findRow returns the 1-based sheet row holding key, or 0.
func findRow(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i + 1
		}
	}
	return 0
}

func firstColumn(values [][]any) []string {
	out := make([]string, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(row[0]))
	}
	return out
}

func toValues(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		out[i] = vals
	}
	return out
}

func rowRange(sheet string, from, to int) string {
	return fmt.Sprintf("%s!A%d:%s%d", sheet, from, lastColumn, to)
}

func sheetIDByTitle(sheets []*gsheet.Sheet, title string) (int64, bool) {
	for _, s := range sheets {
		if s == nil || s.Properties == nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(s.Properties.Title), strings.TrimSpace(title)) {
			return s.Properties.SheetId, true
		}
	}
	return 0, false
}
