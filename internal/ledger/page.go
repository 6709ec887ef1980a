package ledger

import "wallet/internal/core"

// DefaultPageSize matches the listing views.
const DefaultPageSize = 10

// Page is one slice of a paginated listing.
type Page struct {
	Items      []core.Transaction
	Number     int
	Size       int
	TotalItems int
	TotalPages int
}

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// HasPrevious reports whether a preceding page exists.
func (p Page) HasPrevious() bool { return p.Number > 1 }

// Paginate cuts txs into 1-based pages. Out-of-range page numbers clamp
// to the nearest valid page.
func Paginate(txs []core.Transaction, number, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(txs)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}
	start := (number - 1) * size
	end := min(start+size, total)
	items := make([]core.Transaction, end-start)
	copy(items, txs[start:end])
	return Page{Items: items, Number: number, Size: size, TotalItems: total, TotalPages: pages}
}
