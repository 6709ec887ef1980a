// Package sheets defines the outbound ports of the spreadsheet mirror.
package sheets

import (
	"context"

	"wallet/internal/core"
	"wallet/internal/export"
)

// Ports for outbound adapters.
type (
	// TransactionWriter inserts or replaces the row keyed by t.Key().
	TransactionWriter interface {
		Upsert(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// TransactionDeleter removes the row keyed by key. Missing rows are not
	// an error.
	TransactionDeleter interface {
		Delete(ctx context.Context, key string) error
	}

	// FeedWriter rewrites the whole mirror from an ordered feed.
	FeedWriter interface {
		ReplaceAll(ctx context.Context, txs []core.Transaction) (rows int, err error)
	}

	Mirror interface {
		TransactionWriter
		TransactionDeleter
		FeedWriter
	}
)

// Header is the mirror's first row: the transaction key followed by the
// CSV export columns.
func Header() []string {
	return append([]string{"Key"}, export.Header...)
}

// Row lays out t the same way as the CSV export, prefixed with its key.
func Row(t core.Transaction) []string {
	return append([]string{t.Key()}, export.Row(t)...)
}
