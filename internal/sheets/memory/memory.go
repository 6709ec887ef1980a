// Package memory is an in-process sheets.Mirror used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"wallet/internal/core"
	ports "wallet/internal/sheets"
)

var _ ports.Mirror = (*Sheet)(nil)

// Sheet keeps mirror rows in insertion order, header excluded.
type Sheet struct {
	mu   sync.Mutex
	rows [][]string
}

func New() *Sheet {
	return &Sheet{}
}

// Upsert replaces the row keyed by t.Key() or appends a new one.
func (s *Sheet) Upsert(_ context.Context, t core.Transaction) (string, error) {
	row := ports.Row(t)
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(row[0]); i >= 0 {
		s.rows[i] = row
		return fmt.Sprintf("mem:%d", i+2), nil
	}
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)+1), nil
}

func (s *Sheet) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(key); i >= 0 {
		s.rows = append(s.rows[:i], s.rows[i+1:]...)
	}
	return nil
}

func (s *Sheet) ReplaceAll(_ context.Context, txs []core.Transaction) (int, error) {
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, ports.Row(t))
	}
	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()
	return len(rows), nil
}

// Rows returns a copy of the mirrored rows, header excluded.
func (s *Sheet) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Keys lists the row keys in sheet order.
func (s *Sheet) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = r[0]
	}
	return out
}

func (s *Sheet) index(key string) int {
	for i, r := range s.rows {
		if r[0] == key {
			return i
		}
	}
	return -1
}
