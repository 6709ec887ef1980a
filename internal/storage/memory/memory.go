// Package memory is an in-process Store used for development and tests.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"wallet/internal/core"
	"wallet/internal/storage"
)

// DefaultCategories seed a store when no seed file is present.
var DefaultCategories = []string{"Salary", "Business", "Freelancing", "Investment"}

type Store struct {
	mu       sync.RWMutex
	revision int64
	nextID   map[string]int64
	cats     map[int64]core.Category
	incomes  map[int64]core.Income
	expenses map[int64]core.Expense
	now      func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New returns a store seeded with the given category names.
func New(categories []string) *Store {
	s := &Store{
		nextID:   map[string]int64{},
		cats:     map[int64]core.Category{},
		incomes:  map[int64]core.Income{},
		expenses: map[int64]core.Expense{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, name := range dedupe(categories) {
		id := s.id("category")
		s.cats[id] = core.Category{ID: id, Name: name, CreatedAt: s.now()}
	}
	return s
}

// NewFromFiles seeds categories from base/seed_categories.txt, one name
// per line, falling back to DefaultCategories.
func NewFromFiles(base string) *Store {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = DefaultCategories
	}
	return New(cats)
}

// SetClock overrides the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Close() error { return nil }

func (s *Store) id(kind string) int64 {
	s.nextID[kind]++
	return s.nextID[kind]
}

func (s *Store) Revision(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision, nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Category, 0, len(s.cats))
	for _, c := range s.cats {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cats[id]
	if !ok {
		return c, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) nameTaken(name string, except int64) bool {
	for id, c := range s.cats {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) CreateCategory(_ context.Context, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(name, 0) {
		return core.Category{}, fmt.Errorf("category %q: %w", name, core.ErrDuplicate)
	}
	c := core.Category{ID: s.id("category"), Name: name, CreatedAt: s.now()}
	s.cats[c.ID] = c
	s.revision++
	return c, nil
}

func (s *Store) RenameCategory(_ context.Context, id int64, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cats[id]
	if !ok {
		return c, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if s.nameTaken(name, id) {
		return core.Category{}, fmt.Errorf("category %q: %w", name, core.ErrDuplicate)
	}
	c.Name = name
	s.cats[id] = c
	s.revision++
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cats[id]; !ok {
		return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	var refs int
	for _, in := range s.incomes {
		if in.CategoryID == id {
			refs++
		}
	}
	if refs > 0 {
		return fmt.Errorf("category %d referenced by %d incomes: %w", id, refs, core.ErrCategoryInUse)
	}
	delete(s.cats, id)
	s.revision++
	return nil
}

func (s *Store) ListIncomes(_ context.Context) ([]core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Income, 0, len(s.incomes))
	for _, in := range s.incomes {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetIncome(_ context.Context, id int64) (core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.incomes[id]
	if !ok {
		return in, fmt.Errorf("income %d: %w", id, core.ErrNotFound)
	}
	return in, nil
}

func (s *Store) checkCategory(id int64) error {
	if _, ok := s.cats[id]; !ok {
		return &core.ValidationError{Field: "category_id", Message: fmt.Sprintf("invalid category %d", id), Err: core.ErrMissingCategory}
	}
	return nil
}

func (s *Store) CreateIncome(_ context.Context, in core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCategory(in.CategoryID); err != nil {
		return core.Income{}, err
	}
	in.ID = s.id("income")
	in.CreatedAt = s.now()
	in.UpdatedAt = in.CreatedAt
	s.incomes[in.ID] = in
	s.revision++
	return in, nil
}

func (s *Store) UpdateIncome(_ context.Context, in core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.incomes[in.ID]
	if !ok {
		return core.Income{}, fmt.Errorf("income %d: %w", in.ID, core.ErrNotFound)
	}
	if err := s.checkCategory(in.CategoryID); err != nil {
		return core.Income{}, err
	}
	in.CreatedAt = prev.CreatedAt
	in.UpdatedAt = s.now()
	s.incomes[in.ID] = in
	s.revision++
	return in, nil
}

func (s *Store) DeleteIncome(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incomes[id]; !ok {
		return fmt.Errorf("income %d: %w", id, core.ErrNotFound)
	}
	delete(s.incomes, id)
	s.revision++
	return nil
}

func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Expense, 0, len(s.expenses))
	for _, ex := range s.expenses {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ex, ok := s.expenses[id]
	if !ok {
		return ex, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	return ex, nil
}

func (s *Store) CreateExpense(_ context.Context, ex core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ex.ID = s.id("expense")
	ex.CreatedAt = s.now()
	ex.UpdatedAt = ex.CreatedAt
	s.expenses[ex.ID] = ex
	s.revision++
	return ex, nil
}

func (s *Store) UpdateExpense(_ context.Context, ex core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.expenses[ex.ID]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %d: %w", ex.ID, core.ErrNotFound)
	}
	ex.CreatedAt = prev.CreatedAt
	ex.UpdatedAt = s.now()
	s.expenses[ex.ID] = ex
	s.revision++
	return ex, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	delete(s.expenses, id)
	s.revision++
	return nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe trims, drops blanks and keeps the first occurrence of each name.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
