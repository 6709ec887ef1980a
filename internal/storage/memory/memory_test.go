package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"wallet/internal/storage"
	"wallet/internal/storage/storetest"
)

func TestMemoryStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		return New(nil)
	})
}

func TestNewDedupesCategories(t *testing.T) {
	s := New([]string{"A", "B", "A", " "})
	cats, err := s.ListCategories(context.Background())
	if err != nil || len(cats) != 2 {
		t.Fatalf("unexpected list: cats=%v err=%v", cats, err)
	}
	if cats[0].Name != "A" || cats[1].Name != "B" {
		t.Fatalf("expected name order, got %v", cats)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	// No files -> defaults
	s := NewFromFiles(dir)
	cats, _ := s.ListCategories(context.Background())
	if len(cats) != len(DefaultCategories) {
		t.Fatalf("expected defaults when files missing, got %v", cats)
	}

	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte("# header\nSalary\nBonus\nSalary\n\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s = NewFromFiles(dir)
	cats, _ = s.ListCategories(context.Background())
	if len(cats) != 2 || cats[0].Name != "Bonus" || cats[1].Name != "Salary" {
		t.Fatalf("unexpected cats: %v", cats)
	}
}
