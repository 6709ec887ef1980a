package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeRevision struct{ rev atomic.Int64 }

func (f *fakeRevision) Revision(context.Context) (int64, error) { return f.rev.Load(), nil }

type fakeSyncer struct {
	source *fakeRevision
	calls  atomic.Int32
	err    error
}

func (f *fakeSyncer) SyncAll(context.Context) (int64, int, error) {
	f.calls.Add(1)
	if f.err != nil {
		return 0, 0, f.err
	}
	return f.source.rev.Load(), 3, nil
}

func TestNewSyncProcessor(t *testing.T) {
	processor := NewSyncProcessor(nil, nil, SyncProcessorConfig{}, nil)

	if processor == nil {
		t.Fatal("NewSyncProcessor should return non-nil processor")
	}
	if processor.source != nil || processor.syncer != nil {
		t.Error("dependencies should be nil when passed nil")
	}
	if processor.config != DefaultSyncProcessorConfig() {
		t.Errorf("zero config should fall back to defaults, got %+v", processor.config)
	}
}

func TestDefaultSyncProcessorConfig(t *testing.T) {
	config := DefaultSyncProcessorConfig()

	if config.PollInterval != 10*time.Second {
		t.Errorf("expected PollInterval 10s, got %v", config.PollInterval)
	}
	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}
}

func TestSyncProcessorConfig_CustomValues(t *testing.T) {
	config := SyncProcessorConfig{PollInterval: 5 * time.Second, MaxRetries: 5}
	processor := NewSyncProcessor(nil, nil, config, nil)

	if processor.config.PollInterval != 5*time.Second {
		t.Errorf("expected custom PollInterval 5s, got %v", processor.config.PollInterval)
	}
	if processor.config.MaxRetries != 5 {
		t.Errorf("expected custom MaxRetries 5, got %d", processor.config.MaxRetries)
	}
}

func TestSyncProcessor_IsRunning(t *testing.T) {
	processor := NewSyncProcessor(nil, nil, DefaultSyncProcessorConfig(), nil)

	if processor.IsRunning() {
		t.Error("processor should not be running initially")
	}
}

func TestSyncProcessor_StartTwice(t *testing.T) {
	processor := NewSyncProcessor(nil, nil, DefaultSyncProcessorConfig(), nil)

	processor.mu.Lock()
	processor.running = true
	processor.mu.Unlock()

	if err := processor.Start(context.Background()); err == nil {
		t.Error("expected error when starting already running processor")
	}
}

func TestSyncProcessor_StopNotRunning(t *testing.T) {
	processor := NewSyncProcessor(nil, nil, DefaultSyncProcessorConfig(), nil)

	if err := processor.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestSyncProcessor_Reconcile(t *testing.T) {
	source := &fakeRevision{}
	source.rev.Store(4)
	syncer := &fakeSyncer{source: source}
	processor := NewSyncProcessor(source, syncer, DefaultSyncProcessorConfig(), nil)
	ctx := context.Background()

	if !processor.Reconcile(ctx) {
		t.Fatal("first reconcile should sync")
	}
	if processor.Reconcile(ctx) {
		t.Error("unchanged revision should not sync again")
	}

	source.rev.Store(5)
	if !processor.Reconcile(ctx) {
		t.Error("new revision should sync")
	}
	if got := syncer.calls.Load(); got != 2 {
		t.Errorf("SyncAll calls = %d, want 2", got)
	}
}

func TestSyncProcessor_ReconcileFailure(t *testing.T) {
	source := &fakeRevision{}
	syncer := &fakeSyncer{source: source, err: errors.New("sheets down")}
	processor := NewSyncProcessor(source, syncer, SyncProcessorConfig{MaxRetries: 2}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if processor.Reconcile(ctx) {
			t.Fatal("failed sync should not report success")
		}
	}
	if processor.failures != 3 {
		t.Errorf("failures = %d, want 3", processor.failures)
	}

	syncer.err = nil
	if !processor.Reconcile(ctx) {
		t.Error("sync should recover")
	}
	if processor.failures != 0 {
		t.Error("success should reset failures")
	}
}

func TestSyncProcessor_StartStop(t *testing.T) {
	source := &fakeRevision{}
	syncer := &fakeSyncer{source: source}
	processor := NewSyncProcessor(source, syncer, SyncProcessorConfig{PollInterval: 10 * time.Millisecond}, nil)

	if err := processor.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !processor.IsRunning() {
		t.Error("processor should be running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := processor.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if processor.IsRunning() {
		t.Error("processor should be stopped")
	}
	if syncer.calls.Load() < 1 {
		t.Error("startup reconcile should have run")
	}
}
