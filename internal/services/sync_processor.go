package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	applog "wallet/internal/log"
)

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often the store revision is compared with the
	// last mirrored one (default: 10s)
	PollInterval time.Duration

	// MaxRetries is how many consecutive failed reconciles are tolerated
	// before the processor logs at error level (default: 3)
	MaxRetries int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 10 * time.Second,
		MaxRetries:   3,
	}
}

// RevisionSource reports the ledger's current revision.
type RevisionSource interface {
	Revision(ctx context.Context) (int64, error)
}

// FullSyncer rewrites the whole mirror and returns the revision it read.
type FullSyncer interface {
	SyncAll(ctx context.Context) (revision int64, rows int, err error)
}

// SyncProcessor periodically reconciles the sheet mirror with the store.
// It is the safety net for AMQP messages that were lost or never published.
type SyncProcessor struct {
	source RevisionSource
	syncer FullSyncer
	config SyncProcessorConfig
	logger *applog.Logger

	synced   int64
	hasSync  bool
	failures int

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(source RevisionSource, syncer FullSyncer, config SyncProcessorConfig, logger *applog.Logger) *SyncProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSyncProcessorConfig().PollInterval
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultSyncProcessorConfig().MaxRetries
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &SyncProcessor{
		source: source,
		syncer: syncer,
		config: config,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		p.logger.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	// Reconcile immediately on startup
	p.Reconcile(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.Reconcile(ctx)
		}
	}
}

// Reconcile mirrors the ledger when the store moved past the last mirrored
// revision. It reports whether a full sync ran and succeeded.
func (p *SyncProcessor) Reconcile(ctx context.Context) bool {
	rev, err := p.source.Revision(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to read ledger revision", applog.FieldError, err)
		return false
	}
	if p.hasSync && rev == p.synced {
		return false
	}

	synced, rows, err := p.syncer.SyncAll(ctx)
	if err != nil {
		p.failures++
		if p.failures >= p.config.MaxRetries {
			p.logger.ErrorContext(ctx, "Mirror reconcile keeps failing",
				"attempts", p.failures,
				applog.FieldRevision, rev,
				applog.FieldError, err)
		} else {
			p.logger.WarnContext(ctx, "Mirror reconcile failed",
				"attempt", p.failures,
				applog.FieldError, err)
		}
		return false
	}

	p.failures = 0
	p.synced = synced
	p.hasSync = true
	p.logger.DebugContext(ctx, "Mirror up to date", applog.FieldRevision, synced, applog.FieldCount, rows)
	return true
}
