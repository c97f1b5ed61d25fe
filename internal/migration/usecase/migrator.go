package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"url-migrator/internal/migration/config"
	"url-migrator/internal/migration/domain/model"
	"url-migrator/internal/migration/domain/repository"
	"url-migrator/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
)

// Migrator owns the store handle, the old/new URL pair, the scan targets,
// and the run statistics, and drives the scan/replace/persist cycle.
type Migrator struct {
	store   repository.DocumentStore
	targets []model.Target

	oldURL string
	newURL string

	pollInterval  time.Duration
	queryTimeout  time.Duration
	updateTimeout time.Duration

	stats *model.Stats
	log   logger.Logger
	now   func() time.Time
}

// NewMigrator creates a migrator with zeroed statistics.
func NewMigrator(store repository.DocumentStore, cfg *config.Config, targets []model.Target, log logger.Logger) *Migrator {
	return &Migrator{
		store:         store,
		targets:       targets,
		oldURL:        cfg.OldURL,
		newURL:        cfg.NewURL,
		pollInterval:  cfg.PollInterval(),
		queryTimeout:  cfg.QueryTimeout,
		updateTimeout: cfg.UpdateTimeout,
		stats:         model.NewStats(),
		log:           log.WithComponent("migrator"),
		now:           time.Now,
	}
}

// RewriteFields replaces every occurrence of the old URL prefix within the
// listed fields of doc. Only present, non-nil, string-typed values are
// touched. It returns the set of changed fields and whether anything
// changed. Applying it to an already-migrated document is a no-op.
func (m *Migrator) RewriteFields(doc bson.M, fields []string) (bson.M, bool) {
	changed := bson.M{}

	for _, field := range fields {
		value, ok := doc[field]
		if !ok || value == nil {
			continue
		}
		s, ok := value.(string)
		if !ok || !strings.Contains(s, m.oldURL) {
			continue
		}

		replaced := strings.ReplaceAll(s, m.oldURL, m.newURL)
		doc[field] = replaced
		changed[field] = replaced
		m.log.Debugf("Replaced URL in field '%s'", field)
	}

	return changed, len(changed) > 0
}

// processTarget scans one target collection and persists rewritten
// documents one at a time. The update payload carries only the changed
// fields, never the identifier. A store failure abandons the remainder of
// this target for the current cycle and reports zero; the failed documents
// still match the candidate query and are retried next cycle.
func (m *Migrator) processTarget(ctx context.Context, target model.Target) int64 {
	qctx, cancel := context.WithTimeout(ctx, m.queryTimeout)
	docs, err := m.store.FindCandidates(qctx, target.Collection, target.Fields, m.oldURL)
	cancel()
	if err != nil {
		m.log.Errorf("Error processing %s collection: %v", target.Name, err)
		m.stats.RecordError()
		return 0
	}

	var updated int64
	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}

		set, ok := m.RewriteFields(doc, target.Fields)
		if !ok {
			continue
		}
		if target.StampUpdatedAt {
			set[model.UpdatedAtField] = m.now().UTC()
		}

		uctx, cancel := context.WithTimeout(ctx, m.updateTimeout)
		modified, err := m.store.UpdateDocument(uctx, target.Collection, doc["_id"], set)
		cancel()
		if err != nil {
			m.log.Errorf("Error processing %s collection: %v", target.Name, err)
			m.stats.RecordError()
			return 0
		}

		// A matched-but-unmodified result means a concurrent writer
		// already applied the same content; not counted, not an error.
		if modified {
			updated++
			m.log.Infof("Updated %s document: %v", target.Name, doc["_id"])
		}
	}

	if updated > 0 {
		m.stats.AddUpdated(target.Name, updated)
		m.log.Infof("%s: updated %d documents", target.Name, updated)
	}

	return updated
}

// RunCycle runs a single check cycle over all targets in fixed order.
// Target failures are independent: a query failure on one target does not
// prevent the next target from being processed in the same cycle.
func (m *Migrator) RunCycle(ctx context.Context) {
	m.log.Debug("Running check cycle...")

	var total int64
	parts := make([]string, 0, len(m.targets))
	for _, target := range m.targets {
		n := m.processTarget(ctx, target)
		total += n
		parts = append(parts, fmt.Sprintf("%s=%d", target.Name, n))
	}

	m.stats.MarkCheck(m.now().UTC())

	if total > 0 {
		m.log.Infof("Check complete - %s", strings.Join(parts, ", "))
	}
}

// Run executes the polling loop until ctx is cancelled. Cancellation is
// observed at the inter-cycle sleep and between documents. On shutdown the
// final statistics are printed and nil is returned.
func (m *Migrator) Run(ctx context.Context) error {
	m.log.Infof("Polling interval: %s", m.pollInterval)
	m.log.Info("Service running. Send SIGINT or SIGTERM to stop.")

	timer := time.NewTimer(m.pollInterval)
	defer timer.Stop()

	for {
		m.runCycleSafe(ctx)

		select {
		case <-ctx.Done():
			m.log.Info("Shutting down service...")
			m.PrintStats()
			return nil
		case <-timer.C:
			timer.Reset(m.pollInterval)
		}
	}
}

// runCycleSafe keeps an unexpected failure inside a cycle from terminating
// the loop.
func (m *Migrator) runCycleSafe(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Errorf("Error in check cycle: %v", r)
			m.stats.RecordError()
		}
	}()

	m.RunCycle(ctx)
}

// PrintStats emits the statistics summary block.
func (m *Migrator) PrintStats() {
	snap := m.stats.Snapshot()

	m.log.Info(strings.Repeat("=", 60))
	m.log.Info("Service statistics:")
	for _, target := range m.targets {
		m.log.Infof("  %s documents updated: %d", target.Name, snap.Updated[target.Name])
	}
	m.log.Infof("  Total errors: %d", snap.Errors)
	m.log.Infof("  Last check: %v", snap.LastCheck)
	m.log.Info(strings.Repeat("=", 60))
}

// Stats returns a snapshot of the current run statistics.
func (m *Migrator) Stats() model.Stats {
	return m.stats.Snapshot()
}
