// Package retention implements age-based payload deletion: locating
// payload refs belonging to runs old enough to fall outside the
// retention window, deleting their blobs from the content-addressed
// store, and downgrading the owning runs' reproducibility grade once
// their evidence is gone.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/R3E-Network/service_layer/internal/telemetry"
	"github.com/R3E-Network/service_layer/pkg/pipeline/audit"
	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/payload"
)

// Manager runs retention sweeps over one audit database and payload
// store.
type Manager struct {
	recorder audit.Recorder
	payloads payload.Store
}

// New creates a retention Manager.
func New(recorder audit.Recorder, payloads payload.Store) *Manager {
	return &Manager{recorder: recorder, payloads: payloads}
}

// ExpiredRun reports whether run is eligible for a retention sweep: it
// must be terminal, and its CompletedAt must fall before the retention
// cutoff.
func ExpiredRun(run domain.Run, retentionDays int, asOf time.Time) bool {
	if !run.IsTerminal() || run.CompletedAt == nil {
		return false
	}
	cutoff := asOf.AddDate(0, 0, -retentionDays)
	return run.CompletedAt.Before(cutoff)
}

// FindExpiredRowPayloads returns the distinct source_data_ref values for
// rows belonging to runID, when run is eligible per ExpiredRun.
func (m *Manager) FindExpiredRowPayloads(ctx context.Context, run domain.Run, retentionDays int, asOf time.Time) ([]string, error) {
	if !ExpiredRun(run, retentionDays, asOf) {
		return nil, nil
	}
	rows, err := m.recorder.RowsForRun(ctx, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("find expired row payloads: %w", err)
	}

	seen := make(map[string]bool)
	var refs []string
	for _, row := range rows {
		if row.SourceDataRef == nil {
			continue
		}
		if !seen[*row.SourceDataRef] {
			seen[*row.SourceDataRef] = true
			refs = append(refs, *row.SourceDataRef)
		}
	}
	return refs, nil
}

// FindExpiredPayloadRefs is the union of expired refs across every
// reference type the audit schema tracks for runID: row payloads today;
// operation and call payload refs are out of scope for this recorder
// contract (see DESIGN.md) and are folded in by callers with direct
// store access when present.
func (m *Manager) FindExpiredPayloadRefs(ctx context.Context, run domain.Run, retentionDays int, asOf time.Time) ([]string, error) {
	return m.FindExpiredRowPayloads(ctx, run, retentionDays, asOf)
}

// PurgeResult summarizes one purge sweep.
type PurgeResult struct {
	DeletedCount    int
	SkippedCount    int
	FailedRefs      []string
	BytesFreed      int64
	DurationSeconds float64
}

// PurgePayloads deletes each ref from the payload store, classifying
// each outcome as deleted, skipped (already gone), or failed. runID
// scopes the reported bytes-freed metric; it need not be the sole run
// refs originated from when a sweep batches refs across several expired
// runs, but the retention runner in this tree always calls it per-run.
func (m *Manager) PurgePayloads(ctx context.Context, runID string, refs []string) (PurgeResult, error) {
	started := time.Now()
	result := PurgeResult{}

	for _, ref := range refs {
		exists, err := m.payloads.Exists(ctx, ref)
		if err != nil {
			result.FailedRefs = append(result.FailedRefs, ref)
			continue
		}
		if !exists {
			result.SkippedCount++
			continue
		}

		data, getErr := m.payloads.Get(ctx, ref)
		if getErr == nil {
			result.BytesFreed += int64(len(data))
		}

		if err := m.payloads.Delete(ctx, ref); err != nil {
			result.FailedRefs = append(result.FailedRefs, ref)
			continue
		}
		result.DeletedCount++
	}

	result.DurationSeconds = time.Since(started).Seconds()
	var sweepErr error
	if len(result.FailedRefs) > 0 {
		sweepErr = fmt.Errorf("purge: %d refs failed", len(result.FailedRefs))
	}
	telemetry.RecordPurge(runID, result.BytesFreed, sweepErr)
	return result, nil
}

// UpdateGradeAfterPurge downgrades runID's reproducibility grade once
// deletedCount > 0 — any successfully deleted ref means the run can no
// longer be replayed byte-identical from retained evidence.
func (m *Manager) UpdateGradeAfterPurge(ctx context.Context, runID string, result PurgeResult) error {
	if result.DeletedCount == 0 {
		return nil
	}
	if err := m.recorder.SetReproducibilityGrade(ctx, runID, domain.GradeDegraded); err != nil {
		return fmt.Errorf("downgrade reproducibility grade: %w", err)
	}
	return nil
}
