package checkpoint

import (
	"context"
	"fmt"

	"github.com/R3E-Network/service_layer/pkg/pipeline/audit"
	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/payload"
	"github.com/R3E-Network/service_layer/pkg/pipeline/perrors"
)

// RecoveryManager resolves which rows a resumed run still owes
// processing, and reloads their raw payload bytes.
type RecoveryManager struct {
	recorder audit.Recorder
	payloads payload.Store
}

// NewRecoveryManager creates a RecoveryManager over recorder and
// payloads.
func NewRecoveryManager(recorder audit.Recorder, payloads payload.Store) *RecoveryManager {
	return &RecoveryManager{recorder: recorder, payloads: payloads}
}

// UnprocessedRows returns every row in runID with no terminal outcome
// recorded on any leaf token descended from it, in row-index order.
func (r *RecoveryManager) UnprocessedRows(ctx context.Context, runID string) ([]domain.Row, error) {
	rows, err := r.recorder.GetUnprocessedRows(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed rows: %w", err)
	}
	return rows, nil
}

// UnprocessedRowData reloads one row's raw source bytes from the payload
// store. A row whose SourceDataRef was purged by retention returns a
// CodeExternal error — resume cannot reconstruct a row whose raw bytes
// are gone, even though its audit trail remains.
func (r *RecoveryManager) UnprocessedRowData(ctx context.Context, row domain.Row) ([]byte, error) {
	if row.SourceDataRef == nil {
		return nil, perrors.New(perrors.CodeExternal, fmt.Sprintf("row %s has no retained payload reference", row.RowID))
	}
	data, err := r.payloads.Get(ctx, *row.SourceDataRef)
	if err != nil {
		return nil, perrors.Wrap(perrors.CodeExternal, fmt.Sprintf("row %s payload unavailable", row.RowID), err)
	}
	return data, nil
}
