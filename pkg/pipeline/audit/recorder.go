// Package audit owns every write to the audit database and exposes the
// read-side "explain row" queries. Writes are append-only except for a
// run's terminal status and its export status.
package audit

import (
	"context"

	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
)

// Recorder is the append-only writer over the audit schema, plus the
// read-side explain/resume queries. One Recorder instance backs exactly
// one audit database; the schema assumes a single writer per run.
type Recorder interface {
	// BeginRun creates a RUNNING run row. Fails if canonicalVersion does
	// not match a known algorithm (ids.CanonicalVersion).
	BeginRun(ctx context.Context, configHash, canonicalVersion string, schemaContract []byte) (domain.Run, error)
	FinalizeRun(ctx context.Context, runID string, status domain.RunStatus) error
	SetExportStatus(ctx context.Context, runID string, status domain.ExportStatus, exportErr string) error
	SetReproducibilityGrade(ctx context.Context, runID string, grade domain.ReproducibilityGrade) error
	GetRun(ctx context.Context, runID string) (domain.Run, error)
	// OpenRun returns the single non-terminal run, if one exists.
	OpenRun(ctx context.Context) (domain.Run, bool, error)

	// RegisterNode and RegisterEdge are one-shot: a duplicate
	// (run_id, node_id) or (run_id, edge_id) is a programming bug, not a
	// recoverable state, and returns an error.
	RegisterNode(ctx context.Context, node domain.Node) error
	RegisterEdge(ctx context.Context, edge domain.Edge) error

	// CreateRow persists source_data_hash always, and source_data_ref
	// only when payloadRef is non-empty. Callers must store the raw data
	// to the payload store before calling CreateRow — the store-then-
	// index order is load-bearing for lineage integrity.
	CreateRow(ctx context.Context, runID, sourceNodeID string, rowIndex int, sourceDataHash string, payloadRef string) (domain.Row, error)
	GetRow(ctx context.Context, rowID string) (domain.Row, error)

	CreateToken(ctx context.Context, row domain.Row, parentTokenID, branchName string, forkGroupID, joinGroupID, expandGroupID string) (domain.Token, error)
	GetToken(ctx context.Context, tokenID string) (domain.Token, error)
	TokenChildren(ctx context.Context, tokenID string) ([]domain.Token, error)

	// BeginNodeState returns a new state id; only one state may be
	// RUNNING per (token, node, attempt).
	BeginNodeState(ctx context.Context, tokenID, nodeID string, stepIndex, attempt int, inputHash string) (domain.NodeState, error)
	CompleteNodeState(ctx context.Context, stateID string, status domain.NodeStateStatus, outputHash string, errJSON []byte) error

	RecordRoutingEvent(ctx context.Context, stateID, edgeID string, mode domain.EdgeMode, routingGroupID string, ordinal int, reasonHash, reasonRef string) (domain.RoutingEvent, error)

	// RecordTokenOutcome enforces terminality rules: a COMPLETED outcome
	// with no matching completed node_state at the sink is a contract
	// violation and returns an error.
	RecordTokenOutcome(ctx context.Context, runID, tokenID string, outcome domain.Outcome, sinkName, errorHash string) (domain.TokenOutcome, error)
	TokenOutcomes(ctx context.Context, tokenID string) ([]domain.TokenOutcome, error)

	BeginOperation(ctx context.Context, runID, nodeID, operationType string, inputRef string) (domain.Operation, error)
	CompleteOperation(ctx context.Context, operationID string, status domain.OperationStatus, outputRef string, errMsg string) error

	RecordCall(ctx context.Context, call domain.Call) (domain.Call, error)

	RecordTransformError(ctx context.Context, terr domain.TransformError) error

	CreateCheckpoint(ctx context.Context, cp domain.Checkpoint) (domain.Checkpoint, error)
	LatestCheckpoint(ctx context.Context, runID string) (domain.Checkpoint, bool, error)

	// ExplainRow returns the full lineage for one row: the row itself,
	// every node_state along its token chain(s), every routing event,
	// and every terminal outcome.
	ExplainRow(ctx context.Context, runID, rowID string) (RowLineage, error)

	// GetUnprocessedRows returns rows with no terminal outcome across all
	// descendant tokens, per §4.7.
	GetUnprocessedRows(ctx context.Context, runID string) ([]domain.Row, error)

	// RowsForRun lists every row created under runID, in row-index order.
	RowsForRun(ctx context.Context, runID string) ([]domain.Row, error)
	NodesForRun(ctx context.Context, runID string) ([]domain.Node, error)
	EdgesForRun(ctx context.Context, runID string) ([]domain.Edge, error)

	// ListTerminalRuns returns every run that has reached a terminal
	// status, for the retention purge manager to scan for expired
	// payloads. Order is unspecified.
	ListTerminalRuns(ctx context.Context) ([]domain.Run, error)
}

// RowLineage is the full explain-row result.
type RowLineage struct {
	Row               domain.Row
	PayloadAvailable  bool
	Tokens            []domain.Token
	NodeStates        []domain.NodeState
	RoutingEvents     []domain.RoutingEvent
	Outcomes          []domain.TokenOutcome
}
