// Package postgres is the production audit.Recorder, backed by
// PostgreSQL. Grounded on the teacher's internal/app/storage/postgres
// store: ExecContext/QueryRowContext over database/sql, sql.NullString/
// sql.NullTime for optional columns, uuid.NewString for generated ids.
// The recorder additionally goes through jmoiron/sqlx for the
// multi-row StructScan queries (lineage, unprocessed-row listing) where
// hand-written Scan calls would otherwise repeat a dozen fields.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/R3E-Network/service_layer/pkg/pipeline/audit"
	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/ids"
)

// Store is the PostgreSQL-backed audit.Recorder.
type Store struct {
	db *sqlx.DB
}

var _ audit.Recorder = (*Store)(nil)

// Open connects to dsn, applies embedded migrations, and returns a ready
// Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect audit database: %w", err)
	}
	if err := ApplyMigrations(ctx, db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// New wraps an already-open database handle without running migrations.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

func toNullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNullString(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time.UTC()
	return &t
}

// --- runs --------------------------------------------------------------

func (s *Store) BeginRun(ctx context.Context, configHash, canonicalVersion string, schemaContract []byte) (domain.Run, error) {
	run := domain.Run{
		RunID:            string(ids.NewRunID()),
		StartedAt:        time.Now().UTC(),
		Status:           domain.RunRunning,
		ConfigHash:       configHash,
		CanonicalVersion: canonicalVersion,
		SchemaContract:   schemaContract,
		SchemaContractHash: ids.HashBytes(schemaContract),
		ExportStatus:     domain.ExportNotRequested,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at, status, config_hash, canonical_version, schema_contract, schema_contract_hash, export_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, run.RunID, run.StartedAt, run.Status, run.ConfigHash, run.CanonicalVersion, run.SchemaContract, run.SchemaContractHash, run.ExportStatus)
	if err != nil {
		return domain.Run{}, fmt.Errorf("begin run: %w", err)
	}
	return run, nil
}

func (s *Store) FinalizeRun(ctx context.Context, runID string, status domain.RunStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = $2, completed_at = $3 WHERE run_id = $1
	`, runID, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("finalize run: unknown run %s", runID)
	}
	return nil
}

func (s *Store) SetExportStatus(ctx context.Context, runID string, status domain.ExportStatus, exportErr string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET export_status = $2, export_error = $3 WHERE run_id = $1
	`, runID, status, exportErr)
	if err != nil {
		return fmt.Errorf("set export status: %w", err)
	}
	return nil
}

func (s *Store) SetReproducibilityGrade(ctx context.Context, runID string, grade domain.ReproducibilityGrade) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET reproducibility_grade = $2 WHERE run_id = $1
	`, runID, grade)
	if err != nil {
		return fmt.Errorf("set reproducibility grade: %w", err)
	}
	return nil
}

type runRow struct {
	RunID                string         `db:"run_id"`
	StartedAt            time.Time      `db:"started_at"`
	CompletedAt          sql.NullTime   `db:"completed_at"`
	Status               string         `db:"status"`
	ConfigHash           string         `db:"config_hash"`
	CanonicalVersion     string         `db:"canonical_version"`
	SchemaContract       []byte         `db:"schema_contract"`
	SchemaContractHash   string         `db:"schema_contract_hash"`
	SourceSchema         []byte         `db:"source_schema"`
	ExportStatus         string         `db:"export_status"`
	ExportError          string         `db:"export_error"`
	ReproducibilityGrade string         `db:"reproducibility_grade"`
}

func (rr runRow) toDomain() domain.Run {
	return domain.Run{
		RunID:                rr.RunID,
		StartedAt:            rr.StartedAt.UTC(),
		CompletedAt:          fromNullTime(rr.CompletedAt),
		Status:               domain.RunStatus(rr.Status),
		ConfigHash:           rr.ConfigHash,
		CanonicalVersion:     rr.CanonicalVersion,
		SchemaContract:       rr.SchemaContract,
		SchemaContractHash:   rr.SchemaContractHash,
		SourceSchema:         rr.SourceSchema,
		ExportStatus:         domain.ExportStatus(rr.ExportStatus),
		ExportError:          rr.ExportError,
		ReproducibilityGrade: domain.ReproducibilityGrade(rr.ReproducibilityGrade),
	}
}

func (s *Store) GetRun(ctx context.Context, runID string) (domain.Run, error) {
	var rr runRow
	err := s.db.GetContext(ctx, &rr, `
		SELECT run_id, started_at, completed_at, status, config_hash, canonical_version,
		       schema_contract, schema_contract_hash, source_schema, export_status, export_error, reproducibility_grade
		FROM runs WHERE run_id = $1
	`, runID)
	if err != nil {
		return domain.Run{}, fmt.Errorf("get run: %w", err)
	}
	return rr.toDomain(), nil
}

func (s *Store) OpenRun(ctx context.Context) (domain.Run, bool, error) {
	var rr runRow
	err := s.db.GetContext(ctx, &rr, `
		SELECT run_id, started_at, completed_at, status, config_hash, canonical_version,
		       schema_contract, schema_contract_hash, source_schema, export_status, export_error, reproducibility_grade
		FROM runs WHERE status = 'RUNNING' LIMIT 1
	`)
	if err == sql.ErrNoRows {
		return domain.Run{}, false, nil
	}
	if err != nil {
		return domain.Run{}, false, fmt.Errorf("open run: %w", err)
	}
	return rr.toDomain(), true, nil
}

// ListTerminalRuns returns every run whose status has left RUNNING, for
// the retention purge manager to scan for expired payloads.
func (s *Store) ListTerminalRuns(ctx context.Context) ([]domain.Run, error) {
	var rows []runRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT run_id, started_at, completed_at, status, config_hash, canonical_version,
		       schema_contract, schema_contract_hash, source_schema, export_status, export_error, reproducibility_grade
		FROM runs WHERE status IN ('COMPLETED', 'FAILED', 'INTERRUPTED')
	`)
	if err != nil {
		return nil, fmt.Errorf("list terminal runs: %w", err)
	}
	out := make([]domain.Run, len(rows))
	for i, rr := range rows {
		out[i] = rr.toDomain()
	}
	return out, nil
}

// --- nodes / edges -------------------------------------------------------

func (s *Store) RegisterNode(ctx context.Context, node domain.Node) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nodes (node_id, run_id, plugin_name, plugin_version, node_type, determinism, config_hash, config_json, input_schema_contract, output_schema_contract)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, node.NodeID, node.RunID, node.PluginName, node.PluginVersion, node.NodeType, node.Determinism, node.ConfigHash, node.ConfigJSON, node.InputSchemaContract, node.OutputSchemaContract)
	if err != nil {
		return fmt.Errorf("register node %s: %w", node.NodeID, err)
	}
	return nil
}

func (s *Store) RegisterEdge(ctx context.Context, edge domain.Edge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edges (edge_id, run_id, from_node, to_node, label, default_mode)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, edge.EdgeID, edge.RunID, edge.FromNode, edge.ToNode, edge.Label, edge.DefaultMode)
	if err != nil {
		return fmt.Errorf("register edge %s: %w", edge.EdgeID, err)
	}
	return nil
}

func (s *Store) NodesForRun(ctx context.Context, runID string) ([]domain.Node, error) {
	var out []domain.Node
	err := s.db.SelectContext(ctx, &out, `
		SELECT node_id AS "nodeid", run_id AS "runid", plugin_name AS "pluginname", plugin_version AS "pluginversion",
		       node_type AS "nodetype", determinism, config_hash AS "confighash", config_json AS "configjson",
		       input_schema_contract AS "inputschemacontract", output_schema_contract AS "outputschemacontract"
		FROM nodes WHERE run_id = $1
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list nodes for run: %w", err)
	}
	return out, nil
}

func (s *Store) EdgesForRun(ctx context.Context, runID string) ([]domain.Edge, error) {
	var out []domain.Edge
	err := s.db.SelectContext(ctx, &out, `
		SELECT edge_id AS "edgeid", run_id AS "runid", from_node AS "fromnode", to_node AS "tonode", label, default_mode AS "defaultmode"
		FROM edges WHERE run_id = $1
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list edges for run: %w", err)
	}
	return out, nil
}

// --- rows / tokens ---------------------------------------------------------

func (s *Store) CreateRow(ctx context.Context, runID, sourceNodeID string, rowIndex int, sourceDataHash string, payloadRef string) (domain.Row, error) {
	row := domain.Row{
		RowID:          string(ids.NewRowID()),
		RunID:          runID,
		SourceNodeID:   sourceNodeID,
		RowIndex:       rowIndex,
		SourceDataHash: sourceDataHash,
		CreatedAt:      time.Now().UTC(),
	}
	var ref *string
	if payloadRef != "" {
		row.SourceDataRef = &payloadRef
		ref = &payloadRef
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rows (row_id, run_id, source_node_id, row_index, source_data_hash, source_data_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, row.RowID, row.RunID, row.SourceNodeID, row.RowIndex, row.SourceDataHash, toNullString(ref), row.CreatedAt)
	if err != nil {
		return domain.Row{}, fmt.Errorf("create row: %w", err)
	}
	return row, nil
}

type rowRow struct {
	RowID          string         `db:"row_id"`
	RunID          string         `db:"run_id"`
	SourceNodeID   string         `db:"source_node_id"`
	RowIndex       int            `db:"row_index"`
	SourceDataHash string         `db:"source_data_hash"`
	SourceDataRef  sql.NullString `db:"source_data_ref"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (rr rowRow) toDomain() domain.Row {
	return domain.Row{
		RowID:          rr.RowID,
		RunID:          rr.RunID,
		SourceNodeID:   rr.SourceNodeID,
		RowIndex:       rr.RowIndex,
		SourceDataHash: rr.SourceDataHash,
		SourceDataRef:  fromNullString(rr.SourceDataRef),
		CreatedAt:      rr.CreatedAt.UTC(),
	}
}

func (s *Store) GetRow(ctx context.Context, rowID string) (domain.Row, error) {
	var rr rowRow
	err := s.db.GetContext(ctx, &rr, `
		SELECT row_id, run_id, source_node_id, row_index, source_data_hash, source_data_ref, created_at
		FROM rows WHERE row_id = $1
	`, rowID)
	if err != nil {
		return domain.Row{}, fmt.Errorf("get row: %w", err)
	}
	return rr.toDomain(), nil
}

func (s *Store) RowsForRun(ctx context.Context, runID string) ([]domain.Row, error) {
	var rrs []rowRow
	err := s.db.SelectContext(ctx, &rrs, `
		SELECT row_id, run_id, source_node_id, row_index, source_data_hash, source_data_ref, created_at
		FROM rows WHERE run_id = $1 ORDER BY row_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list rows for run: %w", err)
	}
	out := make([]domain.Row, 0, len(rrs))
	for _, rr := range rrs {
		out = append(out, rr.toDomain())
	}
	return out, nil
}

func (s *Store) CreateToken(ctx context.Context, row domain.Row, parentTokenID, branchName string, forkGroupID, joinGroupID, expandGroupID string) (domain.Token, error) {
	tok := domain.Token{
		TokenID:    string(ids.NewTokenID()),
		RowID:      row.RowID,
		BranchName: branchName,
		CreatedAt:  time.Now().UTC(),
	}
	if parentTokenID != "" {
		tok.ParentTokenID = &parentTokenID
	}
	if forkGroupID != "" {
		tok.ForkGroupID = &forkGroupID
	}
	if joinGroupID != "" {
		tok.JoinGroupID = &joinGroupID
	}
	if expandGroupID != "" {
		tok.ExpandGroupID = &expandGroupID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tokens (token_id, row_id, parent_token_id, branch_name, fork_group_id, join_group_id, expand_group_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, tok.TokenID, tok.RowID, toNullString(tok.ParentTokenID), tok.BranchName, toNullString(tok.ForkGroupID), toNullString(tok.JoinGroupID), toNullString(tok.ExpandGroupID), tok.CreatedAt)
	if err != nil {
		return domain.Token{}, fmt.Errorf("create token: %w", err)
	}
	return tok, nil
}

type tokenRow struct {
	TokenID       string         `db:"token_id"`
	RowID         string         `db:"row_id"`
	ParentTokenID sql.NullString `db:"parent_token_id"`
	BranchName    string         `db:"branch_name"`
	ForkGroupID   sql.NullString `db:"fork_group_id"`
	JoinGroupID   sql.NullString `db:"join_group_id"`
	ExpandGroupID sql.NullString `db:"expand_group_id"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (tr tokenRow) toDomain() domain.Token {
	return domain.Token{
		TokenID:       tr.TokenID,
		RowID:         tr.RowID,
		ParentTokenID: fromNullString(tr.ParentTokenID),
		BranchName:    tr.BranchName,
		ForkGroupID:   fromNullString(tr.ForkGroupID),
		JoinGroupID:   fromNullString(tr.JoinGroupID),
		ExpandGroupID: fromNullString(tr.ExpandGroupID),
		CreatedAt:     tr.CreatedAt.UTC(),
	}
}

func (s *Store) GetToken(ctx context.Context, tokenID string) (domain.Token, error) {
	var tr tokenRow
	err := s.db.GetContext(ctx, &tr, `
		SELECT token_id, row_id, parent_token_id, branch_name, fork_group_id, join_group_id, expand_group_id, created_at
		FROM tokens WHERE token_id = $1
	`, tokenID)
	if err != nil {
		return domain.Token{}, fmt.Errorf("get token: %w", err)
	}
	return tr.toDomain(), nil
}

func (s *Store) TokenChildren(ctx context.Context, tokenID string) ([]domain.Token, error) {
	var trs []tokenRow
	err := s.db.SelectContext(ctx, &trs, `
		SELECT token_id, row_id, parent_token_id, branch_name, fork_group_id, join_group_id, expand_group_id, created_at
		FROM tokens WHERE parent_token_id = $1
	`, tokenID)
	if err != nil {
		return nil, fmt.Errorf("list token children: %w", err)
	}
	out := make([]domain.Token, 0, len(trs))
	for _, tr := range trs {
		out = append(out, tr.toDomain())
	}
	return out, nil
}

// --- node states / routing events ------------------------------------------

func (s *Store) BeginNodeState(ctx context.Context, tokenID, nodeID string, stepIndex, attempt int, inputHash string) (domain.NodeState, error) {
	st := domain.NodeState{
		StateID:   string(ids.NewStateID()),
		TokenID:   tokenID,
		NodeID:    nodeID,
		StepIndex: stepIndex,
		Attempt:   attempt,
		Status:    domain.StateRunning,
		InputHash: inputHash,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO node_states (state_id, token_id, run_id, node_id, step_index, attempt, status, input_hash, started_at)
		SELECT $1, $2, rows.run_id, $3, $4, $5, $6, $7, $8
		FROM tokens JOIN rows ON rows.row_id = tokens.row_id
		WHERE tokens.token_id = $2
	`, st.StateID, st.TokenID, st.NodeID, st.StepIndex, st.Attempt, st.Status, st.InputHash, st.StartedAt)
	if err != nil {
		return domain.NodeState{}, fmt.Errorf("begin node state: %w", err)
	}
	return st, nil
}

func (s *Store) CompleteNodeState(ctx context.Context, stateID string, status domain.NodeStateStatus, outputHash string, errJSON []byte) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE node_states SET status = $2, output_hash = $3, error_json = $4, completed_at = $5
		WHERE state_id = $1
	`, stateID, status, outputHash, errJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("complete node state: %w", err)
	}
	return nil
}

func (s *Store) RecordRoutingEvent(ctx context.Context, stateID, edgeID string, mode domain.EdgeMode, routingGroupID string, ordinal int, reasonHash, reasonRef string) (domain.RoutingEvent, error) {
	ev := domain.RoutingEvent{
		EventID:        string(ids.NewEventID()),
		StateID:        stateID,
		EdgeID:         edgeID,
		RoutingGroupID: routingGroupID,
		Ordinal:        ordinal,
		Mode:           mode,
		ReasonHash:     reasonHash,
		CreatedAt:      time.Now().UTC(),
	}
	var ref *string
	if reasonRef != "" {
		ev.ReasonRef = &reasonRef
		ref = &reasonRef
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO routing_events (event_id, state_id, edge_id, routing_group_id, ordinal, mode, reason_hash, reason_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, ev.EventID, ev.StateID, ev.EdgeID, ev.RoutingGroupID, ev.Ordinal, ev.Mode, ev.ReasonHash, toNullString(ref), ev.CreatedAt)
	if err != nil {
		return domain.RoutingEvent{}, fmt.Errorf("record routing event: %w", err)
	}
	return ev, nil
}

// --- token outcomes ----------------------------------------------------

func (s *Store) RecordTokenOutcome(ctx context.Context, runID, tokenID string, outcome domain.Outcome, sinkName, errorHash string) (domain.TokenOutcome, error) {
	out := domain.TokenOutcome{
		OutcomeID:  string(ids.NewOutcomeID()),
		RunID:      runID,
		TokenID:    tokenID,
		Outcome:    outcome,
		IsTerminal: outcome != domain.OutcomeForked,
		RecordedAt: time.Now().UTC(),
	}
	var sink, errHash *string
	if sinkName != "" {
		out.SinkName = &sinkName
		sink = &sinkName
	}
	if errorHash != "" {
		out.ErrorHash = &errorHash
		errHash = &errorHash
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token_outcomes (outcome_id, run_id, token_id, outcome, is_terminal, sink_name, error_hash, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, out.OutcomeID, out.RunID, out.TokenID, out.Outcome, out.IsTerminal, toNullString(sink), toNullString(errHash), out.RecordedAt)
	if err != nil {
		return domain.TokenOutcome{}, fmt.Errorf("record token outcome: %w", err)
	}
	return out, nil
}

type outcomeRow struct {
	OutcomeID  string         `db:"outcome_id"`
	RunID      string         `db:"run_id"`
	TokenID    string         `db:"token_id"`
	Outcome    string         `db:"outcome"`
	IsTerminal bool           `db:"is_terminal"`
	SinkName   sql.NullString `db:"sink_name"`
	ErrorHash  sql.NullString `db:"error_hash"`
	RecordedAt time.Time      `db:"recorded_at"`
}

func (or outcomeRow) toDomain() domain.TokenOutcome {
	return domain.TokenOutcome{
		OutcomeID:  or.OutcomeID,
		RunID:      or.RunID,
		TokenID:    or.TokenID,
		Outcome:    domain.Outcome(or.Outcome),
		IsTerminal: or.IsTerminal,
		SinkName:   fromNullString(or.SinkName),
		ErrorHash:  fromNullString(or.ErrorHash),
		RecordedAt: or.RecordedAt.UTC(),
	}
}

func (s *Store) TokenOutcomes(ctx context.Context, tokenID string) ([]domain.TokenOutcome, error) {
	var ors []outcomeRow
	err := s.db.SelectContext(ctx, &ors, `
		SELECT outcome_id, run_id, token_id, outcome, is_terminal, sink_name, error_hash, recorded_at
		FROM token_outcomes WHERE token_id = $1 ORDER BY recorded_at
	`, tokenID)
	if err != nil {
		return nil, fmt.Errorf("list token outcomes: %w", err)
	}
	out := make([]domain.TokenOutcome, 0, len(ors))
	for _, or := range ors {
		out = append(out, or.toDomain())
	}
	return out, nil
}

// --- operations / calls / transform errors ---------------------------------

func (s *Store) BeginOperation(ctx context.Context, runID, nodeID, operationType string, inputRef string) (domain.Operation, error) {
	op := domain.Operation{
		OperationID:   string(ids.NewOperationID()),
		RunID:         runID,
		NodeID:        nodeID,
		OperationType: operationType,
		Status:        domain.OperationPending,
		StartedAt:     time.Now().UTC(),
	}
	var ref *string
	if inputRef != "" {
		op.InputDataRef = &inputRef
		ref = &inputRef
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operations (operation_id, run_id, node_id, operation_type, status, input_data_ref, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, op.OperationID, op.RunID, op.NodeID, op.OperationType, op.Status, toNullString(ref), op.StartedAt)
	if err != nil {
		return domain.Operation{}, fmt.Errorf("begin operation: %w", err)
	}
	return op, nil
}

func (s *Store) CompleteOperation(ctx context.Context, operationID string, status domain.OperationStatus, outputRef string, errMsg string) error {
	var ref *string
	if outputRef != "" {
		ref = &outputRef
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE operations SET status = $2, output_data_ref = $3, error = $4, completed_at = $5
		WHERE operation_id = $1
	`, operationID, status, toNullString(ref), errMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("complete operation: %w", err)
	}
	return nil
}

func (s *Store) RecordCall(ctx context.Context, call domain.Call) (domain.Call, error) {
	if call.CallID == "" {
		call.CallID = string(ids.NewCallID())
	}
	if call.StartedAt.IsZero() {
		call.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calls (call_id, run_id, node_state_id, operation_id, call_type, request_hash, request_ref, response_hash, response_ref, status, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, call.CallID, call.RunID, toNullString(call.NodeStateID), toNullString(call.OperationID), call.CallType,
		call.RequestHash, toNullString(call.RequestRef), call.ResponseHash, toNullString(call.ResponseRef),
		call.Status, call.StartedAt, toNullTime(call.CompletedAt))
	if err != nil {
		return domain.Call{}, fmt.Errorf("record call: %w", err)
	}
	return call, nil
}

func (s *Store) RecordTransformError(ctx context.Context, terr domain.TransformError) error {
	if terr.ID == "" {
		terr.ID = string(ids.NewEventID())
	}
	if terr.CreatedAt.IsZero() {
		terr.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transform_errors (id, run_id, node_id, token_id, state_id, reason, retryable, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, terr.ID, terr.RunID, terr.NodeID, terr.TokenID, terr.StateID, terr.Reason, terr.Retryable, terr.CreatedAt)
	if err != nil {
		return fmt.Errorf("record transform error: %w", err)
	}
	return nil
}

// --- checkpoints ---------------------------------------------------------

func (s *Store) CreateCheckpoint(ctx context.Context, cp domain.Checkpoint) (domain.Checkpoint, error) {
	if cp.CheckpointID == "" {
		cp.CheckpointID = string(ids.NewCheckpointID())
	}
	cp.CreatedAt = time.Now().UTC()

	var tokenID, nodeID *string
	if cp.TokenID != "" {
		tokenID = &cp.TokenID
	}
	if cp.NodeID != "" {
		nodeID = &cp.NodeID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (checkpoint_id, run_id, token_id, node_id, sequence_number, aggregation_state_json, created_at, upstream_topology_hash, divert_exclusive_topology_hash, checkpoint_node_config_hash, format_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, cp.CheckpointID, cp.RunID, toNullString(tokenID), toNullString(nodeID), cp.SequenceNumber, cp.AggregationStateJSON, cp.CreatedAt,
		cp.UpstreamTopologyHash, cp.DivertExclusiveTopologyHash, cp.CheckpointNodeConfigHash, cp.FormatVersion)
	if err != nil {
		return domain.Checkpoint{}, fmt.Errorf("create checkpoint: %w", err)
	}
	return cp, nil
}

type checkpointRow struct {
	CheckpointID                string         `db:"checkpoint_id"`
	RunID                       string         `db:"run_id"`
	TokenID                     sql.NullString `db:"token_id"`
	NodeID                      sql.NullString `db:"node_id"`
	SequenceNumber              int64          `db:"sequence_number"`
	AggregationStateJSON        []byte         `db:"aggregation_state_json"`
	CreatedAt                   time.Time      `db:"created_at"`
	UpstreamTopologyHash        string         `db:"upstream_topology_hash"`
	DivertExclusiveTopologyHash string         `db:"divert_exclusive_topology_hash"`
	CheckpointNodeConfigHash    string         `db:"checkpoint_node_config_hash"`
	FormatVersion               int            `db:"format_version"`
}

func (cr checkpointRow) toDomain() domain.Checkpoint {
	cp := domain.Checkpoint{
		CheckpointID:                cr.CheckpointID,
		RunID:                       cr.RunID,
		SequenceNumber:              cr.SequenceNumber,
		AggregationStateJSON:        cr.AggregationStateJSON,
		CreatedAt:                   cr.CreatedAt.UTC(),
		UpstreamTopologyHash:        cr.UpstreamTopologyHash,
		DivertExclusiveTopologyHash: cr.DivertExclusiveTopologyHash,
		CheckpointNodeConfigHash:    cr.CheckpointNodeConfigHash,
		FormatVersion:               cr.FormatVersion,
	}
	if cr.TokenID.Valid {
		cp.TokenID = cr.TokenID.String
	}
	if cr.NodeID.Valid {
		cp.NodeID = cr.NodeID.String
	}
	return cp
}

func (s *Store) LatestCheckpoint(ctx context.Context, runID string) (domain.Checkpoint, bool, error) {
	var cr checkpointRow
	err := s.db.GetContext(ctx, &cr, `
		SELECT checkpoint_id, run_id, token_id, node_id, sequence_number, aggregation_state_json, created_at,
		       upstream_topology_hash, divert_exclusive_topology_hash, checkpoint_node_config_hash, format_version
		FROM checkpoints WHERE run_id = $1 ORDER BY sequence_number DESC LIMIT 1
	`, runID)
	if err == sql.ErrNoRows {
		return domain.Checkpoint{}, false, nil
	}
	if err != nil {
		return domain.Checkpoint{}, false, fmt.Errorf("latest checkpoint: %w", err)
	}
	return cr.toDomain(), true, nil
}

// --- lineage / recovery queries ------------------------------------------

func (s *Store) ExplainRow(ctx context.Context, runID, rowID string) (audit.RowLineage, error) {
	row, err := s.GetRow(ctx, rowID)
	if err != nil {
		return audit.RowLineage{}, err
	}
	lineage := audit.RowLineage{Row: row, PayloadAvailable: row.SourceDataRef != nil}

	var trs []tokenRow
	if err := s.db.SelectContext(ctx, &trs, `
		WITH RECURSIVE lineage AS (
			SELECT token_id, row_id, parent_token_id, branch_name, fork_group_id, join_group_id, expand_group_id, created_at
			FROM tokens WHERE row_id = $1 AND parent_token_id IS NULL
			UNION ALL
			SELECT t.token_id, t.row_id, t.parent_token_id, t.branch_name, t.fork_group_id, t.join_group_id, t.expand_group_id, t.created_at
			FROM tokens t JOIN lineage l ON t.parent_token_id = l.token_id
		)
		SELECT * FROM lineage
	`, rowID); err != nil {
		return audit.RowLineage{}, fmt.Errorf("explain row: walk tokens: %w", err)
	}
	tokenIDs := make([]string, 0, len(trs))
	for _, tr := range trs {
		lineage.Tokens = append(lineage.Tokens, tr.toDomain())
		tokenIDs = append(tokenIDs, tr.TokenID)
	}
	if len(tokenIDs) == 0 {
		return lineage, nil
	}

	query, args, err := sqlx.In(`
		SELECT state_id, token_id, run_id, node_id, step_index, attempt, status, input_hash, output_hash, error_json, started_at, completed_at
		FROM node_states WHERE token_id IN (?) ORDER BY step_index
	`, tokenIDs)
	if err != nil {
		return audit.RowLineage{}, fmt.Errorf("explain row: build state query: %w", err)
	}
	query = s.db.Rebind(query)

	type stateRow struct {
		StateID     string         `db:"state_id"`
		TokenID     string         `db:"token_id"`
		RunID       string         `db:"run_id"`
		NodeID      string         `db:"node_id"`
		StepIndex   int            `db:"step_index"`
		Attempt     int            `db:"attempt"`
		Status      string         `db:"status"`
		InputHash   string         `db:"input_hash"`
		OutputHash  string         `db:"output_hash"`
		ErrorJSON   []byte         `db:"error_json"`
		StartedAt   time.Time      `db:"started_at"`
		CompletedAt sql.NullTime   `db:"completed_at"`
	}
	var srs []stateRow
	if err := s.db.SelectContext(ctx, &srs, query, args...); err != nil {
		return audit.RowLineage{}, fmt.Errorf("explain row: load states: %w", err)
	}

	stateIDs := make([]string, 0, len(srs))
	for _, sr := range srs {
		lineage.NodeStates = append(lineage.NodeStates, domain.NodeState{
			StateID:     sr.StateID,
			TokenID:     sr.TokenID,
			RunID:       sr.RunID,
			NodeID:      sr.NodeID,
			StepIndex:   sr.StepIndex,
			Attempt:     sr.Attempt,
			Status:      domain.NodeStateStatus(sr.Status),
			InputHash:   sr.InputHash,
			OutputHash:  sr.OutputHash,
			ErrorJSON:   sr.ErrorJSON,
			StartedAt:   sr.StartedAt.UTC(),
			CompletedAt: fromNullTime(sr.CompletedAt),
		})
		stateIDs = append(stateIDs, sr.StateID)
	}

	if len(stateIDs) > 0 {
		revQuery, revArgs, err := sqlx.In(`
			SELECT event_id, state_id, edge_id, routing_group_id, ordinal, mode, reason_hash, reason_ref, created_at
			FROM routing_events WHERE state_id IN (?)
		`, stateIDs)
		if err != nil {
			return audit.RowLineage{}, fmt.Errorf("explain row: build routing query: %w", err)
		}
		revQuery = s.db.Rebind(revQuery)

		type eventRow struct {
			EventID        string         `db:"event_id"`
			StateID        string         `db:"state_id"`
			EdgeID         string         `db:"edge_id"`
			RoutingGroupID string         `db:"routing_group_id"`
			Ordinal        int            `db:"ordinal"`
			Mode           string         `db:"mode"`
			ReasonHash     string         `db:"reason_hash"`
			ReasonRef      sql.NullString `db:"reason_ref"`
			CreatedAt      time.Time      `db:"created_at"`
		}
		var ers []eventRow
		if err := s.db.SelectContext(ctx, &ers, revQuery, revArgs...); err != nil {
			return audit.RowLineage{}, fmt.Errorf("explain row: load routing events: %w", err)
		}
		for _, er := range ers {
			lineage.RoutingEvents = append(lineage.RoutingEvents, domain.RoutingEvent{
				EventID:        er.EventID,
				StateID:        er.StateID,
				EdgeID:         er.EdgeID,
				RoutingGroupID: er.RoutingGroupID,
				Ordinal:        er.Ordinal,
				Mode:           domain.EdgeMode(er.Mode),
				ReasonHash:     er.ReasonHash,
				ReasonRef:      fromNullString(er.ReasonRef),
				CreatedAt:      er.CreatedAt.UTC(),
			})
		}
	}

	outQuery, outArgs, err := sqlx.In(`
		SELECT outcome_id, run_id, token_id, outcome, is_terminal, sink_name, error_hash, recorded_at
		FROM token_outcomes WHERE token_id IN (?)
	`, tokenIDs)
	if err != nil {
		return audit.RowLineage{}, fmt.Errorf("explain row: build outcome query: %w", err)
	}
	outQuery = s.db.Rebind(outQuery)
	var ors []outcomeRow
	if err := s.db.SelectContext(ctx, &ors, outQuery, outArgs...); err != nil {
		return audit.RowLineage{}, fmt.Errorf("explain row: load outcomes: %w", err)
	}
	for _, or := range ors {
		lineage.Outcomes = append(lineage.Outcomes, or.toDomain())
	}

	return lineage, nil
}

// GetUnprocessedRows returns rows where no terminal outcome has been
// recorded for any leaf token in that row's lineage. It expresses the
// same "any leaf without a terminal outcome" rule as the in-memory
// recorder, via a correlated NOT EXISTS over the recursive token tree.
func (s *Store) GetUnprocessedRows(ctx context.Context, runID string) ([]domain.Row, error) {
	var rrs []rowRow
	err := s.db.SelectContext(ctx, &rrs, `
		WITH RECURSIVE tree AS (
			SELECT token_id, row_id, token_id AS leaf_candidate
			FROM tokens WHERE row_id IN (SELECT row_id FROM rows WHERE run_id = $1) AND parent_token_id IS NULL
			UNION ALL
			SELECT t.token_id, tree.row_id, t.token_id
			FROM tokens t JOIN tree ON t.parent_token_id = tree.token_id
		),
		leaves AS (
			SELECT tree.row_id, tree.token_id
			FROM tree
			WHERE NOT EXISTS (SELECT 1 FROM tokens child WHERE child.parent_token_id = tree.token_id)
		)
		SELECT r.row_id, r.run_id, r.source_node_id, r.row_index, r.source_data_hash, r.source_data_ref, r.created_at
		FROM rows r
		WHERE r.run_id = $1
		AND EXISTS (
			SELECT 1 FROM leaves
			WHERE leaves.row_id = r.row_id
			AND NOT EXISTS (
				SELECT 1 FROM token_outcomes o WHERE o.token_id = leaves.token_id AND o.is_terminal
			)
		)
		ORDER BY r.row_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get unprocessed rows: %w", err)
	}
	out := make([]domain.Row, 0, len(rrs))
	for _, rr := range rrs {
		out = append(out, rr.toDomain())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowIndex < out[j].RowIndex })
	return out, nil
}
