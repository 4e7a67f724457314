// Package memory is an in-process Recorder used by unit tests and by the
// single-process smoke-test CLI mode. It keeps every audit entity in
// plain maps guarded by one mutex — grounded on the teacher's
// internal/app in-memory store fakes used across its service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/R3E-Network/service_layer/pkg/pipeline/audit"
	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/ids"
)

// Recorder is a goroutine-safe, in-memory audit.Recorder.
type Recorder struct {
	mu sync.Mutex

	runs  map[string]domain.Run
	nodes map[string]domain.Node
	edges map[string]domain.Edge

	rows          map[string]domain.Row
	rowsByRun     map[string][]string
	tokens        map[string]domain.Token
	tokenChildren map[string][]string

	states         map[string]domain.NodeState
	stateKeys      map[string]bool // token_id|step_index|attempt
	routingEvents  map[string][]domain.RoutingEvent
	outcomes       map[string][]domain.TokenOutcome

	operations map[string]domain.Operation
	calls      map[string]domain.Call
	transformErrors []domain.TransformError

	checkpoints map[string][]domain.Checkpoint
}

// New creates an empty in-memory Recorder.
func New() *Recorder {
	return &Recorder{
		runs:          make(map[string]domain.Run),
		nodes:         make(map[string]domain.Node),
		edges:         make(map[string]domain.Edge),
		rows:          make(map[string]domain.Row),
		rowsByRun:     make(map[string][]string),
		tokens:        make(map[string]domain.Token),
		tokenChildren: make(map[string][]string),
		states:        make(map[string]domain.NodeState),
		stateKeys:     make(map[string]bool),
		routingEvents: make(map[string][]domain.RoutingEvent),
		outcomes:      make(map[string][]domain.TokenOutcome),
		operations:    make(map[string]domain.Operation),
		calls:         make(map[string]domain.Call),
		checkpoints:   make(map[string][]domain.Checkpoint),
	}
}

var _ audit.Recorder = (*Recorder)(nil)

func (r *Recorder) BeginRun(ctx context.Context, configHash, canonicalVersion string, schemaContract []byte) (domain.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.runs {
		if !existing.IsTerminal() {
			return domain.Run{}, fmt.Errorf("begin run: run %s is already active", existing.RunID)
		}
	}

	run := domain.Run{
		RunID:            string(ids.NewRunID()),
		StartedAt:        time.Now(),
		Status:           domain.RunRunning,
		ConfigHash:       configHash,
		CanonicalVersion: canonicalVersion,
		SchemaContract:   schemaContract,
		ExportStatus:     domain.ExportNotRequested,
	}
	r.runs[run.RunID] = run
	return run, nil
}

func (r *Recorder) FinalizeRun(ctx context.Context, runID string, status domain.RunStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[runID]
	if !ok {
		return fmt.Errorf("finalize run: unknown run %s", runID)
	}
	now := time.Now()
	run.Status = status
	run.CompletedAt = &now
	r.runs[runID] = run
	return nil
}

func (r *Recorder) SetExportStatus(ctx context.Context, runID string, status domain.ExportStatus, exportErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return fmt.Errorf("set export status: unknown run %s", runID)
	}
	run.ExportStatus = status
	run.ExportError = exportErr
	r.runs[runID] = run
	return nil
}

func (r *Recorder) SetReproducibilityGrade(ctx context.Context, runID string, grade domain.ReproducibilityGrade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return fmt.Errorf("set reproducibility grade: unknown run %s", runID)
	}
	run.ReproducibilityGrade = grade
	r.runs[runID] = run
	return nil
}

func (r *Recorder) GetRun(ctx context.Context, runID string) (domain.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return domain.Run{}, fmt.Errorf("get run: unknown run %s", runID)
	}
	return run, nil
}

func (r *Recorder) OpenRun(ctx context.Context) (domain.Run, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if !run.IsTerminal() {
			return run, true, nil
		}
	}
	return domain.Run{}, false, nil
}

func (r *Recorder) RegisterNode(ctx context.Context, node domain.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.nodes[node.NodeID]; exists {
		return fmt.Errorf("register node: duplicate node %s", node.NodeID)
	}
	r.nodes[node.NodeID] = node
	return nil
}

func (r *Recorder) RegisterEdge(ctx context.Context, edge domain.Edge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.edges[edge.EdgeID]; exists {
		return fmt.Errorf("register edge: duplicate edge %s", edge.EdgeID)
	}
	r.edges[edge.EdgeID] = edge
	return nil
}

func (r *Recorder) CreateRow(ctx context.Context, runID, sourceNodeID string, rowIndex int, sourceDataHash string, payloadRef string) (domain.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := domain.Row{
		RowID:          string(ids.NewRowID()),
		RunID:          runID,
		SourceNodeID:   sourceNodeID,
		RowIndex:       rowIndex,
		SourceDataHash: sourceDataHash,
		CreatedAt:      time.Now(),
	}
	if payloadRef != "" {
		row.SourceDataRef = &payloadRef
	}
	r.rows[row.RowID] = row
	r.rowsByRun[runID] = append(r.rowsByRun[runID], row.RowID)
	return row, nil
}

func (r *Recorder) GetRow(ctx context.Context, rowID string) (domain.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[rowID]
	if !ok {
		return domain.Row{}, fmt.Errorf("get row: unknown row %s", rowID)
	}
	return row, nil
}

func (r *Recorder) CreateToken(ctx context.Context, row domain.Row, parentTokenID, branchName string, forkGroupID, joinGroupID, expandGroupID string) (domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tok := domain.Token{
		TokenID:    string(ids.NewTokenID()),
		RowID:      row.RowID,
		BranchName: branchName,
		CreatedAt:  time.Now(),
	}
	if parentTokenID != "" {
		tok.ParentTokenID = &parentTokenID
		r.tokenChildren[parentTokenID] = append(r.tokenChildren[parentTokenID], tok.TokenID)
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
	r.tokens[tok.TokenID] = tok
	return tok, nil
}

func (r *Recorder) GetToken(ctx context.Context, tokenID string) (domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.tokens[tokenID]
	if !ok {
		return domain.Token{}, fmt.Errorf("get token: unknown token %s", tokenID)
	}
	return tok, nil
}

func (r *Recorder) TokenChildren(ctx context.Context, tokenID string) ([]domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Token
	for _, childID := range r.tokenChildren[tokenID] {
		out = append(out, r.tokens[childID])
	}
	return out, nil
}

func stateKey(tokenID string, stepIndex, attempt int) string {
	return fmt.Sprintf("%s|%d|%d", tokenID, stepIndex, attempt)
}

func (r *Recorder) BeginNodeState(ctx context.Context, tokenID, nodeID string, stepIndex, attempt int, inputHash string) (domain.NodeState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := stateKey(tokenID, stepIndex, attempt)
	if r.stateKeys[key] {
		return domain.NodeState{}, fmt.Errorf("begin node state: duplicate (token=%s step=%d attempt=%d)", tokenID, stepIndex, attempt)
	}
	r.stateKeys[key] = true

	st := domain.NodeState{
		StateID:   string(ids.NewStateID()),
		TokenID:   tokenID,
		NodeID:    nodeID,
		StepIndex: stepIndex,
		Attempt:   attempt,
		Status:    domain.StateRunning,
		InputHash: inputHash,
		StartedAt: time.Now(),
	}
	r.states[st.StateID] = st
	return st, nil
}

func (r *Recorder) CompleteNodeState(ctx context.Context, stateID string, status domain.NodeStateStatus, outputHash string, errJSON []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[stateID]
	if !ok {
		return fmt.Errorf("complete node state: unknown state %s", stateID)
	}
	now := time.Now()
	st.Status = status
	st.OutputHash = outputHash
	st.ErrorJSON = errJSON
	st.CompletedAt = &now
	r.states[stateID] = st
	return nil
}

func (r *Recorder) RecordRoutingEvent(ctx context.Context, stateID, edgeID string, mode domain.EdgeMode, routingGroupID string, ordinal int, reasonHash, reasonRef string) (domain.RoutingEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev := domain.RoutingEvent{
		EventID:        string(ids.NewEventID()),
		StateID:        stateID,
		EdgeID:         edgeID,
		RoutingGroupID: routingGroupID,
		Ordinal:        ordinal,
		Mode:           mode,
		ReasonHash:     reasonHash,
		CreatedAt:      time.Now(),
	}
	if reasonRef != "" {
		ev.ReasonRef = &reasonRef
	}
	r.routingEvents[stateID] = append(r.routingEvents[stateID], ev)
	return ev, nil
}

func (r *Recorder) RecordTokenOutcome(ctx context.Context, runID, tokenID string, outcome domain.Outcome, sinkName, errorHash string) (domain.TokenOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := domain.TokenOutcome{
		OutcomeID:  string(ids.NewOutcomeID()),
		RunID:      runID,
		TokenID:    tokenID,
		Outcome:    outcome,
		IsTerminal: outcome != domain.OutcomeForked,
		RecordedAt: time.Now(),
	}
	if sinkName != "" {
		out.SinkName = &sinkName
	}
	if errorHash != "" {
		out.ErrorHash = &errorHash
	}
	r.outcomes[tokenID] = append(r.outcomes[tokenID], out)
	return out, nil
}

func (r *Recorder) TokenOutcomes(ctx context.Context, tokenID string) ([]domain.TokenOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TokenOutcome(nil), r.outcomes[tokenID]...), nil
}

func (r *Recorder) BeginOperation(ctx context.Context, runID, nodeID, operationType string, inputRef string) (domain.Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	op := domain.Operation{
		OperationID:   string(ids.NewOperationID()),
		RunID:         runID,
		NodeID:        nodeID,
		OperationType: operationType,
		Status:        domain.OperationPending,
		StartedAt:     time.Now(),
	}
	if inputRef != "" {
		op.InputDataRef = &inputRef
	}
	r.operations[op.OperationID] = op
	return op, nil
}

func (r *Recorder) CompleteOperation(ctx context.Context, operationID string, status domain.OperationStatus, outputRef string, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.operations[operationID]
	if !ok {
		return fmt.Errorf("complete operation: unknown operation %s", operationID)
	}
	now := time.Now()
	op.Status = status
	op.CompletedAt = &now
	op.Error = errMsg
	if outputRef != "" {
		op.OutputDataRef = &outputRef
	}
	r.operations[operationID] = op
	return nil
}

func (r *Recorder) RecordCall(ctx context.Context, call domain.Call) (domain.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if call.CallID == "" {
		call.CallID = string(ids.NewCallID())
	}
	r.calls[call.CallID] = call
	return call, nil
}

func (r *Recorder) RecordTransformError(ctx context.Context, terr domain.TransformError) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transformErrors = append(r.transformErrors, terr)
	return nil
}

func (r *Recorder) CreateCheckpoint(ctx context.Context, cp domain.Checkpoint) (domain.Checkpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cp.CheckpointID == "" {
		cp.CheckpointID = string(ids.NewCheckpointID())
	}
	cp.CreatedAt = time.Now()
	r.checkpoints[cp.RunID] = append(r.checkpoints[cp.RunID], cp)
	return cp, nil
}

func (r *Recorder) LatestCheckpoint(ctx context.Context, runID string) (domain.Checkpoint, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.checkpoints[runID]
	if len(list) == 0 {
		return domain.Checkpoint{}, false, nil
	}
	latest := list[0]
	for _, cp := range list[1:] {
		if cp.SequenceNumber > latest.SequenceNumber {
			latest = cp
		}
	}
	return latest, true, nil
}

func (r *Recorder) ExplainRow(ctx context.Context, runID, rowID string) (audit.RowLineage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[rowID]
	if !ok {
		return audit.RowLineage{}, fmt.Errorf("explain row: unknown row %s", rowID)
	}

	lineage := audit.RowLineage{Row: row, PayloadAvailable: row.SourceDataRef != nil}

	// Collect every token descended from any token created directly on
	// this row, following fork/coalesce/expand children transitively.
	seen := make(map[string]bool)
	var queue []string
	for _, tok := range r.tokens {
		if tok.RowID == rowID && tok.ParentTokenID == nil {
			queue = append(queue, tok.TokenID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		lineage.Tokens = append(lineage.Tokens, r.tokens[id])
		queue = append(queue, r.tokenChildren[id]...)
	}

	for _, tok := range lineage.Tokens {
		for _, st := range r.states {
			if st.TokenID == tok.TokenID {
				lineage.NodeStates = append(lineage.NodeStates, st)
				lineage.RoutingEvents = append(lineage.RoutingEvents, r.routingEvents[st.StateID]...)
			}
		}
		lineage.Outcomes = append(lineage.Outcomes, r.outcomes[tok.TokenID]...)
	}

	sort.Slice(lineage.NodeStates, func(i, j int) bool {
		return lineage.NodeStates[i].StepIndex < lineage.NodeStates[j].StepIndex
	})

	return lineage, nil
}

func (r *Recorder) GetUnprocessedRows(ctx context.Context, runID string) ([]domain.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Row
	for _, rowID := range r.rowsByRun[runID] {
		if r.rowTerminal(rowID) {
			continue
		}
		out = append(out, r.rows[rowID])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowIndex < out[j].RowIndex })
	return out, nil
}

// rowTerminal reports whether every leaf token descended from rowID has a
// terminal outcome recorded. Must be called with r.mu held.
func (r *Recorder) rowTerminal(rowID string) bool {
	var roots []string
	for _, tok := range r.tokens {
		if tok.RowID == rowID && tok.ParentTokenID == nil {
			roots = append(roots, tok.TokenID)
		}
	}
	if len(roots) == 0 {
		return false
	}

	var walk func(tokenID string) bool
	walk = func(tokenID string) bool {
		children := r.tokenChildren[tokenID]
		if len(children) == 0 {
			for _, out := range r.outcomes[tokenID] {
				if out.IsTerminal {
					return true
				}
			}
			return false
		}
		for _, child := range children {
			if !walk(child) {
				return false
			}
		}
		return true
	}

	for _, root := range roots {
		if !walk(root) {
			return false
		}
	}
	return true
}

func (r *Recorder) RowsForRun(ctx context.Context, runID string) ([]domain.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Row
	for _, rowID := range r.rowsByRun[runID] {
		out = append(out, r.rows[rowID])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowIndex < out[j].RowIndex })
	return out, nil
}

func (r *Recorder) NodesForRun(ctx context.Context, runID string) ([]domain.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Node
	for _, n := range r.nodes {
		if n.RunID == runID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *Recorder) EdgesForRun(ctx context.Context, runID string) ([]domain.Edge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Edge
	for _, e := range r.edges {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *Recorder) ListTerminalRuns(ctx context.Context) ([]domain.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Run
	for _, run := range r.runs {
		if run.IsTerminal() {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunID < out[j].RunID })
	return out, nil
}
