package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/R3E-Network/service_layer/internal/telemetry"
	"github.com/R3E-Network/service_layer/pkg/pipeline/aggregation"
	"github.com/R3E-Network/service_layer/pkg/pipeline/coalesce"
	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/graph"
	"github.com/R3E-Network/service_layer/pkg/pipeline/ids"
	"github.com/R3E-Network/service_layer/pkg/pipeline/perrors"
	"github.com/R3E-Network/service_layer/pkg/pipeline/plugin"
)

// processSourceRow takes one row off the source (or, on resume, out of
// the recovery manager), materializes its Row and original Token, and
// walks it through the graph from the source's first downstream node.
func (e *Engine) processSourceRow(ctx context.Context, runID string, rowIndex int, row plugin.PipelineRow, existingRow *domain.Row) error {
	sourceNodeID := e.graph.SourceNodeID()

	var domainRow domain.Row
	if existingRow != nil {
		domainRow = *existingRow
	} else {
		canonical, err := ids.Canonicalize(row.Fields)
		if err != nil {
			return fmt.Errorf("canonicalize row %d: %w", rowIndex, err)
		}
		payloadRef, err := e.payloads.Put(ctx, canonical)
		if err != nil {
			return perrors.Wrap(perrors.CodeExternal, "store row payload", err)
		}
		domainRow, err = e.recorder.CreateRow(ctx, runID, sourceNodeID, rowIndex, ids.HashBytes(canonical), payloadRef)
		if err != nil {
			return fmt.Errorf("create row %d: %w", rowIndex, err)
		}
	}

	tok, err := e.tokens.CreateOriginal(ctx, domainRow)
	if err != nil {
		return fmt.Errorf("create original token for row %d: %w", rowIndex, err)
	}

	edge, ok := e.graph.EdgeFor(sourceNodeID, domain.ContinueLabel)
	if !ok {
		return fmt.Errorf("source node %s has no continue edge", sourceNodeID)
	}
	return e.traverse(ctx, runID, tok, row, sourceNodeID, edge.To, 0)
}

// quarantineSourceRow routes a source-validation failure directly to the
// source's declared DIVERT sink without ever entering the DAG proper.
func (e *Engine) quarantineSourceRow(ctx context.Context, runID string, rowIndex int, sr plugin.SourceRow) error {
	sourceNodeID := e.graph.SourceNodeID()

	canonical, err := ids.Canonicalize(sr.Row.Fields)
	if err != nil {
		return fmt.Errorf("canonicalize quarantined row %d: %w", rowIndex, err)
	}
	payloadRef, err := e.payloads.Put(ctx, canonical)
	if err != nil {
		return perrors.Wrap(perrors.CodeExternal, "store quarantined row payload", err)
	}
	domainRow, err := e.recorder.CreateRow(ctx, runID, sourceNodeID, rowIndex, ids.HashBytes(canonical), payloadRef)
	if err != nil {
		return fmt.Errorf("create quarantined row %d: %w", rowIndex, err)
	}
	tok, err := e.tokens.CreateOriginal(ctx, domainRow)
	if err != nil {
		return fmt.Errorf("create token for quarantined row %d: %w", rowIndex, err)
	}

	reasonHash := ids.HashBytes([]byte(sr.QuarantineErr))
	edge, ok := e.graph.EdgeFor(sourceNodeID, domain.QuarantineLabel)
	if !ok {
		_, err := e.recorder.RecordTokenOutcome(ctx, runID, tok.TokenID, domain.OutcomeFailed, "", reasonHash)
		if err != nil {
			return fmt.Errorf("record unroutable quarantine outcome: %w", err)
		}
		telemetry.RecordRowProcessed(runID, string(domain.OutcomeFailed))
		return nil
	}

	sinkName := e.graph.GetTerminalSinkMap()[edge.To]
	return e.writeToSink(ctx, runID, tok, sr.Row, edge.To, sinkName, domain.OutcomeQuarantined, reasonHash)
}

// traverse advances tok carrying row into nodeID, having arrived from
// fromNode, and continues until the token reaches a terminal outcome (a
// sink write, a discard, or a coalesce hold).
func (e *Engine) traverse(ctx context.Context, runID string, tok domain.Token, row plugin.PipelineRow, fromNode, nodeID string, attempt int) error {
	node, ok := e.graph.Node(nodeID)
	if !ok {
		return fmt.Errorf("traverse: unknown node %s", nodeID)
	}
	stepIndex, _ := e.graph.StepIndex(nodeID)

	canonicalRow, err := ids.Canonicalize(row.Fields)
	if err != nil {
		return fmt.Errorf("canonicalize row at node %s: %w", nodeID, err)
	}
	inputHash := ids.HashBytes(canonicalRow)

	switch node.Type {
	case domain.NodeTransform:
		return e.traverseTransform(ctx, runID, tok, row, nodeID, stepIndex, attempt, inputHash)
	case domain.NodeGate:
		return e.traverseGate(ctx, runID, tok, row, nodeID, stepIndex, attempt, inputHash)
	case domain.NodeAggregation:
		return e.traverseAggregation(ctx, runID, tok, row, nodeID, stepIndex, attempt, inputHash)
	case domain.NodeCoalesce:
		return e.traverseCoalesce(ctx, runID, tok, row, fromNode, nodeID, stepIndex, attempt, inputHash)
	case domain.NodeSink:
		sinkName := e.graph.GetTerminalSinkMap()[nodeID]
		return e.writeToSink(ctx, runID, tok, row, nodeID, sinkName, domain.OutcomeCompleted, "")
	default:
		return fmt.Errorf("traverse: node %s has unsupported type %s", nodeID, node.Type)
	}
}

func (e *Engine) traverseTransform(ctx context.Context, runID string, tok domain.Token, row plugin.PipelineRow, nodeID string, stepIndex, attempt int, inputHash string) error {
	impl, err := e.registry.transform(nodeID)
	if err != nil {
		return err
	}
	begin := time.Now()
	state, err := e.recorder.BeginNodeState(ctx, tok.TokenID, nodeID, stepIndex, attempt, inputHash)
	if err != nil {
		return fmt.Errorf("begin node state at %s: %w", nodeID, err)
	}

	pctx := plugin.Context{Context: ctx, RunID: runID, NodeID: nodeID}
	result, procErr := impl.Process(pctx, row)
	if procErr != nil {
		result = plugin.TransformResult{Outcome: plugin.TransformError, Reason: procErr.Error()}
	}

	if result.Outcome == plugin.TransformError {
		errJSON := []byte(fmt.Sprintf("{%q:%q}", "reason", result.Reason))
		telemetry.RecordNodeState(nodeID, string(domain.StateFailed), time.Since(begin))
		if err := e.recorder.CompleteNodeState(ctx, state.StateID, domain.StateFailed, "", errJSON); err != nil {
			return fmt.Errorf("complete failed node state at %s: %w", nodeID, err)
		}
		if err := e.recorder.RecordTransformError(ctx, domain.TransformError{
			RunID: runID, NodeID: nodeID, TokenID: tok.TokenID,
			StateID: state.StateID, Reason: result.Reason, Retryable: result.Retryable,
		}); err != nil {
			return fmt.Errorf("record transform error at %s: %w", nodeID, err)
		}
		return e.routeOnError(ctx, runID, tok, row, nodeID, result.Reason)
	}

	canonicalOut, err := ids.Canonicalize(result.Row.Fields)
	if err != nil {
		return fmt.Errorf("canonicalize transform output at %s: %w", nodeID, err)
	}
	telemetry.RecordNodeState(nodeID, string(domain.StateCompleted), time.Since(begin))
	if err := e.recorder.CompleteNodeState(ctx, state.StateID, domain.StateCompleted, ids.HashBytes(canonicalOut), nil); err != nil {
		return fmt.Errorf("complete node state at %s: %w", nodeID, err)
	}

	edge, ok := e.graph.EdgeFor(nodeID, domain.ContinueLabel)
	if !ok {
		return fmt.Errorf("transform %s has no continue edge", nodeID)
	}
	if err := e.recordRouting(ctx, state.StateID, edge); err != nil {
		return err
	}
	return e.traverse(ctx, runID, tok, result.Row, nodeID, edge.To, 0)
}

func (e *Engine) routeOnError(ctx context.Context, runID string, tok domain.Token, row plugin.PipelineRow, nodeID, reason string) error {
	dest := e.graph.GetTransformIDMap()[nodeID]
	if dest == "" || dest == "discard" {
		_, err := e.recorder.RecordTokenOutcome(ctx, runID, tok.TokenID, domain.OutcomeFailed, "", ids.HashBytes([]byte(reason)))
		if err != nil {
			return fmt.Errorf("record discard outcome at %s: %w", nodeID, err)
		}
		telemetry.RecordRowProcessed(runID, string(domain.OutcomeFailed))
		return nil
	}
	sinkNodeID, ok := e.graph.GetSinkIDMap()[dest]
	if !ok {
		return fmt.Errorf("transform %s on_error targets unknown sink %q", nodeID, dest)
	}
	return e.writeToSink(ctx, runID, tok, row, sinkNodeID, dest, domain.OutcomeQuarantined, ids.HashBytes([]byte(reason)))
}

func (e *Engine) traverseGate(ctx context.Context, runID string, tok domain.Token, row plugin.PipelineRow, nodeID string, stepIndex, attempt int, inputHash string) error {
	impl, err := e.registry.gate(nodeID)
	if err != nil {
		return err
	}
	state, err := e.recorder.BeginNodeState(ctx, tok.TokenID, nodeID, stepIndex, attempt, inputHash)
	if err != nil {
		return fmt.Errorf("begin node state at %s: %w", nodeID, err)
	}

	pctx := plugin.Context{Context: ctx, RunID: runID, NodeID: nodeID}
	result, err := impl.Evaluate(pctx, row)
	if err != nil {
		errJSON := []byte(fmt.Sprintf("{%q:%q}", "reason", err.Error()))
		if cerr := e.recorder.CompleteNodeState(ctx, state.StateID, domain.StateFailed, "", errJSON); cerr != nil {
			return fmt.Errorf("complete failed gate state at %s: %w", nodeID, cerr)
		}
		return fmt.Errorf("evaluate gate %s: %w", nodeID, err)
	}

	canonicalOut, cerr := ids.Canonicalize(result.Row.Fields)
	if cerr != nil {
		return fmt.Errorf("canonicalize gate output at %s: %w", nodeID, cerr)
	}
	if err := e.recorder.CompleteNodeState(ctx, state.StateID, domain.StateCompleted, ids.HashBytes(canonicalOut), nil); err != nil {
		return fmt.Errorf("complete gate state at %s: %w", nodeID, err)
	}

	if len(result.Action.ForkBranches) > 0 {
		return e.fork(ctx, runID, tok, result.Row, nodeID, state.StateID, result.Action.ForkBranches)
	}

	if result.Action.RouteToSink != "" {
		sinkNodeID, ok := e.graph.GetSinkIDMap()[result.Action.RouteToSink]
		if !ok {
			return fmt.Errorf("gate %s routes to unknown sink %q", nodeID, result.Action.RouteToSink)
		}
		return e.writeToSink(ctx, runID, tok, result.Row, sinkNodeID, result.Action.RouteToSink, domain.OutcomeCompleted, "")
	}

	label := result.Action.RouteTo
	if label == "" && result.Action.Continue {
		label = domain.ContinueLabel
	}
	if label == "" {
		return perrors.New(perrors.CodeRouteValidation, fmt.Sprintf("gate %s produced no routing decision", nodeID))
	}

	edge, ok := e.graph.EdgeFor(nodeID, label)
	if !ok {
		return perrors.New(perrors.CodeRouteValidation, fmt.Sprintf("gate %s has no edge for label %q", nodeID, label))
	}
	if err := e.recordRouting(ctx, state.StateID, edge); err != nil {
		return err
	}
	target, ok := e.graph.Node(edge.To)
	if ok && target.Type == domain.NodeSink {
		sinkName := e.graph.GetTerminalSinkMap()[edge.To]
		return e.writeToSink(ctx, runID, tok, result.Row, edge.To, sinkName, domain.OutcomeCompleted, "")
	}
	return e.traverse(ctx, runID, tok, result.Row, nodeID, edge.To, 0)
}

// fork mints one child token per declared branch, carrying the branch
// name on each child so downstream coalesces can identify the arrival
// without re-deriving it from graph topology, and drives each branch
// independently and concurrently.
func (e *Engine) fork(ctx context.Context, runID string, tok domain.Token, row plugin.PipelineRow, gateNodeID, stateID string, branches []string) error {
	domainRow, err := e.recorder.GetRow(ctx, tok.RowID)
	if err != nil {
		return fmt.Errorf("fork %s: load row: %w", gateNodeID, err)
	}
	children, err := e.tokens.Fork(ctx, domainRow, tok, branches)
	if err != nil {
		return fmt.Errorf("fork %s: mint children: %w", gateNodeID, err)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(branches))
	for i, branch := range branches {
		edge, ok := e.graph.EdgeFor(gateNodeID, branch)
		if !ok {
			errs[i] = fmt.Errorf("fork %s: no edge for branch %q", gateNodeID, branch)
			continue
		}
		if err := e.recordRouting(ctx, stateID, edge); err != nil {
			errs[i] = err
			continue
		}
		wg.Add(1)
		idx, childTok, dest := i, children[i], edge.To
		go func() {
			defer wg.Done()
			errs[idx] = e.traverse(ctx, runID, childTok, row.Clone(), gateNodeID, dest, 0)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) traverseCoalesce(ctx context.Context, runID string, tok domain.Token, row plugin.PipelineRow, fromNode, nodeID string, stepIndex, attempt int, inputHash string) error {
	info, ok := e.graph.GetCoalesceIDMap()[nodeID]
	if !ok {
		return fmt.Errorf("traverse coalesce: unknown coalesce node %s", nodeID)
	}
	e.mu.Lock()
	exec, ok := e.coalesceExecs[nodeID]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("traverse coalesce: no executor for node %s", nodeID)
	}

	// The arriving token's own BranchName (set when its fork sibling
	// group was minted) is the authoritative branch identity; the
	// producer-node fallback only matters for a coalesce fed directly by
	// a plain producer connection rather than a gate fork.
	branch := tok.BranchName
	if branch == "" {
		branch, ok = e.graph.BranchForProducer(nodeID, fromNode)
		if !ok {
			return fmt.Errorf("coalesce %s: cannot identify branch for arriving token %s (from %s)", nodeID, tok.TokenID, fromNode)
		}
	}

	state, err := e.recorder.BeginNodeState(ctx, tok.TokenID, nodeID, stepIndex, attempt, inputHash)
	if err != nil {
		return fmt.Errorf("begin coalesce state at %s: %w", nodeID, err)
	}

	joinKey := coalesceJoinKey(tok)

	e.mu.Lock()
	decision, arriveErr := exec.Arrive(joinKey, coalesce.Arrival{BranchName: branch, Token: tok, Row: row}, time.Now())
	e.mu.Unlock()
	if arriveErr != nil {
		return fmt.Errorf("coalesce %s arrive: %w", nodeID, arriveErr)
	}
	if err := e.recorder.CompleteNodeState(ctx, state.StateID, domain.StateCompleted, inputHash, nil); err != nil {
		return fmt.Errorf("complete coalesce state at %s: %w", nodeID, err)
	}
	telemetry.SetCoalesceHolding(nodeID, len(exec.PendingJoinKeys()))
	if !decision.Ready {
		return nil
	}
	return e.emitCoalesce(ctx, runID, nodeID, joinKey)
}

// emitCoalesce merges and routes one satisfied (or best-effort-flushed)
// join key's arrivals onward. Shared by the synchronous arrival path in
// traverseCoalesce and the periodic timeout sweep in sweepCoalesceTimeouts.
func (e *Engine) emitCoalesce(ctx context.Context, runID, nodeID, joinKey string) error {
	info, ok := e.graph.GetCoalesceIDMap()[nodeID]
	if !ok {
		return fmt.Errorf("emit coalesce: unknown coalesce node %s", nodeID)
	}
	e.mu.Lock()
	exec := e.coalesceExecs[nodeID]
	result, emitErr := exec.Emit(joinKey)
	e.mu.Unlock()
	if emitErr != nil {
		return fmt.Errorf("coalesce %s emit: %w", nodeID, emitErr)
	}
	telemetry.RecordCoalesceOutcome(nodeID, "emitted")

	domainRow, err := e.recorder.GetRow(ctx, result.Contributing[0].RowID)
	if err != nil {
		return fmt.Errorf("coalesce %s: load row: %w", nodeID, err)
	}
	joined, err := e.tokens.Coalesce(ctx, domainRow, result.Contributing, info.Name)
	if err != nil {
		return fmt.Errorf("coalesce %s: mint joined token: %w", nodeID, err)
	}

	edge, ok := e.graph.EdgeFor(nodeID, domain.ContinueLabel)
	if !ok {
		return fmt.Errorf("coalesce %s has no continue edge", nodeID)
	}
	target, ok := e.graph.Node(edge.To)
	if ok && target.Type == domain.NodeSink {
		sinkName := e.graph.GetTerminalSinkMap()[edge.To]
		return e.writeToSink(ctx, runID, joined, result.Row, edge.To, sinkName, domain.OutcomeCompleted, "")
	}
	return e.traverse(ctx, runID, joined, result.Row, nodeID, edge.To, 0)
}

// sweepCoalesceTimeouts checks every coalesce node's pending join keys
// against their deadlines: a best_effort coalesce past deadline flushes
// with whatever arrived, and any other policy past deadline fails its
// partial arrivals rather than holding them forever.
func (e *Engine) sweepCoalesceTimeouts(ctx context.Context, runID string) {
	type due struct {
		nodeID, joinKey string
		decision        coalesce.Decision
	}
	now := time.Now()
	var pending []due

	e.mu.Lock()
	for nodeID, exec := range e.coalesceExecs {
		for _, joinKey := range exec.PendingJoinKeys() {
			if d := exec.CheckTimeout(joinKey, now); d.Ready || d.TimedOut {
				pending = append(pending, due{nodeID, joinKey, d})
			}
		}
	}
	e.mu.Unlock()

	for _, p := range pending {
		if p.decision.Ready {
			if err := e.emitCoalesce(ctx, runID, p.nodeID, p.joinKey); err != nil {
				e.log.WithField("node_id", p.nodeID).Errorf("coalesce timeout flush: %v", err)
			}
			continue
		}
		if err := e.failCoalesceTimeout(ctx, runID, p.nodeID, p.joinKey); err != nil {
			e.log.WithField("node_id", p.nodeID).Errorf("coalesce timeout fail: %v", err)
		}
	}
}

// failCoalesceTimeout fails every token that arrived at joinKey before
// its coalesce node's deadline passed without satisfying the node's
// policy; the tokens never continue past this node.
func (e *Engine) failCoalesceTimeout(ctx context.Context, runID, nodeID, joinKey string) error {
	e.mu.Lock()
	exec := e.coalesceExecs[nodeID]
	result, err := exec.Emit(joinKey)
	e.mu.Unlock()
	if err != nil {
		return fmt.Errorf("coalesce %s: timeout emit: %w", nodeID, err)
	}
	telemetry.RecordCoalesceOutcome(nodeID, "timed_out")

	reasonHash := ids.HashBytes([]byte(fmt.Sprintf("coalesce timed out, missing branches: %v", result.MissingBranches)))
	for _, tok := range result.Contributing {
		if _, err := e.recorder.RecordTokenOutcome(ctx, runID, tok.TokenID, domain.OutcomeFailed, "", reasonHash); err != nil {
			return fmt.Errorf("coalesce %s: record timed-out outcome: %w", nodeID, err)
		}
		telemetry.RecordRowProcessed(runID, string(domain.OutcomeFailed))
	}
	return nil
}

func coalesceJoinKey(tok domain.Token) string {
	if tok.ForkGroupID != nil {
		return *tok.ForkGroupID
	}
	return tok.RowID
}

func (e *Engine) traverseAggregation(ctx context.Context, runID string, tok domain.Token, row plugin.PipelineRow, nodeID string, stepIndex, attempt int, inputHash string) error {
	e.mu.Lock()
	buf, ok := e.aggBuffers[nodeID]
	if !ok {
		var err error
		buf, err = aggregation.New(nodeID, e.aggTrigger(nodeID), time.Now())
		if err != nil {
			e.mu.Unlock()
			return fmt.Errorf("create aggregation buffer at %s: %w", nodeID, err)
		}
		e.aggBuffers[nodeID] = buf
	}
	fire := buf.Add(aggregation.Item{Token: tok, Row: row})
	var flushItems []aggregation.Item
	if fire {
		flushItems = buf.Flush(time.Now())
	}
	e.mu.Unlock()

	if flushItems == nil {
		return nil
	}
	return e.flushAggregation(ctx, runID, nodeID, flushItems)
}

// aggTrigger recovers the node's trigger spec from its own config map,
// under the keys the builder copied the aggregation plugin's declared
// trigger into when the node was installed.
func (e *Engine) aggTrigger(nodeID string) graph.TriggerSpec {
	info, _ := e.graph.Node(nodeID)
	cfg := info.Config()
	spec := graph.TriggerSpec{Kind: "count", Count: 1, FlushOnEnd: true}
	if kind, ok := cfg["trigger_kind"].(string); ok && kind != "" {
		spec.Kind = kind
	}
	if count, ok := cfg["trigger_count"].(float64); ok {
		spec.Count = int(count)
	}
	if every, ok := cfg["trigger_every"].(float64); ok {
		spec.Every = int(every)
	}
	if cronSpec, ok := cfg["trigger_cron"].(string); ok {
		spec.CronSpec = cronSpec
	}
	if interval, ok := cfg["trigger_interval"].(string); ok {
		spec.Interval = interval
	}
	if flushOnEnd, ok := cfg["flush_on_end"].(bool); ok {
		spec.FlushOnEnd = flushOnEnd
	}
	return spec
}

func (e *Engine) flushAggregation(ctx context.Context, runID, nodeID string, items []aggregation.Item) error {
	impl, err := e.registry.batchTransform(nodeID)
	if err != nil {
		return err
	}
	info, _ := e.graph.Node(nodeID)
	outputMode, _ := info.Config()["output_mode"].(string)
	if outputMode == "" {
		outputMode = aggregation.OutputTransform
	}

	stepIndex, _ := e.graph.StepIndex(nodeID)
	pctx := plugin.Context{Context: ctx, RunID: runID, NodeID: nodeID}
	result, err := aggregation.Apply(pctx, impl, items, outputMode)
	if err != nil {
		return fmt.Errorf("flush aggregation %s: %w", nodeID, err)
	}

	status := domain.StateCompleted
	if result.Outcome == plugin.TransformError {
		status = domain.StateFailed
	}
	for _, item := range items {
		state, serr := e.recorder.BeginNodeState(ctx, item.Token.TokenID, nodeID, stepIndex, 0, "")
		if serr != nil {
			return fmt.Errorf("begin aggregation input state at %s: %w", nodeID, serr)
		}
		if cerr := e.recorder.CompleteNodeState(ctx, state.StateID, status, "", nil); cerr != nil {
			return fmt.Errorf("complete aggregation input state at %s: %w", nodeID, cerr)
		}
		if result.Outcome == plugin.TransformError {
			if _, oerr := e.recorder.RecordTokenOutcome(ctx, runID, item.Token.TokenID, domain.OutcomeFailed, "", ids.HashBytes([]byte(result.Reason))); oerr != nil {
				return fmt.Errorf("record aggregation input outcome at %s: %w", nodeID, oerr)
			}
		} else {
			if _, oerr := e.recorder.RecordTokenOutcome(ctx, runID, item.Token.TokenID, domain.OutcomeForked, "", ""); oerr != nil {
				return fmt.Errorf("record aggregation input outcome at %s: %w", nodeID, oerr)
			}
		}
	}
	if result.Outcome == plugin.TransformError {
		return nil
	}

	edge, ok := e.graph.EdgeFor(nodeID, domain.ContinueLabel)
	if !ok {
		return fmt.Errorf("aggregation %s has no continue edge", nodeID)
	}
	domainRow, err := e.recorder.GetRow(ctx, items[0].Token.RowID)
	if err != nil {
		return fmt.Errorf("flush aggregation %s: load row: %w", nodeID, err)
	}

	if outputMode == aggregation.OutputTransform {
		outTok, err := e.tokens.Coalesce(ctx, domainRow, result.ContributingTokens, "aggregation:"+nodeID)
		if err != nil {
			return fmt.Errorf("mint aggregation output token at %s: %w", nodeID, err)
		}
		return e.traverse(ctx, runID, outTok, result.Rows[0], nodeID, edge.To, 0)
	}

	outTokens, err := e.tokens.Expand(ctx, domainRow, result.ContributingTokens[0], len(result.Rows))
	if err != nil {
		return fmt.Errorf("mint aggregation expand tokens at %s: %w", nodeID, err)
	}
	for i, outRow := range result.Rows {
		if err := e.traverse(ctx, runID, outTokens[i], outRow, nodeID, edge.To, 0); err != nil {
			return err
		}
	}
	return nil
}

// writeToSink writes rows to the sink bound at sinkNodeID and records the
// terminal outcome. A COMPLETED outcome is recorded only after the sink
// write itself succeeds — durability requires the artifact exist before
// the audit trail calls the token done.
func (e *Engine) writeToSink(ctx context.Context, runID string, tok domain.Token, row plugin.PipelineRow, sinkNodeID, sinkName string, outcome domain.Outcome, reasonHash string) error {
	impl, err := e.registry.sink(sinkNodeID)
	if err != nil {
		return err
	}
	stepIndex, _ := e.graph.StepIndex(sinkNodeID)

	canonicalRow, err := ids.Canonicalize(row.Fields)
	if err != nil {
		return fmt.Errorf("canonicalize sink input at %s: %w", sinkNodeID, err)
	}
	inputHash := ids.HashBytes(canonicalRow)

	state, err := e.recorder.BeginNodeState(ctx, tok.TokenID, sinkNodeID, stepIndex, 0, inputHash)
	if err != nil {
		return fmt.Errorf("begin sink state at %s: %w", sinkNodeID, err)
	}

	pctx := plugin.Context{Context: ctx, RunID: runID, NodeID: sinkNodeID}
	artifact, writeErr := impl.Write(pctx, []plugin.PipelineRow{row})
	if writeErr != nil {
		errJSON := []byte(fmt.Sprintf("{%q:%q}", "reason", writeErr.Error()))
		if cerr := e.recorder.CompleteNodeState(ctx, state.StateID, domain.StateFailed, "", errJSON); cerr != nil {
			return fmt.Errorf("complete failed sink state at %s: %w", sinkNodeID, cerr)
		}
		_, oerr := e.recorder.RecordTokenOutcome(ctx, runID, tok.TokenID, domain.OutcomeFailed, sinkName, ids.HashBytes([]byte(writeErr.Error())))
		if oerr != nil {
			return fmt.Errorf("record failed sink outcome at %s: %w", sinkNodeID, oerr)
		}
		telemetry.RecordRowProcessed(runID, string(domain.OutcomeFailed))
		return nil
	}

	if err := e.recorder.CompleteNodeState(ctx, state.StateID, domain.StateCompleted, artifact.ContentHash, nil); err != nil {
		return fmt.Errorf("complete sink state at %s: %w", sinkNodeID, err)
	}
	if _, err := e.recorder.RecordTokenOutcome(ctx, runID, tok.TokenID, outcome, sinkName, reasonHash); err != nil {
		return fmt.Errorf("record sink outcome at %s: %w", sinkNodeID, err)
	}
	telemetry.RecordRowProcessed(runID, string(outcome))
	return nil
}

func (e *Engine) recordRouting(ctx context.Context, stateID string, edge graph.EdgeInfo) error {
	_, err := e.recorder.RecordRoutingEvent(ctx, stateID, edge.EdgeID, edge.Mode, "", 0, "", "")
	if err != nil {
		return fmt.Errorf("record routing event for edge %s: %w", edge.EdgeID, err)
	}
	return nil
}
