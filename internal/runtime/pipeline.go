// Package runtime assembles a runnable pipeline.Engine from a JSON
// pipeline configuration file, mirroring the way internal/app wires its
// services from internal/config.Config: load configuration, resolve
// concrete collaborators by name, hand them to the constructor that
// owns the actual business logic.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/R3E-Network/service_layer/internal/logging"
	"github.com/R3E-Network/service_layer/internal/telemetry"
	"github.com/R3E-Network/service_layer/pkg/logger"
	"github.com/R3E-Network/service_layer/pkg/pipeline/audit"
	"github.com/R3E-Network/service_layer/pkg/pipeline/audit/memory"
	"github.com/R3E-Network/service_layer/pkg/pipeline/audit/postgres"
	"github.com/R3E-Network/service_layer/pkg/pipeline/checkpoint"
	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/engine"
	"github.com/R3E-Network/service_layer/pkg/pipeline/gatelang"
	"github.com/R3E-Network/service_layer/pkg/pipeline/graph"
	"github.com/R3E-Network/service_layer/pkg/pipeline/ids"
	"github.com/R3E-Network/service_layer/pkg/pipeline/payload"
	"github.com/R3E-Network/service_layer/pkg/pipeline/plugin"
	"github.com/R3E-Network/service_layer/plugins/csvsink"
	"github.com/R3E-Network/service_layer/plugins/csvsource"
	"github.com/R3E-Network/service_layer/plugins/jsonsink"
	"github.com/R3E-Network/service_layer/plugins/quarantine"
	"github.com/R3E-Network/service_layer/plugins/transforms"
)

// PluginRefConfig is the JSON shape of a plugin instance reference.
type PluginRefConfig struct {
	Name    string         `json:"name"`
	Version string         `json:"version"`
	Config  map[string]any `json:"config"`
}

// SourceConfig is the JSON shape of the single source declaration.
type SourceConfig struct {
	Plugin    PluginRefConfig `json:"plugin"`
	OnSuccess string          `json:"on_success"`
}

// SinkConfig is the JSON shape of one sink declaration, keyed by sink
// name in PipelineConfig.Sinks.
type SinkConfig struct {
	Plugin PluginRefConfig `json:"plugin"`
}

// TransformConfig is the JSON shape of one transform declaration.
type TransformConfig struct {
	Plugin    PluginRefConfig `json:"plugin"`
	Input     string          `json:"input"`
	OnSuccess string          `json:"on_success"`
	OnError   string          `json:"on_error"`
}

// TriggerConfig is the JSON shape of an aggregation's flush trigger.
type TriggerConfig struct {
	Kind       string `json:"kind"`
	Count      int    `json:"count"`
	Every      int    `json:"every"`
	CronSpec   string `json:"cron_spec"`
	Interval   string `json:"interval"`
	FlushOnEnd bool   `json:"flush_on_end"`
}

// AggregationConfig is the JSON shape of one aggregation declaration.
type AggregationConfig struct {
	Plugin     PluginRefConfig `json:"plugin"`
	Input      string          `json:"input"`
	OnSuccess  string          `json:"on_success"`
	Trigger    TriggerConfig   `json:"trigger"`
	OutputMode string          `json:"output_mode"`
}

// GateConfig is the JSON shape of one gate declaration. Condition is
// evaluated against the row fields; the boolean result routes to the
// "true" or "false" entry of Routes, matching how row B in the edge-case
// corpus counts routing_events on (gate, "true")/(gate, "false").
type GateConfig struct {
	Condition string            `json:"condition"`
	Input     string            `json:"input"`
	Routes    map[string]string `json:"routes"`
	ForkTo    []string          `json:"fork_to"`
}

// CoalescePolicyConfig is the JSON shape of a coalesce node's policy.
type CoalescePolicyConfig struct {
	Kind   string `json:"kind"`
	Quorum int    `json:"quorum"`
}

// CoalesceConfig is the JSON shape of one coalesce declaration.
type CoalesceConfig struct {
	Name           string                `json:"name"`
	Branches       map[string]string     `json:"branches"`
	Policy         CoalescePolicyConfig  `json:"policy"`
	Merge          string                `json:"merge"`
	TimeoutSeconds float64               `json:"timeout_seconds"`
	OnSuccess      string                `json:"on_success"`
}

// PipelineConfig is the top-level JSON configuration file shape
// consumed by cmd/pipeline-run.
type PipelineConfig struct {
	Source       SourceConfig             `json:"source"`
	Sinks        map[string]SinkConfig    `json:"sinks"`
	Transforms   []TransformConfig        `json:"transforms"`
	Aggregations []AggregationConfig      `json:"aggregations"`
	Gates        []GateConfig             `json:"gates"`
	Coalesces    []CoalesceConfig         `json:"coalesces"`
	RetentionDays int                     `json:"retention_days"`
}

// LoadPipelineConfig reads and parses a PipelineConfig from path.
func LoadPipelineConfig(path string) (PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("read pipeline config %s: %w", path, err)
	}
	var cfg PipelineConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return PipelineConfig{}, fmt.Errorf("parse pipeline config %s: %w", path, err)
	}
	return cfg, nil
}

// Pipeline bundles everything a CLI entry point needs to drive one run:
// the validated graph, a ready engine, and the resources the caller
// must close when done.
type Pipeline struct {
	Graph    *graph.Graph
	Engine   *engine.Engine
	Recorder audit.Recorder
	Payloads payload.Store
	Registry *engine.Registry
	Log      *logger.Logger

	closers []func() error
}

// Close releases every resource Build opened, in reverse acquisition
// order, returning the first error encountered.
func (p *Pipeline) Close() error {
	var first error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// BuildOptions carries the CLI-supplied knobs that aren't part of the
// pipeline's own JSON config: where the audit trail and payloads live,
// and how much the engine may parallelize.
type BuildOptions struct {
	AuditDSN     string // empty selects the in-memory recorder
	PayloadDir   string
	MaxWorkers   int
	CheckpointEvery int
	AllowDivertOnlyTopologyDrift bool
}

// Build resolves cfg's plugin references into bound instances, builds
// and validates the execution graph, and assembles a ready Engine.
func Build(ctx context.Context, cfg PipelineConfig, opts BuildOptions) (*Pipeline, error) {
	log := logging.NewDefault("pipeline-run")
	p := &Pipeline{Log: log}

	payloads, err := payload.NewFileStore(opts.PayloadDir)
	if err != nil {
		return nil, fmt.Errorf("open payload store at %s: %w", opts.PayloadDir, err)
	}
	p.Payloads = payloads

	recorder, closeRecorder, err := openRecorder(ctx, opts.AuditDSN)
	if err != nil {
		return nil, err
	}
	p.Recorder = recorder
	if closeRecorder != nil {
		p.closers = append(p.closers, closeRecorder)
	}

	buildInput, gateConditions, err := buildGraphInput(cfg)
	if err != nil {
		return nil, err
	}
	g, err := graph.FromPluginInstances(buildInput)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	p.Graph = g

	registry, err := bindRegistry(cfg, g, gateConditions)
	if err != nil {
		return nil, err
	}
	p.Registry = registry

	p.Engine = engine.New(recorder, payloads, g, registry, gateConditions, engine.Options{
		MaxWorkers:      opts.MaxWorkers,
		CheckpointEvery: opts.CheckpointEvery,
		ResumePolicy:    checkpoint.ResumePolicy{AllowDivertOnlyTopologyDrift: opts.AllowDivertOnlyTopologyDrift},
		Log:             log,
	})

	log.WithField("retention_days", cfg.RetentionDays).Info("pipeline graph built")
	telemetry.RecordNodeState(g.SourceNodeID(), "installed", 0)
	return p, nil
}

func openRecorder(ctx context.Context, dsn string) (audit.Recorder, func() error, error) {
	if dsn == "" {
		return memory.New(), nil, nil
	}
	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit database: %w", err)
	}
	return store, store.Close, nil
}

// buildGraphInput translates the JSON configuration into graph.BuildInput
// and, separately, the compiled gate conditions keyed by the gate's
// (config-order) position — the caller resolves positions to node IDs
// once the graph assigns them, since deterministic node IDs aren't known
// until FromPluginInstances runs.
func buildGraphInput(cfg PipelineConfig) (graph.BuildInput, []compiledGate, error) {
	input := graph.BuildInput{
		Source: graph.SourceSpec{
			Plugin:    toPluginRef(cfg.Source.Plugin),
			OnSuccess: cfg.Source.OnSuccess,
		},
		Sinks: make(map[string]graph.SinkSpec, len(cfg.Sinks)),
	}
	for name, s := range cfg.Sinks {
		input.Sinks[name] = graph.SinkSpec{Plugin: toPluginRef(s.Plugin)}
	}
	for _, t := range cfg.Transforms {
		input.Transforms = append(input.Transforms, graph.TransformSpec{
			Plugin:       toPluginRef(t.Plugin),
			Input:        t.Input,
			OnSuccess:    t.OnSuccess,
			OnError:      t.OnError,
			InputSchema:  domain.Observed(),
			OutputSchema: domain.Observed(),
			Determinism:  domain.Deterministic,
		})
	}
	for _, a := range cfg.Aggregations {
		input.Aggregations = append(input.Aggregations, graph.AggregationSpec{
			Plugin:    toPluginRef(a.Plugin),
			Input:     a.Input,
			OnSuccess: a.OnSuccess,
			InputSchema:  domain.Observed(),
			OutputSchema: domain.Observed(),
			Trigger: graph.TriggerSpec{
				Kind: a.Trigger.Kind, Count: a.Trigger.Count, Every: a.Trigger.Every,
				CronSpec: a.Trigger.CronSpec, Interval: a.Trigger.Interval, FlushOnEnd: a.Trigger.FlushOnEnd,
			},
			OutputMode: a.OutputMode,
		})
	}

	var gates []compiledGate
	for i, gc := range cfg.Gates {
		cond, err := gatelang.Compile(gc.Condition)
		if err != nil {
			return graph.BuildInput{}, nil, fmt.Errorf("compile gate %d condition: %w", i, err)
		}
		input.Gates = append(input.Gates, graph.GateSpec{
			Plugin: graph.PluginRef{Name: "conditiongate", Version: "v1", Config: map[string]any{"condition": gc.Condition}},
			Input:  gc.Input,
			Routes: gc.Routes,
			ForkTo: gc.ForkTo,
		})
		gates = append(gates, compiledGate{position: i, condition: cond, routes: gc.Routes, forkTo: gc.ForkTo})
	}

	for _, cc := range cfg.Coalesces {
		input.Coalesces = append(input.Coalesces, graph.CoalesceSpec{
			Plugin:         graph.PluginRef{Name: "coalesce", Version: "v1"},
			Name:           cc.Name,
			Branches:       cc.Branches,
			Policy:         graph.CoalescePolicy{Kind: cc.Policy.Kind, Quorum: cc.Policy.Quorum},
			Merge:          graph.CoalesceMerge(cc.Merge),
			TimeoutSeconds: cc.TimeoutSeconds,
			OnSuccess:      cc.OnSuccess,
		})
	}
	return input, gates, nil
}

type compiledGate struct {
	position  int
	condition *gatelang.Condition
	routes    map[string]string
	forkTo    []string
}

func toPluginRef(c PluginRefConfig) graph.PluginRef {
	return graph.PluginRef{Name: c.Name, Version: c.Version, Config: c.Config}
}

// bindRegistry resolves every plugin reference in cfg to a concrete
// implementation from the plugins/ tree (the module's reference plugin
// suite) and binds it to its assigned node ID in g.
func bindRegistry(cfg PipelineConfig, g *graph.Graph, gates []compiledGate) (*engine.Registry, error) {
	reg := engine.NewRegistry()

	sourceID := g.SourceNodeID()
	src, err := buildSource(cfg.Source.Plugin)
	if err != nil {
		return nil, fmt.Errorf("source plugin %q: %w", cfg.Source.Plugin.Name, err)
	}
	reg.BindSource(sourceID, src)

	sinkIDs := g.GetSinkIDMap()
	for name, s := range cfg.Sinks {
		nodeID, ok := sinkIDs[name]
		if !ok {
			return nil, fmt.Errorf("sink %q: no node installed in graph", name)
		}
		impl, err := buildSink(s.Plugin)
		if err != nil {
			return nil, fmt.Errorf("sink %q plugin %q: %w", name, s.Plugin.Name, err)
		}
		reg.BindSink(nodeID, impl)
	}

	transformIDs := transformNodeIDsInOrder(g)
	if len(transformIDs) != len(cfg.Transforms) {
		return nil, fmt.Errorf("graph installed %d transform nodes, config declared %d", len(transformIDs), len(cfg.Transforms))
	}
	for i, t := range cfg.Transforms {
		impl, err := buildTransform(t.Plugin)
		if err != nil {
			return nil, fmt.Errorf("transform %d plugin %q: %w", i, t.Plugin.Name, err)
		}
		reg.BindTransform(transformIDs[i], impl)
	}

	aggIDs := aggregationNodeIDsInOrder(g)
	if len(aggIDs) != len(cfg.Aggregations) {
		return nil, fmt.Errorf("graph installed %d aggregation nodes, config declared %d", len(aggIDs), len(cfg.Aggregations))
	}
	for i, a := range cfg.Aggregations {
		impl, err := buildBatchTransform(a.Plugin)
		if err != nil {
			return nil, fmt.Errorf("aggregation %d plugin %q: %w", i, a.Plugin.Name, err)
		}
		reg.BindBatchTransform(aggIDs[i], impl)
	}

	gateIDs := gateNodeIDsInOrder(g)
	if len(gateIDs) != len(gates) {
		return nil, fmt.Errorf("graph installed %d gate nodes, config declared %d", len(gateIDs), len(gates))
	}
	for _, cg := range gates {
		reg.BindGate(gateIDs[cg.position], &conditionGate{condition: cg.condition, routes: cg.routes, forkTo: cg.forkTo})
	}

	return reg, nil
}

// transformNodeIDsInOrder, aggregationNodeIDsInOrder, and
// gateNodeIDsInOrder recover each plugin class's node IDs in the same
// order the JSON config declared them, relying on graph.FromPluginInstances
// installing nodes in declaration order per spec.md's step-numbering rule.
func transformNodeIDsInOrder(g *graph.Graph) []string {
	return nodeIDsOfType(g, domain.NodeTransform)
}

func aggregationNodeIDsInOrder(g *graph.Graph) []string {
	return nodeIDsOfType(g, domain.NodeAggregation)
}

func gateNodeIDsInOrder(g *graph.Graph) []string {
	return nodeIDsOfType(g, domain.NodeGate)
}

func nodeIDsOfType(g *graph.Graph, t domain.NodeType) []string {
	var ids []string
	for _, nodeID := range g.NodeIDs() {
		info, ok := g.Node(nodeID)
		if ok && info.Type == t {
			ids = append(ids, nodeID)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		si, _ := g.StepIndex(ids[i])
		sj, _ := g.StepIndex(ids[j])
		return si < sj
	})
	return ids
}

// conditionGate adapts a compiled gatelang.Condition plus its declared
// routes into a plugin.Gate: true routes to Routes["true"] (or forks, if
// ForkTo is set), false routes to Routes["false"].
type conditionGate struct {
	condition *gatelang.Condition
	routes    map[string]string
	forkTo    []string
}

func (g *conditionGate) Evaluate(ctx plugin.Context, row plugin.PipelineRow) (plugin.GateResult, error) {
	ok, err := g.condition.Evaluate(row.Fields)
	if err != nil {
		return plugin.GateResult{}, fmt.Errorf("gate condition: %w", err)
	}
	label := "false"
	if ok {
		label = "true"
		if len(g.forkTo) > 0 {
			return plugin.GateResult{Row: row, Action: plugin.GateAction{ForkBranches: g.forkTo}}, nil
		}
	}
	return plugin.GateResult{Row: row, Action: plugin.GateAction{RouteTo: label}}, nil
}

func buildSource(ref PluginRefConfig) (plugin.Source, error) {
	switch ref.Name {
	case "csvsource":
		path, _ := ref.Config["path"].(string)
		return csvsource.New(csvsource.Config{Path: path}), nil
	default:
		return nil, fmt.Errorf("unknown source plugin %q", ref.Name)
	}
}

func buildSink(ref PluginRefConfig) (plugin.Sink, error) {
	path, _ := ref.Config["path"].(string)
	switch ref.Name {
	case "csvsink":
		return csvsink.New(csvsink.Config{Path: path}), nil
	case "jsonsink":
		return jsonsink.New(jsonsink.Config{Path: path}), nil
	case "quarantine":
		return quarantine.New(quarantine.Config{Path: path}), nil
	default:
		return nil, fmt.Errorf("unknown sink plugin %q", ref.Name)
	}
}

func buildTransform(ref PluginRefConfig) (plugin.Transform, error) {
	switch ref.Name {
	case "passthrough":
		return transforms.Passthrough{}, nil
	case "doubler":
		field, _ := ref.Config["field"].(string)
		return transforms.NewDoubler(field), nil
	case "jsonpath_extract":
		src, _ := ref.Config["source_field"].(string)
		dst, _ := ref.Config["dest_field"].(string)
		path, _ := ref.Config["path"].(string)
		return transforms.NewJSONPathExtract(src, dst, path), nil
	default:
		return nil, fmt.Errorf("unknown transform plugin %q", ref.Name)
	}
}

func buildBatchTransform(ref PluginRefConfig) (plugin.BatchTransform, error) {
	switch ref.Name {
	default:
		return nil, fmt.Errorf("unknown aggregation plugin %q", ref.Name)
	}
}

// AuditSchemaBytes canonicalizes the run's declared schema contract the
// same way row payloads are canonicalized, so the hash stored alongside
// configHash is reproducible across identical configs.
func AuditSchemaBytes(contract domain.SchemaContract) ([]byte, error) {
	return ids.Canonicalize(contract)
}

// ConfigHash returns the canonical content hash of cfg, the value the
// audit trail records alongside every run and compares on resume.
func ConfigHash(cfg PipelineConfig) (string, error) {
	canonical, err := ids.Canonicalize(cfg)
	if err != nil {
		return "", fmt.Errorf("canonicalize pipeline config: %w", err)
	}
	return ids.HashBytes(canonical), nil
}
