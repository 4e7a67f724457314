package graph

import "github.com/R3E-Network/service_layer/pkg/pipeline/domain"

// PluginRef identifies one plugin instance's name, version, and config —
// the inputs to deterministic node-ID hashing.
type PluginRef struct {
	Name    string
	Version string
	Config  map[string]any
}

// SourceSpec describes the single source plugin instance.
type SourceSpec struct {
	Plugin       PluginRef
	OnSuccess    string // connection name
	Contract     domain.SchemaContract
	HasContract  bool
}

// TransformSpec describes one transform plugin instance.
type TransformSpec struct {
	Plugin       PluginRef
	Input        string
	OnSuccess    string
	OnError      string // sink name, or "discard"
	InputSchema  domain.SchemaContract
	OutputSchema domain.SchemaContract
	Determinism  domain.Determinism
}

// AggregationSpec describes one aggregation plugin instance. Identical
// wiring contract to a transform; the orchestrator gives it batching
// semantics at runtime.
type AggregationSpec struct {
	Plugin       PluginRef
	Input        string
	OnSuccess    string
	InputSchema  domain.SchemaContract
	OutputSchema domain.SchemaContract
	Trigger      TriggerSpec
	OutputMode   string // "transform" or "expand"
}

// TriggerSpec describes when an aggregation's buffered batch flushes.
type TriggerSpec struct {
	Kind       string // "count", "every_n", "time", "custom"
	Count      int
	Every      int
	CronSpec   string
	Interval   string // duration string, e.g. "30s"
	FlushOnEnd bool
}

// GateSpec describes one gate plugin instance.
type GateSpec struct {
	Plugin    PluginRef
	Input     string
	Condition string // gate condition language source
	Routes    map[string]string
	ForkTo    []string
}

// CoalesceSpec describes one coalesce plugin instance.
type CoalesceSpec struct {
	Plugin         PluginRef
	Name           string
	Branches       map[string]string // branch name -> producer connection
	Policy         CoalescePolicy
	Merge          CoalesceMerge
	TimeoutSeconds float64
	OnSuccess      string
}

// SinkSpec describes one sink plugin instance. Sink names are dictionary
// keys and may contain any characters.
type SinkSpec struct {
	Plugin PluginRef
	Input  string
}

// BuildInput is the full assembly input to FromPluginInstances.
type BuildInput struct {
	Source       SourceSpec
	Transforms   []TransformSpec
	Aggregations []AggregationSpec
	Gates        []GateSpec
	Coalesces    []CoalesceSpec
	Sinks        map[string]SinkSpec
}
