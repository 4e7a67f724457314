// Package graph builds and validates the immutable, typed execution DAG
// that the orchestrator drives rows through. The graph is sealed before a
// run starts: every cycle check, reachability check, and schema check
// happens here, once, so the runtime never sees an unvalidated graph.
package graph

import (
	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
)

// NodeInfo describes one node's static metadata as installed in the
// graph. Config is exposed as a defensive copy on read (Go has no true
// immutable map), so callers cannot mutate the builder's internal state.
type NodeInfo struct {
	NodeID        string
	PluginName    string
	PluginVersion string
	Type          domain.NodeType
	Determinism   domain.Determinism
	config        map[string]any
	InputSchema   domain.SchemaContract
	OutputSchema  domain.SchemaContract
}

// Config returns a defensive copy of the node's configuration map.
func (n NodeInfo) Config() map[string]any {
	out := make(map[string]any, len(n.config))
	for k, v := range n.config {
		out[k] = v
	}
	return out
}

// EdgeInfo describes one labeled edge between two nodes.
type EdgeInfo struct {
	EdgeID   string
	From     string
	To       string
	Label    string
	Mode     domain.EdgeMode
}

// CoalescePolicy identifies how a coalesce node decides when to emit.
type CoalescePolicy struct {
	Kind    string // "require_all", "quorum", "best_effort", "first"
	Quorum  int    // meaningful only when Kind == "quorum"
}

// CoalesceMerge identifies how a coalesce node combines arrived branches.
type CoalesceMerge string

const (
	MergeUnion  CoalesceMerge = "union"
	MergeNested CoalesceMerge = "nested"
	MergeSelect CoalesceMerge = "select"
)

// CoalesceInfo describes one coalesce node's declared branches and policy.
type CoalesceInfo struct {
	NodeID          string
	Name            string
	Branches        map[string]string // branch name -> producer connection
	Policy          CoalescePolicy
	Merge           CoalesceMerge
	TimeoutSeconds  float64
	OnSuccess       string
}

// RouteDestinationKind classifies where a gate route resolves to.
type RouteDestinationKind string

const (
	RouteToSink           RouteDestinationKind = "sink"
	RouteToProcessingNode RouteDestinationKind = "processing_node"
	RouteToFork           RouteDestinationKind = "fork"
)

// RouteDestination is the resolved target of one gate route label.
type RouteDestination struct {
	Kind   RouteDestinationKind
	Sink   string
	NodeID string
}
