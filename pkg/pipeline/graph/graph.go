package graph

import (
	"fmt"

	"github.com/R3E-Network/service_layer/pkg/pipeline/perrors"
)

// Graph is the immutable, typed, acyclic execution DAG for one run. It is
// the single source of truth for topology: node identity, labeled edges,
// step numbering, and the resolver maps the row processor needs.
type Graph struct {
	nodes map[string]NodeInfo
	edges []EdgeInfo
	// outgoing[from][label] = edge
	outgoing map[string]map[string]EdgeInfo

	sourceNode string
	sinkNodes  map[string]string // sink name -> node id
	sinkByNode map[string]string // node id -> sink name

	transformOnError  map[string]string // transform node id -> sink name or "discard"
	coalesces         map[string]CoalesceInfo
	branchToCoalesce  map[string]string // branch name -> coalesce name
	routeResolution   map[[2]string]RouteDestination
	forkDeclarations  map[string][]string // gate node id -> fork branches
	branchProducerNode map[string]map[string]string // coalesce node id -> branch name -> producer node id
	stepIndex         map[string]int
	order             []string // node ids in build order, for stable iteration
}

// NodeIDs returns every node id in the graph, in build order.
func (g *Graph) NodeIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Node returns one node's static info.
func (g *Graph) Node(nodeID string) (NodeInfo, bool) {
	n, ok := g.nodes[nodeID]
	return n, ok
}

// SourceNodeID returns the single source node's id.
func (g *Graph) SourceNodeID() string { return g.sourceNode }

// Edges returns every edge in the graph.
func (g *Graph) Edges() []EdgeInfo {
	out := make([]EdgeInfo, len(g.edges))
	copy(out, g.edges)
	return out
}

// EdgeFor looks up the edge leaving fromNode with the given label.
func (g *Graph) EdgeFor(fromNode, label string) (EdgeInfo, bool) {
	byLabel, ok := g.outgoing[fromNode]
	if !ok {
		return EdgeInfo{}, false
	}
	e, ok := byLabel[label]
	return e, ok
}

// GetSinkIDMap returns sink name -> node id.
func (g *Graph) GetSinkIDMap() map[string]string {
	out := make(map[string]string, len(g.sinkNodes))
	for k, v := range g.sinkNodes {
		out[k] = v
	}
	return out
}

// GetTerminalSinkMap returns, for processing nodes whose on_success is a
// sink, node id -> sink name.
func (g *Graph) GetTerminalSinkMap() map[string]string {
	out := make(map[string]string, len(g.sinkByNode))
	for k, v := range g.sinkByNode {
		out[k] = v
	}
	return out
}

// GetTransformIDMap returns transform node id -> on_error destination
// ("discard" or a sink name).
func (g *Graph) GetTransformIDMap() map[string]string {
	out := make(map[string]string, len(g.transformOnError))
	for k, v := range g.transformOnError {
		out[k] = v
	}
	return out
}

// GetConfigGateIDMap returns gate node id -> declared fork_to branches.
func (g *Graph) GetConfigGateIDMap() map[string][]string {
	out := make(map[string][]string, len(g.forkDeclarations))
	for k, v := range g.forkDeclarations {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// GetCoalesceIDMap returns coalesce node id -> coalesce info.
func (g *Graph) GetCoalesceIDMap() map[string]CoalesceInfo {
	out := make(map[string]CoalesceInfo, len(g.coalesces))
	for k, v := range g.coalesces {
		out[k] = v
	}
	return out
}

// GetBranchToCoalesceMap returns branch name -> coalesce name (not node
// id, so callers look it up via GetCoalesceIDMap by name).
func (g *Graph) GetBranchToCoalesceMap() map[string]string {
	out := make(map[string]string, len(g.branchToCoalesce))
	for k, v := range g.branchToCoalesce {
		out[k] = v
	}
	return out
}

// GetRouteResolutionMap returns (gate node id, route label) -> resolved
// destination.
func (g *Graph) GetRouteResolutionMap() map[[2]string]RouteDestination {
	out := make(map[[2]string]RouteDestination, len(g.routeResolution))
	for k, v := range g.routeResolution {
		out[k] = v
	}
	return out
}

// StepIndex returns the step index assigned to nodeID.
func (g *Graph) StepIndex(nodeID string) (int, bool) {
	idx, ok := g.stepIndex[nodeID]
	return idx, ok
}

// BranchProducerNode looks up the node id that produces branchName for
// the given coalesce node, resolved at build time from the branch's
// declared connection name.
func (g *Graph) BranchProducerNode(coalesceNodeID, branchName string) (string, bool) {
	byBranch, ok := g.branchProducerNode[coalesceNodeID]
	if !ok {
		return "", false
	}
	nodeID, ok := byBranch[branchName]
	return nodeID, ok
}

// BranchForProducer is the reverse of BranchProducerNode: given a
// coalesce node and the node id a token is arriving from, it reports
// which declared branch that arrival represents.
func (g *Graph) BranchForProducer(coalesceNodeID, producerNodeID string) (string, bool) {
	for branch, nodeID := range g.branchProducerNode[coalesceNodeID] {
		if nodeID == producerNodeID {
			return branch, true
		}
	}
	return "", false
}

// CoalesceByName looks up a coalesce node by its declared name.
func (g *Graph) CoalesceByName(name string) (CoalesceInfo, bool) {
	for _, c := range g.coalesces {
		if c.Name == name {
			return c, true
		}
	}
	return CoalesceInfo{}, false
}

// validationError is a small helper to keep call sites terse.
func validationError(format string, args ...any) error {
	return perrors.New(perrors.CodeGraphValidation, fmt.Sprintf(format, args...))
}
