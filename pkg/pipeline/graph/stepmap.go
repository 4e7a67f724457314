package graph

import "github.com/R3E-Network/service_layer/pkg/pipeline/domain"

// buildStepMap assigns each node a unique, non-negative step index by
// convention: source=0, transforms in pipeline position 1..N,
// aggregations next, then gates in declaration order, then coalesces,
// then sinks. The map is injective and consistent with topological order
// along MOVE edges; it is the key used by the audit schema's
// (token_id, step_index, attempt) uniqueness constraint.
func buildStepMap(g *Graph, b *builder) map[string]int {
	steps := make(map[string]int, len(g.nodes))
	next := 0
	assign := func(nodeID string) {
		if _, ok := steps[nodeID]; ok {
			return
		}
		steps[nodeID] = next
		next++
	}

	assign(g.sourceNode)

	for _, nodeID := range b.order {
		if g.nodes[nodeID].Type == domain.NodeTransform {
			assign(nodeID)
		}
	}
	for _, nodeID := range b.order {
		if g.nodes[nodeID].Type == domain.NodeAggregation {
			assign(nodeID)
		}
	}
	for _, nodeID := range b.order {
		if g.nodes[nodeID].Type == domain.NodeGate {
			assign(nodeID)
		}
	}
	for _, nodeID := range b.order {
		if g.nodes[nodeID].Type == domain.NodeCoalesce {
			assign(nodeID)
		}
	}
	for _, nodeID := range b.order {
		if g.nodes[nodeID].Type == domain.NodeSink {
			assign(nodeID)
		}
	}
	return steps
}
