package graph

import (
	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
)

// validate runs every structural and schema rule the component design
// requires before a graph may be used: exactly one source and at least
// one sink, acyclicity, reachability, edge-label uniqueness, per-edge
// schema compatibility, dangling connections, and coalesce branch
// exclusivity.
func validate(g *Graph, b *builder) error {
	if g.sourceNode == "" {
		return validationError("graph has no source node")
	}
	if len(g.sinkNodes) == 0 {
		return validationError("graph has no sink nodes")
	}

	if err := checkAcyclic(g); err != nil {
		return err
	}
	if err := checkReachability(g); err != nil {
		return err
	}
	if err := checkDanglingProducers(b); err != nil {
		return err
	}
	if err := checkSchemaCompatibility(g); err != nil {
		return err
	}
	if err := checkForkCoalesceCoverage(g); err != nil {
		return err
	}
	return nil
}

// checkAcyclic walks MOVE and COPY edges (DIVERT edges are side channels
// and do not participate in cycle detection) with a standard
// white/gray/black DFS, rejecting any back edge including self-loops.
func checkAcyclic(g *Graph) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	var visit func(node string) error
	visit = func(node string) error {
		color[node] = gray
		for _, e := range g.outgoing[node] {
			if e.Mode == domain.EdgeDivert {
				continue
			}
			switch color[e.To] {
			case gray:
				return validationError("cycle detected through edge (%s -> %s)", node, e.To)
			case white:
				if err := visit(e.To); err != nil {
					return err
				}
			}
		}
		color[node] = black
		return nil
	}
	for _, n := range g.order {
		if color[n] == white {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkReachability ensures every non-source node is reachable from the
// source via MOVE or COPY edges.
func checkReachability(g *Graph) error {
	visited := map[string]bool{g.sourceNode: true}
	queue := []string{g.sourceNode}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, e := range g.outgoing[node] {
			if e.Mode == domain.EdgeDivert {
				continue
			}
			if !visited[e.To] {
				visited[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	for _, n := range g.order {
		if !visited[n] {
			return validationError("node %s is not reachable from the source", n)
		}
	}
	return nil
}

// checkDanglingProducers ensures every declared on_success connection is
// consumed by at least one sink or processing node.
func checkDanglingProducers(b *builder) error {
	for connection, producerNodeID := range b.producerOf {
		if _, ok := b.consumedBy[connection]; ok {
			continue
		}
		return validationError("node %s declares on_success %q with no consumer", producerNodeID, connection)
	}
	return nil
}

// checkSchemaCompatibility enforces per-edge producer/consumer schema
// compatibility, and rejects mixing observed and explicit contracts at
// coalesces or any node with multiple inbound non-DIVERT edges.
func checkSchemaCompatibility(g *Graph) error {
	inboundContracts := map[string][]domain.SchemaContract{}
	for _, e := range g.edges {
		if e.Mode == domain.EdgeDivert {
			continue
		}
		fromNode, ok := g.nodes[e.From]
		if !ok {
			continue
		}
		toNode, ok := g.nodes[e.To]
		if !ok {
			continue
		}
		if fromNode.Type == domain.NodeGate {
			// Gates have no schema of their own; schema compatibility is
			// checked at the gate's own producer against the eventual
			// consumer, which is verified when walking the gate's
			// predecessor edges instead.
			continue
		}
		if !fromNode.OutputSchema.CompatibleWith(toNode.InputSchema) {
			return validationError("incompatible schema on edge %s -> %s", e.From, e.To)
		}
		inboundContracts[e.To] = append(inboundContracts[e.To], fromNode.OutputSchema)
	}
	for nodeID, contracts := range inboundContracts {
		if len(contracts) > 1 && domain.MixesObservedAndExplicit(contracts) {
			return validationError("node %s mixes observed and explicit inbound contracts", nodeID)
		}
	}
	return nil
}

// checkForkCoalesceCoverage ensures every coalesce branch name is
// declared by some gate's fork_to list.
func checkForkCoalesceCoverage(g *Graph) error {
	declared := map[string]bool{}
	for _, branches := range g.forkDeclarations {
		for _, b := range branches {
			declared[b] = true
		}
	}
	for branch := range g.branchToCoalesce {
		if !declared[branch] {
			return validationError("coalesce branch %q is not produced by any fork", branch)
		}
	}
	return nil
}
