package graph

import (
	"fmt"
	"sort"

	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/ids"
)

// FromPluginInstances builds and validates a Graph from the declared
// plugin specs. All validation rules in the component design run before
// the function returns a usable Graph — once built, the graph is
// immutable and the caller never needs to re-validate it.
func FromPluginInstances(input BuildInput) (*Graph, error) {
	b := &builder{
		nodes:            map[string]NodeInfo{},
		outgoing:         map[string]map[string]EdgeInfo{},
		sinkNodes:        map[string]string{},
		sinkByNode:       map[string]string{},
		transformOnError: map[string]string{},
		coalesces:        map[string]CoalesceInfo{},
		branchToCoalesce: map[string]string{},
		routeResolution:  map[[2]string]RouteDestination{},
		forkDeclarations: map[string][]string{},
		producerOf:       map[string]string{}, // connection name -> node id producing it
		consumedBy:       map[string][]string{},
	}

	if err := b.addSource(input.Source); err != nil {
		return nil, err
	}
	for _, sinkName := range sortedSinkNames(input.Sinks) {
		if err := b.addSink(sinkName, input.Sinks[sinkName]); err != nil {
			return nil, err
		}
	}
	for i, t := range input.Transforms {
		if err := b.addTransform(i, t); err != nil {
			return nil, err
		}
	}
	for i, a := range input.Aggregations {
		if err := b.addAggregation(i, a); err != nil {
			return nil, err
		}
	}
	for i, g := range input.Gates {
		if err := b.addGate(i, g); err != nil {
			return nil, err
		}
	}
	for i, c := range input.Coalesces {
		if err := b.addCoalesce(i, c); err != nil {
			return nil, err
		}
	}

	if err := b.wireConnections(); err != nil {
		return nil, err
	}

	g := &Graph{
		nodes:              b.nodes,
		edges:              b.edges,
		outgoing:           b.outgoing,
		sourceNode:         b.sourceNode,
		sinkNodes:          b.sinkNodes,
		sinkByNode:         b.sinkByNode,
		transformOnError:   b.transformOnError,
		coalesces:          b.coalesces,
		branchToCoalesce:   b.branchToCoalesce,
		routeResolution:    b.routeResolution,
		forkDeclarations:   b.forkDeclarations,
		branchProducerNode: b.branchProducerNode,
		order:              b.order,
	}

	if err := validate(g, b); err != nil {
		return nil, err
	}

	g.stepIndex = buildStepMap(g, b)

	return g, nil
}

type builder struct {
	nodes            map[string]NodeInfo
	edges            []EdgeInfo
	outgoing         map[string]map[string]EdgeInfo
	order            []string

	sourceNode       string
	sinkNodes        map[string]string
	sinkByNode       map[string]string
	transformOnError map[string]string
	coalesces        map[string]CoalesceInfo
	branchToCoalesce map[string]string
	routeResolution  map[[2]string]RouteDestination
	forkDeclarations map[string][]string

	// producerOf maps a connection name (as declared by on_success) to the
	// node id that declared it, for wiring consumers by name equality.
	producerOf map[string]string
	// consumedBy maps a connection name to the node ids (and the edge
	// label each wants) that declared it via `input`.
	consumedBy map[string][]string

	// branchProducerNode maps coalesce node id -> branch name -> the node
	// id that produces that branch, resolved once every producer is known.
	branchProducerNode map[string]map[string]string

	pendingGateRoutes []pendingGateRoute

	position int
}

func (b *builder) nextPosition() int {
	p := b.position
	b.position++
	return p
}

func (b *builder) register(info NodeInfo) {
	b.nodes[info.NodeID] = info
	b.order = append(b.order, info.NodeID)
}

func (b *builder) addEdge(from, to, label string, mode domain.EdgeMode) error {
	if b.outgoing[from] == nil {
		b.outgoing[from] = map[string]EdgeInfo{}
	}
	if _, exists := b.outgoing[from][label]; exists {
		return validationError("duplicate outgoing edge (%s, %s)", from, label)
	}
	e := EdgeInfo{EdgeID: string(ids.NewEdgeID()), From: from, To: to, Label: label, Mode: mode}
	b.outgoing[from][label] = e
	b.edges = append(b.edges, e)
	return nil
}

func (b *builder) addSource(spec SourceSpec) error {
	nodeID, err := deterministicNodeID(spec.Plugin.Name, spec.Plugin.Version, spec.Plugin.Config, b.nextPosition())
	if err != nil {
		return err
	}
	contract := domain.Observed()
	if spec.HasContract {
		contract = spec.Contract
	}
	b.register(NodeInfo{
		NodeID:        nodeID,
		PluginName:    spec.Plugin.Name,
		PluginVersion: spec.Plugin.Version,
		Type:          domain.NodeSource,
		Determinism:   domain.IORead,
		config:        spec.Plugin.Config,
		OutputSchema:  contract,
	})
	b.sourceNode = nodeID
	b.producerOf[spec.OnSuccess] = nodeID
	return nil
}

func (b *builder) addSink(name string, spec SinkSpec) error {
	nodeID, err := deterministicNodeID(spec.Plugin.Name, spec.Plugin.Version, spec.Plugin.Config, b.nextPosition())
	if err != nil {
		return err
	}
	b.register(NodeInfo{
		NodeID:        nodeID,
		PluginName:    spec.Plugin.Name,
		PluginVersion: spec.Plugin.Version,
		Type:          domain.NodeSink,
		Determinism:   domain.IOWrite,
		config:        spec.Plugin.Config,
		InputSchema:   domain.Observed(),
	})
	b.sinkNodes[name] = nodeID
	b.sinkByNode[nodeID] = name
	b.consumedBy[spec.Input] = append(b.consumedBy[spec.Input], nodeID)
	return nil
}

func (b *builder) addTransform(i int, spec TransformSpec) error {
	nodeID, err := deterministicNodeID(spec.Plugin.Name, spec.Plugin.Version, spec.Plugin.Config, b.nextPosition())
	if err != nil {
		return err
	}
	determinism := spec.Determinism
	if determinism == "" {
		determinism = domain.Deterministic
	}
	b.register(NodeInfo{
		NodeID:        nodeID,
		PluginName:    spec.Plugin.Name,
		PluginVersion: spec.Plugin.Version,
		Type:          domain.NodeTransform,
		Determinism:   determinism,
		config:        spec.Plugin.Config,
		InputSchema:   spec.InputSchema,
		OutputSchema:  spec.OutputSchema,
	})
	b.consumedBy[spec.Input] = append(b.consumedBy[spec.Input], nodeID)
	b.producerOf[spec.OnSuccess] = nodeID

	if spec.OnError == "" || spec.OnError == "discard" {
		b.transformOnError[nodeID] = "discard"
		return nil
	}
	sinkNodeID, ok := b.sinkNodes[spec.OnError]
	if !ok {
		return validationError("transform %s on_error targets unknown sink %q", nodeID, spec.OnError)
	}
	label := fmt.Sprintf("__error_%s__", ids.HashBytes([]byte(nodeID+spec.OnError)))[:24]
	if err := b.addEdge(nodeID, sinkNodeID, label, domain.EdgeDivert); err != nil {
		return err
	}
	b.transformOnError[nodeID] = spec.OnError
	return nil
}

func (b *builder) addAggregation(i int, spec AggregationSpec) error {
	nodeID, err := deterministicNodeID(spec.Plugin.Name, spec.Plugin.Version, spec.Plugin.Config, b.nextPosition())
	if err != nil {
		return err
	}
	b.register(NodeInfo{
		NodeID:        nodeID,
		PluginName:    spec.Plugin.Name,
		PluginVersion: spec.Plugin.Version,
		Type:          domain.NodeAggregation,
		Determinism:   domain.Deterministic,
		config:        spec.Plugin.Config,
		InputSchema:   spec.InputSchema,
		OutputSchema:  spec.OutputSchema,
	})
	b.consumedBy[spec.Input] = append(b.consumedBy[spec.Input], nodeID)
	b.producerOf[spec.OnSuccess] = nodeID
	return nil
}

func (b *builder) addGate(i int, spec GateSpec) error {
	nodeID, err := deterministicNodeID(spec.Plugin.Name, spec.Plugin.Version, spec.Plugin.Config, b.nextPosition())
	if err != nil {
		return err
	}
	b.register(NodeInfo{
		NodeID:        nodeID,
		PluginName:    spec.Plugin.Name,
		PluginVersion: spec.Plugin.Version,
		Type:          domain.NodeGate,
		Determinism:   domain.Deterministic,
		config:        spec.Plugin.Config,
		InputSchema:   domain.Observed(),
		OutputSchema:  domain.Observed(),
	})
	b.consumedBy[spec.Input] = append(b.consumedBy[spec.Input], nodeID)

	if len(spec.ForkTo) > 0 {
		b.forkDeclarations[nodeID] = append([]string(nil), spec.ForkTo...)
	}

	for label, target := range spec.Routes {
		if sinkNodeID, ok := b.sinkNodes[target]; ok {
			if err := b.addEdge(nodeID, sinkNodeID, label, domain.EdgeMove); err != nil {
				return err
			}
			b.routeResolution[[2]string{nodeID, label}] = RouteDestination{Kind: RouteToSink, Sink: target}
			continue
		}
		// Processing-node connection: resolved once all connections are
		// wired (wireConnections), since the target node may not exist
		// yet at this point in the build order.
		b.routeResolution[[2]string{nodeID, label}] = RouteDestination{Kind: RouteToProcessingNode, NodeID: ""}
		b.pendingGateRoutes = append(b.pendingGateRoutes, pendingGateRoute{gateNode: nodeID, label: label, connection: target})
	}
	for _, branch := range spec.ForkTo {
		b.routeResolution[[2]string{nodeID, branch}] = RouteDestination{Kind: RouteToFork}
	}
	return nil
}

type pendingGateRoute struct {
	gateNode   string
	label      string
	connection string
}

func (b *builder) addCoalesce(i int, spec CoalesceSpec) error {
	nodeID, err := deterministicNodeID(spec.Plugin.Name, spec.Plugin.Version, spec.Plugin.Config, b.nextPosition())
	if err != nil {
		return err
	}
	b.register(NodeInfo{
		NodeID:        nodeID,
		PluginName:    spec.Plugin.Name,
		PluginVersion: spec.Plugin.Version,
		Type:          domain.NodeCoalesce,
		Determinism:   domain.Deterministic,
		config:        spec.Plugin.Config,
		InputSchema:   domain.Observed(),
		OutputSchema:  domain.Observed(),
	})
	b.coalesces[nodeID] = CoalesceInfo{
		NodeID:         nodeID,
		Name:           spec.Name,
		Branches:       spec.Branches,
		Policy:         spec.Policy,
		Merge:          spec.Merge,
		TimeoutSeconds: spec.TimeoutSeconds,
		OnSuccess:      spec.OnSuccess,
	}
	for branchName, connection := range spec.Branches {
		if existing, ok := b.branchToCoalesce[branchName]; ok {
			return validationError("branch %q claimed by both coalesce %q and %q", branchName, existing, spec.Name)
		}
		b.branchToCoalesce[branchName] = spec.Name
		b.consumedBy[connection] = append(b.consumedBy[connection], nodeID)
	}
	b.producerOf[spec.OnSuccess] = nodeID
	return nil
}

// wireConnections matches producer on_success names to consumer input
// names, emitting MOVE edges, and resolves pending gate→processing-node
// routes now that every node has been registered.
func (b *builder) wireConnections() error {
	for connection, consumerNodes := range b.consumedBy {
		producerNodeID, ok := b.producerOf[connection]
		if !ok {
			continue // resolved separately for sinks wired directly by gates
		}
		if len(consumerNodes) > 1 {
			return validationError("connection %q consumed by more than one node", connection)
		}
		for _, consumerNodeID := range consumerNodes {
			if err := b.addEdge(producerNodeID, consumerNodeID, domain.ContinueLabel, domain.EdgeMove); err != nil {
				return err
			}
		}
	}

	for _, pending := range b.pendingGateRoutes {
		consumerNodes, ok := b.consumedBy[pending.connection]
		if !ok || len(consumerNodes) != 1 {
			return validationError("gate route %q on %s must target exactly one consumer, found %d", pending.label, pending.gateNode, len(consumerNodes))
		}
		target := consumerNodes[0]
		if err := b.addEdge(pending.gateNode, target, pending.label, domain.EdgeMove); err != nil {
			return err
		}
		b.routeResolution[[2]string{pending.gateNode, pending.label}] = RouteDestination{Kind: RouteToProcessingNode, NodeID: target}
	}

	// Wire each gate's declared fork branches to their single downstream
	// consumer, using the branch name itself as the edge label — a fork
	// gate emits one token per branch in the same step, so the generic
	// connection loop above (which always labels an edge "continue")
	// cannot be reused here without colliding across branches.
	for gateNode, branches := range b.forkDeclarations {
		for _, branch := range branches {
			consumerNodes, ok := b.consumedBy[branch]
			if !ok || len(consumerNodes) != 1 {
				return validationError("fork branch %q on %s must target exactly one consumer, found %d", branch, gateNode, len(consumerNodes))
			}
			if err := b.addEdge(gateNode, consumerNodes[0], branch, domain.EdgeCopy); err != nil {
				return err
			}
		}
	}

	// Resolve, for every coalesce node, which upstream node produces each
	// declared branch — needed at run time to identify which branch an
	// arriving token represents, since the wiring edge's own label is not
	// always the branch name (a coalesce fed directly by a transform's
	// on_success, rather than by a gate's fork route, carries the
	// default "continue" label like any other edge).
	b.branchProducerNode = map[string]map[string]string{}
	for nodeID, info := range b.coalesces {
		producers := map[string]string{}
		for branch, connection := range info.Branches {
			if producerNodeID, ok := b.producerOf[connection]; ok {
				producers[branch] = producerNodeID
			}
		}
		b.branchProducerNode[nodeID] = producers
	}
	return nil
}

func sortedSinkNames(sinks map[string]SinkSpec) []string {
	names := make([]string, 0, len(sinks))
	for name := range sinks {
		names = append(names, name)
	}
	// Deterministic iteration order so node-id position hashing is stable
	// across builds of the same config.
	sort.Strings(names)
	return names
}
