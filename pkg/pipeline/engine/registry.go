package engine

import (
	"fmt"

	"github.com/R3E-Network/service_layer/pkg/pipeline/plugin"
)

// Registry binds installed graph node ids to the live plugin instances
// that implement them. The graph knows shape; the registry knows
// behavior. One Registry backs exactly one run.
type Registry struct {
	sources    map[string]plugin.Source
	transforms map[string]plugin.Transform
	batches    map[string]plugin.BatchTransform
	gates      map[string]plugin.Gate
	sinks      map[string]plugin.Sink
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sources:    make(map[string]plugin.Source),
		transforms: make(map[string]plugin.Transform),
		batches:    make(map[string]plugin.BatchTransform),
		gates:      make(map[string]plugin.Gate),
		sinks:      make(map[string]plugin.Sink),
	}
}

// BindSource attaches a Source implementation to a source node id.
func (r *Registry) BindSource(nodeID string, impl plugin.Source) *Registry {
	r.sources[nodeID] = impl
	return r
}

// BindTransform attaches a Transform implementation to a transform node id.
func (r *Registry) BindTransform(nodeID string, impl plugin.Transform) *Registry {
	r.transforms[nodeID] = impl
	return r
}

// BindBatchTransform attaches a BatchTransform implementation to an
// aggregation node id.
func (r *Registry) BindBatchTransform(nodeID string, impl plugin.BatchTransform) *Registry {
	r.batches[nodeID] = impl
	return r
}

// BindGate attaches a Gate implementation to a gate node id.
func (r *Registry) BindGate(nodeID string, impl plugin.Gate) *Registry {
	r.gates[nodeID] = impl
	return r
}

// BindSink attaches a Sink implementation to a sink node id.
func (r *Registry) BindSink(nodeID string, impl plugin.Sink) *Registry {
	r.sinks[nodeID] = impl
	return r
}

func (r *Registry) source(nodeID string) (plugin.Source, error) {
	impl, ok := r.sources[nodeID]
	if !ok {
		return nil, fmt.Errorf("registry: no source bound to node %s", nodeID)
	}
	return impl, nil
}

func (r *Registry) transform(nodeID string) (plugin.Transform, error) {
	impl, ok := r.transforms[nodeID]
	if !ok {
		return nil, fmt.Errorf("registry: no transform bound to node %s", nodeID)
	}
	return impl, nil
}

func (r *Registry) batchTransform(nodeID string) (plugin.BatchTransform, error) {
	impl, ok := r.batches[nodeID]
	if !ok {
		return nil, fmt.Errorf("registry: no batch transform bound to node %s", nodeID)
	}
	return impl, nil
}

func (r *Registry) gate(nodeID string) (plugin.Gate, error) {
	impl, ok := r.gates[nodeID]
	if !ok {
		return nil, fmt.Errorf("registry: no gate bound to node %s", nodeID)
	}
	return impl, nil
}

func (r *Registry) sink(nodeID string) (plugin.Sink, error) {
	impl, ok := r.sinks[nodeID]
	if !ok {
		return nil, fmt.Errorf("registry: no sink bound to node %s", nodeID)
	}
	return impl, nil
}

// sinksInOrder returns every bound sink, for OnStart/OnComplete/Close
// lifecycle calls. Order is not meaningful; callers must not rely on it.
func (r *Registry) sinksInOrder() map[string]plugin.Sink {
	return r.sinks
}
