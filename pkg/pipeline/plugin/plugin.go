// Package plugin defines the typed capability contracts the runtime
// consumes from external collaborators: sources, transforms, gates, and
// sinks. No dynamic dispatch on plugin class names — every plugin
// implements one of these interfaces, and the row processor rejects
// anything else with a typed error.
package plugin

import (
	"context"

	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
)

// PipelineRow is the row data flowing between nodes: an immutable view
// over a plain field map. Transforms must treat Fields as read-only and
// return a new PipelineRow rather than mutating one in place.
type PipelineRow struct {
	Fields map[string]any
}

// Clone returns a shallow copy of the row suitable for producing a new,
// independently-mutable PipelineRow.
func (r PipelineRow) Clone() PipelineRow {
	out := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		out[k] = v
	}
	return PipelineRow{Fields: out}
}

// Context carries per-call request-scoped state: the run id, the node id,
// and a cancellation signal.
type Context struct {
	context.Context
	RunID  string
	NodeID string
}

// SourceRow is one element yielded by a Source's Load iterator: either a
// valid row ready to enter the DAG or a quarantined row destined for a
// named sink without ever being routed by the graph.
type SourceRow struct {
	Valid       bool
	Row         PipelineRow
	Contract    domain.SchemaContract
	Quarantine  bool
	QuarantineErr string
	Destination string // sink name, set when Quarantine is true
}

// Source reads rows from an external origin.
type Source interface {
	OnStart(ctx context.Context) error
	// Load returns a finite lazy sequence of rows. The returned function
	// is called repeatedly; it returns ok=false once exhausted.
	Load(ctx context.Context) (next func() (SourceRow, bool, error), err error)
	OnComplete(ctx context.Context) error
	Close() error
	SchemaContract() (domain.SchemaContract, bool)
}

// TransformOutcome distinguishes a successful transform application from
// an error.
type TransformOutcome string

const (
	TransformSuccess TransformOutcome = "success"
	TransformError   TransformOutcome = "error"
)

// TransformResult is the outcome of one Transform.Process call.
type TransformResult struct {
	Outcome   TransformOutcome
	Row       PipelineRow
	Reason    string
	Retryable bool
}

// Transform applies a pure, per-row function. Transforms must not mutate
// the input row.
type Transform interface {
	Process(ctx Context, row PipelineRow) (TransformResult, error)
}

// BatchTransformResult is the outcome of one aggregation batch.
type BatchTransformResult struct {
	Outcome TransformOutcome
	Rows    []PipelineRow
	Reason  string
}

// BatchTransform applies a pure function over a batch of rows, used by
// aggregation nodes.
type BatchTransform interface {
	Process(ctx Context, rows []PipelineRow) (BatchTransformResult, error)
}

// GateAction is the routing decision produced by a Gate.
type GateAction struct {
	Continue      bool
	RouteToSink   string
	RouteTo       string // connection name
	ForkBranches  []string
}

// GateResult is the outcome of one Gate.Evaluate call.
type GateResult struct {
	Row    PipelineRow
	Action GateAction
}

// Gate evaluates a pure condition over a row's fields and decides where
// the token goes next.
type Gate interface {
	Evaluate(ctx Context, row PipelineRow) (GateResult, error)
}

// ArtifactDescriptor describes one committed sink write.
type ArtifactDescriptor struct {
	Path        string
	Size        int64
	ContentHash string
}

// Sink writes rows to an external destination. Write is at-least-once;
// non-idempotent sinks must tolerate duplicate batches on resume.
type Sink interface {
	OnStart(ctx context.Context) error
	Write(ctx Context, rows []PipelineRow) (ArtifactDescriptor, error)
	OnComplete(ctx context.Context) error
	Close() error
	Idempotent() bool
}
