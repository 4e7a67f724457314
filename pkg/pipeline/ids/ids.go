// Package ids defines the opaque identifier types shared across the
// pipeline runtime. Each identifier is a distinct string-based type so the
// compiler rejects accidental cross-assignment (a RowID passed where a
// TokenID is expected, for example).
package ids

import "github.com/google/uuid"

// RunID identifies one pipeline invocation.
type RunID string

// NodeID identifies one node in a run's installed graph.
type NodeID string

// RowID identifies one source row emitted by the source plugin.
type RowID string

// TokenID identifies one position of a row in the DAG.
type TokenID string

// StateID identifies one attempt of one token at one node.
type StateID string

// EdgeID identifies one labeled edge between two nodes.
type EdgeID string

// OperationID identifies one plugin-level I/O operation.
type OperationID string

// CallID identifies one side-call record (e.g. an HTTP request).
type CallID string

// CheckpointID identifies one checkpoint snapshot.
type CheckpointID string

// OutcomeID identifies one terminal token outcome record.
type OutcomeID string

// EventID identifies one routing event.
type EventID string

// GroupID is an opaque 128-bit lineage group identifier shared by the
// children of a fork, the parents of a coalesce, or the outputs of an
// expand. It exists solely to let explain queries reconstruct lineage.
type GroupID string

// NewGroupID allocates a fresh lineage group identifier.
func NewGroupID() GroupID {
	return GroupID(uuid.NewString())
}

// NewRunID allocates a fresh run identifier.
func NewRunID() RunID {
	return RunID(uuid.NewString())
}

// NewRowID allocates a fresh row identifier.
func NewRowID() RowID {
	return RowID(uuid.NewString())
}

// NewTokenID allocates a fresh token identifier.
func NewTokenID() TokenID {
	return TokenID(uuid.NewString())
}

// NewStateID allocates a fresh node-state identifier.
func NewStateID() StateID {
	return StateID(uuid.NewString())
}

// NewEdgeID allocates a fresh edge identifier.
func NewEdgeID() EdgeID {
	return EdgeID(uuid.NewString())
}

// NewOperationID allocates a fresh operation identifier.
func NewOperationID() OperationID {
	return OperationID(uuid.NewString())
}

// NewCallID allocates a fresh call identifier.
func NewCallID() CallID {
	return CallID(uuid.NewString())
}

// NewCheckpointID allocates a fresh checkpoint identifier.
func NewCheckpointID() CheckpointID {
	return CheckpointID(uuid.NewString())
}

// NewOutcomeID allocates a fresh outcome identifier.
func NewOutcomeID() OutcomeID {
	return OutcomeID(uuid.NewString())
}

// NewEventID allocates a fresh routing-event identifier.
func NewEventID() EventID {
	return EventID(uuid.NewString())
}
