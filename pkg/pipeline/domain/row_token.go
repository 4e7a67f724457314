package domain

import "time"

// Row is one source row emitted by the source plugin. Immutable once
// created.
type Row struct {
	RowID           string
	RunID           string
	SourceNodeID    string
	RowIndex        int
	SourceDataHash  string
	SourceDataRef   *string // content hash into the payload store; nil if never stored or purged
	CreatedAt       time.Time
}

// Token is one positional occurrence of a row in the DAG.
type Token struct {
	TokenID       string
	RowID         string
	ParentTokenID *string
	BranchName    string
	ForkGroupID   *string
	JoinGroupID   *string
	ExpandGroupID *string
	CreatedAt     time.Time
}

// NodeStateStatus is the lifecycle state of one node-state attempt.
type NodeStateStatus string

const (
	StateRunning   NodeStateStatus = "RUNNING"
	StateCompleted NodeStateStatus = "COMPLETED"
	StateFailed    NodeStateStatus = "FAILED"
	StateSkipped   NodeStateStatus = "SKIPPED"
)

// NodeState is one attempt of one token at one node. Uniqueness key:
// (TokenID, StepIndex, Attempt).
type NodeState struct {
	StateID     string
	TokenID     string
	RunID       string
	NodeID      string
	StepIndex   int
	Attempt     int
	Status      NodeStateStatus
	InputHash   string
	OutputHash  string
	ErrorJSON   []byte
	StartedAt   time.Time
	CompletedAt *time.Time
}

// RoutingEvent records one edge-choice decision by a node.
type RoutingEvent struct {
	EventID       string
	StateID       string
	EdgeID        string
	RoutingGroupID string
	Ordinal       int
	Mode          EdgeMode
	ReasonHash    string
	ReasonRef     *string
	CreatedAt     time.Time
}

// OperationStatus is the lifecycle state of a plugin-level I/O operation.
type OperationStatus string

const (
	OperationPending   OperationStatus = "pending"
	OperationCompleted OperationStatus = "completed"
	OperationFailed    OperationStatus = "failed"
)

// Operation is a granular audit record of plugin-level I/O (source load,
// sink write, aggregation flush).
type Operation struct {
	OperationID   string
	RunID         string
	NodeID        string
	OperationType string
	Status        OperationStatus
	InputDataRef  *string
	OutputDataRef *string
	StartedAt     time.Time
	CompletedAt   *time.Time
	Error         string
}

// Call is an optional side-call record (e.g. HTTP) attached to a node
// state or an operation.
type Call struct {
	CallID      string
	RunID       string
	NodeStateID *string
	OperationID *string
	CallType    string
	RequestHash string
	RequestRef  *string
	ResponseHash string
	ResponseRef  *string
	Status      string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Outcome is the terminal classification of one token at one sink.
type Outcome string

const (
	OutcomeCompleted  Outcome = "COMPLETED"
	OutcomeQuarantined Outcome = "QUARANTINED"
	OutcomeFailed     Outcome = "FAILED"
	OutcomeForked     Outcome = "FORKED"
	OutcomeSkipped    Outcome = "SKIPPED"
)

// TokenOutcome is the terminal classification of one token.
type TokenOutcome struct {
	OutcomeID  string
	RunID      string
	TokenID    string
	Outcome    Outcome
	IsTerminal bool
	SinkName   *string
	ErrorHash  *string
	RecordedAt time.Time
}

// Checkpoint is a periodic snapshot of in-flight aggregation state plus
// the topology/config fingerprints needed to validate a resume.
type Checkpoint struct {
	CheckpointID            string
	RunID                   string
	TokenID                 string
	NodeID                  string
	SequenceNumber          int64
	AggregationStateJSON    []byte
	CreatedAt               time.Time
	UpstreamTopologyHash    string
	DivertExclusiveTopologyHash string
	CheckpointNodeConfigHash string
	FormatVersion           int
}

// TransformError records a plugin error for post-hoc review, independent
// of the node-state/outcome bookkeeping.
type TransformError struct {
	ID          string
	RunID       string
	NodeID      string
	TokenID     string
	StateID     string
	Reason      string
	Retryable   bool
	CreatedAt   time.Time
}
