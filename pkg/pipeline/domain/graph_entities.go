package domain

// NodeType classifies what role a node plays in the DAG.
type NodeType string

const (
	NodeSource      NodeType = "SOURCE"
	NodeTransform   NodeType = "TRANSFORM"
	NodeAggregation NodeType = "AGGREGATION"
	NodeGate        NodeType = "GATE"
	NodeCoalesce    NodeType = "COALESCE"
	NodeSink        NodeType = "SINK"
)

// Determinism classifies whether a node's output is reproducible given the
// same input, for reproducibility-grade bookkeeping.
type Determinism string

const (
	Deterministic    Determinism = "DETERMINISTIC"
	NonDeterministic Determinism = "NON_DETERMINISTIC"
	IORead           Determinism = "IO_READ"
	IOWrite          Determinism = "IO_WRITE"
)

// Node is one node in a run's installed graph. Registered once at run
// start and never mutated thereafter.
type Node struct {
	NodeID               string
	RunID                string
	PluginName           string
	PluginVersion        string
	NodeType             NodeType
	Determinism          Determinism
	ConfigHash           string
	ConfigJSON           []byte
	InputSchemaContract  []byte
	OutputSchemaContract []byte
}

// EdgeMode classifies how a token is propagated along an edge.
type EdgeMode string

const (
	EdgeMove    EdgeMode = "MOVE"
	EdgeCopy    EdgeMode = "COPY"
	EdgeDivert  EdgeMode = "DIVERT"
)

// QuarantineLabel is the synthetic edge label for a source's
// validation-failure DIVERT edge.
const QuarantineLabel = "__quarantine__"

// ContinueLabel is the default MOVE edge label along a success path.
const ContinueLabel = "continue"

// Edge connects two nodes. At most one edge may exist for a given
// (FromNode, Label) pair.
type Edge struct {
	EdgeID      string
	RunID       string
	FromNode    string
	ToNode      string
	Label       string
	DefaultMode EdgeMode
}
