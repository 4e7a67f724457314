// Package checkpoint owns periodic run snapshots and the preconditions
// that decide whether a prior run may be resumed. A checkpoint captures
// in-flight aggregation buffer state plus the topology and node-config
// fingerprints needed to detect drift between the run that wrote it and
// the run attempting to resume from it.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/R3E-Network/service_layer/pkg/pipeline/audit"
	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/graph"
	"github.com/R3E-Network/service_layer/pkg/pipeline/ids"
	"github.com/R3E-Network/service_layer/pkg/pipeline/perrors"
)

// FormatVersion is the current checkpoint payload format. A checkpoint
// written by a different format version is never resumable.
const FormatVersion = 1

// Manager periodically snapshots aggregation state for one run.
type Manager struct {
	recorder audit.Recorder
	runID    string
	upstreamHash string
	divertHash   string
	seq      int64
}

// New creates a Manager bound to one run's graph.
func New(recorder audit.Recorder, runID string, g *graph.Graph) *Manager {
	upstream, divert := g.TopologyHash()
	return &Manager{recorder: recorder, runID: runID, upstreamHash: upstream, divertHash: divert}
}

// AggregationState is the serializable snapshot of every aggregation
// node's buffered-but-unflushed items, keyed by node id.
type AggregationState struct {
	Buffers map[string]json.RawMessage `json:"buffers"`
}

// Snapshot persists a new checkpoint carrying state. nodeConfigHash
// identifies the specific node (usually the furthest-progressed
// aggregation or coalesce node) whose config must also match on resume;
// pass the run's overall config hash when no single node applies.
func (m *Manager) Snapshot(ctx context.Context, tokenID, nodeID string, state AggregationState, nodeConfigHash string) (domain.Checkpoint, error) {
	body, err := json.Marshal(state)
	if err != nil {
		return domain.Checkpoint{}, fmt.Errorf("marshal checkpoint state: %w", err)
	}
	m.seq++

	cp := domain.Checkpoint{
		RunID:                       m.runID,
		TokenID:                     tokenID,
		NodeID:                      nodeID,
		SequenceNumber:              m.seq,
		AggregationStateJSON:        body,
		UpstreamTopologyHash:        m.upstreamHash,
		DivertExclusiveTopologyHash: m.divertHash,
		CheckpointNodeConfigHash:    nodeConfigHash,
		FormatVersion:               FormatVersion,
	}
	created, err := m.recorder.CreateCheckpoint(ctx, cp)
	if err != nil {
		return domain.Checkpoint{}, fmt.Errorf("create checkpoint: %w", err)
	}
	m.seq = created.SequenceNumber
	return created, nil
}

// AllowDivertOnlyTopologyDrift, when true, permits a resume whose
// upstream topology hash matches the checkpoint but whose
// divert-inclusive hash does not — i.e. only quarantine/error-sink
// wiring changed since the checkpoint was written. This is an explicit
// opt-in: the default is strict, byte-for-byte topology equality,
// because a changed DIVERT edge can still change which sink receives a
// row that was in flight at checkpoint time.
type ResumePolicy struct {
	AllowDivertOnlyTopologyDrift bool
}

// CheckResumable validates cp against the resuming run's graph and
// config hash, returning a typed perrors.Error on any mismatch.
func CheckResumable(cp domain.Checkpoint, g *graph.Graph, currentConfigHash string, policy ResumePolicy) error {
	if cp.FormatVersion != FormatVersion {
		return perrors.New(perrors.CodeIncompatibleCheckpoint,
			fmt.Sprintf("checkpoint format_version %d does not match current %d", cp.FormatVersion, FormatVersion))
	}

	upstream, divert := g.TopologyHash()
	if cp.UpstreamTopologyHash != upstream {
		return perrors.New(perrors.CodeIncompatibleCheckpoint, "checkpoint upstream topology hash does not match current graph")
	}
	if cp.DivertExclusiveTopologyHash != divert {
		if !policy.AllowDivertOnlyTopologyDrift {
			return perrors.New(perrors.CodeIncompatibleCheckpoint,
				"checkpoint divert-inclusive topology hash does not match current graph, and divert-only drift is not permitted by policy")
		}
	}
	if cp.CheckpointNodeConfigHash != "" && cp.CheckpointNodeConfigHash != currentConfigHash {
		return perrors.New(perrors.CodeIncompatibleCheckpoint, "checkpoint node config hash does not match current config")
	}
	return nil
}

// VerifyIntegrity re-parses the checkpoint's stored aggregation state and
// reports a CodeCheckpointCorruption error if it fails to deserialize.
func VerifyIntegrity(cp domain.Checkpoint) (AggregationState, error) {
	var state AggregationState
	if len(cp.AggregationStateJSON) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(cp.AggregationStateJSON, &state); err != nil {
		return AggregationState{}, perrors.Wrap(perrors.CodeCheckpointCorruption, "checkpoint aggregation state failed to deserialize", err)
	}
	return state, nil
}

// NodeConfigHash hashes a node's canonicalized config, used to populate
// CheckpointNodeConfigHash at snapshot time.
func NodeConfigHash(config map[string]any) (string, error) {
	canonical, err := ids.Canonicalize(config)
	if err != nil {
		return "", fmt.Errorf("hash node config: %w", err)
	}
	return ids.HashBytes(canonical), nil
}
