// Package coalesce implements the coalesce node state machine: branches
// forked earlier in the DAG arrive independently and are held until the
// node's policy is satisfied, then merged into one output row. One
// Executor instance manages one coalesce node across every join key
// (typically the fork_group_id shared by the branches being rejoined)
// active in a run.
package coalesce

import (
	"fmt"
	"sort"
	"time"

	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/graph"
	"github.com/R3E-Network/service_layer/pkg/pipeline/plugin"
)

// Status is the coalesce state machine's status for one join key.
type Status string

const (
	StatusInitial  Status = "INITIAL"
	StatusHolding  Status = "HOLDING"
	StatusEmitted  Status = "EMITTED"
	StatusTimedOut Status = "TIMED_OUT"
)

// Arrival is one branch's contribution to a coalesce.
type Arrival struct {
	BranchName string
	Token      domain.Token
	Row        plugin.PipelineRow
}

// holding tracks in-flight arrivals for one join key.
type holding struct {
	status   Status
	arrived  map[string]Arrival // branch name -> arrival
	order    []string           // arrival order, for "first" and "select"
	deadline time.Time
}

// Executor drives the state machine for one coalesce node.
type Executor struct {
	info    graph.CoalesceInfo
	branches []string // declared branch names, in declaration order
	holdings map[string]*holding
}

// New creates an Executor for the given coalesce node. declaredBranches
// must list every branch name in the same order the node was declared
// with, since "select" and deterministic "first" tie-breaking depend on
// that order.
func New(info graph.CoalesceInfo, declaredBranches []string) *Executor {
	return &Executor{
		info:     info,
		branches: declaredBranches,
		holdings: make(map[string]*holding),
	}
}

// Decision is the result of one Arrive or CheckTimeout call.
type Decision struct {
	Ready    bool
	TimedOut bool
}

// Arrive records one branch's arrival under joinKey and reports whether
// the node's policy is now satisfied.
func (e *Executor) Arrive(joinKey string, arrival Arrival, now time.Time) (Decision, error) {
	h, ok := e.holdings[joinKey]
	if !ok {
		h = &holding{
			status:  StatusHolding,
			arrived: make(map[string]Arrival),
		}
		if e.info.TimeoutSeconds > 0 {
			h.deadline = now.Add(time.Duration(e.info.TimeoutSeconds * float64(time.Second)))
		}
		e.holdings[joinKey] = h
	}
	if h.status != StatusHolding {
		return Decision{}, fmt.Errorf("coalesce %s: join key %s already %s", e.info.Name, joinKey, h.status)
	}
	if _, exists := h.arrived[arrival.BranchName]; exists {
		return Decision{}, fmt.Errorf("coalesce %s: duplicate arrival for branch %q at join key %s", e.info.Name, arrival.BranchName, joinKey)
	}

	h.arrived[arrival.BranchName] = arrival
	h.order = append(h.order, arrival.BranchName)

	return Decision{Ready: e.satisfied(h)}, nil
}

func (e *Executor) satisfied(h *holding) bool {
	switch e.info.Policy.Kind {
	case "first":
		return len(h.arrived) >= 1
	case "quorum":
		return len(h.arrived) >= e.info.Policy.Quorum
	case "best_effort":
		return len(h.arrived) == len(e.branches)
	case "require_all":
		return len(h.arrived) == len(e.branches)
	default:
		return len(h.arrived) == len(e.branches)
	}
}

// CheckTimeout reports whether joinKey's deadline (if any) has passed. A
// best_effort coalesce that times out before every branch arrives still
// emits with whatever arrived; other policies that time out short of
// satisfaction are reported as TimedOut for the caller to route to
// failure handling.
func (e *Executor) CheckTimeout(joinKey string, now time.Time) Decision {
	h, ok := e.holdings[joinKey]
	if !ok || h.status != StatusHolding {
		return Decision{}
	}
	if h.deadline.IsZero() || now.Before(h.deadline) {
		return Decision{}
	}
	if e.info.Policy.Kind == "best_effort" && len(h.arrived) > 0 {
		return Decision{Ready: true}
	}
	return Decision{TimedOut: true}
}

// PendingJoinKeys lists join keys still in HOLDING, for periodic timeout
// scanning.
func (e *Executor) PendingJoinKeys() []string {
	var out []string
	for k, h := range e.holdings {
		if h.status == StatusHolding {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// EmitResult is the merged output of a satisfied or best-effort-flushed
// coalesce.
type EmitResult struct {
	Row             plugin.PipelineRow
	Contributing    []domain.Token
	MissingBranches []string
}

// Emit merges the arrived branches under joinKey per the node's merge
// strategy and marks the join key EMITTED. Calling Emit twice for the
// same join key is a programming error.
func (e *Executor) Emit(joinKey string) (EmitResult, error) {
	h, ok := e.holdings[joinKey]
	if !ok {
		return EmitResult{}, fmt.Errorf("coalesce %s: unknown join key %s", e.info.Name, joinKey)
	}
	if h.status != StatusHolding {
		return EmitResult{}, fmt.Errorf("coalesce %s: join key %s not in HOLDING (status=%s)", e.info.Name, joinKey, h.status)
	}

	result, err := e.merge(h)
	if err != nil {
		return EmitResult{}, err
	}
	h.status = StatusEmitted
	return result, nil
}

// MarkTimedOut transitions joinKey to TIMED_OUT without emitting.
func (e *Executor) MarkTimedOut(joinKey string) {
	if h, ok := e.holdings[joinKey]; ok {
		h.status = StatusTimedOut
	}
}

func (e *Executor) merge(h *holding) (EmitResult, error) {
	var missing []string
	for _, branch := range e.branches {
		if _, ok := h.arrived[branch]; !ok {
			missing = append(missing, branch)
		}
	}

	contributing := make([]domain.Token, 0, len(h.order))
	for _, branch := range h.order {
		contributing = append(contributing, h.arrived[branch].Token)
	}

	switch e.info.Merge {
	case graph.MergeUnion:
		merged := plugin.PipelineRow{Fields: map[string]any{}}
		for _, branch := range h.order {
			for k, v := range h.arrived[branch].Row.Fields {
				merged.Fields[k] = v
			}
		}
		return EmitResult{Row: merged, Contributing: contributing, MissingBranches: missing}, nil

	case graph.MergeNested:
		merged := plugin.PipelineRow{Fields: map[string]any{}}
		for _, branch := range e.branches {
			if a, ok := h.arrived[branch]; ok {
				merged.Fields[branch] = a.Row.Fields
			}
		}
		return EmitResult{Row: merged, Contributing: contributing, MissingBranches: missing}, nil

	case graph.MergeSelect:
		if len(h.order) == 0 {
			return EmitResult{}, fmt.Errorf("coalesce %s: select merge with no arrivals", e.info.Name)
		}
		// Deterministic: the first branch to arrive, in declared-branch
		// priority order among those that actually arrived.
		for _, branch := range e.branches {
			if a, ok := h.arrived[branch]; ok {
				return EmitResult{Row: a.Row.Clone(), Contributing: contributing, MissingBranches: missing}, nil
			}
		}
		return EmitResult{}, fmt.Errorf("coalesce %s: select merge found no declared branch among arrivals", e.info.Name)

	default:
		return EmitResult{}, fmt.Errorf("coalesce %s: unknown merge strategy %q", e.info.Name, e.info.Merge)
	}
}
