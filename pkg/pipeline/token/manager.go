// Package token owns token lifecycle: the original token created for a
// source row, fork siblings sharing a fork_group_id, coalesced children
// joining a join_group_id, and expand siblings sharing an
// expand_group_id. It is the only package allowed to call
// audit.Recorder.CreateToken — every other package goes through here so
// lineage bookkeeping stays in one place.
package token

import (
	"context"
	"fmt"

	"github.com/R3E-Network/service_layer/pkg/pipeline/audit"
	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/ids"
)

// Manager creates and tracks tokens for one run.
type Manager struct {
	recorder audit.Recorder
}

// New creates a token Manager backed by recorder.
func New(recorder audit.Recorder) *Manager {
	return &Manager{recorder: recorder}
}

// CreateOriginal creates the first token for a freshly ingested row —
// no parent, no group memberships.
func (m *Manager) CreateOriginal(ctx context.Context, row domain.Row) (domain.Token, error) {
	tok, err := m.recorder.CreateToken(ctx, row, "", "", "", "", "")
	if err != nil {
		return domain.Token{}, fmt.Errorf("create original token: %w", err)
	}
	return tok, nil
}

// Fork creates one sibling token per branch name, all sharing a freshly
// allocated fork_group_id and descending from parent. The returned slice
// preserves the order of branchNames.
func (m *Manager) Fork(ctx context.Context, row domain.Row, parent domain.Token, branchNames []string) ([]domain.Token, error) {
	if len(branchNames) == 0 {
		return nil, fmt.Errorf("fork: at least one branch is required")
	}
	groupID := string(ids.NewGroupID())

	out := make([]domain.Token, 0, len(branchNames))
	for _, branch := range branchNames {
		child, err := m.recorder.CreateToken(ctx, row, parent.TokenID, branch, groupID, "", "")
		if err != nil {
			return nil, fmt.Errorf("fork branch %q: %w", branch, err)
		}
		out = append(out, child)
	}
	return out, nil
}

// Coalesce creates one child token joining the given parent tokens under
// a freshly allocated join_group_id. The child is parented on the first
// arriving token by convention; every parent's lineage remains reachable
// through the shared join_group_id recorded on the coalesce node's
// routing events, not through multiple-parent edges (tokens have exactly
// one parent).
func (m *Manager) Coalesce(ctx context.Context, row domain.Row, parents []domain.Token, branchName string) (domain.Token, error) {
	if len(parents) == 0 {
		return domain.Token{}, fmt.Errorf("coalesce: at least one parent token is required")
	}
	groupID := string(ids.NewGroupID())

	child, err := m.recorder.CreateToken(ctx, row, parents[0].TokenID, branchName, "", groupID, "")
	if err != nil {
		return domain.Token{}, fmt.Errorf("coalesce: %w", err)
	}
	return child, nil
}

// Expand creates one child token per produced item, all sharing a freshly
// allocated expand_group_id and descending from parent.
func (m *Manager) Expand(ctx context.Context, row domain.Row, parent domain.Token, count int) ([]domain.Token, error) {
	if count <= 0 {
		return nil, fmt.Errorf("expand: count must be positive, got %d", count)
	}
	groupID := string(ids.NewGroupID())

	out := make([]domain.Token, 0, count)
	for i := 0; i < count; i++ {
		child, err := m.recorder.CreateToken(ctx, row, parent.TokenID, "", "", "", groupID)
		if err != nil {
			return nil, fmt.Errorf("expand item %d: %w", i, err)
		}
		out = append(out, child)
	}
	return out, nil
}
