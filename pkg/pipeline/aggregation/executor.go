package aggregation

import (
	"fmt"

	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/plugin"
)

// FlushResult is the outcome of handing a buffer's items to the node's
// BatchTransform and applying its declared output mode.
type FlushResult struct {
	Outcome plugin.TransformOutcome
	Reason  string
	// Rows holds the output rows: exactly one for output_mode
	// "transform", one per BatchTransform output row for "expand".
	Rows []plugin.PipelineRow
	// ContributingTokens lists every input token folded into this flush,
	// in buffer order — used to record FORKED/COMPLETED bookkeeping on
	// the inputs regardless of output mode.
	ContributingTokens []domain.Token
}

// Apply runs transform over the flushed items per outputMode.
// output_mode "transform" requires the BatchTransform to return exactly
// one row, which becomes the sole aggregated output; "expand" accepts
// any number of output rows, each becoming an independent token
// downstream.
func Apply(ctx plugin.Context, transform plugin.BatchTransform, items []Item, outputMode string) (FlushResult, error) {
	rows := make([]plugin.PipelineRow, 0, len(items))
	tokens := make([]domain.Token, 0, len(items))
	for _, item := range items {
		rows = append(rows, item.Row)
		tokens = append(tokens, item.Token)
	}

	result, err := transform.Process(ctx, rows)
	if err != nil {
		return FlushResult{}, fmt.Errorf("aggregation batch transform: %w", err)
	}
	if result.Outcome == plugin.TransformError {
		return FlushResult{Outcome: plugin.TransformError, Reason: result.Reason, ContributingTokens: tokens}, nil
	}

	switch outputMode {
	case OutputTransform:
		if len(result.Rows) != 1 {
			return FlushResult{}, fmt.Errorf("aggregation output_mode=transform requires exactly one output row, got %d", len(result.Rows))
		}
	case OutputExpand:
		// any count, including zero, is valid
	default:
		return FlushResult{}, fmt.Errorf("aggregation: unknown output_mode %q", outputMode)
	}

	return FlushResult{
		Outcome:            plugin.TransformSuccess,
		Rows:               result.Rows,
		ContributingTokens: tokens,
	}, nil
}
