// Package transforms collects minimal reference plugin.Transform
// implementations: identity passthrough, a numeric doubler (exercising
// the pure per-row contract with the simplest possible body), and a
// JSON-field extractor grounded on the teacher's use of
// github.com/tidwall/gjson for flat value extraction out of raw JSON
// payloads (services/datafeeds/datafeeds.go).
package transforms

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/R3E-Network/service_layer/pkg/pipeline/plugin"
)

// Passthrough returns its input row unchanged. Useful as a graph
// placeholder and in tests that only exercise routing.
type Passthrough struct{}

func (Passthrough) Process(ctx plugin.Context, row plugin.PipelineRow) (plugin.TransformResult, error) {
	return plugin.TransformResult{Outcome: plugin.TransformSuccess, Row: row}, nil
}

// Doubler multiplies a configured numeric field by two, routing any row
// missing that field or holding a non-numeric value to on_error.
type Doubler struct {
	Field string
}

func NewDoubler(field string) *Doubler {
	return &Doubler{Field: field}
}

func (d *Doubler) Process(ctx plugin.Context, row plugin.PipelineRow) (plugin.TransformResult, error) {
	raw, ok := row.Fields[d.Field]
	if !ok {
		return plugin.TransformResult{Outcome: plugin.TransformError, Reason: fmt.Sprintf("field %q missing", d.Field)}, nil
	}
	num, ok := toFloat(raw)
	if !ok {
		return plugin.TransformResult{Outcome: plugin.TransformError, Reason: fmt.Sprintf("field %q is not numeric", d.Field)}, nil
	}
	out := row.Clone()
	out.Fields[d.Field] = num * 2
	return plugin.TransformResult{Outcome: plugin.TransformSuccess, Row: out}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// JSONPathExtract reads a raw JSON string out of SourceField, evaluates
// Path against it with gjson, and writes the match into DestField. A
// missing source field or a path that matches nothing routes to
// on_error rather than silently writing a zero value.
type JSONPathExtract struct {
	SourceField string
	DestField   string
	Path        string
}

func NewJSONPathExtract(sourceField, destField, path string) *JSONPathExtract {
	return &JSONPathExtract{SourceField: sourceField, DestField: destField, Path: path}
}

func (j *JSONPathExtract) Process(ctx plugin.Context, row plugin.PipelineRow) (plugin.TransformResult, error) {
	raw, ok := row.Fields[j.SourceField]
	if !ok {
		return plugin.TransformResult{Outcome: plugin.TransformError, Reason: fmt.Sprintf("field %q missing", j.SourceField)}, nil
	}
	s, ok := raw.(string)
	if !ok {
		return plugin.TransformResult{Outcome: plugin.TransformError, Reason: fmt.Sprintf("field %q is not a JSON string", j.SourceField)}, nil
	}
	result := gjson.Get(s, j.Path)
	if !result.Exists() {
		return plugin.TransformResult{Outcome: plugin.TransformError, Reason: fmt.Sprintf("path %q did not match", j.Path)}, nil
	}
	out := row.Clone()
	out.Fields[j.DestField] = result.Value()
	return plugin.TransformResult{Outcome: plugin.TransformSuccess, Row: out}, nil
}
