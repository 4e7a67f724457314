// Package csvsource is a reference plugin.Source reading rows from a
// local CSV file. It exists to exercise the source contract end to end;
// production deployments are expected to supply their own sources.
package csvsource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/R3E-Network/service_layer/pkg/pipeline/domain"
	"github.com/R3E-Network/service_layer/pkg/pipeline/plugin"
)

// Config configures one csvsource instance.
type Config struct {
	Path      string
	Delimiter rune // defaults to ','
}

// Source reads CSV rows, using the header row as field names. Every
// value is surfaced as a string; numeric/bool coercion is left to
// downstream transforms.
type Source struct {
	cfg  Config
	file *os.File
}

// New constructs a Source from cfg. The file is opened lazily in OnStart.
func New(cfg Config) *Source {
	return &Source{cfg: cfg}
}

func (s *Source) OnStart(ctx context.Context) error {
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return fmt.Errorf("csvsource: open %s: %w", s.cfg.Path, err)
	}
	s.file = f
	return nil
}

// Load returns an iterator over the file's data rows. Malformed rows
// (field count mismatch) are yielded as quarantined rows rather than
// aborting the whole source.
func (s *Source) Load(ctx context.Context) (func() (plugin.SourceRow, bool, error), error) {
	r := csv.NewReader(s.file)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return func() (plugin.SourceRow, bool, error) { return plugin.SourceRow{}, false, nil }, nil
		}
		return nil, fmt.Errorf("csvsource: read header: %w", err)
	}

	return func() (plugin.SourceRow, bool, error) {
		record, err := r.Read()
		if err == io.EOF {
			return plugin.SourceRow{}, false, nil
		}
		if err != nil {
			return plugin.SourceRow{}, false, fmt.Errorf("csvsource: read record: %w", err)
		}
		if len(record) != len(header) {
			return plugin.SourceRow{
				Valid:         false,
				Quarantine:    true,
				QuarantineErr: fmt.Sprintf("expected %d fields, got %d", len(header), len(record)),
				Destination:   "quarantine",
			}, true, nil
		}
		fields := make(map[string]any, len(header))
		for i, name := range header {
			fields[name] = record[i]
		}
		return plugin.SourceRow{
			Valid: true,
			Row:   plugin.PipelineRow{Fields: fields},
		}, true, nil
	}, nil
}

func (s *Source) OnComplete(ctx context.Context) error { return nil }

func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// SchemaContract reports that csvsource rows are observed: the header
// row determines field names at run time, not at graph-build time.
func (s *Source) SchemaContract() (domain.SchemaContract, bool) {
	return domain.Observed(), true
}
