// Package csvsink is a reference plugin.Sink writing rows to a local CSV
// file. The field set of the first batch written determines the header;
// later batches with a different field set are an error, matching a
// CSV sink's structural nature.
package csvsink

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/R3E-Network/service_layer/pkg/pipeline/plugin"
)

// Config configures one csvsink instance.
type Config struct {
	Path string
}

// Sink appends rows to a CSV file, writing the header on first use.
type Sink struct {
	cfg    Config
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	header []string
	size   int64
}

func New(cfg Config) *Sink {
	return &Sink{cfg: cfg}
}

func (s *Sink) OnStart(ctx context.Context) error {
	f, err := os.Create(s.cfg.Path)
	if err != nil {
		return fmt.Errorf("csvsink: create %s: %w", s.cfg.Path, err)
	}
	s.file = f
	s.writer = csv.NewWriter(f)
	return nil
}

// Write appends rows, deriving a stable column order from the first row
// of the batch the first time Write is called.
func (s *Sink) Write(ctx plugin.Context, rows []plugin.PipelineRow) (plugin.ArtifactDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(rows) == 0 {
		return plugin.ArtifactDescriptor{Path: s.cfg.Path}, nil
	}
	if s.header == nil {
		s.header = sortedKeys(rows[0].Fields)
		if err := s.writer.Write(s.header); err != nil {
			return plugin.ArtifactDescriptor{}, fmt.Errorf("csvsink: write header: %w", err)
		}
	}

	hasher := sha256.New()
	for _, row := range rows {
		record := make([]string, len(s.header))
		for i, key := range s.header {
			record[i] = fmt.Sprintf("%v", row.Fields[key])
		}
		if err := s.writer.Write(record); err != nil {
			return plugin.ArtifactDescriptor{}, fmt.Errorf("csvsink: write record: %w", err)
		}
		for _, field := range record {
			hasher.Write([]byte(field))
			s.size += int64(len(field))
		}
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return plugin.ArtifactDescriptor{}, fmt.Errorf("csvsink: flush: %w", err)
	}

	return plugin.ArtifactDescriptor{
		Path:        s.cfg.Path,
		Size:        s.size,
		ContentHash: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

func (s *Sink) OnComplete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	return s.writer.Error()
}

func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// Idempotent is false: re-running a batch after a crash appends
// duplicate rows rather than overwriting them.
func (s *Sink) Idempotent() bool { return false }

func sortedKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
