// Package jsonsink is a reference plugin.Sink writing rows as
// newline-delimited JSON. Grounded on the teacher's use of
// encoding/json for its own flat export record stream (see
// pkg/pipeline/audit export notes) — no third-party serialization
// library in the retrieved pack is a better fit for an append-only
// JSON-lines file than the standard encoder.
package jsonsink

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/R3E-Network/service_layer/pkg/pipeline/plugin"
)

// Config configures one jsonsink instance.
type Config struct {
	Path string
}

// Sink appends one JSON object per line per row.
type Sink struct {
	cfg  Config
	mu   sync.Mutex
	file *os.File
	size int64
}

func New(cfg Config) *Sink {
	return &Sink{cfg: cfg}
}

func (s *Sink) OnStart(ctx context.Context) error {
	f, err := os.Create(s.cfg.Path)
	if err != nil {
		return fmt.Errorf("jsonsink: create %s: %w", s.cfg.Path, err)
	}
	s.file = f
	return nil
}

func (s *Sink) Write(ctx plugin.Context, rows []plugin.PipelineRow) (plugin.ArtifactDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hasher := sha256.New()
	for _, row := range rows {
		line, err := json.Marshal(row.Fields)
		if err != nil {
			return plugin.ArtifactDescriptor{}, fmt.Errorf("jsonsink: marshal row: %w", err)
		}
		line = append(line, '\n')
		if _, err := s.file.Write(line); err != nil {
			return plugin.ArtifactDescriptor{}, fmt.Errorf("jsonsink: write row: %w", err)
		}
		hasher.Write(line)
		s.size += int64(len(line))
	}

	return plugin.ArtifactDescriptor{
		Path:        s.cfg.Path,
		Size:        s.size,
		ContentHash: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

func (s *Sink) OnComplete(ctx context.Context) error { return nil }

func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// Idempotent is false: each Write call appends.
func (s *Sink) Idempotent() bool { return false }
