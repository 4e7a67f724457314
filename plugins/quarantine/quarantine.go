// Package quarantine is a reference plugin.Sink for rejected rows —
// those a source marked Quarantine at ingest time, or that an upstream
// transform routed to on_error. It writes the same newline-delimited
// JSON envelope as jsonsink, plus a capture timestamp, so a quarantined
// batch can be replayed or inspected independently of the main sinks.
package quarantine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/R3E-Network/service_layer/pkg/pipeline/plugin"
)

// Config configures one quarantine instance.
type Config struct {
	Path string
}

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
		return fmt.Errorf("quarantine: create %s: %w", s.cfg.Path, err)
	}
	s.file = f
	return nil
}

type envelope struct {
	CapturedAt string         `json:"captured_at"`
	Fields     map[string]any `json:"fields"`
}

func (s *Sink) Write(ctx plugin.Context, rows []plugin.PipelineRow) (plugin.ArtifactDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hasher := sha256.New()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, row := range rows {
		line, err := json.Marshal(envelope{CapturedAt: now, Fields: row.Fields})
		if err != nil {
			return plugin.ArtifactDescriptor{}, fmt.Errorf("quarantine: marshal row: %w", err)
		}
		line = append(line, '\n')
		if _, err := s.file.Write(line); err != nil {
			return plugin.ArtifactDescriptor{}, fmt.Errorf("quarantine: write row: %w", err)
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

// Idempotent is false: re-delivery appends another captured entry.
func (s *Sink) Idempotent() bool { return false }
