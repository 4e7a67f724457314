package payload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/R3E-Network/service_layer/pkg/pipeline/ids"
)

// FileStore is a filesystem-backed content-addressed payload store. Blobs
// are sharded two levels deep by hash prefix (grounded on the teacher's
// content-hash-prefixed object layout conventions used for artifact
// descriptors) to keep any one directory from growing unbounded.
type FileStore struct {
	baseDir string
	mu      sync.Mutex
}

// NewFileStore creates a FileStore rooted at baseDir, creating it if
// necessary.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create payload store directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) pathFor(hash string) string {
	if len(hash) < 4 {
		return filepath.Join(s.baseDir, hash)
	}
	return filepath.Join(s.baseDir, hash[:2], hash[2:4], hash)
}

// Put stores data and returns its content hash. Calling Put twice with
// identical bytes is a no-op the second time.
func (s *FileStore) Put(ctx context.Context, data []byte) (string, error) {
	hash := ids.HashBytes(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.pathFor(hash)
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create payload shard directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write payload: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("commit payload: %w", err)
	}
	return hash, nil
}

// Get returns the bytes stored under hash.
func (s *FileStore) Get(ctx context.Context, hash string) ([]byte, error) {
	data, err := os.ReadFile(s.pathFor(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ErrNotFound{Hash: hash}
		}
		return nil, fmt.Errorf("read payload %s: %w", hash, err)
	}
	return data, nil
}

// Exists reports whether a blob is stored under hash.
func (s *FileStore) Exists(ctx context.Context, hash string) (bool, error) {
	_, err := os.Stat(s.pathFor(hash))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Delete removes the blob stored under hash. Deleting a missing blob is
// not an error — the caller (retention purge) treats "already gone" as a
// skipped, not failed, deletion.
func (s *FileStore) Delete(ctx context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.pathFor(hash))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete payload %s: %w", hash, err)
	}
	return nil
}
