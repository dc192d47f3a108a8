package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/xg/internal/domain/tune"
)

// FileRegistry keeps the latest artifact in a single JSON file.
type FileRegistry struct {
	path string
}

var _ Registry = (*FileRegistry)(nil)

// NewFile returns a registry writing to path.
func NewFile(path string) *FileRegistry {
	return &FileRegistry{path: path}
}

// Put writes a through a temporary file so readers never see a partial
// artifact.
func (f *FileRegistry) Put(_ context.Context, a *tune.Artifact) error {
	raw, err := a.Marshal()
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %w", ErrStore, a.RunID, err)
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrStore, err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}

// Get returns the stored artifact if it belongs to runID.
func (f *FileRegistry) Get(ctx context.Context, runID string) (*tune.Artifact, error) {
	a, err := f.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if a.RunID != runID {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return a, nil
}

// Latest returns the stored artifact.
func (f *FileRegistry) Latest(_ context.Context) (*tune.Artifact, error) {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return tune.Unmarshal(raw)
}
