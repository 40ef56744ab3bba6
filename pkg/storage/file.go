package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/FrenchMajesty/veracious/pkg/types"
)

// FileStore implements Store using a JSON file
type FileStore struct {
	filepath string
	mu       sync.Mutex
}

// NewFileStore creates a new file-based snapshot store
func NewFileStore(filepath string) *FileStore {
	return &FileStore{filepath: filepath}
}

// Load loads the snapshot from the file. If the file doesn't exist, returns ErrNotFound.
func (f *FileStore) Load(ctx context.Context) (*types.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.filepath)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot from file %s: %w", f.filepath, err)
	}

	var snapshot types.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot from file %s: %w", f.filepath, err)
	}

	return &snapshot, nil
}

// Save replaces the file contents with snapshot
func (f *FileStore) Save(ctx context.Context, snapshot types.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.filepath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Write beside the target and rename so readers never see a partial snapshot
	tmp := f.filepath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot to file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.filepath); err != nil {
		return fmt.Errorf("failed to replace snapshot file %s: %w", f.filepath, err)
	}

	return nil
}

// Close implements Store
func (f *FileStore) Close() error {
	return nil
}
