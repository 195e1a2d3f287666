package journal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/teranos/orion/am"
	"github.com/teranos/orion/errors"
	"github.com/teranos/orion/pulse/heartbeat"
)

// FileState keeps the snapshot as a JSON document replaced atomically on save
type FileState struct {
	path string
	mu   sync.Mutex
}

var _ heartbeat.StateStore = (*FileState)(nil)

// NewFileState returns a snapshot store at path. The file is created on first Save.
func NewFileState(path string) *FileState {
	return &FileState{path: path}
}

// Path returns the snapshot file location
func (s *FileState) Path() string { return s.path }

// Load reads the snapshot. A missing file is reported as errors.ErrNotFound.
func (s *FileState) Load(_ context.Context) (*heartbeat.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, errors.WrapNotFound(err, "heartbeat state")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", s.path)
	}

	var snap heartbeat.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.WithDetailf(
			errors.Wrapf(err, "corrupt heartbeat state in %s", s.path),
			"file size: %d bytes", len(data))
	}
	return &snap, nil
}

// Save writes snap to a temp file in the same directory and renames it over
// the previous snapshot, so readers never see a partial document.
func (s *FileState) Save(_ context.Context, snap *heartbeat.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode heartbeat state")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, am.DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file in %s", dir)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %s", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to sync %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", tmpPath)
	}
	if err := os.Chmod(tmpPath, am.DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to set permissions on %s", tmpPath)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", s.path)
	}
	return nil
}
