package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/teranos/orion/am"
	"github.com/teranos/orion/errors"
	"github.com/teranos/orion/pulse/heartbeat"
)

// maxRecordSize bounds a single JSONL line when reading the log back
const maxRecordSize = 4 * 1024 * 1024

// FileLog appends one JSON pulse record per line. Existing lines are never rewritten.
type FileLog struct {
	path string

	mu   sync.Mutex
	file *os.File
}

var _ heartbeat.PulseLog = (*FileLog)(nil)

// OpenFileLog opens (creating if needed) the log at path for appending
func OpenFileLog(path string) (*FileLog, error) {
	if path == "" {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "pulse log path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), am.DefaultDirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to create directory for %s", path)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, am.DefaultFilePermissions)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open pulse log %s", path)
	}
	return &FileLog{path: path, file: f}, nil
}

// Path returns the log file location
func (l *FileLog) Path() string { return l.path }

// Append writes p as a single line and syncs it to disk
func (l *FileLog) Append(_ context.Context, p *heartbeat.Pulse) error {
	line, err := json.Marshal(p)
	if err != nil {
		return errors.Wrapf(err, "failed to encode pulse %d", p.Number)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return errors.Newf("pulse log %s is closed", l.path)
	}
	if _, err := l.file.Write(line); err != nil {
		return errors.Wrapf(err, "failed to append pulse %d to %s", p.Number, l.path)
	}
	if err := l.file.Sync(); err != nil {
		return errors.Wrapf(err, "failed to sync %s", l.path)
	}
	return nil
}

// Close releases the file handle
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ReadAll decodes every record in the log, oldest first
func (l *FileLog) ReadAll(ctx context.Context) ([]*heartbeat.Pulse, error) {
	return ReadPulseFile(ctx, l.path)
}

// Tail returns the last n records, oldest first
func (l *FileLog) Tail(ctx context.Context, n int) ([]*heartbeat.Pulse, error) {
	all, err := l.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return tail(all, n), nil
}

// ReadPulseFile decodes a JSONL pulse log. Blank lines are skipped; a missing
// file yields no records.
func ReadPulseFile(ctx context.Context, path string) ([]*heartbeat.Pulse, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return []*heartbeat.Pulse{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open pulse log %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	pulses := []*heartbeat.Pulse{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var p heartbeat.Pulse
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, errors.Wrapf(err, "%s:%d: malformed pulse record", path, lineNo)
		}
		pulses = append(pulses, &p)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read pulse log %s", path)
	}
	return pulses, nil
}

func tail(pulses []*heartbeat.Pulse, n int) []*heartbeat.Pulse {
	if n <= 0 || n >= len(pulses) {
		return pulses
	}
	return pulses[len(pulses)-n:]
}
