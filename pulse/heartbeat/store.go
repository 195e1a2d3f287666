package heartbeat

import (
	"context"
	"time"
)

// PulseLog is a durable, append-only sequence of pulse records
type PulseLog interface {
	Append(ctx context.Context, p *Pulse) error
}

// StateStore holds the single latest scheduler snapshot.
// Load returns an error wrapping errors.ErrNotFound when nothing was saved yet.
type StateStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
}

// Snapshot is the compact, overwrite-in-place scheduler state.
// Only TotalPulses is read back on construction.
type Snapshot struct {
	TotalPulses uint64     `json:"total_pulses"`
	Running     bool       `json:"running"`
	StartTime   *time.Time `json:"start_time"`
	TaskCount   int        `json:"tasks"`
	RunID       string     `json:"run_id,omitempty"`
	LastSave    time.Time  `json:"last_save"`
}

// NopStore discards pulses and never has a snapshot.
// Used when a heartbeat is constructed without persistence.
type NopStore struct{}

// Append implements PulseLog
func (NopStore) Append(context.Context, *Pulse) error { return nil }

// Load implements StateStore
func (NopStore) Load(context.Context) (*Snapshot, error) { return nil, nil }

// Save implements StateStore
func (NopStore) Save(context.Context, *Snapshot) error { return nil }
