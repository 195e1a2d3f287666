package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/teranos/orion/errors"
	"github.com/teranos/orion/pulse/heartbeat"
)

// SQLStore persists pulses and the state snapshot in sqlite.
// Requires the heartbeat_pulses and heartbeat_state tables from db.Migrate.
type SQLStore struct {
	db *sql.DB
}

var (
	_ heartbeat.PulseLog   = (*SQLStore)(nil)
	_ heartbeat.StateStore = (*SQLStore)(nil)
)

// NewSQLStore creates a store over an already-migrated database
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Append inserts the pulse's log record. Rows are never updated.
func (s *SQLStore) Append(ctx context.Context, p *heartbeat.Pulse) error {
	record, err := json.Marshal(p)
	if err != nil {
		return errors.Wrapf(err, "failed to encode pulse %d", p.Number)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO heartbeat_pulses (pulse_id, pulse_number, timestamp, action, tasks_executed, record)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Number, p.Timestamp.UTC().Format(time.RFC3339Nano), p.Action, len(p.Executed), string(record))
	if err != nil {
		return errors.Wrapf(err, "failed to insert pulse %d", p.Number)
	}
	return nil
}

// Recent returns the last n pulses, oldest first. n <= 0 returns all.
func (s *SQLStore) Recent(ctx context.Context, n int) ([]*heartbeat.Pulse, error) {
	query := `SELECT record FROM heartbeat_pulses ORDER BY id DESC`
	args := []any{}
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query pulses")
	}
	defer rows.Close()

	pulses := []*heartbeat.Pulse{}
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, errors.Wrap(err, "failed to scan pulse row")
		}
		var p heartbeat.Pulse
		if err := json.Unmarshal([]byte(record), &p); err != nil {
			return nil, errors.Wrap(err, "failed to decode stored pulse")
		}
		pulses = append(pulses, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating pulses")
	}

	// Query is newest first
	for i, j := 0, len(pulses)-1; i < j; i, j = i+1, j-1 {
		pulses[i], pulses[j] = pulses[j], pulses[i]
	}
	return pulses, nil
}

// Count returns the number of stored pulses
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM heartbeat_pulses`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count pulses")
	}
	return n, nil
}

// Load reads the snapshot row. No row is reported as errors.ErrNotFound.
func (s *SQLStore) Load(ctx context.Context) (*heartbeat.Snapshot, error) {
	var (
		snap      heartbeat.Snapshot
		running   int
		startTime sql.NullString
		lastSave  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT total_pulses, running, start_time, task_count, run_id, last_save
		FROM heartbeat_state WHERE id = 1
	`).Scan(&snap.TotalPulses, &running, &startTime, &snap.TaskCount, &snap.RunID, &lastSave)
	if err == sql.ErrNoRows {
		return nil, errors.WrapNotFound(err, "heartbeat state")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load heartbeat state")
	}

	snap.Running = running != 0
	if startTime.Valid && startTime.String != "" {
		st, err := time.Parse(time.RFC3339Nano, startTime.String)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt start_time %q", startTime.String)
		}
		snap.StartTime = &st
	}
	if snap.LastSave, err = time.Parse(time.RFC3339Nano, lastSave); err != nil {
		return nil, errors.Wrapf(err, "corrupt last_save %q", lastSave)
	}
	return &snap, nil
}

// Save overwrites the single snapshot row
func (s *SQLStore) Save(ctx context.Context, snap *heartbeat.Snapshot) error {
	var startTime any
	if snap.StartTime != nil {
		startTime = snap.StartTime.UTC().Format(time.RFC3339Nano)
	}
	running := 0
	if snap.Running {
		running = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO heartbeat_state (id, total_pulses, running, start_time, task_count, run_id, last_save)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			total_pulses = excluded.total_pulses,
			running = excluded.running,
			start_time = excluded.start_time,
			task_count = excluded.task_count,
			run_id = excluded.run_id,
			last_save = excluded.last_save
	`, snap.TotalPulses, running, startTime, snap.TaskCount, snap.RunID, snap.LastSave.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.Wrap(err, "failed to save heartbeat state")
	}
	return nil
}
