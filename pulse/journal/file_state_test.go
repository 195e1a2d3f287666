package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/orion/errors"
	"github.com/teranos/orion/pulse/heartbeat"
)

func TestFileState_MissingIsNotFound(t *testing.T) {
	store := NewFileState(filepath.Join(t.TempDir(), "STATE.json"))

	snap, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestFileState_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "STATE.json")
	store := NewFileState(path)
	ctx := context.Background()

	start := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	want := &heartbeat.Snapshot{
		TotalPulses: 17,
		Running:     true,
		StartTime:   &start,
		TaskCount:   6,
		RunID:       "run-1",
		LastSave:    start.Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.TotalPulses, got.TotalPulses)
	assert.True(t, got.Running)
	require.NotNil(t, got.StartTime)
	assert.True(t, start.Equal(*got.StartTime))
	assert.Equal(t, 6, got.TaskCount)
	assert.Equal(t, "run-1", got.RunID)

	// Overwrite wins wholesale
	require.NoError(t, store.Save(ctx, &heartbeat.Snapshot{TotalPulses: 18, LastSave: start}))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(18), got.TotalPulses)
	assert.False(t, got.Running)
	assert.Nil(t, got.StartTime)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileState_NullStartTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "STATE.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"total_pulses":3,"running":false,"start_time":null,"tasks":0,"last_save":"2026-02-01T08:00:00Z"}`), 0o644))

	snap, err := NewFileState(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), snap.TotalPulses)
	assert.Nil(t, snap.StartTime)
}

func TestFileState_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "STATE.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"total_pulses":`), 0o644))

	_, err := NewFileState(path).Load(context.Background())
	require.Error(t, err)
	assert.False(t, errors.IsNotFoundError(err))
	assert.Contains(t, err.Error(), "corrupt heartbeat state")
}

func TestFileState_HeartbeatResumesFromFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	log, err := OpenFileLog(filepath.Join(dir, "HEARTBEAT.jsonl"))
	require.NoError(t, err)
	defer log.Close()
	state := NewFileState(filepath.Join(dir, "STATE.json"))

	hb, err := heartbeat.New(ctx, heartbeat.Config{}, log, state)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := hb.SingleTick(ctx)
		require.NoError(t, err)
	}
	hb.Stop()

	resumed, err := heartbeat.New(ctx, heartbeat.Config{}, log, state)
	require.NoError(t, err)
	p, err := resumed.SingleTick(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), p.Number)

	pulses, err := log.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, pulses, 3)
	assert.Equal(t, p.ID, pulses[2].ID)
}
