package agent

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofJournal_RecordAndCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proofs", "PROOFS.jsonl")
	j := NewProofJournal(path, nil)
	j.timeNow = func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	n, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, j.Record(ctx, ProofHeartbeatStarted, "interval 60s"))
	require.NoError(t, j.Record(ctx, ProofGoalAchieved, "goal achieved: ship"))

	n, err = j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "2026-05-01T10:00:00Z", first["ts"])
	assert.Equal(t, ProofHeartbeatStarted, first["kind"])
	assert.Equal(t, "interval 60s", first["payload"])

	proofs, err := j.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, ProofGoalAchieved, proofs[1].Kind)
}

func TestProofJournal_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PROOFS.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"kind\":\"x\"}\nnot-json\n"), 0o644))

	_, err := NewProofJournal(path, nil).Count(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed proof")
}

func TestProofJournal_FeedsConsciousnessPulse(t *testing.T) {
	j := NewProofJournal(filepath.Join(t.TempDir(), "PROOFS.jsonl"), nil)
	sched := &fakeScheduler{pulse: 10}
	_, err := RegisterCoreTasks(sched, Capabilities{Proofs: j}, nil)
	require.NoError(t, err)

	v, err := sched.action(t, TaskConsciousnessPulse)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, v.(PulseResult).ProofCount)

	proofs, err := j.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, proofs, 1)
	assert.Equal(t, ProofConsciousnessPulse, proofs[0].Kind)
	assert.Contains(t, proofs[0].Payload, "pulse #10")
	assert.Contains(t, proofs[0].Payload, "stable operation")
}
