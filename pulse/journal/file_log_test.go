package journal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/orion/pulse/heartbeat"
)

func testPulse(number uint64, executed ...heartbeat.Execution) *heartbeat.Pulse {
	ts := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(number) * time.Minute)
	return heartbeat.NewPulse(ts, heartbeat.ActionHeartbeat, number, executed)
}

func TestFileLog_AppendsOneLinePerPulse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "HEARTBEAT.jsonl")
	log, err := OpenFileLog(path)
	require.NoError(t, err)
	defer log.Close()

	ctx := context.Background()
	require.NoError(t, log.Append(ctx, testPulse(1)))
	require.NoError(t, log.Append(ctx, testPulse(2, heartbeat.Execution{
		Task:    "check_questions",
		Outcome: heartbeat.Outcome{Success: true, Value: "0 pending", DurationMs: 3},
	})))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"pulse_number":1`)
	assert.Contains(t, lines[1], `"task":"check_questions"`)

	pulses, err := log.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, pulses, 2)
	assert.Equal(t, uint64(1), pulses[0].Number)
	assert.Equal(t, uint64(2), pulses[1].Number)
	assert.Equal(t, "0 pending", pulses[1].Executed[0].Outcome.Value)
}

func TestFileLog_ReopenKeepsExistingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HEARTBEAT.jsonl")
	ctx := context.Background()

	first, err := OpenFileLog(path)
	require.NoError(t, err)
	require.NoError(t, first.Append(ctx, testPulse(1)))
	require.NoError(t, first.Close())

	second, err := OpenFileLog(path)
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.Append(ctx, testPulse(2)))

	pulses, err := second.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, pulses, 2)
}

func TestFileLog_Tail(t *testing.T) {
	log, err := OpenFileLog(filepath.Join(t.TempDir(), "HEARTBEAT.jsonl"))
	require.NoError(t, err)
	defer log.Close()

	ctx := context.Background()
	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, log.Append(ctx, testPulse(i)))
	}

	last, err := log.Tail(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, uint64(4), last[0].Number)
	assert.Equal(t, uint64(5), last[1].Number)

	all, err := log.Tail(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestFileLog_AppendAfterClose(t *testing.T) {
	log, err := OpenFileLog(filepath.Join(t.TempDir(), "HEARTBEAT.jsonl"))
	require.NoError(t, err)
	require.NoError(t, log.Close())
	require.NoError(t, log.Close())

	err = log.Append(context.Background(), testPulse(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestOpenFileLog_EmptyPath(t *testing.T) {
	_, err := OpenFileLog("")
	require.Error(t, err)
}

func TestReadPulseFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		pulses, err := ReadPulseFile(context.Background(), filepath.Join(t.TempDir(), "absent.jsonl"))
		require.NoError(t, err)
		assert.Empty(t, pulses)
	})

	t.Run("malformed line reports position", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.jsonl")
		good, err := testPulse(1).MarshalJSON()
		require.NoError(t, err)
		content := string(good) + "\n\n{not json\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err = ReadPulseFile(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad.jsonl:3")
	})
}
