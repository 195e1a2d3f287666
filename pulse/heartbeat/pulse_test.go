package heartbeat

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPulseID(t *testing.T) {
	ts := time.Date(2026, 3, 14, 15, 9, 26, 535897000, time.UTC)

	sum := sha256.Sum256([]byte("2026-03-14T15:09:26.535897Z" + "heartbeat"))
	want := hex.EncodeToString(sum[:])[:12]

	assert.Equal(t, want, PulseID(ts, ActionHeartbeat))
	assert.Len(t, PulseID(ts, ActionHeartbeat), 12)
	assert.NotEqual(t, PulseID(ts, ActionHeartbeat), PulseID(ts.Add(time.Nanosecond), ActionHeartbeat))
}

func TestPulseID_NormalizesToUTC(t *testing.T) {
	utc := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	local := utc.In(time.FixedZone("UTC+2", 2*60*60))

	assert.Equal(t, PulseID(utc, ActionHeartbeat), PulseID(local, ActionHeartbeat))
}

func TestPulse_MarshalRecordShape(t *testing.T) {
	ts := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	p := NewPulse(ts, ActionHeartbeat, 7, []Execution{
		{Task: "a", Outcome: Outcome{Success: true, Value: "done", DurationMs: 4}},
		{Task: "b", Outcome: Outcome{Success: false, Error: "nope", DurationMs: 1}},
	})

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))

	assert.Equal(t, p.ID, rec["pulse_id"])
	assert.Equal(t, "2026-03-14T12:00:00Z", rec["timestamp"])
	assert.Equal(t, "heartbeat", rec["action"])

	result := rec["result"].(map[string]any)
	assert.Equal(t, float64(7), result["pulse_number"])
	assert.Equal(t, float64(2), result["tasks_executed"])

	details := result["details"].([]any)
	require.Len(t, details, 2)
	first := details[0].(map[string]any)
	assert.Equal(t, "a", first["task"])
	firstResult := first["result"].(map[string]any)
	assert.Equal(t, true, firstResult["success"])
	assert.Equal(t, "done", firstResult["result"])
	assert.NotContains(t, firstResult, "error")

	second := details[1].(map[string]any)["result"].(map[string]any)
	assert.Equal(t, false, second["success"])
	assert.Equal(t, "nope", second["error"])
	assert.NotContains(t, second, "result")

	assert.Equal(t, 1, p.Failed())
}

func TestPulse_EmptyDetailsIsArray(t *testing.T) {
	p := NewPulse(time.Now(), ActionHeartbeat, 1, nil)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"details":[]`)
	assert.Contains(t, string(data), `"tasks_executed":0`)
}

func TestPulse_UnmarshalRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 12, 0, 0, 123, time.UTC)
	p := NewPulse(ts, ActionHeartbeat, 42, []Execution{
		{Task: "a", Outcome: Outcome{Success: true, DurationMs: 2}},
	})

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got Pulse
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, p.ID, got.ID)
	assert.True(t, p.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, uint64(42), got.Number)
	require.Len(t, got.Executed, 1)
	assert.Equal(t, "a", got.Executed[0].Task)
}

func TestPulse_UnmarshalRejectsBadTimestamp(t *testing.T) {
	var p Pulse
	err := json.Unmarshal([]byte(`{"pulse_id":"x","timestamp":"yesterday","action":"heartbeat","result":{}}`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timestamp")
}
