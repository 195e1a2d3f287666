package heartbeat

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/teranos/orion/errors"
)

// ActionHeartbeat labels pulses produced by the scheduler tick
const ActionHeartbeat = "heartbeat"

// pulseIDLength is the number of hex characters kept from the digest
const pulseIDLength = 12

// Outcome is the result of one task execution attempt
type Outcome struct {
	Success    bool   `json:"success"`
	Value      any    `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Execution pairs a task name with its outcome within a pulse
type Execution struct {
	Task    string  `json:"task"`
	Outcome Outcome `json:"result"`
}

// Pulse is the immutable record of one scheduler tick.
// Executed lists only the tasks that ran, in priority order.
type Pulse struct {
	ID        string
	Timestamp time.Time
	Action    string
	Number    uint64
	Executed  []Execution
}

// NewPulse assembles a pulse and derives its ID from timestamp and action
func NewPulse(ts time.Time, action string, number uint64, executed []Execution) *Pulse {
	ts = ts.UTC()
	if executed == nil {
		executed = []Execution{}
	}
	return &Pulse{
		ID:        PulseID(ts, action),
		Timestamp: ts,
		Action:    action,
		Number:    number,
		Executed:  executed,
	}
}

// PulseID derives a stable identifier: the first 12 hex characters of
// sha256(RFC3339Nano timestamp + action). Not a security primitive.
func PulseID(ts time.Time, action string) string {
	sum := sha256.Sum256([]byte(ts.UTC().Format(time.RFC3339Nano) + action))
	return hex.EncodeToString(sum[:])[:pulseIDLength]
}

// Failed returns the number of executions that did not succeed
func (p *Pulse) Failed() int {
	n := 0
	for _, e := range p.Executed {
		if !e.Outcome.Success {
			n++
		}
	}
	return n
}

// pulseRecord is the serialized log form of a pulse
type pulseRecord struct {
	PulseID   string      `json:"pulse_id"`
	Timestamp string      `json:"timestamp"`
	Action    string      `json:"action"`
	Result    pulseResult `json:"result"`
}

type pulseResult struct {
	PulseNumber   uint64      `json:"pulse_number"`
	TasksExecuted int         `json:"tasks_executed"`
	Details       []Execution `json:"details"`
}

// MarshalJSON encodes the pulse in its log record form
func (p Pulse) MarshalJSON() ([]byte, error) {
	details := p.Executed
	if details == nil {
		details = []Execution{}
	}
	return json.Marshal(pulseRecord{
		PulseID:   p.ID,
		Timestamp: p.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:    p.Action,
		Result: pulseResult{
			PulseNumber:   p.Number,
			TasksExecuted: len(details),
			Details:       details,
		},
	})
}

// UnmarshalJSON decodes a log record. Outcome values decode as generic JSON.
func (p *Pulse) UnmarshalJSON(data []byte) error {
	var rec pulseRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return errors.Wrap(err, "failed to decode pulse record")
	}
	ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
	if err != nil {
		return errors.Wrapf(err, "pulse %s: invalid timestamp %q", rec.PulseID, rec.Timestamp)
	}

	p.ID = rec.PulseID
	p.Timestamp = ts
	p.Action = rec.Action
	p.Number = rec.Result.PulseNumber
	p.Executed = rec.Result.Details
	if p.Executed == nil {
		p.Executed = []Execution{}
	}
	return nil
}
