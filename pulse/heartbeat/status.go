package heartbeat

import (
	"fmt"
	"time"

	"github.com/teranos/orion/version"
)

// UptimeNotStarted is reported before the first Start
const UptimeNotStarted = "not started"

// TaskStatus summarizes one task's run metadata
type TaskStatus struct {
	Name            string        `json:"name"`
	Interval        time.Duration `json:"-"`
	IntervalSeconds int64         `json:"interval_seconds"`
	Priority        int           `json:"priority"`
	RunCount        uint64        `json:"run_count"`
	ErrorCount      uint64        `json:"error_count"`
	LastRun         *time.Time    `json:"last_run"`
}

// Status is a consistent point-in-time view of the scheduler
type Status struct {
	Version     string       `json:"version"`
	Running     bool         `json:"running"`
	PulseCount  uint64       `json:"pulse_count"`
	Uptime      string       `json:"uptime"`
	StartTime   *time.Time   `json:"start_time"`
	RunID       string       `json:"run_id,omitempty"`
	Tasks       []TaskStatus `json:"tasks"`
	LastError   string       `json:"last_error,omitempty"`
	LastErrorAt *time.Time   `json:"last_error_at,omitempty"`
}

// Status returns the scheduler's current state. Uptime counts from the
// most recent Start, whether or not the loop is still running.
func (h *Heartbeat) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s := Status{
		Version:    version.HeartbeatProtocol,
		Running:    h.running,
		PulseCount: h.pulseCount,
		Uptime:     UptimeNotStarted,
		RunID:      h.runID,
		Tasks:      make([]TaskStatus, 0, len(h.tasks)),
		LastError:  h.lastError,
	}
	if h.startTime != nil {
		st := *h.startTime
		s.StartTime = &st
		s.Uptime = FormatUptime(h.timeNow().Sub(st))
	}
	if h.lastErrorAt != nil {
		at := *h.lastErrorAt
		s.LastErrorAt = &at
	}
	for _, t := range h.tasks {
		s.Tasks = append(s.Tasks, t.Summary())
	}
	return s
}

// FormatUptime renders d as "Xh Ym", truncating seconds
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
