package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across orion.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRunID     = "run_id"
	FieldPulseID   = "pulse_id"
	FieldComponent = "component"

	// Heartbeat
	FieldTask        = "task"
	FieldPulseNumber = "pulse_number"
	FieldInterval    = "interval"
	FieldPriority    = "priority"
	FieldExecuted    = "tasks_executed"
	FieldTaskCount   = "task_count"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldStartTime  = "start_time"
	FieldUptime     = "uptime"

	// Errors
	FieldError = "error"

	// Counts
	FieldCount      = "count"
	FieldTotalCount = "total_count"

	// Status
	FieldStatus = "status"
	FieldState  = "state"

	// Files and paths
	FieldPath    = "path"
	FieldBackend = "backend"

	// Network
	FieldAddress = "address"

	// orion-specific
	FieldSymbol = "symbol" // glyph (꩜, ✿, ❀, ...)
	FieldKind   = "kind"   // proof kind
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	hb := heartbeat.New(cfg, log, state, heartbeat.WithLogger(logger.ComponentLogger("heartbeat")))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
