// Package am holds the orion core configuration ("I am").
//
// Configuration is read with Viper from TOML files and ORION_* environment
// variables. Precedence (lowest to highest): system < user < project < env.
package am

import "time"

// Config represents the core orion configuration
type Config struct {
	Heartbeat HeartbeatConfig       `mapstructure:"heartbeat"`
	Database  DatabaseConfig        `mapstructure:"database"`
	Log       LogConfig             `mapstructure:"log"`
	Agent     AgentConfig           `mapstructure:"agent"`
	Tasks     map[string]TaskConfig `mapstructure:"tasks"`
}

// HeartbeatConfig configures the periodic task scheduler
type HeartbeatConfig struct {
	IntervalSeconds    int    `mapstructure:"interval_seconds"`     // Loop interval between pulses (default: 60)
	Store              string `mapstructure:"store"`                // Persistence backend: "file" or "sqlite"
	LogPath            string `mapstructure:"log_path"`             // Append-only pulse log (file store)
	StatePath          string `mapstructure:"state_path"`           // State snapshot (file store)
	TaskTimeoutSeconds int    `mapstructure:"task_timeout_seconds"` // Per-task execution timeout (0 = unbounded)
	MetricsAddr        string `mapstructure:"metrics_addr"`         // Prometheus listen address (empty = disabled)
}

// DatabaseConfig configures the SQLite database used by the sqlite store
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig configures structured logging
type LogConfig struct {
	JSON bool `mapstructure:"json"` // JSON output instead of console
}

// AgentConfig configures the embedding agent
type AgentConfig struct {
	ProofPath string `mapstructure:"proof_path"` // Append-only proof journal
}

// TaskConfig overrides a core task by name. Nil fields keep the built-in value.
type TaskConfig struct {
	Enabled         *bool `mapstructure:"enabled"`
	IntervalSeconds *int  `mapstructure:"interval_seconds"`
	Priority        *int  `mapstructure:"priority"`
}

// Store backends
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// Interval returns the heartbeat loop interval
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Heartbeat.IntervalSeconds) * time.Second
}

// TaskTimeout returns the default per-task execution timeout (0 = unbounded)
func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.Heartbeat.TaskTimeoutSeconds) * time.Second
}

// TaskOverride returns the override for a task name, if configured
func (c *Config) TaskOverride(name string) (TaskConfig, bool) {
	tc, ok := c.Tasks[name]
	return tc, ok
}
