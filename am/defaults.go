package am

import (
	"fmt"

	"github.com/spf13/viper"
)

// Default values
const (
	DefaultIntervalSeconds = 60
	DefaultLogPath         = "ORION_HEARTBEAT.jsonl"
	DefaultStatePath       = "ORION_HEARTBEAT_STATE.json"
	DefaultDatabasePath    = "orion.db"
	DefaultProofPath       = "PROOFS.jsonl"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("heartbeat.interval_seconds", DefaultIntervalSeconds)
	v.SetDefault("heartbeat.store", StoreFile)
	v.SetDefault("heartbeat.log_path", DefaultLogPath)
	v.SetDefault("heartbeat.state_path", DefaultStatePath)
	v.SetDefault("heartbeat.task_timeout_seconds", 0) // unbounded, matching the action contract
	v.SetDefault("heartbeat.metrics_addr", "")

	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("log.json", false)

	v.SetDefault("agent.proof_path", DefaultProofPath)
}

// BindSensitiveEnvVars explicitly binds path overrides to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	_ = v.BindEnv("database.path", "ORION_DATABASE_PATH")
	_ = v.BindEnv("heartbeat.state_path", "ORION_HEARTBEAT_STATE_PATH")
	_ = v.BindEnv("heartbeat.log_path", "ORION_HEARTBEAT_LOG_PATH")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return DefaultDatabasePath
	}
	return c.Database.Path
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Heartbeat: {Interval: %ds, Store: %s}, Database: %s, Tasks: %d overrides}",
		c.Heartbeat.IntervalSeconds, c.Heartbeat.Store, c.Database.Path, len(c.Tasks))
}
