package am

import "github.com/teranos/orion/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// A zero interval would produce a busy loop
	if c.Heartbeat.IntervalSeconds <= 0 {
		return errors.WithHint(
			errors.Wrapf(errors.ErrInvalidInterval, "heartbeat.interval_seconds must be > 0, got %d", c.Heartbeat.IntervalSeconds),
			"omit heartbeat.interval_seconds for the 60s default")
	}

	switch c.Heartbeat.Store {
	case StoreFile:
		if c.Heartbeat.LogPath == "" {
			return errors.New("heartbeat.log_path cannot be empty for the file store")
		}
		if c.Heartbeat.StatePath == "" {
			return errors.New("heartbeat.state_path cannot be empty for the file store")
		}
	case StoreSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path cannot be empty for the sqlite store")
		}
	default:
		return errors.Newf("heartbeat.store must be %q or %q, got %q", StoreFile, StoreSQLite, c.Heartbeat.Store)
	}

	if c.Heartbeat.TaskTimeoutSeconds < 0 {
		return errors.Newf("heartbeat.task_timeout_seconds must be >= 0, got %d", c.Heartbeat.TaskTimeoutSeconds)
	}

	for name, tc := range c.Tasks {
		if tc.IntervalSeconds != nil && *tc.IntervalSeconds <= 0 {
			return errors.Wrapf(errors.ErrInvalidInterval, "tasks.%s.interval_seconds must be > 0, got %d", name, *tc.IntervalSeconds)
		}
	}

	return nil
}
