package config

import (
	"os"
	"strconv"
	"time"
)

// ApplyEnv overrides settings from environment variables. Unset or
// unparsable variables leave the current value in place.
//
// Environment Variables:
//   - ANCHORAGE_WORKERS
//   - ANCHORAGE_KILL_GRACE
//   - ANCHORAGE_RECORD_RETRIES
//   - ANCHORAGE_RECORD_RETRY_DELAY
//   - MACHINE_STORAGE_PATH
//   - AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_SESSION_TOKEN
//   - AWS_PROFILE
func (c *Config) ApplyEnv() {
	c.Executor.Workers = parseInt("ANCHORAGE_WORKERS", c.Executor.Workers)
	c.Executor.KillGrace = parseDuration("ANCHORAGE_KILL_GRACE", c.Executor.KillGrace)
	c.Executor.RecordRetries = parseInt("ANCHORAGE_RECORD_RETRIES", c.Executor.RecordRetries)
	c.Executor.RecordRetryDelay = parseDuration("ANCHORAGE_RECORD_RETRY_DELAY", c.Executor.RecordRetryDelay)

	c.Machine.StoragePath = parseString("MACHINE_STORAGE_PATH", c.Machine.StoragePath)
	c.Machine.AccessKey = parseString("AWS_ACCESS_KEY_ID", c.Machine.AccessKey)
	c.Machine.SecretKey = parseString("AWS_SECRET_ACCESS_KEY", c.Machine.SecretKey)
	c.Machine.SessionToken = parseString("AWS_SESSION_TOKEN", c.Machine.SessionToken)
	c.Machine.AWSProfile = parseString("AWS_PROFILE", c.Machine.AWSProfile)
}

func parseString(envVar, defaultVal string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultVal
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
