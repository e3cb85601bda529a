package config

import "time"

const (
	defaultBufferMinutes         = 15
	defaultAdmissionLeadMinutes  = 15
	defaultReminderWindowMinutes = 30
	defaultReminderInterval      = 60
	defaultReminderConcurrency   = 4
	defaultLockTTLSeconds        = 10
	defaultReadRetryAttempts     = 3
	defaultBackendTimeoutSeconds = 10
)

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}

	return value
}

// ConflictBuffer is the setup/teardown margin applied to both ends of a candidate window.
func (c *Config) ConflictBuffer() time.Duration {
	return time.Duration(orDefault(c.Scheduling.BufferMinutes, defaultBufferMinutes)) * time.Minute
}

// AdmissionLead is how long before the scheduled instant a session may be joined.
func (c *Config) AdmissionLead() time.Duration {
	return time.Duration(orDefault(c.Scheduling.AdmissionLeadMinutes, defaultAdmissionLeadMinutes)) * time.Minute
}

func (c *Config) ReminderWindow() time.Duration {
	return time.Duration(orDefault(c.Scheduling.ReminderWindowMinutes, defaultReminderWindowMinutes)) * time.Minute
}

func (c *Config) ReminderInterval() time.Duration {
	return time.Duration(orDefault(c.Scheduling.ReminderIntervalSeconds, defaultReminderInterval)) * time.Second
}

func (c *Config) ReminderConcurrency() int {
	return orDefault(c.Scheduling.ReminderConcurrency, defaultReminderConcurrency)
}

func (c *Config) LockTTL() time.Duration {
	return time.Duration(orDefault(c.Scheduling.LockTTLSeconds, defaultLockTTLSeconds)) * time.Second
}

func (c *Config) ReadRetryAttempts() uint {
	return uint(orDefault(c.Scheduling.ReadRetryAttempts, defaultReadRetryAttempts))
}

// BackendTimeout bounds every call to the session backend.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(orDefault(c.External.Chime.TimeoutSeconds, defaultBackendTimeoutSeconds)) * time.Second
}
