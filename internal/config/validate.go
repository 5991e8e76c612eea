package config

import (
	"fmt"
	"strings"
)

// ValidationError is one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate returns ValidationErrors listing every problem, or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port", "must be 1-65535, got %d", c.Server.Port)
	}

	switch c.Telemetry.Provider {
	case "estimated":
	case "file":
		if c.Telemetry.Dir == "" {
			add("telemetry.dir", "required for the file provider")
		}
	default:
		add("telemetry.provider", "unknown provider %q", c.Telemetry.Provider)
	}

	if _, err := c.Engine.WakeOffset(); err != nil {
		add("engine.wake_time", "must be HH:MM, got %q", c.Engine.WakeTime)
	}
	debounces := []struct {
		field string
		d     Duration
	}{
		{"engine.health_debounce", c.Engine.HealthDebounce},
		{"engine.usage_debounce", c.Engine.UsageDebounce},
		{"engine.activity_debounce", c.Engine.ActivityDebounce},
	}
	for _, db := range debounces {
		if db.d.Duration < 0 {
			add(db.field, "must not be negative")
		}
	}
	if c.Engine.HistoryWindow.Duration <= 0 {
		add("engine.history_window", "must be positive")
	}

	if c.Finance.DailyBudget < 0 {
		add("finance.daily_budget", "must not be negative")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("log.level", "unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		add("log.format", "unknown format %q", c.Log.Format)
	}

	if c.IDs.Node < 0 || c.IDs.Node > 1023 {
		add("ids.node", "must be 0-1023, got %d", c.IDs.Node)
	}
	if c.Redis.Enabled() && c.Redis.Stream == "" {
		add("redis.stream", "required when redis.url is set")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
