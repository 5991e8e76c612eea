package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all vigor configuration.
type Config struct {
	Server    ServerConfig    `toml:"server" yaml:"server" json:"server"`
	Database  DatabaseConfig  `toml:"database" yaml:"database" json:"database"`
	Rules     RulesConfig     `toml:"rules" yaml:"rules" json:"rules"`
	Telemetry TelemetryConfig `toml:"telemetry" yaml:"telemetry" json:"telemetry"`
	Engine    EngineConfig    `toml:"engine" yaml:"engine" json:"engine"`
	Finance   FinanceConfig   `toml:"finance" yaml:"finance" json:"finance"`
	Log       LogConfig       `toml:"log" yaml:"log" json:"log"`
	OTel      OTelConfig      `toml:"otel" yaml:"otel" json:"otel"`
	Redis     RedisConfig     `toml:"redis" yaml:"redis" json:"redis"`
	IDs       IDConfig        `toml:"ids" yaml:"ids" json:"ids"`
}

type ServerConfig struct {
	Bind string `toml:"bind" yaml:"bind" json:"bind"`
	Port int    `toml:"port" yaml:"port" json:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path" yaml:"path" json:"path"`
}

type RulesConfig struct {
	// Path to the rule document. Empty means the bundled default rules.
	Path string `toml:"path" yaml:"path" json:"path"`
}

type TelemetryConfig struct {
	Provider string `toml:"provider" yaml:"provider" json:"provider"` // "file", "estimated"
	Dir      string `toml:"dir" yaml:"dir" json:"dir"`                // for "file": holds health.* and usage.*
}

type EngineConfig struct {
	WakeTime         string   `toml:"wake_time" yaml:"wake_time" json:"wake_time"` // "HH:MM"
	HealthDebounce   Duration `toml:"health_debounce" yaml:"health_debounce" json:"health_debounce"`
	UsageDebounce    Duration `toml:"usage_debounce" yaml:"usage_debounce" json:"usage_debounce"`
	ActivityDebounce Duration `toml:"activity_debounce" yaml:"activity_debounce" json:"activity_debounce"`
	HistoryWindow    Duration `toml:"history_window" yaml:"history_window" json:"history_window"`
}

type FinanceConfig struct {
	DailyBudget  float64 `toml:"daily_budget" yaml:"daily_budget" json:"daily_budget"`
	TargetIncome float64 `toml:"target_income" yaml:"target_income" json:"target_income"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level" json:"level"`    // debug, info, warn, error
	Format string `toml:"format" yaml:"format" json:"format"` // text, json
}

type OTelConfig struct {
	Endpoint    string `toml:"endpoint" yaml:"endpoint" json:"endpoint"`
	Headers     string `toml:"headers" yaml:"headers" json:"headers"` // "k1=v1,k2=v2"
	ServiceName string `toml:"service_name" yaml:"service_name" json:"service_name"`
	Insecure    bool   `toml:"insecure" yaml:"insecure" json:"insecure"`
}

type RedisConfig struct {
	URL    string `toml:"url" yaml:"url" json:"url"`
	Stream string `toml:"stream" yaml:"stream" json:"stream"`
	MaxLen int64  `toml:"max_len" yaml:"max_len" json:"max_len"`
}

type IDConfig struct {
	Node int64 `toml:"node" yaml:"node" json:"node"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37778,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Telemetry: TelemetryConfig{
			Provider: "estimated",
		},
		Engine: EngineConfig{
			WakeTime:         "07:00",
			HealthDebounce:   Duration{2 * time.Second},
			UsageDebounce:    Duration{2 * time.Second},
			ActivityDebounce: Duration{time.Second},
			HistoryWindow:    Duration{48 * time.Hour},
		},
		Finance: FinanceConfig{
			DailyBudget:  100,
			TargetIncome: 0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		OTel: OTelConfig{
			ServiceName: "vigor",
		},
		Redis: RedisConfig{
			Stream: "vigor_snapshots",
			MaxLen: 10000,
		},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// Enabled reports whether traces and logs are exported.
func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

// HeaderMap parses Headers into a map, skipping malformed pairs.
func (c OTelConfig) HeaderMap() map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(c.Headers, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

// Enabled reports whether snapshots are published to Redis.
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

// WakeOffset returns the configured wake time as an offset from midnight.
func (c EngineConfig) WakeOffset() (time.Duration, error) {
	t, err := time.Parse("15:04", c.WakeTime)
	if err != nil {
		return 0, fmt.Errorf("parse wake_time %q: %w", c.WakeTime, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Duration is a time.Duration that reads and writes as "2s", "1m30s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", b, err)
	}
	d.Duration = v
	return nil
}
