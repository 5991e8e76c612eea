package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VIGOR_"

// DefaultPath returns ~/.vigor/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".vigor", "config.toml"), nil
}

// Load reads the config file at path (defaults when it does not exist), loads
// .env from the working directory if present, applies VIGOR_* overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("decode TOML: %w", err)
		}
	}
	return cfg, nil
}

// ApplyEnvOverrides applies VIGOR_* environment variables. The OpenTelemetry
// and Redis sections also honour their conventional unprefixed names.
func (c *Config) ApplyEnvOverrides() error {
	str := func(dst *string, names ...string) {
		for _, n := range names {
			if v := os.Getenv(n); v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.Server.Bind, EnvPrefix+"BIND")
	str(&c.Database.Path, EnvPrefix+"DB_PATH")
	str(&c.Rules.Path, EnvPrefix+"RULES_PATH")
	str(&c.Telemetry.Provider, EnvPrefix+"TELEMETRY_PROVIDER")
	str(&c.Telemetry.Dir, EnvPrefix+"TELEMETRY_DIR")
	str(&c.Engine.WakeTime, EnvPrefix+"WAKE_TIME")
	str(&c.Log.Level, EnvPrefix+"LOG_LEVEL")
	str(&c.Log.Format, EnvPrefix+"LOG_FORMAT")
	str(&c.OTel.Endpoint, EnvPrefix+"OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	str(&c.OTel.Headers, EnvPrefix+"OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
	str(&c.OTel.ServiceName, EnvPrefix+"OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	str(&c.Redis.URL, EnvPrefix+"REDIS_URL", "REDIS_URL")
	str(&c.Redis.Stream, EnvPrefix+"REDIS_STREAM")

	if v := os.Getenv(EnvPrefix + "PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv(EnvPrefix + "ID_NODE"); v != "" {
		node, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sID_NODE: %w", EnvPrefix, err)
		}
		c.IDs.Node = node
	}
	if v := os.Getenv(EnvPrefix + "DAILY_BUDGET"); v != "" {
		budget, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sDAILY_BUDGET: %w", EnvPrefix, err)
		}
		c.Finance.DailyBudget = budget
	}
	return nil
}

// Save writes cfg as TOML, creating the parent directory.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
