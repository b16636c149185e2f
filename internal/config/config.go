package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for one invocation.
// Precedence: defaults, then the YAML file, then environment, then CLI flags.
type Config struct {
	// State location
	OffsetFile string `yaml:"offset_file"` // Sidecar path; empty means <last file>.offset
	StateDB    string `yaml:"state_db"`    // BoltDB file; empty means use the sidecar
	Lock       bool   `yaml:"lock"`        // Take an advisory lock next to the state

	// Observability
	LogLevel        string `yaml:"log_level"`
	LogFile         string `yaml:"log_file"`
	TracingEnabled  bool   `yaml:"tracing_enabled"`
	TracingProtocol string `yaml:"tracing_protocol"` // "grpc" or "http"
	TracingEndpoint string `yaml:"tracing_endpoint"`

	// ClickHouse progress mirror
	ClickHouseMirror bool   `yaml:"clickhouse_mirror"`
	ClickHouseHost   string `yaml:"clickhouse_host"`
	ClickHousePort   int    `yaml:"clickhouse_port"`
	ClickHouseDB     string `yaml:"clickhouse_db"`
	ClickHouseTable  string `yaml:"clickhouse_table"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		LogLevel:        "warn",
		TracingProtocol: "grpc",
		ClickHouseHost:  "localhost",
		ClickHousePort:  9000,
		ClickHouseDB:    "logs",
		ClickHouseTable: "logtailn_progress",
	}
}

// Load builds the configuration from an optional YAML file and the environment
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the keys present in the YAML file at path
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (c *Config) applyEnv() {
	c.OffsetFile = getEnv("LOGTAILN_OFFSET_FILE", c.OffsetFile)
	c.StateDB = getEnv("LOGTAILN_STATE_DB", c.StateDB)
	c.Lock = getEnvBool("LOGTAILN_LOCK", c.Lock)

	c.LogLevel = getEnv("LOGTAILN_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOGTAILN_LOG_FILE", c.LogFile)
	c.TracingEnabled = getEnvBool("TRACING_ENABLED", c.TracingEnabled)
	c.TracingProtocol = getEnv("OTEL_EXPORTER_PROTOCOL", c.TracingProtocol)
	c.TracingEndpoint = getEnv("OTEL_EXPORTER_ENDPOINT", c.TracingEndpoint)

	c.ClickHouseMirror = getEnvBool("CLICKHOUSE_MIRROR", c.ClickHouseMirror)
	c.ClickHouseHost = getEnv("CLICKHOUSE_HOST", c.ClickHouseHost)
	c.ClickHousePort = getEnvInt("CLICKHOUSE_PORT", c.ClickHousePort)
	c.ClickHouseDB = getEnv("CLICKHOUSE_DB", c.ClickHouseDB)
	c.ClickHouseTable = getEnv("CLICKHOUSE_TABLE", c.ClickHouseTable)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.TracingEnabled && c.TracingProtocol != "grpc" && c.TracingProtocol != "http" {
		return fmt.Errorf("OTEL_EXPORTER_PROTOCOL must be grpc or http")
	}
	if c.ClickHouseMirror {
		if c.ClickHouseHost == "" {
			return fmt.Errorf("CLICKHOUSE_HOST is required when the mirror is enabled")
		}
		if c.ClickHousePort <= 0 || c.ClickHousePort > 65535 {
			return fmt.Errorf("CLICKHOUSE_PORT must be between 1 and 65535")
		}
		if c.ClickHouseDB == "" {
			return fmt.Errorf("CLICKHOUSE_DB is required when the mirror is enabled")
		}
	}
	if c.OffsetFile != "" && c.OffsetFile == c.StateDB {
		return fmt.Errorf("offset file and state database must differ")
	}

	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
