package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.OffsetFile != "" || cfg.StateDB != "" || cfg.Lock {
		t.Errorf("state settings = %+v, want empty", cfg)
	}
	if cfg.TracingEnabled || cfg.ClickHouseMirror {
		t.Error("optional integrations enabled by default")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logtailn.yaml")
	content := `
offset_file: /var/lib/logtailn/syslog.offset
lock: true
log_level: info
clickhouse_mirror: true
clickhouse_host: ch.internal
clickhouse_port: 9440
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LOGTAILN_LOG_LEVEL", "debug")
	t.Setenv("CLICKHOUSE_PORT", "not-a-number")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{name: "offset file from yaml", got: cfg.OffsetFile, want: "/var/lib/logtailn/syslog.offset"},
		{name: "lock from yaml", got: cfg.Lock, want: true},
		{name: "env overrides yaml", got: cfg.LogLevel, want: "debug"},
		{name: "host from yaml", got: cfg.ClickHouseHost, want: "ch.internal"},
		{name: "bad env int keeps yaml value", got: cfg.ClickHousePort, want: 9440},
		{name: "unset key keeps default", got: cfg.ClickHouseDB, want: "logs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	badYAML := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badYAML, []byte("lock: [unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("Load() with missing file succeeded, want error")
	}
	if _, err := Load(badYAML); err == nil {
		t.Error("Load() with malformed yaml succeeded, want error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{name: "bad tracing protocol", mutate: func(c *Config) {
			c.TracingEnabled = true
			c.TracingProtocol = "udp"
		}, wantErr: true},
		{name: "protocol ignored when tracing off", mutate: func(c *Config) { c.TracingProtocol = "udp" }},
		{name: "mirror without host", mutate: func(c *Config) {
			c.ClickHouseMirror = true
			c.ClickHouseHost = ""
		}, wantErr: true},
		{name: "mirror with bad port", mutate: func(c *Config) {
			c.ClickHouseMirror = true
			c.ClickHousePort = 70000
		}, wantErr: true},
		{name: "offset file equals state db", mutate: func(c *Config) {
			c.OffsetFile = "state"
			c.StateDB = "state"
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
