package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func TestNewConfigWithJSON(t *testing.T) {
	resetEnv(t)

	configPath := writeConfig(t, `{
		"api_host": "http://json",
		"server_address": "json:8080",
		"log_level": "warn",
		"request_timeout": "2s"
	}`)
	os.Args = []string{"cmd", "-c", configPath}

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	if cfg.ServerAddress != "json:8080" {
		t.Errorf("NewConfig() ServerAddress = %v, want %v", cfg.ServerAddress, "json:8080")
	}

	if cfg.APIHost != "http://json" {
		t.Errorf("NewConfig() APIHost = %v, want %v", cfg.APIHost, "http://json")
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("NewConfig() LogLevel = %v, want %v", cfg.LogLevel, "warn")
	}

	if cfg.RequestTimeout != 2*time.Second {
		t.Errorf("NewConfig() RequestTimeout = %v, want %v", cfg.RequestTimeout, 2*time.Second)
	}
}

func TestNewConfigJSONFromEnv(t *testing.T) {
	resetEnv(t)

	t.Setenv("CONFIG", writeConfig(t, `{"api_host": "http://env-config"}`))
	os.Args = []string{"cmd"}

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	if cfg.APIHost != "http://env-config" {
		t.Errorf("NewConfig() APIHost = %v, want %v", cfg.APIHost, "http://env-config")
	}
}

func TestNewConfigJSONPriority(t *testing.T) {
	resetEnv(t)

	// JSON < flag < env.
	configPath := writeConfig(t, `{"server_address": "json:8080", "api_host": "http://json"}`)

	t.Setenv("SERVER_ADDRESS", "env:8080")
	os.Args = []string{"cmd", "-c", configPath, "-a", "flag:8080", "-h", "http://flag"}

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	if cfg.ServerAddress != "env:8080" {
		t.Errorf("NewConfig() ServerAddress = %v, want %v", cfg.ServerAddress, "env:8080")
	}

	if cfg.APIHost != "http://flag" {
		t.Errorf("NewConfig() APIHost = %v, want %v", cfg.APIHost, "http://flag")
	}
}

func TestNewConfigBrokenJSON(t *testing.T) {
	resetEnv(t)

	os.Args = []string{"cmd", "-c", writeConfig(t, `{`)}

	if _, err := NewConfig(); err == nil {
		t.Error("NewConfig() expected error for malformed config")
	}
}
