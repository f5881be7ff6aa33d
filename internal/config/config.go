package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIHost          string `json:"api_host"`
	ServerAddress    string `json:"server_address"`
	TokenStoragePath string `json:"token_storage_path"`
	LogLevel         string `json:"log_level"`
	// RequestTimeout bounds each API request. Zero means no timeout.
	RequestTimeout time.Duration `json:"-"`
}

// NewConfig resolves the configuration from defaults, an optional JSON file,
// command-line flags and environment variables, in that order.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		APIHost:          "http://localhost:8080",
		ServerAddress:    ":8081",
		TokenStoragePath: getDefaultStoragePath(),
		LogLevel:         "info",
	}

	var (
		configPath       string
		apiHost          string
		serverAddress    string
		tokenStoragePath string
		logLevel         string
		requestTimeout   time.Duration
	)

	flag.StringVar(&configPath, "c", "", "Path to JSON config file")
	flag.StringVar(&apiHost, "h", cfg.APIHost, "URL mapper API host (e.g. http://localhost:8080)")
	flag.StringVar(&serverAddress, "a", cfg.ServerAddress, "Admin web server address (e.g. localhost:8081)")
	flag.StringVar(&tokenStoragePath, "t", cfg.TokenStoragePath, "Path to token storage, empty keeps the token in memory")
	flag.StringVar(&logLevel, "l", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.DurationVar(&requestTimeout, "r", cfg.RequestTimeout, "API request timeout (e.g. 10s), 0 disables it")

	flag.Parse()

	if envConfig := os.Getenv("CONFIG"); envConfig != "" {
		configPath = envConfig
	}

	if configPath != "" {
		if err := cfg.loadJSON(configPath); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "h":
			cfg.APIHost = apiHost
		case "a":
			cfg.ServerAddress = serverAddress
		case "t":
			cfg.TokenStoragePath = tokenStoragePath
		case "l":
			cfg.LogLevel = logLevel
		case "r":
			cfg.RequestTimeout = requestTimeout
		}
	})

	if envAPIHost := os.Getenv("API_HOST"); envAPIHost != "" {
		cfg.APIHost = envAPIHost
	}

	if envServerAddress := os.Getenv("SERVER_ADDRESS"); envServerAddress != "" {
		cfg.ServerAddress = envServerAddress
	}

	if envTokenStoragePath, ok := os.LookupEnv("TOKEN_STORAGE_PATH"); ok {
		cfg.TokenStoragePath = envTokenStoragePath
	}

	if envLogLevel := os.Getenv("LOG_LEVEL"); envLogLevel != "" {
		cfg.LogLevel = envLogLevel
	}

	if envRequestTimeout := os.Getenv("REQUEST_TIMEOUT"); envRequestTimeout != "" {
		d, err := time.ParseDuration(envRequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	return cfg, nil
}

func (c *Config) loadJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	var durations struct {
		RequestTimeout string `json:"request_timeout"`
	}
	if err := json.Unmarshal(data, &durations); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if durations.RequestTimeout != "" {
		d, err := time.ParseDuration(durations.RequestTimeout)
		if err != nil {
			return fmt.Errorf("parse config %s: request_timeout: %w", path, err)
		}
		c.RequestTimeout = d
	}
	return nil
}

func getDefaultStoragePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "local_storage.json"
	}
	return filepath.Join(homeDir, ".url-mapper", "local_storage.json")
}
