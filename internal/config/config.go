package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Retry     RetryConfig     `yaml:"retry"`
	Seed      bool            `yaml:"seed"`
}

type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// StoreConfig selects the persistence backend. DSN is used by the sqlite and
// postgres drivers, Dir by the file driver.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Dir    string `yaml:"dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverFile     = "file"
	DriverMemory   = "memory"

	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			DSN:    "taskboard.db",
			Dir:    "data",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: TransportHTTP,
		},
		Retry: RetryConfig{
			Attempts: 3,
			Delay:    time.Second,
		},
		Seed: true,
	}
}

// Load reads .env, then an optional YAML file, then environment variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("TASKBOARD_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("TASKBOARD_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("TASKBOARD_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid TASKBOARD_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if origins := os.Getenv("TASKBOARD_CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = splitList(origins)
	}
	if driver := os.Getenv("TASKBOARD_STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = strings.ToLower(driver)
	}
	if dsn := os.Getenv("TASKBOARD_STORE_DSN"); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if dir := os.Getenv("TASKBOARD_STORE_DIR"); dir != "" {
		cfg.Store.Dir = dir
	}
	if level := os.Getenv("TASKBOARD_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if path := os.Getenv("TASKBOARD_LOG_PATH"); path != "" {
		cfg.Log.Path = path
	}
	if mode := os.Getenv("TASKBOARD_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = strings.ToLower(mode)
	}
	if seed := os.Getenv("TASKBOARD_SEED"); seed != "" {
		v, err := strconv.ParseBool(seed)
		if err != nil {
			return fmt.Errorf("invalid TASKBOARD_SEED: %w", err)
		}
		cfg.Seed = v
	}
	if attempts := os.Getenv("TASKBOARD_RETRY_ATTEMPTS"); attempts != "" {
		n, err := strconv.Atoi(attempts)
		if err != nil {
			return fmt.Errorf("invalid TASKBOARD_RETRY_ATTEMPTS: %w", err)
		}
		cfg.Retry.Attempts = n
	}
	if delay := os.Getenv("TASKBOARD_RETRY_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid TASKBOARD_RETRY_DELAY: %w", err)
		}
		cfg.Retry.Delay = d
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver %q", c.Store.Driver)
		}
	case DriverFile:
		if c.Store.Dir == "" {
			return errors.New("store.dir is required for driver \"file\"")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Transport.Mode {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("unknown transport mode %q", c.Transport.Mode)
	}

	if c.Retry.Attempts < 1 {
		return errors.New("retry.attempts must be at least 1")
	}
	if c.Retry.Delay < 0 {
		return errors.New("retry.delay must not be negative")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
