package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers understood by the storage opener.
const (
	DriverSQLite     = "sqlite"
	DriverGormSQLite = "gorm-sqlite"
	DriverPostgres   = "postgres"
	DriverMemory     = "memory"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	// Mode is "http" or "stdio".
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	// Token, when set, is required as a bearer token on HTTP requests.
	Token string `yaml:"token"`
}

type DBConfig struct {
	Driver string `yaml:"driver"`
	// Path is the SQLite file used by the sqlite and gorm-sqlite drivers.
	Path string `yaml:"path"`
	// DSN is the connection string for postgres.
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type StoreConfig struct {
	AutoCommit         bool          `yaml:"auto_commit"`
	PageSize           int           `yaml:"page_size"`
	ScopedUserDeletion bool          `yaml:"scoped_user_deletion"`
	Retention          time.Duration `yaml:"retention"`
	PruneInterval      time.Duration `yaml:"prune_interval"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		DB: DBConfig{
			Driver: DriverSQLite,
			Path:   "convlog.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Store: StoreConfig{
			AutoCommit:    true,
			PageSize:      100,
			PruneInterval: time.Hour,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONVLOG_CONFIG_PATH"); path != "" {
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

// Validate checks values that cannot be corrected by defaults.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch c.DB.Driver {
	case DriverSQLite, DriverGormSQLite, DriverMemory:
	case DriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
	}
	if c.Store.PageSize < 0 {
		return fmt.Errorf("store.page_size must not be negative")
	}
	if c.Store.Retention < 0 {
		return fmt.Errorf("store.retention must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("CONVLOG_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CONVLOG_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid CONVLOG_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("CONVLOG_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if token := os.Getenv("CONVLOG_AUTH_TOKEN"); token != "" {
		cfg.Auth.Token = token
	}
	if driver := os.Getenv("CONVLOG_DB_DRIVER"); driver != "" {
		cfg.DB.Driver = driver
	}
	if dbPath := os.Getenv("CONVLOG_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if dsn := os.Getenv("CONVLOG_DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	}
	if level := os.Getenv("CONVLOG_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("CONVLOG_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if v := os.Getenv("CONVLOG_STORE_AUTO_COMMIT"); v != "" {
		autoCommit, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CONVLOG_STORE_AUTO_COMMIT: %w", err)
		}
		cfg.Store.AutoCommit = autoCommit
	}
	if v := os.Getenv("CONVLOG_STORE_PAGE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CONVLOG_STORE_PAGE_SIZE: %w", err)
		}
		cfg.Store.PageSize = size
	}
	if v := os.Getenv("CONVLOG_STORE_SCOPED_USER_DELETION"); v != "" {
		scoped, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CONVLOG_STORE_SCOPED_USER_DELETION: %w", err)
		}
		cfg.Store.ScopedUserDeletion = scoped
	}
	if v := os.Getenv("CONVLOG_STORE_RETENTION"); v != "" {
		retention, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CONVLOG_STORE_RETENTION: %w", err)
		}
		cfg.Store.Retention = retention
	}
	if v := os.Getenv("CONVLOG_STORE_PRUNE_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CONVLOG_STORE_PRUNE_INTERVAL: %w", err)
		}
		cfg.Store.PruneInterval = interval
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
