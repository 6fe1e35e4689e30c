package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

// PoolConfig controls the FTP session pool.
type PoolConfig struct {
	MaxClients               int `yaml:"max_clients"`
	AcquireTimeoutMs         int `yaml:"acquire_timeout_ms"`
	KeepAliveIntervalSeconds int `yaml:"keepalive_interval_seconds"`
}

type Config struct {
	Host             string     `yaml:"host"`
	Port             int        `yaml:"port"`
	User             string     `yaml:"user"`
	Password         string     `yaml:"password"`
	ExplicitTLS      bool       `yaml:"explicit_tls"`
	ConnectTimeoutMs int        `yaml:"connect_timeout_ms"`
	DBPath           string     `yaml:"db_path"`
	BufferSize       string     `yaml:"buffer_size"` // human-readable, e.g. "128KiB"
	Debug            bool       `yaml:"debug"`
	Pool             PoolConfig `yaml:"pool"`
}

func Load(yamlPath string) (*Config, error) {
	cfg := &Config{
		Host:             "localhost",
		Port:             21,
		User:             "anonymous",
		Password:         "anonymous",
		ConnectTimeoutMs: 10000,
		DBPath:           "./ftpfs.db",
		BufferSize:       "128KiB",
		Pool: PoolConfig{
			MaxClients:               5,
			AcquireTimeoutMs:         30000,
			KeepAliveIntervalSeconds: 60,
		},
	}

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Pool.MaxClients < 1 {
		return fmt.Errorf("pool.max_clients must be >= 1, got %d", c.Pool.MaxClients)
	}
	if c.Pool.AcquireTimeoutMs < 0 {
		return fmt.Errorf("pool.acquire_timeout_ms must not be negative")
	}
	if _, err := units.RAMInBytes(c.BufferSize); err != nil {
		return fmt.Errorf("invalid buffer_size %q: %w", c.BufferSize, err)
	}
	return nil
}

// Addr returns the host:port dial target.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMs) * time.Millisecond
}

// AcquireTimeout returns the pool acquire timeout; 0 means wait indefinitely.
func (c *Config) AcquireTimeout() time.Duration {
	return time.Duration(c.Pool.AcquireTimeoutMs) * time.Millisecond
}

func (c *Config) KeepAliveInterval() time.Duration {
	return time.Duration(c.Pool.KeepAliveIntervalSeconds) * time.Second
}

// BufferBytes returns the parsed transfer buffer size.
// validate guarantees the value parses, so the error is ignored here.
func (c *Config) BufferBytes() int {
	n, _ := units.RAMInBytes(c.BufferSize)
	return int(n)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FTPFS_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("FTPFS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("FTPFS_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("FTPFS_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("FTPFS_EXPLICIT_TLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ExplicitTLS = b
		}
	}
	if v := os.Getenv("FTPFS_CONNECT_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ConnectTimeoutMs = n
		}
	}
	if v := os.Getenv("FTPFS_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("FTPFS_BUFFER_SIZE"); v != "" {
		cfg.BufferSize = v
	}
	if v := os.Getenv("FTPFS_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	if v := os.Getenv("FTPFS_MAX_CLIENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pool.MaxClients = n
		}
	}
	if v := os.Getenv("FTPFS_ACQUIRE_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pool.AcquireTimeoutMs = n
		}
	}
	if v := os.Getenv("FTPFS_KEEPALIVE_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pool.KeepAliveIntervalSeconds = n
		}
	}
}
