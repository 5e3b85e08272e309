package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Fundingflow FundingflowConfig `yaml:"fundingflow"`
	Server      ServerConfig      `yaml:"server"`
	Redis       RedisConfig       `yaml:"redis"`
	Database    DatabaseConfig    `yaml:"database"`
	Fetch       FetchConfig       `yaml:"fetch"`
	Exchanges   ExchangesConfig   `yaml:"exchanges"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type FundingflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// TTL returns the snapshot cache time-to-live.
func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DSN renders the pgx connection string.
func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslMode)
}

type FetchConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ExchangesConfig carries per-venue credentials. Venues without an entry
// here are credential-less and always enabled.
type ExchangesConfig struct {
	Lighter     APIKeyConfig    `yaml:"lighter"`
	Aster       APISecretConfig `yaml:"aster"`
	Variational APISecretConfig `yaml:"variational"`
	EdgeX       APIKeyConfig    `yaml:"edgex"`
	Grvt        APIKeyConfig    `yaml:"grvt"`
}

type APIKeyConfig struct {
	APIKey string `yaml:"api_key"`
}

type APISecretConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Server: ServerConfig{Address: ":3001"},
		Redis:  RedisConfig{Addr: "localhost:6379", TTLSeconds: 30},
		Fetch:  FetchConfig{Interval: 30 * time.Second},
		Database: DatabaseConfig{
			Host: "localhost",
			Port: 5432,
			Name: "funding_rates",
			User: "postgres",
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides lets deployment environments inject connection details
// and venue credentials without touching the YAML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = strings.TrimSpace(v)
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = strings.TrimSpace(v)
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = strings.TrimSpace(v)
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = strings.TrimSpace(v)
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Name = strings.TrimSpace(v)
	}

	if v := os.Getenv("LIGHTER_API_KEY"); v != "" {
		cfg.Exchanges.Lighter.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("ASTER_API_KEY"); v != "" {
		cfg.Exchanges.Aster.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("ASTER_API_SECRET"); v != "" {
		cfg.Exchanges.Aster.APISecret = strings.TrimSpace(v)
	}
	if v := os.Getenv("VARIATIONAL_API_KEY"); v != "" {
		cfg.Exchanges.Variational.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("VARIATIONAL_API_SECRET"); v != "" {
		cfg.Exchanges.Variational.APISecret = strings.TrimSpace(v)
	}
	if v := os.Getenv("EDGEX_API_KEY"); v != "" {
		cfg.Exchanges.EdgeX.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("GRVT_API_KEY"); v != "" {
		cfg.Exchanges.Grvt.APIKey = strings.TrimSpace(v)
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Fundingflow.Name == "" {
		return fmt.Errorf("fundingflow.name is required")
	}

	if cfg.Fundingflow.Version == "" {
		return fmt.Errorf("fundingflow.version is required")
	}

	if cfg.Fetch.Interval <= 0 {
		return fmt.Errorf("fetch.interval must be greater than 0")
	}

	if cfg.Redis.TTLSeconds <= 0 {
		return fmt.Errorf("redis.ttl_seconds must be greater than 0")
	}

	if cfg.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}

	if cfg.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}

	return nil
}
