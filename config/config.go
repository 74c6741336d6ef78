package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Store     StoreConfig     `yaml:"store"`
	Transport TransportConfig `yaml:"transport"`
	Cluster   ClusterConfig   `yaml:"cluster"`
	Auth      AuthConfig      `yaml:"auth"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"required,min=1,max=65535"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host" validate:"required"`
	Port         int    `yaml:"port" validate:"required"`
	Username     string `yaml:"username" validate:"required"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database" validate:"required"`
	Charset      string `yaml:"charset"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StoreConfig bounds record-store mutations. Subscriptions are long-lived and
// carry no timeout.
type StoreConfig struct {
	OpTimeoutSeconds int    `yaml:"op_timeout_seconds" validate:"min=0"`
	ChangeChannel    string `yaml:"change_channel"`
}

type TransportConfig struct {
	NodeURL        string `yaml:"node_url" validate:"required,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type ClusterConfig struct {
	StatusURL           string `yaml:"status_url" validate:"required,url"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" validate:"required"`
}

var AppConfig *Config

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	AppConfig = cfg
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Database.Charset == "" {
		cfg.Database.Charset = "utf8mb4"
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 100
	}
	if cfg.Store.OpTimeoutSeconds == 0 {
		cfg.Store.OpTimeoutSeconds = 10
	}
	if cfg.Store.ChangeChannel == "" {
		cfg.Store.ChangeChannel = "godrive:records:changed"
	}
	if cfg.Transport.TimeoutSeconds == 0 {
		cfg.Transport.TimeoutSeconds = 30
	}
	if cfg.Cluster.PollIntervalSeconds == 0 {
		cfg.Cluster.PollIntervalSeconds = 60
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}
