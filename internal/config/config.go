package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Backend  BackendConfig  `yaml:"backend"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Publish  PublishConfig  `yaml:"publish"`
	Health   HealthConfig   `yaml:"health"`
	LogLevel string         `yaml:"log_level"`
}

// RabbitMQConfig configures the event fan-out. Leaving URL empty disables
// event publishing entirely.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// BackendConfig points at the automation bridge that drives the
// marketplace browser session.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type AnalysisConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type PublishConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	PollTimeout  time.Duration `yaml:"poll_timeout"`
	LogCapacity  int           `yaml:"log_capacity"`
}

type HealthConfig struct {
	Interval time.Duration `yaml:"interval"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.RabbitMQ.URL != "" {
		if c.RabbitMQ.Exchange == "" {
			c.RabbitMQ.Exchange = "scalency"
		}
		if c.RabbitMQ.RoutingKey == "" {
			c.RabbitMQ.RoutingKey = "listings"
		}
		if c.RabbitMQ.QueueName == "" {
			c.RabbitMQ.QueueName = "dashboard_listings"
		}
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://127.0.0.1:8000"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 30 * time.Second
	}
	if c.Analysis.BaseURL == "" {
		c.Analysis.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.Analysis.Model == "" {
		c.Analysis.Model = "gemini-3-flash-preview"
	}
	if c.Analysis.Timeout == 0 {
		c.Analysis.Timeout = 60 * time.Second
	}
	if c.Analysis.Retry.MaxAttempts == 0 {
		c.Analysis.Retry.MaxAttempts = 3
	}
	if c.Analysis.Retry.InitialBackoff == 0 {
		c.Analysis.Retry.InitialBackoff = 1 * time.Second
	}
	if c.Analysis.Retry.MaxBackoff == 0 {
		c.Analysis.Retry.MaxBackoff = 30 * time.Second
	}
	if c.Publish.PollInterval == 0 {
		c.Publish.PollInterval = 1500 * time.Millisecond
	}
	if c.Publish.PollTimeout == 0 {
		c.Publish.PollTimeout = 5 * time.Minute
	}
	if c.Publish.LogCapacity == 0 {
		c.Publish.LogCapacity = 10
	}
	if c.Health.Interval == 0 {
		c.Health.Interval = 5 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
