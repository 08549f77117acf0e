package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	VersionV1 = "v1"
)

type Config struct {
	Version string      `yaml:"version"`
	SMTP    SMTPConfig  `yaml:"smtp,omitempty"`
	Retry   RetryConfig `yaml:"retry,omitempty"`
	Send    SendConfig  `yaml:"send,omitempty"`
	Audit   AuditConfig `yaml:"audit,omitempty"`
}

type SMTPConfig struct {
	Host               string `yaml:"host,omitempty"`
	Port               int    `yaml:"port,omitempty"`
	Username           string `yaml:"username,omitempty"`
	SenderAddress      string `yaml:"sender-address,omitempty"`
	SenderName         string `yaml:"sender-name,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure-skip-tls-verify,omitempty"`
}

type RetryConfig struct {
	MaxAttempts      int `yaml:"max-attempts,omitempty"`
	InitialBackoffMs int `yaml:"initial-backoff-ms,omitempty"`
	MaxBackoffMs     int `yaml:"max-backoff-ms,omitempty"`
}

type SendConfig struct {
	IntervalMs int    `yaml:"interval-ms,omitempty"`
	ReportDir  string `yaml:"report-dir,omitempty"`
	LogDir     string `yaml:"log-dir,omitempty"`
}

type AuditConfig struct {
	File  string      `yaml:"file,omitempty"`
	Kafka KafkaConfig `yaml:"kafka,omitempty"`
}

type KafkaConfig struct {
	Brokers  []string `yaml:"brokers,omitempty"`
	Topic    string   `yaml:"topic,omitempty"`
	Username string   `yaml:"username,omitempty"`
	// PasswordEnv names the environment variable holding the SASL password,
	// so the config file never carries a secret.
	PasswordEnv string `yaml:"password-env,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Version: VersionV1,
		SMTP: SMTPConfig{
			Host: "smtp.gmail.com",
			Port: 587,
		},
		Retry: RetryConfig{
			MaxAttempts:      3,
			InitialBackoffMs: 1000,
			MaxBackoffMs:     32000,
		},
		Send: SendConfig{
			IntervalMs: 2000,
			ReportDir:  "reports",
			LogDir:     "logs",
		},
	}
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault loads the config file when it exists and falls back to
// DefaultConfig when it doesn't, so every setting can also come from flags
// alone.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			def := DefaultConfig()
			return &def, nil
		}
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.SMTP.Port == 0 {
		c.SMTP.Port = def.SMTP.Port
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if c.Retry.InitialBackoffMs == 0 {
		c.Retry.InitialBackoffMs = def.Retry.InitialBackoffMs
	}
	if c.Retry.MaxBackoffMs == 0 {
		c.Retry.MaxBackoffMs = def.Retry.MaxBackoffMs
	}
	if c.Send.IntervalMs == 0 {
		c.Send.IntervalMs = def.Send.IntervalMs
	}
	if c.Send.ReportDir == "" {
		c.Send.ReportDir = def.Send.ReportDir
	}
	if c.Send.LogDir == "" {
		c.Send.LogDir = def.Send.LogDir
	}
}

func (c *Config) Validate() error {
	if c.Version == "" {
		return errors.New("config version missing")
	}
	if c.SMTP.Port < 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp port out of range: %d", c.SMTP.Port)
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry max-attempts cannot be negative: %d", c.Retry.MaxAttempts)
	}
	if c.Audit.Kafka.Topic != "" && len(c.Audit.Kafka.Brokers) == 0 {
		return errors.New("audit kafka topic set but no brokers configured")
	}
	for _, b := range c.Audit.Kafka.Brokers {
		if strings.TrimSpace(b) == "" {
			return errors.New("audit kafka broker cannot be empty")
		}
	}
	return nil
}
