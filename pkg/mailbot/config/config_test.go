package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `version: v1
smtp:
  host: smtp.example.com
  port: 465
  username: bot@example.com
  sender-name: Example Bot
retry:
  max-attempts: 5
send:
  interval-ms: 500
audit:
  file: audit.jsonl
  kafka:
    brokers:
      - broker-1:9092
    topic: mailbot-audit
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, VersionV1, cfg.Version)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, "bot@example.com", cfg.SMTP.Username)
	assert.Equal(t, "Example Bot", cfg.SMTP.SenderName)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500, cfg.Send.IntervalMs)
	assert.Equal(t, "audit.jsonl", cfg.Audit.File)
	assert.Equal(t, []string{"broker-1:9092"}, cfg.Audit.Kafka.Brokers)
	assert.Equal(t, "mailbot-audit", cfg.Audit.Kafka.Topic)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("smtp:\n  host: mail.example.com\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, VersionV1, cfg.Version, "missing version defaults to v1")
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 1000, cfg.Retry.InitialBackoffMs)
	assert.Equal(t, 32000, cfg.Retry.MaxBackoffMs)
	assert.Equal(t, 2000, cfg.Send.IntervalMs)
	assert.Equal(t, "reports", cfg.Send.ReportDir)
	assert.Equal(t, "logs", cfg.Send.LogDir)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		description string
		content     string
		missing     bool
	}{
		{
			description: "missing file",
			missing:     true,
		},
		{
			description: "invalid yaml",
			content:     "smtp: [not a map",
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if !tc.missing {
				require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o600))
			}
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.SMTP.Host = "smtp.example.com"
	cfg.SMTP.Username = "bot@example.com"

	require.NoError(t, Save(path, &cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		description string
		mutate      func(*Config)
		wantErr     string
	}{
		{
			description: "defaults are valid",
			mutate:      func(*Config) {},
		},
		{
			description: "port out of range",
			mutate:      func(c *Config) { c.SMTP.Port = 70000 },
			wantErr:     "port out of range",
		},
		{
			description: "negative max attempts",
			mutate:      func(c *Config) { c.Retry.MaxAttempts = -1 },
			wantErr:     "cannot be negative",
		},
		{
			description: "kafka topic without brokers",
			mutate:      func(c *Config) { c.Audit.Kafka.Topic = "audit" },
			wantErr:     "no brokers",
		},
		{
			description: "blank kafka broker",
			mutate: func(c *Config) {
				c.Audit.Kafka.Topic = "audit"
				c.Audit.Kafka.Brokers = []string{" "}
			},
			wantErr: "broker cannot be empty",
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("MAILBOT_CONFIG", "/tmp/custom/mailbot.yaml")
	assert.Equal(t, "/tmp/custom/mailbot.yaml", DefaultConfigPath())

	t.Setenv("MAILBOT_CONFIG", "")
	path := DefaultConfigPath()
	assert.Contains(t, path, "mailbot")
	assert.Equal(t, "config.yaml", filepath.Base(path))
}
