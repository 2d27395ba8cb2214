package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/chemion/internal/session"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	LogLevel       string        `yaml:"log_level" json:"log_level" default:"info"`
	ListenAddr     string        `yaml:"listen_addr" json:"listen_addr" default:":8000"`
	ScanWindow     time.Duration `yaml:"scan_window" json:"scan_window" default:"2s"`
	PacketInterval time.Duration `yaml:"packet_interval" json:"packet_interval" default:"0s"`
	RebindPolicy   string        `yaml:"rebind_policy" json:"rebind_policy" default:"replace"` // replace, require-disconnect
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML file over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("listen_addr must not be empty")
	}
	if c.ScanWindow <= 0 {
		return fmt.Errorf("scan_window must be positive, got %s", c.ScanWindow)
	}
	if c.PacketInterval < 0 {
		return fmt.Errorf("packet_interval must not be negative, got %s", c.PacketInterval)
	}
	if _, err := session.ParseRebindPolicy(c.RebindPolicy); err != nil {
		return fmt.Errorf("rebind_policy: %w", err)
	}
	return nil
}

// Level returns the parsed log level, falling back to info
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// SessionOptions derives the session settings from the config
func (c *Config) SessionOptions() *session.Options {
	policy, err := session.ParseRebindPolicy(c.RebindPolicy)
	if err != nil {
		policy = session.RebindReplace
	}
	return &session.Options{
		ScanWindow:   c.ScanWindow,
		RebindPolicy: policy,
	}
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.Level())

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
