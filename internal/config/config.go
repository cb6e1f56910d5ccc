// Copyright 2025 Joseph Cumines
//
// Daemon configuration: defaults, YAML file, environment, flags

// Package config resolves the daemon's configuration from four layers,
// each overriding the last: built-in defaults, an optional YAML file,
// SCREENPILOT_* environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the daemon configuration. Token is the resolved bearer
// token; when TokenFile is set it is the file's trimmed contents and the
// file remains authoritative for reloads.
type Config struct {
	Port         int
	Token        string
	TokenFile    string
	ArtifactDir  string
	Workers      int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AuditLog     string
	Debug        bool
}

// Default returns the built-in configuration. The artifact directory
// lands under the OS user cache dir, falling back to the system temp dir
// when no cache dir is resolvable.
func Default() *Config {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return &Config{
		Port:         4477,
		ArtifactDir:  filepath.Join(cacheDir, "screenpilot"),
		Workers:      8,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// fileConfig is the YAML shape. Pointer fields distinguish an absent key
// from an explicit zero so the file only overrides what it names.
type fileConfig struct {
	Port         *int    `yaml:"port"`
	Token        *string `yaml:"token"`
	TokenFile    *string `yaml:"token_file"`
	ArtifactDir  *string `yaml:"artifact_dir"`
	Workers      *int    `yaml:"workers"`
	ReadTimeout  *string `yaml:"read_timeout"`
	WriteTimeout *string `yaml:"write_timeout"`
	AuditLog     *string `yaml:"audit_log"`
	Debug        *bool   `yaml:"debug"`
}

// Load resolves the configuration from args (flags, without the program
// name) and the process environment, then validates it.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("screenpilotd", pflag.ContinueOnError)
	port := fs.Int("port", 0, "listen port on 127.0.0.1")
	tokenFile := fs.String("token-file", "", "file holding the bearer token, re-read on SIGHUP")
	artifactDir := fs.String("artifact-dir", "", "directory for capture artifacts")
	auditLog := fs.String("audit-log", "", "audit log file (empty disables audit logging)")
	debug := fs.Bool("debug", false, "verbose logging")
	configFile := fs.String("config", "", "YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()

	// The file layer: named by flag, else by env.
	path := *configFile
	if path == "" {
		path = os.Getenv("SCREENPILOT_CONFIG")
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	// The flag layer: only flags actually set override.
	if fs.Changed("port") {
		cfg.Port = *port
	}
	if fs.Changed("token-file") {
		cfg.TokenFile = *tokenFile
	}
	if fs.Changed("artifact-dir") {
		cfg.ArtifactDir = *artifactDir
	}
	if fs.Changed("audit-log") {
		cfg.AuditLog = *auditLog
	}
	if fs.Changed("debug") {
		cfg.Debug = *debug
	}

	// A token file outranks a literal token wherever both appear, since
	// the file is what rotation rewrites.
	if cfg.TokenFile != "" {
		token, err := ReadTokenFile(cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		cfg.Token = token
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Port != nil {
		c.Port = *fc.Port
	}
	if fc.Token != nil {
		c.Token = *fc.Token
	}
	if fc.TokenFile != nil {
		c.TokenFile = *fc.TokenFile
	}
	if fc.ArtifactDir != nil {
		c.ArtifactDir = *fc.ArtifactDir
	}
	if fc.Workers != nil {
		c.Workers = *fc.Workers
	}
	if fc.ReadTimeout != nil {
		d, err := time.ParseDuration(*fc.ReadTimeout)
		if err != nil {
			return fmt.Errorf("config file read_timeout: %w", err)
		}
		c.ReadTimeout = d
	}
	if fc.WriteTimeout != nil {
		d, err := time.ParseDuration(*fc.WriteTimeout)
		if err != nil {
			return fmt.Errorf("config file write_timeout: %w", err)
		}
		c.WriteTimeout = d
	}
	if fc.AuditLog != nil {
		c.AuditLog = *fc.AuditLog
	}
	if fc.Debug != nil {
		c.Debug = *fc.Debug
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error
	if c.Port, err = getEnvAsInt("SCREENPILOT_PORT", c.Port); err != nil {
		return err
	}
	c.Token = getEnv("SCREENPILOT_TOKEN", c.Token)
	c.TokenFile = getEnv("SCREENPILOT_TOKEN_FILE", c.TokenFile)
	c.ArtifactDir = getEnv("SCREENPILOT_ARTIFACT_DIR", c.ArtifactDir)
	if c.Workers, err = getEnvAsInt("SCREENPILOT_WORKERS", c.Workers); err != nil {
		return err
	}
	if c.ReadTimeout, err = getEnvAsDuration("SCREENPILOT_READ_TIMEOUT", c.ReadTimeout); err != nil {
		return err
	}
	if c.WriteTimeout, err = getEnvAsDuration("SCREENPILOT_WRITE_TIMEOUT", c.WriteTimeout); err != nil {
		return err
	}
	c.AuditLog = getEnv("SCREENPILOT_AUDIT_LOG", c.AuditLog)
	c.Debug = getEnvAsBool("SCREENPILOT_DEBUG", c.Debug)
	return nil
}

// Validate rejects configurations the daemon must not run under. An empty
// token is an error: the gateway denies everything without one, so
// starting up would serve nothing but 401s.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range [1, 65535]", c.Port)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %s", c.ReadTimeout)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive, got %s", c.WriteTimeout)
	}
	if c.Token == "" {
		return fmt.Errorf("no bearer token configured: set SCREENPILOT_TOKEN, token_file, or --token-file")
	}
	return nil
}

// ReadTokenFile reads and trims a token file. Exposed so the daemon can
// re-read it on SIGHUP.
func ReadTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	return token, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	var result int
	_, err := fmt.Sscanf(value, "%d", &result)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q (expected integer)", key, value)
	}
	return result, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q (expected duration, e.g., '30s', '5m')", key, value)
	}
	return d, nil
}
