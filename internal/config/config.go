// Package config loads the agent's runtime configuration from the
// environment, with an optional YAML file as the base layer.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultListenAddr   = ":8080"
	DefaultAPIVersion   = "v1"
	DefaultAgentName    = "Employee-Assistance"
	DefaultPollInterval = 900 * time.Millisecond
	DefaultRunTimeout   = 120 * time.Second
)

// Config is the full runtime configuration surface.
type Config struct {
	// Hosted agents platform.
	ProjectEndpoint string `yaml:"project_endpoint"`
	ModelDeployment string `yaml:"model_deployment"`
	AgentID         string `yaml:"agent_id"`
	AgentName       string `yaml:"agent_name"`
	APIVersion      string `yaml:"api_version"`
	Token           string `yaml:"token"`

	// Backend tool operations.
	OpenAPISchemaURL string `yaml:"openapi_schema_url"`
	ValidateURL      string `yaml:"validate_url"`
	UpdateURL        string `yaml:"update_url"`

	// Turn orchestration.
	PollInterval time.Duration `yaml:"poll_interval"`
	RunTimeout   time.Duration `yaml:"run_timeout"`

	// HTTP entry point.
	ListenAddr    string `yaml:"listen_addr"`
	RequireAPIKey bool   `yaml:"require_api_key"`
	APIKey        string `yaml:"api_key"`

	// Session persistence. Empty RedisAddr keeps sessions in memory.
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	SessionTTL    time.Duration `yaml:"session_ttl"`

	// SessionEncryptionKey seals sessions at rest when set. Base64 of 32
	// random bytes.
	SessionEncryptionKey string `yaml:"session_encryption_key"`

	LogLevel string `yaml:"log_level"`
}

// envBindings maps environment variables onto Config fields. The names follow
// the original deployment's .env surface.
var envBindings = []struct {
	name  string
	apply func(*Config, string) error
}{
	{"PROJECT_ENDPOINT", func(c *Config, v string) error { c.ProjectEndpoint = v; return nil }},
	{"MODEL_DEPLOYMENT_NAME", func(c *Config, v string) error { c.ModelDeployment = v; return nil }},
	{"AGENT_ID", func(c *Config, v string) error { c.AgentID = v; return nil }},
	{"AGENT_NAME", func(c *Config, v string) error { c.AgentName = v; return nil }},
	{"API_VERSION", func(c *Config, v string) error { c.APIVersion = v; return nil }},
	{"AGENT_TOKEN", func(c *Config, v string) error { c.Token = v; return nil }},
	{"OPENAPI_SCHEMA_URL", func(c *Config, v string) error { c.OpenAPISchemaURL = v; return nil }},
	{"EMPLOYEE_VALIDATE_URL", func(c *Config, v string) error { c.ValidateURL = v; return nil }},
	{"EMPLOYEE_UPDATE_URL", func(c *Config, v string) error { c.UpdateURL = v; return nil }},
	{"POLL_INTERVAL", func(c *Config, v string) error { return setDuration(&c.PollInterval, v) }},
	{"RUN_TIMEOUT", func(c *Config, v string) error { return setDuration(&c.RunTimeout, v) }},
	{"LISTEN_ADDR", func(c *Config, v string) error { c.ListenAddr = v; return nil }},
	{"REQUIRE_X_API_KEY", func(c *Config, v string) error { return setBool(&c.RequireAPIKey, v) }},
	{"X_API_KEY", func(c *Config, v string) error { c.APIKey = v; return nil }},
	{"REDIS_ADDR", func(c *Config, v string) error { c.RedisAddr = v; return nil }},
	{"REDIS_PASSWORD", func(c *Config, v string) error { c.RedisPassword = v; return nil }},
	{"REDIS_DB", func(c *Config, v string) error { return setInt(&c.RedisDB, v) }},
	{"SESSION_TTL", func(c *Config, v string) error { return setDuration(&c.SessionTTL, v) }},
	{"SESSION_ENCRYPTION_KEY", func(c *Config, v string) error { c.SessionEncryptionKey = v; return nil }},
	{"LOG_LEVEL", func(c *Config, v string) error { c.LogLevel = v; return nil }},
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", v, err)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return fmt.Errorf("invalid boolean %q: %w", v, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", v, err)
	}
	*dst = n
	return nil
}

// Load builds the configuration: defaults, then the YAML file at path (when
// non-empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		AgentName:    DefaultAgentName,
		APIVersion:   DefaultAPIVersion,
		PollInterval: DefaultPollInterval,
		RunTimeout:   DefaultRunTimeout,
		ListenAddr:   DefaultListenAddr,
		LogLevel:     "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	for _, binding := range envBindings {
		v, ok := os.LookupEnv(binding.name)
		if !ok || v == "" {
			continue
		}
		if err := binding.apply(cfg, v); err != nil {
			return nil, fmt.Errorf("%s: %w", binding.name, err)
		}
	}

	return cfg, nil
}

// MissingError reports every absent required setting at once.
type MissingError struct {
	Fields []string
}

func (e *MissingError) Error() string {
	return "missing configuration: " + strings.Join(e.Fields, ", ")
}

// ValidateRemote checks the settings required to run against the hosted
// agents platform.
func (c *Config) ValidateRemote() error {
	var missing []string
	if c.ProjectEndpoint == "" {
		missing = append(missing, "PROJECT_ENDPOINT")
	}
	if c.AgentID == "" {
		missing = append(missing, "AGENT_ID")
	}
	if c.Token == "" {
		missing = append(missing, "AGENT_TOKEN")
	}
	if len(missing) > 0 {
		return &MissingError{Fields: missing}
	}
	return nil
}

// ValidateProvision checks the settings required to provision a hosted agent.
func (c *Config) ValidateProvision() error {
	var missing []string
	if c.ProjectEndpoint == "" {
		missing = append(missing, "PROJECT_ENDPOINT")
	}
	if c.ModelDeployment == "" {
		missing = append(missing, "MODEL_DEPLOYMENT_NAME")
	}
	if c.OpenAPISchemaURL == "" {
		missing = append(missing, "OPENAPI_SCHEMA_URL")
	}
	if c.ValidateURL == "" {
		missing = append(missing, "EMPLOYEE_VALIDATE_URL")
	}
	if c.UpdateURL == "" {
		missing = append(missing, "EMPLOYEE_UPDATE_URL")
	}
	if c.Token == "" {
		missing = append(missing, "AGENT_TOKEN")
	}
	if len(missing) > 0 {
		return &MissingError{Fields: missing}
	}
	return nil
}

// SessionKey decodes the configured session encryption key. It returns nil
// when encryption is not configured.
func (c *Config) SessionKey() ([]byte, error) {
	if c.SessionEncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.SessionEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("SESSION_ENCRYPTION_KEY: invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("SESSION_ENCRYPTION_KEY: need 32 bytes, got %d", len(key))
	}
	return key, nil
}

// ValidateLocal checks the settings required to run the local engine host.
func (c *Config) ValidateLocal() error {
	var missing []string
	if c.ValidateURL == "" {
		missing = append(missing, "EMPLOYEE_VALIDATE_URL")
	}
	if c.UpdateURL == "" {
		missing = append(missing, "EMPLOYEE_UPDATE_URL")
	}
	if len(missing) > 0 {
		return &MissingError{Fields: missing}
	}
	return nil
}
