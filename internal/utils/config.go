package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/benmeehan/fleet-agent/internal/constants"
	"github.com/benmeehan/fleet-agent/pkg/file"
	"github.com/benmeehan/fleet-agent/pkg/identity"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (CLAWFLEET_AGENT_ID, ...).
const EnvPrefix = "CLAWFLEET"

// Config represents the structure of the configuration file.
type Config struct {
	Service struct {
		URL string `yaml:"url"` // Base URL of the management service
	} `yaml:"service"`

	Agent struct {
		ID     string `yaml:"id"`     // Agent identifier
		Secret string `yaml:"secret"` // Shared secret used to sign handshakes
	} `yaml:"agent"`

	Auth struct {
		Mode string `yaml:"mode"` // "signed" (default) or "legacy"
	} `yaml:"auth"`

	Heartbeat struct {
		Interval           time.Duration `yaml:"interval"`             // Delay between cycles (e.g. 300s)
		HandshakeTimeout   time.Duration `yaml:"handshake_timeout"`    // Timeout for the handshake call
		Timeout            time.Duration `yaml:"timeout"`              // Timeout for the heartbeat call
		FollowServerPolicy bool          `yaml:"follow_server_policy"` // Adopt policy.heartbeat_interval from the server
	} `yaml:"heartbeat"`

	Gateway struct {
		ProbeTimeout time.Duration `yaml:"probe_timeout"` // Timeout for the gateway reachability check
	} `yaml:"gateway"`

	Metrics struct {
		CommandTimeout time.Duration `yaml:"command_timeout"` // Timeout for external sampling tools (ps, vm_stat, wmic)
	} `yaml:"metrics"`

	Log struct {
		Level      string `yaml:"level"`        // trace, debug, info, warn, error
		Format     string `yaml:"format"`       // json or console
		File       string `yaml:"file"`         // Optional rotating log file
		MaxSizeMB  int    `yaml:"max_size_mb"`  // Rotate after this many megabytes
		MaxBackups int    `yaml:"max_backups"`  // Rotated files to keep
		MaxAgeDays int    `yaml:"max_age_days"` // Days to keep rotated files
		Compress   bool   `yaml:"compress"`     // Gzip rotated files
	} `yaml:"log"`

	MQTT struct {
		Enabled       bool   `yaml:"enabled"`        // Mirror cycle status to MQTT
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID (defaults to the agent id)
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate; empty disables TLS
		Topic         string `yaml:"topic"`          // Status topic
		QOS           int    `yaml:"qos"`            // MQTT QoS level for status messages
	} `yaml:"mqtt"`

	MetricsServer struct {
		Listen string `yaml:"listen"` // Address for /metrics and /healthz; empty disables
	} `yaml:"metrics_server"`
}

// DefaultConfig returns a Config with every default applied and no identity.
func DefaultConfig() *Config {
	var c Config
	c.Service.URL = constants.DefaultServiceURL
	c.Auth.Mode = constants.AuthModeSigned
	c.Heartbeat.Interval = constants.DefaultInterval
	c.Heartbeat.HandshakeTimeout = constants.DefaultHandshakeTimeout
	c.Heartbeat.Timeout = constants.DefaultHeartbeatTimeout
	c.Gateway.ProbeTimeout = constants.DefaultProbeTimeout
	c.Metrics.CommandTimeout = constants.DefaultCommandTimeout
	c.Log.Level = "info"
	c.Log.Format = "json"
	c.Log.MaxSizeMB = 10
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
	return &c
}

// LoadConfig loads the YAML configuration from filename over the defaults, then applies
// environment overrides. A missing file is not an error.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	config := DefaultConfig()

	if filename != "" {
		exists, err := fileClient.IsFileExists(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if exists {
			if err := fileClient.ReadYamlFile(filename, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadEnvFile loads variables from a dotenv file without overriding ones already set.
// An empty path loads ".env" when present.
func LoadEnvFile(path string, fileClient file.FileOperations) error {
	if path == "" {
		path = ".env"
		exists, err := fileClient.IsFileExists(path)
		if err != nil || !exists {
			return err
		}
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(c *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range []string{"saas_url", "agent_id", "agent_secret", "interval", "auth_mode", "log_level"} {
		if err := v.BindEnv(key); err != nil {
			return err
		}
	}

	if v.IsSet("saas_url") {
		c.Service.URL = v.GetString("saas_url")
	}
	if v.IsSet("agent_id") {
		c.Agent.ID = v.GetString("agent_id")
	}
	if v.IsSet("agent_secret") {
		c.Agent.Secret = v.GetString("agent_secret")
	}
	if v.IsSet("auth_mode") {
		c.Auth.Mode = v.GetString("auth_mode")
	}
	if v.IsSet("log_level") {
		c.Log.Level = v.GetString("log_level")
	}
	if v.IsSet("interval") {
		seconds, err := strconv.Atoi(strings.TrimSpace(v.GetString("interval")))
		if err != nil {
			return fmt.Errorf("invalid %s_INTERVAL: %w", EnvPrefix, err)
		}
		c.Heartbeat.Interval = time.Duration(seconds) * time.Second
	}
	return nil
}

// Validate reports configuration errors. A missing agent id or secret is always fatal.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Agent.ID) == "" {
		return identity.ErrMissingAgentID
	}
	if c.Agent.Secret == "" {
		return identity.ErrMissingAgentSecret
	}

	var errs []error
	u, err := url.Parse(c.Service.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid service url %q", c.Service.URL))
	}
	if c.Heartbeat.Interval <= 0 {
		errs = append(errs, errors.New("heartbeat interval must be positive"))
	}
	for name, timeout := range map[string]time.Duration{
		"heartbeat.handshake_timeout": c.Heartbeat.HandshakeTimeout,
		"heartbeat.timeout":           c.Heartbeat.Timeout,
		"gateway.probe_timeout":       c.Gateway.ProbeTimeout,
		"metrics.command_timeout":     c.Metrics.CommandTimeout,
	} {
		if timeout <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, timeout))
		}
	}
	switch c.Auth.Mode {
	case constants.AuthModeSigned, constants.AuthModeLegacy:
	default:
		errs = append(errs, fmt.Errorf("unknown auth mode %q", c.Auth.Mode))
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" || c.MQTT.Topic == "" {
			errs = append(errs, errors.New("mqtt broker and topic are required when mqtt is enabled"))
		}
		if c.MQTT.QOS < 0 || c.MQTT.QOS > 2 {
			errs = append(errs, fmt.Errorf("invalid mqtt qos %d", c.MQTT.QOS))
		}
	}
	return errors.Join(errs...)
}
