package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benmeehan/fleet-agent/internal/constants"
	"github.com/benmeehan/fleet-agent/internal/mocks"
	"github.com/benmeehan/fleet-agent/pkg/file"
	"github.com/benmeehan/fleet-agent/pkg/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SAAS_URL", "AGENT_ID", "AGENT_SECRET", "INTERVAL", "AUTH_MODE", "LOG_LEVEL"} {
		t.Setenv(EnvPrefix+"_"+key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
service:
  url: https://fleet.example.com
agent:
  id: agent-7
  secret: s3cret
heartbeat:
  interval: 60s
  follow_server_policy: true
mqtt:
  enabled: true
  broker: tcp://broker:1883
  topic: fleet/status
  qos: 1
metrics_server:
  listen: ":9102"
`)

	cfg, err := LoadConfig(path, file.NewFileService())

	require.NoError(t, err)
	assert.Equal(t, "https://fleet.example.com", cfg.Service.URL)
	assert.Equal(t, "agent-7", cfg.Agent.ID)
	assert.Equal(t, "s3cret", cfg.Agent.Secret)
	assert.Equal(t, time.Minute, cfg.Heartbeat.Interval)
	assert.True(t, cfg.Heartbeat.FollowServerPolicy)
	assert.Equal(t, constants.DefaultHeartbeatTimeout, cfg.Heartbeat.Timeout, "unset keys keep defaults")
	assert.Equal(t, constants.AuthModeSigned, cfg.Auth.Mode)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, ":9102", cfg.MetricsServer.Listen)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), file.NewFileService())

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 300*time.Second, cfg.Heartbeat.Interval)
	assert.Equal(t, "http://localhost:3000", cfg.Service.URL)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "agent:\n  id: from-file\n  secret: file-secret\n")
	t.Setenv("CLAWFLEET_SAAS_URL", "http://saas:8080")
	t.Setenv("CLAWFLEET_AGENT_ID", "from-env")
	t.Setenv("CLAWFLEET_INTERVAL", "45")
	t.Setenv("CLAWFLEET_AUTH_MODE", "legacy")
	t.Setenv("CLAWFLEET_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path, file.NewFileService())

	require.NoError(t, err)
	assert.Equal(t, "http://saas:8080", cfg.Service.URL)
	assert.Equal(t, "from-env", cfg.Agent.ID)
	assert.Equal(t, "file-secret", cfg.Agent.Secret)
	assert.Equal(t, 45*time.Second, cfg.Heartbeat.Interval)
	assert.Equal(t, constants.AuthModeLegacy, cfg.Auth.Mode)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_InvalidIntervalEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLAWFLEET_INTERVAL", "five minutes")

	_, err := LoadConfig("", file.NewFileService())

	assert.Error(t, err)
}

func TestLoadConfig_ParseError(t *testing.T) {
	clearEnv(t)
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("IsFileExists", "config.yaml").Return(true, nil)
	fileClient.On("ReadYamlFile", "config.yaml", mock.Anything).Return(errors.New("yaml: line 1"))

	_, err := LoadConfig("config.yaml", fileClient)

	assert.ErrorContains(t, err, "yaml: line 1")
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, ".env", "CLAWFLEET_AGENT_ID=dotenv-agent\nCLAWFLEET_AGENT_SECRET=dotenv-secret\n")
	// godotenv does not override variables that are already set, even when empty.
	require.NoError(t, os.Unsetenv("CLAWFLEET_AGENT_ID"))
	require.NoError(t, os.Unsetenv("CLAWFLEET_AGENT_SECRET"))
	t.Cleanup(func() {
		os.Unsetenv("CLAWFLEET_AGENT_ID")
		os.Unsetenv("CLAWFLEET_AGENT_SECRET")
	})

	require.NoError(t, LoadEnvFile(path, file.NewFileService()))
	cfg, err := LoadConfig("", file.NewFileService())

	require.NoError(t, err)
	assert.Equal(t, "dotenv-agent", cfg.Agent.ID)
	assert.Equal(t, "dotenv-secret", cfg.Agent.Secret)
}

func TestLoadEnvFile_DefaultMissing(t *testing.T) {
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("IsFileExists", ".env").Return(false, nil)

	assert.NoError(t, LoadEnvFile("", fileClient))
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Agent.ID = "agent-1"
		c.Agent.Secret = "secret"
		return c
	}
	require.NoError(t, valid().Validate())

	c := valid()
	c.Agent.ID = ""
	assert.ErrorIs(t, c.Validate(), identity.ErrMissingAgentID)

	c = valid()
	c.Agent.Secret = ""
	assert.ErrorIs(t, c.Validate(), identity.ErrMissingAgentSecret)

	c = valid()
	c.Heartbeat.Interval = 0
	assert.Error(t, c.Validate())

	for name, zero := range map[string]func(c *Config){
		"handshake_timeout": func(c *Config) { c.Heartbeat.HandshakeTimeout = 0 },
		"timeout":           func(c *Config) { c.Heartbeat.Timeout = -time.Second },
		"probe_timeout":     func(c *Config) { c.Gateway.ProbeTimeout = 0 },
		"command_timeout":   func(c *Config) { c.Metrics.CommandTimeout = 0 },
	} {
		c = valid()
		zero(c)
		assert.ErrorContains(t, c.Validate(), name)
	}

	c = valid()
	c.Auth.Mode = "oauth"
	assert.Error(t, c.Validate())

	c = valid()
	c.Service.URL = "localhost:3000"
	assert.Error(t, c.Validate())

	c = valid()
	c.MQTT.Enabled = true
	assert.Error(t, c.Validate())
	c.MQTT.Broker = "tcp://broker:1883"
	c.MQTT.Topic = "status"
	c.MQTT.QOS = 3
	assert.Error(t, c.Validate())
	c.MQTT.QOS = 1
	assert.NoError(t, c.Validate())
}
