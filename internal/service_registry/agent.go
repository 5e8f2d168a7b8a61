package service_registry

import (
	"fmt"
	"io"
	"net/http"

	"github.com/benmeehan/fleet-agent/internal/constants"
	"github.com/benmeehan/fleet-agent/internal/metrics_collectors"
	"github.com/benmeehan/fleet-agent/internal/services"
	"github.com/benmeehan/fleet-agent/internal/utils"
	"github.com/benmeehan/fleet-agent/pkg/file"
	"github.com/benmeehan/fleet-agent/pkg/httpclient"
	"github.com/benmeehan/fleet-agent/pkg/identity"
	"github.com/benmeehan/fleet-agent/pkg/jwt"
	"github.com/benmeehan/fleet-agent/pkg/mqtt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Dependencies are the process-level collaborators the agent is built from.
type Dependencies struct {
	FileClient file.FileOperations
	// HTTPClient nil uses a default client.
	HTTPClient *http.Client
	// GOOS selects the metrics source.
	GOOS string
	// Console receives the status line; nil is stdout.
	Console io.Writer
	// MQTTClient nil connects with config.MQTT when enabled.
	MQTTClient mqtt.MQTTClient
	// Registry nil uses a private Prometheus registry.
	Registry *prometheus.Registry
	// Sources nil uses the default per-OS metrics sources.
	Sources *metrics_collectors.MetricsRegistry
}

// Agent holds the wired heartbeat components.
type Agent struct {
	Identity  *identity.AgentIdentity
	Session   *services.SessionManager
	Sampler   *metrics_collectors.MetricsSampler
	Heartbeat *services.HeartbeatService
	Metrics   *services.AgentMetrics

	mqttClient mqtt.MQTTClient
	logger     zerolog.Logger
}

// NewAgent validates config and wires the session manager, sampler, gateway probe,
// reporters and heartbeat orchestrator. Only configuration problems are returned as errors.
func NewAgent(config *utils.Config, deps Dependencies, logger zerolog.Logger) (*Agent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	id, err := identity.NewAgentIdentity(config.Agent.ID, []byte(config.Agent.Secret))
	if err != nil {
		return nil, err
	}

	auth, err := services.NewAuthStrategy(config.Auth.Mode, id)
	if err != nil {
		return nil, err
	}
	if auth.Name() == constants.AuthModeLegacy {
		logger.Warn().Msg("Legacy auth mode sends the shared secret in the handshake body; prefer signed mode")
	}

	client := httpclient.New(deps.HTTPClient, constants.UserAgent)
	metrics := services.NewAgentMetrics(deps.Registry)

	session := services.NewSessionManager(
		config.Service.URL,
		config.Heartbeat.HandshakeTimeout,
		client,
		auth,
		jwt.NewTokenInspector(),
		metrics,
		logger.With().Str("component", "session").Logger(),
	)

	sources := deps.Sources
	if sources == nil {
		sources = metrics_collectors.NewMetricsRegistry()
	}
	source := sources.SourceFor(deps.GOOS, metrics_collectors.SourceDeps{
		Runner: metrics_collectors.NewExecRunner(config.Metrics.CommandTimeout),
	})
	sampler := metrics_collectors.NewMetricsSampler(source, logger.With().Str("component", "sampler").Logger())

	probe := services.NewGatewayProbe(client, config.Gateway.ProbeTimeout, logger.With().Str("component", "gateway").Logger())

	agent := &Agent{
		Identity: id,
		Session:  session,
		Sampler:  sampler,
		Metrics:  metrics,
		logger:   logger,
	}

	reporters := services.MultiReporter{services.NewConsoleReporter(deps.Console)}
	if config.MQTT.Enabled {
		if mqttClient := agent.connectMQTT(config, deps); mqttClient != nil {
			reporters = append(reporters, services.NewMQTTReporter(id.GetAgentID(), config.MQTT.Topic, config.MQTT.QOS, mqttClient, logger))
		}
	}

	agent.Heartbeat = services.NewHeartbeatService(
		services.HeartbeatConfig{
			ServiceURL:         config.Service.URL,
			Interval:           config.Heartbeat.Interval,
			Timeout:            config.Heartbeat.Timeout,
			FollowServerPolicy: config.Heartbeat.FollowServerPolicy,
		},
		id,
		session,
		probe,
		sampler,
		client,
		reporters,
		metrics,
		logger.With().Str("component", "heartbeat").Logger(),
	)

	return agent, nil
}

// connectMQTT returns the injected client or connects a new one. A broker that cannot be
// reached disables the MQTT mirror instead of failing startup.
func (a *Agent) connectMQTT(config *utils.Config, deps Dependencies) mqtt.MQTTClient {
	if deps.MQTTClient != nil {
		a.mqttClient = deps.MQTTClient
		return a.mqttClient
	}

	clientID := config.MQTT.ClientID
	if clientID == "" {
		clientID = config.Agent.ID
	}

	svc := mqtt.NewMqttService(deps.FileClient)
	if err := svc.Initialize(config.MQTT.Broker, clientID, config.MQTT.CACertificate); err != nil {
		a.logger.Error().Err(err).Str("broker", config.MQTT.Broker).Msg("MQTT status mirror disabled")
		return nil
	}
	a.logger.Info().Str("broker", config.MQTT.Broker).Str("topic", config.MQTT.Topic).Msg("MQTT status mirror connected")
	a.mqttClient = svc
	return a.mqttClient
}

// MetricsServer builds the /metrics and /healthz server bound to listen.
func (a *Agent) MetricsServer(listen string) *services.MetricsServerService {
	return services.NewMetricsServerService(listen, a.Identity.GetAgentID(), a.Metrics, a.Heartbeat,
		a.logger.With().Str("component", "metrics_server").Logger())
}

// Close releases connections held by the agent.
func (a *Agent) Close() {
	if a.mqttClient != nil {
		a.mqttClient.Disconnect(250)
	}
}

func (a *Agent) String() string {
	return fmt.Sprintf("Agent(%s, platform=%s)", a.Identity.GetAgentID(), a.Sampler.Platform())
}
