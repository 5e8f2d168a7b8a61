package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benmeehan/fleet-agent/internal/constants"
	"github.com/benmeehan/fleet-agent/internal/models"
	"github.com/benmeehan/fleet-agent/pkg/mqtt"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

const mqttPublishTimeout = 5 * time.Second

// StatusReporter publishes the outcome of a heartbeat cycle somewhere a human or
// another process can see it.
type StatusReporter interface {
	Report(result models.CycleResult) error
}

// FormatStatusLine renders the one-line cycle summary.
func FormatStatusLine(result models.CycleResult) string {
	ts := result.StartedAt.Format("15:04:05")
	if !result.Sent {
		reason := "unknown error"
		if result.Err != nil {
			reason = result.Err.Error()
		}
		return fmt.Sprintf("[%s] Heartbeat not sent: %s", ts, reason)
	}
	return fmt.Sprintf("[%s] Heartbeat sent (%s) CPU: %d%% MEM: %d%% Latency: %dms",
		ts, strings.ToUpper(result.Status()), result.Metrics.CPUUsage, result.Metrics.MemoryUsage, result.Gateway.LatencyMs)
}

// ConsoleReporter prints the status line with pterm.
type ConsoleReporter struct {
	success pterm.PrefixPrinter
	warning pterm.PrefixPrinter
	failure pterm.PrefixPrinter
}

// NewConsoleReporter writes to w, or to stdout when w is nil.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	r := &ConsoleReporter{
		success: pterm.Success,
		warning: pterm.Warning,
		failure: pterm.Error,
	}
	if w != nil {
		r.success = *r.success.WithWriter(w)
		r.warning = *r.warning.WithWriter(w)
		r.failure = *r.failure.WithWriter(w)
	}
	return r
}

func (r *ConsoleReporter) Report(result models.CycleResult) error {
	line := FormatStatusLine(result)

	switch {
	case !result.Sent:
		r.failure.Println(line)
	case result.Status() == constants.StatusHealthy:
		r.success.Println(line)
	default:
		r.failure.Println(line)
	}

	if result.Gateway.Status == constants.StatusError {
		r.warning.Printfln("Gateway probe failed: %s", result.Gateway.URL)
	}
	return nil
}

// StatusMessage is the JSON document mirrored to MQTT after each cycle.
type StatusMessage struct {
	AgentID     string    `json:"agent_id"`
	Status      string    `json:"status"`
	CPUUsage    int       `json:"cpu_usage"`
	MemoryUsage int       `json:"memory_usage"`
	UptimeHours int       `json:"uptime_hours"`
	LatencyMs   int       `json:"latency_ms"`
	Sent        bool      `json:"sent"`
	Timestamp   time.Time `json:"timestamp"`
}

// MQTTReporter mirrors cycle outcomes to an MQTT topic.
type MQTTReporter struct {
	agentID    string
	topic      string
	qos        byte
	mqttClient mqtt.MQTTClient
	logger     zerolog.Logger
}

func NewMQTTReporter(agentID, topic string, qos int, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *MQTTReporter {
	return &MQTTReporter{
		agentID:    agentID,
		topic:      topic,
		qos:        byte(qos),
		mqttClient: mqttClient,
		logger:     logger,
	}
}

func (r *MQTTReporter) Report(result models.CycleResult) error {
	payload, err := json.Marshal(StatusMessage{
		AgentID:     r.agentID,
		Status:      result.Status(),
		CPUUsage:    result.Metrics.CPUUsage,
		MemoryUsage: result.Metrics.MemoryUsage,
		UptimeHours: result.Metrics.UptimeHours,
		LatencyMs:   result.Gateway.LatencyMs,
		Sent:        result.Sent,
		Timestamp:   result.StartedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to serialize status message: %w", err)
	}

	token := r.mqttClient.Publish(r.topic, r.qos, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("timed out publishing status to %s", r.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish status to %s: %w", r.topic, err)
	}

	r.logger.Debug().Str("topic", r.topic).Msg("Status published")
	return nil
}

// MultiReporter fans a result out to several reporters and joins their errors.
type MultiReporter []StatusReporter

func (m MultiReporter) Report(result models.CycleResult) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
