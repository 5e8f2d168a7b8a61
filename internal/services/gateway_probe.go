package services

import (
	"context"
	"time"

	"github.com/benmeehan/fleet-agent/internal/constants"
	"github.com/benmeehan/fleet-agent/internal/models"
	"github.com/benmeehan/fleet-agent/pkg/httpclient"
	"github.com/rs/zerolog"
)

// GatewayProberInterface checks reachability of the assigned gateway.
type GatewayProberInterface interface {
	Probe(ctx context.Context, gatewayURL string) models.GatewayHealth
}

// GatewayProbe issues a bounded GET against the gateway and times it.
type GatewayProbe struct {
	client  *httpclient.Client
	timeout time.Duration
	logger  zerolog.Logger
}

func NewGatewayProbe(client *httpclient.Client, timeout time.Duration, logger zerolog.Logger) *GatewayProbe {
	if timeout <= 0 {
		timeout = constants.DefaultProbeTimeout
	}
	return &GatewayProbe{client: client, timeout: timeout, logger: logger}
}

// Probe returns healthy with zero latency when no gateway is assigned, healthy with the
// round-trip time on success, and error with zero latency on any failure.
func (p *GatewayProbe) Probe(ctx context.Context, gatewayURL string) models.GatewayHealth {
	if gatewayURL == "" {
		return models.GatewayHealth{Status: constants.StatusHealthy}
	}

	start := time.Now()
	if err := p.client.Get(ctx, gatewayURL, p.timeout); err != nil {
		p.logger.Warn().Err(err).Str("gateway_url", gatewayURL).Msg("Gateway probe failed")
		return models.GatewayHealth{Status: constants.StatusError, URL: gatewayURL, Err: err}
	}

	return models.GatewayHealth{
		Status:    constants.StatusHealthy,
		LatencyMs: int(time.Since(start).Milliseconds()),
		URL:       gatewayURL,
	}
}
