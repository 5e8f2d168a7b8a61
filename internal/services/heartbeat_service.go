package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/benmeehan/fleet-agent/internal/constants"
	"github.com/benmeehan/fleet-agent/internal/metrics_collectors"
	"github.com/benmeehan/fleet-agent/internal/models"
	"github.com/benmeehan/fleet-agent/pkg/httpclient"
	"github.com/benmeehan/fleet-agent/pkg/identity"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HeartbeatConfig holds the orchestrator's endpoint and cadence settings.
type HeartbeatConfig struct {
	ServiceURL         string
	Interval           time.Duration
	Timeout            time.Duration
	FollowServerPolicy bool
}

// HeartbeatService runs heartbeat cycles on an interval: ensure a session, probe the
// gateway, sample host metrics and post the report.
type HeartbeatService struct {
	serviceURL   string
	timeout      time.Duration
	followPolicy bool
	identity     identity.AgentIdentityInterface
	session      SessionManagerInterface
	prober       GatewayProberInterface
	sampler      metrics_collectors.SamplerInterface
	client       *httpclient.Client
	reporter     StatusReporter
	metrics      *AgentMetrics
	logger       zerolog.Logger
	now          func() time.Time

	mu         sync.RWMutex
	interval   time.Duration
	lastResult *models.CycleResult

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHeartbeatService initializes a new HeartbeatService. reporter and metrics may be nil.
func NewHeartbeatService(
	cfg HeartbeatConfig,
	id identity.AgentIdentityInterface,
	session SessionManagerInterface,
	prober GatewayProberInterface,
	sampler metrics_collectors.SamplerInterface,
	client *httpclient.Client,
	reporter StatusReporter,
	metrics *AgentMetrics,
	logger zerolog.Logger,
) *HeartbeatService {
	interval := cfg.Interval
	if interval <= 0 {
		interval = constants.DefaultInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHeartbeatTimeout
	}

	return &HeartbeatService{
		serviceURL:   strings.TrimRight(cfg.ServiceURL, "/"),
		timeout:      timeout,
		followPolicy: cfg.FollowServerPolicy,
		interval:     interval,
		identity:     id,
		session:      session,
		prober:       prober,
		sampler:      sampler,
		client:       client,
		reporter:     reporter,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Start launches the heartbeat loop in a separate goroutine. The first cycle runs immediately.
func (h *HeartbeatService) Start() error {
	if h.ctx != nil {
		h.logger.Warn().Msg("HeartbeatService is already running")
		return errors.New("heartbeat service is already running")
	}

	h.ctx, h.cancel = context.WithCancel(context.Background())

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.runHeartbeatLoop()
	}()

	h.logger.Info().Dur("interval", h.Interval()).Msg("HeartbeatService started successfully")
	return nil
}

// Stop cancels the loop, abandoning any in-flight request, and waits for it to exit.
func (h *HeartbeatService) Stop() error {
	if h.ctx == nil {
		h.logger.Warn().Msg("HeartbeatService is not running")
		return errors.New("heartbeat service is not running")
	}

	h.cancel()
	h.wg.Wait()

	h.ctx = nil
	h.cancel = nil

	h.logger.Info().Msg("HeartbeatService stopped successfully")
	return nil
}

// Interval returns the delay before the next cycle.
func (h *HeartbeatService) Interval() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.interval
}

// LastResult returns the most recent cycle outcome, if any cycle has run.
func (h *HeartbeatService) LastResult() (models.CycleResult, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.lastResult == nil {
		return models.CycleResult{}, false
	}
	return *h.lastResult, true
}

// runHeartbeatLoop runs one cycle at a time; the next one is scheduled only after the previous returns.
func (h *HeartbeatService) runHeartbeatLoop() {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			h.RunCycle(h.ctx)
			timer.Reset(h.Interval())

		case <-h.ctx.Done():
			h.logger.Info().Msg("HeartbeatService stopping gracefully")
			return
		}
	}
}

// RunCycle performs one heartbeat cycle. A 401 from the heartbeat endpoint invalidates
// the session and allows exactly one more handshake-and-send attempt. Any other failure
// ends the cycle. Metrics are sampled once per cycle and reused by the retry.
func (h *HeartbeatService) RunCycle(ctx context.Context) models.CycleResult {
	result := models.CycleResult{
		CycleID:   uuid.NewString(),
		StartedAt: h.now(),
	}
	logger := h.logger.With().Str("cycle_id", result.CycleID).Logger()

	var snapshot *models.MetricSnapshot

	attempt := func() error {
		result.Attempts++

		handshook, err := h.session.EnsureSession(ctx)
		if handshook {
			result.Handshakes++
			h.adoptPolicy(h.session.Policy(), logger)
		}
		if err != nil {
			return err
		}

		state := h.session.State()
		if !state.Active() {
			return constants.ErrNotAuthenticated
		}

		result.Gateway = h.prober.Probe(ctx, state.GatewayURL)
		if snapshot == nil {
			s := h.sampler.Sample(ctx)
			snapshot = &s
		}
		result.Metrics = *snapshot

		return h.send(ctx, state.Token, result.CycleID, models.NewHeartbeatReport(h.identity.GetAgentID(), result.Gateway, *snapshot), logger)
	}

	err := retry.New(
		retry.Context(ctx),
		retry.Attempts(constants.MaxCycleAttempts),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, constants.ErrSessionExpired)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn().Err(err).Uint("attempt", n+1).Msg("Heartbeat rejected, session invalidated")
		}),
	).Do(attempt)

	result.Sent = err == nil
	result.Err = err
	result.Duration = h.now().Sub(result.StartedAt)

	if err != nil {
		logger.Error().Err(err).Int("attempts", result.Attempts).Msg("Heartbeat cycle failed")
	} else {
		logger.Info().
			Str("status", result.Status()).
			Int("cpu_usage", result.Metrics.CPUUsage).
			Int("memory_usage", result.Metrics.MemoryUsage).
			Int("latency_ms", result.Gateway.LatencyMs).
			Int("attempts", result.Attempts).
			Msg("Heartbeat sent")
	}

	h.mu.Lock()
	h.lastResult = &result
	h.mu.Unlock()

	h.metrics.ObserveCycle(result)
	if h.reporter != nil {
		if err := h.reporter.Report(result); err != nil {
			logger.Warn().Err(err).Msg("Failed to report cycle status")
		}
	}
	return result
}

// send posts one report. A 401 invalidates the session and yields ErrSessionExpired.
func (h *HeartbeatService) send(ctx context.Context, token, requestID string, report models.HeartbeatReport, logger zerolog.Logger) error {
	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"X-Request-ID":  requestID,
	}

	var resp models.HeartbeatResponse
	err := h.client.PostJSON(ctx, h.serviceURL+constants.HeartbeatPath, h.timeout, headers, report, &resp)
	if httpclient.IsUnauthorized(err) {
		h.session.Invalidate()
		return fmt.Errorf("%w: %w", constants.ErrSessionExpired, err)
	}
	if errors.Is(err, httpclient.ErrResponseBody) {
		// The server accepted the report; the body only carries optional policy.
		logger.Warn().Err(err).Msg("Ignoring unreadable heartbeat response body")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to send heartbeat: %w", err)
	}

	h.adoptPolicy(resp.Policy, logger)
	return nil
}

// adoptPolicy applies a server-provided heartbeat interval when following server policy is enabled.
func (h *HeartbeatService) adoptPolicy(policy *models.Policy, logger zerolog.Logger) {
	if !h.followPolicy || policy == nil || policy.HeartbeatInterval <= 0 {
		return
	}

	interval := time.Duration(policy.HeartbeatInterval) * time.Second

	h.mu.Lock()
	changed := h.interval != interval
	h.interval = interval
	h.mu.Unlock()

	if changed {
		logger.Info().Dur("interval", interval).Str("policy", policy.Label).Msg("Heartbeat interval updated from server policy")
	}
}
