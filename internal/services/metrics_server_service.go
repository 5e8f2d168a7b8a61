package services

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/benmeehan/fleet-agent/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// CycleResultProvider exposes the most recent heartbeat outcome.
type CycleResultProvider interface {
	LastResult() (models.CycleResult, bool)
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	AgentID   string    `json:"agent_id"`
	Status    string    `json:"status"`
	Sent      bool      `json:"sent"`
	LastCycle time.Time `json:"last_cycle,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// MetricsServerService serves Prometheus metrics and the last cycle outcome over HTTP.
type MetricsServerService struct {
	listenAddr string
	agentID    string
	metrics    *AgentMetrics
	results    CycleResultProvider
	logger     zerolog.Logger

	server   *http.Server
	listener net.Listener
	wg       sync.WaitGroup
}

func NewMetricsServerService(listenAddr, agentID string, metrics *AgentMetrics, results CycleResultProvider, logger zerolog.Logger) *MetricsServerService {
	return &MetricsServerService{
		listenAddr: listenAddr,
		agentID:    agentID,
		metrics:    metrics,
		results:    results,
		logger:     logger,
	}
}

// Routes builds the HTTP handler.
func (s *MetricsServerService) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Gatherer(), promhttp.HandlerOpts{}))
	r.Get("/healthz", s.handleHealth)
	return r
}

// handleHealth answers 200 once a heartbeat has been delivered, 503 before that or after a failed cycle.
func (s *MetricsServerService) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{AgentID: s.agentID, Status: "starting"}
	code := http.StatusServiceUnavailable

	if result, ok := s.results.LastResult(); ok {
		resp.Status = result.Status()
		resp.Sent = result.Sent
		resp.LastCycle = result.StartedAt
		if result.Err != nil {
			resp.Error = result.Err.Error()
		}
		if result.Sent {
			code = http.StatusOK
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// Start binds the listener and serves in the background.
func (s *MetricsServerService) Start() error {
	if s.server != nil {
		return errors.New("metrics server is already running")
	}

	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Metrics server stopped unexpectedly")
		}
	}()

	s.logger.Info().Str("listen", ln.Addr().String()).Msg("MetricsServerService started successfully")
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *MetricsServerService) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the server down gracefully.
func (s *MetricsServerService) Stop() error {
	if s.server == nil {
		return errors.New("metrics server is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.wg.Wait()
	s.server = nil
	s.listener = nil

	s.logger.Info().Msg("MetricsServerService stopped successfully")
	return err
}
