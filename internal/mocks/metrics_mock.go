package mocks

import (
	"context"

	"github.com/benmeehan/fleet-agent/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockMetricsSource is a mock implementation of the MetricsSource interface
type MockMetricsSource struct {
	mock.Mock
}

func (m *MockMetricsSource) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockMetricsSource) CPUUsage(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockMetricsSource) MemoryUsage(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockMetricsSource) UptimeHours(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockSampler is a mock implementation of the SamplerInterface
type MockSampler struct {
	mock.Mock
}

func (m *MockSampler) Sample(ctx context.Context) models.MetricSnapshot {
	args := m.Called(ctx)
	return args.Get(0).(models.MetricSnapshot)
}

// MockGatewayProber is a mock implementation of the GatewayProberInterface
type MockGatewayProber struct {
	mock.Mock
}

func (m *MockGatewayProber) Probe(ctx context.Context, gatewayURL string) models.GatewayHealth {
	args := m.Called(ctx, gatewayURL)
	return args.Get(0).(models.GatewayHealth)
}
