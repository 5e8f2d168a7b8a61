package mocks

import (
	"github.com/benmeehan/fleet-agent/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockStatusReporter is a mock implementation of the StatusReporter interface
type MockStatusReporter struct {
	mock.Mock
}

func (m *MockStatusReporter) Report(result models.CycleResult) error {
	args := m.Called(result)
	return args.Error(0)
}
