package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MockTokenInspector is a mock implementation of the TokenInspectorInterface
type MockTokenInspector struct {
	mock.Mock
}

func (m *MockTokenInspector) ExpiresAt(token string) (time.Time, error) {
	args := m.Called(token)
	return args.Get(0).(time.Time), args.Error(1)
}
