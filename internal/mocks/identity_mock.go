package mocks

import "github.com/stretchr/testify/mock"

// MockAgentIdentity is a mock implementation of the AgentIdentityInterface
type MockAgentIdentity struct {
	mock.Mock
}

func (m *MockAgentIdentity) GetAgentID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockAgentIdentity) GetSecret() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}
