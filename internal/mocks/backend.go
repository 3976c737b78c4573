package mocks

import (
	"github.com/brettbedarf/vfs"
	"github.com/stretchr/testify/mock"
)

// MockBackend implements vfs.Backend for testing across packages
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ReadContainer() ([]byte, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBackend) WriteContainer(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

var _ vfs.Backend = (*MockBackend)(nil)
