package mocks

import (
	"context"

	"github.com/brettbedarf/vfs"
	"github.com/stretchr/testify/mock"
)

// MockSource implements vfs.Source for testing across packages
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Fetch(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)

	// Handle function return types (for complex tests)
	if fn, ok := args.Get(0).(func(context.Context) []byte); ok {
		return fn(ctx), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

var _ vfs.Source = (*MockSource)(nil)

// MockSourceProvider implements vfs.SourceProvider for testing across packages
type MockSourceProvider struct {
	mock.Mock
}

func (m *MockSourceProvider) NewSource(raw []byte) (vfs.Source, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(vfs.Source), args.Error(1)
}

var _ vfs.SourceProvider = (*MockSourceProvider)(nil)
