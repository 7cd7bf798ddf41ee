package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docstore/internal/audit"
)

// MockFailureNotifier is a mock implementation of audit.FailureNotifier.
type MockFailureNotifier struct {
	mock.Mock
}

func (m *MockFailureNotifier) NotifyDeferredFailure(ctx context.Context, f audit.DeferredFailure) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}
