package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docstore/internal/domain"
	"docstore/internal/port"
)

// MockAuditRepo is a mock implementation of port.AuditRepository.
type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) List(ctx context.Context, filter port.AuditFilter) ([]domain.Audit, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Audit), args.Int(1), args.Error(2)
}

func (m *MockAuditRepo) ListForDocument(ctx context.Context, documentID int64) ([]domain.Audit, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Audit), args.Error(1)
}
