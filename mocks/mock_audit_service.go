package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"docstore/internal/domain"
	"docstore/internal/port"
	"docstore/internal/service"
)

// MockAuditService is a mock implementation of service.AuditService.
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) List(ctx context.Context, filter port.AuditFilter) ([]domain.Audit, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Audit), args.Int(1), args.Error(2)
}

func (m *MockAuditService) ListForDocument(ctx context.Context, documentID int64) ([]domain.Audit, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Audit), args.Error(1)
}

func (m *MockAuditService) Export(ctx context.Context, filter port.AuditFilter, format service.ExportFormat, w io.Writer) error {
	args := m.Called(ctx, filter, format, w)
	return args.Error(0)
}
