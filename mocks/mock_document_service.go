package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docstore/internal/domain"
	"docstore/internal/port"
	"docstore/internal/service"
)

// MockDocumentService is a mock implementation of service.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func warning(v any) *service.AuditWarning {
	if v == nil {
		return nil
	}
	return v.(*service.AuditWarning)
}

func (m *MockDocumentService) docResult(args mock.Arguments) (*domain.Document, *service.AuditWarning, error) {
	if args.Get(0) == nil {
		return nil, warning(args.Get(1)), args.Error(2)
	}
	return args.Get(0).(*domain.Document), warning(args.Get(1)), args.Error(2)
}

func (m *MockDocumentService) Create(ctx context.Context, input *service.CreateDocumentInput) (*domain.Document, *service.AuditWarning, error) {
	return m.docResult(m.Called(ctx, input))
}

func (m *MockDocumentService) Get(ctx context.Context, actor service.Actor, id int64) (*domain.Document, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, actor service.Actor, id int64, version int) (*service.DownloadOutput, error) {
	args := m.Called(ctx, actor, id, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadOutput), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, actor service.Actor, filter port.DocumentFilter) ([]domain.Document, int, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Document), args.Int(1), args.Error(2)
}

func (m *MockDocumentService) Rename(ctx context.Context, actor service.Actor, id int64, name string) (*domain.Document, *service.AuditWarning, error) {
	return m.docResult(m.Called(ctx, actor, id, name))
}

func (m *MockDocumentService) AddVersion(ctx context.Context, input *service.AddVersionInput) (*domain.Document, *service.AuditWarning, error) {
	return m.docResult(m.Called(ctx, input))
}

func (m *MockDocumentService) ListVersions(ctx context.Context, actor service.Actor, id int64) ([]domain.DocumentVersion, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentVersion), args.Error(1)
}

func (m *MockDocumentService) Lock(ctx context.Context, actor service.Actor, id int64) (*domain.Document, *service.AuditWarning, error) {
	return m.docResult(m.Called(ctx, actor, id))
}

func (m *MockDocumentService) Unlock(ctx context.Context, actor service.Actor, id int64) (*domain.Document, *service.AuditWarning, error) {
	return m.docResult(m.Called(ctx, actor, id))
}

func (m *MockDocumentService) Archive(ctx context.Context, actor service.Actor, id int64) (*domain.Document, *service.AuditWarning, error) {
	return m.docResult(m.Called(ctx, actor, id))
}

func (m *MockDocumentService) Unarchive(ctx context.Context, actor service.Actor, id int64) (*domain.Document, *service.AuditWarning, error) {
	return m.docResult(m.Called(ctx, actor, id))
}

func (m *MockDocumentService) Delete(ctx context.Context, actor service.Actor, id int64) (*service.AuditWarning, error) {
	args := m.Called(ctx, actor, id)
	return warning(args.Get(0)), args.Error(1)
}

func (m *MockDocumentService) ListMetadata(ctx context.Context, actor service.Actor, id int64) ([]domain.CustomMetadata, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CustomMetadata), args.Error(1)
}

func (m *MockDocumentService) SetMetadata(ctx context.Context, actor service.Actor, id int64, key, value string) (*domain.CustomMetadata, *service.AuditWarning, error) {
	args := m.Called(ctx, actor, id, key, value)
	if args.Get(0) == nil {
		return nil, warning(args.Get(1)), args.Error(2)
	}
	return args.Get(0).(*domain.CustomMetadata), warning(args.Get(1)), args.Error(2)
}

func (m *MockDocumentService) RemoveMetadata(ctx context.Context, actor service.Actor, id int64, key string) (*service.AuditWarning, error) {
	args := m.Called(ctx, actor, id, key)
	return warning(args.Get(0)), args.Error(1)
}

func (m *MockDocumentService) ListAccessLogs(ctx context.Context, actor service.Actor, id int64, offset, limit int) ([]domain.AccessLog, int, error) {
	args := m.Called(ctx, actor, id, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.AccessLog), args.Int(1), args.Error(2)
}
