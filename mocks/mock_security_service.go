package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docstore/internal/domain"
	"docstore/internal/service"
)

// MockSecurityService is a mock implementation of service.SecurityService.
type MockSecurityService struct {
	mock.Mock
}

func (m *MockSecurityService) ListGroups(ctx context.Context) ([]domain.Group, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Group), args.Error(1)
}

func (m *MockSecurityService) CreateGroup(ctx context.Context, name string) (*domain.Group, *service.AuditWarning, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, warning(args.Get(1)), args.Error(2)
	}
	return args.Get(0).(*domain.Group), warning(args.Get(1)), args.Error(2)
}

func (m *MockSecurityService) DeleteGroup(ctx context.Context, id int64) (*service.AuditWarning, error) {
	args := m.Called(ctx, id)
	return warning(args.Get(0)), args.Error(1)
}

func (m *MockSecurityService) ListBusinessAreas(ctx context.Context) ([]domain.BusinessArea, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BusinessArea), args.Error(1)
}

func (m *MockSecurityService) CreateBusinessArea(ctx context.Context, name, description string) (*domain.BusinessArea, *service.AuditWarning, error) {
	args := m.Called(ctx, name, description)
	if args.Get(0) == nil {
		return nil, warning(args.Get(1)), args.Error(2)
	}
	return args.Get(0).(*domain.BusinessArea), warning(args.Get(1)), args.Error(2)
}

func (m *MockSecurityService) UpdateBusinessArea(ctx context.Context, id int64, name, description string) (*domain.BusinessArea, *service.AuditWarning, error) {
	args := m.Called(ctx, id, name, description)
	if args.Get(0) == nil {
		return nil, warning(args.Get(1)), args.Error(2)
	}
	return args.Get(0).(*domain.BusinessArea), warning(args.Get(1)), args.Error(2)
}

func (m *MockSecurityService) ListAccessControls(ctx context.Context, businessAreaID *int64) ([]domain.AccessControl, error) {
	args := m.Called(ctx, businessAreaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccessControl), args.Error(1)
}

func (m *MockSecurityService) GrantAccess(ctx context.Context, input *service.GrantAccessInput) (*domain.AccessControl, *service.AuditWarning, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, warning(args.Get(1)), args.Error(2)
	}
	return args.Get(0).(*domain.AccessControl), warning(args.Get(1)), args.Error(2)
}

func (m *MockSecurityService) RevokeAccess(ctx context.Context, id int64) (*service.AuditWarning, error) {
	args := m.Called(ctx, id)
	return warning(args.Get(0)), args.Error(1)
}

func (m *MockSecurityService) CanAccess(ctx context.Context, groups []string, businessAreaID int64, perm domain.Permission) (bool, error) {
	args := m.Called(ctx, groups, businessAreaID, perm)
	return args.Bool(0), args.Error(1)
}
