package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docstore/internal/domain"
	"docstore/internal/port"
)

// GrantAccessInput is the DTO for creating or replacing an access-control entry.
type GrantAccessInput struct {
	GroupID        int64
	BusinessAreaID int64
	CanRead        bool
	CanWrite       bool
	CanDelete      bool
}

// SecurityService defines the contract for groups, business areas and
// access-control entries.
type SecurityService interface {
	ListGroups(ctx context.Context) ([]domain.Group, error)
	CreateGroup(ctx context.Context, name string) (*domain.Group, *AuditWarning, error)
	DeleteGroup(ctx context.Context, id int64) (*AuditWarning, error)
	ListBusinessAreas(ctx context.Context) ([]domain.BusinessArea, error)
	CreateBusinessArea(ctx context.Context, name, description string) (*domain.BusinessArea, *AuditWarning, error)
	UpdateBusinessArea(ctx context.Context, id int64, name, description string) (*domain.BusinessArea, *AuditWarning, error)
	ListAccessControls(ctx context.Context, businessAreaID *int64) ([]domain.AccessControl, error)
	GrantAccess(ctx context.Context, input *GrantAccessInput) (*domain.AccessControl, *AuditWarning, error)
	RevokeAccess(ctx context.Context, id int64) (*AuditWarning, error)
	CanAccess(ctx context.Context, groups []string, businessAreaID int64, perm domain.Permission) (bool, error)
}

type securityService struct {
	persister
	repo port.SecurityRepository
}

// NewSecurityService creates a new SecurityService implementation.
func NewSecurityService(repo port.SecurityRepository, sessions SessionFactory, saver Saver, logger *slog.Logger) SecurityService {
	return &securityService{
		persister: persister{sessions: sessions, saver: saver, logger: logger},
		repo:      repo,
	}
}

func (s *securityService) ListGroups(ctx context.Context) ([]domain.Group, error) {
	return s.repo.ListGroups(ctx)
}

func (s *securityService) CreateGroup(ctx context.Context, name string) (*domain.Group, *AuditWarning, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: group name is required", domain.ErrInvalidInput)
	}
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing groups: %w", err)
	}
	for _, g := range groups {
		if strings.EqualFold(g.Name, name) {
			return nil, nil, fmt.Errorf("%w: group %q exists", domain.ErrConflict, name)
		}
	}

	group := &domain.Group{Name: name}
	sess := s.sessions()
	if err := sess.Add(group); err != nil {
		return nil, nil, err
	}
	warn, err := s.save(ctx, sess, "creating group")
	if err != nil {
		return nil, nil, err
	}
	return group, warn, nil
}

// DeleteGroup removes a group together with its access-control entries.
func (s *securityService) DeleteGroup(ctx context.Context, id int64) (*AuditWarning, error) {
	group, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	acls, err := s.repo.ListAccessControlsForGroups(ctx, []string{group.Name})
	if err != nil {
		return nil, fmt.Errorf("listing group access: %w", err)
	}

	sess := s.sessions()
	for i := range acls {
		if err := sess.Remove(&acls[i]); err != nil {
			return nil, err
		}
	}
	if err := sess.Remove(group); err != nil {
		return nil, err
	}
	return s.save(ctx, sess, "deleting group")
}

func (s *securityService) ListBusinessAreas(ctx context.Context) ([]domain.BusinessArea, error) {
	return s.repo.ListBusinessAreas(ctx)
}

func (s *securityService) CreateBusinessArea(ctx context.Context, name, description string) (*domain.BusinessArea, *AuditWarning, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: business area name is required", domain.ErrInvalidInput)
	}
	area := &domain.BusinessArea{Name: name, Description: description}
	sess := s.sessions()
	if err := sess.Add(area); err != nil {
		return nil, nil, err
	}
	warn, err := s.save(ctx, sess, "creating business area")
	if err != nil {
		return nil, nil, err
	}
	return area, warn, nil
}

func (s *securityService) UpdateBusinessArea(ctx context.Context, id int64, name, description string) (*domain.BusinessArea, *AuditWarning, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: business area name is required", domain.ErrInvalidInput)
	}
	area, err := s.repo.GetBusinessArea(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	sess := s.sessions()
	if err := sess.Attach(area); err != nil {
		return nil, nil, err
	}
	area.Name = name
	area.Description = description
	warn, err := s.save(ctx, sess, "updating business area")
	if err != nil {
		return nil, nil, err
	}
	return area, warn, nil
}

func (s *securityService) ListAccessControls(ctx context.Context, businessAreaID *int64) ([]domain.AccessControl, error) {
	return s.repo.ListAccessControls(ctx, businessAreaID)
}

// GrantAccess sets the permissions of a group in a business area, updating the
// existing entry when there is one.
func (s *securityService) GrantAccess(ctx context.Context, input *GrantAccessInput) (*domain.AccessControl, *AuditWarning, error) {
	group, err := s.repo.GetGroup(ctx, input.GroupID)
	if err != nil {
		return nil, nil, fmt.Errorf("group %d: %w", input.GroupID, err)
	}
	area, err := s.repo.GetBusinessArea(ctx, input.BusinessAreaID)
	if err != nil {
		return nil, nil, fmt.Errorf("business area %d: %w", input.BusinessAreaID, err)
	}
	existing, err := s.repo.ListAccessControls(ctx, &area.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing access: %w", err)
	}

	sess := s.sessions()
	var acl *domain.AccessControl
	for i := range existing {
		if existing[i].GroupID == group.ID {
			acl = &existing[i]
			break
		}
	}
	if acl != nil {
		if err := sess.Attach(acl); err != nil {
			return nil, nil, err
		}
	} else {
		acl = &domain.AccessControl{GroupID: group.ID, BusinessAreaID: area.ID}
		if err := sess.Add(acl); err != nil {
			return nil, nil, err
		}
	}
	acl.GroupName = group.Name
	acl.BusinessArea = area.Name
	acl.CanRead = input.CanRead
	acl.CanWrite = input.CanWrite
	acl.CanDelete = input.CanDelete

	warn, err := s.save(ctx, sess, "granting access")
	if err != nil {
		return nil, nil, err
	}
	return acl, warn, nil
}

func (s *securityService) RevokeAccess(ctx context.Context, id int64) (*AuditWarning, error) {
	acl, err := s.repo.GetAccessControl(ctx, id)
	if err != nil {
		return nil, err
	}
	sess := s.sessions()
	if err := sess.Remove(acl); err != nil {
		return nil, err
	}
	return s.save(ctx, sess, "revoking access")
}

func (s *securityService) CanAccess(ctx context.Context, groups []string, businessAreaID int64, perm domain.Permission) (bool, error) {
	if len(groups) == 0 {
		return false, nil
	}
	acls, err := s.repo.ListAccessControlsForGroups(ctx, groups)
	if err != nil {
		return false, fmt.Errorf("loading access: %w", err)
	}
	return canAccess(acls, groups, businessAreaID, perm), nil
}
