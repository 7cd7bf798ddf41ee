package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"docstore/internal/domain"
	"docstore/internal/port"
)

const accessControlColumns = `id, group_id, group_name, business_area_id, business_area, can_read, can_write, can_delete`

type securityRepo struct {
	db *sqlx.DB
}

// NewSecurityRepo creates a new PostgreSQL-backed SecurityRepository.
func NewSecurityRepo(db *sqlx.DB) port.SecurityRepository {
	return &securityRepo{db: db}
}

func (r *securityRepo) ListGroups(ctx context.Context) ([]domain.Group, error) {
	groups := []domain.Group{}
	if err := r.db.SelectContext(ctx, &groups, "SELECT id, name FROM groups ORDER BY name"); err != nil {
		return nil, fmt.Errorf("securityRepo.ListGroups: %w", err)
	}
	return groups, nil
}

func (r *securityRepo) GetGroup(ctx context.Context, id int64) (*domain.Group, error) {
	var g domain.Group
	if err := r.db.GetContext(ctx, &g, "SELECT id, name FROM groups WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("securityRepo.GetGroup: %w", err)
	}
	return &g, nil
}

func (r *securityRepo) ListBusinessAreas(ctx context.Context) ([]domain.BusinessArea, error) {
	areas := []domain.BusinessArea{}
	if err := r.db.SelectContext(ctx, &areas, "SELECT id, name, description FROM business_areas ORDER BY name"); err != nil {
		return nil, fmt.Errorf("securityRepo.ListBusinessAreas: %w", err)
	}
	return areas, nil
}

func (r *securityRepo) GetBusinessArea(ctx context.Context, id int64) (*domain.BusinessArea, error) {
	var a domain.BusinessArea
	if err := r.db.GetContext(ctx, &a, "SELECT id, name, description FROM business_areas WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("securityRepo.GetBusinessArea: %w", err)
	}
	return &a, nil
}

func (r *securityRepo) ListAccessControls(ctx context.Context, businessAreaID *int64) ([]domain.AccessControl, error) {
	acls := []domain.AccessControl{}
	query := "SELECT " + accessControlColumns + " FROM access_controls"
	var args []any
	if businessAreaID != nil {
		query += " WHERE business_area_id = $1"
		args = append(args, *businessAreaID)
	}
	if err := r.db.SelectContext(ctx, &acls, query+" ORDER BY id", args...); err != nil {
		return nil, fmt.Errorf("securityRepo.ListAccessControls: %w", err)
	}
	return acls, nil
}

func (r *securityRepo) GetAccessControl(ctx context.Context, id int64) (*domain.AccessControl, error) {
	var acl domain.AccessControl
	err := r.db.GetContext(ctx, &acl, "SELECT "+accessControlColumns+" FROM access_controls WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("securityRepo.GetAccessControl: %w", err)
	}
	return &acl, nil
}

func (r *securityRepo) ListAccessControlsForGroups(ctx context.Context, groups []string) ([]domain.AccessControl, error) {
	acls := []domain.AccessControl{}
	if len(groups) == 0 {
		return acls, nil
	}
	lowered := make([]string, len(groups))
	for i, g := range groups {
		lowered[i] = strings.ToLower(g)
	}
	query, args, err := sqlx.In(
		"SELECT "+accessControlColumns+" FROM access_controls WHERE lower(group_name) IN (?) ORDER BY id", lowered)
	if err != nil {
		return nil, fmt.Errorf("securityRepo.ListAccessControlsForGroups: %w", err)
	}
	if err := r.db.SelectContext(ctx, &acls, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("securityRepo.ListAccessControlsForGroups: %w", err)
	}
	return acls, nil
}
