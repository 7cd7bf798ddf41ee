package port

import (
	"context"

	"docstore/internal/domain"
)

// DocumentFilter narrows a document listing.
type DocumentFilter struct {
	BusinessAreaID  *int64
	IncludeArchived bool
	Offset          int
	Limit           int
}

// DocumentRepository is the read side of documents and the kinds that hang off
// them. Writes go through a unit of work.
type DocumentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]domain.Document, int, error)
	ListVersions(ctx context.Context, documentID int64) ([]domain.DocumentVersion, error)
	GetVersion(ctx context.Context, documentID int64, version int) (*domain.DocumentVersion, error)
	ListMetadata(ctx context.Context, documentID int64) ([]domain.CustomMetadata, error)
	ListAccessLogs(ctx context.Context, documentID int64, offset, limit int) ([]domain.AccessLog, int, error)
}

// SecurityRepository is the read side of groups, business areas and
// access-control entries.
type SecurityRepository interface {
	ListGroups(ctx context.Context) ([]domain.Group, error)
	GetGroup(ctx context.Context, id int64) (*domain.Group, error)
	ListBusinessAreas(ctx context.Context) ([]domain.BusinessArea, error)
	GetBusinessArea(ctx context.Context, id int64) (*domain.BusinessArea, error)
	ListAccessControls(ctx context.Context, businessAreaID *int64) ([]domain.AccessControl, error)
	GetAccessControl(ctx context.Context, id int64) (*domain.AccessControl, error)
	// ListAccessControlsForGroups returns the entries of every named group.
	ListAccessControlsForGroups(ctx context.Context, groups []string) ([]domain.AccessControl, error)
}
