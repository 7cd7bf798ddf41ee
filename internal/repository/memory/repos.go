package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"docstore/internal/audit"
	"docstore/internal/domain"
	"docstore/internal/port"
)

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

type documentRepo struct{ s *Store }

// NewDocumentRepo returns a DocumentRepository over the store.
func NewDocumentRepo(s *Store) port.DocumentRepository {
	return &documentRepo{s: s}
}

func (r *documentRepo) GetByID(_ context.Context, id int64) (*domain.Document, error) {
	row, ok := r.s.Find(domain.KindDocuments, id)
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	doc := row.document()
	return &doc, nil
}

func (r *documentRepo) List(_ context.Context, filter port.DocumentFilter) ([]domain.Document, int, error) {
	var docs []domain.Document
	for _, row := range r.s.Rows(domain.KindDocuments) {
		doc := row.document()
		if filter.BusinessAreaID != nil && doc.BusinessAreaID != *filter.BusinessAreaID {
			continue
		}
		if !filter.IncludeArchived && doc.Archive.IsArchived() {
			continue
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return page(docs, filter.Offset, filter.Limit), len(docs), nil
}

func (r *documentRepo) ListVersions(_ context.Context, documentID int64) ([]domain.DocumentVersion, error) {
	versions := []domain.DocumentVersion{}
	for _, row := range r.s.Rows(domain.KindDocumentVersions) {
		if v := row.documentVersion(); v.DocumentID == documentID {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
	return versions, nil
}

func (r *documentRepo) GetVersion(ctx context.Context, documentID int64, version int) (*domain.DocumentVersion, error) {
	versions, _ := r.ListVersions(ctx, documentID)
	for i := range versions {
		if versions[i].Version == version {
			return &versions[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *documentRepo) ListMetadata(_ context.Context, documentID int64) ([]domain.CustomMetadata, error) {
	items := []domain.CustomMetadata{}
	for _, row := range r.s.Rows(domain.KindCustomMetadata) {
		if m := row.customMetadata(); m.DocumentID == documentID {
			items = append(items, m)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

func (r *documentRepo) ListAccessLogs(_ context.Context, documentID int64, offset, limit int) ([]domain.AccessLog, int, error) {
	var logs []domain.AccessLog
	for _, row := range r.s.Rows(domain.KindAccessLogs) {
		if l := row.accessLog(); l.DocumentID == documentID {
			logs = append(logs, l)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].At.After(logs[j].At) })
	return page(logs, offset, limit), len(logs), nil
}

type securityRepo struct{ s *Store }

// NewSecurityRepo returns a SecurityRepository over the store.
func NewSecurityRepo(s *Store) port.SecurityRepository {
	return &securityRepo{s: s}
}

func (r *securityRepo) ListGroups(_ context.Context) ([]domain.Group, error) {
	groups := []domain.Group{}
	for _, row := range r.s.Rows(domain.KindGroups) {
		groups = append(groups, row.group())
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (r *securityRepo) GetGroup(_ context.Context, id int64) (*domain.Group, error) {
	row, ok := r.s.Find(domain.KindGroups, id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	g := row.group()
	return &g, nil
}

func (r *securityRepo) ListBusinessAreas(_ context.Context) ([]domain.BusinessArea, error) {
	areas := []domain.BusinessArea{}
	for _, row := range r.s.Rows(domain.KindBusinessAreas) {
		areas = append(areas, row.businessArea())
	}
	sort.Slice(areas, func(i, j int) bool { return areas[i].Name < areas[j].Name })
	return areas, nil
}

func (r *securityRepo) GetBusinessArea(_ context.Context, id int64) (*domain.BusinessArea, error) {
	row, ok := r.s.Find(domain.KindBusinessAreas, id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	a := row.businessArea()
	return &a, nil
}

func (r *securityRepo) ListAccessControls(_ context.Context, businessAreaID *int64) ([]domain.AccessControl, error) {
	acls := []domain.AccessControl{}
	for _, row := range r.s.Rows(domain.KindAccessControls) {
		acl := row.accessControl()
		if businessAreaID != nil && acl.BusinessAreaID != *businessAreaID {
			continue
		}
		acls = append(acls, acl)
	}
	sort.Slice(acls, func(i, j int) bool { return acls[i].ID < acls[j].ID })
	return acls, nil
}

func (r *securityRepo) GetAccessControl(_ context.Context, id int64) (*domain.AccessControl, error) {
	row, ok := r.s.Find(domain.KindAccessControls, id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	acl := row.accessControl()
	return &acl, nil
}

func (r *securityRepo) ListAccessControlsForGroups(ctx context.Context, groups []string) ([]domain.AccessControl, error) {
	all, err := r.ListAccessControls(ctx, nil)
	if err != nil {
		return nil, err
	}
	acls := []domain.AccessControl{}
	for _, acl := range all {
		for _, g := range groups {
			if strings.EqualFold(acl.GroupName, g) {
				acls = append(acls, acl)
				break
			}
		}
	}
	return acls, nil
}

type auditRepo struct{ s *Store }

// NewAuditRepo returns an AuditRepository over the store.
func NewAuditRepo(s *Store) port.AuditRepository {
	return &auditRepo{s: s}
}

func (r *auditRepo) List(_ context.Context, filter port.AuditFilter) ([]domain.Audit, int, error) {
	var rows []domain.Audit
	for _, row := range r.s.Rows(domain.KindAudits) {
		a := row.audit()
		if filter.Kind != "" && a.Kind != filter.Kind {
			continue
		}
		if filter.Operation != "" && a.Operation != filter.Operation {
			continue
		}
		if filter.From != nil && a.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.Timestamp.After(*filter.To) {
			continue
		}
		if filter.KeyName != "" {
			keys, err := audit.Decode(a.KeyValues)
			if err != nil {
				return nil, 0, fmt.Errorf("auditRepo.List: %w", err)
			}
			if v, ok := keys[filter.KeyName]; !ok || fmt.Sprint(v) != filter.KeyValue {
				continue
			}
		}
		rows = append(rows, a)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })
	return page(rows, filter.Offset, filter.Limit), len(rows), nil
}

func (r *auditRepo) ListForDocument(_ context.Context, documentID int64) ([]domain.Audit, error) {
	rows := []domain.Audit{}
	for _, row := range r.s.Rows(domain.KindAudits) {
		a := row.audit()
		ok, err := concernsDocument(a, documentID)
		if err != nil {
			return nil, fmt.Errorf("auditRepo.ListForDocument: %w", err)
		}
		if ok {
			rows = append(rows, a)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })
	return rows, nil
}

func concernsDocument(a domain.Audit, documentID int64) (bool, error) {
	switch a.Kind {
	case domain.KindDocuments:
		keys, err := audit.Decode(a.KeyValues)
		if err != nil {
			return false, err
		}
		return keys["Id"] == documentID, nil
	case domain.KindDocumentVersions, domain.KindCustomMetadata:
		for _, raw := range [][]byte{a.NewValues, a.OldValues} {
			values, err := audit.Decode(raw)
			if err != nil {
				return false, err
			}
			if values["DocumentId"] == documentID {
				return true, nil
			}
		}
	}
	return false, nil
}
