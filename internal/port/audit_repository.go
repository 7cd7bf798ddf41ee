package port

import (
	"context"
	"time"

	"docstore/internal/domain"
)

// AuditFilter narrows an audit listing. KeyName and KeyValue match one entry
// of the row's key values by its string form.
type AuditFilter struct {
	Kind      string
	Operation domain.Operation
	KeyName   string
	KeyValue  string
	From      *time.Time
	To        *time.Time
	Offset    int
	Limit     int
}

// AuditRepository reads the audit trail. Rows are only ever written through a
// unit of work.
type AuditRepository interface {
	List(ctx context.Context, filter AuditFilter) ([]domain.Audit, int, error)
	// ListForDocument returns the rows of the document itself and of its
	// versions and custom metadata, oldest first.
	ListForDocument(ctx context.Context, documentID int64) ([]domain.Audit, error)
}
