package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docstore/internal/domain"
	"docstore/internal/port"
)

const auditColumns = `id, kind, operation, key_values::text AS key_values, old_values::text AS old_values,
	new_values::text AS new_values, "timestamp"`

type auditRow struct {
	ID        uuid.UUID `db:"id"`
	Kind      string    `db:"kind"`
	Operation string    `db:"operation"`
	KeyValues string    `db:"key_values"`
	OldValues string    `db:"old_values"`
	NewValues string    `db:"new_values"`
	Timestamp time.Time `db:"timestamp"`
}

func (r auditRow) toDomain() domain.Audit {
	return domain.Audit{
		ID:        r.ID,
		Kind:      r.Kind,
		Operation: domain.Operation(r.Operation),
		KeyValues: json.RawMessage(r.KeyValues),
		OldValues: json.RawMessage(r.OldValues),
		NewValues: json.RawMessage(r.NewValues),
		Timestamp: r.Timestamp.UTC(),
	}
}

type auditRepo struct {
	db *sqlx.DB
}

// NewAuditRepo creates a new PostgreSQL-backed AuditRepository.
func NewAuditRepo(db *sqlx.DB) port.AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) List(ctx context.Context, filter port.AuditFilter) ([]domain.Audit, int, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Kind != "" {
		add("kind = $%d", filter.Kind)
	}
	if filter.Operation != "" {
		add("operation = $%d", string(filter.Operation))
	}
	if filter.From != nil {
		add(`"timestamp" >= $%d`, *filter.From)
	}
	if filter.To != nil {
		add(`"timestamp" <= $%d`, *filter.To)
	}
	if filter.KeyName != "" {
		args = append(args, filter.KeyName, filter.KeyValue)
		conds = append(conds, fmt.Sprintf("key_values -> $%d::text ->> 'value' = $%d", len(args)-1, len(args)))
	}
	whereClause := ""
	if len(conds) > 0 {
		whereClause = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM audits"+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("auditRepo.List count: %w", err)
	}

	query := "SELECT " + auditColumns + " FROM audits" + whereClause + ` ORDER BY "timestamp", id` +
		limitOffset(&args, filter.Limit, filter.Offset)
	var rows []auditRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("auditRepo.List: %w", err)
	}
	return toAudits(rows), total, nil
}

func (r *auditRepo) ListForDocument(ctx context.Context, documentID int64) ([]domain.Audit, error) {
	var rows []auditRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT "+auditColumns+` FROM audits
		 WHERE (kind = $1 AND key_values -> 'Id' ->> 'value' = $3)
		    OR (kind = ANY($2) AND (new_values -> 'DocumentId' ->> 'value' = $3
		                         OR old_values -> 'DocumentId' ->> 'value' = $3))
		 ORDER BY "timestamp", id`,
		domain.KindDocuments,
		[]string{domain.KindDocumentVersions, domain.KindCustomMetadata},
		strconv.FormatInt(documentID, 10))
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListForDocument: %w", err)
	}
	return toAudits(rows), nil
}

func toAudits(rows []auditRow) []domain.Audit {
	audits := make([]domain.Audit, len(rows))
	for i, row := range rows {
		audits[i] = row.toDomain()
	}
	return audits
}
