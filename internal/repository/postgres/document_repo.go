package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"docstore/internal/domain"
	"docstore/internal/port"
)

const documentColumns = `id, name, version, md5_hash, stor_name, extension, business_area, business_area_id,
	lock_by, lock_at, lock_expiration, archive_by, archive_at,
	created_by, created_at, last_update_by, last_update_at, last_viewed`

type documentRow struct {
	ID             int64      `db:"id"`
	Name           string     `db:"name"`
	Version        int        `db:"version"`
	MD5Hash        string     `db:"md5_hash"`
	StorName       string     `db:"stor_name"`
	Extension      string     `db:"extension"`
	BusinessArea   string     `db:"business_area"`
	BusinessAreaID int64      `db:"business_area_id"`
	LockBy         string     `db:"lock_by"`
	LockAt         *time.Time `db:"lock_at"`
	LockExpiration *time.Time `db:"lock_expiration"`
	ArchiveBy      string     `db:"archive_by"`
	ArchiveAt      *time.Time `db:"archive_at"`
	CreatedBy      string     `db:"created_by"`
	CreatedAt      time.Time  `db:"created_at"`
	LastUpdateBy   string     `db:"last_update_by"`
	LastUpdateAt   time.Time  `db:"last_update_at"`
	LastViewed     time.Time  `db:"last_viewed"`
}

func (r documentRow) toDomain() domain.Document {
	return domain.Document{
		ID:             r.ID,
		Name:           r.Name,
		Version:        r.Version,
		MD5Hash:        r.MD5Hash,
		StorName:       r.StorName,
		Extension:      r.Extension,
		BusinessArea:   r.BusinessArea,
		BusinessAreaID: r.BusinessAreaID,
		Lock:           domain.LockState{By: r.LockBy, At: utcPtr(r.LockAt), Expiration: utcPtr(r.LockExpiration)},
		Archive:        domain.ArchiveState{By: r.ArchiveBy, At: utcPtr(r.ArchiveAt)},
		Created:        domain.UpdateState{By: r.CreatedBy, At: r.CreatedAt.UTC()},
		LastUpdate:     domain.UpdateState{By: r.LastUpdateBy, At: r.LastUpdateAt.UTC()},
		LastViewed:     r.LastViewed.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

type documentRepo struct {
	db *sqlx.DB
}

// NewDocumentRepo creates a new PostgreSQL-backed DocumentRepository.
func NewDocumentRepo(db *sqlx.DB) port.DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	var row documentRow
	err := r.db.GetContext(ctx, &row, "SELECT "+documentColumns+" FROM documents WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("documentRepo.GetByID: %w", err)
	}
	doc := row.toDomain()
	return &doc, nil
}

func (r *documentRepo) List(ctx context.Context, filter port.DocumentFilter) ([]domain.Document, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.BusinessAreaID != nil {
		args = append(args, *filter.BusinessAreaID)
		conds = append(conds, fmt.Sprintf("business_area_id = $%d", len(args)))
	}
	if !filter.IncludeArchived {
		conds = append(conds, "archive_at IS NULL")
	}
	whereClause := ""
	if len(conds) > 0 {
		whereClause = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM documents"+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("documentRepo.List count: %w", err)
	}

	query := "SELECT " + documentColumns + " FROM documents" + whereClause + " ORDER BY id" + limitOffset(&args, filter.Limit, filter.Offset)
	var rows []documentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("documentRepo.List: %w", err)
	}
	docs := make([]domain.Document, len(rows))
	for i, row := range rows {
		docs[i] = row.toDomain()
	}
	return docs, total, nil
}

type versionRow struct {
	ID         int64     `db:"id"`
	DocumentID int64     `db:"document_id"`
	Version    int       `db:"version"`
	MD5Hash    string    `db:"md5_hash"`
	StorName   string    `db:"stor_name"`
	FileName   string    `db:"file_name"`
	CreatedBy  string    `db:"created_by"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r versionRow) toDomain() domain.DocumentVersion {
	return domain.DocumentVersion{
		ID:         r.ID,
		DocumentID: r.DocumentID,
		Version:    r.Version,
		MD5Hash:    r.MD5Hash,
		StorName:   r.StorName,
		FileName:   r.FileName,
		Created:    domain.UpdateState{By: r.CreatedBy, At: r.CreatedAt.UTC()},
	}
}

const versionColumns = "id, document_id, version, md5_hash, stor_name, file_name, created_by, created_at"

func (r *documentRepo) ListVersions(ctx context.Context, documentID int64) ([]domain.DocumentVersion, error) {
	var rows []versionRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT "+versionColumns+" FROM document_versions WHERE document_id = $1 ORDER BY version", documentID)
	if err != nil {
		return nil, fmt.Errorf("documentRepo.ListVersions: %w", err)
	}
	versions := make([]domain.DocumentVersion, len(rows))
	for i, row := range rows {
		versions[i] = row.toDomain()
	}
	return versions, nil
}

func (r *documentRepo) GetVersion(ctx context.Context, documentID int64, version int) (*domain.DocumentVersion, error) {
	var row versionRow
	err := r.db.GetContext(ctx, &row,
		"SELECT "+versionColumns+" FROM document_versions WHERE document_id = $1 AND version = $2", documentID, version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("documentRepo.GetVersion: %w", err)
	}
	v := row.toDomain()
	return &v, nil
}

func (r *documentRepo) ListMetadata(ctx context.Context, documentID int64) ([]domain.CustomMetadata, error) {
	items := []domain.CustomMetadata{}
	err := r.db.SelectContext(ctx, &items,
		`SELECT id, document_id, "key", "value" FROM custom_metadata WHERE document_id = $1 ORDER BY "key"`, documentID)
	if err != nil {
		return nil, fmt.Errorf("documentRepo.ListMetadata: %w", err)
	}
	return items, nil
}

func (r *documentRepo) ListAccessLogs(ctx context.Context, documentID int64, offset, limit int) ([]domain.AccessLog, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM access_logs WHERE document_id = $1", documentID); err != nil {
		return nil, 0, fmt.Errorf("documentRepo.ListAccessLogs count: %w", err)
	}
	args := []any{documentID}
	query := `SELECT id, document_id, action, "by", "at" FROM access_logs WHERE document_id = $1 ORDER BY "at" DESC` +
		limitOffset(&args, limit, offset)
	logs := []domain.AccessLog{}
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("documentRepo.ListAccessLogs: %w", err)
	}
	return logs, total, nil
}

// limitOffset appends paging arguments and returns the matching clause. A
// non-positive limit means no limit.
func limitOffset(args *[]any, limit, offset int) string {
	clause := ""
	if limit > 0 {
		*args = append(*args, limit)
		clause += fmt.Sprintf(" LIMIT $%d", len(*args))
	}
	if offset > 0 {
		*args = append(*args, offset)
		clause += fmt.Sprintf(" OFFSET $%d", len(*args))
	}
	return clause
}
