package service

import (
	"context"
	"fmt"
	"io"

	"docstore/internal/domain"
	"docstore/internal/export"
	"docstore/internal/port"
)

const (
	exportPageSize = 500
	// MaxExportRows caps a single export.
	MaxExportRows = 50000
)

// ExportFormat selects the file format of an audit export.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// AuditService defines the read contract of the audit trail.
type AuditService interface {
	List(ctx context.Context, filter port.AuditFilter) ([]domain.Audit, int, error)
	ListForDocument(ctx context.Context, documentID int64) ([]domain.Audit, error)
	Export(ctx context.Context, filter port.AuditFilter, format ExportFormat, w io.Writer) error
}

type auditService struct {
	repo port.AuditRepository
}

// NewAuditService creates a new AuditService implementation.
func NewAuditService(repo port.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) List(ctx context.Context, filter port.AuditFilter) ([]domain.Audit, int, error) {
	if filter.Operation != "" && !filter.Operation.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown operation %q", domain.ErrInvalidInput, filter.Operation)
	}
	if (filter.KeyName == "") != (filter.KeyValue == "") {
		return nil, 0, fmt.Errorf("%w: key name and key value go together", domain.ErrInvalidInput)
	}
	return s.repo.List(ctx, filter)
}

func (s *auditService) ListForDocument(ctx context.Context, documentID int64) ([]domain.Audit, error) {
	return s.repo.ListForDocument(ctx, documentID)
}

type auditWriter interface {
	WriteHeader() error
	WriteAudits(audits []domain.Audit) error
	Close() error
}

// Export writes every row matching filter, ignoring its paging, up to
// MaxExportRows.
func (s *auditService) Export(ctx context.Context, filter port.AuditFilter, format ExportFormat, w io.Writer) error {
	var out auditWriter
	switch format {
	case ExportCSV:
		if _, err := w.Write(export.BOM); err != nil {
			return err
		}
		out = export.NewCSVWriter(w)
	case ExportXLSX:
		xw, err := export.NewXLSXWriter(w)
		if err != nil {
			return err
		}
		out = xw
	default:
		return fmt.Errorf("%w: unknown export format %q", domain.ErrInvalidInput, format)
	}

	if err := s.writeAll(ctx, filter, out); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (s *auditService) writeAll(ctx context.Context, filter port.AuditFilter, out auditWriter) error {
	if err := out.WriteHeader(); err != nil {
		return err
	}
	filter.Limit = exportPageSize
	for filter.Offset = 0; filter.Offset < MaxExportRows; filter.Offset += exportPageSize {
		rows, total, err := s.List(ctx, filter)
		if err != nil {
			return err
		}
		if err := out.WriteAudits(rows); err != nil {
			return err
		}
		if len(rows) < exportPageSize || filter.Offset+len(rows) >= total {
			return nil
		}
	}
	return nil
}
