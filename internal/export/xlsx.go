package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"docstore/internal/domain"
)

const sheetName = "Audits"

// XLSXWriter builds a single-sheet workbook of audit rows. The workbook is
// kept in memory and written out on Close.
type XLSXWriter struct {
	out  io.Writer
	file *excelize.File
	sw   *excelize.StreamWriter
	row  int
}

// NewXLSXWriter creates an XLSXWriter that writes the workbook to w.
func NewXLSXWriter(w io.Writer) (*XLSXWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("export: renaming sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("export: creating stream writer: %w", err)
	}
	return &XLSXWriter{out: w, file: f, sw: sw, row: 1}, nil
}

func (w *XLSXWriter) WriteHeader() error {
	return w.writeRow(columns)
}

// WriteAudits converts a batch of audit rows and appends them to the sheet.
func (w *XLSXWriter) WriteAudits(audits []domain.Audit) error {
	for i := range audits {
		if err := w.writeRow(auditToRow(&audits[i])); err != nil {
			return err
		}
	}
	return nil
}

func (w *XLSXWriter) writeRow(values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := w.sw.SetRow(cell, row); err != nil {
		return fmt.Errorf("export: writing row %d: %w", w.row, err)
	}
	w.row++
	return nil
}

// Close finishes the sheet and writes the workbook.
func (w *XLSXWriter) Close() error {
	defer func() { _ = w.file.Close() }()
	if err := w.sw.Flush(); err != nil {
		return fmt.Errorf("export: flushing sheet: %w", err)
	}
	if _, err := w.file.WriteTo(w.out); err != nil {
		return fmt.Errorf("export: writing workbook: %w", err)
	}
	return nil
}
