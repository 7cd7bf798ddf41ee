package export

import (
	"encoding/csv"
	"io"

	"docstore/internal/domain"
)

// BOM is the UTF-8 byte order mark Excel on Windows needs to read CSV as UTF-8.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter streams audit rows as CSV.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteAudits converts a batch of audit rows and writes them.
func (w *CSVWriter) WriteAudits(audits []domain.Audit) error {
	for i := range audits {
		if err := w.csv.Write(auditToRow(&audits[i])); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered rows and reports any write error.
func (w *CSVWriter) Close() error {
	w.csv.Flush()
	return w.csv.Error()
}
