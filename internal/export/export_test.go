package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"docstore/internal/audit"
	"docstore/internal/domain"
)

func sampleAudit(t *testing.T) domain.Audit {
	t.Helper()
	encode := func(v audit.Values) json.RawMessage {
		raw, err := audit.Encode(v)
		require.NoError(t, err)
		return raw
	}
	return domain.Audit{
		ID:        uuid.MustParse("8f14e45f-ceea-467a-9e36-2c1f0a6c3b11"),
		Kind:      domain.KindDocuments,
		Operation: domain.OperationUpdate,
		KeyValues: encode(audit.Values{"Id": int64(7)}),
		OldValues: encode(audit.Values{"Name": "draft", "Lock.By": nil}),
		NewValues: encode(audit.Values{"Name": "final", "Lock.By": "alice"}),
		Timestamp: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteAudits([]domain.Audit{sampleAudit(t)}))
	require.NoError(t, w.Close())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, columns, rows[0])
	assert.Equal(t, []string{
		"8f14e45f-ceea-467a-9e36-2c1f0a6c3b11",
		"2024-03-01T09:30:00Z",
		"documents",
		"Update",
		"Id=7",
		"Lock.By=null; Name=draft",
		"Lock.By=alice; Name=final",
	}, rows[1])
}

func TestXLSXWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewXLSXWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteAudits([]domain.Audit{sampleAudit(t)}))
	require.NoError(t, w.Close())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Audit ID", rows[0][0])
	assert.Equal(t, "Update", rows[1][3])
	assert.Equal(t, "Lock.By=alice; Name=final", rows[1][6])
}

func TestFormatValues_Undecodable(t *testing.T) {
	assert.Equal(t, "not json", formatValues([]byte("not json")))
	assert.Equal(t, "", formatValues(nil))
}

func TestBuildFilename(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "audits_documents_2024-03-01.xlsx", BuildFilename("audits documents", "xlsx", now))
	assert.Equal(t, "a_b", SanitizeFilename("__a!!b__"))
}
