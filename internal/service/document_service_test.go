package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore/internal/audit"
	"docstore/internal/domain"
	"docstore/internal/port"
	"docstore/internal/service"
)

// --- Create ---

func TestDocumentService_Create_AuditsGeneratedID(t *testing.T) {
	e := newEnv(t)

	doc := e.create(t, alice, "report", "hello")

	assert.Equal(t, int64(1), doc.ID)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", doc.MD5Hash)
	assert.Equal(t, "Finance", doc.BusinessArea)
	assert.True(t, e.blobs.has("1.v1.report.pdf"))

	versions, err := e.docs.ListVersions(context.Background(), alice, doc.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "1.v1.report.pdf", versions[0].FileName)

	rows := e.auditsOf(t, domain.KindDocuments)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.OperationInsert, rows[0].Operation)
	assert.Equal(t, audit.Values{"Id": int64(1)}, decode(t, rows[0].KeyValues))
	assert.Equal(t, "report", decode(t, rows[0].NewValues)["Name"])
	assert.Equal(t, domain.OperationUpdate, rows[1].Operation)
	assert.Equal(t, audit.Values{"MD5Hash": "5d41402abc4b2a76b9719d911017c592"}, decode(t, rows[1].NewValues))

	versionRows := e.auditsOf(t, domain.KindDocumentVersions)
	require.Len(t, versionRows, 1)
	assert.Equal(t, int64(1), decode(t, versionRows[0].KeyValues)["Id"])
	assert.Equal(t, int64(1), decode(t, versionRows[0].NewValues)["DocumentId"])
}

func TestDocumentService_Create_ReaderForbidden(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.docs.Create(context.Background(), &service.CreateDocumentInput{
		Actor: bob, Name: "report", Extension: "pdf", BusinessAreaID: e.area.ID,
		Size: 5, Body: bytes.NewReader([]byte("hello")),
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, e.store.Count(domain.KindDocuments))
}

func TestDocumentService_Create_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, _, err := e.docs.Create(ctx, &service.CreateDocumentInput{Actor: alice, Extension: "pdf", BusinessAreaID: e.area.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = e.docs.Create(ctx, &service.CreateDocumentInput{
		Actor: alice, Name: "big", Extension: "pdf", BusinessAreaID: e.area.ID, Size: 4096,
	})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	_, _, err = e.docs.Create(ctx, &service.CreateDocumentInput{
		Actor: alice, Name: "report", Extension: "pdf", BusinessAreaID: 99, Size: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentService_Create_UploadFailureDiscardsDocument(t *testing.T) {
	e := newEnv(t)
	e.blobs.putErr = errors.New("bucket unavailable")

	_, _, err := e.docs.Create(context.Background(), &service.CreateDocumentInput{
		Actor: alice, Name: "report", Extension: "pdf", BusinessAreaID: e.area.ID,
		Size: 5, Body: bytes.NewReader([]byte("hello")),
	})

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	assert.Zero(t, e.store.Count(domain.KindDocuments))
	assert.Zero(t, e.store.Count(domain.KindDocumentVersions))
}

func TestDocumentService_Create_DeferredAuditFailureIsWarning(t *testing.T) {
	e := newEnv(t)
	// First save: the primary commit passes, the deferred audit commit fails.
	e.store.FailNext(nil, errors.New("audit store unreachable"))

	doc, warn, err := e.docs.Create(context.Background(), &service.CreateDocumentInput{
		Actor: alice, Name: "report", Extension: "pdf", BusinessAreaID: e.area.ID,
		Size: 5, Body: bytes.NewReader([]byte("hello")),
	})

	require.NoError(t, err)
	require.NotNil(t, warn)
	assert.ErrorIs(t, warn.Err, audit.ErrDeferredAuditCommit)
	assert.NotEmpty(t, warn.Message())
	assert.Equal(t, 1, e.store.Count(domain.KindDocuments))
	assert.Equal(t, int64(1), doc.ID)

	// Only the hash update made it into the trail for the document.
	rows := e.auditsOf(t, domain.KindDocuments)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.OperationUpdate, rows[0].Operation)
}

// --- Reads ---

func TestDocumentService_Get_RecordsAccessWithoutAudit(t *testing.T) {
	e := newEnv(t)
	doc := e.create(t, alice, "report", "hello")
	before := e.store.Count(domain.KindAudits)

	got, err := e.docs.Get(context.Background(), bob, doc.ID)

	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, before, e.store.Count(domain.KindAudits))

	logs, total, err := e.docs.ListAccessLogs(context.Background(), alice, doc.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, domain.AccessView, logs[0].Action)
	assert.Equal(t, "bob", logs[0].By)
}

func TestDocumentService_Get_NoAccess(t *testing.T) {
	e := newEnv(t)
	doc := e.create(t, alice, "report", "hello")

	outsider := service.Actor{User: "eve", Role: domain.RoleUser, Groups: []string{"hr"}}
	_, err := e.docs.Get(context.Background(), outsider, doc.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.docs.Get(context.Background(), alice, 404)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentService_Download(t *testing.T) {
	e := newEnv(t)
	doc := e.create(t, alice, "report", "hello")

	out, err := e.docs.Download(context.Background(), bob, doc.ID, 0)

	require.NoError(t, err)
	assert.Equal(t, "https://blobs.test/1.v1.report.pdf", out.URL)
	assert.Equal(t, "report.pdf", out.FileName)
	assert.Equal(t, 1, out.Version)
	assert.Equal(t, 1, e.store.Count(domain.KindAccessLogs))

	_, err = e.docs.Download(context.Background(), bob, doc.ID, 7)
	assert.Error(t, err)
}

func TestDocumentService_List(t *testing.T) {
	e := newEnv(t)
	e.create(t, alice, "a", "1")
	e.create(t, alice, "b", "2")
	ctx := context.Background()

	_, _, err := e.docs.List(ctx, bob, port.DocumentFilter{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	docs, total, err := e.docs.List(ctx, bob, port.DocumentFilter{BusinessAreaID: &e.area.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, docs, 2)

	docs, _, err = e.docs.List(ctx, root, port.DocumentFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

// --- Mutations ---

func TestDocumentService_Rename(t *testing.T) {
	e := newEnv(t)
	doc := e.create(t, alice, "report", "hello")

	renamed, warn, err := e.docs.Rename(context.Background(), carol, doc.ID, "  final  ")

	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Equal(t, "final", renamed.Name)
	assert.Equal(t, "carol", renamed.LastUpdate.By)

	rows := e.auditsOf(t, domain.KindDocuments)
	last := rows[len(rows)-1]
	assert.Equal(t, domain.OperationUpdate, last.Operation)
	assert.Equal(t, audit.Values{"Name": "report"}, decode(t, last.OldValues))
	assert.Equal(t, audit.Values{"Name": "final"}, decode(t, last.NewValues))

	_, _, err = e.docs.Rename(context.Background(), bob, doc.ID, "nope")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDocumentService_Rename_PrimaryFailure(t *testing.T) {
	e := newEnv(t)
	doc := e.create(t, alice, "report", "hello")
	before := e.store.Count(domain.KindAudits)
	e.store.FailNext(errors.New("connection refused"))

	_, _, err := e.docs.Rename(context.Background(), alice, doc.ID, "final")

	assert.ErrorIs(t, err, audit.ErrPrimaryCommit)
	assert.Equal(t, before, e.store.Count(domain.KindAudits))
	got, err := e.docs.Get(context.Background(), alice, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "report", got.Name)
}

func TestDocumentService_Locking(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := e.create(t, alice, "report", "hello")

	locked, _, err := e.docs.Lock(ctx, alice, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", locked.Lock.By)
	require.NotNil(t, locked.Lock.Expiration)

	_, _, err = e.docs.Rename(ctx, carol, doc.ID, "hijack")
	assert.ErrorIs(t, err, domain.ErrDocumentLocked)
	_, _, err = e.docs.Lock(ctx, carol, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentLocked)
	_, _, err = e.docs.Unlock(ctx, carol, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotLockOwner)
	_, err = e.docs.Delete(ctx, carol, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentLocked)

	// The lock holder can still edit.
	_, _, err = e.docs.Rename(ctx, alice, doc.ID, "final")
	require.NoError(t, err)

	unlocked, _, err := e.docs.Unlock(ctx, root, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, unlocked.Lock.By)
	assert.Nil(t, unlocked.Lock.At)
}

func TestDocumentService_AddVersion(t *testing.T) {
	e := newEnv(t)
	doc := e.create(t, alice, "report", "hello")

	updated, _, err := e.docs.AddVersion(context.Background(), &service.AddVersionInput{
		Actor: alice, DocumentID: doc.ID, ContentType: "application/pdf",
		Size: 5, Body: bytes.NewReader([]byte("world")),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "7d793037a0760186574b0282f2f435e7", updated.MD5Hash)
	assert.True(t, e.blobs.has("1.v2.report.pdf"))

	versions, err := e.docs.ListVersions(context.Background(), alice, doc.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestDocumentService_Archive(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := e.create(t, alice, "report", "hello")

	archived, _, err := e.docs.Archive(ctx, alice, doc.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archive.IsArchived())

	_, _, err = e.docs.Rename(ctx, alice, doc.ID, "final")
	assert.ErrorIs(t, err, domain.ErrDocumentArchived)

	docs, _, err := e.docs.List(ctx, alice, port.DocumentFilter{BusinessAreaID: &e.area.ID})
	require.NoError(t, err)
	assert.Empty(t, docs)

	restored, _, err := e.docs.Unarchive(ctx, alice, doc.ID)
	require.NoError(t, err)
	assert.False(t, restored.Archive.IsArchived())
}

func TestDocumentService_Metadata(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := e.create(t, alice, "report", "hello")

	_, _, err := e.docs.SetMetadata(ctx, alice, doc.ID, "department", "tax")
	require.NoError(t, err)
	entry, _, err := e.docs.SetMetadata(ctx, alice, doc.ID, "department", "audit")
	require.NoError(t, err)
	assert.Equal(t, "audit", entry.Value)

	entries, err := e.docs.ListMetadata(ctx, bob, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "audit", entries[0].Value)

	rows := e.auditsOf(t, domain.KindCustomMetadata)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.OperationInsert, rows[0].Operation)
	assert.Equal(t, domain.OperationUpdate, rows[1].Operation)
	assert.Equal(t, audit.Values{"Value": "tax"}, decode(t, rows[1].OldValues))

	_, err = e.docs.RemoveMetadata(ctx, alice, doc.ID, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.docs.RemoveMetadata(ctx, alice, doc.ID, "department")
	require.NoError(t, err)
	assert.Zero(t, e.store.Count(domain.KindCustomMetadata))

	_, _, err = e.docs.SetMetadata(ctx, alice, doc.ID, " ", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := e.create(t, alice, "report", "hello")
	_, _, err := e.docs.AddVersion(ctx, &service.AddVersionInput{
		Actor: alice, DocumentID: doc.ID, Size: 5, Body: bytes.NewReader([]byte("world")),
	})
	require.NoError(t, err)
	_, _, err = e.docs.SetMetadata(ctx, alice, doc.ID, "department", "tax")
	require.NoError(t, err)

	_, err = e.docs.Delete(ctx, bob, doc.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	warn, err := e.docs.Delete(ctx, alice, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, warn)

	assert.Zero(t, e.store.Count(domain.KindDocuments))
	assert.Zero(t, e.store.Count(domain.KindDocumentVersions))
	assert.Zero(t, e.store.Count(domain.KindCustomMetadata))
	assert.ElementsMatch(t, []string{"1.v1.report.pdf", "1.v2.report.pdf"}, e.blobs.deleted)

	trail, err := e.audits.ListForDocument(ctx, doc.ID)
	require.NoError(t, err)
	var deletes int
	for _, a := range trail {
		if a.Operation == domain.OperationDelete {
			deletes++
		}
	}
	// The document, both versions and the metadata entry.
	assert.Equal(t, 4, deletes)
}
