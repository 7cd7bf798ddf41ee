package service_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docstore/internal/audit"
	"docstore/internal/domain"
	"docstore/internal/port"
	"docstore/internal/repository/memory"
	"docstore/internal/service"
	"docstore/internal/uow"
)

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	deleted []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (f *fakeBlobs) Put(_ context.Context, in port.PutInput) error {
	if f.putErr != nil {
		return f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[in.Key] = b
	return nil
}

func (f *fakeBlobs) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBlobs) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://blobs.test/" + key, nil
}

func (f *fakeBlobs) Ping(context.Context) error { return nil }

func (f *fakeBlobs) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

var (
	alice = service.Actor{User: "alice", Role: domain.RoleUser, Groups: []string{"finance-editors"}}
	carol = service.Actor{User: "carol", Role: domain.RoleUser, Groups: []string{"Finance-Editors"}}
	bob   = service.Actor{User: "bob", Role: domain.RoleUser, Groups: []string{"finance-readers"}}
	root  = service.Actor{User: "root", Role: domain.RoleAdmin}
)

// env wires the services over the in-memory store and the real audited save.
type env struct {
	store  *memory.Store
	blobs  *fakeBlobs
	docs   service.DocumentService
	sec    service.SecurityService
	audits port.AuditRepository
	area   *domain.BusinessArea
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	reg, err := domain.NewRegistry()
	require.NoError(t, err)
	policy, err := audit.NewPolicy(audit.DefaultPolicyConfig())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New(reg)
	coord := audit.NewCoordinator(policy, audit.WithLogger(logger))
	sessions := func() service.Session { return uow.New(reg, store) }

	e := &env{
		store:  store,
		blobs:  newFakeBlobs(),
		audits: memory.NewAuditRepo(store),
	}
	e.sec = service.NewSecurityService(memory.NewSecurityRepo(store), sessions, coord, logger)
	e.docs = service.NewDocumentService(
		memory.NewDocumentRepo(store),
		memory.NewSecurityRepo(store),
		e.blobs,
		sessions,
		coord,
		service.DocumentServiceConfig{
			StorName:      "s3",
			LockDuration:  time.Hour,
			MaxFileSize:   1024,
			PresignExpiry: 15 * time.Minute,
		},
		logger,
	)

	e.area, _, err = e.sec.CreateBusinessArea(ctx, "Finance", "ledgers and invoices")
	require.NoError(t, err)
	editors, _, err := e.sec.CreateGroup(ctx, "finance-editors")
	require.NoError(t, err)
	readers, _, err := e.sec.CreateGroup(ctx, "finance-readers")
	require.NoError(t, err)
	_, _, err = e.sec.GrantAccess(ctx, &service.GrantAccessInput{
		GroupID: editors.ID, BusinessAreaID: e.area.ID, CanRead: true, CanWrite: true, CanDelete: true,
	})
	require.NoError(t, err)
	_, _, err = e.sec.GrantAccess(ctx, &service.GrantAccessInput{
		GroupID: readers.ID, BusinessAreaID: e.area.ID, CanRead: true,
	})
	require.NoError(t, err)
	return e
}

func (e *env) create(t *testing.T, actor service.Actor, name, content string) *domain.Document {
	t.Helper()
	doc, warn, err := e.docs.Create(context.Background(), &service.CreateDocumentInput{
		Actor:          actor,
		Name:           name,
		Extension:      "pdf",
		BusinessAreaID: e.area.ID,
		ContentType:    "application/pdf",
		Size:           int64(len(content)),
		Body:           bytes.NewReader([]byte(content)),
	})
	require.NoError(t, err)
	require.Nil(t, warn)
	return doc
}

func (e *env) auditsOf(t *testing.T, kind string) []domain.Audit {
	t.Helper()
	rows, _, err := e.audits.List(context.Background(), port.AuditFilter{Kind: kind})
	require.NoError(t, err)
	return rows
}

func decode(t *testing.T, raw []byte) audit.Values {
	t.Helper()
	v, err := audit.Decode(raw)
	require.NoError(t, err)
	return v
}
