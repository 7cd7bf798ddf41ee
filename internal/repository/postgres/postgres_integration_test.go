//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"docstore/internal/audit"
	"docstore/internal/domain"
	"docstore/internal/port"
	"docstore/internal/repository/postgres"
	"docstore/internal/schema"
	"docstore/internal/uow"
)

type pgEnv struct {
	db    *sqlx.DB
	reg   *schema.Registry
	coord *audit.Coordinator
}

func setupPostgres(t *testing.T) *pgEnv {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("docstore_test"),
		tcpostgres.WithUsername("docstore"),
		tcpostgres.WithPassword("docstore"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../../db/migrations", dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}
	_, _ = m.Close()

	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	reg, err := domain.NewRegistry()
	require.NoError(t, err)
	policy, err := audit.NewPolicy(audit.DefaultPolicyConfig())
	require.NoError(t, err)
	require.NoError(t, policy.Validate(reg))

	return &pgEnv{db: db, reg: reg, coord: audit.NewCoordinator(policy)}
}

func (e *pgEnv) newUOW() *uow.UnitOfWork {
	return uow.New(e.reg, postgres.NewBackend(e.db))
}

func TestPostgres_AuditedLifecycle(t *testing.T) {
	env := setupPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	area := &domain.BusinessArea{Name: "finance"}
	u := env.newUOW()
	require.NoError(t, u.Add(area))
	res, err := env.coord.Save(ctx, u)
	require.NoError(t, err)
	require.NoError(t, res.AuditErr)
	require.NotZero(t, area.ID)

	doc := &domain.Document{
		Name: "contract", Version: 1, Extension: "pdf",
		BusinessArea: area.Name, BusinessAreaID: area.ID,
		Created: domain.NewUpdateState("alice", now), LastUpdate: domain.NewUpdateState("alice", now),
		LastViewed: now,
	}
	u = env.newUOW()
	require.NoError(t, u.Add(doc))
	res, err = env.coord.Save(ctx, u)
	require.NoError(t, err)
	require.NoError(t, res.AuditErr)
	require.NotZero(t, doc.ID)

	docs := postgres.NewDocumentRepo(env.db)
	stored, err := docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "contract", stored.Name)
	assert.Nil(t, stored.Lock.At)

	require.NoError(t, u.Attach(stored))
	stored.Name = "contract-final"
	res, err = env.coord.Save(ctx, u)
	require.NoError(t, err)
	require.NoError(t, res.AuditErr)

	audits := postgres.NewAuditRepo(env.db)
	trail, err := audits.ListForDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, domain.OperationInsert, trail[0].Operation)
	assert.Equal(t, domain.OperationUpdate, trail[1].Operation)

	keys, err := audit.Decode(trail[0].KeyValues)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, keys["Id"])

	old, err := audit.Decode(trail[1].OldValues)
	require.NoError(t, err)
	assert.Equal(t, audit.Values{"Name": "contract"}, old)

	rows, total, err := audits.List(ctx, port.AuditFilter{Kind: domain.KindDocuments, KeyName: "Id", KeyValue: "999999"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
}

func TestPostgres_ConstraintViolationRollsBack(t *testing.T) {
	env := setupPostgres(t)
	ctx := context.Background()

	u := env.newUOW()
	require.NoError(t, u.Add(&domain.Group{Name: "finance"}))
	_, err := env.coord.Save(ctx, u)
	require.NoError(t, err)

	u = env.newUOW()
	require.NoError(t, u.Add(&domain.Group{Name: "legal"}))
	require.NoError(t, u.Add(&domain.Group{Name: "finance"}))
	_, err = env.coord.Save(ctx, u)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, err, audit.ErrPrimaryCommit)

	groups, err := postgres.NewSecurityRepo(env.db).ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "finance", groups[0].Name)

	var auditCount int
	require.NoError(t, env.db.GetContext(ctx, &auditCount, "SELECT COUNT(*) FROM audits"))
	assert.Equal(t, 1, auditCount)
}

func TestPostgres_DeleteOfMissingRowConflicts(t *testing.T) {
	env := setupPostgres(t)
	u := env.newUOW()
	require.NoError(t, u.Remove(&domain.Group{ID: 12345, Name: "ghost"}))

	_, err := env.coord.Save(context.Background(), u)
	assert.ErrorIs(t, err, domain.ErrConflict)
}
