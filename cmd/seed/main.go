// Command seed applies a security setup workbook (business areas, groups and
// access-control entries) through the audited security service.
// Usage: go run ./cmd/seed -file security.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"docstore/internal/audit"
	"docstore/internal/config"
	"docstore/internal/domain"
	"docstore/internal/logging"
	"docstore/internal/repository/postgres"
	"docstore/internal/service"
	"docstore/internal/uow"
)

func main() {
	path := flag.String("file", "security.xlsx", "seed workbook")
	flag.Parse()

	if err := run(*path); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.Setup("docstore-seed", "dev", cfg.Log.Format, cfg.Log.Level, nil)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	p, err := parseWorkbook(f)
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	reg, err := domain.NewRegistry()
	if err != nil {
		return err
	}
	policy, err := audit.NewPolicy(audit.PolicyConfig{
		AuditKind:          domain.KindAudits,
		ExcludedKinds:      cfg.Audit.ExcludedKinds,
		MetadataProperties: cfg.Audit.MetadataProperties,
	})
	if err != nil {
		return err
	}
	backend := postgres.NewBackend(db)
	sessions := func() service.Session { return uow.New(reg, backend) }
	svc := service.NewSecurityService(postgres.NewSecurityRepo(db), sessions,
		audit.NewCoordinator(policy, audit.WithLogger(logger)), logger)

	return apply(context.Background(), svc, p, logger)
}

// apply creates what is missing and sets every listed grant. Existing areas
// and groups are matched by name, ignoring case.
func apply(ctx context.Context, svc service.SecurityService, p *plan, logger *slog.Logger) error {
	areas, err := svc.ListBusinessAreas(ctx)
	if err != nil {
		return err
	}
	areaIDs := make(map[string]int64, len(areas))
	for _, a := range areas {
		areaIDs[strings.ToLower(a.Name)] = a.ID
	}
	for _, a := range p.areas {
		if _, ok := areaIDs[strings.ToLower(a.name)]; ok {
			continue
		}
		created, _, err := svc.CreateBusinessArea(ctx, a.name, a.description)
		if err != nil {
			return fmt.Errorf("business area %q: %w", a.name, err)
		}
		areaIDs[strings.ToLower(created.Name)] = created.ID
		logger.Info("business area created", "name", created.Name, "id", created.ID)
	}

	groups, err := svc.ListGroups(ctx)
	if err != nil {
		return err
	}
	groupIDs := make(map[string]int64, len(groups))
	for _, g := range groups {
		groupIDs[strings.ToLower(g.Name)] = g.ID
	}
	for _, name := range p.groups {
		if _, ok := groupIDs[strings.ToLower(name)]; ok {
			continue
		}
		created, _, err := svc.CreateGroup(ctx, name)
		if err != nil {
			return fmt.Errorf("group %q: %w", name, err)
		}
		groupIDs[strings.ToLower(created.Name)] = created.ID
		logger.Info("group created", "name", created.Name, "id", created.ID)
	}

	for _, a := range p.access {
		groupID, ok := groupIDs[strings.ToLower(a.group)]
		if !ok {
			return fmt.Errorf("access for unknown group %q", a.group)
		}
		areaID, ok := areaIDs[strings.ToLower(a.area)]
		if !ok {
			return fmt.Errorf("access to unknown business area %q", a.area)
		}
		_, warning, err := svc.GrantAccess(ctx, &service.GrantAccessInput{
			GroupID:        groupID,
			BusinessAreaID: areaID,
			CanRead:        a.canRead,
			CanWrite:       a.canWrite,
			CanDelete:      a.canDelete,
		})
		if err != nil {
			return fmt.Errorf("grant %s on %s: %w", a.group, a.area, err)
		}
		if warning != nil {
			logger.Warn("grant saved without complete audit", "group", a.group, "area", a.area, "error", warning.Err)
		}
	}

	logger.Info("seed applied", "areas", len(p.areas), "groups", len(p.groups), "grants", len(p.access))
	return nil
}
