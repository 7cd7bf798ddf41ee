package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"docstore/internal/audit"
	"docstore/internal/domain"
	"docstore/internal/schema"
)

// Session is the unit of work a service stages entity changes in. A fresh
// session is opened for every service call.
type Session interface {
	audit.UnitOfWork
	Add(e schema.Entity) error
	Attach(e schema.Entity) error
	Remove(e schema.Entity) error
}

// SessionFactory opens a new session.
type SessionFactory func() Session

// Saver commits a session. audit.Coordinator is the production implementation.
type Saver interface {
	Save(ctx context.Context, uow audit.UnitOfWork) (audit.Result, error)
	SaveWithoutAudit(ctx context.Context, uow audit.UnitOfWork) (int, error)
}

// Actor is the caller on whose behalf a service method runs.
type Actor struct {
	User   string
	Role   domain.UserRole
	Groups []string
}

// IsAdmin reports whether the actor bypasses access-control entries.
func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

// AuditWarning accompanies a successful mutation whose audit trail could not be
// completed. The business change is durable.
type AuditWarning struct {
	Err error
}

func (w *AuditWarning) Message() string {
	return "change saved but its audit trail is incomplete; operators have been notified"
}

// joinWarnings merges the warnings of several saves made by one call.
func joinWarnings(ws ...*AuditWarning) *AuditWarning {
	var errs []error
	for _, w := range ws {
		if w != nil {
			errs = append(errs, w.Err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &AuditWarning{Err: errors.Join(errs...)}
}

type persister struct {
	sessions SessionFactory
	saver    Saver
	logger   *slog.Logger
}

// save commits sess through the audited save. A deferred audit failure is
// logged and returned as a warning.
func (p *persister) save(ctx context.Context, sess Session, op string) (*AuditWarning, error) {
	res, err := p.saver.Save(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if res.AuditErr != nil {
		p.logger.WarnContext(ctx, "change saved without its full audit trail",
			"operation", op, "affected", res.Affected, "error", res.AuditErr)
		return &AuditWarning{Err: res.AuditErr}, nil
	}
	return nil, nil
}

// canAccess reports whether any of groups holds perm in the business area.
func canAccess(acls []domain.AccessControl, groups []string, businessAreaID int64, perm domain.Permission) bool {
	for i := range acls {
		acl := &acls[i]
		if acl.BusinessAreaID != businessAreaID || !acl.Allows(perm) {
			continue
		}
		if slices.ContainsFunc(groups, func(g string) bool { return strings.EqualFold(g, acl.GroupName) }) {
			return true
		}
	}
	return false
}
