// Package audit captures every committing mutation of a unit of work as an
// immutable audit row. Rows whose values are only known after the commit (for
// example backend-generated keys) are finalized in a second commit that
// immediately follows the first.
package audit

import (
	"context"

	"docstore/internal/domain"
)

// State is the tracking state of an entity within a unit of work.
type State int

const (
	StateDetached State = iota
	StateUnchanged
	StateAdded
	StateModified
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateDetached:
		return "detached"
	case StateUnchanged:
		return "unchanged"
	case StateAdded:
		return "added"
	case StateModified:
		return "modified"
	case StateDeleted:
		return "deleted"
	}
	return "unknown"
}

// Operation maps a tracking state to the audited operation. Unchanged and
// detached entities have none.
func (s State) Operation() (domain.Operation, bool) {
	switch s {
	case StateAdded:
		return domain.OperationInsert, true
	case StateModified:
		return domain.OperationUpdate, true
	case StateDeleted:
		return domain.OperationDelete, true
	}
	return "", false
}

// Property is the per-property view of a tracked change.
type Property struct {
	Name       string
	Current    any
	Original   any
	Pending    bool
	PrimaryKey bool
}

// Change describes one tracked entity and how it differs from its last
// persisted state.
type Change interface {
	Kind() string
	State() State
	// Properties are returned in schema declaration order.
	Properties() []Property
	// CurrentValue re-reads a property; after a commit it yields values the
	// backend generated.
	CurrentValue(name string) (any, bool)
}

// UnitOfWork is the persistence context a save operates on. It is not safe for
// concurrent use.
type UnitOfWork interface {
	Changes() []Change
	// Stage enqueues audit rows for the next Commit.
	Stage(audits ...domain.Audit)
	// Commit atomically writes all tracked changes and staged rows and reports
	// the number of entity rows written. An error wrapping ErrNotRefreshed
	// means the rows are durable.
	Commit(ctx context.Context) (int, error)
}
