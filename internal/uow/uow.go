// Package uow tracks entities through a unit of work and commits their changes
// together with staged audit rows in one backend batch.
package uow

import (
	"context"
	"errors"
	"fmt"

	"docstore/internal/audit"
	"docstore/internal/domain"
	"docstore/internal/schema"
)

var (
	ErrUnknownKind    = errors.New("entity kind is not registered")
	ErrSchemaMismatch = errors.New("entity values do not match its kind")
	ErrKeyModified    = errors.New("key property of a tracked entity changed")
)

type tracked struct {
	entity schema.Entity
	kind   *schema.Kind
	state  audit.State
	// original is the normalized snapshot taken on attach or after the last
	// commit. It is nil for added entities.
	original []any
}

// UnitOfWork tracks entities of registered kinds. It is not safe for
// concurrent use.
type UnitOfWork struct {
	registry *schema.Registry
	backend  Backend
	entries  []*tracked
	index    map[schema.Entity]*tracked
	staged   []domain.Audit
}

var _ audit.UnitOfWork = (*UnitOfWork)(nil)

func New(registry *schema.Registry, backend Backend) *UnitOfWork {
	return &UnitOfWork{
		registry: registry,
		backend:  backend,
		index:    make(map[schema.Entity]*tracked),
	}
}

// Add tracks e as a new entity.
func (u *UnitOfWork) Add(e schema.Entity) error {
	return u.track(e, audit.StateAdded)
}

// Attach tracks e as persisted and unchanged, snapshotting its current values.
func (u *UnitOfWork) Attach(e schema.Entity) error {
	return u.track(e, audit.StateUnchanged)
}

// Remove marks e for deletion. Removing an entity that was only added forgets
// it.
func (u *UnitOfWork) Remove(e schema.Entity) error {
	t, ok := u.index[e]
	if !ok {
		return u.track(e, audit.StateDeleted)
	}
	if t.state == audit.StateAdded {
		u.Detach(e)
		return nil
	}
	t.state = audit.StateDeleted
	return nil
}

// Detach stops tracking e.
func (u *UnitOfWork) Detach(e schema.Entity) {
	t, ok := u.index[e]
	if !ok {
		return
	}
	delete(u.index, e)
	for i, cur := range u.entries {
		if cur == t {
			u.entries = append(u.entries[:i], u.entries[i+1:]...)
			break
		}
	}
}

// StateOf returns the current state of e, detecting modifications.
func (u *UnitOfWork) StateOf(e schema.Entity) audit.State {
	t, ok := u.index[e]
	if !ok {
		return audit.StateDetached
	}
	return t.detect()
}

func (u *UnitOfWork) track(e schema.Entity, state audit.State) error {
	if _, ok := u.index[e]; ok {
		return fmt.Errorf("uow: %s entity is already tracked", e.Kind())
	}
	kind, ok := u.registry.Lookup(e.Kind())
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, e.Kind())
	}
	values, err := snapshot(kind, e)
	if err != nil {
		return err
	}
	t := &tracked{entity: e, kind: kind, state: state}
	if state != audit.StateAdded {
		t.original = values
	}
	u.entries = append(u.entries, t)
	u.index[e] = t
	return nil
}

func snapshot(kind *schema.Kind, e schema.Entity) ([]any, error) {
	raw := e.Values()
	if len(raw) != len(kind.Properties) {
		return nil, fmt.Errorf("%w: %s has %d values for %d properties", ErrSchemaMismatch, kind.Name, len(raw), len(kind.Properties))
	}
	values := make([]any, len(raw))
	for i, v := range raw {
		n, err := audit.Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %w", ErrSchemaMismatch, kind.Name, kind.Properties[i].Name, err)
		}
		values[i] = n
	}
	return values, nil
}

// current reads the entity again. A value that can no longer be normalized is
// kept as is so that it compares unequal and fails loudly at capture.
func (t *tracked) current() []any {
	raw := t.entity.Values()
	values := make([]any, len(raw))
	for i, v := range raw {
		n, err := audit.Normalize(v)
		if err != nil {
			n = v
		}
		values[i] = n
	}
	return values
}

func (t *tracked) detect() audit.State {
	if t.state != audit.StateUnchanged && t.state != audit.StateModified {
		return t.state
	}
	cur := t.current()
	for i := range cur {
		if !audit.Equal(t.original[i], cur[i]) {
			t.state = audit.StateModified
			return t.state
		}
	}
	t.state = audit.StateUnchanged
	return t.state
}

// Changes detects modifications and returns one change per tracked entity in
// tracking order.
func (u *UnitOfWork) Changes() []audit.Change {
	changes := make([]audit.Change, 0, len(u.entries))
	for _, t := range u.entries {
		state := t.detect()
		changes = append(changes, &change{t: t, state: state, current: t.current()})
	}
	return changes
}

// Stage enqueues audit rows for the next Commit.
func (u *UnitOfWork) Stage(audits ...domain.Audit) {
	u.staged = append(u.staged, audits...)
}

// Commit writes every added, modified and deleted entity plus the staged audit
// rows in one batch and returns the number of entity rows written. Staged rows
// are discarded whether or not the commit succeeds. On failure tracked state is
// left as it was, unless the error wraps audit.ErrNotRefreshed: then the batch
// is durable and only the write-back of generated values fell short.
func (u *UnitOfWork) Commit(ctx context.Context) (int, error) {
	staged := u.staged
	u.staged = nil

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var (
		batch   Batch
		written []*tracked
	)
	for _, t := range u.entries {
		w, ok, err := t.write()
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		batch.Writes = append(batch.Writes, w)
		written = append(written, t)
	}
	if len(staged) > 0 {
		auditKind, ok := u.registry.Lookup(domain.KindAudits)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownKind, domain.KindAudits)
		}
		for i := range staged {
			values, err := snapshot(auditKind, domain.AuditRecord{Audit: &staged[i]})
			if err != nil {
				return 0, err
			}
			batch.Writes = append(batch.Writes, Write{Kind: auditKind, Op: OpInsert, Values: byName(auditKind, values)})
		}
	}
	if len(batch.Writes) == 0 {
		return 0, nil
	}

	applied, err := u.backend.Apply(ctx, batch)
	if err != nil {
		return 0, err
	}

	var writeBack error
	for i, t := range written {
		if i < len(applied.Generated) {
			for name, v := range applied.Generated[i] {
				if err := t.entity.SetGenerated(name, v); err != nil {
					writeBack = errors.Join(writeBack, err)
				}
			}
		}
		if t.state == audit.StateDeleted {
			u.Detach(t.entity)
			continue
		}
		t.state = audit.StateUnchanged
		if values, err := snapshot(t.kind, t.entity); err == nil {
			t.original = values
		} else {
			writeBack = errors.Join(writeBack, err)
		}
	}
	if writeBack != nil {
		return len(written), fmt.Errorf("uow.Commit: %w: %w", audit.ErrNotRefreshed, writeBack)
	}
	return len(written), nil
}

// write builds the batch write for t. ok is false when t has nothing to write.
func (t *tracked) write() (w Write, ok bool, err error) {
	switch t.detect() {
	case audit.StateAdded:
		values, err := snapshot(t.kind, t.entity)
		if err != nil {
			return Write{}, false, err
		}
		w = Write{Kind: t.kind, Op: OpInsert, Values: map[string]any{}}
		for i, p := range t.kind.Properties {
			if p.Generated {
				w.Returning = append(w.Returning, p.Name)
				continue
			}
			w.Values[p.Name] = values[i]
		}
		return w, true, nil

	case audit.StateModified:
		cur := t.current()
		w = Write{Kind: t.kind, Op: OpUpdate, Values: map[string]any{}, Key: t.key()}
		for i, p := range t.kind.Properties {
			if audit.Equal(t.original[i], cur[i]) {
				continue
			}
			if p.PrimaryKey {
				return Write{}, false, fmt.Errorf("%w: %s.%s", ErrKeyModified, t.kind.Name, p.Name)
			}
			w.Values[p.Name] = cur[i]
		}
		return w, true, nil

	case audit.StateDeleted:
		return Write{Kind: t.kind, Op: OpDelete, Key: t.key()}, true, nil
	}
	return Write{}, false, nil
}

func (t *tracked) key() map[string]any {
	key := make(map[string]any)
	for i, p := range t.kind.Properties {
		if p.PrimaryKey {
			key[p.Name] = t.original[i]
		}
	}
	return key
}

func byName(kind *schema.Kind, values []any) map[string]any {
	out := make(map[string]any, len(values))
	for i, p := range kind.Properties {
		out[p.Name] = values[i]
	}
	return out
}

// change is the audit view of one tracked entity.
type change struct {
	t       *tracked
	state   audit.State
	current []any
}

func (c *change) Kind() string       { return c.t.kind.Name }
func (c *change) State() audit.State { return c.state }

func (c *change) Properties() []audit.Property {
	props := make([]audit.Property, len(c.t.kind.Properties))
	for i, p := range c.t.kind.Properties {
		prop := audit.Property{
			Name:       p.Name,
			Current:    c.current[i],
			PrimaryKey: p.PrimaryKey,
			Pending:    p.Generated && c.state == audit.StateAdded,
		}
		if c.t.original != nil {
			prop.Original = c.t.original[i]
		}
		props[i] = prop
	}
	return props
}

// CurrentValue re-reads the entity so that values assigned by a commit are
// visible.
func (c *change) CurrentValue(name string) (any, bool) {
	i, ok := c.t.kind.Index(name)
	if !ok {
		return nil, false
	}
	raw := c.t.entity.Values()
	if i >= len(raw) {
		return nil, false
	}
	return raw[i], true
}
