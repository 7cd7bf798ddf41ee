// Package memory is an in-process backend for the unit of work. Every batch is
// applied under one lock and rolled back from a snapshot on failure.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"docstore/internal/domain"
	"docstore/internal/schema"
	"docstore/internal/uow"
)

// Row maps property names to normalized values.
type Row map[string]any

func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type table struct {
	rows  map[string]Row
	order []string
}

func (t *table) clone() *table {
	out := &table{rows: make(map[string]Row, len(t.rows)), order: append([]string(nil), t.order...)}
	for k, r := range t.rows {
		out.rows[k] = r.clone()
	}
	return out
}

func (t *table) remove(key string) {
	delete(t.rows, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

// Store is a map-backed Backend. Sequences, like database sequences, are not
// rolled back.
type Store struct {
	mu       sync.RWMutex
	registry *schema.Registry
	tables   map[string]*table
	seq      map[string]int64
	failures []error
	hook     func(uow.Write) error
}

var _ uow.Backend = (*Store)(nil)

func New(registry *schema.Registry) *Store {
	return &Store{
		registry: registry,
		tables:   make(map[string]*table),
		seq:      make(map[string]int64),
	}
}

// Ping always succeeds; it lets the store stand in for a database in
// readiness checks.
func (s *Store) Ping(context.Context) error { return nil }

// FailNext queues outcomes for upcoming Apply calls: a nil entry lets that
// call through, a non-nil one fails it before anything is written.
func (s *Store) FailNext(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, errs...)
}

// FailWhen installs a hook consulted before every write. Returning an error
// aborts the batch after the preceding writes were applied, exercising
// rollback.
func (s *Store) FailWhen(hook func(uow.Write) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

func (s *Store) Apply(ctx context.Context, b uow.Batch) (uow.Applied, error) {
	if err := ctx.Err(); err != nil {
		return uow.Applied{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		if err != nil {
			return uow.Applied{}, err
		}
	}

	backup := s.snapshot()
	applied := uow.Applied{Generated: make([]map[string]any, len(b.Writes))}
	for i, w := range b.Writes {
		if err := s.applyWrite(w, &applied.Generated[i]); err != nil {
			s.tables = backup
			return uow.Applied{}, fmt.Errorf("memory.Apply: %s %s: %w", w.Op, w.Kind.Name, err)
		}
	}
	return applied, nil
}

func (s *Store) applyWrite(w uow.Write, generated *map[string]any) error {
	if s.hook != nil {
		if err := s.hook(w); err != nil {
			return err
		}
	}
	t := s.table(w.Kind.Name)

	switch w.Op {
	case uow.OpInsert:
		row := Row{}
		for k, v := range w.Values {
			row[k] = v
		}
		if len(w.Returning) > 0 {
			*generated = make(map[string]any, len(w.Returning))
		}
		for _, name := range w.Returning {
			s.seq[w.Kind.Name]++
			row[name] = s.seq[w.Kind.Name]
			(*generated)[name] = s.seq[w.Kind.Name]
		}
		key := rowKey(w.Kind, row)
		if _, exists := t.rows[key]; exists {
			return fmt.Errorf("%w: duplicate key %s", domain.ErrConflict, key)
		}
		t.rows[key] = row
		t.order = append(t.order, key)

	case uow.OpUpdate:
		key := rowKey(w.Kind, w.Key)
		row, ok := t.rows[key]
		if !ok {
			return fmt.Errorf("%w: no row with key %s", domain.ErrConflict, key)
		}
		for k, v := range w.Values {
			row[k] = v
		}

	case uow.OpDelete:
		key := rowKey(w.Kind, w.Key)
		if _, ok := t.rows[key]; !ok {
			return fmt.Errorf("%w: no row with key %s", domain.ErrConflict, key)
		}
		t.remove(key)

	default:
		return fmt.Errorf("unknown op %d", w.Op)
	}
	return nil
}

func (s *Store) table(kind string) *table {
	t, ok := s.tables[kind]
	if !ok {
		t = &table{rows: make(map[string]Row)}
		s.tables[kind] = t
	}
	return t
}

func (s *Store) snapshot() map[string]*table {
	out := make(map[string]*table, len(s.tables))
	for k, t := range s.tables {
		out[k] = t.clone()
	}
	return out
}

func rowKey(kind *schema.Kind, values map[string]any) string {
	parts := make([]string, 0, 1)
	for _, p := range kind.Keys() {
		parts = append(parts, fmt.Sprintf("%v", values[p.Name]))
	}
	return strings.Join(parts, "|")
}

// Rows returns copies of every row of kind in insertion order.
func (s *Store) Rows(kind string) []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[kind]
	if !ok {
		return nil
	}
	out := make([]Row, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.rows[k].clone())
	}
	return out
}

// Count returns the number of rows of kind.
func (s *Store) Count(kind string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[kind]; ok {
		return len(t.rows)
	}
	return 0
}

// Find returns the row of kind whose key properties equal key, in declaration
// order.
func (s *Store) Find(kind string, key ...any) (Row, bool) {
	k, ok := s.registry.Lookup(kind)
	if !ok {
		return nil, false
	}
	keys := k.Keys()
	if len(keys) != len(key) {
		return nil, false
	}
	values := make(map[string]any, len(key))
	for i, p := range keys {
		values[p.Name] = key[i]
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[kind]
	if !ok {
		return nil, false
	}
	row, ok := t.rows[rowKey(k, values)]
	if !ok {
		return nil, false
	}
	return row.clone(), true
}

// SetSequence makes the next generated key of kind last+1.
func (s *Store) SetSequence(kind string, last int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[kind] = last
}
