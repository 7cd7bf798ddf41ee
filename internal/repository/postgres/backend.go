package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jmoiron/sqlx"

	"docstore/internal/domain"
	"docstore/internal/schema"
	"docstore/internal/uow"
)

// Backend applies unit-of-work batches in one transaction.
type Backend struct {
	db *sqlx.DB
}

var _ uow.Backend = (*Backend)(nil)

// NewBackend creates a PostgreSQL-backed uow.Backend.
func NewBackend(db *sqlx.DB) *Backend {
	return &Backend{db: db}
}

func (b *Backend) Apply(ctx context.Context, batch uow.Batch) (uow.Applied, error) {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return uow.Applied{}, fmt.Errorf("backend.Apply begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	applied := uow.Applied{Generated: make([]map[string]any, len(batch.Writes))}
	for i, w := range batch.Writes {
		var err error
		switch w.Op {
		case uow.OpInsert:
			applied.Generated[i], err = insert(ctx, tx, w)
		case uow.OpUpdate:
			err = update(ctx, tx, w)
		case uow.OpDelete:
			err = remove(ctx, tx, w)
		default:
			err = fmt.Errorf("unknown op %d", w.Op)
		}
		if err != nil {
			return uow.Applied{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return uow.Applied{}, mapError("backend.Apply commit", err)
	}
	return applied, nil
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func column(kind *schema.Kind, name string) (string, error) {
	p, ok := kind.Property(name)
	if !ok {
		return "", fmt.Errorf("%s has no property %q", kind.Name, name)
	}
	return ident(p.Column), nil
}

// ordered returns the names of values in declaration order so statements are
// stable.
func ordered(kind *schema.Kind, values map[string]any) []string {
	names := make([]string, 0, len(values))
	for _, p := range kind.Properties {
		if _, ok := values[p.Name]; ok {
			names = append(names, p.Name)
		}
	}
	return names
}

func insert(ctx context.Context, tx *sqlx.Tx, w uow.Write) (map[string]any, error) {
	op := "backend.insert " + w.Kind.Name
	names := ordered(w.Kind, w.Values)
	cols := make([]string, len(names))
	marks := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		col, err := column(w.Kind, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		cols[i] = col
		marks[i] = fmt.Sprintf("$%d", i+1)
		args[i] = w.Values[name]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ident(w.Kind.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))
	if len(names) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", ident(w.Kind.Name))
	}

	if len(w.Returning) == 0 {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, mapError(op, err)
		}
		return nil, nil
	}

	ret := make([]string, len(w.Returning))
	for i, name := range w.Returning {
		col, err := column(w.Kind, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ret[i] = col
	}
	query += " RETURNING " + strings.Join(ret, ", ")

	dest := make([]any, len(w.Returning))
	ptrs := make([]any, len(w.Returning))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := tx.QueryRowxContext(ctx, query, args...).Scan(ptrs...); err != nil {
		return nil, mapError(op, err)
	}
	generated := make(map[string]any, len(dest))
	for i, name := range w.Returning {
		generated[name] = dest[i]
	}
	return generated, nil
}

func where(kind *schema.Kind, key map[string]any, first int) (string, []any, error) {
	if len(key) == 0 {
		return "", nil, fmt.Errorf("%s: empty key", kind.Name)
	}
	names := ordered(kind, key)
	conds := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		col, err := column(kind, name)
		if err != nil {
			return "", nil, err
		}
		conds[i] = fmt.Sprintf("%s = $%d", col, first+i)
		args[i] = key[name]
	}
	return strings.Join(conds, " AND "), args, nil
}

func update(ctx context.Context, tx *sqlx.Tx, w uow.Write) error {
	op := "backend.update " + w.Kind.Name
	names := ordered(w.Kind, w.Values)
	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+len(w.Key))
	for i, name := range names {
		col, err := column(w.Kind, name)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, w.Values[name])
	}
	if len(sets) == 0 {
		return nil
	}
	cond, keyArgs, err := where(w.Kind, w.Key, len(args)+1)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	args = append(args, keyArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", ident(w.Kind.Name), strings.Join(sets, ", "), cond)
	return execOne(ctx, tx, op, query, args)
}

func remove(ctx context.Context, tx *sqlx.Tx, w uow.Write) error {
	op := "backend.delete " + w.Kind.Name
	cond, args, err := where(w.Kind, w.Key, 1)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", ident(w.Kind.Name), cond)
	return execOne(ctx, tx, op, query, args)
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, tx *sqlx.Tx, op, query string, args []any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w: row no longer exists", op, domain.ErrConflict)
	}
	return nil
}
