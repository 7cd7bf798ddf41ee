package uow

import (
	"context"

	"docstore/internal/schema"
)

// Op is the kind of row write.
type Op int

const (
	OpInsert Op = iota + 1
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Write is one row write in a batch.
type Write struct {
	Kind *schema.Kind
	Op   Op
	// Values holds the written property values: every non-generated property
	// on insert, the changed properties on update.
	Values map[string]any
	// Key identifies the row on update and delete.
	Key map[string]any
	// Returning lists the generated properties an insert must report.
	Returning []string
}

// Batch is applied atomically.
type Batch struct {
	Writes []Write
}

// Applied reports what a backend assigned. Generated is parallel to
// Batch.Writes; entries for writes without Returning are nil.
type Applied struct {
	Generated []map[string]any
}

// Backend persists batches. Apply either writes every row or none. Updates and
// deletes that match no row fail with domain.ErrConflict.
type Backend interface {
	Apply(ctx context.Context, b Batch) (Applied, error)
}
