package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"docstore/internal/domain"
)

// Entry is an audit row under construction.
type Entry struct {
	Kind      string
	Operation domain.Operation
	KeyValues Values
	OldValues Values
	NewValues Values

	pending      []pendingProperty
	resolvedKeys int
	source       Change
}

type pendingProperty struct {
	name       string
	primaryKey bool
}

func newEntry(kind string, op domain.Operation, src Change) *Entry {
	return &Entry{
		Kind:      kind,
		Operation: op,
		KeyValues: Values{},
		OldValues: Values{},
		NewValues: Values{},
		source:    src,
	}
}

// ChangedCount is the number of captured differences. Key values that were
// known before the commit do not count, so an update that only touched skipped
// properties has a count of zero.
func (e *Entry) ChangedCount() int {
	return len(e.OldValues) + len(e.NewValues) + len(e.pending) + e.resolvedKeys
}

// HasPending reports whether some values are only known after the commit.
func (e *Entry) HasPending() bool { return len(e.pending) > 0 }

// PendingProperties returns the names still awaiting resolution.
func (e *Entry) PendingProperties() []string {
	names := make([]string, len(e.pending))
	for i, p := range e.pending {
		names[i] = p.name
	}
	return names
}

// resolve reads every pending property from the committed entity. Values
// resolved before a failure are kept so a report carries whatever is known.
func (e *Entry) resolve() error {
	for len(e.pending) > 0 {
		p := e.pending[0]
		raw, ok := e.source.CurrentValue(p.name)
		if !ok {
			return fmt.Errorf("resolve %s.%s: property not found", e.Kind, p.name)
		}
		v, err := Normalize(raw)
		if err != nil {
			return fmt.Errorf("resolve %s.%s: %w", e.Kind, p.name, err)
		}
		if p.primaryKey {
			e.KeyValues[p.name] = v
			e.resolvedKeys++
		} else {
			e.NewValues[p.name] = v
		}
		e.pending = e.pending[1:]
	}
	return nil
}

// ToAudit materializes the entry. It refuses entries with pending properties.
func (e *Entry) ToAudit(id uuid.UUID, ts time.Time) (domain.Audit, error) {
	if e.HasPending() {
		return domain.Audit{}, fmt.Errorf("%w: %s %v", ErrUnresolvedProperties, e.Kind, e.PendingProperties())
	}
	keys, err := Encode(e.KeyValues)
	if err != nil {
		return domain.Audit{}, fmt.Errorf("encode key values: %w", err)
	}
	oldValues, err := Encode(e.OldValues)
	if err != nil {
		return domain.Audit{}, fmt.Errorf("encode old values: %w", err)
	}
	newValues, err := Encode(e.NewValues)
	if err != nil {
		return domain.Audit{}, fmt.Errorf("encode new values: %w", err)
	}
	return domain.Audit{
		ID:        id,
		Kind:      e.Kind,
		Operation: e.Operation,
		KeyValues: keys,
		OldValues: oldValues,
		NewValues: newValues,
		Timestamp: ts.UTC(),
	}, nil
}

// EntrySummary identifies an entry in failure reports.
type EntrySummary struct {
	Kind      string           `json:"kind"`
	Operation domain.Operation `json:"operation"`
	KeyValues Values           `json:"keyValues"`
	Pending   []string         `json:"pending,omitempty"`
}

func (e *Entry) Summary() EntrySummary {
	keys := make(Values, len(e.KeyValues))
	for k, v := range e.KeyValues {
		keys[k] = v
	}
	return EntrySummary{Kind: e.Kind, Operation: e.Operation, KeyValues: keys, Pending: e.PendingProperties()}
}
