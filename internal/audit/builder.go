package audit

import "fmt"

// Builder turns tracked changes into audit entries under a policy.
type Builder struct {
	policy *Policy
}

func NewBuilder(policy *Policy) *Builder {
	return &Builder{policy: policy}
}

// Build captures one change. It returns a nil entry for excluded kinds and for
// unchanged or detached entities.
func (b *Builder) Build(c Change) (*Entry, error) {
	if b.policy.ExcludesKind(c.Kind()) {
		return nil, nil
	}
	op, ok := c.State().Operation()
	if !ok {
		return nil, nil
	}

	e := newEntry(c.Kind(), op, c)
	for _, p := range c.Properties() {
		if b.policy.SkipsProperty(p.Name) {
			continue
		}
		if p.Pending {
			e.pending = append(e.pending, pendingProperty{name: p.Name, primaryKey: p.PrimaryKey})
			continue
		}

		current, err := Normalize(p.Current)
		if err != nil {
			return nil, fmt.Errorf("capture %s.%s: %w", c.Kind(), p.Name, err)
		}
		if p.PrimaryKey {
			e.KeyValues[p.Name] = current
			continue
		}

		switch c.State() {
		case StateAdded:
			e.NewValues[p.Name] = current
		case StateDeleted:
			original, err := Normalize(p.Original)
			if err != nil {
				return nil, fmt.Errorf("capture %s.%s: %w", c.Kind(), p.Name, err)
			}
			e.OldValues[p.Name] = original
		case StateModified:
			original, err := Normalize(p.Original)
			if err != nil {
				return nil, fmt.Errorf("capture %s.%s: %w", c.Kind(), p.Name, err)
			}
			if !Equal(original, current) {
				e.OldValues[p.Name] = original
				e.NewValues[p.Name] = current
			}
		}
	}
	return e, nil
}
