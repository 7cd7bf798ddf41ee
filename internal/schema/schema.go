// Package schema describes persisted kinds explicitly so that change tracking and
// audit capture never need runtime type inspection.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidKind is returned when a kind declaration is malformed.
var ErrInvalidKind = errors.New("invalid kind declaration")

// Entity is implemented by every persisted business type.
type Entity interface {
	// Kind returns the registered kind (table) name.
	Kind() string
	// Values returns the flattened property values in declaration order.
	Values() []any
	// SetGenerated writes a backend-generated value back into the entity.
	SetGenerated(property string, value any) error
}

// Property declares one flattened, scalar property of a kind.
type Property struct {
	Name       string
	Column     string
	PrimaryKey bool
	Generated  bool
}

// Kind declares a persisted kind and its properties in declaration order.
type Kind struct {
	Name       string
	Properties []Property

	index map[string]int
}

// Index returns the position of the named property.
func (k *Kind) Index(name string) (int, bool) {
	i, ok := k.index[name]
	return i, ok
}

// Property returns the named property.
func (k *Kind) Property(name string) (Property, bool) {
	i, ok := k.index[name]
	if !ok {
		return Property{}, false
	}
	return k.Properties[i], true
}

// Keys returns the primary-key properties in declaration order.
func (k *Kind) Keys() []Property {
	var keys []Property
	for _, p := range k.Properties {
		if p.PrimaryKey {
			keys = append(keys, p)
		}
	}
	return keys
}

// Registry holds every declared kind.
type Registry struct {
	kinds map[string]*Kind
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

// Register validates and adds a kind declaration.
func (r *Registry) Register(name string, props ...Property) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty kind name", ErrInvalidKind)
	}
	if _, exists := r.kinds[name]; exists {
		return fmt.Errorf("%w: kind %q registered twice", ErrInvalidKind, name)
	}
	if len(props) == 0 {
		return fmt.Errorf("%w: kind %q has no properties", ErrInvalidKind, name)
	}

	k := &Kind{Name: name, Properties: make([]Property, len(props)), index: make(map[string]int, len(props))}
	hasKey := false
	for i, p := range props {
		if p.Name == "" || p.Column == "" {
			return fmt.Errorf("%w: kind %q property %d needs a name and a column", ErrInvalidKind, name, i)
		}
		if _, dup := k.index[p.Name]; dup {
			return fmt.Errorf("%w: kind %q declares property %q twice", ErrInvalidKind, name, p.Name)
		}
		hasKey = hasKey || p.PrimaryKey
		k.Properties[i] = p
		k.index[p.Name] = i
	}
	if !hasKey {
		return fmt.Errorf("%w: kind %q has no primary key", ErrInvalidKind, name)
	}

	r.kinds[name] = k
	return nil
}

// Lookup returns the named kind.
func (r *Registry) Lookup(name string) (*Kind, bool) {
	k, ok := r.kinds[name]
	return k, ok
}

// Kinds returns the registered kind names, sorted.
func (r *Registry) Kinds() []string {
	names := make([]string, 0, len(r.kinds))
	for n := range r.kinds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MustLookup returns the named kind and panics if it is not registered. Use it
// only for kinds declared at startup.
func (r *Registry) MustLookup(name string) *Kind {
	k, ok := r.kinds[name]
	if !ok {
		panic(fmt.Sprintf("schema: kind %q is not registered", name))
	}
	return k
}
