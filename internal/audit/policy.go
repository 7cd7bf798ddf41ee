package audit

import (
	"sort"
	"strings"

	"docstore/internal/schema"
)

// PolicyConfig is the configured audit policy.
type PolicyConfig struct {
	// AuditKind is the kind audit rows are stored as. It is always excluded.
	AuditKind string
	// ExcludedKinds are never audited.
	ExcludedKinds []string
	// MetadataProperties are property roots skipped during capture. A
	// property matches when the segment before its first "." equals a root.
	MetadataProperties []string
}

// DefaultPolicyConfig excludes the audit and access log kinds and skips the
// creation, update and view bookkeeping properties.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		AuditKind:          "audits",
		ExcludedKinds:      []string{"audits", "access_logs"},
		MetadataProperties: []string{"Created", "LastUpdate", "LastViewed"},
	}
}

// Policy decides which kinds and properties are audited.
type Policy struct {
	auditKind string
	excluded  map[string]struct{}
	metadata  map[string]struct{}
}

// NewPolicy validates the configuration on its own terms. Use Validate to check
// it against a registry.
func NewPolicy(cfg PolicyConfig) (*Policy, error) {
	auditKind := strings.TrimSpace(cfg.AuditKind)
	if auditKind == "" {
		return nil, policyError("audit kind is empty")
	}
	p := &Policy{
		auditKind: auditKind,
		excluded:  map[string]struct{}{auditKind: {}},
		metadata:  make(map[string]struct{}, len(cfg.MetadataProperties)),
	}
	for _, k := range cfg.ExcludedKinds {
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, policyError("excluded kind is empty")
		}
		p.excluded[k] = struct{}{}
	}
	for _, m := range cfg.MetadataProperties {
		m = strings.TrimSpace(m)
		if m == "" {
			return nil, policyError("metadata property is empty")
		}
		if strings.Contains(m, ".") {
			return nil, policyError("metadata property %q must be a root name", m)
		}
		if _, dup := p.metadata[m]; dup {
			return nil, policyError("metadata property %q listed twice", m)
		}
		p.metadata[m] = struct{}{}
	}
	return p, nil
}

// AuditKind returns the kind audit rows are stored as.
func (p *Policy) AuditKind() string { return p.auditKind }

// ExcludesKind reports whether changes of kind are never audited.
func (p *Policy) ExcludesKind(kind string) bool {
	_, ok := p.excluded[kind]
	return ok
}

// SkipsProperty reports whether name falls under a metadata root.
func (p *Policy) SkipsProperty(name string) bool {
	root, _, _ := strings.Cut(name, ".")
	_, ok := p.metadata[root]
	return ok
}

// ExcludedKinds returns the excluded kinds, sorted.
func (p *Policy) ExcludedKinds() []string {
	out := make([]string, 0, len(p.excluded))
	for k := range p.excluded {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks the policy against the registered kinds. Excluded kinds must
// exist, at least one kind must remain audited, and no audited key property may
// be skipped as metadata.
func (p *Policy) Validate(reg *schema.Registry) error {
	if _, ok := reg.Lookup(p.auditKind); !ok {
		return policyError("audit kind %q is not registered", p.auditKind)
	}
	for _, k := range p.ExcludedKinds() {
		if _, ok := reg.Lookup(k); !ok {
			return policyError("excluded kind %q is not registered", k)
		}
	}
	audited := 0
	for _, name := range reg.Kinds() {
		if p.ExcludesKind(name) {
			continue
		}
		audited++
		kind, _ := reg.Lookup(name)
		for _, prop := range kind.Properties {
			if prop.PrimaryKey && p.SkipsProperty(prop.Name) {
				return policyError("key property %s.%s is listed as metadata", name, prop.Name)
			}
		}
	}
	if audited == 0 {
		return policyError("every registered kind is excluded")
	}
	return nil
}
