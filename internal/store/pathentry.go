package store

import (
	"regexp"

	hvmerrors "github.com/systmms/helm-values-manager/internal/errors"
)

var pathPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)*$`)

// ValidPath reports whether path matches the dot-delimited path syntax.
func ValidPath(path string) bool {
	return pathPattern.MatchString(path)
}

// Metadata holds the descriptive and validation attributes of a path.
type Metadata struct {
	Description string
	Required    bool
	Sensitive   bool
}

// PathEntry owns the metadata and the per-deployment values for one
// configuration path. The path itself is immutable; it doubles as the entry's
// key in the store's path map.
type PathEntry struct {
	path     string
	metadata Metadata
	values   map[string]*Value
}

func newPathEntry(path string, metadata Metadata) *PathEntry {
	return &PathEntry{
		path:     path,
		metadata: metadata,
		values:   make(map[string]*Value),
	}
}

// Path returns the entry's configuration path.
func (p *PathEntry) Path() string { return p.path }

// Metadata returns the entry's metadata.
func (p *PathEntry) Metadata() Metadata { return p.metadata }

// HasValues reports whether any deployment holds a value for this path.
func (p *PathEntry) HasValues() bool { return len(p.values) > 0 }

// HasValue reports whether the given deployment holds a value for this path.
func (p *PathEntry) HasValue(deployment string) bool {
	_, ok := p.values[deployment]
	return ok
}

// Deployments returns the names of deployments holding a value, in no
// particular order.
func (p *PathEntry) Deployments() []string {
	names := make([]string, 0, len(p.values))
	for name := range p.values {
		names = append(names, name)
	}
	return names
}

// value returns the Value bound for deployment, or nil.
func (p *PathEntry) value(deployment string) *Value {
	return p.values[deployment]
}

// setValue binds v for deployment. Deployment existence is the store's job;
// the entry only enforces path consistency.
func (p *PathEntry) setValue(deployment string, v *Value) error {
	if v.path != p.path {
		return &hvmerrors.PathError{Path: v.path, Err: hvmerrors.ErrPathConflict}
	}
	p.values[deployment] = v
	return nil
}

// removeValue drops the binding for deployment.
func (p *PathEntry) removeValue(deployment string) {
	delete(p.values, deployment)
}
