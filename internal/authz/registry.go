// Package authz defines the static permission registry and the permission
// set type shared by the access guard, the navigation model and the role
// grant codec.
//
// Permission IDs are a wire contract: roles persist them server-side, so an
// ID must never be reassigned to a different capability. New permissions get
// previously unused IDs.
package authz

import (
	"fmt"
	"sort"
)

// PermissionID identifies one grantable capability. IDs are stable across
// releases.
type PermissionID int64

// Definition declares one permission inside a section.
type Definition struct {
	Name string
	ID   PermissionID
}

// Section groups a top-level permission with its nested permissions. The
// grouping drives the sections/areas split of the role grant encoding.
type Section struct {
	Name     string
	ID       PermissionID
	Children []Definition
}

// Registry is the bidirectional PermissionName <-> PermissionID mapping.
type Registry struct {
	byName   map[string]PermissionID
	byID     map[PermissionID]string
	topLevel map[PermissionID]bool
	sections []Section
}

// NewRegistry builds a Registry from section declarations. Duplicate names or
// IDs are a configuration defect and fail construction.
func NewRegistry(sections []Section) (*Registry, error) {
	r := &Registry{
		byName:   make(map[string]PermissionID),
		byID:     make(map[PermissionID]string),
		topLevel: make(map[PermissionID]bool),
		sections: sections,
	}
	add := func(name string, id PermissionID, top bool) error {
		if name == "" {
			return fmt.Errorf("authz: permission with id %d has empty name", id)
		}
		if _, ok := r.byName[name]; ok {
			return fmt.Errorf("authz: duplicate permission name %q", name)
		}
		if existing, ok := r.byID[id]; ok {
			return fmt.Errorf("authz: permission id %d assigned to both %q and %q", id, existing, name)
		}
		r.byName[name] = id
		r.byID[id] = name
		if top {
			r.topLevel[id] = true
		}
		return nil
	}
	for _, section := range sections {
		if err := add(section.Name, section.ID, true); err != nil {
			return nil, err
		}
		for _, child := range section.Children {
			if err := add(child.Name, child.ID, false); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// ID resolves a permission name. The second return is false for unknown
// names; callers treat that as a configuration defect, never as "allow".
func (r *Registry) ID(name string) (PermissionID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Name resolves a permission ID back to its name.
func (r *Registry) Name(id PermissionID) (string, bool) {
	name, ok := r.byID[id]
	return name, ok
}

// IsTopLevel reports whether the ID belongs to a section-level permission.
func (r *Registry) IsTopLevel(id PermissionID) bool {
	return r.topLevel[id]
}

// Sections returns the declared sections in order.
func (r *Registry) Sections() []Section {
	return r.sections
}

// Names returns all registered permission names sorted by ID, for the role
// editor listing.
func (r *Registry) Names() []string {
	ids := make([]PermissionID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = r.byID[id]
	}
	return names
}
