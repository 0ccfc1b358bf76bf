package authz

// Set is an immutable set of granted permission IDs. A nil Set is valid and
// empty; users without a grant object simply hold no permissions.
type Set map[PermissionID]struct{}

// NewSet builds a Set from IDs.
func NewSet(ids ...PermissionID) Set {
	set := make(Set, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s Set) Has(id PermissionID) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in unspecified order.
func (s Set) IDs() []PermissionID {
	ids := make([]PermissionID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of granted permissions.
func (s Set) Len() int {
	return len(s)
}
