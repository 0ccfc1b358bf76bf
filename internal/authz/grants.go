package authz

import (
	"sort"
	"strconv"
	"strings"
)

// The backend contract transmits role grants as two semicolon-joined ID
// lists: "sections" for top-level permissions and "areas" for nested ones.
// The split is cosmetic; clients and the rest of this codebase only ever see
// a flat Set. This file is the only place that knows the wire shape.

// EncodeGrants serialises a Set into the sections/areas wire format. Output
// is sorted so equal sets encode identically.
func EncodeGrants(r *Registry, set Set) (sections, areas string) {
	var top, nested []PermissionID
	for id := range set {
		if _, ok := r.Name(id); !ok {
			continue
		}
		if r.IsTopLevel(id) {
			top = append(top, id)
		} else {
			nested = append(nested, id)
		}
	}
	return joinIDs(top), joinIDs(nested)
}

// DecodeGrants parses the sections/areas wire format into a flat Set. IDs
// not present in the registry are dropped: an unknown ID grants nothing.
func DecodeGrants(r *Registry, sections, areas string) Set {
	set := make(Set)
	for _, raw := range []string{sections, areas} {
		for _, field := range strings.Split(raw, ";") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			n, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				continue
			}
			id := PermissionID(n)
			if _, ok := r.Name(id); !ok {
				continue
			}
			set[id] = struct{}{}
		}
	}
	return set
}

func joinIDs(ids []PermissionID) string {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return strings.Join(parts, ";")
}
