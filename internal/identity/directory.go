package identity

import "context"

// Directory is the in-memory role to capability mapping, fetched in bulk at
// startup. It is read-only after construction and therefore safe to share
// across requests without locks.
type Directory struct {
	byRole map[int][]Capability
}

// LoadDirectory fetches the full mapping from the capability store.
func LoadDirectory(ctx context.Context, store CapabilityStore) (*Directory, error) {
	mapping, err := store.Mapping(ctx)
	if err != nil {
		return nil, err
	}
	return NewDirectory(mapping), nil
}

// NewDirectory wraps an existing mapping; used by tests and startup code
// that already holds one.
func NewDirectory(mapping map[int][]Capability) *Directory {
	byRole := make(map[int][]Capability, len(mapping))
	for role, caps := range mapping {
		byRole[role] = append([]Capability(nil), caps...)
	}
	return &Directory{byRole: byRole}
}

// ForRole returns the role's ordered capability list. The returned slice is
// a copy; callers may not mutate directory state.
func (d *Directory) ForRole(role int) []Capability {
	caps, ok := d.byRole[role]
	if !ok {
		return nil
	}
	return append([]Capability(nil), caps...)
}

// Grants reports whether the role's capabilities include the exact path.
func (d *Directory) Grants(role int, path string) bool {
	return AnyMatches(d.byRole[role], path)
}
