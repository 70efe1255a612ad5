// Package identity holds the account model and its persistence contracts.
package identity

import "errors"

var (
	// ErrNotFound reports a missing identity.
	ErrNotFound = errors.New("identity: not found")
	// ErrRoleCeiling reports an attempt to manage an identity whose role is
	// not strictly below the actor's.
	ErrRoleCeiling = errors.New("identity: subject role not below actor role")
)

// Identity is an application user account. Accounts are created
// unauthorized at signup and must be approved by an administrator before
// they can hold a session.
type Identity struct {
	ID           int64
	UUID         string // stable external identifier, safe to expose
	Login        string
	Name         string
	PasswordHash string
	Authorized   bool
	Role         int
	LocaleID     int
}

// Role ordinals: higher means more privileged. An actor may only view or
// manage identities whose role is strictly below its own.
const (
	RoleUser    = 1
	RoleManager = 2
	RoleAdmin   = 3
)

// CanManage reports whether an actor with actorRole may act on an identity
// with subjectRole.
func CanManage(actorRole, subjectRole int) bool {
	return subjectRole < actorRole
}

// Capability is a single permitted request path granted to a role.
// Capabilities are data, not code: the capability gate compares the
// requested path against this list.
type Capability struct {
	Label    string `json:"label"`
	Path     string `json:"path"`
	Position int    `json:"position"`
}

// Matches reports whether the capability grants the requested path.
// Matching is exact on purpose; prefixes would widen grants silently.
func (c Capability) Matches(path string) bool {
	return c.Path == path
}

// AnyMatches reports whether one of caps grants the requested path.
func AnyMatches(caps []Capability, path string) bool {
	for _, c := range caps {
		if c.Matches(path) {
			return true
		}
	}
	return false
}
