package domain

import "strings"

// Role is the closed set of console roles. Sessions carry exactly one
// authoritative role; the claim may spell it in a short form ("ADMIN") or a
// prefixed form ("ROLE_ADMIN") and both normalize to the same value.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleClient   Role = "CLIENT"
	RoleMediator Role = "MEDIATOR"

	// RoleUnknown is the zero value for absent or unrecognized roles. It is
	// never authorized for anything.
	RoleUnknown Role = ""
)

const rolePrefix = "ROLE_"

// NormalizeRole maps a raw role claim string onto the Role set. The prefixed
// spelling is a compatibility shim for older tokens, not a distinct role.
func NormalizeRole(raw string) Role {
	name := strings.ToUpper(strings.TrimSpace(raw))
	name = strings.TrimPrefix(name, rolePrefix)
	switch Role(name) {
	case RoleAdmin, RoleClient, RoleMediator:
		return Role(name)
	default:
		return RoleUnknown
	}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleMediator:
		return true
	default:
		return false
	}
}

// In reports whether r is a member of the given set.
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}
