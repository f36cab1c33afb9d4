package dragonball

import "strings"

// Role is the normalized authorization tier used for UI gating.
type Role string

const (
	// RoleAdmin can reach management views
	RoleAdmin Role = "ADMIN"
	// RolePlayer is the default tier for every other account
	RolePlayer Role = "PLAYER"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RolePlayer:
		return true
	default:
		return false
	}
}

// NormalizeRole trims whitespace, strips a literal ROLE_ prefix, and
// uppercases the remainder. Empty input yields the empty Role.
func NormalizeRole(raw string) Role {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	trimmed = strings.TrimPrefix(trimmed, "ROLE_")
	return Role(strings.ToUpper(trimmed))
}

// ResolveRole picks the effective role from the candidate sources in
// precedence order: the role the login response carried, then the first
// entry of the token's roles claim, then a username heuristic.
//
// The heuristic (subject "admin" implies RoleAdmin) is kept for
// compatibility with existing accounts. It is a weak signal and must not be
// consulted anywhere else; the server enforces real authorization.
func ResolveRole(responseRole, rolesClaim, subject string) Role {
	if role := NormalizeRole(responseRole); role != "" {
		return role
	}

	if rolesClaim != "" {
		first, _, _ := strings.Cut(rolesClaim, ",")
		if role := NormalizeRole(first); role != "" {
			return role
		}
	}

	if strings.EqualFold(subject, "admin") {
		return RoleAdmin
	}
	return RolePlayer
}
