package approval

import "strings"

// Role is the closed set of application roles carried in caller tokens.
type Role int

const (
	RoleUnknown Role = iota
	RoleUser
	RoleTeamLeader
	RoleSuperAdmin
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "USER"
	case RoleTeamLeader:
		return "TEAM_LEADER"
	case RoleSuperAdmin:
		return "SUPER_ADMIN"
	default:
		return ""
	}
}

// ParseRole maps a claim value to a Role. Unknown values yield RoleUnknown.
func ParseRole(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USER":
		return RoleUser
	case "TEAM_LEADER":
		return RoleTeamLeader
	case "SUPER_ADMIN":
		return RoleSuperAdmin
	default:
		return RoleUnknown
	}
}

// CanApprove reports whether the role may decide access requests.
func (r Role) CanApprove() bool {
	switch r {
	case RoleTeamLeader, RoleSuperAdmin:
		return true
	case RoleUser, RoleUnknown:
		return false
	}
	return false
}

// Assignable reports whether the role may be granted through approval.
func (r Role) Assignable() bool {
	switch r {
	case RoleTeamLeader, RoleUser:
		return true
	case RoleSuperAdmin, RoleUnknown:
		return false
	}
	return false
}
