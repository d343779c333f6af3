package approval

// ResolveRole returns the role an approver may grant for a requested role.
//
// A team leader can grant TEAM_LEADER only when that is what was asked for,
// and USER otherwise. A super admin grants any assignable role verbatim and
// USER for anything else.
func ResolveRole(approver Role, requested Role) Role {
	switch approver {
	case RoleTeamLeader:
		if requested == RoleTeamLeader {
			return RoleTeamLeader
		}
		return RoleUser
	case RoleSuperAdmin:
		if requested.Assignable() {
			return requested
		}
		return RoleUser
	case RoleUser, RoleUnknown:
		return RoleUser
	}
	return RoleUser
}

// ResolveHQ picks the headquarters id: explicit input, then the stored
// request value, then the configured default.
func ResolveHQ(input, stored, fallback string) string {
	return firstNonEmpty(input, stored, fallback)
}

// ResolveTeam picks the team id: explicit input, then the stored request
// value, then the approving caller's own team.
func ResolveTeam(input, stored, callerTeam string) string {
	return firstNonEmpty(input, stored, callerTeam)
}

// ResolvePart picks the part id: explicit input, then the stored value.
func ResolvePart(input, stored string) string {
	return firstNonEmpty(input, stored)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
