package auth

// Role is the access tier carried in a token's claims.
type Role string

// Roles form a strict ladder: viewer reads, operator issues documents,
// admin additionally adjusts cash and manages users.
const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// NormalizeRole maps a raw string onto a known role, rejecting anything else.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleViewer, RoleOperator, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast reports whether role sits at or above required on the ladder.
// Unknown roles rank below viewer and never satisfy anything.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

func roleRank(role Role) int {
	switch role {
	case RoleViewer:
		return 1
	case RoleOperator:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}
