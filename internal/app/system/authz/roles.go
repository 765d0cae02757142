package authz

// The closed set of roles. Role strings are stored lowercased and every
// authorization branch compares against these constants, never free strings.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleIC      = "ic"
)

// ValidRole reports whether s (already normalized) is one of the three
// recognized roles.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleManager, RoleIC:
		return true
	}
	return false
}

// CanManage reports whether a user with the given role may be assigned as a
// team manager.
func CanManage(role string) bool {
	return role == RoleManager || role == RoleAdmin
}
