package models

// Role is one of the two fixed account roles
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// IsValid checks if the role is one of the predefined roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	return role, role.IsValid()
}

// LandingPath returns the default page for the role. Anything that is not
// an admin lands on the member dashboard.
func (r Role) LandingPath() string {
	if r == RoleAdmin {
		return "/admin/dashboard"
	}
	return "/dashboard"
}
