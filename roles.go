package auth

// UserRole is the user's privilege level within the institute
type UserRole string

const (
	// RoleAdmin administers the whole platform
	RoleAdmin UserRole = "ADMIN"
	// RoleDirecteur directs the institute (i.e. manage users, approve projects)
	RoleDirecteur UserRole = "DIRECTEUR"
	// RoleChefDepartement heads a department
	RoleChefDepartement UserRole = "CHEF_DEPARTEMENT"
	// RoleChercheur is a researcher
	RoleChercheur UserRole = "CHERCHEUR"
	// RoleAssistant assists researchers
	RoleAssistant UserRole = "ASSISTANT"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDirecteur, RoleChefDepartement, RoleChercheur, RoleAssistant:
		return true
	default:
		return false
	}
}

// CanManageUsers checks if this role may create or deactivate accounts
func (r UserRole) CanManageUsers() bool {
	switch r {
	case RoleAdmin, RoleDirecteur:
		return true
	default:
		return false
	}
}

// IsAtLeast checks if this role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

var roleHierarchy = map[UserRole]int{
	RoleAssistant:       0,
	RoleChercheur:       1,
	RoleChefDepartement: 2,
	RoleDirecteur:       3,
	RoleAdmin:           4,
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleAssistant,
		RoleChercheur,
		RoleChefDepartement,
		RoleDirecteur,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
