package model

// User roles
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleTechnician = "technician"
	RoleViewer     = "viewer"
)

// User statuses
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusPending  = "pending"
)

// PrivilegedRoles are the roles that receive reminders and may trigger them manually.
var PrivilegedRoles = []string{RoleAdmin, RoleManager}

// IsPrivilegedRole reports whether role is one of PrivilegedRoles.
func IsPrivilegedRole(role string) bool {
	for _, r := range PrivilegedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Tenant is the owning company of users and assets. Read-only here.
type Tenant struct {
	ID          string `db:"id" json:"id"`
	CompanyName string `db:"company_name" json:"company_name"`
}

// User is a tenant member. Read-only here.
type User struct {
	ID       string `db:"id" json:"id"`
	Email    string `db:"email" json:"email"`
	Name     string `db:"name" json:"name"`
	TenantID string `db:"tenant_id" json:"tenant_id"`
	Role     string `db:"role" json:"role"`
	Status   string `db:"status" json:"status"`
}

// IsEligibleRecipient reports whether the user should receive reminders.
func (u User) IsEligibleRecipient() bool {
	return u.Status == UserStatusActive && IsPrivilegedRole(u.Role)
}

// AuthUser is the caller identity extracted from a validated access token.
type AuthUser struct {
	ID       string
	TenantID string
	Role     string
	Email    string
}
