// Package authz centralizes role capability checks so views never test roles
// directly.
package authz

import "github.com/mira-platform/miractl/internal/model"

// Resource names a console area gated by role.
type Resource string

const (
	ResourceDashboard Resource = "dashboard"
	ResourceUsers     Resource = "users"
	ResourceCommunity Resource = "community"
	ResourceReports   Resource = "reports"
	ResourceFeatures  Resource = "features"
	ResourceAdmins    Resource = "admins"
	ResourceImport    Resource = "import"
	ResourceExport    Resource = "export"
)

// superAdminOnly lists the resources restricted to HQ accounts. Everything
// else is open to any authenticated admin.
var superAdminOnly = map[Resource]bool{
	ResourceAdmins: true,
}

// CanAccess reports whether a role may use a resource.
func CanAccess(role model.Role, res Resource) bool {
	if superAdminOnly[res] {
		return role == model.RoleSuperAdmin
	}
	return true
}
