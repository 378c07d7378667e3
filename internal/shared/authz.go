package shared

import "strings"

// Role is the coarse permission grouping carried in access tokens.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleAccountant Role = "ACCOUNTANT"
	RoleSales      Role = "SALES"
	RoleViewer     Role = "VIEWER"
)

// Resources guarded at the HTTP boundary.
const (
	ResourcePayments  = "payments"
	ResourceInvoices  = "invoices"
	ResourceAnalytics = "analytics"
	ResourceReports   = "reports"
	ResourceUsers     = "users"
)

// Actions applied to resources.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
)

// rolePermissions maps a role to "resource:action" grants. "*" grants every
// action on a resource.
var rolePermissions = map[Role][]string{
	RoleAdmin: {
		"payments:*", "invoices:*", "analytics:*", "reports:*", "users:*",
	},
	RoleManager: {
		"payments:view", "invoices:view", "analytics:view", "reports:view", "users:view",
	},
	RoleAccountant: {
		"payments:view", "payments:create", "invoices:*", "analytics:view", "reports:view",
	},
	RoleSales: {
		"invoices:view", "reports:view",
	},
	RoleViewer: {
		"analytics:view", "reports:view",
	},
}

// ParseRole normalises a role string; unknown roles yield false.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := rolePermissions[role]
	return role, ok
}

// HasPermission reports whether user may perform action on resource.
func HasPermission(user *Principal, resource, action string) bool {
	if user == nil {
		return false
	}
	grants, ok := rolePermissions[user.Role]
	if !ok {
		return false
	}
	resource = strings.ToLower(strings.TrimSpace(resource))
	action = strings.ToLower(strings.TrimSpace(action))
	for _, grant := range grants {
		res, act, found := strings.Cut(grant, ":")
		if !found || res != resource {
			continue
		}
		if act == "*" || act == action {
			return true
		}
	}
	return false
}
