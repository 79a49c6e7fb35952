package identity

import "slices"

// Role is the coarse-grained role a user holds at the till
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

// Permission codes carried in access tokens
const (
	PermissionProductRead    = "product:read"
	PermissionProductCreate  = "product:create"
	PermissionProductUpdate  = "product:update"
	PermissionProductDelete  = "product:delete"
	PermissionProductRestock = "product:restock"
	PermissionSaleCreate     = "sale:create"
	PermissionSaleRead       = "sale:read"
	PermissionReportRead     = "report:read"
	PermissionUserManage     = "user:manage"
)

var rolePermissions = map[Role][]string{
	RoleAdmin: {
		PermissionProductRead,
		PermissionProductCreate,
		PermissionProductUpdate,
		PermissionProductDelete,
		PermissionProductRestock,
		PermissionSaleRead,
		PermissionReportRead,
		PermissionUserManage,
	},
	// Ringing up sales is reserved for cashiers.
	RoleCashier: {
		PermissionProductRead,
		PermissionSaleCreate,
	},
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions returns a copy of the permissions granted to the role
func (r Role) Permissions() []string {
	return slices.Clone(rolePermissions[r])
}

// HasPermission reports whether the role grants the permission
func (r Role) HasPermission(code string) bool {
	return slices.Contains(rolePermissions[r], code)
}
