package rbac

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// Default policy. Admins author and manage content; only superadmins
// manage the admin list and send broadcasts.
var RolePermissions = map[string][]string{
	RoleUser: {
		"content:view",
		"solve:*",
		"stats:view-own",
	},
	RoleAdmin: {
		"content:view",
		"solve:*",
		"stats:view-own",
		"content:create",
		"content:import",
		"questions:manage",
	},
	RoleSuperadmin: {
		"*", // everything
	},
}
