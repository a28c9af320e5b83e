package auth

const (
	RoleEmployee    = "Employee"
	RoleManager     = "Manager"
	RoleHR          = "HR"
	RoleSystemAdmin = "SystemAdmin"
)

const (
	PermCatalogRead     = "salary.catalog.read"
	PermCatalogWrite    = "salary.catalog.write"
	PermProfilesRead    = "profiles.read"
	PermProfilesWrite   = "profiles.write"
	PermStructuresRead  = "salary.structures.read"
	PermStructuresWrite = "salary.structures.write"
	PermSlipsRead       = "salary.slips.read"
	PermSlipsWrite      = "salary.slips.write"
	PermAuditRead       = "audit.read"
	PermSystemAdmin     = "admin.system"
)

var DefaultPermissions = []string{
	PermCatalogRead,
	PermCatalogWrite,
	PermProfilesRead,
	PermProfilesWrite,
	PermStructuresRead,
	PermStructuresWrite,
	PermSlipsRead,
	PermSlipsWrite,
	PermAuditRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermSlipsRead,
	},
	RoleManager: {
		PermCatalogRead,
		PermProfilesRead,
		PermStructuresRead,
		PermSlipsRead,
	},
	RoleHR: {
		PermCatalogRead,
		PermCatalogWrite,
		PermProfilesRead,
		PermProfilesWrite,
		PermStructuresRead,
		PermStructuresWrite,
		PermSlipsRead,
		PermSlipsWrite,
		PermAuditRead,
	},
	RoleSystemAdmin: {
		PermAuditRead,
		PermSystemAdmin,
	},
}
