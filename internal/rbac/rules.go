package rbac

// Default policy. Roles are stored on the student row and carried in the JWT.
var RolePermissions = map[string][]string{
	"student": {
		"exam:start",
		"exam:questions",
		"exam:submit",
		"exam:result",
		"biodata:update",
		"settings:view",
	},
	"proctor": {
		"exam:questions",
		"settings:view",
		"submissions:list",
		"submissions:view",
	},
	"admin": {
		"*", // everything
	},
}
