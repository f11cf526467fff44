package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionCoursesWrite allows creating, updating and deleting courses and batches.
	PermissionCoursesWrite Permission = "courses:write"

	// PermissionContentWrite allows managing folders and uploading files.
	PermissionContentWrite Permission = "content:write"

	// PermissionRosterWrite allows enrolling and removing students.
	PermissionRosterWrite Permission = "roster:write"
)

// Role is a staff role. Permissions are fixed per role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleTutor Role = "tutor"
)

// RolePermissions maps each role to what it may do. Tutors manage content
// and rosters but not the course catalogue.
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {PermissionCoursesWrite, PermissionContentWrite, PermissionRosterWrite},
	RoleTutor: {PermissionContentWrite, PermissionRosterWrite},
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := RolePermissions[r]
	return ok
}

// Permissions returns a copy of the role's permissions.
func (r Role) Permissions() []Permission {
	return append([]Permission(nil), RolePermissions[r]...)
}
