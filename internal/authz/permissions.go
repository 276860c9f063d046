// internal/authz/permissions.go
package authz

// Permission tags. They are matched by exact set membership.
const (
	UsersGet    = "users.get"
	UsersCreate = "users.create"
	UsersUpdate = "users.update"
	UsersDelete = "users.delete"
)

// All lists every permission tag a user can be granted.
var All = []string{UsersGet, UsersCreate, UsersUpdate, UsersDelete}

func IsKnown(permission string) bool {
	for _, p := range All {
		if p == permission {
			return true
		}
	}
	return false
}
