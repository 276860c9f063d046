package entities

import "sort"

// Role is the coarse user role. SuperUser bypasses every permission check.
type Role string

const (
	RoleUser      Role = "user"
	RoleSuperUser Role = "superUser"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleSuperUser
}

// PermissionSet is a set of permission tags such as "users.get".
type PermissionSet map[string]struct{}

func NewPermissionSet(permissions ...string) PermissionSet {
	set := make(PermissionSet, len(permissions))
	for _, p := range permissions {
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(permission string) bool {
	_, ok := s[permission]
	return ok
}

// List returns the tags in lexical order.
func (s PermissionSet) List() []string {
	list := make([]string, 0, len(s))
	for p := range s {
		list = append(list, p)
	}
	sort.Strings(list)
	return list
}

// Principal is the authenticated identity of a single request. It is rebuilt
// from token claims on every request and never stored.
type Principal struct {
	ID          uint64
	Name        string
	Email       string
	Role        Role
	Permissions PermissionSet
}

func (p *Principal) IsSuperUser() bool {
	return p != nil && p.Role == RoleSuperUser
}

// PrincipalView is the JSON shape of a principal.
type PrincipalView struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions"`
}

func (p *Principal) View() PrincipalView {
	return PrincipalView{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Role:        p.Role,
		Permissions: p.Permissions.List(),
	}
}
