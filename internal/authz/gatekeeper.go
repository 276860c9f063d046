package authz

import "todo-api/internal/entities"

// Decision is the outcome of one authorization check. The zero value denies.
type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(reason string) Decision { return Decision{Reason: reason} }

// Check is a single authorization rule evaluated against the request principal.
type Check func(p *entities.Principal) Decision

// Authorize passes super-users unconditionally, everyone else needs the tag.
func Authorize(permission string) Check {
	return func(p *entities.Principal) Decision {
		if p == nil {
			return Deny("Unauthenticated")
		}
		if p.IsSuperUser() {
			return Allow()
		}
		if !p.Permissions.Has(permission) {
			return Deny("Forbidden")
		}
		return Allow()
	}
}

func IsSuperUser() Check {
	return func(p *entities.Principal) Decision {
		if p.IsSuperUser() {
			return Allow()
		}
		return Deny("forbidden")
	}
}
