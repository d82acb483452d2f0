package domain

import (
	"fmt"
	"strings"
)

type Role int

const (
	RoleAdmin Role = iota + 1
	RoleSecurity
	RoleSupervisor
	RoleStaff
)

var roleNames = map[Role]string{
	RoleAdmin:      "Admin",
	RoleSecurity:   "Security",
	RoleSupervisor: "Supervisor",
	RoleStaff:      "Staff",
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for r, n := range roleNames {
		if strings.EqualFold(n, s) {
			return r, true
		}
	}
	return 0, false
}

// ParseRoles reads a comma separated list and drops unknown names.
func ParseRoles(raw string) []Role {
	var out []Role
	for _, part := range strings.Split(raw, ",") {
		if r, ok := ParseRole(part); ok {
			out = append(out, r)
		}
	}
	return out
}

func RoleNames(roles []Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.String())
	}
	return out
}

type Action int

const (
	ActionView Action = iota
	ActionCreate
	ActionEdit
	ActionDelete
	ActionNotify
)

// Identity is an already authenticated principal. Name is the canonical
// user name, which is the account email.
type Identity struct {
	Name  string
	Roles []Role
}

func (id Identity) Authenticated() bool { return id.Name != "" }

func (id Identity) HasRole(r Role) bool {
	for _, have := range id.Roles {
		if have == r {
			return true
		}
	}
	return false
}

func (id Identity) Owns(c *Customer) bool {
	return c != nil && c.CreatedBy != "" && strings.EqualFold(c.CreatedBy, id.Name)
}

// Authorize returns nil when identity may perform action on record, or a
// *ForbiddenError with a message fit to show next to the record.
func Authorize(action Action, record *Customer, id Identity) error {
	if !id.Authenticated() {
		return &ForbiddenError{Message: "You must be signed in."}
	}
	for _, r := range id.Roles {
		if roleAllows(r, action, record, id) {
			return nil
		}
	}
	if action == ActionView || action == ActionNotify {
		return nil
	}
	return denial(action, record, id)
}

func Can(action Action, record *Customer, id Identity) bool {
	return Authorize(action, record, id) == nil
}

func roleAllows(r Role, action Action, record *Customer, id Identity) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleSupervisor:
		return action != ActionDelete
	case RoleStaff:
		switch action {
		case ActionEdit:
			return id.Owns(record)
		case ActionDelete:
			return false
		default:
			return true
		}
	case RoleSecurity:
		return action == ActionView || action == ActionNotify
	default:
		return false
	}
}

func denial(action Action, record *Customer, id Identity) *ForbiddenError {
	switch action {
	case ActionEdit:
		if record != nil && id.HasRole(RoleStaff) {
			return &ForbiddenError{Message: "You cannot edit " + record.FullName() + " because you did not enter them into the system."}
		}
		return &ForbiddenError{Message: "You are not allowed to edit customers."}
	case ActionDelete:
		return &ForbiddenError{Message: "Only administrators can delete customers."}
	case ActionCreate:
		return &ForbiddenError{Message: "You are not allowed to add customers."}
	default:
		return &ForbiddenError{Message: "You are not allowed to do that."}
	}
}
