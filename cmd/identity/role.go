package identity

import (
	"fmt"
	"strings"
)

// Role is the closed set of principal roles.
type Role string

const (
	RoleModerator Role = "moderator"
	RoleEditor    Role = "editor"
	RoleViewer    Role = "viewer"
)

// Roles lists every valid role, ordered from most to least privileged.
func Roles() []Role {
	return []Role{RoleModerator, RoleEditor, RoleViewer}
}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleModerator, RoleEditor, RoleViewer:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// ParseRole converts a stored or configured value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", OpError{Op: "identity.ParseRole", Kind: ErrInvalidInput, Msg: fmt.Sprintf("unknown role %q", s)}
	}
	return r, nil
}
