package domain

import dErrors "givehub/pkg/domain-errors"

// Role is the actor role asserted by the external actor directory.
// The workflow engine never manages credentials; it only consumes
// (actor id, role) pairs.
type Role string

const (
	RoleContributor  Role = "contributor"
	RoleOrganization Role = "organization"
	RoleAdmin        Role = "admin"
)

// ParseRole validates a role claim from an authentication token.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleContributor, RoleOrganization, RoleAdmin:
		return Role(raw), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
}

func (r Role) String() string { return string(r) }
