package user

import "github.com/commercekit/service-layer/internal/app/domain/audit"

// Role grants a user access to role-gated routes.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleCustomer  Role = "customer"
)

// Roles a user record may carry. Customer is a session-only role.
var AssignableRoles = []Role{RoleAdmin, RoleModerator}

// User is the internal record shape, including the password hash.
type User struct {
	audit.Fields
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Roles        []Role `json:"roles"`
}

// External is the outward response shape. It structurally omits the password
// hash rather than stripping it after the fact.
type External struct {
	audit.Fields
	Name  string `json:"name"`
	Email string `json:"email"`
	Roles []Role `json:"roles"`
}

// External converts the record to its outward shape.
func (u User) External() External {
	roles := u.Roles
	if roles == nil {
		roles = []Role{}
	}
	return External{Fields: u.Fields, Name: u.Name, Email: u.Email, Roles: roles}
}

// Reference renders the record for unique/exists checks.
func (u User) Reference() map[string]any {
	ref := u.Fields.Reference()
	ref["name"] = u.Name
	ref["email"] = u.Email
	return ref
}
