package customer

import "github.com/commercekit/service-layer/internal/app/domain/audit"

// Customer is a person orders are placed for.
type Customer struct {
	audit.Fields
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Reference renders the record for unique/exists checks.
func (c Customer) Reference() map[string]any {
	ref := c.Fields.Reference()
	ref["name"] = c.Name
	ref["email"] = c.Email
	return ref
}
