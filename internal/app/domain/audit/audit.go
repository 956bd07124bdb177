// Package audit holds the bookkeeping columns every persisted entity carries.
package audit

import "time"

// Fields are the standard audit columns. Soft-deleted rows keep their data
// but carry a DeletedAt timestamp and are excluded from default reads.
type Fields struct {
	ID           string     `json:"id"`
	CreateUserID string     `json:"createUserId,omitempty"`
	UpdateUserID string     `json:"updateUserId,omitempty"`
	DeleteUserID string     `json:"deleteUserId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

// Deleted reports whether the record is soft deleted.
func (f Fields) Deleted() bool { return f.DeletedAt != nil }

// Reference renders the audit columns the way the validation engine reads
// candidate records.
func (f Fields) Reference() map[string]any {
	ref := map[string]any{"id": f.ID}
	if f.CreateUserID != "" {
		ref["createUserId"] = f.CreateUserID
	}
	if f.UpdateUserID != "" {
		ref["updateUserId"] = f.UpdateUserID
	}
	if f.CreatedAt != (time.Time{}) {
		ref["createdAt"] = f.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z")
	}
	if f.UpdatedAt != nil {
		ref["updatedAt"] = f.UpdatedAt.UTC().Format("2006-01-02T15:04:05.000Z")
	}
	return ref
}
