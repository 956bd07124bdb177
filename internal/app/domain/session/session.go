// Package session carries the authenticated caller identity through use
// cases for ownership stamping.
package session

// Session identifies the authenticated caller. Zero value means anonymous.
type Session struct {
	UserID string
	Role   string
}

// Anonymous reports whether the request carries no authenticated user.
func (s Session) Anonymous() bool { return s.UserID == "" }
